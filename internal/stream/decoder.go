// Package stream decodes the line-framed event stream returned by a
// streaming invocation.
//
// The logical text is newline-delimited. Only lines of the form
// "data: <json>" carry events; every other line is ignored. Chunks
// arrive with arbitrary split points, so the decoder keeps a single
// pending-fragment buffer: each chunk is appended, complete lines are
// decoded and emitted, and the trailing fragment is carried into the
// next chunk. Whatever is left in the buffer when the source is
// exhausted cannot be a complete line and is discarded.
package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"io"

	"github.com/parleyhq/parley/internal/domain"
	"github.com/parleyhq/parley/internal/logging"
)

// Prefix marks lines that carry an event payload.
const Prefix = "data: "

const chunkSize = 4096

// Decoder turns a line-framed byte source into an ordered stream of
// events. One Decoder may serve many decode sessions; each call to
// Decode owns its own pending buffer.
type Decoder struct {
	log *logging.Logger
}

func NewDecoder() *Decoder {
	return &Decoder{log: logging.New("stream")}
}

// Decode consumes src and emits its events in order on the returned
// channel. The channel is closed when the source is exhausted, the
// context is cancelled, or the source fails; src is closed on every
// one of those paths. Unparsable payload lines are skipped and never
// abort decoding of later lines.
func (d *Decoder) Decode(ctx context.Context, src io.ReadCloser) <-chan domain.StreamEvent {
	events := make(chan domain.StreamEvent, 16)

	go func() {
		defer close(events)
		defer src.Close()

		var pending []byte
		buf := make([]byte, chunkSize)

		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			n, err := src.Read(buf)
			if n > 0 {
				pending = append(pending, buf[:n]...)

				pieces := bytes.Split(pending, []byte{'\n'})
				last := len(pieces) - 1
				for _, line := range pieces[:last] {
					ev, ok := d.decodeLine(line)
					if !ok {
						continue
					}
					select {
					case events <- ev:
					case <-ctx.Done():
						return
					}
				}
				// The final piece may be empty or a genuinely
				// incomplete line; carry it forward.
				pending = append(pending[:0], pieces[last]...)
			}
			if err != nil {
				if err != io.EOF {
					d.log.Warn("stream_read_failed", nil, err)
				}
				return
			}
		}
	}()

	return events
}

// decodeLine decodes one complete line. Lines without the payload
// prefix, with malformed JSON, or with an unknown event type report
// ok=false and are dropped.
func (d *Decoder) decodeLine(line []byte) (domain.StreamEvent, bool) {
	if !bytes.HasPrefix(line, []byte(Prefix)) {
		return domain.StreamEvent{}, false
	}

	var ev domain.StreamEvent
	if err := json.Unmarshal(line[len(Prefix):], &ev); err != nil {
		d.log.Debug("frame_skipped", map[string]interface{}{
			"reason": "malformed payload",
		})
		return domain.StreamEvent{}, false
	}
	if !domain.KnownStreamEventType(ev.Type) {
		d.log.Debug("frame_skipped", map[string]interface{}{
			"reason": "unknown event type",
			"type":   string(ev.Type),
		})
		return domain.StreamEvent{}, false
	}
	return ev, true
}
