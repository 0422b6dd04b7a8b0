package domain

import (
	"encoding/json"
	"fmt"
)

// Response type constants for JSON serialization.
const (
	ResponseTypeText      = "text"
	ResponseTypeArtifact  = "artifact"
	ResponseTypeAnalytics = "analytics"
)

// Response is the polymorphic value an invocation resolves to. Concrete
// variants are TextResponse, ArtifactResponse, AnalyticsResponse; a
// GenericResponse carries anything the service returns outside that set.
type Response interface {
	ResponseType() string
}

// TextResponse is a plain text reply.
type TextResponse struct {
	Text string `json:"content"`
}

func (r TextResponse) ResponseType() string { return ResponseTypeText }

// ArtifactResponse is a generated code artifact with an optional
// human-readable description.
type ArtifactResponse struct {
	Code        string `json:"code"`
	Language    string `json:"language,omitempty"`
	Description string `json:"description,omitempty"`
}

func (r ArtifactResponse) ResponseType() string { return ResponseTypeArtifact }

// AnalyticsResponse is an analytics report: observed insights plus
// recommended actions.
type AnalyticsResponse struct {
	Insights        []string `json:"insights"`
	Recommendations []string `json:"recommendations"`
}

func (r AnalyticsResponse) ResponseType() string { return ResponseTypeAnalytics }

// GenericResponse wraps a response value of an unrecognized type. The
// raw decoded value is preserved so formatting can fall back to a
// structural serialization.
type GenericResponse struct {
	Value any
}

func (r GenericResponse) ResponseType() string { return "generic" }

// MarshalResponse serializes a response with its type discriminator.
func MarshalResponse(r Response) ([]byte, error) {
	switch v := r.(type) {
	case TextResponse:
		return json.Marshal(struct {
			Type string `json:"type"`
			TextResponse
		}{ResponseTypeText, v})
	case ArtifactResponse:
		return json.Marshal(struct {
			Type string `json:"type"`
			ArtifactResponse
		}{ResponseTypeArtifact, v})
	case AnalyticsResponse:
		return json.Marshal(struct {
			Type string `json:"type"`
			AnalyticsResponse
		}{ResponseTypeAnalytics, v})
	case GenericResponse:
		return json.Marshal(v.Value)
	default:
		return nil, fmt.Errorf("unknown response type: %T", r)
	}
}

// UnmarshalResponse deserializes a response by its type discriminator.
// Payloads without a recognized type decode to a GenericResponse rather
// than failing: the session renders those structurally.
func UnmarshalResponse(data []byte) (Response, error) {
	var typeCheck struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &typeCheck); err != nil {
		// Non-object payload (e.g. a bare string): keep it as a
		// generic value instead of failing the round trip.
		var value any
		if err := json.Unmarshal(data, &value); err != nil {
			return nil, err
		}
		return GenericResponse{Value: value}, nil
	}

	switch typeCheck.Type {
	case ResponseTypeText:
		var r TextResponse
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, err
		}
		return r, nil
	case ResponseTypeArtifact:
		var r ArtifactResponse
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, err
		}
		return r, nil
	case ResponseTypeAnalytics:
		var r AnalyticsResponse
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, err
		}
		return r, nil
	default:
		var value any
		if err := json.Unmarshal(data, &value); err != nil {
			return nil, err
		}
		return GenericResponse{Value: value}, nil
	}
}
