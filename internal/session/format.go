package session

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/parleyhq/parley/internal/domain"
)

// FormatResponse renders a response as one text block for the message
// log:
//   - plain text: the text verbatim
//   - artifact: a fenced code block, then the description when present
//   - analytics: an insights section, then a labeled recommendations
//     section
//   - anything else: the value itself when it is text, otherwise its
//     JSON serialization
func FormatResponse(r domain.Response) string {
	switch v := r.(type) {
	case domain.TextResponse:
		return v.Text

	case domain.ArtifactResponse:
		var b strings.Builder
		b.WriteString("```")
		b.WriteString(v.Language)
		b.WriteString("\n")
		b.WriteString(v.Code)
		b.WriteString("\n```")
		if v.Description != "" {
			b.WriteString("\n")
			b.WriteString(v.Description)
		}
		return b.String()

	case domain.AnalyticsResponse:
		var b strings.Builder
		b.WriteString("Insights:\n")
		for _, in := range v.Insights {
			b.WriteString("- ")
			b.WriteString(in)
			b.WriteString("\n")
		}
		b.WriteString("\nRecommendations:\n")
		for i, rec := range v.Recommendations {
			b.WriteString("- ")
			b.WriteString(rec)
			if i < len(v.Recommendations)-1 {
				b.WriteString("\n")
			}
		}
		return b.String()

	case domain.GenericResponse:
		return formatValue(v.Value)

	default:
		return formatValue(r)
	}
}

func formatValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
