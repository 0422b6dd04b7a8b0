package session

import (
	"testing"

	"github.com/parleyhq/parley/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestFormatTextResponse(t *testing.T) {
	got := FormatResponse(domain.TextResponse{Text: "plain reply"})
	assert.Equal(t, "plain reply", got)
}

func TestFormatArtifactResponse(t *testing.T) {
	got := FormatResponse(domain.ArtifactResponse{
		Code:        `fmt.Println("hi")`,
		Language:    "go",
		Description: "Prints a greeting.",
	})
	want := "```go\nfmt.Println(\"hi\")\n```\nPrints a greeting."
	assert.Equal(t, want, got)
}

func TestFormatArtifactWithoutDescription(t *testing.T) {
	got := FormatResponse(domain.ArtifactResponse{Code: "<div/>", Language: "html"})
	assert.Equal(t, "```html\n<div/>\n```", got)
}

func TestFormatAnalyticsResponse(t *testing.T) {
	got := FormatResponse(domain.AnalyticsResponse{
		Insights:        []string{"traffic doubled", "bounce rate fell"},
		Recommendations: []string{"add caching"},
	})
	want := "Insights:\n- traffic doubled\n- bounce rate fell\n\nRecommendations:\n- add caching"
	assert.Equal(t, want, got)
}

func TestFormatGenericResponse(t *testing.T) {
	// A bare text value passes through untouched.
	got := FormatResponse(domain.GenericResponse{Value: "just a string"})
	assert.Equal(t, "just a string", got)

	// Structured but unrecognized values serialize structurally.
	got = FormatResponse(domain.GenericResponse{Value: map[string]any{"score": 7.0}})
	assert.Equal(t, `{"score":7}`, got)
}
