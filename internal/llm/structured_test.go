package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type titlePayload struct {
	Title string `json:"title"`
}

func nonEmptyTitle(p titlePayload) error {
	if p.Title == "" {
		return errors.New("title is empty")
	}
	return nil
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"clean", `{"title":"Listing campaigns"}`, "Listing campaigns"},
		{"fenced", "```json\n{\"title\":\"Auth flow\"}\n```", "Auth flow"},
		{"surrounding prose", `Sure! {"title":"ROAS report"} Hope that helps.`, "ROAS report"},
		{"braces in string", `{"title":"Use {orgId} filter"}`, "Use {orgId} filter"},
		{"escaped quote", `{"title":"The \"where\" input"}`, `The "where" input`},
		{"nested", `{"title":"x","meta":{"a":{"b":1}}} trailing {"title":"y"}`, "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.raw, nonEmptyTitle)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Title)
		})
	}
}

func TestExtractJSON_Errors(t *testing.T) {
	for _, raw := range []string{
		"no json here",
		`{"title": }`,
		`{"title":"unterminated`,
		`{"title":""}`,
	} {
		_, err := ExtractJSON(raw, nonEmptyTitle)
		assert.ErrorIs(t, err, ErrInvalidOutput, raw)
	}
}

func TestExtractJSON_NilCheck(t *testing.T) {
	got, err := ExtractJSON[titlePayload](`{"title":""}`, nil)
	require.NoError(t, err)
	assert.Empty(t, got.Title)
}
