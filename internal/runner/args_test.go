package runner

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchParamShapes(t *testing.T) {
	tests := []struct {
		name        string
		instruction string
		param       string
		want        string
	}{
		{"double quoted assignment", `send with subject: "hello world" now`, "subject", "hello world"},
		{"single quoted assignment", `set path = '/tmp/out' please`, "path", "/tmp/out"},
		{"unquoted assignment", "add a=5 and more", "a", "5"},
		{"is phrasing", "the path is /var/log, thanks", "path", "/var/log"},
		{"to phrasing", "set width to 80", "width", "80"},
		{"use-as phrasing", "use name as alice", "name", "alice"},
		{"value-for phrasing", "use 42 for the count", "count", "42"},
		{"case insensitive", "A=7", "a", "7"},
		{"decimal assignment", "divide a=5 b=2.5", "b", "2.5"},
		{"decimal before sentence period", "set ratio=0.75.", "ratio", "0.75"},
		{"decimal value-for phrasing", "use 3.5 for the factor", "factor", "3.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := matchParam(tt.instruction, tt.param)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatchParamNoMatch(t *testing.T) {
	_, ok := matchParam("nothing relevant here", "subject")
	assert.False(t, ok)
}

func TestExtractArgsGatewayFallback(t *testing.T) {
	client := &mockClient{CompleteFunc: func(_ context.Context, _, user string) (string, error) {
		return `{"value": "bob@example.com"}`, nil
	}}

	values, missing := ExtractArgs(context.Background(), client, "mail bob", []string{"to"})
	assert.Empty(t, missing)
	assert.Equal(t, "bob@example.com", values["to"])
}

func TestExtractArgsNumericFallbackValue(t *testing.T) {
	client := &mockClient{CompleteFunc: func(_ context.Context, _, _ string) (string, error) {
		return `{"value": 5}`, nil
	}}

	values, missing := ExtractArgs(context.Background(), client, "five of them", []string{"count"})
	assert.Empty(t, missing)
	assert.Equal(t, "5", values["count"])
}

func TestExtractArgsReportsMissing(t *testing.T) {
	client := &mockClient{CompleteFunc: func(_ context.Context, _, _ string) (string, error) {
		return `{"value": null}`, nil
	}}

	values, missing := ExtractArgs(context.Background(), client, "add a=5", []string{"a", "b"})
	assert.Equal(t, "5", values["a"])
	assert.Equal(t, []string{"b"}, missing)
}

func TestExtractArgsGatewayFailureIsMissing(t *testing.T) {
	client := &mockClient{CompleteFunc: func(_ context.Context, _, _ string) (string, error) {
		return "", errors.New("gateway down")
	}}

	_, missing := ExtractArgs(context.Background(), client, "no values here", []string{"x", "y"})
	assert.Equal(t, []string{"x", "y"}, missing)
}

func TestExtractArgsRegexBeatsGateway(t *testing.T) {
	calls := 0
	client := &mockClient{CompleteFunc: func(_ context.Context, _, _ string) (string, error) {
		calls++
		return `{"value": "wrong"}`, nil
	}}

	values, missing := ExtractArgs(context.Background(), client, "add a=5 b=3", []string{"a", "b"})
	assert.Empty(t, missing)
	assert.Equal(t, "5", values["a"])
	assert.Equal(t, "3", values["b"])
	assert.Zero(t, calls, "gateway must not be consulted when regex matches")
}
