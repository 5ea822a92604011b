package tips_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ogulcanaydogan/wattsense/pkg/tips"
)

type stubGenerator struct {
	tips []string
	err  error
}

func (s stubGenerator) Generate(context.Context, string) ([]string, error) {
	return s.tips, s.err
}

func logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFallbackHasThreeTips(t *testing.T) {
	assert.Len(t, tips.Fallback, tips.Count)
}

func TestEnsure(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		gen  tips.Generator
		want []string
	}{
		{"nil generator", nil, tips.Fallback},
		{"error", stubGenerator{err: errors.New("quota")}, tips.Fallback},
		{"empty", stubGenerator{}, tips.Fallback},
		{"generated", stubGenerator{tips: []string{"a", "b"}}, []string{"a", "b"}},
		{"capped", stubGenerator{tips: []string{"a", "b", "c", "d"}}, []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tips.Ensure(ctx, tt.gen, logger()))
		})
	}
}

func TestEnsure_FallbackIsCopy(t *testing.T) {
	got := tips.Ensure(context.Background(), nil, logger())
	got[0] = "changed"
	assert.NotEqual(t, "changed", tips.Fallback[0])
}

func TestParseLines(t *testing.T) {
	text := "- Turn off idle devices.\n\n* Use LED lights.\n  •  Schedule heavy loads at night.\n- Extra tip."
	got := tips.ParseLines(text, 80)
	assert.Equal(t, []string{
		"Turn off idle devices.",
		"Use LED lights.",
		"Schedule heavy loads at night.",
	}, got)
}

func TestParseLines_TruncatesLongTips(t *testing.T) {
	long := strings.Repeat("Close curtains in midday heat to cut cooling load. ", 30)
	got := tips.ParseLines(long, 10)
	require.Len(t, got, 1)
	assert.Less(t, len(got[0]), len(long))
}

func TestGemini_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta/models/gemini-1.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req, "contents")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"- One.\n- Two.\n- Three.\n- Four."}]}}]}`))
	}))
	defer server.Close()

	g := tips.NewGemini(tips.GeminiConfig{APIKey: "test-key", Endpoint: server.URL})
	got, err := g.Generate(context.Background(), tips.Prompt)
	require.NoError(t, err)
	assert.Equal(t, []string{"One.", "Two.", "Three."}, got)
}

func TestGemini_Generate_NoAPIKey(t *testing.T) {
	g := tips.NewGemini(tips.GeminiConfig{Endpoint: "http://127.0.0.1:1"})
	got, err := g.Generate(context.Background(), tips.Prompt)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGemini_Generate_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	g := tips.NewGemini(tips.GeminiConfig{APIKey: "k", Endpoint: server.URL})
	_, err := g.Generate(context.Background(), tips.Prompt)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")

	// Ensure falls back on the same failure.
	assert.Equal(t, tips.Fallback, tips.Ensure(context.Background(), g, logger()))
}
