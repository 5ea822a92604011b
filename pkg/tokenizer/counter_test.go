package tokenizer_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ogulcanaydogan/wattsense/pkg/tokenizer"
)

func TestCountTokens(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		minCount int
		maxCount int
	}{
		{"short text", "Hello world", 1, 5},
		{"sentence", "The quick brown fox jumps over the lazy dog", 5, 15},
		{"empty text", "", 0, 0},
		{"whitespace only", "   \n\t", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			count, err := tokenizer.CountTokens(tt.text)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, count, tt.minCount)
			assert.LessOrEqual(t, count, tt.maxCount)
		})
	}
}

func TestTruncate_WithinBudget(t *testing.T) {
	text := "Unplug idle chargers and devices."
	got, err := tokenizer.Truncate("  "+text+"\n", 80)
	require.NoError(t, err)
	assert.Equal(t, text, got)
}

func TestTruncate_CutsToBudget(t *testing.T) {
	text := strings.Repeat("Run appliances off-peak and only with full loads. ", 40)

	got, err := tokenizer.Truncate(text, 20)
	require.NoError(t, err)
	assert.Less(t, len(got), len(text))
	assert.True(t, strings.HasPrefix(text, got))

	count, err := tokenizer.CountTokens(got)
	require.NoError(t, err)
	assert.LessOrEqual(t, count, 20)
}

func TestTruncate_ValidUTF8(t *testing.T) {
	text := strings.Repeat("hemat listrik ⚡ ", 50)

	got, err := tokenizer.Truncate(text, 7)
	require.NoError(t, err)
	assert.True(t, utf8.ValidString(got))
}

func TestTruncate_Disabled(t *testing.T) {
	text := strings.Repeat("word ", 500)
	got, err := tokenizer.Truncate(text, 0)
	require.NoError(t, err)
	assert.Equal(t, strings.TrimSpace(text), got)
}
