package tokenizer

import (
	"fmt"
	"strings"

	"github.com/tiktoken-go/tokenizer"
)

// Encoding used for generated text. Gemini does not publish a local
// tokenizer, so cl100k_base stands in as a close approximation.
const Encoding = tokenizer.Cl100kBase

func codec() (tokenizer.Codec, error) {
	enc, err := tokenizer.Get(Encoding)
	if err != nil {
		return nil, fmt.Errorf("load encoding %s: %w", Encoding, err)
	}
	return enc, nil
}

// CountTokens returns the cl100k_base token count for the given text.
func CountTokens(text string) (int, error) {
	if strings.TrimSpace(text) == "" {
		return 0, nil
	}
	enc, err := codec()
	if err != nil {
		return estimateTokens(text), nil
	}

	ids, _, err := enc.Encode(text)
	if err != nil {
		return 0, fmt.Errorf("encode text: %w", err)
	}
	return len(ids), nil
}

// Truncate shortens text to at most maxTokens tokens. Text already within
// the budget is returned trimmed but otherwise unchanged. A non-positive
// maxTokens disables truncation.
func Truncate(text string, maxTokens int) (string, error) {
	text = strings.TrimSpace(text)
	if maxTokens <= 0 || text == "" {
		return text, nil
	}

	enc, err := codec()
	if err != nil {
		// Without an encoding fall back to 4 chars per token.
		if limit := maxTokens * 4; len(text) > limit {
			return strings.ToValidUTF8(text[:limit], ""), nil
		}
		return text, nil
	}

	ids, _, err := enc.Encode(text)
	if err != nil {
		return "", fmt.Errorf("encode text: %w", err)
	}
	if len(ids) <= maxTokens {
		return text, nil
	}

	out, err := enc.Decode(ids[:maxTokens])
	if err != nil {
		return "", fmt.Errorf("decode tokens: %w", err)
	}
	// A cut can land inside a multi-byte rune.
	return strings.TrimSpace(strings.ToValidUTF8(out, "")), nil
}

// estimateTokens uses character-based estimation (4 chars per token on average).
func estimateTokens(text string) int {
	text = strings.TrimSpace(text)
	if len(text) == 0 {
		return 0
	}
	return (len(text) + 3) / 4 // ceiling division by 4
}
