// Package tips produces short energy-saving tips for summary emails.
package tips

import (
	"context"
	"log/slog"
	"strings"

	"github.com/ogulcanaydogan/wattsense/pkg/tokenizer"
)

// Count is the number of tips included in a summary.
const Count = 3

// DefaultMaxTokens bounds the length of a single tip.
const DefaultMaxTokens = 80

// Prompt asks the model for tips in a line-oriented format.
const Prompt = "Give exactly 3 concise tips (2 sentences max each) to reduce home or small-office energy usage. Return as bullet points without numbering."

// Fallback is used whenever generation fails or yields nothing.
var Fallback = []string{
	"Unplug idle chargers and devices; they draw standby power. Use a power strip to switch them off together.",
	"Run appliances off-peak and only with full loads. Keep filters and coils clean for better efficiency.",
	"Use fans and natural light before AC and overhead lights. Close curtains in midday heat to cut cooling load.",
}

// Generator produces tips for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) ([]string, error)
}

// Ensure returns up to Count tips from gen, or a copy of Fallback when gen
// is nil, fails, or returns nothing.
func Ensure(ctx context.Context, gen Generator, logger *slog.Logger) []string {
	if gen != nil {
		got, err := gen.Generate(ctx, Prompt)
		if err != nil {
			logger.Warn("tip generation failed, using fallback", "error", err)
		} else if len(got) > 0 {
			if len(got) > Count {
				got = got[:Count]
			}
			return got
		}
	}
	out := make([]string, len(Fallback))
	copy(out, Fallback)
	return out
}

// ParseLines splits model output into tips: bullets are stripped, blank
// lines dropped, at most Count kept and each cut to maxTokens.
func ParseLines(text string, maxTokens int) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*• ")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if short, err := tokenizer.Truncate(line, maxTokens); err == nil {
			line = short
		}
		out = append(out, line)
		if len(out) == Count {
			break
		}
	}
	return out
}
