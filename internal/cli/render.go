package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/finagentlabs/finagent"
	"github.com/finagentlabs/finagent/pkg/domain"
)

// NewRenderer returns a function that renders markdown for the terminal
// using glamour, auto-detecting light/dark background.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
	)
	if err != nil {
		// Fall back to plain text when no TTY styling is available.
		return func(markdown string) (string, error) { return markdown, nil }
	}
	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// FormatNodeEvent renders one progress line for a streamed node event, or
// "" when the node added no thinking step.
func FormatNodeEvent(ev domain.NodeEvent) string {
	if len(ev.Delta.ThinkingSteps) == 0 {
		return ""
	}
	last := ev.Delta.ThinkingSteps[len(ev.Delta.ThinkingSteps)-1]
	return fmt.Sprintf("[%s] %s", ev.Node, last.Description)
}

// FormatResult renders a batch result as markdown: the answer followed by
// its evidence citations.
func FormatResult(result *finagent.Result) string {
	var b strings.Builder
	b.WriteString(result.Answer)
	b.WriteString("\n")

	if result.Degraded {
		b.WriteString("\n> Note: the reasoning service was unavailable; this is a degraded answer.\n")
	}

	if len(result.Citations) > 0 {
		b.WriteString("\n## Sources\n\n")
		for i, c := range result.Citations {
			label := c.Step
			if label == "" {
				label = "direct retrieval"
			}
			fmt.Fprintf(&b, "%d. `%s` (%s)\n", i+1, c.Tool, label)
		}
	}
	return b.String()
}
