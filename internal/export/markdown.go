package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/ascendlabs/ascendancy/internal/core"
)

// MarkdownExporter exports debates to Markdown format.
type MarkdownExporter struct{}

// Export writes the debate as Markdown.
func (e *MarkdownExporter) Export(debate *core.DebateResult, w io.Writer) error {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# %s\n\n", debate.Topic))

	sb.WriteString("## Debate Information\n\n")
	sb.WriteString(fmt.Sprintf("- **ID:** `%s`\n", debate.ID))
	sb.WriteString(fmt.Sprintf("- **Created:** %s\n", debate.CreatedAt.Format("January 2, 2006 at 3:04 PM")))
	sb.WriteString("\n")

	sb.WriteString("## Council\n\n")
	for _, section := range roleSections(debate) {
		sb.WriteString(fmt.Sprintf("- **%s:** %s\n", section.Title, section.Output.Model))
	}
	sb.WriteString("\n")

	for _, section := range roleSections(debate) {
		sb.WriteString(fmt.Sprintf("## %s\n\n", section.Title))
		sb.WriteString(fmt.Sprintf("*%s*\n\n", section.Output.Model))
		sb.WriteString(section.Output.Content)
		sb.WriteString("\n\n---\n\n")
	}

	sb.WriteString("*Exported from ascendancy*\n")

	_, err := w.Write([]byte(sb.String()))
	return err
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return "md"
}

func (e *MarkdownExporter) ContentType() string {
	return "text/markdown"
}
