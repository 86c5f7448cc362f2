// Package export renders completed debates in downloadable formats.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/ascendlabs/ascendancy/internal/core"
)

// Format represents an export format.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatPDF      Format = "pdf"
	FormatJSON     Format = "json"
)

// Exporter defines the interface for exporting debates.
type Exporter interface {
	Export(debate *core.DebateResult, w io.Writer) error
	FileExtension() string
	ContentType() string
}

// GetExporter returns an exporter for the given format. "md" is
// accepted as an alias for markdown.
func GetExporter(format Format) (Exporter, error) {
	switch format {
	case FormatMarkdown, "md":
		return &MarkdownExporter{}, nil
	case FormatPDF:
		return &PDFExporter{}, nil
	case FormatJSON:
		return &JSONExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}

// GenerateFilename creates a filename for the export.
func GenerateFilename(debate *core.DebateResult, ext string) string {
	topic := debate.Topic
	if len(topic) > 50 {
		topic = topic[:50]
	}

	replacer := strings.NewReplacer(
		" ", "_",
		"/", "-",
		"\\", "-",
		":", "-",
		"*", "",
		"?", "",
		"\"", "",
		"<", "",
		">", "",
		"|", "",
	)
	topic = replacer.Replace(topic)

	timestamp := debate.CreatedAt.Format("20060102")
	return fmt.Sprintf("debate_%s_%s.%s", timestamp, topic, ext)
}

// roleSections returns the debate roles in speaking order.
func roleSections(debate *core.DebateResult) []struct {
	Title  string
	Output core.RoleOutput
} {
	return []struct {
		Title  string
		Output core.RoleOutput
	}{
		{"Moderator", debate.Moderator},
		{"Skeptic", debate.Skeptic},
		{"Visionary", debate.Visionary},
	}
}
