package export

import (
	"encoding/json"
	"io"

	"github.com/ascendlabs/ascendancy/internal/core"
)

// JSONExporter exports debates to JSON format.
type JSONExporter struct{}

// Export writes the debate as JSON.
func (e *JSONExporter) Export(debate *core.DebateResult, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(debate)
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return "json"
}

func (e *JSONExporter) ContentType() string {
	return "application/json"
}
