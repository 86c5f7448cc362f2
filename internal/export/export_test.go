package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/ascendlabs/ascendancy/internal/core"
)

func sampleDebate() *core.DebateResult {
	return &core.DebateResult{
		ID:        "11111111-2222-3333-4444-555555555555",
		UserID:    "user_1",
		Topic:     "Should we adopt generics?",
		Moderator: core.RoleOutput{Model: "lightning-ai/llama-3.3-70b", Content: "Opening take."},
		Skeptic:   core.RoleOutput{Model: "lightning-ai/deepseek-v3", Content: "Pushback."},
		Visionary: core.RoleOutput{Model: "lightning-ai/qwen3-32b", Content: "Synthesis."},
		CreatedAt: time.Date(2025, 3, 14, 15, 4, 0, 0, time.UTC),
	}
}

func TestGetExporter(t *testing.T) {
	for _, format := range []Format{FormatMarkdown, "md", FormatJSON, FormatPDF} {
		if _, err := GetExporter(format); err != nil {
			t.Errorf("GetExporter(%s) error = %v", format, err)
		}
	}
	if _, err := GetExporter("docx"); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestMarkdownExport(t *testing.T) {
	var buf bytes.Buffer
	if err := (&MarkdownExporter{}).Export(sampleDebate(), &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"# Should we adopt generics?",
		"## Moderator",
		"Opening take.",
		"## Skeptic",
		"Pushback.",
		"## Visionary",
		"Synthesis.",
		"lightning-ai/deepseek-v3",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q", want)
		}
	}

	// Roles appear in speaking order.
	if strings.Index(out, "## Skeptic") < strings.Index(out, "## Moderator") {
		t.Error("sections out of order")
	}
}

func TestJSONExport(t *testing.T) {
	var buf bytes.Buffer
	if err := (&JSONExporter{}).Export(sampleDebate(), &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	var decoded core.DebateResult
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Topic != "Should we adopt generics?" || decoded.Visionary.Content != "Synthesis." {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestPDFExport(t *testing.T) {
	var buf bytes.Buffer
	if err := (&PDFExporter{}).Export(sampleDebate(), &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Error("output does not start with a PDF header")
	}
}

func TestGenerateFilename(t *testing.T) {
	got := GenerateFilename(sampleDebate(), "md")
	if got != "debate_20250314_Should_we_adopt_generics.md" {
		t.Errorf("filename = %q", got)
	}
}
