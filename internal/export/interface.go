// Package export writes a conversation log in one of several file formats.
package export

import (
	"fmt"
	"io"

	"github.com/timebot/timebot-cli/internal"
)

// Exporter writes a conversation in one format
type Exporter interface {
	Export(conv *internal.Conversation, w io.Writer) error
	Extension() string
}

// Formats lists the supported format names
func Formats() []string {
	return []string{"jsonl", "md", "yaml", "json"}
}

// NewExporter creates a new exporter based on format
func NewExporter(format string) (Exporter, error) {
	switch format {
	case "jsonl":
		return &JSONLExporter{}, nil
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	case "yaml":
		return &YAMLExporter{}, nil
	case "json":
		return &JSONExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: jsonl, md, yaml, json)", format)
	}
}
