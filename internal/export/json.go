package export

import (
	"encoding/json"
	"io"

	"github.com/timebot/timebot-cli/internal"
)

// JSONExporter exports the whole conversation as pretty-printed JSON
type JSONExporter struct{}

// Export implements Exporter
func (e *JSONExporter) Export(conv *internal.Conversation, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)

	return enc.Encode(conv)
}

// Extension returns the file extension for this format
func (e *JSONExporter) Extension() string {
	return "json"
}
