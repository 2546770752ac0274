package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/timebot/timebot-cli/internal"
)

// JSONLExporter exports one message per line
type JSONLExporter struct{}

type jsonlLine struct {
	Actor     string `json:"actor"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp,omitempty"`
}

// Export implements Exporter
func (e *JSONLExporter) Export(conv *internal.Conversation, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	for _, msg := range conv.Messages {
		line := jsonlLine{Actor: msg.Sender.Label(), Content: msg.Text}
		if !msg.Timestamp.IsZero() {
			line.Timestamp = msg.Timestamp.UTC().Format(time.RFC3339)
		}
		if err := enc.Encode(line); err != nil {
			return fmt.Errorf("failed to encode message: %w", err)
		}
	}

	return nil
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}
