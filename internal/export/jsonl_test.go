package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/timebot/timebot-cli/internal"
)

func TestJSONLExporter_Export(t *testing.T) {
	ts := time.Date(2025, 10, 1, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name      string
		conv      *internal.Conversation
		wantLines int
		want      []string
		wantErr   bool
	}{
		{
			name:      "empty conversation",
			conv:      internal.CreateTestConversationWithMessages("c1", []internal.Message{}),
			wantLines: 0,
		},
		{
			name:      "conversation with messages",
			conv:      internal.CreateTestConversation("c2"),
			wantLines: 3,
			want: []string{
				`"actor":"user"`,
				`"actor":"assistant"`,
				`"timestamp":"2025-10-01T09:30:00Z"`,
			},
		},
		{
			name: "message without timestamp",
			conv: internal.CreateTestConversationWithMessages("c3", []internal.Message{
				{Sender: internal.SenderUser, Text: "Hello"},
			}),
			wantLines: 1,
			want: []string{
				`"actor":"user"`,
				`"content":"Hello"`,
			},
		},
		{
			name: "html is not escaped",
			conv: internal.CreateTestConversationWithMessages("c4", []internal.Message{
				{Sender: internal.SenderAssistant, Text: "Fee <₹1500> & tax", Timestamp: ts},
			}),
			wantLines: 1,
			want:      []string{`Fee <₹1500> & tax`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			exporter := &JSONLExporter{}

			err := exporter.Export(tt.conv, &buf)
			if (err != nil) != tt.wantErr {
				t.Fatalf("JSONLExporter.Export() error = %v, wantErr %v", err, tt.wantErr)
			}

			output := buf.String()
			if tt.wantLines == 0 {
				if output != "" {
					t.Errorf("Empty conversation should produce empty output, got: %q", output)
				}
				return
			}

			lines := strings.Split(strings.TrimSpace(output), "\n")
			if len(lines) != tt.wantLines {
				t.Fatalf("got %d lines, want %d", len(lines), tt.wantLines)
			}
			for i, line := range lines {
				var msg map[string]interface{}
				if err := json.Unmarshal([]byte(line), &msg); err != nil {
					t.Errorf("Line %d is not valid JSON: %v", i, err)
				}
				if _, ok := msg["actor"]; !ok {
					t.Errorf("Line %d missing 'actor' field", i)
				}
				if _, ok := msg["content"]; !ok {
					t.Errorf("Line %d missing 'content' field", i)
				}
			}

			for _, wantStr := range tt.want {
				if !strings.Contains(output, wantStr) {
					t.Errorf("Output should contain %q, got %q", wantStr, output)
				}
			}
		})
	}
}

func TestJSONLExporter_Extension(t *testing.T) {
	exporter := &JSONLExporter{}
	if got := exporter.Extension(); got != "jsonl" {
		t.Errorf("JSONLExporter.Extension() = %v, want jsonl", got)
	}
}
