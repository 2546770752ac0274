package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/timebot/timebot-cli/internal"
)

func TestMarkdownExporter_Export(t *testing.T) {
	withProvider := internal.CreateTestConversation("c3")
	withProvider.ProviderRef = "P1"

	tests := []struct {
		name    string
		conv    *internal.Conversation
		want    []string
		notWant []string
	}{
		{
			name: "basic conversation",
			conv: internal.CreateTestConversation("c1"),
			want: []string{
				"# Conversation c1",
				"**Started:** 2025-10-01T09:30:00Z",
				"**Messages:** 3",
				"## Messages",
				"**assistant:** (2025-10-01T09:30:00Z)",
				"**user:** (2025-10-01T09:31:00Z)",
				"I want to book an appointment",
			},
			notWant: []string{"**Provider:**"},
		},
		{
			name: "message without timestamp",
			conv: internal.CreateTestConversationWithMessages("c2", []internal.Message{
				{Sender: internal.SenderUser, Text: "Hello"},
			}),
			want:    []string{"**user:**\n\nHello"},
			notWant: []string{"**Started:**", "---\n\n**"},
		},
		{
			name: "attached provider",
			conv: withProvider,
			want: []string{"**Provider:** P1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			exporter := &MarkdownExporter{}

			if err := exporter.Export(tt.conv, &buf); err != nil {
				t.Fatalf("MarkdownExporter.Export() error = %v", err)
			}

			output := buf.String()
			for _, wantStr := range tt.want {
				if !strings.Contains(output, wantStr) {
					t.Errorf("Output should contain %q, got:\n%s", wantStr, output)
				}
			}
			for _, s := range tt.notWant {
				if strings.Contains(output, s) {
					t.Errorf("Output should not contain %q, got:\n%s", s, output)
				}
			}
		})
	}
}

func TestMarkdownExporter_Separators(t *testing.T) {
	var buf bytes.Buffer
	conv := internal.CreateTestConversation("c1")
	if err := (&MarkdownExporter{}).Export(conv, &buf); err != nil {
		t.Fatal(err)
	}

	// one after the header plus one between each pair of messages
	if got := strings.Count(buf.String(), "---\n\n"); got != 1+len(conv.Messages)-1 {
		t.Errorf("separator count = %d, want %d", got, len(conv.Messages))
	}
}

func TestEscapeMarkdown(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Book for Monday", "Book for Monday"},
		{"bold", "**Confirmed**", "\\*\\*Confirmed\\*\\*"},
		{"underscore", "__note__", "\\_\\_note\\_\\_"},
		{"code block untouched", "```\n**x**\n```\n**y**", "```\n**x**\n```\n\\*\\*y\\*\\*"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := escapeMarkdown(tt.in); got != tt.want {
				t.Errorf("escapeMarkdown(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestMarkdownExporter_Extension(t *testing.T) {
	if got := (&MarkdownExporter{}).Extension(); got != "md" {
		t.Errorf("MarkdownExporter.Extension() = %v, want md", got)
	}
}

func TestMarkdownExporter_UTCTimestamps(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+30*60)
	conv := internal.CreateTestConversationWithMessages("c9", []internal.Message{
		{Sender: internal.SenderAssistant, Text: "Hi", Timestamp: time.Date(2025, 10, 1, 15, 0, 0, 0, ist)},
	})

	var buf bytes.Buffer
	if err := (&MarkdownExporter{}).Export(conv, &buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "(2025-10-01T09:30:00Z)") {
		t.Errorf("timestamp not rendered in UTC:\n%s", buf.String())
	}
}
