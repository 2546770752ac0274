package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/timebot/timebot-cli/internal"
	"github.com/timebot/timebot-cli/internal/conversation"
	"github.com/timebot/timebot-cli/internal/export"
)

var (
	chatQuick     string
	chatNew       bool
	chatAdmin     string
	chatLimit     int
	chatFormat    string
	chatOutputDir string
)

// chatCmd represents the chat command
var chatCmd = &cobra.Command{
	Use:   "chat [message...]",
	Short: "Talk to the booking assistant",
	Long: `Send a message to the booking assistant and print its reply.

Without a message, chat reads one message per line from standard input.
Inside that loop, /new starts a new conversation, /quick <action> sends a
quick action and /exit leaves.

Quick actions: book, cancel, reschedule, availability.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		s := a.session()
		s.Initialize(ctx)

		if chatNew {
			s.Reset(ctx)
			internal.PrintInfo(out, "Started a new conversation")
		}
		if h, ok := a.takePendingHandOff(ctx); ok {
			s.Attach(ctx, h.ProviderID)
			internal.PrintInfo(out, fmt.Sprintf("Booking with provider %s", h.ProviderID))
		}
		if chatAdmin != "" {
			s.Attach(ctx, chatAdmin)
		}

		text := strings.Join(args, " ")
		if chatQuick != "" {
			prompt, ok := conversation.QuickAction(chatQuick).Prompt()
			if !ok {
				return fmt.Errorf("unknown quick action: %s (supported: %s)", chatQuick, quickActionNames())
			}
			text = prompt
		}

		if strings.TrimSpace(text) == "" {
			if chatNew {
				log := s.Log()
				displayMessage(out, len(log), log[len(log)-1], len(log))
				return nil
			}
			return chatLoop(ctx, cmd.InOrStdin(), out, s)
		}
		return sendAndShow(ctx, out, s, text)
	},
}

var chatShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current conversation",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		s := a.session()
		displayConversation(cmd.OutOrStdout(), s.Initialize(cmd.Context()), chatLimit)
		return nil
	},
}

var chatExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the current conversation to a file",
	Long:  `Export the conversation to jsonl, md, yaml or json.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		exporter, err := export.NewExporter(chatFormat)
		if err != nil {
			return err
		}

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		conv := a.session().Initialize(cmd.Context())
		path, err := exportConversation(exporter, conv, chatOutputDir)
		if err != nil {
			return err
		}
		internal.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Exported %d message(s) to %s", len(conv.Messages), path))
		return nil
	},
}

func exportConversation(exporter export.Exporter, conv *internal.Conversation, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", &internal.ExportError{Format: exporter.Extension(), Path: dir, Err: err}
	}
	path := filepath.Join(dir, fmt.Sprintf("conversation_%s.%s", conv.ID, exporter.Extension()))

	file, err := os.Create(path)
	if err != nil {
		return "", &internal.ExportError{Format: exporter.Extension(), Path: path, Err: err}
	}
	if err := exporter.Export(conv, file); err != nil {
		_ = file.Close()
		return "", &internal.ExportError{Format: exporter.Extension(), Path: path, Err: err}
	}
	if err := file.Close(); err != nil {
		return "", &internal.ExportError{Format: exporter.Extension(), Path: path, Err: err}
	}
	return path, nil
}

// sendAndShow sends one message and prints the assistant's answer.
// Remote failures are part of the answer; only preconditions fail the command.
func sendAndShow(ctx context.Context, w io.Writer, s *conversation.Session, text string) error {
	var reply internal.Message
	err := internal.ShowProgress(ctx, "Awaiting reply", func() error {
		var err error
		reply, err = s.Send(ctx, text)
		return err
	})
	switch {
	case errors.Is(err, conversation.ErrEmptyMessage):
		internal.PrintWarning(w, "Type a message first")
		return nil
	case errors.Is(err, internal.ErrIdentityMissing):
		internal.PrintError(w, internal.UserMessage(err))
		return err
	case err != nil:
		return err
	}

	total := len(s.Log())
	displayMessage(w, total, reply, total)
	return nil
}

func chatLoop(ctx context.Context, in io.Reader, w io.Writer, s *conversation.Session) error {
	log := s.Log()
	displayMessage(w, len(log), log[len(log)-1], len(log))

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(w, userMessageStyle.Render("> "))
		if !scanner.Scan() {
			fmt.Fprintln(w)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "":
			continue
		case line == "/exit" || line == "/quit":
			return nil
		case line == "/new":
			conv := s.Reset(ctx)
			displayMessage(w, 1, conv.Messages[0], 1)
			continue
		case strings.HasPrefix(line, "/quick"):
			name := strings.TrimSpace(strings.TrimPrefix(line, "/quick"))
			prompt, ok := conversation.QuickAction(name).Prompt()
			if !ok {
				internal.PrintWarning(w, "Quick actions: "+quickActionNames())
				continue
			}
			line = prompt
		}

		if err := sendAndShow(ctx, w, s, line); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func quickActionNames() string {
	names := make([]string, 0, len(conversation.QuickActions()))
	for _, q := range conversation.QuickActions() {
		names = append(names, string(q))
	}
	return strings.Join(names, ", ")
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.AddCommand(chatShowCmd, chatExportCmd)

	chatCmd.Flags().StringVarP(&chatQuick, "quick", "q", "", "Send a quick action (book, cancel, reschedule, availability)")
	chatCmd.Flags().BoolVar(&chatNew, "new", false, "Start a new conversation first")
	chatCmd.Flags().StringVar(&chatAdmin, "admin", "", "Attach a provider id to the conversation")

	chatShowCmd.Flags().IntVarP(&chatLimit, "limit", "n", 0, "Show only the last n messages")

	chatExportCmd.Flags().StringVarP(&chatFormat, "format", "f", "md", "Export format ("+strings.Join(export.Formats(), ", ")+")")
	chatExportCmd.Flags().StringVarP(&chatOutputDir, "out", "o", "./exports", "Output directory")
}
