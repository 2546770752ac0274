package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/timebot/timebot-cli/internal"
)

var (
	verbose        bool
	configFile     string
	storageBackend string
	storagePath    string
	apiURL         string
	version        string = "dev"
	commit         string = "unknown"
	date           string = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "timebot",
	Short: "Book, track and chat about appointments from the terminal",
	Long: `A terminal client for the TimeBot appointment-booking assistant.

Talk to the AI scheduling assistant, browse providers, pay for a consultation
and review your appointment history. Your conversation and session are kept
locally and survive restarts.

Features:
  • Chat with the booking assistant, with quick actions
  • Browse and search providers, simulated payment and hand-off to chat
  • Current and previous appointments with details
  • Offline view of the last fetched appointments
  • Export the conversation (JSONL, Markdown, YAML, JSON)

Quick Start:
  timebot login --email you@example.com    # Sign in
  timebot chat "I want to book an appointment"
  timebot providers --search cardio         # Find a provider
  timebot appointments                      # Review your bookings`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		internal.SetVerbose(verbose)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	internal.SyncLogs()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default ~/.timebot/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&storageBackend, "storage", "", "Local state backend (sqlite, bolt, memory)")
	rootCmd.PersistentFlags().StringVar(&storagePath, "storage-path", "", "Path of the local state database")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Backend base URL")

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
