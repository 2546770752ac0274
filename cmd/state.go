package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/timebot/timebot-cli/internal"
)

var (
	stateFormat  string
	statePreview int
)

// stateKeys are the persisted keys in display order
var stateKeys = []string{
	internal.KeyClientID,
	internal.KeyToken,
	internal.KeyCurrentUser,
	internal.KeyChatHistory,
	internal.KeyPendingHandoff,
}

// KeyInfo describes one persisted key
type KeyInfo struct {
	Key     string `json:"key"`
	Present bool   `json:"present"`
	Bytes   int    `json:"bytes"`
	Preview string `json:"preview,omitempty"`
}

// stateCmd represents the state command
var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Inspect the locally persisted client state",
	Long: `Inspect the keys kept in local state.

This command shows for each key:
  • Whether it is present
  • Its size in bytes
  • A short preview (the token is masked)

Examples:
  timebot state                         # Table of keys
  timebot state --format json           # JSON output
  timebot state clear-cache             # Drop cached appointment loads`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		infos := make([]KeyInfo, 0, len(stateKeys))
		for _, key := range stateKeys {
			info, err := inspectKey(cmd, a.store, key)
			if err != nil {
				return err
			}
			infos = append(infos, info)
		}

		out := cmd.OutOrStdout()
		switch stateFormat {
		case "json":
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(infos)
		case "text", "":
			fmt.Fprintf(out, "📋 Local state: %s (%s)\n\n", a.cfg.Storage.Path, a.cfg.Storage.Backend)
			displayKeyInfos(out, infos)
			return nil
		}
		return fmt.Errorf("unsupported format: %s (supported: text, json)", stateFormat)
	},
}

var stateClearCacheCmd = &cobra.Command{
	Use:   "clear-cache",
	Short: "Remove cached appointment loads",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := internal.NewSnapshotCache(a.cfg.Cache.Dir).ClearCache(); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
		internal.PrintSuccess(cmd.OutOrStdout(), "Appointment cache cleared")
		return nil
	},
}

func inspectKey(cmd *cobra.Command, store internal.KVStore, key string) (KeyInfo, error) {
	value, err := store.Get(cmd.Context(), key)
	if errors.Is(err, internal.ErrNotFound) {
		return KeyInfo{Key: key}, nil
	}
	if err != nil {
		return KeyInfo{}, fmt.Errorf("failed to read %s: %w", key, err)
	}

	info := KeyInfo{Key: key, Present: true, Bytes: len(value)}
	if key == internal.KeyToken {
		info.Preview = maskSecret(string(value))
	} else {
		info.Preview = preview(string(value), statePreview)
	}
	return info, nil
}

func displayKeyInfos(w io.Writer, infos []KeyInfo) {
	for _, info := range infos {
		if !info.Present {
			fmt.Fprintf(w, "  %s %s\n", labelStyle.Render(info.Key), dateStyle.Render("(absent)"))
			continue
		}
		fmt.Fprintf(w, "  %s %s %s\n", labelStyle.Render(info.Key), countStyle.Render(fmt.Sprintf("%d bytes", info.Bytes)), info.Preview)
	}
	fmt.Fprintln(w)
}

func preview(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	if limit <= 0 || len([]rune(s)) <= limit {
		return s
	}
	return string([]rune(s)[:limit]) + "..."
}

func maskSecret(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return s[:4] + strings.Repeat("*", 8)
}

func init() {
	rootCmd.AddCommand(stateCmd)
	stateCmd.AddCommand(stateClearCacheCmd)

	stateCmd.Flags().StringVarP(&stateFormat, "format", "f", "text", "Output format (text, json)")
	stateCmd.Flags().IntVar(&statePreview, "preview", 60, "Preview length in characters (0 for full values)")
}
