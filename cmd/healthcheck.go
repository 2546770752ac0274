package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/timebot/timebot-cli/internal"
	"github.com/timebot/timebot-cli/internal/selection"
)

var (
	healthcheckVerbose bool
	healthcheckTimeout time.Duration
)

var (
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))
)

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check configuration, local state and backend reachability",
	Long: `Check the health of timebot by verifying:
  • Configuration loading
  • Local state access
  • Login state
  • Appointment cache
  • Backend reachability

This command is useful for debugging setup issues.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		ctx := cmd.Context()

		fmt.Fprintln(out, sectionStyle.Render("🔍 Timebot Health Check"))
		fmt.Fprintln(out)

		// Step 1: Configuration
		fmt.Fprintln(out, infoStyle.Render("Step 1: Loading configuration..."))
		a, err := openApp(cmd)
		if err != nil {
			fmt.Fprintln(out, errorStyle.Render("❌ Failed to load configuration:"), err)
			return err
		}
		defer a.Close()
		fmt.Fprintln(out, successStyle.Render("✅ Configuration loaded"))
		if healthcheckVerbose {
			fmt.Fprintf(out, "   API URL: %s\n", a.client.BaseURL())
			fmt.Fprintf(out, "   Timezone: %s\n", a.cfg.Location())
			fmt.Fprintf(out, "   Chat model: %s\n", a.cfg.Chat.Model)
		}
		fmt.Fprintln(out)

		// Step 2: Local state
		fmt.Fprintln(out, infoStyle.Render("Step 2: Checking local state..."))
		probe := []byte(time.Now().UTC().Format(time.RFC3339))
		if err := a.store.Put(ctx, "healthcheck", probe); err != nil {
			fmt.Fprintln(out, errorStyle.Render("❌ Local state is not writable:"), err)
			return err
		}
		_ = a.store.Delete(ctx, "healthcheck")
		fmt.Fprintln(out, successStyle.Render("✅ Local state accessible"))
		if healthcheckVerbose {
			fmt.Fprintf(out, "   Backend: %s\n", a.cfg.Storage.Backend)
			fmt.Fprintf(out, "   Path: %s\n", a.cfg.Storage.Path)
		}
		fmt.Fprintln(out)

		// Step 3: Login state
		fmt.Fprintln(out, infoStyle.Render("Step 3: Checking login state..."))
		id, err := a.ids.Current(ctx)
		loggedIn := err == nil
		if loggedIn {
			fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ Logged in as %s", displayName(id))))
		} else {
			fmt.Fprintln(out, warningStyle.Render("⚠️  Not logged in"))
			if healthcheckVerbose {
				fmt.Fprintln(out, "   Run 'timebot login' to sign in")
			}
		}
		fmt.Fprintln(out)

		// Step 4: Appointment cache
		fmt.Fprintln(out, infoStyle.Render("Step 4: Checking appointment cache..."))
		cache := internal.NewSnapshotCache(a.cfg.Cache.Dir)
		index, err := cache.LoadIndex()
		switch {
		case err == nil:
			fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ Found %d cached load(s)", len(index.Entries))))
			if healthcheckVerbose {
				for i, e := range index.Entries {
					if i < 5 {
						fmt.Fprintf(out, "   [%d] client %s, %d appointment(s), %s\n", i+1, e.ClientID, e.Count, e.FetchedAt.Local().Format("2006-01-02 15:04"))
					}
				}
				if len(index.Entries) > 5 {
					fmt.Fprintf(out, "   ... and %d more\n", len(index.Entries)-5)
				}
			}
		default:
			fmt.Fprintln(out, warningStyle.Render("⚠️  No appointment cache yet"))
			if healthcheckVerbose {
				fmt.Fprintf(out, "   Directory: %s\n", cache.GetCacheDir())
			}
		}
		fmt.Fprintln(out)

		// Step 5: Backend
		fmt.Fprintln(out, infoStyle.Render("Step 5: Contacting backend..."))
		reachable, providerCount, err := probeBackend(ctx, a)
		if reachable {
			fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ Backend reachable (%d provider(s) listed)", providerCount)))
		} else {
			fmt.Fprintln(out, errorStyle.Render("❌ Backend unreachable:"), internal.UserMessage(err))
			if healthcheckVerbose {
				fmt.Fprintf(out, "   Error: %v\n", err)
			}
		}
		fmt.Fprintln(out)

		// Summary
		fmt.Fprintln(out, sectionStyle.Render("📊 Summary"))
		fmt.Fprintln(out)

		switch {
		case reachable && loggedIn:
			fmt.Fprintln(out, successStyle.Render("✅ Health check passed!"))
			fmt.Fprintln(out, successStyle.Render("   • Backend: Available"))
			fmt.Fprintln(out, successStyle.Render("   • Session: Logged in"))
			return nil
		case reachable:
			fmt.Fprintln(out, warningStyle.Render("⚠️  Backend available but not logged in"))
			fmt.Fprintln(out, "   • Backend is working")
			fmt.Fprintln(out, "   • Chat and appointments need a login")
			return nil
		default:
			fmt.Fprintln(out, errorStyle.Render("❌ Health check failed"))
			fmt.Fprintln(out, "   • The backend could not be reached")
			return fmt.Errorf("health check failed: %w", err)
		}
	},
}

// probeBackend lists providers, the one endpoint that needs no login
func probeBackend(ctx context.Context, a *app) (bool, int, error) {
	ctx, cancel := context.WithTimeout(ctx, healthcheckTimeout)
	defer cancel()

	flow := a.selectionFlow()
	err := flow.Fetch(ctx)
	if err != nil && !errors.Is(err, selection.ErrNoProviders) {
		return false, 0, err
	}
	return true, len(flow.Providers()), nil
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
	healthcheckCmd.Flags().BoolVarP(&healthcheckVerbose, "verbose", "v", false, "Show detailed diagnostic information")
	healthcheckCmd.Flags().DurationVar(&healthcheckTimeout, "timeout", 15*time.Second, "Backend probe timeout")
}
