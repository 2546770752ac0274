package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/timebot/timebot-cli/internal"
	"github.com/timebot/timebot-cli/internal/ledger"
	"github.com/timebot/timebot-cli/internal/selection"
	"golang.org/x/sync/errgroup"
)

// dashboard is what home shows. Each part fails on its own.
type dashboard struct {
	user         *internal.User
	buckets      ledger.Buckets
	bucketsErr   error
	providers    []internal.Provider
	providersErr error
}

// homeCmd represents the home command
var homeCmd = &cobra.Command{
	Use:   "home",
	Short: "Show a summary of your profile, appointments and providers",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		id, err := a.ids.Current(ctx)
		if err != nil {
			internal.PrintError(out, internal.UserMessage(err))
			return err
		}

		var d dashboard
		err = internal.ShowProgress(ctx, "Loading", func() error {
			d = loadDashboard(ctx, a, id)
			return nil
		})
		if err != nil {
			return err
		}
		displayDashboard(out, a.formatter(), d, time.Now())
		return nil
	},
}

func loadDashboard(ctx context.Context, a *app, id internal.Identity) dashboard {
	d := dashboard{user: id.User}
	view := a.ledgerView()
	flow := a.selectionFlow()

	var g errgroup.Group
	g.Go(func() error {
		user, err := a.client.GetProfile(ctx, id.Token)
		if err != nil {
			internal.LogDebug("Profile unavailable, using saved copy: %v", err)
			return nil
		}
		d.user = user
		return a.ids.UpdateUser(ctx, *user)
	})
	g.Go(func() error {
		d.bucketsErr = view.Load(ctx, id.ClientID, "")
		return nil
	})
	g.Go(func() error {
		d.providersErr = flow.Fetch(ctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		internal.LogWarn("Failed to save profile: %v", err)
	}

	d.buckets = view.Snapshot()
	d.providers = flow.Providers()
	return d
}

func displayDashboard(w io.Writer, f ledger.Formatter, d dashboard, now time.Time) {
	if d.user != nil {
		fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("👋 Welcome, %s", orPlaceholder(d.user.Name))))
	} else {
		fmt.Fprintln(w, headerStyle.Render("👋 Welcome"))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, sectionStyle.Render("Next appointment"))
	switch next, ok := d.buckets.NextUpcoming(now); {
	case d.bucketsErr != nil:
		fmt.Fprintln(w, "  "+failureMessage(d.bucketsErr))
	case ok:
		date, clock := ledger.FormatSchedule(f, next.StartTime, next.EndTime)
		fields := ledger.Describe(f, next)
		fmt.Fprintf(w, "  %s with %s\n", titleStyle.Render(date+", "+clock), fields[1].Value)
		fmt.Fprintln(w, "  "+dateStyle.Render(relativeDay(*next.StartTime, now)))
	default:
		fmt.Fprintln(w, dateStyle.Render("  Nothing scheduled"))
	}
	fmt.Fprintf(w, "  %s current, %s previous\n",
		countStyle.Render(fmt.Sprint(len(d.buckets.Current))), countStyle.Render(fmt.Sprint(len(d.buckets.Previous))))
	fmt.Fprintln(w)

	fmt.Fprintln(w, sectionStyle.Render("Providers"))
	switch {
	case d.providersErr != nil && !errors.Is(d.providersErr, selection.ErrNoProviders):
		fmt.Fprintln(w, "  Failed to load providers: "+internal.UserMessage(d.providersErr))
	case len(d.providers) == 0:
		fmt.Fprintln(w, dateStyle.Render("  No providers available"))
	default:
		fmt.Fprintf(w, "  %s available. Run 'timebot providers' to browse.\n", countStyle.Render(fmt.Sprint(len(d.providers))))
	}
	fmt.Fprintln(w)
}

func init() {
	rootCmd.AddCommand(homeCmd)
}
