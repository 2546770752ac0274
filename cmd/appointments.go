package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/timebot/timebot-cli/internal"
	"github.com/timebot/timebot-cli/internal/ledger"
)

var (
	appointmentsAdmin   string
	appointmentsOffline bool
)

// appointmentsCmd represents the appointments command
var appointmentsCmd = &cobra.Command{
	Use:     "appointments",
	Aliases: []string{"appts"},
	Short:   "List your current and previous appointments",
	Long: `List the appointments of the logged-in client, split into current
(upcoming and pending) and previous (completed and cancelled).

Use --admin to narrow the list to one provider and --offline to read the
last successful load from the local cache.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		b, err := loadBuckets(cmd.Context(), a, appointmentsAdmin, appointmentsOffline)
		if err != nil {
			internal.PrintError(out, failureMessage(err))
			return err
		}
		displayBuckets(out, a.formatter(), b)
		if appointmentsOffline {
			internal.PrintInfo(out, "Showing cached data")
		}
		return nil
	},
}

var appointmentsShowCmd = &cobra.Command{
	Use:   "show <appointment-id>",
	Short: "Show one appointment in detail",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		appt, err := findAppointment(cmd.Context(), a, args[0])
		if err != nil {
			internal.PrintError(cmd.OutOrStdout(), failureMessage(err))
			return err
		}
		displayAppointmentDetail(cmd.OutOrStdout(), a.formatter(), appt)
		return nil
	},
}

var appointmentsBookAgainCmd = &cobra.Command{
	Use:   "book-again <appointment-id>",
	Short: "Start a new booking with the provider of a past appointment",
	Long: `Hand the provider of an existing appointment to the assistant.
The next chat message is sent with that provider attached.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		appt, err := findAppointment(ctx, a, args[0])
		if err != nil {
			internal.PrintError(out, failureMessage(err))
			return err
		}
		h, ok := ledger.BookAgain(appt)
		if !ok {
			err := &internal.DataAbsentError{Entity: "provider"}
			internal.PrintError(out, "This appointment has no provider to book again")
			return err
		}
		if err := a.savePendingHandOff(ctx, h); err != nil {
			return err
		}
		internal.PrintSuccess(out, fmt.Sprintf("Next chat goes to %s (%s)", appt.Provider.Name, h.Route()))
		return nil
	},
}

// loadBuckets loads the client's appointments from the backend or, when
// offline, from the snapshot cache.
func loadBuckets(ctx context.Context, a *app, providerRef string, offline bool) (ledger.Buckets, error) {
	view := a.ledgerView()
	clientID := a.ids.ClientID(ctx)

	var err error
	if offline {
		err = view.LoadCached(clientID, providerRef, a.cfg.Cache.TTL)
	} else {
		err = internal.ShowProgress(ctx, "Loading appointments", func() error {
			return view.SetQuery(ctx, clientID, providerRef)
		})
	}
	if err != nil {
		return ledger.Buckets{}, err
	}
	return view.Snapshot(), nil
}

func findAppointment(ctx context.Context, a *app, id string) (internal.Appointment, error) {
	b, err := loadBuckets(ctx, a, "", false)
	if err != nil {
		var loadErr *ledger.LoadError
		if !errors.As(err, &loadErr) {
			return internal.Appointment{}, err
		}
		// Fall back to the cache when the backend is unreachable.
		cached, cacheErr := loadBuckets(ctx, a, "", true)
		if cacheErr != nil {
			return internal.Appointment{}, err
		}
		b = cached
	}
	for _, group := range [][]internal.Appointment{b.Current, b.Previous, b.Unclassified} {
		for _, appt := range group {
			if appt.ID == id || appt.AppointmentID == id {
				return appt, nil
			}
		}
	}
	return internal.Appointment{}, &internal.DataAbsentError{Entity: "appointment " + id}
}

// failureMessage is the text shown for a failed command. Appointment loads
// always show the same generic text.
func failureMessage(err error) string {
	var loadErr *ledger.LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Error()
	}
	return internal.UserMessage(err)
}

func init() {
	rootCmd.AddCommand(appointmentsCmd)
	appointmentsCmd.AddCommand(appointmentsShowCmd, appointmentsBookAgainCmd)

	appointmentsCmd.Flags().StringVar(&appointmentsAdmin, "admin", "", "Only list appointments with this provider")
	appointmentsCmd.Flags().BoolVar(&appointmentsOffline, "offline", false, "Read the last cached load instead of the backend")
}
