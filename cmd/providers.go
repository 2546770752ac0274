package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/timebot/timebot-cli/internal"
	"github.com/timebot/timebot-cli/internal/selection"
)

var (
	providersSearch    string
	providersNoConfirm bool
)

// providersCmd represents the providers command
var providersCmd = &cobra.Command{
	Use:     "providers",
	Aliases: []string{"vip"},
	Short:   "Browse bookable providers",
	Long: `List the providers in the public directory.

Use --search to filter by name or specialty (case-insensitive).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		flow := a.selectionFlow()
		err = internal.ShowProgress(ctx, "Loading providers", func() error {
			return flow.Fetch(ctx)
		})
		switch {
		case errors.Is(err, selection.ErrNoProviders):
			displayProviders(out, nil)
			return nil
		case err != nil:
			internal.PrintError(out, "Failed to load providers: "+internal.UserMessage(err))
			return err
		}

		displayProviders(out, flow.Filter(providersSearch))
		return nil
	},
}

var providersShowCmd = &cobra.Command{
	Use:   "show <provider-id>",
	Short: "Show a provider's profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		flow := a.selectionFlow()
		p, err := selectProvider(cmd, flow, args[0])
		if err != nil {
			return err
		}
		displayProviderDetail(cmd.OutOrStdout(), p)
		return nil
	},
}

var providersBookCmd = &cobra.Command{
	Use:   "book <provider-id>",
	Short: "Pay for a provider and hand the booking to the assistant",
	Long: `Select a provider, confirm payment and hand the provider over to the
assistant. The next chat message is sent with that provider attached.

Use --no-confirm to pay and reveal the provider without handing off.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		flow := a.selectionFlow()
		flow.OnHandOff(func(h selection.HandOff) {
			if err := a.savePendingHandOff(ctx, h); err != nil {
				internal.LogWarn("Failed to save hand-off: %v", err)
			}
		})

		p, err := selectProvider(cmd, flow, args[0])
		if err != nil {
			return err
		}
		displayProviderDetail(out, p)

		err = internal.ShowProgress(ctx, "Processing payment", func() error {
			_, err := flow.Pay(ctx)
			return err
		})
		if err != nil {
			internal.PrintWarning(out, "Payment cancelled")
			return err
		}
		displayRevealModal(out, p)

		if providersNoConfirm {
			flow.CloseModal()
			internal.PrintInfo(out, "Provider revealed; not handed off")
			return nil
		}

		h, err := flow.ConfirmAndHandOff()
		if err != nil {
			return err
		}
		internal.PrintSuccess(out, fmt.Sprintf("Booking handed to the assistant (%s). Run 'timebot chat' to continue.", h.Route()))
		return nil
	},
}

// selectProvider fetches the directory and moves the flow to Detail for id
func selectProvider(cmd *cobra.Command, flow *selection.Flow, id string) (internal.Provider, error) {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	err := internal.ShowProgress(ctx, "Loading providers", func() error {
		return flow.Fetch(ctx)
	})
	if err != nil && !errors.Is(err, selection.ErrNoProviders) {
		internal.PrintError(out, "Failed to load providers: "+internal.UserMessage(err))
		return internal.Provider{}, err
	}

	p, ok := flow.Find(id)
	if !ok {
		err := &internal.DataAbsentError{Entity: "provider " + id}
		internal.PrintError(out, internal.UserMessage(err))
		return internal.Provider{}, err
	}
	if err := flow.Select(p); err != nil {
		return internal.Provider{}, err
	}
	return p, nil
}

func init() {
	rootCmd.AddCommand(providersCmd)
	providersCmd.AddCommand(providersShowCmd, providersBookCmd)

	providersCmd.Flags().StringVarP(&providersSearch, "search", "s", "", "Filter by name or specialty")
	providersBookCmd.Flags().BoolVar(&providersNoConfirm, "no-confirm", false, "Reveal the provider without handing off to the assistant")
}
