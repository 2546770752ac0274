package cmd

import (
	"github.com/spf13/cobra"
	"github.com/timebot/timebot-cli/internal"
)

var (
	profileName    string
	profilePhone   string
	profileAddress string
	profileAvatar  string
)

// profileCmd represents the profile command
var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show your profile",
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

		var user *internal.User
		err = internal.ShowProgress(ctx, "Loading profile", func() error {
			var err error
			user, err = a.client.GetProfile(ctx, id.Token)
			return err
		})
		if err != nil {
			if id.User == nil {
				internal.PrintError(out, internal.UserMessage(err))
				return err
			}
			internal.PrintWarning(out, "Showing saved profile: "+internal.UserMessage(err))
			user = id.User
		} else if err := a.ids.UpdateUser(ctx, *user); err != nil {
			internal.LogWarn("Failed to save profile: %v", err)
		}

		displayUser(out, user)
		return nil
	},
}

var profileUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update your profile",
	Long:  `Update the name, phone, address or avatar of your profile. Unset flags keep their current value.`,
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

		var user internal.User
		if id.User != nil {
			user = *id.User
		}
		flags := cmd.Flags()
		if flags.Changed("name") {
			user.Name = profileName
		}
		if flags.Changed("phone") {
			user.Phone = profilePhone
		}
		if flags.Changed("address") {
			user.Address = profileAddress
		}
		if flags.Changed("avatar") {
			user.Avatar = profileAvatar
		}

		var updated *internal.User
		err = internal.ShowProgress(ctx, "Saving profile", func() error {
			var err error
			updated, err = a.client.UpdateProfile(ctx, id.Token, user)
			return err
		})
		if err != nil {
			internal.PrintError(out, internal.UserMessage(err))
			return err
		}
		if err := a.ids.UpdateUser(ctx, *updated); err != nil {
			return err
		}

		internal.PrintSuccess(out, "Profile updated")
		displayUser(out, updated)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileUpdateCmd)

	profileUpdateCmd.Flags().StringVar(&profileName, "name", "", "Display name")
	profileUpdateCmd.Flags().StringVar(&profilePhone, "phone", "", "Phone number")
	profileUpdateCmd.Flags().StringVar(&profileAddress, "address", "", "Postal address")
	profileUpdateCmd.Flags().StringVar(&profileAvatar, "avatar", "", "Avatar image URL")
}
