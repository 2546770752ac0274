package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/timebot/timebot-cli/internal"
)

var (
	authEmail    string
	authPassword string
	authName     string
	authPhone    string
	authConfirm  string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and keep the session locally",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		id, err := a.ids.Login(cmd.Context(), internal.Credentials{Email: authEmail, Password: authPassword})
		if err != nil {
			internal.PrintError(out, loginFailureMessage(err))
			return errors.New("login failed")
		}
		internal.PrintSuccess(out, fmt.Sprintf("Logged in as %s (client %s)", displayName(id), id.ClientID))
		return nil
	},
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		id, err := a.ids.Signup(cmd.Context(), internal.Registration{
			Name:            authName,
			Email:           authEmail,
			Phone:           authPhone,
			Password:        authPassword,
			ConfirmPassword: authConfirm,
		})
		if errors.Is(err, internal.ErrPasswordMismatch) {
			internal.PrintError(out, "Passwords do not match")
			return err
		}
		if err != nil {
			internal.PrintError(out, loginFailureMessage(err))
			return errors.New("signup failed")
		}
		internal.PrintSuccess(out, fmt.Sprintf("Account created for %s (client %s)", displayName(id), id.ClientID))
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the local session",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.ids.Logout(cmd.Context()); err != nil {
			return fmt.Errorf("failed to clear session: %w", err)
		}
		internal.PrintSuccess(cmd.OutOrStdout(), "Logged out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in client",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		id, err := a.ids.Current(cmd.Context())
		if err != nil {
			internal.PrintWarning(out, internal.UserMessage(err))
			return nil
		}
		fmt.Fprintf(out, "%s (client %s)\n", displayName(id), id.ClientID)
		return nil
	},
}

func displayName(id internal.Identity) string {
	if id.User != nil && id.User.Name != "" {
		return id.User.Name
	}
	return "client"
}

func loginFailureMessage(err error) string {
	var protoErr *internal.ProtocolError
	if errors.As(err, &protoErr) && protoErr.Message != "" {
		return protoErr.Message
	}
	if errors.Is(err, internal.ErrProtocol) {
		return "Login failed"
	}
	return internal.UserMessage(err)
}

func init() {
	rootCmd.AddCommand(loginCmd, signupCmd, logoutCmd, whoamiCmd)

	loginCmd.Flags().StringVar(&authEmail, "email", "", "Account email")
	loginCmd.Flags().StringVar(&authPassword, "password", "", "Account password")
	_ = loginCmd.MarkFlagRequired("email")
	_ = loginCmd.MarkFlagRequired("password")

	signupCmd.Flags().StringVar(&authName, "name", "", "Full name")
	signupCmd.Flags().StringVar(&authEmail, "email", "", "Account email")
	signupCmd.Flags().StringVar(&authPhone, "phone", "", "Phone number")
	signupCmd.Flags().StringVar(&authPassword, "password", "", "Password")
	signupCmd.Flags().StringVar(&authConfirm, "confirm-password", "", "Password again")
	for _, name := range []string{"name", "email", "password", "confirm-password"} {
		_ = signupCmd.MarkFlagRequired(name)
	}
}
