package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/terraincognita07/rehab360/internal/remote"
	"github.com/terraincognita07/rehab360/internal/store"
	"go.uber.org/zap"
)

func newRegisterCommand(rt *runtime) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a server account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			password, err := PromptNewPassword(rt.streams.In, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return rt.withStore(func(journal *store.Store, client *remote.Client) error {
				result, err := client.Register(cmd.Context(), email, password)
				if err != nil {
					return fmt.Errorf("register: %w", err)
				}
				return rt.startSession(cmd, journal, result)
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLoginCommand(rt *runtime) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and pull the latest entries from the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			password, err := PromptPassword("Password: ", rt.streams.In, out)
			if err != nil {
				return err
			}
			return rt.withStore(func(journal *store.Store, client *remote.Client) error {
				result, err := client.Login(cmd.Context(), email, password)
				if err != nil {
					return fmt.Errorf("login: %w", err)
				}
				if result.MustChangePassword {
					if err := rt.changeTemporaryPassword(cmd.Context(), client, result.Token, password); err != nil {
						return err
					}
				}
				return rt.startSession(cmd, journal, result)
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (rt *runtime) changeTemporaryPassword(ctx context.Context, client *remote.Client, token string, temporary string) error {
	out := rt.streams.Out
	fmt.Fprintln(out, "This account uses a temporary password. Choose a new one.")
	password, err := PromptNewPassword(rt.streams.In, out)
	if err != nil {
		return err
	}
	if err := client.ChangePassword(ctx, token, temporary, password); err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	fmt.Fprintln(out, RenderSuccess("Password updated"))
	return nil
}

// startSession stores the session and replaces the local journal with the
// server copy when the server has entries.
func (rt *runtime) startSession(cmd *cobra.Command, journal *store.Store, result remote.AuthResult) error {
	journal.SetSession(store.Session{Token: result.Token, UserID: result.UserID})
	fmt.Fprintln(cmd.OutOrStdout(), RenderSuccess("Signed in"))

	if err := journal.Refetch(cmd.Context()); err != nil {
		rt.logger.Warn("initial sync failed", zap.Error(err))
		fmt.Fprintln(cmd.OutOrStdout(), RenderError(describeRemoteError(err)))
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d entries on this device\n", len(journal.Snapshot()))
	return nil
}

func newLogoutCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rt.withStore(func(journal *store.Store, _ *remote.Client) error {
				if _, ok := journal.Session(); !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Not signed in.")
					return nil
				}
				journal.EndSession()
				fmt.Fprintln(cmd.OutOrStdout(), RenderSuccess("Signed out"))
				return nil
			})
		},
	}
}
