package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/branch-tracker/internal/credential"
	"github.com/nhle/branch-tracker/internal/source/calendar"
	"github.com/nhle/branch-tracker/internal/theme"
)

func newAuthCommand(ctx *commandContext) *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage stored Google Calendar and IMAP credentials",
	}

	authCmd.AddCommand(newAuthLoginCommand(ctx))
	authCmd.AddCommand(newAuthLogoutCommand(ctx))

	return authCmd
}

func newAuthLoginCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Run the Google Calendar consent flow and store the token",
		RunE: func(cmd *cobra.Command, args []string) error {
			creds, err := ctx.credentials()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			authz := calendar.NewAuthorizer(
				ctx.config.Calendar.CredentialsFile,
				calendar.NewKeyringTokenStore(creds),
				consentPrinter(out),
				ctx.logger,
			)
			oauthCfg, err := authz.Config()
			if err != nil {
				return err
			}
			if _, err := authz.Authorize(cmd.Context(), oauthCfg); err != nil {
				return err
			}

			fmt.Fprintln(out, theme.SuccessStyle.Render("Google Calendar access granted."))
			return nil
		},
	}
}

func newAuthLogoutCommand(ctx *commandContext) *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored calendar token and IMAP password",
		RunE: func(cmd *cobra.Command, args []string) error {
			creds, err := ctx.credentials()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if err := calendar.NewKeyringTokenStore(creds).Forget(); err != nil {
				return fmt.Errorf("removing calendar token: %w", err)
			}
			fmt.Fprintln(out, "Removed Google Calendar token.")

			user := strings.TrimSpace(username)
			if user == "" {
				user = ctx.config.Mailbox.Username
			}
			if user != "" {
				if err := creds.Delete(credential.IMAPKey(user)); err != nil {
					return fmt.Errorf("removing IMAP password: %w", err)
				}
				fmt.Fprintf(out, "Removed IMAP password for %s.\n", user)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "IMAP username (defaults to mailbox.username)")
	return cmd
}
