package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/yllada/vpn-tray/keyring"
)

func newTokenCommand(e *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the NordVPN access token",
		Long: `Manage the NordVPN access token.

The token is kept in the system keyring, or in an encrypted file when no
keyring service is available. The "Log in" action passes it to the client.`,
	}

	cmd.AddCommand(newTokenSetCommand(e))
	cmd.AddCommand(newTokenClearCommand(e))
	cmd.AddCommand(newTokenStatusCommand(e))
	return cmd
}

func newTokenSetCommand(e *environment) *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Store the access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token = strings.TrimSpace(token)
			if token == "" {
				fmt.Fprint(cmd.OutOrStdout(), "Enter access token: ")
				bytes, err := term.ReadPassword(int(os.Stdin.Fd()))
				fmt.Fprintln(cmd.OutOrStdout())
				if err != nil {
					return err
				}
				token = strings.TrimSpace(string(bytes))
			}
			if token == "" {
				return errors.New("token cannot be empty")
			}

			store := keyring.New(e.dataDir(), e.log)
			if err := store.SetToken(token); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Saved access token")
			return nil
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "access token (optional, overrides prompt)")
	return cmd
}

func newTokenClearCommand(e *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete the stored access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := keyring.New(e.dataDir(), e.log).ClearToken(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Deleted access token")
			return nil
		},
	}
}

func newTokenStatusCommand(e *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether an access token is stored",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := keyring.New(e.dataDir(), e.log)
			backend := "system keyring"
			if store.UsesLocalFile() {
				backend = "encrypted file"
			}
			if store.HasToken() {
				fmt.Fprintf(cmd.OutOrStdout(), "Access token stored (%s)\n", backend)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "No access token stored (%s)\n", backend)
			}
			return nil
		},
	}
}
