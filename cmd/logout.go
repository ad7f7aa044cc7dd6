package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Deletes the saved session cookies",
		Long: `Deletes the saved session cookies.

This only forgets the local session; it does not end the session on the
site itself.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.cookieStore()
			if err != nil {
				return err
			}
			if err := store.Clear(); err != nil {
				return fmt.Errorf("could not clear cookies: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Saved cookies cleared.")
			return nil
		},
	}
}
