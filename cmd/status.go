package cmd

import (
	"errors"
	"fmt"

	"github.com/playwright-community/playwright-go"
	"github.com/spf13/cobra"

	"github.com/xkilldash9x/rednote-cli/internal/xiaohongshu"
)

// ErrNotLoggedIn marks the "no authenticated session" outcome so main
// can map it to its own exit code, distinct from real failures.
var ErrNotLoggedIn = errors.New("not logged in")

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Checks whether the persisted cookies still carry an authenticated session",
		Long: `Checks whether the persisted cookies still carry an authenticated session.

Exit codes: 0 logged in, 1 not logged in, 2 the check itself failed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := a.newBrowserManager()
			if err != nil {
				return err
			}

			var loggedIn bool
			err = manager.WithPage(cmd.Context(), func(page playwright.Page) error {
				loggedIn = xiaohongshu.NewLoginFlow(page, a.logger).CheckLoginStatus(cmd.Context())
				return nil
			})
			if err != nil {
				return fmt.Errorf("status check failed: %w", err)
			}

			if !loggedIn {
				fmt.Fprintln(cmd.OutOrStdout(), "NOT_LOGGED_IN")
				return ErrNotLoggedIn
			}
			fmt.Fprintln(cmd.OutOrStdout(), "LOGGED_IN")
			return nil
		},
	}
}
