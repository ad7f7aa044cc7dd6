package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/rednote-cli/internal/xiaohongshu"
)

// cookieGrace gives the site a moment to finish setting session cookies
// after the login indicator appears, before the session is torn down.
const cookieGrace = 2 * time.Second

// sleepCtx waits for d unless the command is interrupted first, so a
// SIGINT unwinds through the session teardown without the extra delay.
func sleepCtx(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func newLoginCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Opens the login page and waits for you to scan the QR code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// The user has to see the QR code to scan it.
			if a.cfg.Browser.Headless {
				a.logger.Warn("Login needs a visible browser window, overriding headless mode.")
				a.cfg.Browser.Headless = false
			}

			manager, err := a.newBrowserManager()
			if err != nil {
				return err
			}

			var loggedIn bool
			err = manager.WithPage(cmd.Context(), func(page playwright.Page) error {
				flow := xiaohongshu.NewLoginFlow(page, a.logger)
				if loggedIn = flow.Login(cmd.Context()); !loggedIn {
					return nil
				}

				// Confirm with a fresh status probe; the poll only saw
				// the indicator appear once.
				if !flow.CheckLoginStatus(cmd.Context()) {
					a.logger.Warn("Status re-check after login came back negative, saving cookies anyway.")
				}

				// Persist the cookies now rather than relying solely on
				// the teardown snapshot, then give late cookie writes a
				// moment to land.
				if err := manager.SaveCurrentCookies(page); err != nil {
					a.logger.Warn("Could not persist cookies immediately after login.", zap.Error(err))
				}
				sleepCtx(cmd.Context(), cookieGrace)
				return nil
			})
			if err != nil {
				return fmt.Errorf("login session failed: %w", err)
			}
			if !loggedIn {
				return fmt.Errorf("login was not completed: %w", ErrNotLoggedIn)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Login successful, cookies saved.")
			return nil
		},
	}
}
