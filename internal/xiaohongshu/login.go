// Package xiaohongshu drives the platform's web UI: login-state
// detection, the QR-code login handshake, and the image+text publish
// workflow. All of it is selector heuristics against markup the platform
// can change at any time; the flows prefer ordered fallback chains over
// failing hard on the first miss.
package xiaohongshu

import (
	"context"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

// LoginFlow checks and establishes the authenticated session on a live
// page. The page belongs to exactly one session scope.
type LoginFlow struct {
	page   playwright.Page
	logger *zap.Logger
}

// NewLoginFlow binds a login flow to a page.
func NewLoginFlow(page playwright.Page, logger *zap.Logger) *LoginFlow {
	return &LoginFlow{page: page, logger: logger.Named("login")}
}

// CheckLoginStatus reports whether the page's session is authenticated.
// It navigates to the landing page with a short timeout and waits only
// for the initial DOM parse to keep checks fast, then applies the
// fixed-order heuristic chain. A navigation failure means the check
// cannot run and reports unauthenticated rather than raising.
func (f *LoginFlow) CheckLoginStatus(ctx context.Context) bool {
	f.logger.Info("Checking login status.")

	_, err := f.page.Goto(ExploreURL, playwright.PageGotoOptions{
		Timeout:   playwright.Float(float64(statusNavTimeout.Milliseconds())),
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	if err != nil {
		f.logger.Error("Navigation failed during status check.", zap.Error(err))
		return false
	}

	if err := pause(ctx, statusSettleWait); err != nil {
		return false
	}

	return f.probeLoginState()
}

// probeLoginState runs the heuristic chain against the current page,
// first match wins. Probe failures are non-matches; the chain continues.
func (f *LoginFlow) probeLoginState() bool {
	// 1. The primary indicator only exists in authenticated chrome.
	if el, err := f.page.QuerySelector(loginIndicator); err == nil && el != nil {
		f.logger.Info("Logged in (primary indicator).")
		return true
	}

	// 2. Generic user/avatar elements, in decreasing confidence.
	for _, selector := range userIndicators {
		if el, err := f.page.QuerySelector(selector); err == nil && el != nil {
			f.logger.Info("Logged in (user indicator).", zap.String("selector", selector))
			return true
		}
	}

	// 3. Authenticated-only labels anywhere in the rendered markup.
	if content, err := f.page.Content(); err == nil {
		for _, marker := range loggedInMarkers {
			if strings.Contains(content, marker) {
				f.logger.Info("Logged in (page content marker).", zap.String("marker", marker))
				return true
			}
		}
	} else {
		f.logger.Debug("Could not read page content.", zap.Error(err))
	}

	// 4. A redirect to the login page confirms the negative. This never
	// overrides an earlier positive because the chain already returned.
	currentURL := strings.ToLower(f.page.URL())
	for _, fragment := range loginPathFragments {
		if strings.Contains(currentURL, fragment) {
			f.logger.Info("Redirected to login page, confirmed not logged in.")
			return false
		}
	}

	f.logger.Info("No heuristic detected a logged-in state.")
	return false
}

// Login performs the QR-code handshake. It loads the landing page fully
// (the login widget is injected asynchronously, so this waits for
// network idle, unlike the fast status check), returns immediately if a
// session already exists, and otherwise polls for the authenticated
// indicator while the user scans the code out of band.
func (f *LoginFlow) Login(ctx context.Context) bool {
	f.logger.Info("Starting login flow.")

	_, err := f.page.Goto(ExploreURL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
	})
	if err != nil {
		f.logger.Error("Navigation failed during login.", zap.Error(err))
		return false
	}

	if err := pause(ctx, statusSettleWait); err != nil {
		return false
	}

	if f.probeLoginState() {
		f.logger.Info("Already logged in, nothing to do.")
		return true
	}

	f.logger.Info("Waiting for QR code scan.",
		zap.Duration("timeout", loginPollTimeout))

	deadline := time.After(loginPollTimeout)
	ticker := time.NewTicker(loginPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			f.logger.Warn("Login cancelled.", zap.Error(ctx.Err()))
			return false
		case <-deadline:
			f.logger.Error("Login timed out, QR code was not scanned.")
			return false
		case <-ticker.C:
			el, err := f.page.QuerySelector(loginIndicator)
			if err != nil {
				f.logger.Debug("Login indicator probe failed.", zap.Error(err))
				continue
			}
			if el != nil {
				f.logger.Info("Login detected.")
				return true
			}
		}
	}
}

// Logout is a stub: no logout interaction is implemented, it always
// reports success. Known gap.
func (f *LoginFlow) Logout(ctx context.Context) bool {
	f.logger.Warn("Logout is not implemented; reporting success without doing anything.")
	return true
}

// pause sleeps for d unless the context ends first.
func pause(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
