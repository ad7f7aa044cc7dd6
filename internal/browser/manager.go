// Package browser owns the browser engine lifecycle: it launches
// Chromium through Playwright, opens one isolated context seeded with
// stored cookies, and hands the caller a single page for the duration of
// one top-level operation. Sessions are never reused.
package browser

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/rednote-cli/internal/config"
	"github.com/xkilldash9x/rednote-cli/internal/cookies"
)

// driver is the part of the Playwright driver the manager needs.
type driver interface {
	Stop() error
}

// session bundles the live handles for one scoped invocation. All four
// are torn down, in order, when the scope exits.
type session struct {
	driver  driver
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
}

// Manager creates and tears down browser sessions around caller scopes.
type Manager struct {
	cfg    config.BrowserConfig
	store  *cookies.Store
	logger *zap.Logger

	// launch is replaceable so teardown behavior can be exercised
	// without a real browser.
	launch func(ctx context.Context) (*session, error)
}

var installOnce sync.Once

// NewManager creates a session manager.
func NewManager(cfg config.BrowserConfig, store *cookies.Store, logger *zap.Logger) *Manager {
	m := &Manager{
		cfg:    cfg,
		store:  store,
		logger: logger.Named("browser"),
	}
	m.launch = m.launchPlaywright
	return m
}

// WithPage launches a fresh browser session, seeds it with stored
// cookies, and invokes fn with the session's page. On return (normal or
// not) the current cookies are persisted best-effort and the page,
// context, browser and driver are closed in that order; every teardown
// step runs even if an earlier one fails. The error returned is fn's
// own, never a cookie-save or close failure.
func (m *Manager) WithPage(ctx context.Context, fn func(page playwright.Page) error) error {
	sess, err := m.launch(ctx)
	if err != nil {
		return fmt.Errorf("failed to open browser session: %w", err)
	}

	sessionID := uuid.New().String()
	logger := m.logger.With(zap.String("session_id", sessionID))
	logger.Debug("Browser session opened.")

	defer m.teardown(sess, logger)

	return fn(sess.page)
}

// SaveCurrentCookies persists the page's context cookies immediately.
// The login flow calls this right after a successful QR scan so the
// session is recorded before the usual exit-time capture.
func (m *Manager) SaveCurrentCookies(page playwright.Page) error {
	current, err := page.Context().Cookies()
	if err != nil {
		return fmt.Errorf("failed to read context cookies: %w", err)
	}
	if len(current) == 0 {
		return nil
	}
	return m.store.Save(current)
}

// launchPlaywright starts the driver, launches Chromium with the
// hardening flags, opens one context with the fixed user agent, seeds
// stored cookies and opens one page. Partial failures unwind whatever
// was already created.
func (m *Manager) launchPlaywright(ctx context.Context) (*session, error) {
	installOnce.Do(func() {
		opts := &playwright.RunOptions{
			Browsers: []string{"chromium"},
			Verbose:  false,
			Stdout:   io.Discard,
			Stderr:   io.Discard,
		}
		if err := playwright.Install(opts); err != nil {
			m.logger.Warn("Playwright browser install check failed, launch may fail.", zap.Error(err))
		}
	})

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright driver: %w", err)
	}

	browser, err := pw.Chromium.Launch(launchOptions(m.cfg))
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browserCtx, err := browser.NewContext(contextOptions(m.cfg))
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	if stored := m.store.Load(); len(stored) > 0 {
		if err := browserCtx.AddCookies(cookies.ToOptional(stored)); err != nil {
			// A stale or malformed cookie record must not block the
			// session; the caller just starts unauthenticated.
			m.logger.Warn("Could not seed stored cookies.", zap.Error(err))
		} else {
			m.logger.Info("Seeded stored cookies into context.", zap.Int("count", len(stored)))
		}
	}

	page, err := browserCtx.NewPage()
	if err != nil {
		browserCtx.Close()
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	return &session{driver: pw, browser: browser, context: browserCtx, page: page}, nil
}

// teardown persists cookies and closes every handle. Each step is
// best-effort: a failure is logged and the remaining steps still run, so
// no partial browser resources leak and no caller error is masked.
func (m *Manager) teardown(sess *session, logger *zap.Logger) {
	if current, err := sess.context.Cookies(); err != nil {
		logger.Warn("Could not capture cookies during teardown.", zap.Error(err))
	} else if len(current) > 0 {
		if err := m.store.Save(current); err != nil {
			logger.Warn("Could not persist cookies during teardown.", zap.Error(err))
		}
	}

	if err := sess.page.Close(); err != nil {
		logger.Warn("Failed to close page.", zap.Error(err))
	}
	if err := sess.context.Close(); err != nil {
		logger.Warn("Failed to close browser context.", zap.Error(err))
	}
	if err := sess.browser.Close(); err != nil {
		logger.Warn("Failed to close browser.", zap.Error(err))
	}
	if err := sess.driver.Stop(); err != nil {
		logger.Warn("Failed to stop playwright driver.", zap.Error(err))
	}
	logger.Debug("Browser session closed.")
}
