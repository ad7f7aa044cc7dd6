package browser

import (
	"github.com/playwright-community/playwright-go"

	"github.com/xkilldash9x/rednote-cli/internal/config"
)

// hardeningArgs are always passed to Chromium. The sandbox flags are
// required inside containers, and disabling the AutomationControlled
// blink feature keeps navigator.webdriver from exposing the automation.
func hardeningArgs() []string {
	return []string{
		"--no-sandbox",
		"--disable-setuid-sandbox",
		"--disable-dev-shm-usage",
		"--disable-blink-features=AutomationControlled",
	}
}

// launchOptions translates the browser configuration into Playwright
// launch options.
func launchOptions(cfg config.BrowserConfig) playwright.BrowserTypeLaunchOptions {
	opts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Headless),
		Args:     append(hardeningArgs(), cfg.Args...),
		Timeout:  playwright.Float(float64(cfg.LaunchTimeout.Milliseconds())),
	}
	if cfg.ExecutablePath != "" {
		opts.ExecutablePath = playwright.String(cfg.ExecutablePath)
	}
	return opts
}

// contextOptions builds the options for the isolated browser context.
func contextOptions(cfg config.BrowserConfig) playwright.BrowserNewContextOptions {
	return playwright.BrowserNewContextOptions{
		UserAgent: playwright.String(cfg.UserAgent),
	}
}
