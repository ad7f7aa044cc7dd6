// Package cookies persists browser session cookies as a flat JSON file,
// so a QR-code login survives across CLI invocations.
package cookies

import (
	"os"
	"path/filepath"

	json "github.com/json-iterator/go"
	"github.com/mitchellh/go-homedir"
	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

// Store reads and writes the cookie file. The file is overwritten
// wholesale on each save; last session wins, no merging.
type Store struct {
	path   string
	logger *zap.Logger
}

// NewStore creates a store backed by the given file path.
func NewStore(path string, logger *zap.Logger) *Store {
	return &Store{path: path, logger: logger.Named("cookies")}
}

// DefaultPath returns the per-user cookie file location.
func DefaultPath() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".rednote-cli", "cookies.json"), nil
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Save serializes the cookie list to disk, creating parent directories
// as needed. Write and permission failures propagate to the caller.
func (s *Store) Save(cookies []playwright.Cookie) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cookies, "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return err
	}
	s.logger.Info("Cookies saved.", zap.Int("count", len(cookies)), zap.String("path", s.path))
	return nil
}

// Load reads the stored cookie list. A missing file yields an empty list,
// and so does a corrupt or unreadable one: either way there is no usable
// stored session, which is not fatal.
func (s *Store) Load() []playwright.Cookie {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("Could not read cookie file, treating as no stored session.", zap.Error(err))
		}
		return nil
	}

	var cookies []playwright.Cookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		s.logger.Warn("Could not parse cookie file, treating as no stored session.", zap.Error(err))
		return nil
	}

	s.logger.Debug("Cookies loaded.", zap.Int("count", len(cookies)))
	return cookies
}

// Clear deletes the cookie file. Absence is not an error.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	s.logger.Info("Cookies cleared.", zap.String("path", s.path))
	return nil
}

// ToOptional converts stored cookies into the form the browser context
// accepts when seeding a new session.
func ToOptional(cookies []playwright.Cookie) []playwright.OptionalCookie {
	out := make([]playwright.OptionalCookie, 0, len(cookies))
	for _, c := range cookies {
		cookie := c
		out = append(out, playwright.OptionalCookie{
			Name:     cookie.Name,
			Value:    cookie.Value,
			Domain:   playwright.String(cookie.Domain),
			Path:     playwright.String(cookie.Path),
			Expires:  playwright.Float(cookie.Expires),
			HttpOnly: playwright.Bool(cookie.HttpOnly),
			Secure:   playwright.Bool(cookie.Secure),
			SameSite: cookie.SameSite,
		})
	}
	return out
}
