package tui

import (
	"fmt"
	"net/url"

	"github.com/cli/browser"
)

// openBrowser hands a checked URL to the platform opener.
var openBrowser = browser.OpenURL

// OpenURL opens rawURL in the system browser. Only http and https are allowed.
func OpenURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("refusing to open URL with scheme %q (only http/https allowed)", u.Scheme)
	}
	if err := openBrowser(u.String()); err != nil {
		return fmt.Errorf("opening %s: %w", u.Host, err)
	}
	return nil
}
