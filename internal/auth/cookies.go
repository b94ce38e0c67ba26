// Package auth persists dashboard session cookies between runs so valid
// sessions can skip the login form.
package auth

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"

	"opendnsctl/internal/config"
)

const dashboardDomain = "opendns.com"

// CookieStore handles sealed storage of dashboard session cookies.
type CookieStore struct {
	path string
}

// StoredCookies is the persisted cookie payload.
type StoredCookies struct {
	Cookies    []*network.Cookie `json:"cookies"`
	CapturedAt time.Time         `json:"captured_at"`
	ExpiresAt  time.Time         `json:"expires_at"`
}

// NewCookieStore creates a cookie store at the given path.
func NewCookieStore(path string) *CookieStore {
	return &CookieStore{path: path}
}

// DefaultCookieStorePath returns the default path for the sealed cookie file.
func DefaultCookieStorePath() (string, error) {
	dir, err := config.StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "session.bin"), nil
}

// Save seals cookies under the account password and writes them to disk.
func (cs *CookieStore) Save(cookies []*network.Cookie, passphrase string) error {
	if err := os.MkdirAll(filepath.Dir(cs.path), 0700); err != nil {
		return err
	}

	stored := StoredCookies{
		Cookies:    cookies,
		CapturedAt: time.Now(),
		ExpiresAt:  earliestExpiry(cs.filterDashboard(cookies)),
	}

	data, err := json.Marshal(stored)
	if err != nil {
		return err
	}
	sealed, err := seal(data, passphrase)
	if err != nil {
		return err
	}
	return os.WriteFile(cs.path, sealed, 0600)
}

// Load retrieves and unseals cookies from disk.
func (cs *CookieStore) Load(passphrase string) (*StoredCookies, error) {
	sealed, err := os.ReadFile(cs.path)
	if err != nil {
		return nil, err
	}
	data, err := open(sealed, passphrase)
	if err != nil {
		return nil, err
	}

	var stored StoredCookies
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

// IsValid reports whether a stored session exists, opens under the given
// passphrase, and has not passed its earliest cookie expiry.
func (cs *CookieStore) IsValid(passphrase string) bool {
	stored, err := cs.Load(passphrase)
	if err != nil {
		return false
	}
	if stored.ExpiresAt.IsZero() || time.Now().After(stored.ExpiresAt) {
		return false
	}
	return len(cs.filterDashboard(stored.Cookies)) > 0
}

// Clear removes the stored session.
func (cs *CookieStore) Clear() error {
	err := os.Remove(cs.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// DashboardCookies returns only the opendns.com cookies for injection.
func (cs *CookieStore) DashboardCookies(passphrase string) ([]*network.Cookie, error) {
	stored, err := cs.Load(passphrase)
	if err != nil {
		return nil, err
	}
	return cs.filterDashboard(stored.Cookies), nil
}

func (cs *CookieStore) filterDashboard(cookies []*network.Cookie) []*network.Cookie {
	var out []*network.Cookie
	for _, c := range cookies {
		domain := strings.TrimPrefix(c.Domain, ".")
		if domain == dashboardDomain || strings.HasSuffix(domain, "."+dashboardDomain) {
			out = append(out, c)
		}
	}
	return out
}

// earliestExpiry finds the soonest expiry among persistent dashboard
// cookies; session cookies (Expires <= 0) don't count.
func earliestExpiry(cookies []*network.Cookie) time.Time {
	var earliest time.Time
	for _, c := range cookies {
		if c.Expires <= 0 {
			continue
		}
		exp := time.Unix(int64(c.Expires), 0)
		if earliest.IsZero() || exp.Before(earliest) {
			earliest = exp
		}
	}
	return earliest
}
