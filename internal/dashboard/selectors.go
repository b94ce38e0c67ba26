package dashboard

import "fmt"

// Dashboard URLs and DOM selectors.
// These target a page we don't control; update here when the site changes.

const (
	SigninURL   = "https://dashboard.opendns.com/signin"
	SettingsURL = "https://dashboard.opendns.com/settings"
)

// ContentFilteringURL returns the filtering settings page for a network.
func ContentFilteringURL(networkID string) string {
	return fmt.Sprintf("%s/%s/content_filtering", SettingsURL, networkID)
}

const (
	// Login form
	UsernameField = `input[name="username"]`
	PasswordField = `input[name="password"]`
	SubmitButton  = `button[type="submit"], input[type="submit"]`

	// Filtering page
	CustomRadio   = `input[type="radio"][value="custom"]`
	CategoryLabel = `label[for^="dt_category["]`

	// Save controls
	ApplyToAllID   = "save-categories-applytoall"
	ApplyButtonID  = "save-categories"
	ConfirmationID = "save-categories-message"
)

// categoryIDPrefix is shared by every filter checkbox id on the page,
// e.g. dt_category[7].
const categoryIDPrefix = "dt_category["
