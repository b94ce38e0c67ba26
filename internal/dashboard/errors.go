package dashboard

import (
	"errors"
	"fmt"
)

// ErrAuthenticationFailed indicates the dashboard rejected the login.
var ErrAuthenticationFailed = errors.New("opendns dashboard rejected the login")

// ErrNetworkAmbiguous indicates NETWORK_ID was not configured and the
// account has zero or several networks to choose from.
var ErrNetworkAmbiguous = errors.New("multiple or no networks on this account; set NETWORK_ID explicitly")

// ElementNotFoundError indicates an expected page control is absent,
// typically a sign the dashboard DOM changed.
type ElementNotFoundError struct {
	Selector string
}

func (e *ElementNotFoundError) Error() string {
	return fmt.Sprintf("element not found: %s", e.Selector)
}
