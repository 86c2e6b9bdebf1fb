package sso

import (
	"errors"
	"fmt"
)

// Session keys owned by this package
const (
	// StateKey holds the pending authorization request of the browser session
	StateKey = "oidcState"
)

// OAuth2 authorization error codes returned to the callback
const (
	ErrorAccessDenied             = "access_denied"
	ErrorLoginRequired            = "login_required"
	ErrorInteractionRequired      = "interaction_required"
	ErrorConsentRequired          = "consent_required"
	ErrorAccountSelectionRequired = "account_selection_required"
)

// ErrStateMismatch is returned when a callback does not match the pending request
var ErrStateMismatch = errors.New("invalid state parameter")

// Config holds OpenID Connect client configuration
type Config struct {
	IssuerURL    string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string

	// skipSignatureCheck disables ID token signature verification in tests
	skipSignatureCheck bool
}

// Validate checks required fields
func (c *Config) Validate() error {
	if c.ClientID == "" {
		return fmt.Errorf("client_id is required")
	}
	if c.ClientSecret == "" {
		return fmt.Errorf("client_secret is required")
	}
	if c.IssuerURL == "" {
		return fmt.Errorf("issuer_url is required")
	}
	if c.RedirectURL == "" {
		return fmt.Errorf("redirect_url is required")
	}
	if len(c.Scopes) == 0 {
		return fmt.Errorf("at least one scope is required")
	}
	return nil
}

// User is the authenticated user of a browser session
type User struct {
	Subject string `json:"subject"`
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
}

// pendingLogin is stored under StateKey between the authorization redirect
// and the callback
type pendingLogin struct {
	State    string `json:"state"`
	Passive  bool   `json:"passive"`
	ReturnTo string `json:"returnTo"`
}
