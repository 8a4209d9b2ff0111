// Package smtp implements the SMTP intake: a go-smtp backend that hands
// every accepted message to the inbound handler.
package smtp

import (
	"crypto/subtle"

	gosmtp "github.com/emersion/go-smtp"
)

// Authenticator handles SMTP AUTH verification against configured credentials.
type Authenticator struct {
	username string
	password string
}

// NewAuthenticator creates an Authenticator with the given credentials.
// If either username or password is empty, authentication is disabled.
func NewAuthenticator(username, password string) *Authenticator {
	return &Authenticator{
		username: username,
		password: password,
	}
}

// Enabled returns true if authentication credentials are configured.
func (a *Authenticator) Enabled() bool {
	return a.username != "" && a.password != ""
}

// Verify checks a username and password pair in constant time.
func (a *Authenticator) Verify(username, password string) error {
	if !a.Enabled() {
		return gosmtp.ErrAuthUnsupported
	}

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(a.password)) == 1
	if !userOK || !passOK {
		return gosmtp.ErrAuthFailed
	}

	return nil
}
