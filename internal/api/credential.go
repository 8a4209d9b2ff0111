package api

import "crypto/subtle"

// Credential is the single admin username/password pair. A zero
// Credential matches nothing.
type Credential struct {
	Username string
	Password string
}

// Configured reports whether both fields are set.
func (c Credential) Configured() bool {
	return c.Username != "" && c.Password != ""
}

// Matches compares username and password in constant time.
func (c Credential) Matches(username, password string) bool {
	if !c.Configured() {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(c.Username))
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(c.Password))
	return userOK&passOK == 1
}
