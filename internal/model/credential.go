package model

import "strings"

// Credential is a registered username/password pair.
// The password is kept exactly as entered; nothing is hashed.
type Credential struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// NewCredential validates and builds a credential record
func NewCredential(username, password string) (Credential, error) {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(password) == "" {
		return Credential{}, ErrEmptyInput
	}
	return Credential{Username: username, Password: password}, nil
}

// Matches reports whether both fields match exactly
func (c Credential) Matches(username, password string) bool {
	return c.Username == username && c.Password == password
}
