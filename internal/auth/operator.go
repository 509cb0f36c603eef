package auth

import (
	"crypto/subtle"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// Operator is the single account allowed to use the admin routes.
type Operator struct {
	Username     string
	PasswordHash string // bcrypt
}

// Enabled reports whether a password hash is configured.
func (o Operator) Enabled() bool { return o.PasswordHash != "" }

func (o Operator) Verify(username, password string) error {
	if !o.Enabled() {
		return ErrInvalidCredentials
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(o.Username)) == 1
	// always run bcrypt so a wrong username costs the same as a wrong password
	pwErr := bcrypt.CompareHashAndPassword([]byte(o.PasswordHash), []byte(password))
	if !userOK || pwErr != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// HashPassword returns the bcrypt hash to put in operator_password_hash.
func HashPassword(password string) (string, error) {
	if len(password) < 8 || len(password) > 72 {
		return "", errors.New("password must be 8-72 chars")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
