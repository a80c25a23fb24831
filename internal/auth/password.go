package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// hashCost is the bcrypt work factor for subject passwords. Registration
// and login both pay it once per request.
const hashCost = 10

// HashPassword derives the stored bcrypt digest for a subject's password.
func HashPassword(password string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(digest), nil
}

// ComparePassword checks a presented password against the stored digest.
// A non-nil error means the credentials do not match.
func ComparePassword(storedDigest, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(storedDigest), []byte(password))
}
