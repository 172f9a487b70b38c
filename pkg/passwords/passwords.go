// Package passwords hashes and verifies account credentials.
package passwords

import (
	"golang.org/x/crypto/bcrypt"
)

// Hash hashes a plain password using bcrypt.
func Hash(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// Check compares plain password with hashed password.
func Check(plain, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}
