package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	bcryptCost        = 12
	maxPasswordLength = 72
)

// truncate keeps the bytes bcrypt actually hashes; longer inputs would
// otherwise be rejected by the library.
func truncate(password string) []byte {
	b := []byte(password)
	if len(b) > maxPasswordLength {
		b = b[:maxPasswordLength]
	}
	return b
}

func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password cannot be empty")
	}
	hash, err := bcrypt.GenerateFromPassword(truncate(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether password matches the stored hash. A
// malformed hash is an error; a mismatch is not.
func VerifyPassword(encodedHash, password string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(encodedHash), truncate(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, fmt.Errorf("verify password: %w", err)
}
