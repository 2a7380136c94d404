package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLen is the minimum password length in runes.
const MinPasswordLen = 8

// ErrPasswordMismatch is returned by CheckPassword on a wrong password.
var ErrPasswordMismatch = errors.New("password mismatch")

// HashPassword returns the bcrypt hash of pw at the default cost.
func HashPassword(pw string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// CheckPassword compares pw against hash.
func CheckPassword(hash, pw string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrPasswordMismatch
		}
		return err
	}
	return nil
}

// PasswordAcceptable reports whether pw meets the length policy. bcrypt
// ignores bytes past 72, so longer inputs are rejected as well.
func PasswordAcceptable(pw string) bool {
	return utf8.RuneCountInString(pw) >= MinPasswordLen && len(pw) <= 72
}

// NewConfirmToken returns a random 32-byte hex token.
func NewConfirmToken() (string, error) {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}
