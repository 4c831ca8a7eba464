package users

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordTooLong is returned by HashPassword for passwords over 72 bytes.
var ErrPasswordTooLong = bcrypt.ErrPasswordTooLong

// missingUserHash stands in for the stored hash when no account matches.
var missingUserHash = sync.OnceValue(func() []byte {
	b, err := bcrypt.GenerateFromPassword([]byte("no-such-account"), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	return b
})

func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// RejectPassword spends the same bcrypt work as CheckPassword against a real
// hash and always reports a mismatch. Login uses it for unknown usernames.
func RejectPassword(password string) bool {
	_ = bcrypt.CompareHashAndPassword(missingUserHash(), []byte(password))
	return false
}
