package auth

import (
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the work factor used for new hashes.
var BcryptCost = bcrypt.DefaultCost

// HashPassword will generate a password hash. The salt is random per call
// and embedded in the output, so hashing the same plaintext twice yields
// different strings.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", goerrors.New("password must not be empty", goerrors.CategoryBadInput)
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	return string(h), err
}

// ComparePasswordAndHash will validate the given cleartext password matches
// the hashed password. A malformed stored hash fails closed: the caller sees
// the same mismatch error as a wrong password.
func ComparePasswordAndHash(password, hash string) error {
	// wrong password, bad cost, truncated hash, wrong prefix: all collapse
	// to the same outward failure so the response carries no oracle
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// decoyHash is a valid hash of an unguessable value, used to burn a bcrypt
// comparison when the email does not resolve. Keeps the unknown-email and
// wrong-password paths close in wall time.
var decoyHash, _ = bcrypt.GenerateFromPassword([]byte(uuid.NewString()), BcryptCost)

// CompareDecoy runs a throwaway comparison and always reports a mismatch.
func CompareDecoy(password string) error {
	_ = bcrypt.CompareHashAndPassword(decoyHash, []byte(password))
	return ErrInvalidCredentials
}
