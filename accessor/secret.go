package accessor

import (
	"errors"

	"github.com/deppfellow/go-absl/internal/errs"
	"golang.org/x/crypto/bcrypt"
)

// HashSecret returns the bcrypt hash of secret, in the form Authenticate
// verifies against.
func HashSecret(secret string) (string, error) {
	const op = "accessor.hash_secret"

	if secret == "" {
		return "", errs.NewValidationError(op, "secret must not be empty", []errs.FieldError{{Field: "secret", Error: "is required"}})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", errs.NewValidationError(op, "secret must be at most 72 bytes", []errs.FieldError{{Field: "secret", Error: "must be at most 72 bytes"}})
	}
	if err != nil {
		return "", errs.Wrap(errs.KindSerialization, op, err, "could not hash secret")
	}
	return string(hash), nil
}
