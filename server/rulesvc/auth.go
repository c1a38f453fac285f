package rulesvc

import (
	"context"
	"errors"

	"github.com/dekarrin/rulecheck/server/serr"
	"golang.org/x/crypto/bcrypt"
)

// Login checks password against the admin password. It returns an error that
// matches serr.ErrBadCredentials if it is wrong.
func (svc Service) Login(ctx context.Context, password string) error {
	if svc.AdminHash == nil {
		return serr.ErrAuthDisabled
	}

	err := bcrypt.CompareHashAndPassword(svc.AdminHash, []byte(password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return serr.ErrBadCredentials
		}
		return serr.New("", err)
	}

	return nil
}

// HashPassword produces the value for AdminHash from a plaintext password.
func HashPassword(password string, cost int) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, serr.New("password is too long", err, serr.ErrBadArgument)
		}
		return nil, serr.New("password could not be hashed", err)
	}
	return hash, nil
}
