// Package token issues and checks the bearer tokens that authorize changes to
// stored grammars.
package token

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	issuer  = "rcs"
	subject = "admin"
)

// Lifetime is how long a generated token remains valid.
const Lifetime = time.Hour

// Get extracts the bearer token from the Authorization header of req.
func Get(req *http.Request) (string, error) {
	authHeader := strings.TrimSpace(req.Header.Get("Authorization"))

	if authHeader == "" {
		return "", fmt.Errorf("no authorization header present")
	}

	authParts := strings.SplitN(authHeader, " ", 2)
	if len(authParts) != 2 {
		return "", fmt.Errorf("authorization header not in Bearer format")
	}

	scheme := strings.TrimSpace(strings.ToLower(authParts[0]))
	tok := strings.TrimSpace(authParts[1])

	if scheme != "bearer" {
		return "", fmt.Errorf("authorization header not in Bearer format")
	}

	return tok, nil
}

// Generate creates a signed token for the admin. passHash is the stored hash
// of the admin password; it is mixed into the signing key so that changing
// the password invalidates every token issued before.
func Generate(secret, passHash []byte) (string, error) {
	claims := &jwt.MapClaims{
		"iss":        issuer,
		"exp":        time.Now().Add(Lifetime).Unix(),
		"sub":        subject,
		"authorized": true,
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)

	tokStr, err := tok.SignedString(signKey(secret, passHash))
	if err != nil {
		return "", err
	}
	return tokStr, nil
}

// Validate checks that tok was produced by Generate with the same secret and
// passHash and that it has not expired.
func Validate(tok string, secret, passHash []byte) error {
	_, err := jwt.Parse(tok, func(t *jwt.Token) (interface{}, error) {
		subj, err := t.Claims.GetSubject()
		if err != nil {
			return nil, fmt.Errorf("cannot get subject: %w", err)
		}
		if subj != subject {
			return nil, fmt.Errorf("subject is not the admin")
		}

		return signKey(secret, passHash), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}), jwt.WithIssuer(issuer), jwt.WithLeeway(time.Minute))

	return err
}

func signKey(secret, passHash []byte) []byte {
	var key []byte
	key = append(key, secret...)
	key = append(key, passHash...)
	return key
}
