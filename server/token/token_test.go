package token

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
)

var (
	testSecret = []byte("0123456789abcdef0123456789abcdef")
	testHash   = []byte("$2a$04$notarealhashbutlongenoughtouse")
)

func Test_Get(t *testing.T) {
	testCases := []struct {
		name      string
		header    string
		expect    string
		expectErr bool
	}{
		{
			name:   "bearer",
			header: "Bearer abc.def.ghi",
			expect: "abc.def.ghi",
		},
		{
			name:   "scheme is case-insensitive",
			header: "bEaReR   abc.def.ghi ",
			expect: "abc.def.ghi",
		},
		{
			name:      "missing",
			header:    "",
			expectErr: true,
		},
		{
			name:      "basic auth",
			header:    "Basic dXNlcjpwYXNz",
			expectErr: true,
		},
		{
			name:      "no token",
			header:    "Bearer",
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}

			actual, err := Get(req)

			if tc.expectErr {
				assert.Error(err)
				return
			}
			assert.NoError(err)
			assert.Equal(tc.expect, actual)
		})
	}
}

func Test_Validate(t *testing.T) {
	good, err := Generate(testSecret, testHash)
	if !assert.NoError(t, err) {
		return
	}

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS512, &jwt.MapClaims{
		"iss": issuer,
		"exp": time.Now().Add(-time.Hour).Unix(),
		"sub": subject,
	}).SignedString(signKey(testSecret, testHash))
	if !assert.NoError(t, err) {
		return
	}

	wrongSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS512, &jwt.MapClaims{
		"iss": issuer,
		"exp": time.Now().Add(time.Hour).Unix(),
		"sub": "someone",
	}).SignedString(signKey(testSecret, testHash))
	if !assert.NoError(t, err) {
		return
	}

	testCases := []struct {
		name      string
		tok       string
		secret    []byte
		hash      []byte
		expectErr bool
	}{
		{
			name:   "valid",
			tok:    good,
			secret: testSecret,
			hash:   testHash,
		},
		{
			name:      "other secret",
			tok:       good,
			secret:    []byte("ffffffffffffffffffffffffffffffff"),
			hash:      testHash,
			expectErr: true,
		},
		{
			name:      "password changed",
			tok:       good,
			secret:    testSecret,
			hash:      []byte("$2a$04$someotherhashvalueentirely"),
			expectErr: true,
		},
		{
			name:      "expired",
			tok:       expired,
			secret:    testSecret,
			hash:      testHash,
			expectErr: true,
		},
		{
			name:      "wrong subject",
			tok:       wrongSubject,
			secret:    testSecret,
			hash:      testHash,
			expectErr: true,
		},
		{
			name:      "garbage",
			tok:       "not-a-token",
			secret:    testSecret,
			hash:      testHash,
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			err := Validate(tc.tok, tc.secret, tc.hash)

			if tc.expectErr {
				assert.Error(err)
			} else {
				assert.NoError(err)
			}
		})
	}
}
