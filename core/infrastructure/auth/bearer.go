// Package auth validates bearer tokens on the HTTP transport.
package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"unicode"

	apperrors "github.com/hyperterse/dbmcp/core/shared/errors"
)

const bearerPrefix = "Bearer "

// constantTimeCompare is swapped out in tests to observe when the
// timing-sensitive comparison runs.
var constantTimeCompare = subtle.ConstantTimeCompare

// TokenSource supplies the expected token. An empty token means none is
// configured.
type TokenSource interface {
	Token() string
}

// StaticToken is a TokenSource that never changes.
type StaticToken string

func (s StaticToken) Token() string { return string(s) }

// Validator checks Authorization headers against a TokenSource.
type Validator struct {
	source   TokenSource
	required bool
}

// NewValidator creates a Validator. A nil source behaves as no token.
func NewValidator(source TokenSource, required bool) *Validator {
	if source == nil {
		source = StaticToken("")
	}
	return &Validator{source: source, required: required}
}

// Required reports whether every request must carry a token.
func (v *Validator) Required() bool { return v.required }

// Check validates the Authorization header of r. The checks run in a fixed
// order and the token comparison only happens once the header is well formed.
// Missing or malformed headers yield a 401 AUTH_ERROR, a wrong token a 403.
func (v *Validator) Check(r *http.Request) error {
	expected := v.source.Token()
	header, present := r.Header["Authorization"]

	if !present || len(header) == 0 {
		if v.required {
			return unauthorized("missing Authorization header")
		}
		return nil
	}
	if expected == "" && !v.required {
		return nil
	}

	value := header[0]
	if !strings.HasPrefix(value, bearerPrefix) {
		return unauthorized("Authorization header must use the Bearer scheme")
	}
	token := value[len(bearerPrefix):]
	if strings.TrimSpace(token) == "" {
		return unauthorized("empty bearer token")
	}
	if !wellFormed(token) {
		return unauthorized("malformed bearer token")
	}

	if expected == "" || !tokensEqual(token, expected) {
		return forbidden("invalid bearer token")
	}
	return nil
}

// wellFormed rejects surrounding whitespace and any control character, which
// blocks header injection through the token.
func wellFormed(token string) bool {
	if token != strings.TrimSpace(token) {
		return false
	}
	for _, r := range token {
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}

// tokensEqual compares in constant time for equal lengths. Unequal lengths
// return early, which leaks only the length.
func tokensEqual(provided, expected string) bool {
	if len(provided) != len(expected) {
		return false
	}
	return constantTimeCompare([]byte(provided), []byte(expected)) == 1
}

func unauthorized(message string) *apperrors.AppError {
	return apperrors.NewAppError(apperrors.ErrCodeAuth, message, nil)
}

func forbidden(message string) *apperrors.AppError {
	err := apperrors.NewAppError(apperrors.ErrCodeAuth, message, nil)
	err.Status = http.StatusForbidden
	return err
}
