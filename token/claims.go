package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// UnverifiedExpiry reads the exp claim of a JWT without verifying its
// signature. The client never holds the signing key; the value is only used
// to schedule a refresh, the server stays authoritative on validity.
func UnverifiedExpiry(rawToken string) (time.Time, bool) {
	if rawToken == "" {
		return time.Time{}, false
	}
	parsed, _, err := jwt.NewParser().ParseUnverified(rawToken, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
