package token

import (
	"time"

	"github.com/jrsteele09/go-dochub-client/users"
	"golang.org/x/oauth2"
)

// Grant is what the service returns from login and refresh.
type Grant struct {
	User         *users.User `json:"user"`
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresIn    int64       `json:"expires_in"` // seconds
}

// ExpireAt computes the absolute access-token expiry as now + ExpiresIn.
// When the service omits expires_in the exp claim of a JWT access token is
// used instead; the zero time means the expiry is unknown.
func (g *Grant) ExpireAt(now time.Time) time.Time {
	if g.ExpiresIn > 0 {
		return now.Add(time.Duration(g.ExpiresIn) * time.Second)
	}
	if exp, ok := UnverifiedExpiry(g.AccessToken); ok {
		return exp
	}
	return time.Time{}
}

// Complete reports whether the grant carries everything a session needs.
func (g *Grant) Complete() bool {
	return g != nil && g.User != nil && g.AccessToken != "" && g.RefreshToken != ""
}

// OAuth2 converts an access token and its expiry into an oauth2.Token.
func OAuth2(accessToken, refreshToken string, expireAt time.Time) *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  accessToken,
		TokenType:    "Bearer",
		RefreshToken: refreshToken,
		Expiry:       expireAt,
	}
}
