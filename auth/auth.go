// Package auth is the contract between the session manager and whatever
// authenticates against the DocHub service.
package auth

import (
	"context"

	"github.com/jrsteele09/go-dochub-client/token"
	"github.com/jrsteele09/go-dochub-client/users"
)

// Service authenticates users. Implementations classify failures with the
// sentinel errors of internal/errors:
//   - Login: ErrInvalidCredentials, ErrAccountDisabled, or a server/network error
//   - RefreshToken: ErrInvalidToken, or a server/network error
//   - ChangePassword: ErrInvalidOldPassword, or a server/network error
type Service interface {
	Login(ctx context.Context, credentials Credentials) (*token.Grant, error)
	Register(ctx context.Context, request RegisterRequest) (*users.User, error)
	// Logout revokes accessToken on the server. The token is passed
	// explicitly because local state is cleared before the call is made.
	Logout(ctx context.Context, accessToken string) error
	RefreshToken(ctx context.Context, refreshToken string) (*token.Grant, error)
	ChangePassword(ctx context.Context, request ChangePasswordRequest) error
	Me(ctx context.Context) (*users.User, error)
}

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	RealName string `json:"real_name"`
	Major    string `json:"major"`
	Class    string `json:"class"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}
