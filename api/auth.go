package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/jrsteele09/go-dochub-client/auth"
	errs "github.com/jrsteele09/go-dochub-client/internal/errors"
	"github.com/jrsteele09/go-dochub-client/token"
	"github.com/jrsteele09/go-dochub-client/users"
)

const (
	loginPath          = "/auth/login"
	registerPath       = "/auth/register"
	logoutPath         = "/auth/logout"
	refreshPath        = "/auth/refresh"
	changePasswordPath = "/auth/change-password"
	mePath             = "/auth/me"
)

var _ auth.Service = (*AuthAPI)(nil)

// AuthAPI is the HTTP implementation of auth.Service.
type AuthAPI struct {
	client *Client
}

func NewAuthAPI(client *Client) *AuthAPI {
	return &AuthAPI{client: client}
}

func (a *AuthAPI) Login(ctx context.Context, credentials auth.Credentials) (*token.Grant, error) {
	grant := &token.Grant{}
	err := a.client.Do(ctx, Request{Method: http.MethodPost, Path: loginPath, Body: credentials, Anonymous: true}, grant)
	if err != nil {
		return nil, reclassify(err, errs.ErrInvalidCredentials, errs.ErrAccountDisabled)
	}
	return grant, nil
}

func (a *AuthAPI) Register(ctx context.Context, request auth.RegisterRequest) (*users.User, error) {
	user := &users.User{}
	err := a.client.Do(ctx, Request{Method: http.MethodPost, Path: registerPath, Body: request, Anonymous: true}, user)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (a *AuthAPI) Logout(ctx context.Context, accessToken string) error {
	return a.client.Do(ctx, Request{
		Method:      http.MethodPost,
		Path:        logoutPath,
		AccessToken: accessToken,
		Quiet:       true,
	}, nil)
}

// RefreshToken runs quietly: the session manager decides what a failed
// refresh means for the user.
func (a *AuthAPI) RefreshToken(ctx context.Context, refreshToken string) (*token.Grant, error) {
	grant := &token.Grant{}
	err := a.client.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   refreshPath,
		Body:   auth.RefreshRequest{RefreshToken: refreshToken},
		Quiet:  true,
	}, grant)
	if err != nil {
		return nil, reclassify(err, errs.ErrInvalidToken, errs.ErrAccountDisabled)
	}
	return grant, nil
}

func (a *AuthAPI) ChangePassword(ctx context.Context, request auth.ChangePasswordRequest) error {
	if err := a.client.Post(ctx, changePasswordPath, request, nil); err != nil {
		return reclassify(err, errs.ErrInvalidOldPassword, errs.ErrUnauthorized, errs.ErrInvalidParams)
	}
	return nil
}

func (a *AuthAPI) Me(ctx context.Context) (*users.User, error) {
	user := &users.User{}
	if err := a.client.Get(ctx, mePath, nil, user); err != nil {
		return nil, err
	}
	return user, nil
}

// reclassify turns a rejection by the service into kind. Transport and
// server failures, and the kinds listed in keep, pass through unchanged.
func reclassify(err error, kind error, keep ...error) error {
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.transport() || errors.Is(err, errs.ErrServer) {
		return err
	}
	for _, k := range keep {
		if errors.Is(err, k) {
			return err
		}
	}
	return apiErr.withKind(kind)
}
