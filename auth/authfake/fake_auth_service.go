// Package authfake is an in-memory auth.Service. It issues real HS256 access
// tokens and opaque rotating refresh tokens, which makes it usable for tests
// and for running the CLI without a server.
package authfake

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-dochub-client/auth"
	errs "github.com/jrsteele09/go-dochub-client/internal/errors"
	"github.com/jrsteele09/go-dochub-client/token"
	"github.com/jrsteele09/go-dochub-client/users"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
)

var _ auth.Service = (*Service)(nil)

const (
	OpLogin          = "login"
	OpRegister       = "register"
	OpLogout         = "logout"
	OpRefresh        = "refresh"
	OpChangePassword = "change_password"
	OpMe             = "me"
)

type account struct {
	user         users.User
	passwordHash string
}

type Service struct {
	accounts      map[string]*account // username to account
	refreshTokens map[string]string   // refresh token to username
	calls         map[string]int
	nextID        int64
	lock          sync.RWMutex

	signer      *token.HMACsigner
	accessTTL   time.Duration
	bcryptCost  int
	nowTime     func() time.Time
	tokens      oauth2.TokenSource
	refreshHook func(ctx context.Context) error
	logoutErr   error
}

type Option func(*Service)

// WithNowTime sets the clock used for token timestamps.
func WithNowTime(nowFunc func() time.Time) Option {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

func WithAccessTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.accessTTL = ttl
	}
}

// WithBcryptCost lowers the hashing cost; tests use bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		s.bcryptCost = cost
	}
}

// WithTokenSource identifies the caller of Me and ChangePassword, standing in
// for the Authorization header a real server would read.
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(s *Service) {
		s.tokens = ts
	}
}

func New(options ...Option) *Service {
	s := &Service{
		accounts:      make(map[string]*account),
		refreshTokens: make(map[string]string),
		calls:         make(map[string]int),
		signer:        token.NewHMACSigner(uuid.NewString()),
		accessTTL:     2 * time.Hour,
		bcryptCost:    bcrypt.DefaultCost,
		nowTime:       time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// SetTokenSource is WithTokenSource for callers that build the source later.
func (s *Service) SetTokenSource(ts oauth2.TokenSource) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.tokens = ts
}

// AddUser stores a user with a bcrypt hash of password and returns the stored copy.
func (s *Service) AddUser(user users.User, password string) (*users.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("[authfake.AddUser] %w", err)
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	if user.ID == 0 {
		s.nextID++
		user.ID = s.nextID
	}
	if user.Status == "" {
		user.Status = users.StatusActive
	}
	s.accounts[user.Username] = &account{user: user, passwordHash: string(hash)}
	return user.Clone(), nil
}

// SetBanned flips the account status; banned accounts cannot log in.
func (s *Service) SetBanned(username string, banned bool) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if a, ok := s.accounts[username]; ok {
		a.user.Status = users.StatusActive
		if banned {
			a.user.Status = users.StatusBanned
		}
	}
}

// SetRefreshHook runs hook at the start of every RefreshToken call; a non-nil
// error from the hook fails the refresh.
func (s *Service) SetRefreshHook(hook func(ctx context.Context) error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.refreshHook = hook
}

func (s *Service) SetLogoutError(err error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.logoutErr = err
}

// RevokeRefreshTokens forgets every refresh token issued so far.
func (s *Service) RevokeRefreshTokens() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.refreshTokens = make(map[string]string)
}

// Calls returns how many times op was invoked.
func (s *Service) Calls(op string) int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.calls[op]
}

func (s *Service) Login(_ context.Context, credentials auth.Credentials) (*token.Grant, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.calls[OpLogin]++

	a, ok := s.accounts[credentials.Username]
	if !ok {
		return nil, errs.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.passwordHash), []byte(credentials.Password)); err != nil {
		return nil, errs.ErrInvalidCredentials
	}
	if a.user.IsBanned() {
		return nil, errs.ErrAccountDisabled
	}
	return s.issueLocked(a)
}

func (s *Service) Register(_ context.Context, request auth.RegisterRequest) (*users.User, error) {
	s.lock.Lock()
	s.calls[OpRegister]++
	_, exists := s.accounts[request.Username]
	s.lock.Unlock()

	if exists {
		return nil, errs.Wrapf(errs.ErrDuplicate, "username %s", request.Username)
	}
	return s.AddUser(users.User{
		Username: request.Username,
		Email:    request.Email,
		RealName: request.RealName,
		Major:    request.Major,
		Class:    request.Class,
		Role:     users.RoleStudent,
	}, request.Password)
}

func (s *Service) Logout(_ context.Context, accessToken string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.calls[OpLogout]++

	if s.logoutErr != nil {
		return s.logoutErr
	}
	username, err := s.usernameFromTokenLocked(accessToken)
	if err != nil {
		return err
	}
	for rt, owner := range s.refreshTokens {
		if owner == username {
			delete(s.refreshTokens, rt)
		}
	}
	return nil
}

func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*token.Grant, error) {
	s.lock.Lock()
	s.calls[OpRefresh]++
	hook := s.refreshHook
	s.lock.Unlock()

	if hook != nil {
		if err := hook(ctx); err != nil {
			return nil, err
		}
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	username, ok := s.refreshTokens[refreshToken]
	if !ok {
		return nil, errs.ErrInvalidToken
	}
	delete(s.refreshTokens, refreshToken)

	a, ok := s.accounts[username]
	if !ok || a.user.IsBanned() {
		return nil, errs.ErrInvalidToken
	}
	return s.issueLocked(a)
}

func (s *Service) ChangePassword(_ context.Context, request auth.ChangePasswordRequest) error {
	s.lock.Lock()
	s.calls[OpChangePassword]++
	a, err := s.callerLocked()
	s.lock.Unlock()
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(a.passwordHash), []byte(request.OldPassword)); err != nil {
		return errs.ErrInvalidOldPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(request.NewPassword), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("[authfake.ChangePassword] %w", err)
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	a.passwordHash = string(hash)
	return nil
}

func (s *Service) Me(context.Context) (*users.User, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.calls[OpMe]++

	a, err := s.callerLocked()
	if err != nil {
		return nil, err
	}
	return a.user.Clone(), nil
}

func (s *Service) issueLocked(a *account) (*token.Grant, error) {
	now := s.nowTime()
	accessToken, err := s.signer.Sign(jwt.MapClaims{
		"sub":      fmt.Sprint(a.user.ID),
		"username": a.user.Username,
		"role":     string(a.user.Role),
		"iat":      now.Unix(),
		"exp":      now.Add(s.accessTTL).Unix(),
		"jti":      uuid.New().String(),
	})
	if err != nil {
		return nil, err
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}
	refreshToken := hex.EncodeToString(tokenBytes)
	s.refreshTokens[refreshToken] = a.user.Username

	return &token.Grant{
		User:         a.user.Clone(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.accessTTL / time.Second),
	}, nil
}

func (s *Service) callerLocked() (*account, error) {
	if s.tokens == nil {
		return nil, errs.ErrUnauthorized
	}
	tok, err := s.tokens.Token()
	if err != nil || tok == nil {
		return nil, errs.ErrUnauthorized
	}
	username, err := s.usernameFromTokenLocked(tok.AccessToken)
	if err != nil {
		return nil, err
	}
	a, ok := s.accounts[username]
	if !ok {
		return nil, errs.ErrUnauthorized
	}
	return a, nil
}

// usernameFromTokenLocked verifies signature and expiry against the
// service's clock.
func (s *Service) usernameFromTokenLocked(accessToken string) (string, error) {
	claims, err := s.signer.Verify(accessToken, jwt.WithTimeFunc(s.nowTime))
	if err != nil {
		return "", errs.Wrapf(errs.ErrUnauthorized, "%v", err)
	}
	username, _ := claims["username"].(string)
	if username == "" {
		return "", errs.ErrUnauthorized
	}
	return username, nil
}
