// Package sessions owns the authenticated session: who is logged in, their
// tokens, and when those tokens expire. A Manager is the single source of
// truth; every mutation is written through to a storage.Store.
package sessions

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jrsteele09/go-dochub-client/auth"
	"github.com/jrsteele09/go-dochub-client/internal/background"
	errs "github.com/jrsteele09/go-dochub-client/internal/errors"
	"github.com/jrsteele09/go-dochub-client/notify"
	"github.com/jrsteele09/go-dochub-client/storage"
	"github.com/jrsteele09/go-dochub-client/token"
	"github.com/jrsteele09/go-dochub-client/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const (
	DefaultRefreshWindow = 5 * time.Minute
	LoginPath            = "/login"
)

// PageViewRecorder receives best-effort telemetry.
type PageViewRecorder interface {
	RecordPageView(ctx context.Context, accessToken, path string) error
}

var _ oauth2.TokenSource = (*Manager)(nil)

type Manager struct {
	session    Session
	generation uint64 // bumped on every apply and clear
	refreshing bool   // a background refresh is in flight
	lock       sync.RWMutex

	persist       persistence
	auth          auth.Service
	notifier      notify.Notifier
	pageViews     PageViewRecorder
	tasks         *background.Runner
	ownTasks      bool
	refreshWindow time.Duration
	nowTime       func() time.Time
}

type Option func(*Manager)

// WithNowTime sets the clock used for expiry checks.
func WithNowTime(nowFunc func() time.Time) Option {
	return func(m *Manager) {
		m.nowTime = nowFunc
	}
}

// WithRefreshWindow sets how long before expiry Initialize starts a refresh.
func WithRefreshWindow(window time.Duration) Option {
	return func(m *Manager) {
		m.refreshWindow = window
	}
}

func WithNotifier(n notify.Notifier) Option {
	return func(m *Manager) {
		m.notifier = n
	}
}

func WithPageViewRecorder(r PageViewRecorder) Option {
	return func(m *Manager) {
		m.pageViews = r
	}
}

// WithRunner shares a background runner with the rest of the application.
// The caller remains responsible for closing it.
func WithRunner(r *background.Runner) Option {
	return func(m *Manager) {
		m.tasks = r
	}
}

func NewManager(store storage.Store, authService auth.Service, options ...Option) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("[NewManager] store is nil")
	}
	if authService == nil {
		return nil, fmt.Errorf("[NewManager] auth service is nil")
	}

	m := &Manager{
		persist:       persistence{store: store},
		auth:          authService,
		notifier:      notify.Nop{},
		refreshWindow: DefaultRefreshWindow,
		nowTime:       time.Now,
	}
	for _, opt := range options {
		opt(m)
	}
	if m.tasks == nil {
		m.tasks = background.New(30 * time.Second)
		m.ownTasks = true
	}
	return m, nil
}

// Initialize restores a persisted session. When the access token expires
// within the refresh window a single background refresh is started; its
// failure clears the session. Initialize never waits for that refresh and is
// safe to call repeatedly.
func (m *Manager) Initialize(ctx context.Context) {
	m.lock.Lock()
	defer m.lock.Unlock()

	if !m.session.LoggedIn() {
		restored, err := m.persist.load()
		if err != nil {
			log.Warn().Err(err).Msg("restoring session failed")
			return
		}
		if !restored.LoggedIn() {
			return
		}
		m.session = restored
		log.Debug().Str("username", restored.User.Username).Msg("session restored")
	}

	if m.refreshing || !m.dueLocked() {
		return
	}
	m.refreshing = true
	gen := m.generation
	m.tasks.Go("session refresh", func(ctx context.Context) error {
		return m.backgroundRefresh(ctx, gen)
	})
}

// dueLocked reports whether now is past the start of the refresh window.
// An unknown expiry is never due.
func (m *Manager) dueLocked() bool {
	if m.session.ExpireAt.IsZero() {
		return false
	}
	return m.nowTime().After(m.session.ExpireAt.Add(-m.refreshWindow))
}

func (m *Manager) backgroundRefresh(ctx context.Context, gen uint64) error {
	defer func() {
		m.lock.Lock()
		m.refreshing = false
		m.lock.Unlock()
	}()

	err := m.refresh(ctx)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, errs.ErrStaleRefresh):
		log.Debug().Err(err).Msg("discarding superseded refresh")
		return nil
	case errors.Is(err, errs.ErrNoRefreshToken):
		m.lock.Lock()
		if m.generation == gen {
			m.clearLocked()
		}
		m.lock.Unlock()
	}
	return err
}

// Login authenticates and replaces the session. Failures are reported to the
// notifier: a disabled account gets a blocking alert, anything else a
// transient error notice.
func (m *Manager) Login(ctx context.Context, credentials auth.Credentials) error {
	grant, err := m.auth.Login(ctx, credentials)
	if err == nil && !grant.Complete() {
		err = errs.Wrapf(errs.ErrServer, "[Login] incomplete grant")
	}
	if err != nil {
		m.reportLoginFailure(ctx, err)
		return errors.Wrap(err, "[Login]")
	}

	m.lock.Lock()
	err = m.applyLocked(grant)
	m.lock.Unlock()
	if err != nil {
		m.notifier.Error("login failed")
		return errors.Wrap(err, "[Login]")
	}

	log.Info().Str("username", grant.User.Username).Msg("logged in")
	m.notifier.Success("login succeeded")

	if m.pageViews != nil {
		accessToken := grant.AccessToken
		m.tasks.Go("login page view", func(ctx context.Context) error {
			return m.pageViews.RecordPageView(ctx, accessToken, LoginPath)
		})
	}
	return nil
}

func (m *Manager) reportLoginFailure(ctx context.Context, err error) {
	if errors.Is(err, errs.ErrAccountDisabled) {
		msg := messageOf(err, "this account has been disabled, contact an administrator")
		if alertErr := m.notifier.Alert(ctx, "Unable to log in", msg); alertErr != nil {
			log.Warn().Err(alertErr).Msg("disabled-account alert not acknowledged")
		}
		return
	}
	m.reportError(err, "login failed")
}

// reportError shows a failure notice unless the API client already did.
func (m *Manager) reportError(err error, fallback string) {
	var n interface{ Notified() bool }
	if errors.As(err, &n) && n.Notified() {
		return
	}
	m.notifier.Error(messageOf(err, fallback))
}

// Register creates an account. It does not log the new user in.
func (m *Manager) Register(ctx context.Context, request auth.RegisterRequest) error {
	user, err := m.auth.Register(ctx, request)
	if err != nil {
		m.reportError(err, "registration failed")
		return errors.Wrap(err, "[Register]")
	}
	log.Info().Str("username", user.Username).Msg("registered")
	m.notifier.Success("registration succeeded, please log in")
	return nil
}

// Logout clears the session locally, then tells the server in the
// background. A server failure is only logged.
func (m *Manager) Logout(ctx context.Context) {
	m.lock.Lock()
	accessToken := m.session.AccessToken
	m.clearLocked()
	m.lock.Unlock()

	m.notifier.Success("logged out")
	if accessToken == "" {
		return
	}
	m.tasks.Go("server logout", func(ctx context.Context) error {
		return m.auth.Logout(ctx, accessToken)
	})
}

// Refresh exchanges the refresh token for a new grant. Any failure clears
// the session. Without a refresh token it fails at once.
func (m *Manager) Refresh(ctx context.Context) error {
	return m.refresh(ctx)
}

func (m *Manager) refresh(ctx context.Context) error {
	m.lock.RLock()
	refreshToken := m.session.RefreshToken
	gen := m.generation
	m.lock.RUnlock()

	if refreshToken == "" {
		return errs.ErrNoRefreshToken
	}

	grant, err := m.auth.RefreshToken(ctx, refreshToken)

	m.lock.Lock()
	defer m.lock.Unlock()

	if m.generation != gen {
		return errs.ErrStaleRefresh
	}
	if err == nil && !grant.Complete() {
		err = errs.Wrapf(errs.ErrInvalidToken, "incomplete grant")
	}
	if err != nil {
		m.clearLocked()
		return errors.Wrap(err, "[Refresh] refreshing access token")
	}
	if err := m.applyLocked(grant); err != nil {
		return errors.Wrap(err, "[Refresh]")
	}
	log.Debug().Time("expire_at", m.session.ExpireAt).Msg("session refreshed")
	return nil
}

// ChangePassword changes the password and, on success, logs out so the user
// has to authenticate with the new one.
func (m *Manager) ChangePassword(ctx context.Context, request auth.ChangePasswordRequest) error {
	if err := m.auth.ChangePassword(ctx, request); err != nil {
		m.reportError(err, "password change failed")
		return errors.Wrap(err, "[ChangePassword]")
	}
	m.notifier.Success("password changed, please log in again")
	m.Logout(ctx)
	return nil
}

// FetchUserInfo reloads the user record from the server.
func (m *Manager) FetchUserInfo(ctx context.Context) (*users.User, error) {
	user, err := m.auth.Me(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "[FetchUserInfo]")
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	if !m.session.LoggedIn() {
		return nil, errs.Wrapf(errs.ErrNotLoggedIn, "[FetchUserInfo]")
	}
	m.session.User = user.Clone()
	if err := m.persist.saveUser(user); err != nil {
		log.Warn().Err(err).Msg("persisting user failed")
	}
	return user, nil
}

// Token returns the current access token as an oauth2 bearer token.
func (m *Manager) Token() (*oauth2.Token, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	if !m.session.LoggedIn() {
		return nil, errs.ErrNotLoggedIn
	}
	return token.OAuth2(m.session.AccessToken, m.session.RefreshToken, m.session.ExpireAt), nil
}

// Clear drops the session locally without contacting the server.
func (m *Manager) Clear() {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.clearLocked()
}

// Wait blocks until background work started by the Manager has finished.
func (m *Manager) Wait() {
	m.tasks.Wait()
}

// Close stops background work when the Manager owns its runner.
func (m *Manager) Close() {
	if m.ownTasks {
		m.tasks.Close()
	}
}

func (m *Manager) applyLocked(grant *token.Grant) error {
	next := Session{
		User:         grant.User.Clone(),
		AccessToken:  grant.AccessToken,
		RefreshToken: grant.RefreshToken,
		ExpireAt:     grant.ExpireAt(m.nowTime()),
	}
	if err := m.persist.save(next); err != nil {
		m.clearLocked()
		return errors.Wrap(err, "persisting session")
	}
	m.session = next
	m.generation++
	return nil
}

func (m *Manager) clearLocked() {
	m.session = Session{}
	m.generation++
	if err := m.persist.clear(); err != nil {
		log.Warn().Err(err).Msg("clearing persisted session failed")
	}
}

// messageOf returns the server-supplied message carried by err, falling
// back to a description of the failure kind and then to fallback.
func messageOf(err error, fallback string) string {
	var sm interface{ ServerMessage() string }
	if errors.As(err, &sm) && sm.ServerMessage() != "" {
		return sm.ServerMessage()
	}
	switch {
	case errors.Is(err, errs.ErrInvalidCredentials):
		return "invalid username or password"
	case errors.Is(err, errs.ErrInvalidOldPassword):
		return "current password is incorrect"
	case errors.Is(err, errs.ErrDuplicate):
		return "username or email already in use"
	case errors.Is(err, errs.ErrNetwork):
		return "network error, check your connection"
	}
	return fallback
}
