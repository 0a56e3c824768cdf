package sessions_test

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-dochub-client/auth"
	"github.com/jrsteele09/go-dochub-client/auth/authfake"
	errs "github.com/jrsteele09/go-dochub-client/internal/errors"
	"github.com/jrsteele09/go-dochub-client/notify/notifyfake"
	"github.com/jrsteele09/go-dochub-client/sessions"
	"github.com/jrsteele09/go-dochub-client/storage/memory"
	"github.com/jrsteele09/go-dochub-client/users"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type clock struct {
	now  time.Time
	lock sync.Mutex
}

func (c *clock) Now() time.Time {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.now = c.now.Add(d)
}

type pageViews struct {
	paths []string
	lock  sync.Mutex
}

func (p *pageViews) RecordPageView(_ context.Context, _ string, path string) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.paths = append(p.paths, path)
	return nil
}

type fixture struct {
	clock   *clock
	store   *memory.Store
	service *authfake.Service
	notices *notifyfake.Recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clk := &clock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	f := &fixture{
		clock:   clk,
		store:   memory.New(),
		service: authfake.New(authfake.WithNowTime(clk.Now), authfake.WithBcryptCost(bcrypt.MinCost)),
		notices: notifyfake.New(),
	}
	_, err := f.service.AddUser(users.User{Username: "alice", RealName: "Alice Chen", Role: users.RoleStudent}, "secret1")
	require.NoError(t, err)
	_, err = f.service.AddUser(users.User{Username: "carol", Role: users.RoleCommittee, Avatar: "/a/carol.png"}, "secret3")
	require.NoError(t, err)
	return f
}

func (f *fixture) manager(t *testing.T, options ...sessions.Option) *sessions.Manager {
	t.Helper()
	options = append([]sessions.Option{
		sessions.WithNowTime(f.clock.Now),
		sessions.WithNotifier(f.notices),
	}, options...)
	m, err := sessions.NewManager(f.store, f.service, options...)
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return m
}

func (f *fixture) requireStoreEmpty(t *testing.T) {
	t.Helper()
	require.Equal(t, 0, f.store.Len())
}

func alice() auth.Credentials {
	return auth.Credentials{Username: "alice", Password: "secret1"}
}

func TestNewManagerRequiresCollaborators(t *testing.T) {
	_, err := sessions.NewManager(nil, authfake.New())
	require.Error(t, err)
	_, err = sessions.NewManager(memory.New(), nil)
	require.Error(t, err)
}

func TestLoginThenLogout(t *testing.T) {
	f := newFixture(t)
	m := f.manager(t)
	ctx := context.Background()

	require.NoError(t, m.Login(ctx, alice()))
	require.True(t, m.IsLoggedIn())
	require.Equal(t, "Alice Chen", m.DisplayName())

	access, ok, err := f.store.Get(sessions.KeyAccessToken)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, m.Snapshot().AccessToken, access)

	expire, ok, err := f.store.Get(sessions.KeyExpireAt)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, strconv.FormatInt(f.clock.Now().Add(2*time.Hour).UnixMilli(), 10), expire)

	require.Len(t, f.notices.Of(notifyfake.KindSuccess), 1)

	m.Logout(ctx)
	require.False(t, m.IsLoggedIn())
	require.Nil(t, m.User())
	f.requireStoreEmpty(t)

	m.Wait()
	require.Equal(t, 1, f.service.Calls(authfake.OpLogout))
}

func TestLogoutServerFailureIsOnlyLogged(t *testing.T) {
	f := newFixture(t)
	m := f.manager(t)
	ctx := context.Background()

	require.NoError(t, m.Login(ctx, alice()))
	f.service.SetLogoutError(errs.ErrNetwork)

	m.Logout(ctx)
	m.Wait()
	require.False(t, m.IsLoggedIn())
	require.Empty(t, f.notices.Of(notifyfake.KindError))
}

func TestLoginInvalidCredentials(t *testing.T) {
	f := newFixture(t)
	m := f.manager(t)

	err := m.Login(context.Background(), auth.Credentials{Username: "alice", Password: "wrong"})
	require.ErrorIs(t, err, errs.ErrInvalidCredentials)
	require.False(t, m.IsLoggedIn())
	f.requireStoreEmpty(t)

	failures := f.notices.Of(notifyfake.KindError)
	require.Len(t, failures, 1)
	require.Equal(t, "invalid username or password", failures[0].Message)
}

func TestLoginDisabledAccountAlertsOnly(t *testing.T) {
	f := newFixture(t)
	f.service.SetBanned("alice", true)
	m := f.manager(t)

	err := m.Login(context.Background(), alice())
	require.ErrorIs(t, err, errs.ErrAccountDisabled)
	require.False(t, m.IsLoggedIn())

	require.Empty(t, f.notices.Of(notifyfake.KindError))
	alerts := f.notices.Of(notifyfake.KindAlert)
	require.Len(t, alerts, 1)
	require.Equal(t, "Unable to log in", alerts[0].Title)
}

func TestLoginRecordsPageView(t *testing.T) {
	f := newFixture(t)
	views := &pageViews{}
	m := f.manager(t, sessions.WithPageViewRecorder(views))

	require.NoError(t, m.Login(context.Background(), alice()))
	m.Wait()
	require.Equal(t, []string{sessions.LoginPath}, views.paths)
}

func TestInitializeRestoresWithoutRefresh(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.manager(t).Login(context.Background(), alice()))

	m := f.manager(t)
	require.False(t, m.IsLoggedIn())

	m.Initialize(context.Background())
	m.Wait()
	require.True(t, m.IsLoggedIn())
	require.Equal(t, "alice", m.User().Username)
	require.Equal(t, 0, f.service.Calls(authfake.OpRefresh))
}

func TestInitializeNearExpiryRefreshesOnce(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.manager(t).Login(context.Background(), alice()))
	before, _, err := f.store.Get(sessions.KeyRefreshToken)
	require.NoError(t, err)

	f.clock.Advance(2*time.Hour - 2*time.Minute)
	m := f.manager(t)
	m.Initialize(context.Background())
	m.Initialize(context.Background())
	m.Wait()

	require.Equal(t, 1, f.service.Calls(authfake.OpRefresh))
	require.True(t, m.IsLoggedIn())
	require.NotEqual(t, before, m.Snapshot().RefreshToken)
	require.Equal(t, f.clock.Now().Add(2*time.Hour), m.Snapshot().ExpireAt)
}

func TestInitializeRefreshWindowBoundary(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.manager(t).Login(context.Background(), alice()))

	f.clock.Advance(2*time.Hour - sessions.DefaultRefreshWindow)
	m := f.manager(t)
	m.Initialize(context.Background())
	m.Wait()
	require.Equal(t, 0, f.service.Calls(authfake.OpRefresh))

	f.clock.Advance(time.Millisecond)
	m = f.manager(t)
	m.Initialize(context.Background())
	m.Wait()
	require.Equal(t, 1, f.service.Calls(authfake.OpRefresh))
	require.True(t, m.IsLoggedIn())
}

func TestInitializeExpiredRefreshFailureLogsOut(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.manager(t).Login(context.Background(), alice()))

	f.clock.Advance(3 * time.Hour)
	f.service.RevokeRefreshTokens()

	m := f.manager(t)
	m.Initialize(context.Background())
	m.Wait()

	require.Equal(t, 1, f.service.Calls(authfake.OpRefresh))
	require.False(t, m.IsLoggedIn())
	f.requireStoreEmpty(t)
}

func TestInitializeWithoutRefreshTokenLogsOut(t *testing.T) {
	f := newFixture(t)
	data, err := json.Marshal(users.User{ID: 7, Username: "alice"})
	require.NoError(t, err)
	require.NoError(t, f.store.Set(sessions.KeyUser, string(data)))
	require.NoError(t, f.store.Set(sessions.KeyAccessToken, "stale-access"))
	require.NoError(t, f.store.Set(sessions.KeyExpireAt, strconv.FormatInt(f.clock.Now().Add(time.Minute).UnixMilli(), 10)))

	m := f.manager(t)
	m.Initialize(context.Background())
	m.Wait()

	require.Equal(t, 0, f.service.Calls(authfake.OpRefresh))
	require.False(t, m.IsLoggedIn())
	f.requireStoreEmpty(t)
}

func TestInitializeIgnoresPartialState(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Set(sessions.KeyAccessToken, "orphan"))

	m := f.manager(t)
	m.Initialize(context.Background())
	m.Wait()
	require.False(t, m.IsLoggedIn())
}

func TestRefreshReplacesAllFields(t *testing.T) {
	f := newFixture(t)
	m := f.manager(t)
	ctx := context.Background()
	require.NoError(t, m.Login(ctx, alice()))
	first := m.Snapshot()

	f.clock.Advance(time.Hour)
	require.NoError(t, m.Refresh(ctx))

	second := m.Snapshot()
	require.NotNil(t, second.User)
	require.NotEqual(t, first.AccessToken, second.AccessToken)
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)
	require.True(t, second.ExpireAt.After(first.ExpireAt))

	persisted, _, err := f.store.Get(sessions.KeyRefreshToken)
	require.NoError(t, err)
	require.Equal(t, second.RefreshToken, persisted)
}

func TestRefreshFailureClearsEverything(t *testing.T) {
	f := newFixture(t)
	m := f.manager(t)
	ctx := context.Background()
	require.NoError(t, m.Login(ctx, alice()))

	f.service.RevokeRefreshTokens()
	err := m.Refresh(ctx)
	require.ErrorIs(t, err, errs.ErrInvalidToken)
	require.Equal(t, sessions.Session{}, m.Snapshot())
	f.requireStoreEmpty(t)
}

func TestRefreshWithoutTokenFailsFast(t *testing.T) {
	f := newFixture(t)
	m := f.manager(t)

	require.ErrorIs(t, m.Refresh(context.Background()), errs.ErrNoRefreshToken)
	require.Equal(t, 0, f.service.Calls(authfake.OpRefresh))
}

func TestRefreshSupersededByLogoutIsDiscarded(t *testing.T) {
	f := newFixture(t)
	m := f.manager(t)
	ctx := context.Background()
	require.NoError(t, m.Login(ctx, alice()))

	f.service.SetRefreshHook(func(ctx context.Context) error {
		m.Logout(ctx)
		return nil
	})

	require.ErrorIs(t, m.Refresh(ctx), errs.ErrStaleRefresh)
	m.Wait()
	require.False(t, m.IsLoggedIn())
	f.requireStoreEmpty(t)
}

func TestChangePasswordForcesLogout(t *testing.T) {
	f := newFixture(t)
	m := f.manager(t)
	f.service.SetTokenSource(m)
	ctx := context.Background()
	require.NoError(t, m.Login(ctx, alice()))

	err := m.ChangePassword(ctx, auth.ChangePasswordRequest{OldPassword: "nope", NewPassword: "secret9"})
	require.ErrorIs(t, err, errs.ErrInvalidOldPassword)
	require.True(t, m.IsLoggedIn())

	require.NoError(t, m.ChangePassword(ctx, auth.ChangePasswordRequest{OldPassword: "secret1", NewPassword: "secret9"}))
	require.False(t, m.IsLoggedIn())

	m.Wait()
	require.NoError(t, m.Login(ctx, auth.Credentials{Username: "alice", Password: "secret9"}))
}

func TestFetchUserInfo(t *testing.T) {
	f := newFixture(t)
	m := f.manager(t)
	f.service.SetTokenSource(m)
	ctx := context.Background()

	_, err := m.FetchUserInfo(ctx)
	require.ErrorIs(t, err, errs.ErrUnauthorized)

	require.NoError(t, m.Login(ctx, alice()))
	user, err := m.FetchUserInfo(ctx)
	require.NoError(t, err)
	require.Equal(t, "alice", user.Username)

	raw, ok, err := f.store.Get(sessions.KeyUser)
	require.NoError(t, err)
	require.True(t, ok)
	require.Contains(t, raw, `"username":"alice"`)
}

func TestRoleReads(t *testing.T) {
	f := newFixture(t)
	m := f.manager(t)

	_, ok := m.Role()
	require.False(t, ok)
	require.False(t, m.HasRole(users.RoleStudent))

	require.NoError(t, m.Login(context.Background(), auth.Credentials{Username: "carol", Password: "secret3"}))
	role, ok := m.Role()
	require.True(t, ok)
	require.Equal(t, users.RoleCommittee, role)
	require.True(t, m.HasRole(users.RoleCommittee, users.RoleAdmin))
	require.False(t, m.HasRole(users.RoleAdmin))
	require.True(t, m.IsCommittee())
	require.False(t, m.IsAdmin())
	require.Equal(t, "carol", m.DisplayName())
	require.Equal(t, "/a/carol.png", m.Avatar())
}

func TestTokenSource(t *testing.T) {
	f := newFixture(t)
	m := f.manager(t)

	_, err := m.Token()
	require.ErrorIs(t, err, errs.ErrNotLoggedIn)

	require.NoError(t, m.Login(context.Background(), alice()))
	tok, err := m.Token()
	require.NoError(t, err)
	require.Equal(t, "Bearer", tok.TokenType)
	require.Equal(t, m.Snapshot().AccessToken, tok.AccessToken)

	m.Clear()
	require.False(t, m.IsLoggedIn())
	f.requireStoreEmpty(t)
}

func TestRegisterDoesNotLogIn(t *testing.T) {
	f := newFixture(t)
	m := f.manager(t)
	ctx := context.Background()

	require.NoError(t, m.Register(ctx, auth.RegisterRequest{Username: "dave", Password: "pw123456"}))
	require.False(t, m.IsLoggedIn())

	err := m.Register(ctx, auth.RegisterRequest{Username: "dave", Password: "pw123456"})
	require.ErrorIs(t, err, errs.ErrDuplicate)
}
