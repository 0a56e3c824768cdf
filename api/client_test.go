package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-dochub-client/admin"
	"github.com/jrsteele09/go-dochub-client/api"
	"github.com/jrsteele09/go-dochub-client/auth"
	errs "github.com/jrsteele09/go-dochub-client/internal/errors"
	"github.com/jrsteele09/go-dochub-client/materials"
	"github.com/jrsteele09/go-dochub-client/notify/notifyfake"
	"github.com/jrsteele09/go-dochub-client/sessions"
	"github.com/jrsteele09/go-dochub-client/storage/memory"
	"github.com/jrsteele09/go-dochub-client/users"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type reply struct {
	status  int
	code    int
	message string
	data    any
}

// server answers every request with the reply registered for its path and
// remembers the requests it saw.
type server struct {
	*httptest.Server
	replies  map[string]reply
	requests []*http.Request
	bodies   []map[string]any
	lock     sync.Mutex
}

func newServer(t *testing.T, replies map[string]reply) *server {
	t.Helper()
	if replies == nil {
		replies = map[string]reply{}
	}
	s := &server{replies: replies}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{}
		_ = json.NewDecoder(r.Body).Decode(&body)

		s.lock.Lock()
		s.requests = append(s.requests, r)
		s.bodies = append(s.bodies, body)
		rp, ok := s.replies[r.URL.Path]
		s.lock.Unlock()

		if !ok {
			rp = reply{status: http.StatusNotFound, code: api.CodeNotFound, message: "no route"}
		}
		if rp.status == 0 {
			rp.status = http.StatusOK
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(rp.status)
		_ = json.NewEncoder(w).Encode(map[string]any{"code": rp.code, "message": rp.message, "data": rp.data})
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *server) set(path string, rp reply) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.replies[path] = rp
}

func (s *server) last() (*http.Request, map[string]any) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.requests[len(s.requests)-1], s.bodies[len(s.bodies)-1]
}

func newClient(t *testing.T, baseURL string, notices *notifyfake.Recorder, options ...api.Option) *api.Client {
	t.Helper()
	options = append([]api.Option{api.WithNotifier(notices)}, options...)
	c, err := api.NewClient(baseURL+"/api/v1", time.Second, options...)
	require.NoError(t, err)
	return c
}

func bearer(accessToken string) oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
}

func TestDoDecodesEnvelope(t *testing.T) {
	srv := newServer(t, map[string]reply{
		"/api/v1/auth/me": {data: users.User{ID: 4, Username: "alice", Role: users.RoleStudent}},
	})
	notices := notifyfake.New()
	c := newClient(t, srv.URL, notices, api.WithTokenSource(bearer("tok-1")), api.WithRateLimit(100, 10))

	var user users.User
	require.NoError(t, c.Get(context.Background(), "/auth/me", url.Values{"keep": {"1"}, "drop": {""}}, &user))
	require.Equal(t, "alice", user.Username)

	req, _ := srv.last()
	require.Equal(t, "Bearer tok-1", req.Header.Get("Authorization"))
	require.NotEmpty(t, req.Header.Get(api.RequestIDHeader))
	require.Equal(t, "keep=1", req.URL.RawQuery)
	require.Empty(t, notices.Notices())
}

func TestStatusFailuresNotify(t *testing.T) {
	srv := newServer(t, map[string]reply{
		"/api/v1/forbidden": {status: http.StatusForbidden, code: api.CodeForbidden},
		"/api/v1/boom":      {status: http.StatusInternalServerError},
		"/api/v1/teapot":    {status: http.StatusTeapot, message: "short and stout"},
		"/api/v1/gone":      {status: http.StatusGone},
	})
	notices := notifyfake.New()
	c := newClient(t, srv.URL, notices)
	ctx := context.Background()

	err := c.Get(ctx, "/forbidden", nil, nil)
	require.ErrorIs(t, err, errs.ErrForbidden)
	err = c.Get(ctx, "/missing", nil, nil)
	require.ErrorIs(t, err, errs.ErrNotFound)
	err = c.Get(ctx, "/boom", nil, nil)
	require.ErrorIs(t, err, errs.ErrServer)
	require.Error(t, c.Get(ctx, "/teapot", nil, nil))
	require.Error(t, c.Get(ctx, "/gone", nil, nil))

	var messages []string
	for _, n := range notices.Of(notifyfake.KindError) {
		messages = append(messages, n.Message)
	}
	require.Equal(t, []string{api.MsgForbidden, api.MsgNotFound, api.MsgServer, "short and stout", api.MsgFailed}, messages)
}

func TestUnauthorizedWithBearerRunsHandler(t *testing.T) {
	srv := newServer(t, map[string]reply{
		"/api/v1/auth/me": {status: http.StatusUnauthorized, code: api.CodeUnauthorized},
	})
	notices := notifyfake.New()
	c := newClient(t, srv.URL, notices)
	calls := 0
	c.OnUnauthorized(func() { calls++ })
	ctx := context.Background()

	// Anonymous: left to the caller.
	err := c.Get(ctx, "/auth/me", nil, nil)
	require.ErrorIs(t, err, errs.ErrUnauthorized)
	require.Equal(t, 0, calls)
	require.Empty(t, notices.Notices())

	c.SetTokenSource(bearer("expired"))
	err = c.Get(ctx, "/auth/me", nil, nil)
	require.ErrorIs(t, err, errs.ErrUnauthorized)
	require.Equal(t, 1, calls)
	require.Equal(t, api.MsgUnauthorized, notices.Of(notifyfake.KindError)[0].Message)

	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	require.True(t, apiErr.Notified())
	require.Equal(t, http.StatusUnauthorized, apiErr.Status)
}

func TestBusinessErrorIsReturnedQuietly(t *testing.T) {
	srv := newServer(t, map[string]reply{
		"/api/v1/materials": {code: api.CodeInvalidParams, message: "title is required"},
	})
	notices := notifyfake.New()
	c := newClient(t, srv.URL, notices)

	err := c.Post(context.Background(), "/materials", map[string]string{}, nil)
	require.ErrorIs(t, err, errs.ErrInvalidParams)

	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "title is required", apiErr.ServerMessage())
	require.False(t, apiErr.Notified())
	require.Empty(t, notices.Notices())
}

func TestNetworkFailure(t *testing.T) {
	srv := newServer(t, nil)
	baseURL := srv.URL
	srv.Close()

	notices := notifyfake.New()
	c := newClient(t, baseURL, notices)

	err := c.Get(context.Background(), "/materials", nil, nil)
	require.ErrorIs(t, err, errs.ErrNetwork)
	require.Equal(t, api.MsgNetwork, notices.Of(notifyfake.KindError)[0].Message)
}

func TestAuthAPIClassifiesLoginFailures(t *testing.T) {
	srv := newServer(t, nil)
	notices := notifyfake.New()
	a := api.NewAuthAPI(newClient(t, srv.URL, notices))
	ctx := context.Background()

	srv.set("/api/v1/auth/login", reply{code: api.CodeUserDisabled, message: "account banned"})
	_, err := a.Login(ctx, auth.Credentials{Username: "bob", Password: "pw"})
	require.ErrorIs(t, err, errs.ErrAccountDisabled)

	srv.set("/api/v1/auth/login", reply{code: 10101, message: "wrong password"})
	_, err = a.Login(ctx, auth.Credentials{Username: "bob", Password: "pw"})
	require.ErrorIs(t, err, errs.ErrInvalidCredentials)

	srv.set("/api/v1/auth/login", reply{status: http.StatusInternalServerError})
	_, err = a.Login(ctx, auth.Credentials{Username: "bob", Password: "pw"})
	require.ErrorIs(t, err, errs.ErrServer)
	require.NotErrorIs(t, err, errs.ErrInvalidCredentials)

	srv.set("/api/v1/auth/login", reply{data: map[string]any{
		"access_token":  "a1",
		"refresh_token": "r1",
		"expires_in":    7200,
		"user":          map[string]any{"id": 2, "username": "bob", "role": "student"},
	}})
	grant, err := a.Login(ctx, auth.Credentials{Username: "bob", Password: "pw"})
	require.NoError(t, err)
	require.True(t, grant.Complete())
	require.Equal(t, int64(7200), grant.ExpiresIn)

	_, body := srv.last()
	require.Equal(t, "bob", body["username"])
}

func TestAuthAPIRefreshAndLogoutAreQuiet(t *testing.T) {
	srv := newServer(t, map[string]reply{
		"/api/v1/auth/refresh": {status: http.StatusUnauthorized, code: api.CodeUnauthorized},
		"/api/v1/auth/logout":  {status: http.StatusInternalServerError},
	})
	notices := notifyfake.New()
	c := newClient(t, srv.URL, notices, api.WithTokenSource(bearer("current")))
	calls := 0
	c.OnUnauthorized(func() { calls++ })
	a := api.NewAuthAPI(c)
	ctx := context.Background()

	_, err := a.RefreshToken(ctx, "r-old")
	require.ErrorIs(t, err, errs.ErrInvalidToken)
	_, body := srv.last()
	require.Equal(t, "r-old", body["refresh_token"])

	require.Error(t, a.Logout(ctx, "captured"))
	req, _ := srv.last()
	require.Equal(t, "Bearer captured", req.Header.Get("Authorization"))

	require.Equal(t, 0, calls)
	require.Empty(t, notices.Notices())
}

func TestTelemetry(t *testing.T) {
	srv := newServer(t, map[string]reply{"/api/v1/statistics/page-view": {}})
	tel := api.NewTelemetry(newClient(t, srv.URL, notifyfake.New()))

	require.NoError(t, tel.RecordPageView(context.Background(), "tok-9", "/login"))
	req, body := srv.last()
	require.Equal(t, http.MethodPost, req.Method)
	require.Equal(t, "Bearer tok-9", req.Header.Get("Authorization"))
	require.Equal(t, "/login", body["path"])
}

func TestMaterialsAPI(t *testing.T) {
	srv := newServer(t, map[string]reply{
		"/api/v1/materials": {data: map[string]any{
			"materials": []map[string]any{{"id": 1, "title": "Calculus"}},
			"total":     21,
			"page":      1,
			"page_size": 20,
		}},
		"/api/v1/materials/1/favorite": {code: api.CodeDuplicate, message: "already favorited"},
		"/api/v1/materials/2/favorite": {},
		"/api/v1/materials/1/download": {data: map[string]any{"download_url": "https://files.example/1"}},
	})
	a := api.NewMaterialsAPI(newClient(t, srv.URL, notifyfake.New(), api.WithTokenSource(bearer("t"))))
	ctx := context.Background()

	page, err := a.List(ctx, materials.ListParams{Page: 1, Size: 20, Keyword: "calc"})
	require.NoError(t, err)
	require.Equal(t, 21, page.Total)
	require.Equal(t, "Calculus", page.Items[0].Title)
	req, _ := srv.last()
	require.Equal(t, "keyword=calc&page=1&size=20", req.URL.RawQuery)

	result, err := a.AddFavorite(ctx, 1)
	require.NoError(t, err)
	require.True(t, result.AlreadyFavorited)

	result, err = a.AddFavorite(ctx, 2)
	require.NoError(t, err)
	require.False(t, result.AlreadyFavorited)

	sig, err := a.DownloadURL(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "https://files.example/1", sig.DownloadURL)
}

func TestDisabledAccountStatusIsLeftToCaller(t *testing.T) {
	srv := newServer(t, map[string]reply{
		"/api/v1/auth/login": {status: http.StatusForbidden, code: api.CodeUserDisabled, message: "account banned"},
	})
	notices := notifyfake.New()
	c := newClient(t, srv.URL, notices)
	m, err := sessions.NewManager(memory.New(), api.NewAuthAPI(c), sessions.WithNotifier(notices))
	require.NoError(t, err)
	t.Cleanup(m.Close)

	err = m.Login(context.Background(), auth.Credentials{Username: "bob", Password: "pw"})
	require.ErrorIs(t, err, errs.ErrAccountDisabled)
	require.Equal(t, []notifyfake.Notice{
		{Kind: notifyfake.KindAlert, Title: "Unable to log in", Message: "account banned"},
	}, notices.Notices())
}

func TestDuplicateFavoriteStatusIsSuccess(t *testing.T) {
	srv := newServer(t, map[string]reply{
		"/api/v1/materials/1/favorite": {status: http.StatusConflict, code: api.CodeDuplicate, message: "already favorited"},
	})
	notices := notifyfake.New()
	a := api.NewMaterialsAPI(newClient(t, srv.URL, notices, api.WithTokenSource(bearer("t"))))

	result, err := a.AddFavorite(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, result.AlreadyFavorited)
	require.Empty(t, notices.Notices())
}

func TestLoginIgnoresLoadedSession(t *testing.T) {
	srv := newServer(t, map[string]reply{
		"/api/v1/auth/login":    {status: http.StatusUnauthorized, code: api.CodeUnauthorized, message: "wrong password"},
		"/api/v1/auth/register": {data: map[string]any{"id": 8, "username": "dan"}},
	})
	notices := notifyfake.New()
	c := newClient(t, srv.URL, notices, api.WithTokenSource(bearer("stale")))
	calls := 0
	c.OnUnauthorized(func() { calls++ })
	a := api.NewAuthAPI(c)
	ctx := context.Background()

	_, err := a.Login(ctx, auth.Credentials{Username: "bob", Password: "nope"})
	require.ErrorIs(t, err, errs.ErrInvalidCredentials)
	req, _ := srv.last()
	require.Empty(t, req.Header.Get("Authorization"))
	require.Equal(t, 0, calls)
	require.Empty(t, notices.Notices())

	_, err = a.Register(ctx, auth.RegisterRequest{Username: "dan", Password: "pw", Email: "dan@example.com"})
	require.NoError(t, err)
	req, _ = srv.last()
	require.Empty(t, req.Header.Get("Authorization"))
}

func TestAdminAPI(t *testing.T) {
	srv := newServer(t, map[string]reply{
		"/api/v1/admin/users": {data: map[string]any{
			"items":      []map[string]any{{"id": 2, "username": "bob", "status": "active"}},
			"pagination": map[string]any{"page": 1, "page_size": 20, "total": 1, "total_pages": 1},
		}},
		"/api/v1/admin/users/2/status":    {},
		"/api/v1/admin/configs/site name": {data: map[string]any{"config_key": "site name", "config_value": "DocHub"}},
	})
	a := api.NewAdminAPI(newClient(t, srv.URL, notifyfake.New(), api.WithTokenSource(bearer("admin-token"))))
	ctx := context.Background()

	page, err := a.ListUsers(ctx, admin.UserListParams{Status: users.StatusActive, Size: 20})
	require.NoError(t, err)
	require.Equal(t, "bob", page.Items[0].Username)
	req, _ := srv.last()
	require.Equal(t, "page_size=20&status=active", req.URL.RawQuery)

	require.NoError(t, a.SetUserStatus(ctx, 2, admin.StatusRequest{Status: users.StatusBanned, Reason: "spam"}))
	req, body := srv.last()
	require.Equal(t, http.MethodPut, req.Method)
	require.Equal(t, "banned", body["status"])
	require.Equal(t, "spam", body["reason"])

	c, err := a.GetConfig(ctx, "site name")
	require.NoError(t, err)
	require.Equal(t, "DocHub", c.Value)
}

func TestMaterialsAPIReportsAndDownloads(t *testing.T) {
	srv := newServer(t, map[string]reply{
		"/api/v1/admin/reports": {data: map[string]any{
			"list":  []map[string]any{{"id": 7, "material_id": 2, "reason": "copyright", "status": "pending"}},
			"total": 1, "page": 1, "size": 20,
		}},
		"/api/v1/admin/reports/7/handle": {},
		"/api/v1/downloads": {data: map[string]any{
			"list":  []map[string]any{{"id": 2, "title": "OS Paper", "downloaded_at": "2024-03-01 09:00:00"}},
			"total": 1, "page": 1, "size": 20,
		}},
		"/api/v1/materials/delete-uploaded-file": {},
	})
	a := api.NewMaterialsAPI(newClient(t, srv.URL, notifyfake.New(), api.WithTokenSource(bearer("t"))))
	ctx := context.Background()

	reports, err := a.ListReports(ctx, materials.ReportListParams{Status: materials.ReportPending})
	require.NoError(t, err)
	require.Equal(t, materials.ReasonCopyright, reports.Items[0].Reason)

	r, err := a.HandleReport(ctx, 7, materials.HandleReportRequest{Status: materials.ReportRejected, Note: "fine"})
	require.NoError(t, err)
	require.Zero(t, r.ID)
	_, body := srv.last()
	require.Equal(t, "rejected", body["status"])
	require.Equal(t, "fine", body["handle_note"])

	page, err := a.DownloadRecords(ctx, materials.ListParams{})
	require.NoError(t, err)
	require.Equal(t, "2024-03-01 09:00:00", page.Items[0].DownloadedAt)

	require.NoError(t, a.DeleteUploadedFile(ctx, "materials/4/x.pdf"))
	_, body = srv.last()
	require.Equal(t, "materials/4/x.pdf", body["file_key"])
}
