package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jrsteele09/go-dochub-client/admin"
	"github.com/jrsteele09/go-dochub-client/api"
	"github.com/jrsteele09/go-dochub-client/categories"
	"github.com/jrsteele09/go-dochub-client/internal/background"
	"github.com/jrsteele09/go-dochub-client/internal/config"
	"github.com/jrsteele09/go-dochub-client/materials"
	"github.com/jrsteele09/go-dochub-client/notify"
	"github.com/jrsteele09/go-dochub-client/router"
	"github.com/jrsteele09/go-dochub-client/sessions"
	"github.com/jrsteele09/go-dochub-client/storage"
	"github.com/jrsteele09/go-dochub-client/storage/jsonfile"
	"github.com/jrsteele09/go-dochub-client/storage/sqlite"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

// app is one fully wired client: session, navigation and the data stores
// all share a single API client and background runner.
type app struct {
	cfg      config.Config
	out      io.Writer
	in       io.Reader
	notifier notify.Notifier

	db         *sqlite.Store
	tasks      *background.Runner
	client     *api.Client
	sessions   *sessions.Manager
	nav        *router.Navigator
	materials  *materials.Store
	categories *categories.Store
	admin      *admin.Store
}

func newApp(cfg config.Config, baseURL string, out io.Writer, in io.Reader) (*app, error) {
	if baseURL == "" {
		baseURL = cfg.GetAPIBaseURL()
	}
	if err := os.MkdirAll(cfg.GetDataFolder(), 0o700); err != nil {
		return nil, fmt.Errorf("[newApp] creating data folder: %w", err)
	}

	db, err := sqlite.Open(cfg.GetSessionDBPath())
	if err != nil {
		return nil, fmt.Errorf("[newApp] %w", err)
	}
	store := storage.NewChain(db, jsonfile.New(cfg.GetLegacySessionFile()))

	a := &app{
		cfg:      cfg,
		out:      out,
		in:       in,
		notifier: notify.NewConsole(out, in, isTerminal(out)),
		db:       db,
		tasks:    background.New(cfg.GetRequestTimeout()),
	}

	a.client, err = api.NewClient(baseURL, cfg.GetRequestTimeout(),
		api.WithNotifier(a.notifier),
		api.WithRateLimit(cfg.GetRateLimit(), cfg.GetRateBurst()),
	)
	if err != nil {
		a.close()
		return nil, err
	}

	a.sessions, err = sessions.NewManager(store, api.NewAuthAPI(a.client),
		sessions.WithNotifier(a.notifier),
		sessions.WithRefreshWindow(cfg.GetRefreshWindow()),
		sessions.WithPageViewRecorder(api.NewTelemetry(a.client)),
		sessions.WithRunner(a.tasks),
	)
	if err != nil {
		a.close()
		return nil, err
	}

	table, err := router.DefaultTable()
	if err != nil {
		a.close()
		return nil, err
	}
	table.AppName = cfg.GetAppName()
	a.nav = router.NewNavigator(table, a.sessions)

	a.client.SetTokenSource(a.sessions)
	a.client.OnUnauthorized(func() {
		a.sessions.Clear()
		a.nav.ForceLogin(context.Background())
	})

	a.materials = materials.NewStore(api.NewMaterialsAPI(a.client))
	a.categories = categories.NewStore(api.NewCategoriesAPI(a.client))
	a.admin = admin.NewStore(api.NewAdminAPI(a.client))
	return a, nil
}

// settle restores the session and gives a due token refresh the chance to
// finish before a command uses the token.
func (a *app) settle(ctx context.Context) {
	a.sessions.Initialize(ctx)
	if !a.tasks.WaitTimeout(a.cfg.GetRequestTimeout()) {
		log.Warn().Msg("session refresh still running")
	}
}

// enter navigates to path and fails unless the guard lets the user in.
func (a *app) enter(ctx context.Context, path string) error {
	landed, err := a.nav.Navigate(ctx, path)
	if err != nil {
		return err
	}
	requested, err := a.nav.Table().Resolve(path)
	if err != nil {
		return err
	}
	if landed.Route == requested.Route || requested.Route.Redirect != "" {
		return nil
	}
	if !a.sessions.IsLoggedIn() {
		return fmt.Errorf("%s requires login, run: dochub login", path)
	}
	return fmt.Errorf("your role may not open %s", path)
}

func (a *app) close() {
	if !a.tasks.WaitTimeout(a.cfg.GetRequestTimeout()) {
		log.Warn().Msg("abandoning unfinished background tasks")
	}
	a.tasks.Close()
	if err := a.db.Close(); err != nil {
		log.Warn().Err(err).Msg("closing session database")
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
