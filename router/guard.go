package router

import (
	"context"
	"net/url"
	"slices"

	"github.com/jrsteele09/go-dochub-client/users"
	"github.com/rs/zerolog/log"
)

// SessionState is what the guard needs to know about the session.
type SessionState interface {
	Initialize(ctx context.Context)
	IsLoggedIn() bool
	Role() (users.RoleType, bool)
}

type Outcome int

const (
	Proceed Outcome = iota
	RedirectLogin
	RedirectDefault
)

func (o Outcome) String() string {
	switch o {
	case Proceed:
		return "proceed"
	case RedirectLogin:
		return "redirect to login"
	case RedirectDefault:
		return "redirect to default"
	}
	return "unknown"
}

// Decision is the guard's verdict. Target is empty for Proceed.
type Decision struct {
	Outcome Outcome
	Target  string
}

type Guard struct {
	session     SessionState
	loginPath   string
	defaultPath string
}

func NewGuard(session SessionState, loginPath, defaultPath string) *Guard {
	return &Guard{session: session, loginPath: loginPath, defaultPath: defaultPath}
}

// Evaluate restores the session, then checks authentication before roles:
// an anonymous visitor is always sent to login, never to the default page.
func (g *Guard) Evaluate(ctx context.Context, loc Location) Decision {
	g.session.Initialize(ctx)

	meta := loc.Route.Meta
	if meta.AuthRequired() && !g.session.IsLoggedIn() {
		q := url.Values{RedirectParam: {loc.FullPath()}}
		return Decision{Outcome: RedirectLogin, Target: g.loginPath + "?" + q.Encode()}
	}

	if len(meta.Roles) > 0 {
		role, ok := g.session.Role()
		if !ok || !slices.Contains(meta.Roles, role) {
			log.Debug().Str("path", loc.Path).Str("role", string(role)).Msg("role not permitted")
			return Decision{Outcome: RedirectDefault, Target: g.defaultPath}
		}
	}
	return Decision{Outcome: Proceed}
}
