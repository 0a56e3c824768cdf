package router

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	errs "github.com/jrsteele09/go-dochub-client/internal/errors"
	"github.com/rs/zerolog/log"
)

const maxHops = 10

// Navigator tracks the current location and page title.
type Navigator struct {
	table *Table
	guard *Guard

	current Location
	title   string
	lock    sync.RWMutex
}

func NewNavigator(table *Table, session SessionState) *Navigator {
	return &Navigator{
		table: table,
		guard: NewGuard(session, table.LoginPath, table.DefaultPath),
		title: table.AppName,
	}
}

func (n *Navigator) Guard() *Guard {
	return n.guard
}

func (n *Navigator) Table() *Table {
	return n.table
}

// Navigate goes to target, following route redirects and guard decisions
// until a route lets the user in.
func (n *Navigator) Navigate(ctx context.Context, target string) (Location, error) {
	for hop := 0; hop < maxHops; hop++ {
		loc, err := n.table.Resolve(target)
		if err != nil {
			return Location{}, err
		}
		if loc.Route.Redirect != "" {
			target = loc.Route.Redirect
			continue
		}

		title := n.pageTitle(loc.Route)
		decision := n.guard.Evaluate(ctx, loc)
		if decision.Outcome != Proceed {
			log.Debug().Str("from", loc.FullPath()).Str("to", decision.Target).Stringer("outcome", decision.Outcome).Msg("navigation redirected")
			target = decision.Target
			continue
		}

		n.lock.Lock()
		n.current = loc
		n.title = title
		n.lock.Unlock()
		return loc, nil
	}
	return Location{}, errs.Wrapf(errs.ErrRedirectLoop, "[Navigate] %s", target)
}

// ResumeAfterLogin continues to the destination preserved in the login
// redirect, or to the default page. Only local paths are followed.
func (n *Navigator) ResumeAfterLogin(ctx context.Context) (Location, error) {
	target := n.table.DefaultPath
	if dest := n.Current().Query.Get(RedirectParam); localPath(dest) {
		target = dest
	}
	return n.Navigate(ctx, target)
}

// ForceLogin drops whatever is on screen and shows the login page.
func (n *Navigator) ForceLogin(ctx context.Context) {
	if _, err := n.Navigate(ctx, n.table.LoginPath); err != nil {
		log.Error().Err(err).Msg("navigating to login failed")
	}
}

func (n *Navigator) Current() Location {
	n.lock.RLock()
	defer n.lock.RUnlock()
	return n.current
}

// Title is the page title of the current location.
func (n *Navigator) Title() string {
	n.lock.RLock()
	defer n.lock.RUnlock()
	return n.title
}

func (n *Navigator) pageTitle(r *Route) string {
	t := r.Meta.Title
	if t == "" {
		t = n.table.AppName
	}
	return fmt.Sprintf("%s | %s", t, n.table.AppName)
}

func localPath(p string) bool {
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.HasPrefix(p, "/\\") {
		return false
	}
	u, err := url.Parse(p)
	return err == nil && !u.IsAbs() && u.Host == ""
}
