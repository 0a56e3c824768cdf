// Package router decides where navigation may go. A Table maps paths to
// routes, a Guard gates each route on authentication and role, and a
// Navigator follows redirects until it lands somewhere the user may be.
package router

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	errs "github.com/jrsteele09/go-dochub-client/internal/errors"
	"github.com/jrsteele09/go-dochub-client/users"
	"gopkg.in/yaml.v3"
)

//go:embed routes.yaml
var defaultRoutes []byte

// RedirectParam carries the destination a login redirect should resume at.
const RedirectParam = "redirect"

type Meta struct {
	Title        string           `yaml:"title"`
	RequiresAuth *bool            `yaml:"requires_auth"` // nil means true
	Roles        []users.RoleType `yaml:"roles"`
}

// AuthRequired is true unless the route explicitly opts out.
func (m Meta) AuthRequired() bool {
	return m.RequiresAuth == nil || *m.RequiresAuth
}

type Route struct {
	Name     string `yaml:"name"`
	Path     string `yaml:"path"`
	Redirect string `yaml:"redirect"`
	CatchAll bool   `yaml:"catch_all"`
	Meta     Meta   `yaml:"meta"`

	glob string // Path with :param segments turned into *
}

type Table struct {
	AppName     string  `yaml:"app_name"`
	LoginPath   string  `yaml:"login_path"`
	DefaultPath string  `yaml:"default_path"`
	Routes      []Route `yaml:"routes"`
}

// Location is a resolved navigation target.
type Location struct {
	Path   string
	Query  url.Values
	Route  *Route
	Params map[string]string
}

// FullPath is the path with its query string.
func (l Location) FullPath() string {
	if len(l.Query) == 0 {
		return l.Path
	}
	return l.Path + "?" + l.Query.Encode()
}

// DefaultTable is the built-in DocHub route table.
func DefaultTable() (*Table, error) {
	return LoadTable(bytes.NewReader(defaultRoutes))
}

// LoadTable decodes and validates a YAML route table.
func LoadTable(r io.Reader) (*Table, error) {
	t := &Table{}
	if err := yaml.NewDecoder(r).Decode(t); err != nil {
		return nil, fmt.Errorf("parse route table: %w", err)
	}
	if err := t.compile(); err != nil {
		return nil, fmt.Errorf("invalid route table: %w", err)
	}
	return t, nil
}

func (t *Table) compile() error {
	if t.AppName == "" {
		return fmt.Errorf("app_name is required")
	}
	if len(t.Routes) == 0 {
		return fmt.Errorf("no routes")
	}

	names := make(map[string]bool, len(t.Routes))
	for i := range t.Routes {
		r := &t.Routes[i]
		if !strings.HasPrefix(r.Path, "/") {
			return fmt.Errorf("route %q: path %q must start with /", r.Name, r.Path)
		}
		if r.Name != "" {
			if names[r.Name] {
				return fmt.Errorf("duplicate route name %q", r.Name)
			}
			names[r.Name] = true
		}
		for _, role := range r.Meta.Roles {
			if !role.Valid() {
				return fmt.Errorf("route %q: unknown role %q", r.Name, role)
			}
		}
		if r.CatchAll != (i == len(t.Routes)-1) {
			return fmt.Errorf("route %q: exactly one catch-all route is allowed and it must be last", r.Name)
		}

		r.glob = globOf(r.Path)
		if !doublestar.ValidatePattern(r.glob) {
			return fmt.Errorf("route %q: bad path pattern %q", r.Name, r.Path)
		}
	}

	for _, p := range []string{t.LoginPath, t.DefaultPath} {
		loc, err := t.Resolve(p)
		if err != nil {
			return err
		}
		if loc.Route.CatchAll {
			return fmt.Errorf("path %q has no route", p)
		}
	}
	return nil
}

// Resolve finds the first route matching target, which may carry a query.
func (t *Table) Resolve(target string) (Location, error) {
	u, err := url.Parse(target)
	if err != nil {
		return Location{}, fmt.Errorf("[Resolve] %q: %w", target, err)
	}
	if u.IsAbs() || u.Host != "" {
		return Location{}, fmt.Errorf("[Resolve] %q is not a local path", target)
	}

	p := normalize(u.EscapedPath())
	for i := range t.Routes {
		r := &t.Routes[i]
		ok, err := doublestar.Match(r.glob, p)
		if err != nil || !ok {
			continue
		}
		params, ok := paramsOf(r.Path, p)
		if !ok {
			continue
		}
		return Location{Path: p, Query: u.Query(), Route: r, Params: params}, nil
	}
	return Location{}, errs.Wrapf(errs.ErrRouteNotFound, "[Resolve] %s", p)
}

// ByName returns the route called name.
func (t *Table) ByName(name string) (*Route, bool) {
	for i := range t.Routes {
		if t.Routes[i].Name == name {
			return &t.Routes[i], true
		}
	}
	return nil, false
}

func normalize(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

func globOf(p string) string {
	segments := strings.Split(p, "/")
	for i, s := range segments {
		if strings.HasPrefix(s, ":") {
			segments[i] = "*"
		}
	}
	return strings.Join(segments, "/")
}

// paramsOf extracts :param segments. A param never matches an empty segment.
func paramsOf(pattern, p string) (map[string]string, bool) {
	if !strings.Contains(pattern, ":") {
		return nil, true
	}
	want := strings.Split(pattern, "/")
	got := strings.Split(p, "/")
	if len(want) != len(got) {
		return nil, false
	}
	params := make(map[string]string)
	for i, s := range want {
		if !strings.HasPrefix(s, ":") {
			continue
		}
		if got[i] == "" {
			return nil, false
		}
		v, err := url.PathUnescape(got[i])
		if err != nil {
			return nil, false
		}
		params[strings.TrimPrefix(s, ":")] = v
	}
	return params, true
}
