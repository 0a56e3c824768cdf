package sessions

import "github.com/jrsteele09/go-dochub-client/users"

func (m *Manager) IsLoggedIn() bool {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.session.LoggedIn()
}

// User returns a copy of the logged-in user, or nil.
func (m *Manager) User() *users.User {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.session.User.Clone()
}

// Role returns the user's role; ok is false when nobody is logged in.
func (m *Manager) Role() (role users.RoleType, ok bool) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	if m.session.User == nil {
		return "", false
	}
	return m.session.User.Role, true
}

// DisplayName is the real name when set, otherwise the username.
func (m *Manager) DisplayName() string {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.session.User.DisplayName()
}

func (m *Manager) Avatar() string {
	m.lock.RLock()
	defer m.lock.RUnlock()
	if m.session.User == nil {
		return ""
	}
	return m.session.User.Avatar
}

func (m *Manager) IsAdmin() bool {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.session.User.IsAdmin()
}

// IsCommittee is true for committee members and admins.
func (m *Manager) IsCommittee() bool {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.session.User.IsCommittee()
}

// HasRole reports whether the user holds one of roles. It is false when
// logged out.
func (m *Manager) HasRole(roles ...users.RoleType) bool {
	m.lock.RLock()
	defer m.lock.RUnlock()
	if m.session.User == nil {
		return false
	}
	return m.session.User.HasRole(roles...)
}

// Snapshot returns a copy of the whole session.
func (m *Manager) Snapshot() Session {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.session.clone()
}
