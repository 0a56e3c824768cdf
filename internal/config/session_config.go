package config

import (
	"path/filepath"
	"time"
)

const refreshWindowVar = "SESSION_REFRESH_WINDOW"

type Session struct {
	file *fileValues
	env  EnvVars
}

var _ SessionConfig = Session{}

// GetRefreshWindow is how long before expiry the access token is renewed.
func (s Session) GetRefreshWindow() time.Duration {
	return getDuration(refreshWindowVar, s.file.duration(s.file.Session.RefreshWindow, 5*time.Minute))
}

func (s Session) GetSessionDBPath() string {
	return filepath.Join(s.env.GetDataFolder(), "session.db")
}

// GetLegacySessionFile is the JSON file older releases persisted the session to.
func (s Session) GetLegacySessionFile() string {
	return filepath.Join(s.env.GetDataFolder(), "session.json")
}
