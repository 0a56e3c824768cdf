package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
)

type Config interface {
	EnvConfig
	APIConfig
	SessionConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetDataFolder() string
	GetLogLevel() string
}

type APIConfig interface {
	GetAPIBaseURL() string
	GetRequestTimeout() time.Duration
	GetRateLimit() float64
	GetRateBurst() int
}

type SessionConfig interface {
	GetRefreshWindow() time.Duration
	GetSessionDBPath() string
	GetLegacySessionFile() string
}

type mainConfig struct {
	EnvVars
	API
	Session
}

// New loads .env (when present) and the optional TOML config file, then
// returns a Config whose getters resolve environment variables first, file
// values second and built-in defaults last.
func New() (Config, error) {
	_ = godotenv.Load()

	file, err := loadFileValues(GetEnv(configFileVar, ""))
	if err != nil {
		return nil, fmt.Errorf("[config.New] %w", err)
	}

	env := EnvVars{file: file}
	return mainConfig{
		EnvVars: env,
		API:     API{file: file},
		Session: Session{file: file, env: env},
	}, nil
}
