package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	configFileVar = "DOCHUB_CONFIG"
	appNameVar    = "APP_NAME"
	folderEnvVar  = "DATA_FOLDER"
	logLevelVar   = "LOG_LEVEL"
)

type EnvVars struct {
	file *fileValues
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetAppName() string {
	return GetEnv(appNameVar, e.file.or(e.file.AppName, "DocHub"))
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

// GetDataFolder returns where session state is persisted. Defaults to
// <user config dir>/dochub, or ./data when the OS has no config dir.
func (e EnvVars) GetDataFolder() string {
	return GetEnv(folderEnvVar, e.file.or(e.file.DataFolder, defaultDataFolder()))
}

func (e EnvVars) GetLogLevel() string {
	return strings.ToLower(GetEnv(logLevelVar, e.file.or(e.file.LogLevel, "info")))
}

func defaultDataFolder() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return "./data"
	}
	return filepath.Join(dir, "dochub")
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

func getDuration(envVar string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(envVar))
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}

func getFloat(envVar string, defaultValue float64) float64 {
	value := strings.TrimSpace(os.Getenv(envVar))
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return f
}

func getInt(envVar string, defaultValue int) int {
	value := strings.TrimSpace(os.Getenv(envVar))
	if value == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return i
}
