package config

import "time"

const (
	apiBaseURLVar     = "API_BASE_URL"
	requestTimeoutVar = "REQUEST_TIMEOUT"
	rateLimitVar      = "API_RATE_LIMIT"
	rateBurstVar      = "API_RATE_BURST"
)

type API struct {
	file *fileValues
}

var _ APIConfig = API{}

func (a API) GetAPIBaseURL() string {
	return GetEnv(apiBaseURLVar, a.file.or(a.file.API.BaseURL, "http://localhost:8080/api/v1"))
}

// GetRequestTimeout bounds every HTTP request; requests fail rather than hang.
func (a API) GetRequestTimeout() time.Duration {
	return getDuration(requestTimeoutVar, a.file.duration(a.file.API.Timeout, 15*time.Second))
}

// GetRateLimit is the sustained number of API requests per second.
func (a API) GetRateLimit() float64 {
	def := 10.0
	if a.file != nil && a.file.API.RateLimit > 0 {
		def = a.file.API.RateLimit
	}
	return getFloat(rateLimitVar, def)
}

func (a API) GetRateBurst() int {
	def := 20
	if a.file != nil && a.file.API.RateBurst > 0 {
		def = a.file.API.RateBurst
	}
	return getInt(rateBurstVar, def)
}
