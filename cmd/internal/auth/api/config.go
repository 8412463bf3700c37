package authapi

import (
	"os"
	"strconv"
	"strings"
)

// Config controls auth API behavior.
type Config struct {
	// TrustProxy makes login logs take the client address from
	// X-Forwarded-For / X-Real-IP.
	TrustProxy bool
}

// LoadConfigFromEnv loads auth config from environment variables with safe defaults.
func LoadConfigFromEnv() Config {
	return Config{
		TrustProxy: envBool("LIFTLOG_AUTH_TRUST_PROXY", false),
	}
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
