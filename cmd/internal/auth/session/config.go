package session

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultSweepInterval is how often the cleanup task runs.
const DefaultSweepInterval = time.Hour

// Config is the runtime configuration of the session subsystem.
type Config struct {
	// EncodeSecret signs new tokens.
	EncodeSecret []byte

	// DecodeSecrets are accepted in addition to EncodeSecret when verifying,
	// so a previous signing secret can be retired gradually.
	DecodeSecrets [][]byte

	// CookieSecure sets the Secure attribute on the session cookie.
	CookieSecure bool

	// SweepInterval is the cleanup period.
	SweepInterval time.Duration
}

// DefaultConfig returns a Config with no secrets set.
func DefaultConfig() Config {
	return Config{SweepInterval: DefaultSweepInterval}
}

// LoadConfigFromEnv reads session configuration from the environment.
//
// Required:
//   - LIFTLOG_TOKEN_SECRET (at least MinSecretLen bytes)
//
// Optional:
//   - LIFTLOG_TOKEN_DECODE_SECRETS (comma separated)
//   - LIFTLOG_COOKIE_SECURE (bool)
//
// Errors wrap ErrConfig.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	secret := os.Getenv("LIFTLOG_TOKEN_SECRET")
	if secret == "" {
		return Config{}, fmt.Errorf("%w: LIFTLOG_TOKEN_SECRET is required", ErrConfig)
	}
	cfg.EncodeSecret = []byte(secret)

	for _, s := range strings.Split(os.Getenv("LIFTLOG_TOKEN_DECODE_SECRETS"), ",") {
		if s = strings.TrimSpace(s); s != "" {
			cfg.DecodeSecrets = append(cfg.DecodeSecrets, []byte(s))
		}
	}

	if v := os.Getenv("LIFTLOG_COOKIE_SECURE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("%w: LIFTLOG_COOKIE_SECURE: %v", ErrConfig, err)
		}
		cfg.CookieSecure = b
	}

	if _, err := cfg.Keys(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Keys builds the signing material: tokens are signed with EncodeSecret and
// verified against EncodeSecret followed by DecodeSecrets.
func (c Config) Keys() (Keys, error) {
	decode := append([][]byte{c.EncodeSecret}, c.DecodeSecrets...)
	return NewKeys(c.EncodeSecret, decode...)
}

// Cookies returns the cookie settings implied by c.
func (c Config) Cookies() Cookies {
	return Cookies{Secure: c.CookieSecure}
}
