package password

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Params is the Argon2id cost. MemoryKiB is in KiB as argon2.IDKey expects.
type Params struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// Policy bounds the length of new passwords.
type Policy struct {
	MinLength int
	MaxLength int
}

// Config is the single configuration surface for this package.
type Config struct {
	Params Params
	Policy Policy
}

// DefaultConfig returns the production baseline.
func DefaultConfig() Config {
	lanes := runtime.NumCPU()
	if lanes < 1 {
		lanes = 1
	}
	if lanes > 4 {
		lanes = 4
	}

	return Config{
		Params: Params{
			MemoryKiB:   64 * 1024,
			Iterations:  3,
			Parallelism: uint8(lanes), // #nosec G115 -- clamped to [1..4].
			SaltLength:  16,
			KeyLength:   32,
		},
		Policy: Policy{
			MinLength: 8,
			MaxLength: 256,
		},
	}
}

// Validate applies the length policy, counting runes rather than bytes.
func (c Config) Validate(password string) error {
	n := utf8.RuneCountInString(password)
	switch {
	case n < c.Policy.MinLength:
		return ErrPasswordTooShort
	case n > c.Policy.MaxLength:
		return ErrPasswordTooLong
	}
	return nil
}

type envBound struct {
	key      string
	min, max uint64
	set      func(*Config, uint64)
}

var envBounds = []envBound{
	{"LIFTLOG_PASSWORD_MIN_LEN", 1, 1024, func(c *Config, v uint64) { c.Policy.MinLength = int(v) }},
	{"LIFTLOG_PASSWORD_MAX_LEN", 1, 4096, func(c *Config, v uint64) { c.Policy.MaxLength = int(v) }},
	{"LIFTLOG_ARGON2_MEMORY_KIB", 8 * 1024, 1024 * 1024, func(c *Config, v uint64) { c.Params.MemoryKiB = uint32(v) }},
	{"LIFTLOG_ARGON2_ITERATIONS", 1, 20, func(c *Config, v uint64) { c.Params.Iterations = uint32(v) }},
	{"LIFTLOG_ARGON2_PARALLELISM", 1, 64, func(c *Config, v uint64) { c.Params.Parallelism = uint8(v) }},
	{"LIFTLOG_ARGON2_SALT_LEN", 8, 64, func(c *Config, v uint64) { c.Params.SaltLength = uint32(v) }},
	{"LIFTLOG_ARGON2_KEY_LEN", 16, 64, func(c *Config, v uint64) { c.Params.KeyLength = uint32(v) }},
}

// FromEnv overlays LIFTLOG_PASSWORD_* and LIFTLOG_ARGON2_* variables on DefaultConfig.
// Every failure wraps ErrConfig.
func FromEnv() (Config, error) {
	cfg := DefaultConfig()

	for _, b := range envBounds {
		raw, ok := os.LookupEnv(b.key)
		if !ok {
			continue
		}
		v, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 32)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %s: not an unsigned integer", ErrConfig, b.key)
		}
		if v < b.min || v > b.max {
			return Config{}, fmt.Errorf("%w: %s: out of range [%d..%d]", ErrConfig, b.key, b.min, b.max)
		}
		b.set(&cfg, v)
	}

	if cfg.Policy.MinLength > cfg.Policy.MaxLength {
		return Config{}, fmt.Errorf("%w: min_len(%d) > max_len(%d)", ErrConfig, cfg.Policy.MinLength, cfg.Policy.MaxLength)
	}
	return cfg, nil
}
