package password

import (
	"errors"
	"testing"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, b := range envBounds {
		unsetForTest(t, b.key)
	}

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv error: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestFromEnv_Override(t *testing.T) {
	t.Setenv("LIFTLOG_PASSWORD_MIN_LEN", "10")
	t.Setenv("LIFTLOG_PASSWORD_MAX_LEN", "200")
	t.Setenv("LIFTLOG_ARGON2_MEMORY_KIB", "32768")
	t.Setenv("LIFTLOG_ARGON2_ITERATIONS", "4")
	t.Setenv("LIFTLOG_ARGON2_PARALLELISM", "2")
	t.Setenv("LIFTLOG_ARGON2_SALT_LEN", "24")
	t.Setenv("LIFTLOG_ARGON2_KEY_LEN", "32")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv error: %v", err)
	}
	if cfg.Policy.MinLength != 10 || cfg.Policy.MaxLength != 200 {
		t.Fatalf("policy override failed: %+v", cfg.Policy)
	}
	want := Params{MemoryKiB: 32768, Iterations: 4, Parallelism: 2, SaltLength: 24, KeyLength: 32}
	if cfg.Params != want {
		t.Fatalf("argon2 override failed: %+v", cfg.Params)
	}
}

func TestFromEnv_Invalid(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
	}{
		{name: "min above max", env: map[string]string{"LIFTLOG_PASSWORD_MIN_LEN": "20", "LIFTLOG_PASSWORD_MAX_LEN": "10"}},
		{name: "memory too small", env: map[string]string{"LIFTLOG_ARGON2_MEMORY_KIB": "1024"}},
		{name: "not a number", env: map[string]string{"LIFTLOG_ARGON2_ITERATIONS": "three"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := FromEnv(); !errors.Is(err, ErrConfig) {
				t.Fatalf("expected ErrConfig, got %v", err)
			}
		})
	}
}
