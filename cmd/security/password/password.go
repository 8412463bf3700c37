package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const phcVersion = argon2.Version

var b64 = base64.RawStdEncoding

// phc is a decoded Argon2id hash string.
type phc struct {
	params Params
	salt   []byte
	key    []byte
}

// Hash validates password against the policy and returns its PHC encoding.
func (c Config) Hash(password string) (string, error) {
	if err := c.Validate(password); err != nil {
		return "", err
	}

	salt := make([]byte, c.Params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("salt: %w", err)
	}

	h := phc{
		params: c.Params,
		salt:   salt,
		key:    derive(password, salt, c.Params),
	}
	return h.String(), nil
}

// Verify reports whether password matches encodedHash.
// A mismatch is (false, nil); a hash that cannot be trusted is (false, ErrInvalidHash).
func (c Config) Verify(encodedHash, password string) (bool, error) {
	h, err := parsePHC(encodedHash)
	if err != nil {
		return false, err
	}
	if !h.params.within(c.Params) {
		return false, ErrInvalidHash
	}

	got := derive(password, h.salt, h.params)
	return subtle.ConstantTimeCompare(got, h.key) == 1, nil
}

func derive(password string, salt []byte, p Params) []byte {
	return argon2.IDKey([]byte(password), salt, p.Iterations, p.MemoryKiB, p.Parallelism, p.KeyLength)
}

// within accepts hashes made with older or cheaper settings but refuses
// anything more than twice as expensive as limits.
func (p Params) within(limits Params) bool {
	return p.MemoryKiB <= limits.MemoryKiB*2 &&
		p.Iterations <= limits.Iterations*2 &&
		p.Parallelism <= limits.Parallelism*2 &&
		p.SaltLength >= 8 && p.SaltLength <= 64 &&
		p.KeyLength >= 16 && p.KeyLength <= 128
}

func (h phc) String() string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		phcVersion,
		h.params.MemoryKiB,
		h.params.Iterations,
		h.params.Parallelism,
		b64.EncodeToString(h.salt),
		b64.EncodeToString(h.key),
	)
}

func parsePHC(encoded string) (phc, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return phc{}, ErrInvalidHash
	}
	if parts[2] != fmt.Sprintf("v=%d", phcVersion) {
		return phc{}, ErrInvalidHash
	}

	var mem, iter, lanes uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &iter, &lanes); err != nil {
		return phc{}, ErrInvalidHash
	}
	if mem == 0 || iter == 0 || lanes == 0 || lanes > 255 {
		return phc{}, ErrInvalidHash
	}

	salt, err := b64.DecodeString(parts[4])
	if err != nil {
		return phc{}, ErrInvalidHash
	}
	key, err := b64.DecodeString(parts[5])
	if err != nil {
		return phc{}, ErrInvalidHash
	}

	return phc{
		params: Params{
			MemoryKiB:   mem,
			Iterations:  iter,
			Parallelism: uint8(lanes),      // #nosec G115 -- checked above.
			SaltLength:  uint32(len(salt)), // #nosec G115 -- bounded by within().
			KeyLength:   uint32(len(key)),  // #nosec G115 -- bounded by within().
		},
		salt: salt,
		key:  key,
	}, nil
}
