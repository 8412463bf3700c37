package session

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLen is the minimum HMAC secret length in bytes.
const MinSecretLen = 32

// Keys is the immutable signing material shared by Encode and Decode.
// Tokens are signed with one secret and accepted under any of the decode
// secrets, which lets a deployment rotate the signing secret without logging
// everyone out.
type Keys struct {
	encode []byte
	decode [][]byte
}

// NewKeys copies its arguments. With no decode secrets the encode secret is
// the only one accepted.
func NewKeys(encode []byte, decode ...[]byte) (Keys, error) {
	if len(encode) < MinSecretLen {
		return Keys{}, fmt.Errorf("%w: encode secret shorter than %d bytes", ErrConfig, MinSecretLen)
	}
	if len(decode) == 0 {
		decode = [][]byte{encode}
	}

	k := Keys{encode: bytes.Clone(encode)}
	for i, d := range decode {
		if len(d) < MinSecretLen {
			return Keys{}, fmt.Errorf("%w: decode secret %d shorter than %d bytes", ErrConfig, i, MinSecretLen)
		}
		k.decode = append(k.decode, bytes.Clone(d))
	}
	return k, nil
}

// tokenClaims is the wire form: jti, exp, oid and (for users) uid.
type tokenClaims struct {
	OwnerID string  `json:"oid"`
	UserID  *string `json:"uid,omitempty"`
	jwt.RegisteredClaims
}

// Codec encodes Claims to HS256 JWTs and back. It holds no mutable state.
type Codec struct {
	keys   Keys
	now    func() time.Time
	parser *jwt.Parser
}

// CodecOption configures a Codec.
type CodecOption func(*Codec)

// WithClock overrides the clock used to validate expiry.
func WithClock(now func() time.Time) CodecOption {
	return func(c *Codec) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCodec builds a Codec over keys.
func NewCodec(keys Keys, opts ...CodecOption) *Codec {
	c := &Codec{keys: keys, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	c.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	return c
}

// Encode signs c. It only fails on an internal signing error.
func (c *Codec) Encode(cl Claims) (string, error) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		OwnerID: cl.OwnerID,
		UserID:  cl.UserID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        cl.ID,
			ExpiresAt: jwt.NewNumericDate(cl.ExpiresAt),
		},
	})

	s, err := tok.SignedString(c.keys.encode)
	if err != nil {
		return "", fmt.Errorf("session.Encode: %w", err)
	}
	return s, nil
}

// Decode verifies token and returns its claims. Every failure is a *DecodeError.
func (c *Codec) Decode(token string) (Claims, error) {
	var tc tokenClaims
	if _, err := c.parser.ParseWithClaims(token, &tc, c.verificationKeys); err != nil {
		return Claims{}, &DecodeError{Kind: classifyJWTError(err), Err: err}
	}

	if tc.ID == "" || tc.OwnerID == "" {
		return Claims{}, &DecodeError{Kind: DecodeUnauthorized, Err: jwt.ErrTokenRequiredClaimMissing}
	}

	return Claims{
		ID:        tc.ID,
		OwnerID:   tc.OwnerID,
		UserID:    tc.UserID,
		ExpiresAt: tc.ExpiresAt.Time.UTC(),
	}, nil
}

func (c *Codec) verificationKeys(*jwt.Token) (any, error) {
	if len(c.keys.decode) == 1 {
		return c.keys.decode[0], nil
	}
	set := jwt.VerificationKeySet{Keys: make([]jwt.VerificationKey, 0, len(c.keys.decode))}
	for _, k := range c.keys.decode {
		set.Keys = append(set.Keys, k)
	}
	return set, nil
}

func classifyJWTError(err error) DecodeKind {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed),
		errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return DecodeMalformed
	case errors.Is(err, jwt.ErrTokenExpired),
		errors.Is(err, jwt.ErrTokenNotValidYet),
		errors.Is(err, jwt.ErrTokenRequiredClaimMissing),
		errors.Is(err, jwt.ErrTokenInvalidClaims):
		return DecodeUnauthorized
	default:
		return DecodeOther
	}
}
