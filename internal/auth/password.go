// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Latchkey Contributors

package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
)

// Argon2Params controls the cost of argon2id hashing.
type Argon2Params struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultArgon2Params are the OWASP minimum argon2id settings
// (19 MiB, two passes, one lane).
var DefaultArgon2Params = Argon2Params{
	MemoryKiB:   19 * 1024,
	Iterations:  2,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

// Upper bounds on the cost accepted from a stored hash. A corrupt row
// must fail verification, not allocate without limit.
const (
	MaxArgon2MemoryKiB  = 1 << 20 // 1 GiB
	MaxArgon2Iterations = 64
)

// ErrEmptyPassword is returned when attempting to hash an empty password.
var ErrEmptyPassword = oops.Code("AUTH_EMPTY_PASSWORD").Errorf("password cannot be empty")

// PasswordHasher provides password hashing and verification.
type PasswordHasher interface {
	// Hash produces a self-describing hash string for the password.
	Hash(password string) (string, error)

	// Verify checks if the password matches the hash.
	// Returns (true, nil) on match, (false, nil) on mismatch, or error on invalid hash.
	Verify(password, encodedHash string) (bool, error)
}

// Argon2idHasher implements PasswordHasher using argon2id and PHC strings.
type Argon2idHasher struct {
	params Argon2Params
}

// NewArgon2idHasher creates a hasher with DefaultArgon2Params.
func NewArgon2idHasher() *Argon2idHasher {
	return &Argon2idHasher{params: DefaultArgon2Params}
}

// NewArgon2idHasherWithParams creates a hasher with custom cost settings.
// Zero fields fall back to the defaults.
func NewArgon2idHasherWithParams(p Argon2Params) *Argon2idHasher {
	if p.MemoryKiB == 0 {
		p.MemoryKiB = DefaultArgon2Params.MemoryKiB
	}
	if p.Iterations == 0 {
		p.Iterations = DefaultArgon2Params.Iterations
	}
	if p.Parallelism == 0 {
		p.Parallelism = DefaultArgon2Params.Parallelism
	}
	if p.SaltLength == 0 {
		p.SaltLength = DefaultArgon2Params.SaltLength
	}
	if p.KeyLength == 0 {
		p.KeyLength = DefaultArgon2Params.KeyLength
	}
	return &Argon2idHasher{params: p}
}

// Hash produces an argon2id hash in PHC format:
//
//	$argon2id$v=19$m=19456,t=2,p=1$<salt>$<key>
func (h *Argon2idHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	salt := make([]byte, h.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", oops.Code("AUTH_SALT_FAILED").Wrap(err)
	}

	key := argon2.IDKey([]byte(password), salt, h.params.Iterations, h.params.MemoryKiB, h.params.Parallelism, h.params.KeyLength)

	return encodePHC(phc{
		version: argon2.Version,
		params: Argon2Params{
			MemoryKiB:   h.params.MemoryKiB,
			Iterations:  h.params.Iterations,
			Parallelism: h.params.Parallelism,
		},
		salt: salt,
		key:  key,
	}), nil
}

// Verify recomputes the hash with the parameters and salt embedded in
// encodedHash and compares in constant time.
func (h *Argon2idHasher) Verify(password, encodedHash string) (bool, error) {
	decoded, err := decodePHC(encodedHash)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey([]byte(password), decoded.salt,
		decoded.params.Iterations, decoded.params.MemoryKiB, decoded.params.Parallelism, uint32(len(decoded.key)))

	return subtle.ConstantTimeCompare(computed, decoded.key) == 1, nil
}

// phc is a parsed argon2id PHC string.
type phc struct {
	version int
	params  Argon2Params
	salt    []byte
	key     []byte
}

func encodePHC(p phc) string {
	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		p.version,
		p.params.MemoryKiB,
		p.params.Iterations,
		p.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(p.salt),
		base64.RawStdEncoding.EncodeToString(p.key),
	)
}

func decodePHC(encoded string) (phc, error) {
	invalid := oops.Code("AUTH_INVALID_HASH")

	// "", "argon2id", "v=19", "m=...,t=...,p=...", salt, key
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return phc{}, invalid.Errorf("invalid hash format")
	}
	if parts[1] != "argon2id" {
		return phc{}, invalid.Errorf("unsupported hash algorithm: %s", parts[1])
	}

	var out phc
	if _, err := fmt.Sscanf(parts[2], "v=%d", &out.version); err != nil {
		return phc{}, invalid.With("field", "version").Wrap(err)
	}
	if out.version != argon2.Version {
		return phc{}, invalid.Errorf("unsupported argon2 version: %d", out.version)
	}

	var memory, iterations, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &threads); err != nil {
		return phc{}, invalid.With("field", "params").Wrap(err)
	}
	if memory == 0 || iterations == 0 || threads == 0 || threads > 255 ||
		memory > MaxArgon2MemoryKiB || iterations > MaxArgon2Iterations {
		return phc{}, invalid.Errorf("invalid argon2 parameters m=%d,t=%d,p=%d", memory, iterations, threads)
	}
	out.params = Argon2Params{MemoryKiB: memory, Iterations: iterations, Parallelism: uint8(threads)}

	var err error
	if out.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return phc{}, invalid.With("field", "salt").Wrap(err)
	}
	if out.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return phc{}, invalid.With("field", "key").Wrap(err)
	}
	if len(out.key) == 0 || len(out.key) > 1024 {
		return phc{}, invalid.Errorf("invalid hash key length: %d", len(out.key))
	}

	return out, nil
}
