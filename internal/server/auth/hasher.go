// Package auth holds the stateless authentication primitives: password
// hashing, access token issue/verify and bearer header parsing.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/quizdeck/internal/common"
)

// PasswordHasher hashes and checks passwords.
type PasswordHasher interface {
	// Hash returns a salted hash of password. Two calls with the same
	// password return different strings.
	Hash(password string) (string, error)

	// Verify reports whether password matches hash. A malformed or
	// unsupported hash is a mismatch, never an error.
	Verify(password, hash string) bool

	// NeedsUpgrade reports whether hash should be replaced by a fresh Hash
	// of the same password after a successful Verify.
	NeedsUpgrade(hash string) bool
}

// Argon2Params are the argon2id cost parameters.
type Argon2Params struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
	SaltLen uint32
	KeyLen  uint32
}

// DefaultArgon2Params follow the OWASP recommendation for argon2id.
var DefaultArgon2Params = Argon2Params{
	Time:    1,
	Memory:  64 * 1024,
	Threads: 4,
	SaltLen: 16,
	KeyLen:  32,
}

// Hashes with parameters beyond these bounds are rejected unverified.
const (
	maxArgon2Memory = 1024 * 1024
	maxArgon2Time   = 16
	maxArgon2KeyLen = 128
)

const argon2idPrefix = "$argon2id$"

// Argon2idHasher writes argon2id PHC strings
// ($argon2id$v=19$m=65536,t=1,p=4$<salt>$<key>). It still verifies bcrypt
// hashes carried over from earlier deployments and flags them for upgrade.
type Argon2idHasher struct {
	params Argon2Params
}

func NewArgon2idHasher() *Argon2idHasher {
	return NewArgon2idHasherWithParams(DefaultArgon2Params)
}

func NewArgon2idHasherWithParams(p Argon2Params) *Argon2idHasher {
	return &Argon2idHasher{params: p}
}

func (h *Argon2idHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("%w: password cannot be empty", common.ErrorValidation)
	}

	salt := make([]byte, h.params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, h.params.Time, h.params.Memory, h.params.Threads, h.params.KeyLen)

	return fmt.Sprintf("%sv=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2idPrefix,
		argon2.Version,
		h.params.Memory,
		h.params.Time,
		h.params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func (h *Argon2idHasher) Verify(password, hash string) bool {
	if isBcrypt(hash) {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
	}

	p, salt, key, err := decodeArgon2id(hash)
	if err != nil {
		return false
	}

	computed := argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Threads, p.KeyLen)
	return subtle.ConstantTimeCompare(computed, key) == 1
}

// NeedsUpgrade is true for bcrypt hashes and for argon2id hashes made with
// different parameters than h uses.
func (h *Argon2idHasher) NeedsUpgrade(hash string) bool {
	p, salt, _, err := decodeArgon2id(hash)
	if err != nil {
		return true
	}
	return p.Time != h.params.Time ||
		p.Memory != h.params.Memory ||
		p.Threads != h.params.Threads ||
		p.KeyLen != h.params.KeyLen ||
		uint32(len(salt)) != h.params.SaltLen
}

var errMalformedHash = errors.New("malformed password hash")

func decodeArgon2id(hash string) (Argon2Params, []byte, []byte, error) {
	var p Argon2Params

	if !strings.HasPrefix(hash, argon2idPrefix) {
		return p, nil, nil, errMalformedHash
	}
	parts := strings.Split(hash, "$")
	if len(parts) != 6 {
		return p, nil, nil, errMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, nil, nil, errMalformedHash
	}

	var threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &threads); err != nil {
		return p, nil, nil, errMalformedHash
	}
	if threads == 0 || threads > 255 || p.Time == 0 || p.Time > maxArgon2Time || p.Memory == 0 || p.Memory > maxArgon2Memory {
		return p, nil, nil, errMalformedHash
	}
	p.Threads = uint8(threads)

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return p, nil, nil, errMalformedHash
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 || len(key) > maxArgon2KeyLen {
		return p, nil, nil, errMalformedHash
	}

	p.SaltLen = uint32(len(salt))
	p.KeyLen = uint32(len(key))
	return p, salt, key, nil
}

func isBcrypt(hash string) bool {
	return strings.HasPrefix(hash, "$2a$") || strings.HasPrefix(hash, "$2b$") || strings.HasPrefix(hash, "$2y$")
}
