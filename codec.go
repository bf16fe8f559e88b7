package grantkit

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strings"
	"unicode"

	"golang.org/x/crypto/pbkdf2"
)

// KeyStorageMode selects how role names are persisted on assignment rows.
type KeyStorageMode string

const (
	// KeyStoragePlain stores the snake_case role name as-is.
	KeyStoragePlain KeyStorageMode = "plain"

	// KeyStorageHashed stores an HMAC-SHA256 of the plain key under the
	// application secret. One-way; resolution hashes every registered role
	// and compares, so cost is bounded by registry size, not data size.
	KeyStorageHashed KeyStorageMode = "hashed"

	// KeyStorageEncrypted stores an AES-256-GCM ciphertext of the plain key
	// under the application secret. Reversible by decryption.
	KeyStorageEncrypted KeyStorageMode = "encrypted"
)

// Valid reports whether the mode is one of the recognized values.
func (m KeyStorageMode) Valid() bool {
	switch m {
	case KeyStoragePlain, KeyStorageHashed, KeyStorageEncrypted:
		return true
	}
	return false
}

// SecretProvider supplies the application secret used by the hashed and
// encrypted modes. Injected so tests can run with fixed secrets.
type SecretProvider interface {
	Secret() []byte
}

// StaticSecret is a SecretProvider backed by a fixed byte slice.
type StaticSecret []byte

// Secret implements SecretProvider.
func (s StaticSecret) Secret() []byte { return []byte(s) }

const (
	codecKeySalt   = "grantkit/keycodec/v1"
	codecNonceInfo = "grantkit/nonce/v1:"
	hashedKeyLen   = sha256.Size * 2 // hex-encoded
	gcmNonceLen    = 12
)

// CodecOption configures a KeyCodec.
type CodecOption func(*KeyCodec)

// WithPlainFallback makes encrypted-mode decoding fall back to plain-name
// resolution when decryption fails. This is a compatibility affordance for
// installations migrating from plain to encrypted storage; it is opt-in and
// still fails with a codec error when both paths miss.
func WithPlainFallback() CodecOption {
	return func(c *KeyCodec) { c.plainFallback = true }
}

// KeyCodec converts role descriptors to and from the persisted storage key
// under one of three mutually exclusive security modes.
type KeyCodec struct {
	mode          KeyStorageMode
	secret        SecretProvider
	plainFallback bool

	aead cipher.AEAD // prepared for encrypted mode
}

// NewKeyCodec creates a codec for the given mode. The hashed and encrypted
// modes require a non-empty secret; plain mode accepts a nil provider.
func NewKeyCodec(mode KeyStorageMode, secret SecretProvider, opts ...CodecOption) (*KeyCodec, error) {
	if !mode.Valid() {
		return nil, NewError(ErrInvalidConfig, "unknown key storage mode "+string(mode))
	}

	c := &KeyCodec{mode: mode, secret: secret}
	for _, opt := range opts {
		opt(c)
	}

	if mode == KeyStoragePlain {
		return c, nil
	}
	if secret == nil || len(secret.Secret()) == 0 {
		return nil, NewError(ErrInvalidConfig, "key storage mode "+string(mode)+" requires a secret")
	}

	if mode == KeyStorageEncrypted {
		key := pbkdf2.Key(secret.Secret(), []byte(codecKeySalt), 4096, 32, sha256.New)
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, NewError(ErrCodec, "cipher init: "+err.Error())
		}
		aead, err := cipher.NewGCM(block)
		if err != nil {
			return nil, NewError(ErrCodec, "gcm init: "+err.Error())
		}
		c.aead = aead
	}

	return c, nil
}

// Mode returns the active key storage mode.
func (c *KeyCodec) Mode() KeyStorageMode {
	return c.mode
}

// Encode computes the storage key for a role. Deterministic in every mode:
// the same role under the same secret always yields the same key, which the
// uniqueness constraint and equality lookups rely on.
func (c *KeyCodec) Encode(role Role) (string, error) {
	plain := plainKey(role.Name)
	switch c.mode {
	case KeyStoragePlain:
		return plain, nil
	case KeyStorageHashed:
		return c.hash(plain), nil
	case KeyStorageEncrypted:
		return c.encrypt(plain), nil
	}
	return "", NewError(ErrInvalidConfig, "unknown key storage mode "+string(c.mode))
}

// Decode resolves a storage key back to a role descriptor using the given
// registered roles. An identifier that is not even shaped like a storage key
// for the active mode is an unknown role name (ErrRoleNotFound); a plausible
// stored key that cannot be decoded signals a data-integrity problem
// (ErrCodec).
func (c *KeyCodec) Decode(key string, roles map[string]Role) (Role, error) {
	switch c.mode {
	case KeyStoragePlain:
		return matchPlain(key, roles)

	case KeyStorageHashed:
		if len(key) != hashedKeyLen || !isHex(key) {
			return Role{}, NewError(ErrRoleNotFound, "no registered role matches key").WithRole(key)
		}
		for _, role := range roles {
			if hmac.Equal([]byte(c.hash(plainKey(role.Name))), []byte(key)) {
				return role, nil
			}
		}
		return Role{}, NewError(ErrCodec, "hash matches no registered role")

	case KeyStorageEncrypted:
		raw, plausible := c.decodeCiphertext(key)
		if !plausible {
			if c.plainFallback {
				if role, err := matchPlain(key, roles); err == nil {
					return role, nil
				}
			}
			return Role{}, NewError(ErrRoleNotFound, "no registered role matches key").WithRole(key)
		}
		plain, err := c.aead.Open(nil, raw[:gcmNonceLen], raw[gcmNonceLen:], nil)
		if err != nil {
			if c.plainFallback {
				if role, ferr := matchPlain(key, roles); ferr == nil {
					return role, nil
				}
			}
			return Role{}, NewError(ErrCodec, "cannot decrypt key: "+err.Error())
		}
		role, err := matchPlain(string(plain), roles)
		if err != nil {
			return Role{}, NewError(ErrRoleNotFound, "decrypted key names an unregistered role").WithRole(string(plain))
		}
		return role, nil
	}

	return Role{}, NewError(ErrInvalidConfig, "unknown key storage mode "+string(c.mode))
}

func (c *KeyCodec) hash(plain string) string {
	mac := hmac.New(sha256.New, c.secret.Secret())
	mac.Write([]byte(plain))
	return hex.EncodeToString(mac.Sum(nil))
}

// encrypt seals the plain key with a synthetic nonce derived from the
// plaintext, SIV-style, so the ciphertext is stable across calls.
func (c *KeyCodec) encrypt(plain string) string {
	mac := hmac.New(sha256.New, c.secret.Secret())
	mac.Write([]byte(codecNonceInfo + plain))
	nonce := mac.Sum(nil)[:gcmNonceLen]

	sealed := c.aead.Seal(nil, nonce, []byte(plain), nil)
	return base64.RawURLEncoding.EncodeToString(append(nonce, sealed...))
}

// decodeCiphertext reports whether the key is even shaped like this codec's
// output: valid base64 carrying at least a nonce, the GCM tag, and one byte
// of payload. Plain role names never pass this bar.
func (c *KeyCodec) decodeCiphertext(key string) ([]byte, bool) {
	raw, err := base64.RawURLEncoding.DecodeString(key)
	if err != nil {
		return nil, false
	}
	if len(raw) <= gcmNonceLen+c.aead.Overhead() {
		return nil, false
	}
	return raw, true
}

func matchPlain(key string, roles map[string]Role) (Role, error) {
	for _, role := range roles {
		if plainKey(role.Name) == key {
			return role, nil
		}
	}
	return Role{}, NewError(ErrRoleNotFound, "no registered role matches key")
}

// plainKey normalizes a role name to its snake_case storage form.
// "SuperAdmin" -> "super_admin", "project manager" -> "project_manager".
func plainKey(name string) string {
	var b strings.Builder
	b.Grow(len(name) + 4)

	prevLower := false
	for _, r := range name {
		switch {
		case unicode.IsUpper(r):
			if prevLower {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			prevLower = false
		case r == ' ' || r == '-' || r == '.':
			b.WriteByte('_')
			prevLower = false
		default:
			b.WriteRune(r)
			prevLower = unicode.IsLower(r) || unicode.IsDigit(r)
		}
	}
	return b.String()
}

func isHex(s string) bool {
	_, err := hex.DecodeString(s)
	return err == nil
}
