package grantkit

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Strategy governs how many roles a subject may hold per target.
type Strategy string

const (
	// StrategyReplace keeps at most one role per (subject, target) pair;
	// assigning a new role atomically replaces any prior one.
	StrategyReplace Strategy = "replace"

	// StrategyAdd permits multiple distinct roles per pair; assigning a
	// role the subject already holds is a no-op.
	StrategyAdd Strategy = "add"
)

// Valid reports whether the strategy is one of the recognized values.
func (s Strategy) Valid() bool {
	return s == StrategyReplace || s == StrategyAdd
}

// OpKind names a cacheable read operation. Cache TTLs are configured per
// kind so role checks can expire independently of listings.
type OpKind string

const (
	OpHasRole         OpKind = "has_role"
	OpHasAnyRole      OpKind = "has_any_role"
	OpRoleOn          OpKind = "role_on"
	OpParticipants    OpKind = "participants"
	OpAssignedTargets OpKind = "assigned_targets"
)

// IDFormat documents the identifier format a deployment uses. Informational
// only: the engine treats every ID as an opaque string.
type IDFormat string

const (
	IDFormatInteger IDFormat = "integer"
	IDFormatUUID    IDFormat = "uuid"
	IDFormatULID    IDFormat = "ulid"
)

// Config holds runtime configuration for the engine. Environment variables
// use the GRANTKIT_ prefix, e.g. GRANTKIT_STRATEGY=add.
type Config struct {
	Strategy   string `envconfig:"STRATEGY" default:"replace"`
	KeyStorage string `envconfig:"KEY_STORAGE" default:"plain"`
	Secret     string `envconfig:"SECRET"`

	// EncryptedPlainFallback enables plain-name resolution when encrypted
	// keys fail to decrypt, for installations migrating between modes.
	EncryptedPlainFallback bool `envconfig:"ENCRYPTED_PLAIN_FALLBACK" default:"false"`

	MultitenancyEnabled   bool `envconfig:"MULTITENANCY_ENABLED" default:"false"`
	MultitenancyAutoScope bool `envconfig:"MULTITENANCY_AUTO_SCOPE" default:"false"`

	CacheEnabled bool   `envconfig:"CACHE_ENABLED" default:"false"`
	RedisAddr    string `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`

	CheckTTL   time.Duration `envconfig:"CHECK_TTL" default:"1m"`
	ListingTTL time.Duration `envconfig:"LISTING_TTL" default:"30s"`

	IDFormat string `envconfig:"ID_FORMAT" default:"uuid"`
}

// LoadConfig reads configuration from GRANTKIT_-prefixed environment
// variables and validates it.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("grantkit", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks option values and their combinations.
func (c *Config) Validate() error {
	if !Strategy(c.Strategy).Valid() {
		return NewError(ErrInvalidConfig, "unknown assignment strategy "+c.Strategy)
	}
	mode := KeyStorageMode(c.KeyStorage)
	if !mode.Valid() {
		return NewError(ErrInvalidConfig, "unknown key storage mode "+c.KeyStorage)
	}
	if mode != KeyStoragePlain && c.Secret == "" {
		return NewError(ErrInvalidConfig, "key storage mode "+c.KeyStorage+" requires GRANTKIT_SECRET")
	}
	if c.EncryptedPlainFallback && mode != KeyStorageEncrypted {
		return NewError(ErrInvalidConfig, "plain fallback only applies to encrypted key storage")
	}
	if c.MultitenancyAutoScope && !c.MultitenancyEnabled {
		return NewError(ErrInvalidConfig, "auto scope requires multitenancy to be enabled")
	}
	switch IDFormat(c.IDFormat) {
	case IDFormatInteger, IDFormatUUID, IDFormatULID:
	default:
		return NewError(ErrInvalidConfig, "unknown id format "+c.IDFormat)
	}
	return nil
}

// Codec builds the key codec described by the configuration.
func (c *Config) Codec() (*KeyCodec, error) {
	var opts []CodecOption
	if c.EncryptedPlainFallback {
		opts = append(opts, WithPlainFallback())
	}
	var secret SecretProvider
	if c.Secret != "" {
		secret = StaticSecret(c.Secret)
	}
	return NewKeyCodec(KeyStorageMode(c.KeyStorage), secret, opts...)
}

// TTLs returns the per-operation cache TTL mapping.
func (c *Config) TTLs() map[OpKind]time.Duration {
	return map[OpKind]time.Duration{
		OpHasRole:         c.CheckTTL,
		OpHasAnyRole:      c.CheckTTL,
		OpRoleOn:          c.CheckTTL,
		OpParticipants:    c.ListingTTL,
		OpAssignedTargets: c.ListingTTL,
	}
}
