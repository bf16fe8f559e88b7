package grantkit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, string(StrategyReplace), cfg.Strategy)
	assert.Equal(t, string(KeyStoragePlain), cfg.KeyStorage)
	assert.False(t, cfg.MultitenancyEnabled)
	assert.False(t, cfg.CacheEnabled)
	assert.Equal(t, time.Minute, cfg.CheckTTL)
	assert.Equal(t, 30*time.Second, cfg.ListingTTL)
	assert.Equal(t, string(IDFormatUUID), cfg.IDFormat)
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("GRANTKIT_STRATEGY", "add")
	t.Setenv("GRANTKIT_KEY_STORAGE", "hashed")
	t.Setenv("GRANTKIT_SECRET", "s3cret")
	t.Setenv("GRANTKIT_MULTITENANCY_ENABLED", "true")
	t.Setenv("GRANTKIT_MULTITENANCY_AUTO_SCOPE", "true")
	t.Setenv("GRANTKIT_CHECK_TTL", "5m")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "add", cfg.Strategy)
	assert.Equal(t, "hashed", cfg.KeyStorage)
	assert.True(t, cfg.MultitenancyAutoScope)
	assert.Equal(t, 5*time.Minute, cfg.CheckTTL)
}

func TestConfigValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Strategy:   "replace",
			KeyStorage: "plain",
			CheckTTL:   time.Minute,
			ListingTTL: time.Minute,
			IDFormat:   "uuid",
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, base().Validate())
	})

	t.Run("unknown strategy", func(t *testing.T) {
		cfg := base()
		cfg.Strategy = "merge"
		assert.Error(t, cfg.Validate())
	})

	t.Run("unknown key storage", func(t *testing.T) {
		cfg := base()
		cfg.KeyStorage = "rot13"
		assert.Error(t, cfg.Validate())
	})

	t.Run("secured mode without secret", func(t *testing.T) {
		cfg := base()
		cfg.KeyStorage = "encrypted"
		assert.Error(t, cfg.Validate())

		cfg.Secret = "s3cret"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("fallback outside encrypted mode", func(t *testing.T) {
		cfg := base()
		cfg.EncryptedPlainFallback = true
		assert.Error(t, cfg.Validate())
	})

	t.Run("auto scope without multitenancy", func(t *testing.T) {
		cfg := base()
		cfg.MultitenancyAutoScope = true
		assert.Error(t, cfg.Validate())
	})

	t.Run("unknown id format", func(t *testing.T) {
		cfg := base()
		cfg.IDFormat = "snowflake"
		assert.Error(t, cfg.Validate())
	})
}

func TestConfigCodec(t *testing.T) {
	cfg := &Config{KeyStorage: "hashed", Secret: "s3cret"}
	codec, err := cfg.Codec()
	require.NoError(t, err)
	assert.Equal(t, KeyStorageHashed, codec.Mode())

	cfg = &Config{KeyStorage: "encrypted", Secret: "s3cret", EncryptedPlainFallback: true}
	codec, err = cfg.Codec()
	require.NoError(t, err)
	assert.True(t, codec.plainFallback)
}

func TestConfigTTLs(t *testing.T) {
	cfg := &Config{CheckTTL: time.Minute, ListingTTL: 15 * time.Second}
	ttls := cfg.TTLs()

	assert.Equal(t, time.Minute, ttls[OpHasRole])
	assert.Equal(t, time.Minute, ttls[OpRoleOn])
	assert.Equal(t, 15*time.Second, ttls[OpParticipants])
	assert.Equal(t, 15*time.Second, ttls[OpAssignedTargets])
}
