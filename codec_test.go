package grantkit

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCodec(t *testing.T, mode KeyStorageMode, opts ...CodecOption) *KeyCodec {
	t.Helper()

	var secret SecretProvider
	if mode != KeyStoragePlain {
		secret = StaticSecret("grantkit-test-secret")
	}
	codec, err := NewKeyCodec(mode, secret, opts...)
	require.NoError(t, err)
	return codec
}

func rolesByName(roles ...Role) map[string]Role {
	m := make(map[string]Role, len(roles))
	for _, r := range roles {
		m[r.Name] = r
	}
	return m
}

func TestNewKeyCodecValidation(t *testing.T) {
	_, err := NewKeyCodec("scrambled", nil)
	assert.Error(t, err)

	_, err = NewKeyCodec(KeyStorageHashed, nil)
	assert.Error(t, err, "hashed mode requires a secret")

	_, err = NewKeyCodec(KeyStorageEncrypted, StaticSecret(""))
	assert.Error(t, err, "empty secret must be rejected")

	_, err = NewKeyCodec(KeyStoragePlain, nil)
	assert.NoError(t, err, "plain mode needs no secret")
}

func TestCodecRoundTripAllModes(t *testing.T) {
	roles := rolesByName(testRoles()...)

	for _, mode := range []KeyStorageMode{KeyStoragePlain, KeyStorageHashed, KeyStorageEncrypted} {
		t.Run(string(mode), func(t *testing.T) {
			codec := testCodec(t, mode)

			for _, role := range roles {
				key, err := codec.Encode(role)
				require.NoError(t, err)

				decoded, err := codec.Decode(key, roles)
				require.NoError(t, err, "decode(encode(%s))", role.Name)
				assert.Equal(t, role, decoded)
			}
		})
	}
}

func TestCodecPlainKeyIsSnakeCase(t *testing.T) {
	codec := testCodec(t, KeyStoragePlain)

	key, err := codec.Encode(Role{Name: "SuperAdmin", Level: 1})
	require.NoError(t, err)
	assert.Equal(t, "super_admin", key)

	key, err = codec.Encode(Role{Name: "project manager", Level: 2})
	require.NoError(t, err)
	assert.Equal(t, "project_manager", key)
}

func TestCodecHashedKeyHidesName(t *testing.T) {
	codec := testCodec(t, KeyStorageHashed)

	key, err := codec.Encode(Role{Name: "admin", Level: 90})
	require.NoError(t, err)
	assert.NotEqual(t, "admin", key)
	assert.Len(t, key, 64)
	assert.NotContains(t, key, "admin")

	// Deterministic: same role, same secret, same hash.
	again, err := codec.Encode(Role{Name: "admin", Level: 90})
	require.NoError(t, err)
	assert.Equal(t, key, again)
}

func TestCodecHashedDependsOnSecret(t *testing.T) {
	a, err := NewKeyCodec(KeyStorageHashed, StaticSecret("secret-a"))
	require.NoError(t, err)
	b, err := NewKeyCodec(KeyStorageHashed, StaticSecret("secret-b"))
	require.NoError(t, err)

	role := Role{Name: "admin", Level: 90}
	keyA, _ := a.Encode(role)
	keyB, _ := b.Encode(role)
	assert.NotEqual(t, keyA, keyB)
}

func TestCodecEncryptedIsDeterministic(t *testing.T) {
	codec := testCodec(t, KeyStorageEncrypted)
	role := Role{Name: "editor", Level: 50}

	first, err := codec.Encode(role)
	require.NoError(t, err)
	second, err := codec.Encode(role)
	require.NoError(t, err)

	assert.Equal(t, first, second, "equality lookups rely on stable ciphertexts")
	assert.NotContains(t, first, "editor")
}

func TestCodecErrorTaxonomy(t *testing.T) {
	roles := rolesByName(testRoles()...)

	t.Run("hashed unregistered name is role not found", func(t *testing.T) {
		codec := testCodec(t, KeyStorageHashed)

		// A plain role name is never shaped like a stored hash, so this is
		// a usage error, not a data-integrity one.
		_, err := codec.Decode("ghost", roles)
		assert.True(t, IsRoleNotFound(err))
		assert.False(t, IsCodecError(err))
	})

	t.Run("hashed unrecognized hash is a codec error", func(t *testing.T) {
		codec := testCodec(t, KeyStorageHashed)

		// Well-formed hash of a role that was never registered.
		ghost, err := codec.Encode(Role{Name: "ghost", Level: 1})
		require.NoError(t, err)

		_, err = codec.Decode(ghost, roles)
		assert.True(t, IsCodecError(err))
		assert.False(t, IsRoleNotFound(err))
	})

	t.Run("encrypted unregistered name is role not found", func(t *testing.T) {
		codec := testCodec(t, KeyStorageEncrypted)

		_, err := codec.Decode("ghost", roles)
		assert.True(t, IsRoleNotFound(err))
		assert.False(t, IsCodecError(err))
	})

	t.Run("encrypted corrupted ciphertext is a codec error", func(t *testing.T) {
		codec := testCodec(t, KeyStorageEncrypted)

		key, err := codec.Encode(Role{Name: "admin", Level: 90})
		require.NoError(t, err)

		corrupted := key[:len(key)-4] + "AAAA"
		_, err = codec.Decode(corrupted, roles)
		assert.True(t, IsCodecError(err))
	})

	t.Run("encrypted unregistered plaintext is role not found", func(t *testing.T) {
		codec := testCodec(t, KeyStorageEncrypted)

		ghost, err := codec.Encode(Role{Name: "ghost", Level: 1})
		require.NoError(t, err)

		_, err = codec.Decode(ghost, roles)
		assert.True(t, IsRoleNotFound(err))
	})
}

func TestCodecEncryptedPlainFallback(t *testing.T) {
	roles := rolesByName(testRoles()...)

	t.Run("disabled by default", func(t *testing.T) {
		codec := testCodec(t, KeyStorageEncrypted)

		_, err := codec.Decode("admin", roles)
		assert.Error(t, err, "a raw plain name must not resolve without opt-in")
	})

	t.Run("opt-in resolves plain names", func(t *testing.T) {
		codec := testCodec(t, KeyStorageEncrypted, WithPlainFallback())

		role, err := codec.Decode("admin", roles)
		require.NoError(t, err)
		assert.Equal(t, "admin", role.Name)
	})

	t.Run("opt-in still fails when both paths miss", func(t *testing.T) {
		codec := testCodec(t, KeyStorageEncrypted, WithPlainFallback())

		_, err := codec.Decode("ghost", roles)
		assert.True(t, IsRoleNotFound(err), "not a ciphertext and not a registered name")

		key, err := codec.Encode(Role{Name: "admin", Level: 90})
		require.NoError(t, err)
		corrupted := key[:len(key)-4] + "AAAA"
		_, err = codec.Decode(corrupted, roles)
		assert.True(t, IsCodecError(err), "undecryptable ciphertext with no plain match")
	})
}

func TestPlainKeyNormalization(t *testing.T) {
	cases := map[string]string{
		"admin":           "admin",
		"SuperAdmin":      "super_admin",
		"Project Manager": "project_manager",
		"team-lead":       "team_lead",
		"billing.read":    "billing_read",
		"HTTPOperator":    "httpoperator",
	}
	for in, want := range cases {
		assert.Equal(t, want, plainKey(in), "plainKey(%q)", in)
	}
}

func TestCodecEncryptedKeyIsURLSafe(t *testing.T) {
	codec := testCodec(t, KeyStorageEncrypted)

	key, err := codec.Encode(Role{Name: "owner", Level: 100})
	require.NoError(t, err)
	assert.False(t, strings.ContainsAny(key, "+/= "), "key %q must be URL-safe", key)
}
