package httpsig

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKeyManagerValidation(t *testing.T) {
	t.Run("rejects unsupported version", func(t *testing.T) {
		_, err := NewKeyManager("some-other-draft", KeyManagerConfig{
			FixedKeyID: "k",
			FixedKey:   &KeyEntry{Secret: &SecretKeyConfig{Secret: []byte("x")}},
		})
		assert.ErrorIs(t, err, ErrUnsupportedVersion)
	})

	t.Run("rejects neither fixed key nor lookup", func(t *testing.T) {
		_, err := NewKeyManager("draft-cavage-http-signatures-12", KeyManagerConfig{})
		assert.ErrorIs(t, err, ErrManagerMisconfigured)
	})

	t.Run("rejects both fixed key and lookup", func(t *testing.T) {
		_, err := NewKeyManager("draft-cavage-http-signatures-12", KeyManagerConfig{
			FixedKeyID: "k",
			FixedKey:   &KeyEntry{Secret: &SecretKeyConfig{Secret: []byte("x")}},
			Lookup: func(context.Context, string) (*KeyEntry, bool, error) {
				return nil, false, nil
			},
		})
		assert.ErrorIs(t, err, ErrManagerMisconfigured)
	})
}

func TestSchemeCoercion(t *testing.T) {
	secret := []byte("super-secret-value-for-testing-only")

	t.Run("hs2019 defaults digest to sha-256", func(t *testing.T) {
		m := testManager(t, SchemeHS2019, secret)
		key, err := m.GetKey(context.Background(), "test")
		require.NoError(t, err)
		assert.Equal(t, DigestSHA256, key.digestAlg)
		assert.False(t, key.Deprecated())
	})

	t.Run("empty scheme coerces to hs2019", func(t *testing.T) {
		m := testManager(t, "", secret)
		key, err := m.GetKey(context.Background(), "test")
		require.NoError(t, err)
		assert.Equal(t, SchemeHS2019, key.scheme)
	})

	t.Run("hmac-sha256 forces sha-256 digest and is deprecated", func(t *testing.T) {
		m := testManager(t, SchemeHMACSHA256, secret)
		key, err := m.GetKey(context.Background(), "test")
		require.NoError(t, err)
		assert.Equal(t, DigestSHA256, key.digestAlg)
		assert.True(t, key.Deprecated())
	})

	t.Run("rsa-sha256 is reserved, not implemented", func(t *testing.T) {
		m := testManager(t, SchemeRSASHA256, secret)
		_, err := m.GetKey(context.Background(), "test")
		assert.ErrorIs(t, err, ErrKeyPairUnsupported)
	})

	t.Run("ecdsa-sha256 is reserved, not implemented", func(t *testing.T) {
		m := testManager(t, SchemeECDSASHA256, secret)
		_, err := m.GetKey(context.Background(), "test")
		assert.ErrorIs(t, err, ErrKeyPairUnsupported)
	})

	t.Run("unknown scheme is rejected", func(t *testing.T) {
		m := testManager(t, SignatureScheme("rot13"), secret)
		_, err := m.GetKey(context.Background(), "test")
		assert.ErrorIs(t, err, ErrUnknownScheme)
	})

	t.Run("missing secret is rejected", func(t *testing.T) {
		m, err := NewKeyManager("draft-cavage-http-signatures-12", KeyManagerConfig{
			FixedKeyID: "test",
			FixedKey:   &KeyEntry{Scheme: SchemeHS2019},
		})
		require.NoError(t, err)
		_, err = m.GetKey(context.Background(), "test")
		assert.ErrorIs(t, err, ErrSecretRequired)
	})
}

func TestKeyManagerLookup(t *testing.T) {
	entries := map[string]*KeyEntry{
		"alice": {Scheme: SchemeHS2019, Secret: &SecretKeyConfig{Secret: []byte("alice-secret-value-long-enough")}},
	}

	m, err := NewKeyManager("draft-cavage-http-signatures-12", KeyManagerConfig{
		Lookup: func(_ context.Context, keyID string) (*KeyEntry, bool, error) {
			entry, ok := entries[keyID]
			return entry, ok, nil
		},
	})
	require.NoError(t, err)

	t.Run("found key resolves", func(t *testing.T) {
		key, err := m.GetKey(context.Background(), "alice")
		require.NoError(t, err)
		assert.Equal(t, "alice", key.ID())
	})

	t.Run("unknown key reports not found", func(t *testing.T) {
		_, err := m.GetKey(context.Background(), "bob")
		assert.ErrorIs(t, err, ErrKeyNotFound)

		_, ok, err := m.TryGetKey(context.Background(), "bob")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("cancelled context aborts lookup", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := m.GetKey(ctx, "alice")
		var cfgErr *ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
	})
}

func TestKeyManagerAuditFunc(t *testing.T) {
	var events []AuditEvent
	m, err := NewKeyManager("draft-cavage-http-signatures-12", KeyManagerConfig{
		FixedKeyID: "test",
		FixedKey:   &KeyEntry{Scheme: SchemeHS2019, Secret: &SecretKeyConfig{Secret: []byte("super-secret-value-for-testing")}},
		AuditFunc: func(e AuditEvent) {
			events = append(events, e)
		},
	})
	require.NoError(t, err)

	_, err = m.GetKey(context.Background(), "test")
	require.NoError(t, err)

	require.Len(t, events, 1)
	assert.Equal(t, "test", events[0].KeyID)
	assert.NotEmpty(t, events[0].LookupID)
	assert.WithinDuration(t, time.Now(), events[0].At, time.Minute)
}

func TestPerKeyOptionOverride(t *testing.T) {
	responseHeaders := map[string]HeaderMode{"x-custom": HeaderBoth}
	m, err := NewKeyManager("draft-cavage-http-signatures-12", KeyManagerConfig{
		FixedKeyID: "test",
		FixedKey: &KeyEntry{
			Scheme: SchemeHS2019,
			Secret: &SecretKeyConfig{Secret: []byte("super-secret-value-for-testing")},
			Options: &SignatureOptions{
				ResponseHeaders: responseHeaders,
			},
		},
	})
	require.NoError(t, err)

	key, err := m.GetKey(context.Background(), "test")
	require.NoError(t, err)
	assert.Equal(t, responseHeaders, key.options.ResponseHeaders)
	// RequestHeaders was not overridden, so it still carries the manager's base.
	assert.Contains(t, key.options.RequestHeaders, "host")
}
