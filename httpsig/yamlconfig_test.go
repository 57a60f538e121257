package httpsig

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadKeyConfigs(t *testing.T) {
	secret := base64.StdEncoding.EncodeToString([]byte("super-secret-value-for-testing"))
	doc := `
keys:
  - keyId: alice
    scheme: hs2019
    secret: ` + secret + `
  - keyId: bob
    scheme: hmac-sha256
    secret: ` + secret + `
`
	entries, err := LoadKeyConfigs(strings.NewReader(doc))
	require.NoError(t, err)
	require.Contains(t, entries, "alice")
	require.Contains(t, entries, "bob")

	assert.Equal(t, SchemeHS2019, entries["alice"].Scheme)
	assert.Equal(t, SchemeHMACSHA256, entries["bob"].Scheme)
	assert.Equal(t, []byte("super-secret-value-for-testing"), entries["alice"].Secret.Secret)
}

func TestLoadKeyConfigsRejectsBadSecret(t *testing.T) {
	doc := `
keys:
  - keyId: alice
    secret: "not-base64!!"
`
	_, err := LoadKeyConfigs(strings.NewReader(doc))
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}

func TestLoadKeyConfigsRejectsUnknownFields(t *testing.T) {
	doc := `
keys:
  - keyId: alice
    secret: aGVsbG8=
    unknownField: true
`
	_, err := LoadKeyConfigs(strings.NewReader(doc))
	assert.Error(t, err)
}

func TestLoadKeyConfigKeypairVariant(t *testing.T) {
	pub := base64.StdEncoding.EncodeToString([]byte("public-key-bytes"))
	doc := `
keyId: carol
type: keypair
scheme: rsa-sha256
publicKey: ` + pub + `
`
	keyID, entry, err := LoadKeyConfig(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, "carol", keyID)
	require.NotNil(t, entry.KeyPair)
	assert.Equal(t, []byte("public-key-bytes"), entry.KeyPair.PublicKey)
}

func TestLoadKeyConfigMissingKeyID(t *testing.T) {
	doc := `secret: aGVsbG8=`
	_, _, err := LoadKeyConfig(strings.NewReader(doc))
	assert.Error(t, err)
}
