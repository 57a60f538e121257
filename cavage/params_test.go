package cavage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValid(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("minimal signature defaults headers to (created)", func(t *testing.T) {
		raw := `keyId="test",signature="3UqQIVxNJfNm8E54n35RReP9Nv05a9dEZTxr/deog3g="`
		ps, err := Parse(raw, now)
		require.NoError(t, err)
		assert.Equal(t, "test", ps.KeyID)
		assert.Equal(t, []string{"(created)"}, ps.Headers)
		assert.False(t, ps.HasCreated)
		assert.False(t, ps.HasExpires)
	})

	t.Run("full parameter set with created and expires", func(t *testing.T) {
		raw := `keyId="test",algorithm="hs2019",headers="(request-target) host (created) (expires) digest",created=0,expires=1999999999,signature="3UqQIVxNJfNm8E54n35RReP9Nv05a9dEZTxr/deog3g="`
		ps, err := Parse(raw, now)
		require.NoError(t, err)
		assert.Equal(t, "hs2019", ps.Algorithm)
		assert.Equal(t, []string{"(request-target)", "host", "(created)", "(expires)", "digest"}, ps.Headers)
		require.True(t, ps.HasCreated)
		require.True(t, ps.HasExpires)
		assert.Equal(t, int64(0), ps.Created.Unix())
		assert.Equal(t, int64(1999999999), ps.Expires.Unix())
	})

	t.Run("unknown parameter is tolerated", func(t *testing.T) {
		raw := `keyId="test",nonce="abc",signature="3UqQIVxNJfNm8E54n35RReP9Nv05a9dEZTxr/deog3g="`
		_, err := Parse(raw, now)
		assert.NoError(t, err)
	})

	t.Run("fractional expires", func(t *testing.T) {
		raw := `keyId="test",expires=1999999999.5,signature="3UqQIVxNJfNm8E54n35RReP9Nv05a9dEZTxr/deog3g="`
		ps, err := Parse(raw, now)
		require.NoError(t, err)
		assert.Equal(t, int64(1999999999), ps.Expires.Unix())
		assert.InDelta(t, 5e8, float64(ps.Expires.Nanosecond()), 1)
	})

	t.Run("round trip through Format", func(t *testing.T) {
		raw := `keyId="test",algorithm="hmac-sha256",headers="(request-target) host digest",signature="3UqQIVxNJfNm8E54n35RReP9Nv05a9dEZTxr/deog3g="`
		ps, err := Parse(raw, now)
		require.NoError(t, err)

		reparsed, err := Parse(ps.Format(), now)
		require.NoError(t, err)
		assert.Equal(t, ps.KeyID, reparsed.KeyID)
		assert.Equal(t, ps.Algorithm, reparsed.Algorithm)
		assert.Equal(t, ps.Headers, reparsed.Headers)
		assert.Equal(t, ps.Signature, reparsed.Signature)
	})
}

func TestParseRejections(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	validSig := `signature="3UqQIVxNJfNm8E54n35RReP9Nv05a9dEZTxr/deog3g="`

	cases := map[string]string{
		"empty string":                 ``,
		"missing keyId":                validSig,
		"missing signature":            `keyId="test"`,
		"leading comma":                `,keyId="test",` + validSig,
		"trailing comma":               `keyId="test",` + validSig + `,`,
		"consecutive commas":           `keyId="test",,` + validSig,
		"whitespace after comma":       `keyId="test", ` + validSig,
		"duplicate parameter":          `keyId="test",keyId="other",` + validSig,
		"unquoted value":               `keyId=test,` + validSig,
		"unknown algorithm":            `keyId="test",algorithm="md5",` + validSig,
		"created leading zero":         `keyId="test",created=01,` + validSig,
		"created negative":             `keyId="test",created=-1,` + validSig,
		"created non-integer":          `keyId="test",created=1234.56,` + validSig,
		"expires leading dot":          `keyId="test",expires=.1,` + validSig,
		"expires trailing dot":         `keyId="test",expires=1.,` + validSig,
		"expires two dots":             `keyId="test",expires=1.2.3,` + validSig,
		"headers leading space":        `keyId="test",headers=" a b",` + validSig,
		"headers trailing space":       `keyId="test",headers="a b ",` + validSig,
		"headers consecutive spaces":   `keyId="test",headers="a  b",` + validSig,
		"headers tab separator":        "keyId=\"test\",headers=\"a\tb\"," + validSig,
		"empty headers value":          `keyId="test",headers="",` + validSig,
		"signature not base64":         `keyId="test",signature="***"`,
		"signature empty decoded":      `keyId="test",signature=""`,
		"parameter missing equals":     `keyId`,
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(raw, now)
			assert.Error(t, err)
		})
	}
}

func TestFormatOrder(t *testing.T) {
	ps := &ParsedSignature{
		KeyID:     "test",
		Algorithm: "hs2019",
		Headers:   []string{"(request-target)", "host"},
		Signature: []byte("abc"),
	}
	formatted := ps.Format()
	assert.Contains(t, formatted, `keyId="test"`)
	assert.Contains(t, formatted, `algorithm="hs2019"`)
	assert.Contains(t, formatted, `headers="(request-target) host"`)
}
