package httpsig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeOptions(t *testing.T) {
	base := DefaultSignatureOptions()

	t.Run("nil override falls back to base entirely", func(t *testing.T) {
		merged, err := mergeOptions(base, nil)
		require.NoError(t, err)
		assert.Equal(t, base.RequestHeaders, merged.RequestHeaders)
		assert.Equal(t, base.CalculateDigest, merged.CalculateDigest)
	})

	t.Run("override replaces only the fields it sets", func(t *testing.T) {
		digestOff := false
		override := &SignatureOptions{CalculateDigest: &digestOff}
		merged, err := mergeOptions(base, override)
		require.NoError(t, err)
		assert.Equal(t, base.RequestHeaders, merged.RequestHeaders)
		assert.False(t, *merged.CalculateDigest)
	})

	t.Run("incomplete base and override fails", func(t *testing.T) {
		_, err := mergeOptions(&SignatureOptions{}, nil)
		assert.ErrorIs(t, err, ErrOptionsIncomplete)
	})
}

func TestSignHeaderNamesOrdersRequestTargetFirst(t *testing.T) {
	set := map[string]HeaderMode{
		"host":              HeaderSign,
		pseudoRequestTarget: HeaderSign,
		"date":              HeaderSign,
		"x-verify-only":     HeaderVerify,
	}
	names := signHeaderNames(set)
	require.NotEmpty(t, names)
	assert.Equal(t, pseudoRequestTarget, names[0])
	assert.NotContains(t, names, "x-verify-only")
	assert.Contains(t, names, "host")
	assert.Contains(t, names, "date")
}
