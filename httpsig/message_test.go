package httpsig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractSignatureParam(t *testing.T) {
	t.Run("absent on both headers", func(t *testing.T) {
		adapter := &staticAdapter{}
		ctx := newMessageContext(adapter, false)
		_, ok, err := ctx.extractSignatureParam()
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("found on Signature header", func(t *testing.T) {
		adapter := &staticAdapter{headers: map[string][]string{
			"signature": {`keyId="test"`},
		}}
		ctx := newMessageContext(adapter, false)
		raw, ok, err := ctx.extractSignatureParam()
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, `keyId="test"`, raw)
	})

	t.Run("found as Signature-scheme Authorization value", func(t *testing.T) {
		adapter := &staticAdapter{headers: map[string][]string{
			"authorization": {`Signature keyId="test"`},
		}}
		ctx := newMessageContext(adapter, false)
		raw, ok, err := ctx.extractSignatureParam()
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, `keyId="test"`, raw)
	})

	t.Run("other Authorization schemes are ignored", func(t *testing.T) {
		adapter := &staticAdapter{headers: map[string][]string{
			"authorization": {`Bearer abc123`},
		}}
		ctx := newMessageContext(adapter, false)
		_, ok, err := ctx.extractSignatureParam()
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("both present at once is an error", func(t *testing.T) {
		adapter := &staticAdapter{headers: map[string][]string{
			"signature":     {`keyId="a"`},
			"authorization": {`Signature keyId="b"`},
		}}
		ctx := newMessageContext(adapter, false)
		_, _, err := ctx.extractSignatureParam()
		assert.ErrorIs(t, err, ErrMultipleSignatures)
	})
}
