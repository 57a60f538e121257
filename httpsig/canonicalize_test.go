package httpsig

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticAdapter struct {
	method  string
	path    string
	headers map[string][]string
}

func (a *staticAdapter) Method() (string, bool) {
	if a.method == "" {
		return "", false
	}
	return a.method, true
}

func (a *staticAdapter) Path() (string, bool) {
	if a.path == "" {
		return "", false
	}
	return a.path, true
}

func (a *staticAdapter) Header(name string) ([]string, bool) {
	v, ok := a.headers[name]
	if !ok || len(v) == 0 {
		return nil, false
	}
	return v, true
}

func TestCanonicalString(t *testing.T) {
	adapter := &staticAdapter{
		method: "POST",
		path:   "/foo?param=value&pet=dog",
		headers: map[string][]string{
			"host":         {"example.com"},
			"date":         {"Sun, 05 Jan 2014 21:31:40 GMT"},
			"content-type": {"application/json"},
		},
	}

	ctx := newMessageContext(adapter, false)
	canon, err := ctx.canonicalString([]string{"(request-target)", "host", "date", "content-type"})
	require.NoError(t, err)

	expected := "(request-target): post /foo?param=value&pet=dog\n" +
		"host: example.com\n" +
		"date: Sun, 05 Jan 2014 21:31:40 GMT\n" +
		"content-type: application/json"
	assert.Equal(t, expected, canon)
}

func TestCanonicalStringMultiValueHeaderJoined(t *testing.T) {
	adapter := &staticAdapter{
		method: "GET",
		path:   "/",
		headers: map[string][]string{
			"x-multi": {"a", "b"},
		},
	}
	ctx := newMessageContext(adapter, false)
	canon, err := ctx.canonicalString([]string{"x-multi"})
	require.NoError(t, err)
	assert.Equal(t, "x-multi: a, b", canon)
}

func TestCanonicalStringMissingHeaderFails(t *testing.T) {
	adapter := &staticAdapter{method: "GET", path: "/"}
	ctx := newMessageContext(adapter, false)
	_, err := ctx.canonicalString([]string{"x-absent"})
	assert.ErrorIs(t, err, ErrMissingHeader)
}

func TestCanonicalStringRequestTargetOnResponseFails(t *testing.T) {
	adapter := &staticAdapter{}
	ctx := newMessageContext(adapter, true)
	_, err := ctx.canonicalString([]string{pseudoRequestTarget})
	assert.ErrorIs(t, err, ErrRequestTargetOnResponse)
}

func TestCanonicalStringCreatedAndExpires(t *testing.T) {
	adapter := &staticAdapter{method: "GET", path: "/"}
	ctx := newMessageContext(adapter, false)

	created := time.Unix(0, 0).UTC()
	expires := time.Unix(1999999999, 0).UTC()
	ctx = ctx.withTimestamps(&created, &expires)

	canon, err := ctx.canonicalString([]string{pseudoCreated, pseudoExpires})
	require.NoError(t, err)
	assert.Equal(t, "(created): 0\n(expires): 1999999999", canon)
}

func TestCanonicalStringEmptyValueProducesBareColon(t *testing.T) {
	adapter := &staticAdapter{
		method:  "GET",
		path:    "/",
		headers: map[string][]string{"x-empty": {""}},
	}
	ctx := newMessageContext(adapter, false)
	canon, err := ctx.canonicalString([]string{"x-empty"})
	require.NoError(t, err)
	assert.Equal(t, "x-empty:", canon)
}

func TestCanonicalStringReferenceScenario(t *testing.T) {
	adapter := &staticAdapter{
		method: "GET",
		path:   "/foo",
		headers: map[string][]string{
			"host":          {"example.org"},
			"date":          {"Tue, 07 Jun 2014 20:51:35 GMT"},
			"cache-control": {"max-age=60", "must-revalidate"},
			"x-emptyheader": {""},
			"x-example":     {"Example header with some whitespace."},
		},
	}

	ctx := newMessageContext(adapter, false)
	created := time.Unix(1402170695, 0).UTC()
	ctx = ctx.withTimestamps(&created, nil)

	canon, err := ctx.canonicalString([]string{
		"(request-target)", "(created)", "host", "date", "cache-control",
		"x-emptyheader", "x-example",
	})
	require.NoError(t, err)

	expected := "(request-target): get /foo\n" +
		"(created): 1402170695\n" +
		"host: example.org\n" +
		"date: Tue, 07 Jun 2014 20:51:35 GMT\n" +
		"cache-control: max-age=60, must-revalidate\n" +
		"x-emptyheader:\n" +
		"x-example: Example header with some whitespace."
	assert.Equal(t, expected, canon)
}

func TestNormalizeHostIDNA(t *testing.T) {
	req := httptest.NewRequest("GET", "https://example.com/", nil)
	req.Host = "café.example.com"
	adapter := NewRequestAdapter(req)
	ctx := newMessageContext(adapter, false)

	canon, err := ctx.canonicalString([]string{"host"})
	require.NoError(t, err)
	assert.Equal(t, "host: xn--caf-dma.example.com", canon)
}
