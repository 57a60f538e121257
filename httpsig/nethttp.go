package httpsig

import (
	"net/http"
	"strings"
)

// NewRequestAdapter wraps r as a MessageAdapter. Host is served from
// r.Host, falling back to the Host header, rather than from
// r.Header.Values("Host"): the net/http server strips the request's
// own Host header into the Request.Host field, so that field is the
// only reliable source on the server side.
func NewRequestAdapter(r *http.Request) MessageAdapter {
	return &requestAdapter{r: r}
}

type requestAdapter struct {
	r *http.Request
}

func (a *requestAdapter) Method() (string, bool) {
	if a.r.Method == "" {
		return "", false
	}
	return a.r.Method, true
}

func (a *requestAdapter) Path() (string, bool) {
	if a.r.URL == nil {
		return "", false
	}
	return a.r.URL.RequestURI(), true
}

func (a *requestAdapter) Header(name string) ([]string, bool) {
	if strings.EqualFold(name, "host") {
		host := a.r.Host
		if host == "" {
			host = a.r.Header.Get("Host")
		}
		if host == "" {
			return nil, false
		}
		return []string{host}, true
	}

	v := a.r.Header.Values(name)
	if len(v) == 0 {
		return nil, false
	}
	return v, true
}

// NewResponseAdapter wraps resp as a MessageAdapter. A response has no
// request line, so Method and Path always report absent; signing or
// verifying (request-target) against a response context is rejected
// upstream of this adapter.
func NewResponseAdapter(resp *http.Response) MessageAdapter {
	return &responseAdapter{resp: resp}
}

type responseAdapter struct {
	resp *http.Response
}

func (a *responseAdapter) Method() (string, bool) { return "", false }
func (a *responseAdapter) Path() (string, bool)   { return "", false }

func (a *responseAdapter) Header(name string) ([]string, bool) {
	v := a.resp.Header.Values(name)
	if len(v) == 0 {
		return nil, false
	}
	return v, true
}
