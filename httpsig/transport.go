package httpsig

import "net/http"

// Transport is an http.RoundTripper that signs outgoing requests with a
// fixed SignatureKey.
//
// Use NewTransport to create a Transport with a configured
// *http.Transport for proxy, TLS, and timeout settings.
type Transport struct {
	base http.RoundTripper
	key  *SignatureKey
}

// NewTransport creates a signing Transport that delegates to base
// after signing each request. When base is nil, a clone of
// http.DefaultTransport is used, giving an independent connection pool
// with default proxy, TLS, and timeout settings.
func NewTransport(base *http.Transport, key *SignatureKey) *Transport {
	var rt http.RoundTripper
	if base != nil {
		rt = base
	} else {
		rt = http.DefaultTransport.(*http.Transport).Clone()
	}

	return &Transport{base: rt, key: key}
}

// RoundTrip signs the request and then delegates to the base
// transport. The original request is cloned before signing to avoid
// mutation; when GetBody is available, the clone receives its own
// body copy so digest computation does not consume the caller's body.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())

	if clone.Body != nil && req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		clone.Body = body
	}

	if err := SignHTTPRequest(clone, t.key); err != nil {
		return nil, err
	}

	return t.base.RoundTrip(clone)
}
