package httpsig

import (
	"context"
	"net/http"

	"github.com/hgmich/node-http-sig/mux"
)

// signatureKeyContextKey stores the resolved SignatureKey in the
// request context so downstream handlers can inspect which key signed
// the request (for example, to log Deprecated() keys distinctly).
type signatureKeyContextKey struct{}

// SignatureKeyFromContext returns the key Middleware resolved for the
// current request, if any.
func SignatureKeyFromContext(ctx context.Context) *SignatureKey {
	key, _ := ctx.Value(signatureKeyContextKey{}).(*SignatureKey)
	return key
}

// MiddlewareConfig configures the server-side signature verification
// middleware.
type MiddlewareConfig struct {
	// Manager resolves the keyId on each request's signature.
	Manager *KeyManager

	// OnError is called when verification fails. When nil, a plain 401
	// Unauthorized response is sent.
	OnError func(w http.ResponseWriter, r *http.Request, err error)
}

// Middleware returns a mux.MiddlewareFunc that verifies the Signature
// header on incoming requests against cfg.Manager.
func Middleware(cfg MiddlewareConfig) (mux.MiddlewareFunc, error) {
	if cfg.Manager == nil {
		return nil, &ConfigurationError{Reason: "middleware requires a non-nil key manager"}
	}

	onError := cfg.OnError
	if onError == nil {
		onError = defaultOnError
	}

	manager := cfg.Manager

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, err := VerifyHTTPRequest(r, manager)
			if err != nil {
				onError(w, r, err)
				return
			}

			r = r.WithContext(context.WithValue(r.Context(), signatureKeyContextKey{}, key))
			next.ServeHTTP(w, r)
		})
	}, nil
}

func defaultOnError(w http.ResponseWriter, _ *http.Request, _ error) {
	w.WriteHeader(http.StatusUnauthorized)
}
