// Package httpsig implements HTTP Signatures per
// draft-cavage-http-signatures-12: a single Signature header carrying
// keyId, algorithm, headers, and signature as quoted parameters, with
// optional created and expires parameters for hs2019 messages.
//
// # Signing and verifying
//
// A KeyManager resolves a keyId to a SignatureKey, either from a
// single fixed binding or from a caller-supplied lookup function:
//
//	manager, err := httpsig.NewKeyManager(cavage.Version, httpsig.KeyManagerConfig{
//	    FixedKeyID: "my-key-id",
//	    FixedKey: &httpsig.KeyEntry{
//	        Scheme: httpsig.SchemeHS2019,
//	        Secret: &httpsig.SecretKeyConfig{Secret: secretBytes},
//	    },
//	})
//
//	key, err := manager.GetKey(ctx, "my-key-id")
//	err = httpsig.SignHTTPRequest(req, key)
//
//	key, err := httpsig.VerifyHTTPRequest(req, manager)
//
// # Client transport
//
// NewTransport creates an http.RoundTripper that signs every outgoing
// request with a fixed key:
//
//	client := &http.Client{Transport: httpsig.NewTransport(nil, key)}
//
// # Server middleware
//
// Middleware returns a mux.MiddlewareFunc that verifies incoming
// requests against a KeyManager:
//
//	mw, err := httpsig.Middleware(httpsig.MiddlewareConfig{Manager: manager})
//	router.Use(mw)
//
// # Digest
//
// When a key's options enable digest calculation, SignHTTPRequest and
// VerifyHTTPRequest set and check a classic "Digest: SHA-256=<base64>"
// header automatically; it never needs to be handled separately.
package httpsig
