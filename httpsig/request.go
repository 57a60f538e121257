package httpsig

import (
	"net/http"
	"time"

	"github.com/hgmich/node-http-sig/cavage"
)

// extractKeyID parses just enough of raw to resolve which key should
// verify the message. The full parse happens again inside
// SignatureKey.VerifyRequest/VerifyResponse once the key is in hand;
// that duplication keeps key resolution and signature verification as
// independent concerns, the way a key manager and a signature key are
// independent types.
func extractKeyID(raw string) (string, error) {
	parsed, err := cavage.Parse(raw, time.Now().UTC())
	if err != nil {
		return "", &VerificationError{Reason: "malformed signature parameter string", Err: err}
	}
	return parsed.KeyID, nil
}

// SignHTTPRequest signs r with key and sets the Signature header. When
// key's options call for digest calculation, the request body is read,
// a Digest header is set ahead of signing, and the body is replaced so
// it can still be sent. r is mutated in place.
func SignHTTPRequest(r *http.Request, key *SignatureKey) error {
	if err := maybeSetRequestDigest(r, key); err != nil {
		return err
	}

	value, err := key.SignRequest(NewRequestAdapter(r))
	if err != nil {
		return err
	}

	r.Header.Set("Signature", value)
	return nil
}

// VerifyHTTPRequest extracts the signature from r, resolves its keyId
// through manager, and verifies it, including the Digest header when
// one is required by the resolved key's options.
func VerifyHTTPRequest(r *http.Request, manager *KeyManager) (*SignatureKey, error) {
	adapter := NewRequestAdapter(r)
	ctx := newMessageContext(adapter, false)

	raw, ok, err := ctx.extractSignatureParam()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &VerificationError{Reason: "message is not signed", Err: ErrNoSignature}
	}

	keyID, err := extractKeyID(raw)
	if err != nil {
		return nil, err
	}

	key, err := manager.GetKey(r.Context(), keyID)
	if err != nil {
		return nil, err
	}

	if err := key.VerifyRequest(adapter); err != nil {
		return nil, err
	}

	if err := maybeVerifyRequestDigest(r, key); err != nil {
		return nil, err
	}

	return key, nil
}

// SignHTTPResponse is SignHTTPRequest for a response; it never signs
// (request-target), since a response has no request line.
func SignHTTPResponse(resp *http.Response, key *SignatureKey) error {
	if err := maybeSetResponseDigest(resp, key); err != nil {
		return err
	}

	value, err := key.SignResponse(NewResponseAdapter(resp))
	if err != nil {
		return err
	}

	resp.Header.Set("Signature", value)
	return nil
}

// VerifyHTTPResponse is VerifyHTTPRequest for a response.
func VerifyHTTPResponse(resp *http.Response, manager *KeyManager) (*SignatureKey, error) {
	adapter := NewResponseAdapter(resp)
	ctx := newMessageContext(adapter, true)

	raw, ok, err := ctx.extractSignatureParam()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &VerificationError{Reason: "message is not signed", Err: ErrNoSignature}
	}

	keyID, err := extractKeyID(raw)
	if err != nil {
		return nil, err
	}

	key, err := manager.GetKey(resp.Request.Context(), keyID)
	if err != nil {
		return nil, err
	}

	if err := key.VerifyResponse(adapter); err != nil {
		return nil, err
	}

	return key, maybeVerifyResponseDigest(resp, key)
}

func maybeSetRequestDigest(r *http.Request, key *SignatureKey) error {
	if key.options.CalculateDigest == nil || !*key.options.CalculateDigest {
		return nil
	}
	body, err := readAndRestoreBody(r)
	if err != nil {
		return err
	}
	r.Header.Set("Digest", key.CreateDigestHeader(body))
	return nil
}

func maybeVerifyRequestDigest(r *http.Request, key *SignatureKey) error {
	header := r.Header.Get("Digest")
	if header == "" {
		return nil
	}
	body, err := readAndRestoreBody(r)
	if err != nil {
		return err
	}
	return key.VerifyDigestHeader(body, header)
}

func maybeSetResponseDigest(resp *http.Response, key *SignatureKey) error {
	if key.options.CalculateDigest == nil || !*key.options.CalculateDigest {
		return nil
	}
	body, err := readAndRestoreResponseBody(resp)
	if err != nil {
		return err
	}
	resp.Header.Set("Digest", key.CreateDigestHeader(body))
	return nil
}

func maybeVerifyResponseDigest(resp *http.Response, key *SignatureKey) error {
	header := resp.Header.Get("Digest")
	if header == "" {
		return nil
	}
	body, err := readAndRestoreResponseBody(resp)
	if err != nil {
		return err
	}
	return key.VerifyDigestHeader(body, header)
}
