package httpsig

import (
	"crypto/hmac"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"hash"
	"sort"
	"strings"
	"time"

	"github.com/hgmich/node-http-sig/cavage"
)

// CreatedSlack and ExpiresSlack bound how far created may sit in the
// future, and expires in the past, before verification rejects the
// signature outright. A created exactly CreatedSlack in the future (or
// later) is rejected; anything strictly less is accepted — the same
// half-open rule applies to expires in the past.
const (
	CreatedSlack = 60 * time.Second
	ExpiresSlack = 60 * time.Second
)

// SignatureKey is a resolved key, ready to sign or verify messages. It
// is produced by a KeyManager, never constructed directly by callers:
// scheme coercion and option merging have to happen first.
type SignatureKey struct {
	id         string
	scheme     SignatureScheme
	digestAlg  DigestAlgorithm
	mac        *macPrimitive
	options    *SignatureOptions
	deprecated bool
}

// ID returns the keyId this key was resolved for.
func (k *SignatureKey) ID() string { return k.id }

// Deprecated reports whether this key was resolved under one of the
// fixed legacy schemes (hmac-sha256, rsa-sha256, ecdsa-sha256) rather
// than hs2019.
func (k *SignatureKey) Deprecated() bool { return k.deprecated }

type macPrimitive struct {
	alg    MACAlgorithm
	secret []byte
}

func (p *macPrimitive) newHash() hash.Hash {
	return hmac.New(p.alg.newHash(), p.secret)
}

func (p *macPrimitive) sign(data []byte) []byte {
	h := p.newHash()
	h.Write(data)
	return h.Sum(nil)
}

func (p *macPrimitive) verify(data, mac []byte) error {
	expected := p.sign(data)
	if len(expected) != len(mac) || subtle.ConstantTimeCompare(expected, mac) != 1 {
		return &VerificationError{Reason: "mac verification failed", Err: ErrMACMismatch}
	}
	return nil
}

// CreateDigestHeader computes a classic Digest header value
// ("SHA-256=<base64>") over body using this key's digest algorithm.
func (k *SignatureKey) CreateDigestHeader(body []byte) string {
	h := k.digestAlg.newHash()()
	h.Write(body)
	return fmt.Sprintf("%s=%s", k.digestAlg, base64.StdEncoding.EncodeToString(h.Sum(nil)))
}

// VerifyDigestHeader checks a Digest header value against body. The
// header's algorithm name must match this key's configured digest
// algorithm, compared case-insensitively; a digest computed with a different hash is
// rejected rather than silently accepted under a different name.
func (k *SignatureKey) VerifyDigestHeader(body []byte, header string) error {
	algName, encoded, ok := strings.Cut(header, "=")
	if !ok {
		return &VerificationError{Reason: "malformed digest header", Err: ErrDigestHeaderMalformed}
	}
	if !strings.EqualFold(algName, string(k.digestAlg)) {
		return &VerificationError{Reason: "digest header algorithm does not match key", Err: ErrDigestAlgorithmMismatch}
	}

	actual, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return &VerificationError{Reason: "digest header value is not valid base64", Err: ErrDigestHeaderMalformed}
	}

	h := k.digestAlg.newHash()()
	h.Write(body)
	expected := h.Sum(nil)

	if len(expected) != len(actual) || subtle.ConstantTimeCompare(expected, actual) != 1 {
		return &VerificationError{Reason: "digest mismatch", Err: ErrDigestMismatch}
	}
	return nil
}

// SignRequest builds the signature base for adapter's request
// components and returns the Signature header value to attach.
func (k *SignatureKey) SignRequest(adapter MessageAdapter) (string, error) {
	return k.sign(adapter, false)
}

// SignResponse is SignRequest for a response context. (request-target)
// may not appear in the response header set; attempting to sign it
// fails with a ConfigurationError.
func (k *SignatureKey) SignResponse(adapter MessageAdapter) (string, error) {
	return k.sign(adapter, true)
}

func (k *SignatureKey) sign(adapter MessageAdapter, isResponse bool) (string, error) {
	if k.mac == nil {
		return "", &ConfigurationError{Reason: "key pair algorithms are not yet supported", Err: ErrKeyPairUnsupported}
	}

	ctx := newMessageContext(adapter, isResponse)

	headerSet := k.options.RequestHeaders
	if isResponse {
		headerSet = k.options.ResponseHeaders
	}
	headers := signHeaderNames(headerSet)

	if isResponse && containsFold(headers, pseudoRequestTarget) {
		return "", &ConfigurationError{Reason: "(request-target) cannot be signed on a response", Err: ErrRequestTargetOnResponse}
	}

	if k.options.CalculateDigest != nil && *k.options.CalculateDigest && !containsFold(headers, "digest") {
		headers = append(headers, "digest")
	}

	if containsFold(headers, pseudoExpires) {
		return "", &ConfigurationError{Reason: "(expires) requested but no expiry was configured for signing", Err: ErrExpiresWithoutDeadline}
	}

	var created *time.Time
	if containsFold(headers, pseudoCreated) {
		now := time.Now().UTC()
		created = &now
	}
	ctx = ctx.withTimestamps(created, nil)

	canon, err := ctx.canonicalString(headers)
	if err != nil {
		return "", err
	}

	mac := k.mac.sign([]byte(canon))

	ps := &cavage.ParsedSignature{
		KeyID:     k.id,
		Signature: mac,
		Headers:   headers,
		Algorithm: string(k.scheme),
	}
	if created != nil {
		ps.Created = *created
		ps.HasCreated = true
	}

	return ps.Format(), nil
}

// VerifyRequest extracts, parses, and verifies the signature on
// adapter's request, including the required-header and slack checks.
// The caller is responsible for resolving the keyId to this key in the
// first place; VerifyRequest does not consult a key manager.
func (k *SignatureKey) VerifyRequest(adapter MessageAdapter) error {
	return k.verify(adapter, false)
}

// VerifyResponse is VerifyRequest for a response context.
func (k *SignatureKey) VerifyResponse(adapter MessageAdapter) error {
	return k.verify(adapter, true)
}

func (k *SignatureKey) verify(adapter MessageAdapter, isResponse bool) error {
	if k.mac == nil {
		return &ConfigurationError{Reason: "key pair algorithms are not yet supported", Err: ErrKeyPairUnsupported}
	}

	ctx := newMessageContext(adapter, isResponse)

	raw, ok, err := ctx.extractSignatureParam()
	if err != nil {
		return err
	}
	if !ok {
		return &VerificationError{Reason: "message is not signed", Err: ErrNoSignature}
	}

	now := time.Now().UTC()
	parsed, err := cavage.Parse(raw, now)
	if err != nil {
		return &VerificationError{Reason: "malformed signature parameter string", Err: err}
	}

	if parsed.Algorithm != "" && parsed.Algorithm != string(k.scheme) {
		return &VerificationError{
			Reason: fmt.Sprintf("algorithm %q does not match key %q's scheme %q", parsed.Algorithm, k.id, k.scheme),
			Err:    ErrAlgorithmMismatch,
		}
	}

	var created, expires *time.Time
	if parsed.HasCreated {
		t := parsed.Created
		created = &t
	}
	if parsed.HasExpires {
		t := parsed.Expires
		expires = &t
	}
	ctx = ctx.withTimestamps(created, expires)

	canon, err := ctx.canonicalString(parsed.Headers)
	if err != nil {
		return err
	}

	if err := k.mac.verify([]byte(canon), parsed.Signature); err != nil {
		return err
	}

	required := k.options.RequestHeaders
	if isResponse {
		required = k.options.ResponseHeaders
	}
	if k.options.CalculateDigest != nil && *k.options.CalculateDigest {
		withDigest := make(map[string]HeaderMode, len(required)+1)
		for name, mode := range required {
			withDigest[name] = mode
		}
		withDigest["digest"] = HeaderVerify
		required = withDigest
	}
	if err := checkRequiredHeaders(required, parsed.Headers); err != nil {
		return err
	}

	return checkSlack(parsed, now)
}

func checkRequiredHeaders(required map[string]HeaderMode, present []string) error {
	var missing []string
	for name, mode := range required {
		if mode != HeaderVerify && mode != HeaderBoth {
			continue
		}
		if !containsFold(present, name) {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return &VerificationError{
		Reason: fmt.Sprintf("required headers missing from signature: %s", strings.Join(missing, ", ")),
		Err:    ErrRequiredHeaderAbsent,
	}
}

func checkSlack(p *cavage.ParsedSignature, observedAt time.Time) error {
	if p.HasCreated {
		if diff := p.Created.Sub(observedAt); diff > 0 && diff >= CreatedSlack {
			return &VerificationError{Reason: "created is beyond the future slack window", Err: ErrCreatedInFuture}
		}
	}
	if p.HasExpires {
		if diff := observedAt.Sub(p.Expires); diff > 0 && diff >= ExpiresSlack {
			return &VerificationError{Reason: "expires is beyond the past slack window", Err: ErrExpiresInPast}
		}
	}
	return nil
}
