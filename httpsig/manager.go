package httpsig

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hgmich/node-http-sig/cavage"
)

// KeyLookupFunc resolves a keyId to its configuration. The boolean
// return distinguishes "not found" from an error: a lookup that talks
// to a database or secrets store can fail transiently without that
// meaning the key doesn't exist.
type KeyLookupFunc func(ctx context.Context, keyID string) (*KeyEntry, bool, error)

// AuditEvent is handed to a manager's audit function after every key
// resolution attempt, successful or not. It never carries key material
// or MAC values — only metadata safe to write to a log.
type AuditEvent struct {
	Op       string
	KeyID    string
	LookupID string
	Err      error
	At       time.Time
}

// KeyManagerConfig configures a KeyManager. Exactly one of FixedKey or
// Lookup must be set. RequestHeaders, ResponseHeaders, and
// CalculateDigest override the corresponding fields of
// DefaultSignatureOptions for the manager's base options; a KeyEntry
// resolved by this manager may still override them again per key.
type KeyManagerConfig struct {
	FixedKeyID string
	FixedKey   *KeyEntry

	Lookup KeyLookupFunc

	RequestHeaders  map[string]HeaderMode
	ResponseHeaders map[string]HeaderMode
	CalculateDigest *bool

	// AuditFunc, when set, receives an AuditEvent after each GetKey or
	// TryGetKey call.
	AuditFunc func(AuditEvent)
}

// KeyManager resolves a keyId to a ready-to-use SignatureKey, either
// from a single fixed binding or from a caller-supplied lookup
// function, coercing the resolved scheme to a concrete algorithm and
// merging per-key options over the manager's base options.
type KeyManager struct {
	version     string
	baseOptions *SignatureOptions
	fixedKeyID  string
	fixedEntry  *KeyEntry
	lookup      KeyLookupFunc
	audit       func(AuditEvent)
}

// NewKeyManager constructs a KeyManager for the given signature
// version. Only cavage.Version is currently supported.
func NewKeyManager(version string, cfg KeyManagerConfig) (*KeyManager, error) {
	if version != cavage.Version {
		return nil, &ConfigurationError{
			Reason: fmt.Sprintf("unsupported signature version %q", version),
			Err:    ErrUnsupportedVersion,
		}
	}

	hasFixed := cfg.FixedKey != nil
	hasLookup := cfg.Lookup != nil
	if hasFixed == hasLookup {
		return nil, &ConfigurationError{
			Reason: "key manager requires exactly one of a fixed key or a lookup function",
			Err:    ErrManagerMisconfigured,
		}
	}

	base, err := mergeOptions(DefaultSignatureOptions(), &SignatureOptions{
		RequestHeaders:  cfg.RequestHeaders,
		ResponseHeaders: cfg.ResponseHeaders,
		CalculateDigest: cfg.CalculateDigest,
	})
	if err != nil {
		return nil, err
	}

	return &KeyManager{
		version:     version,
		baseOptions: base,
		fixedKeyID:  cfg.FixedKeyID,
		fixedEntry:  cfg.FixedKey,
		lookup:      cfg.Lookup,
		audit:       cfg.AuditFunc,
	}, nil
}

// GetKey resolves keyID or returns a VerificationError wrapping
// ErrKeyNotFound if no key is bound to it.
func (m *KeyManager) GetKey(ctx context.Context, keyID string) (*SignatureKey, error) {
	key, ok, err := m.TryGetKey(ctx, keyID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &VerificationError{
			Reason: fmt.Sprintf("key manager has no key for keyId %q", keyID),
			Err:    ErrKeyNotFound,
		}
	}
	return key, nil
}

// TryGetKey resolves keyID, reporting absence via ok rather than an
// error. ctx is forwarded to the lookup function when one is
// configured and is otherwise consulted only for cancellation.
func (m *KeyManager) TryGetKey(ctx context.Context, keyID string) (*SignatureKey, bool, error) {
	lookupID := uuid.New().String()
	now := time.Now()

	entry, ok, err := m.resolve(ctx, keyID)
	if err != nil {
		m.emitAudit(AuditEvent{Op: "resolve", KeyID: keyID, LookupID: lookupID, Err: err, At: now})
		return nil, false, err
	}
	if !ok {
		m.emitAudit(AuditEvent{Op: "resolve", KeyID: keyID, LookupID: lookupID, At: now})
		return nil, false, nil
	}

	key, err := m.buildKey(keyID, entry)
	if err != nil {
		m.emitAudit(AuditEvent{Op: "build", KeyID: keyID, LookupID: lookupID, Err: err, At: now})
		return nil, false, err
	}

	m.emitAudit(AuditEvent{Op: "build", KeyID: keyID, LookupID: lookupID, At: now})
	return key, true, nil
}

func (m *KeyManager) resolve(ctx context.Context, keyID string) (*KeyEntry, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, &ConfigurationError{Reason: "key lookup cancelled", Err: err}
	}

	if m.lookup != nil {
		entry, ok, err := m.lookup(ctx, keyID)
		if err != nil && ctx.Err() != nil {
			return nil, false, &ConfigurationError{Reason: "key lookup cancelled", Err: ctx.Err()}
		}
		return entry, ok, err
	}

	if keyID == m.fixedKeyID {
		return m.fixedEntry, true, nil
	}
	return nil, false, nil
}

func (m *KeyManager) emitAudit(e AuditEvent) {
	if m.audit != nil {
		m.audit(e)
	}
}

// buildKey coerces entry's scheme to a concrete algorithm and merges
// its options over the manager's base, producing the SignatureKey a
// caller actually signs or verifies with.
//
//   - hs2019 carries its own digest algorithm (SHA-256 if unset) and
//     accepts whatever MAC algorithm the secret config names.
//   - hmac-sha256 forces SHA-256 for both the MAC and the digest and is
//     marked deprecated; it rejects a key-pair entry outright.
//   - rsa-sha256 and ecdsa-sha256 always fail: asymmetric algorithms are
//     reserved, not implemented.
func (m *KeyManager) buildKey(keyID string, entry *KeyEntry) (*SignatureKey, error) {
	opts, err := mergeOptions(m.baseOptions, entry.Options)
	if err != nil {
		return nil, err
	}

	scheme := entry.Scheme
	digestAlg := entry.DigestAlgorithm
	deprecated := false

	switch scheme {
	case SchemeHS2019, "":
		scheme = SchemeHS2019
		if digestAlg == "" {
			digestAlg = DigestSHA256
		}

	case SchemeHMACSHA256:
		if entry.KeyPair != nil {
			return nil, &ConfigurationError{Reason: "hmac-sha256 requires a secret key, not a key pair"}
		}
		digestAlg = DigestSHA256
		deprecated = true

	case SchemeRSASHA256, SchemeECDSASHA256:
		return nil, &ConfigurationError{Reason: "key pair algorithms are not yet supported", Err: ErrKeyPairUnsupported}

	default:
		return nil, &ConfigurationError{Reason: fmt.Sprintf("unknown signature scheme %q", scheme), Err: ErrUnknownScheme}
	}

	if entry.KeyPair != nil {
		return nil, &ConfigurationError{Reason: "key pair algorithms are not yet supported", Err: ErrKeyPairUnsupported}
	}
	if entry.Secret == nil || len(entry.Secret.Secret) == 0 {
		return nil, &ConfigurationError{Reason: "secret key material required for this scheme", Err: ErrSecretRequired}
	}
	if !digestAlg.valid() {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("unsupported digest algorithm %q", digestAlg)}
	}

	macAlg := entry.Secret.Algorithm
	if scheme == SchemeHMACSHA256 || macAlg == "" {
		macAlg = MACHMACSHA256
	}
	if !macAlg.valid() {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("unsupported mac algorithm %q", macAlg)}
	}

	return &SignatureKey{
		id:         keyID,
		scheme:     scheme,
		digestAlg:  digestAlg,
		mac:        &macPrimitive{alg: macAlg, secret: entry.Secret.Secret},
		options:    opts,
		deprecated: deprecated,
	}, nil
}
