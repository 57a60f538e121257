package httpsig

// SecretKeyConfig is a symmetric key used for hmac-sha256 and for
// hs2019 messages that negotiate a MAC algorithm.
type SecretKeyConfig struct {
	Algorithm MACAlgorithm
	Secret    []byte
}

// KeyPairConfig describes an asymmetric key. The fields mirror what a
// YAML key document can carry for an rsa-sha256 or ecdsa-sha256 entry,
// but construction of a SignatureKey from one always fails with
// ErrKeyPairUnsupported: asymmetric signing is reserved for a future
// revision of this package, not implemented by it.
type KeyPairConfig struct {
	Algorithm   string
	Hash        string
	PublicKey   []byte
	PrivateKey  []byte
	Padding     string
	SaltLength  int
	DSAEncoding string
}

// KeyEntry is what a KeyManager resolves a keyId to, before scheme
// coercion and option merging turn it into a SignatureKey. Exactly one
// of Secret or KeyPair should be set; Options may be nil to inherit the
// manager's base options unchanged.
type KeyEntry struct {
	Scheme          SignatureScheme
	Secret          *SecretKeyConfig
	KeyPair         *KeyPairConfig
	DigestAlgorithm DigestAlgorithm
	Options         *SignatureOptions
}
