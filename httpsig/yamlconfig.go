package httpsig

import (
	"encoding/base64"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

type yamlKeyDocument struct {
	KeyID           string `yaml:"keyId"`
	Type            string `yaml:"type"`
	Scheme          string `yaml:"scheme"`
	Algorithm       string `yaml:"algorithm"`
	DigestAlgorithm string `yaml:"digestAlgorithm"`
	Secret          string `yaml:"secret"`
	PublicKey       string `yaml:"publicKey"`
	PrivateKey      string `yaml:"privateKey"`
	Hash            string `yaml:"hash"`
	Padding         string `yaml:"padding"`
	SaltLength      int    `yaml:"saltLength"`
	DSAEncoding     string `yaml:"dsaEncoding"`
}

type yamlKeyDocumentSet struct {
	Keys []yamlKeyDocument `yaml:"keys"`
}

// LoadKeyConfigs reads a YAML document describing fixed keyId -> key
// binding entries and returns them indexed by keyId, ready to back a
// KeyLookupFunc. Unknown fields in the document are rejected rather
// than silently ignored.
func LoadKeyConfigs(r io.Reader) (map[string]*KeyEntry, error) {
	var doc yamlKeyDocumentSet

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, &ConfigurationError{Reason: "failed to decode key configuration document", Err: err}
	}

	out := make(map[string]*KeyEntry, len(doc.Keys))
	for _, k := range doc.Keys {
		entry, err := k.toKeyEntry()
		if err != nil {
			return nil, err
		}
		out[k.KeyID] = entry
	}
	return out, nil
}

// LoadKeyConfig is LoadKeyConfigs for a document describing a single
// key rather than a "keys" list.
func LoadKeyConfig(r io.Reader) (string, *KeyEntry, error) {
	var k yamlKeyDocument

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&k); err != nil {
		return "", nil, &ConfigurationError{Reason: "failed to decode key configuration document", Err: err}
	}

	entry, err := k.toKeyEntry()
	if err != nil {
		return "", nil, err
	}
	return k.KeyID, entry, nil
}

func (k yamlKeyDocument) toKeyEntry() (*KeyEntry, error) {
	if k.KeyID == "" {
		return nil, &ConfigurationError{Reason: "key configuration entry missing keyId"}
	}

	entry := &KeyEntry{
		Scheme:          SignatureScheme(k.Scheme),
		DigestAlgorithm: DigestAlgorithm(k.DigestAlgorithm),
	}

	switch k.Type {
	case "secret", "":
		secret, err := base64.StdEncoding.DecodeString(k.Secret)
		if err != nil {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("key %q: secret is not valid base64", k.KeyID), Err: err}
		}
		entry.Secret = &SecretKeyConfig{Algorithm: MACAlgorithm(k.Algorithm), Secret: secret}

	case "keypair":
		pub, err := base64.StdEncoding.DecodeString(k.PublicKey)
		if err != nil {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("key %q: publicKey is not valid base64", k.KeyID), Err: err}
		}

		var priv []byte
		if k.PrivateKey != "" {
			priv, err = base64.StdEncoding.DecodeString(k.PrivateKey)
			if err != nil {
				return nil, &ConfigurationError{Reason: fmt.Sprintf("key %q: privateKey is not valid base64", k.KeyID), Err: err}
			}
		}

		entry.KeyPair = &KeyPairConfig{
			Algorithm:   k.Algorithm,
			Hash:        k.Hash,
			PublicKey:   pub,
			PrivateKey:  priv,
			Padding:     k.Padding,
			SaltLength:  k.SaltLength,
			DSAEncoding: k.DSAEncoding,
		}

	default:
		return nil, &ConfigurationError{Reason: fmt.Sprintf("key %q: unknown key type %q", k.KeyID, k.Type)}
	}

	return entry, nil
}
