package httpsig

import (
	"crypto/sha256"
	"crypto/sha512"
	"hash"

	"github.com/hgmich/node-http-sig/cavage"
)

// DigestAlgorithm identifies the hash algorithm used for the classic
// "Digest" request header (RFC 3230 style: "SHA-256=<base64>", not the
// RFC 9530 structured-field Content-Digest form).
type DigestAlgorithm string

const (
	DigestSHA256 DigestAlgorithm = "SHA-256"
	DigestSHA512 DigestAlgorithm = "SHA-512"
)

func (d DigestAlgorithm) valid() bool {
	return d == DigestSHA256 || d == DigestSHA512
}

func (d DigestAlgorithm) newHash() func() hash.Hash {
	if d == DigestSHA512 {
		return sha512.New
	}
	return sha256.New
}

// MACAlgorithm identifies the HMAC hash function backing a secret key.
type MACAlgorithm string

const (
	MACHMACSHA256 MACAlgorithm = "hmac-sha256"
	MACHMACSHA512 MACAlgorithm = "hmac-sha512"
)

func (m MACAlgorithm) valid() bool {
	return m == MACHMACSHA256 || m == MACHMACSHA512
}

func (m MACAlgorithm) newHash() func() hash.Hash {
	if m == MACHMACSHA512 {
		return sha512.New
	}
	return sha256.New
}

// SignatureScheme is the value of the algorithm parameter on the wire.
// It is a distinct type over cavage's closed scheme set: its constants
// take their values from cavage's, and valid defers to
// cavage.ValidScheme, while cavage itself knows nothing about key
// configuration.
type SignatureScheme string

const (
	SchemeHS2019      SignatureScheme = cavage.SchemeHS2019
	SchemeHMACSHA256  SignatureScheme = cavage.SchemeHMACSHA256
	SchemeRSASHA256   SignatureScheme = cavage.SchemeRSASHA256
	SchemeECDSASHA256 SignatureScheme = cavage.SchemeECDSASHA256
)

func (s SignatureScheme) valid() bool {
	return cavage.ValidScheme(string(s))
}
