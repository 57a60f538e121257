// Package cavage implements the wire grammar of the Signature header as
// defined by draft-cavage-http-signatures-12: a single header carrying
// keyId, algorithm, headers, created, expires, and signature as quoted
// or bare parameters separated by unescaped commas.
//
// This package knows nothing about key material, canonicalization, or
// HTTP transport. It only parses a raw parameter string into a
// ParsedSignature record and formats a ParsedSignature back into wire
// form. Callers resolve keyId to key material and build the signature
// base elsewhere.
package cavage
