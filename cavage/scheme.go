package cavage

// The closed set of algorithm parameter values this draft revision
// recognizes. hs2019 is the non-deprecated, algorithm-agnostic scheme;
// the other three name a fixed signing algorithm directly and are kept
// only for interoperability with older clients.
const (
	SchemeHS2019      = "hs2019"
	SchemeHMACSHA256  = "hmac-sha256"
	SchemeRSASHA256   = "rsa-sha256"
	SchemeECDSASHA256 = "ecdsa-sha256"
)

// ValidScheme reports whether s is a recognized algorithm parameter
// value. An algorithm value outside this set makes a Signature header
// malformed, not merely unsupported.
func ValidScheme(s string) bool {
	switch s {
	case SchemeHS2019, SchemeHMACSHA256, SchemeRSASHA256, SchemeECDSASHA256:
		return true
	default:
		return false
	}
}
