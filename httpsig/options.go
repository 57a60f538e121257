package httpsig

import "sort"

// HeaderMode says whether a header participates when this side signs,
// when it verifies, both, or — by simply being absent from the map —
// neither.
type HeaderMode int

const (
	HeaderSign HeaderMode = iota + 1
	HeaderVerify
	HeaderBoth
)

// SignatureOptions governs which headers get covered when signing and
// which are required when verifying, plus whether a Digest header is
// computed and included automatically. A manager holds a base record
// built from its construction options; a KeyEntry may override any
// subset of fields for just that key.
type SignatureOptions struct {
	RequestHeaders  map[string]HeaderMode
	ResponseHeaders map[string]HeaderMode
	CalculateDigest *bool
}

// DefaultSignatureOptions covers (request-target) and Host on both
// sign and verify, and turns digest calculation on.
func DefaultSignatureOptions() *SignatureOptions {
	enabled := true
	return &SignatureOptions{
		RequestHeaders: map[string]HeaderMode{
			pseudoRequestTarget: HeaderBoth,
			"host":              HeaderBoth,
		},
		ResponseHeaders: map[string]HeaderMode{},
		CalculateDigest: &enabled,
	}
}

// mergeOptions takes, field by field, the override's value if defined
// and falls back to base otherwise. A field still undefined after
// that is a configuration error: a manager's base options are always
// complete, so this can only happen when an override supplies a map
// or pointer deliberately left nil alongside a base that was somehow
// constructed incomplete.
func mergeOptions(base, override *SignatureOptions) (*SignatureOptions, error) {
	merged := &SignatureOptions{}

	if override != nil && override.RequestHeaders != nil {
		merged.RequestHeaders = override.RequestHeaders
	} else if base != nil {
		merged.RequestHeaders = base.RequestHeaders
	}

	if override != nil && override.ResponseHeaders != nil {
		merged.ResponseHeaders = override.ResponseHeaders
	} else if base != nil {
		merged.ResponseHeaders = base.ResponseHeaders
	}

	if override != nil && override.CalculateDigest != nil {
		merged.CalculateDigest = override.CalculateDigest
	} else if base != nil {
		merged.CalculateDigest = base.CalculateDigest
	}

	if merged.RequestHeaders == nil || merged.ResponseHeaders == nil || merged.CalculateDigest == nil {
		return nil, &ConfigurationError{Reason: "signature options incomplete after merge", Err: ErrOptionsIncomplete}
	}

	return merged, nil
}

// signHeaderNames returns, in a deterministic order, the header names
// marked for signing in set. (request-target) is pulled to the front
// when present, matching how every reference implementation in this
// space orders it first in the covered list.
func signHeaderNames(set map[string]HeaderMode) []string {
	var names []string
	for name, mode := range set {
		if mode == HeaderSign || mode == HeaderBoth {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for i, n := range names {
		if n == pseudoRequestTarget && i != 0 {
			copy(names[1:i+1], names[:i])
			names[0] = pseudoRequestTarget
			break
		}
	}
	return names
}
