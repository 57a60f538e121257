package httpsig

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/idna"
)

// canonicalString builds the signature base per §4.2: one line per
// named header, in the order given, "name: value" joined by "\n" with
// no trailing newline. A header with an empty value still produces a
// "name:" line; a header that cannot be resolved at all is a
// VerificationError, not a line silently dropped.
func (m *messageContext) canonicalString(headers []string) (string, error) {
	lines := make([]string, 0, len(headers))

	for _, raw := range headers {
		name := strings.ToLower(raw)

		value, ok, err := m.resolveHeader(name)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", &VerificationError{
				Reason: fmt.Sprintf("header %q required for canonicalization is absent", name),
				Err:    ErrMissingHeader,
			}
		}

		if value == "" {
			lines = append(lines, name+":")
		} else {
			lines = append(lines, name+": "+value)
		}
	}

	return strings.Join(lines, "\n"), nil
}

func (m *messageContext) resolveHeader(name string) (string, bool, error) {
	switch name {
	case pseudoRequestTarget:
		if m.isResponse {
			return "", false, &ConfigurationError{
				Reason: "(request-target) cannot be signed or verified on a response",
				Err:    ErrRequestTargetOnResponse,
			}
		}
		if m.requestTarget == nil {
			return "", false, nil
		}
		return strings.ToLower(m.requestTarget.Method) + " " + m.requestTarget.Path, true, nil

	case pseudoCreated:
		if m.created == nil {
			return "", false, nil
		}
		return strconv.FormatInt(m.created.Unix(), 10), true, nil

	case pseudoExpires:
		if m.expires == nil {
			return "", false, nil
		}
		return formatExpiresValue(*m.expires), true, nil

	default:
		values, ok := m.adapter.Header(name)
		if !ok || len(values) == 0 {
			return "", false, nil
		}
		if name == "host" {
			values = normalizeHostValues(values)
		}
		return strings.Join(values, ", "), true, nil
	}
}

func formatExpiresValue(t time.Time) string {
	nsec := t.Nanosecond()
	if nsec == 0 {
		return strconv.FormatInt(t.Unix(), 10)
	}
	return strconv.FormatFloat(float64(t.Unix())+float64(nsec)/1e9, 'f', -1, 64)
}

// normalizeHostValues IDNA-normalizes each Host value to its ASCII
// (punycode) form before it enters the signature base, so that a
// signer and verifier presented with equivalent Unicode and ASCII
// spellings of the same authority compute the same canonical string.
// A value idna rejects as invalid is left as-is: canonicalization
// reports what is actually on the message rather than failing closed
// on malformed input that verification will reject on its own terms.
func normalizeHostValues(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		ascii, err := idna.Lookup.ToASCII(v)
		if err != nil {
			out[i] = v
			continue
		}
		out[i] = ascii
	}
	return out
}
