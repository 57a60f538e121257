package cavage

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrMalformed wraps every rejection raised while parsing a Signature
// parameter string. Callers compare against it with errors.Is; the
// wrapped message carries the specific reason.
var ErrMalformed = errors.New("cavage: malformed signature parameter string")

// ParsedSignature is the result of parsing a Signature header value.
// Created and Expires are only meaningful when the corresponding Has*
// flag is set; a signature with no created parameter carries a zero
// time.Time, not "now".
type ParsedSignature struct {
	KeyID      string
	Signature  []byte
	Headers    []string
	Algorithm  string
	Created    time.Time
	HasCreated bool
	Expires    time.Time
	HasExpires bool
	ObservedAt time.Time
}

// Parse parses a raw Signature header parameter string. now is recorded
// as ObservedAt and is otherwise not consulted here; slack and
// expiration policy belong to the caller, not the parser.
func Parse(raw string, now time.Time) (*ParsedSignature, error) {
	if raw == "" {
		return nil, fmt.Errorf("%w: empty parameter string", ErrMalformed)
	}

	parts, err := splitParams(raw)
	if err != nil {
		return nil, err
	}

	ps := &ParsedSignature{ObservedAt: now}
	seen := make(map[string]bool, len(parts))
	headersSet := false

	for _, part := range parts {
		name, value, err := splitParam(part)
		if err != nil {
			return nil, err
		}

		if seen[name] {
			return nil, fmt.Errorf("%w: duplicate parameter %q", ErrMalformed, name)
		}
		seen[name] = true

		switch name {
		case "keyId":
			v, err := unquote(value)
			if err != nil {
				return nil, err
			}
			ps.KeyID = v

		case "algorithm":
			v, err := unquote(value)
			if err != nil {
				return nil, err
			}
			if !ValidScheme(v) {
				return nil, fmt.Errorf("%w: unrecognized algorithm %q", ErrMalformed, v)
			}
			ps.Algorithm = v

		case "headers":
			v, err := unquote(value)
			if err != nil {
				return nil, err
			}
			hdrs, err := parseHeaderList(v)
			if err != nil {
				return nil, err
			}
			ps.Headers = hdrs
			headersSet = true

		case "signature":
			v, err := unquote(value)
			if err != nil {
				return nil, err
			}
			sig, err := decodeSignature(v)
			if err != nil {
				return nil, err
			}
			ps.Signature = sig

		case "created":
			t, err := parseCreated(value)
			if err != nil {
				return nil, err
			}
			ps.Created = t
			ps.HasCreated = true

		case "expires":
			t, err := parseExpires(value)
			if err != nil {
				return nil, err
			}
			ps.Expires = t
			ps.HasExpires = true

		default:
			// Unknown parameters are tolerated; a future revision of the
			// draft may add parameters this package does not know about.
		}
	}

	if ps.KeyID == "" {
		return nil, fmt.Errorf("%w: missing keyId parameter", ErrMalformed)
	}
	if len(ps.Signature) == 0 {
		return nil, fmt.Errorf("%w: missing signature parameter", ErrMalformed)
	}
	if !headersSet {
		ps.Headers = []string{"(created)"}
	}

	return ps, nil
}

// Format serializes a ParsedSignature back to wire form. Field order is
// fixed (keyId, algorithm, created, expires, headers, signature); the
// parser accepts any order, so this choice only matters for byte-exact
// reproducibility of what this package itself emits.
func (p *ParsedSignature) Format() string {
	var b strings.Builder

	b.WriteString(`keyId="`)
	b.WriteString(p.KeyID)
	b.WriteByte('"')

	if p.Algorithm != "" {
		b.WriteString(`,algorithm="`)
		b.WriteString(p.Algorithm)
		b.WriteByte('"')
	}

	if p.HasCreated {
		fmt.Fprintf(&b, ",created=%d", p.Created.Unix())
	}

	if p.HasExpires {
		b.WriteString(",expires=")
		b.WriteString(formatSeconds(p.Expires))
	}

	b.WriteString(`,headers="`)
	b.WriteString(strings.Join(p.Headers, " "))
	b.WriteByte('"')

	b.WriteString(`,signature="`)
	b.WriteString(base64.StdEncoding.EncodeToString(p.Signature))
	b.WriteByte('"')

	return b.String()
}

func formatSeconds(t time.Time) string {
	nsec := t.Nanosecond()
	if nsec == 0 {
		return strconv.FormatInt(t.Unix(), 10)
	}
	return strconv.FormatFloat(float64(t.Unix())+float64(nsec)/1e9, 'f', -1, 64)
}

// splitParams splits a parameter string on unescaped top-level commas,
// rejecting the forms a correct implementation must not tolerate: a
// leading or trailing comma, two commas in a row, and a space directly
// following a comma.
func splitParams(s string) ([]string, error) {
	if strings.HasPrefix(s, ",") {
		return nil, fmt.Errorf("%w: leading comma", ErrMalformed)
	}
	if strings.HasSuffix(s, ",") {
		return nil, fmt.Errorf("%w: trailing comma", ErrMalformed)
	}

	var parts []string
	var cur strings.Builder
	inQuotes := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			inQuotes = !inQuotes
			cur.WriteByte(c)
		case c == ',' && !inQuotes:
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	parts = append(parts, cur.String())

	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("%w: consecutive commas", ErrMalformed)
		}
		if p[0] == ' ' {
			return nil, fmt.Errorf("%w: whitespace after comma", ErrMalformed)
		}
	}

	return parts, nil
}

func splitParam(part string) (name, value string, err error) {
	idx := strings.IndexByte(part, '=')
	if idx < 0 {
		return "", "", fmt.Errorf("%w: parameter %q missing '='", ErrMalformed, part)
	}
	name = part[:idx]
	value = part[idx+1:]
	if name == "" {
		return "", "", fmt.Errorf("%w: empty parameter name", ErrMalformed)
	}
	return name, value, nil
}

// unquote strips the surrounding double quotes a parameter value is
// required to carry. This draft's grammar has no escape sequences, so
// an embedded quote is always an error rather than something to unescape.
func unquote(v string) (string, error) {
	if len(v) < 2 || v[0] != '"' || v[len(v)-1] != '"' {
		return "", fmt.Errorf("%w: value %q is not a quoted string", ErrMalformed, v)
	}
	inner := v[1 : len(v)-1]
	if strings.ContainsRune(inner, '"') {
		return "", fmt.Errorf("%w: unsupported embedded quote in %q", ErrMalformed, v)
	}
	return inner, nil
}

// parseHeaderList splits the headers parameter value on single spaces.
// Tabs, vertical tabs, form feeds, and non-breaking spaces are never
// valid separators; leading, trailing, or doubled spaces are rejected
// rather than silently collapsed.
func parseHeaderList(v string) ([]string, error) {
	if v == "" {
		return nil, fmt.Errorf("%w: empty headers value", ErrMalformed)
	}
	for _, r := range v {
		switch r {
		case '\t', '\v', '\f', ' ':
			return nil, fmt.Errorf("%w: disallowed whitespace in headers value", ErrMalformed)
		}
	}
	if strings.HasPrefix(v, " ") || strings.HasSuffix(v, " ") {
		return nil, fmt.Errorf("%w: leading or trailing space in headers value", ErrMalformed)
	}
	if strings.Contains(v, "  ") {
		return nil, fmt.Errorf("%w: consecutive spaces in headers value", ErrMalformed)
	}

	fields := strings.Split(v, " ")
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = strings.ToLower(f)
	}
	return out, nil
}

// decodeSignature base64-decodes the signature value and enforces that
// the unpadded wire length actually accounts for the decoded length,
// which rules out truncated or padding-only values that would
// otherwise decode to an implausibly short byte string.
func decodeSignature(v string) ([]byte, error) {
	decoded, err := base64.StdEncoding.DecodeString(v)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64 signature value", ErrMalformed)
	}
	if len(decoded) == 0 {
		return nil, fmt.Errorf("%w: empty decoded signature", ErrMalformed)
	}
	unpadded := strings.TrimRight(v, "=")
	if (len(unpadded)*3)/4 != len(decoded) {
		return nil, fmt.Errorf("%w: signature length does not match encoded value", ErrMalformed)
	}
	return decoded, nil
}

// parseCreated accepts only a non-negative integer with no leading
// zero (other than the literal value "0").
func parseCreated(v string) (time.Time, error) {
	if !isStrictInt(v) {
		return time.Time{}, fmt.Errorf("%w: invalid created value %q", ErrMalformed, v)
	}
	sec, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid created value %q", ErrMalformed, v)
	}
	return time.Unix(sec, 0).UTC(), nil
}

// parseExpires accepts a non-negative decimal with the same leading
// zero rule as created, at most one decimal point, and at least one
// digit on either side of it when a point is present.
func parseExpires(v string) (time.Time, error) {
	if !isStrictDecimal(v) {
		return time.Time{}, fmt.Errorf("%w: invalid expires value %q", ErrMalformed, v)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid expires value %q", ErrMalformed, v)
	}
	sec := int64(f)
	nsec := int64((f - float64(sec)) * 1e9)
	return time.Unix(sec, nsec).UTC(), nil
}

func isStrictInt(v string) bool {
	if v == "" {
		return false
	}
	for _, r := range v {
		if r < '0' || r > '9' {
			return false
		}
	}
	return v == "0" || v[0] != '0'
}

func isStrictDecimal(v string) bool {
	if v == "" || strings.Count(v, ".") > 1 {
		return false
	}
	if strings.HasPrefix(v, ".") || strings.HasSuffix(v, ".") {
		return false
	}

	intPart, fracPart, hasFrac := strings.Cut(v, ".")
	if hasFrac {
		if fracPart == "" {
			return false
		}
		for _, r := range fracPart {
			if r < '0' || r > '9' {
				return false
			}
		}
	}
	return isStrictInt(intPart)
}
