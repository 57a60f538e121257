package httpsig

import (
	"strings"
	"time"
)

const (
	pseudoRequestTarget = "(request-target)"
	pseudoCreated       = "(created)"
	pseudoExpires       = "(expires)"
)

// requestTargetInfo holds the two pieces that make up the
// (request-target) pseudo-header.
type requestTargetInfo struct {
	Method string
	Path   string
}

// messageContext is the append-only abstraction over one HTTP message
// that canonicalization works against. created and expires are the
// instance-scope timestamps backing the (created) and (expires)
// pseudo-headers; they come from the signature being verified, or
// from the moment of signing, never from the adapter itself.
type messageContext struct {
	adapter       MessageAdapter
	isResponse    bool
	requestTarget *requestTargetInfo
	created       *time.Time
	expires       *time.Time
}

func newMessageContext(adapter MessageAdapter, isResponse bool) *messageContext {
	ctx := &messageContext{adapter: adapter, isResponse: isResponse}
	if !isResponse {
		method, okM := adapter.Method()
		path, okP := adapter.Path()
		if okM && okP {
			ctx.requestTarget = &requestTargetInfo{Method: method, Path: path}
		}
	}
	return ctx
}

func (m *messageContext) withTimestamps(created, expires *time.Time) *messageContext {
	c := *m
	c.created = created
	c.expires = expires
	return &c
}

// extractSignatureParam finds the raw Signature parameter string on
// this message. It looks at the Signature header and at any
// Authorization header values prefixed with "Signature ", unions the
// candidates, and fails if more than one is present: a message
// carrying two conflicting signature claims is never something to
// silently pick between.
func (m *messageContext) extractSignatureParam() (string, bool, error) {
	var candidates []string

	if values, ok := m.adapter.Header("signature"); ok {
		candidates = append(candidates, values...)
	}
	if values, ok := m.adapter.Header("authorization"); ok {
		for _, v := range values {
			if rest, ok := strings.CutPrefix(v, "Signature "); ok {
				candidates = append(candidates, rest)
			}
		}
	}

	switch len(candidates) {
	case 0:
		return "", false, nil
	case 1:
		return candidates[0], true, nil
	default:
		return "", false, &VerificationError{
			Reason: "multiple signatures present on message",
			Err:    ErrMultipleSignatures,
		}
	}
}
