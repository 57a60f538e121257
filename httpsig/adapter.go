package httpsig

// MessageAdapter exposes just enough of one HTTP message for
// canonicalization: the request line, if this message is a request,
// and a case-insensitive, multi-value header accessor. It never
// exposes the body — body handling, if any, lives entirely above this
// interface.
//
// Header must return (nil, false) for an absent header, never an empty
// non-nil slice with ok set to true; canonicalize.go treats the latter
// the same as an absent header.
type MessageAdapter interface {
	Method() (string, bool)
	Path() (string, bool)
	Header(name string) ([]string, bool)
}
