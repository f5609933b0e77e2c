package pipeline

// Kind classifies a terminal stage failure. None are retried internally;
// the HTTP layer maps each to exactly one status code.
type Kind int

const (
	KindUnexpected Kind = iota
	KindInvalidURL
	KindNotFound
	KindUpstream
	KindCloneFailed
	KindUnparseable
)

// Error carries a caller-safe message. The underlying cause stays wrapped
// for logs and never reaches the response body.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

func stageErr(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}
