package errcode

const (
	ErrUnknown = 20000000 + iota
	ErrUnauthorized
	ErrInvalid
	ErrNoContent
	ErrNotFound
	ErrAIUnavailable
	ErrInternal
)
