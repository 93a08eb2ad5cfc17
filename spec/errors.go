package spec

import "errors"

var (
	ErrIO                 = errors.New("read failed")
	ErrMagicMismatch      = errors.New("magic mismatch")
	ErrUnsupportedVersion = errors.New("unsupported version")
	ErrInvalidHeader      = errors.New("invalid tile header")
	ErrMalformedJSON      = errors.New("malformed table json")
	ErrTruncatedBody      = errors.New("truncated body")
)
