package webhook

import "errors"

var (
	ErrUnknownCallCase      = errors.New("unknown call_case")
	ErrMalformedBody        = errors.New("malformed body")
	ErrInvalidRequestShape  = errors.New("invalid request shape")
	ErrInvalidResponseShape = errors.New("invalid response shape")
)
