package classifier

import "errors"

// Sentinel errors for classifier operations.
var (
	ErrUnknownKind = errors.New("unknown classifier kind")
	ErrMalformed   = errors.New("malformed classifier")
	ErrDimension   = errors.New("input dimension mismatch")
	ErrIndex       = errors.New("class index out of range")
)
