package skill

import "errors"

// Sentinel errors for skill dispatch. Every dispatch failure wraps
// ErrDispatch plus one of the specific kinds.
var (
	ErrDispatch     = errors.New("skill dispatch failed")
	ErrResolve      = errors.New("skill could not be resolved")
	ErrNoEntryPoint = errors.New("skill has no entry point")
	ErrHandler      = errors.New("skill handler failed")
	ErrManifest     = errors.New("invalid skill manifest")
)
