package repository

import "errors"

// Sentinel kinds for artifact store errors.
var (
	ErrNotFound      = errors.New("artifact not found")
	ErrInvalidFamily = errors.New("invalid model family")
	ErrSave          = errors.New("artifact save failed")
	ErrCorrupt       = errors.New("artifact corrupt")
)
