package intent

import "errors"

// Sentinel errors for intent recognition.
var (
	ErrLoad    = errors.New("intent model load failed")
	ErrPredict = errors.New("intent prediction failed")
	ErrDataset = errors.New("invalid evaluation dataset")
)
