package model

import "time"

// UtteranceResult is one recognition cycle's outcome.
// Confidence is nil when the engine that produced Text reports none.
type UtteranceResult struct {
	ID         string
	Audio      []byte // PCM16 little-endian mono
	Text       string
	Confidence *float64
	Engine     string
	Escalated  bool
	At         time.Time
}

// HasConfidence reports whether a confidence value is attached.
func (u UtteranceResult) HasConfidence() bool { return u.Confidence != nil }

// Empty reports whether nothing intelligible was recognized.
func (u UtteranceResult) Empty() bool { return len(u.Text) == 0 }
