// Package speech turns captured audio into text with a fast streaming engine
// and escalates to a slower, more accurate engine when the fast result looks
// unreliable.
package speech

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Streaming is a low-latency recognizer fed chunk by chunk.
type Streaming interface {
	Name() string
	// Accept feeds PCM16 audio and reports whether an utterance boundary
	// was reached.
	Accept(chunk []byte) (final bool, err error)
	// Result returns the final result after a boundary, or the partial
	// hypothesis otherwise.
	Result() (Transcript, error)
	Reset()
	Close() error
}

// Batch transcribes a whole buffer of float32 samples in [-1, 1].
type Batch interface {
	Name() string
	Transcribe(ctx context.Context, samples []float32) (string, error)
	Close() error
}

// Transcript is a recognizer hypothesis. Confidence is the mean of the
// per-word confidences of a final result and 0 for partial results.
type Transcript struct {
	Text       string
	Confidence float64
	Final      bool
}

// ParseResult reads a Vosk-style JSON result. Final results carry "text"
// and optionally "result" word entries; partial results carry "partial".
func ParseResult(raw string) (Transcript, error) {
	if !gjson.Valid(raw) {
		return Transcript{}, fmt.Errorf("%w: malformed result %q", ErrRecognition, raw)
	}
	doc := gjson.Parse(raw)
	if text := doc.Get("text"); text.Exists() {
		return Transcript{
			Text:       strings.TrimSpace(text.String()),
			Confidence: meanConfidence(doc.Get("result.#.conf").Array()),
			Final:      true,
		}, nil
	}
	return Transcript{Text: strings.TrimSpace(doc.Get("partial").String())}, nil
}

func meanConfidence(confs []gjson.Result) float64 {
	if len(confs) == 0 {
		return 0
	}
	var sum float64
	for _, c := range confs {
		sum += c.Float()
	}
	return sum / float64(len(confs))
}

// WordCount counts whitespace-separated words.
func WordCount(text string) int { return len(strings.Fields(text)) }

// Policy decides whether a fast result is good enough.
type Policy struct {
	ShortCommandMaxWords   int
	LowConfidenceThreshold float64
}

// DefaultPolicy accepts short, confident commands.
func DefaultPolicy() Policy {
	return Policy{ShortCommandMaxWords: 3, LowConfidenceThreshold: 0.75}
}

// Accept reports whether text with confidence can skip escalation.
func (p Policy) Accept(text string, confidence float64) bool {
	return WordCount(text) <= p.ShortCommandMaxWords && confidence >= p.LowConfidenceThreshold
}

// State is a step of one recognition cycle.
type State int

const (
	StateCapturing State = iota
	StateFastResult
	StateAccept
	StateEscalate
	StateAccurateResult
)

func (s State) String() string {
	switch s {
	case StateCapturing:
		return "CAPTURING"
	case StateFastResult:
		return "FAST_RESULT"
	case StateAccept:
		return "ACCEPT"
	case StateEscalate:
		return "ESCALATE"
	case StateAccurateResult:
		return "ACCURATE_RESULT"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}
