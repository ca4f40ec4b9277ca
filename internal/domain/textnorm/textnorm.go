// Package textnorm cleans raw utterances before classification.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Defaults used when no configuration is given.
var (
	DefaultWakeWord    = "lappy"
	DefaultFillerWords = []string{"uh", "um", "umm", "please", "the", "a", "an"}
)

// Preprocessor normalizes text, strips the wake word and drops filler words.
// It is immutable and safe for concurrent use.
type Preprocessor struct {
	wakeWord string
	fillers  map[string]struct{}
}

// Option configures a Preprocessor.
type Option func(*Preprocessor)

// WithWakeWord overrides the wake word. An empty word disables detection.
func WithWakeWord(w string) Option {
	return func(p *Preprocessor) { p.wakeWord = strings.ToLower(strings.TrimSpace(w)) }
}

// WithFillerWords replaces the filler word list.
func WithFillerWords(words []string) Option {
	return func(p *Preprocessor) {
		p.fillers = make(map[string]struct{}, len(words))
		for _, w := range words {
			p.fillers[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
		}
	}
}

// New builds a Preprocessor with the default wake word and fillers.
func New(opts ...Option) *Preprocessor {
	p := &Preprocessor{}
	WithWakeWord(DefaultWakeWord)(p)
	WithFillerWords(DefaultFillerWords)(p)
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process returns whether the wake word was present and the cleaned text.
func (p *Preprocessor) Process(raw string) (bool, string) {
	if strings.TrimSpace(raw) == "" {
		return false, ""
	}
	tokens := strings.Fields(Normalize(raw))

	hasWake := false
	out := tokens[:0]
	for _, tok := range tokens {
		if !hasWake && p.wakeWord != "" && tok == p.wakeWord {
			hasWake = true
			continue
		}
		if _, filler := p.fillers[tok]; filler {
			continue
		}
		out = append(out, tok)
	}
	return hasWake, strings.Join(out, " ")
}

// Normalize applies NFKC, lower-cases and replaces every rune that is not a
// letter, digit, underscore, apostrophe or space with a space.
func Normalize(s string) string {
	// a Caser keeps state, so each call gets its own
	s = cases.Lower(language.Und).String(norm.NFKC.String(strings.TrimSpace(s)))
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '_', r == '\'':
			b.WriteRune(r)
		case unicode.IsMark(r):
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
