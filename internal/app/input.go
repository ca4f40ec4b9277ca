package app

import (
	"bufio"
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/okian/intentiq/internal/adapters/audio"
	"github.com/okian/intentiq/internal/domain/model"
)

// Input yields one utterance per call. Next returns io.EOF once no further
// input can arrive.
type Input interface {
	Prompt() string
	Next(ctx context.Context) (string, error)
	Close() error
}

// TextInput reads one line per utterance.
type TextInput struct {
	lines     chan lineResult
	done      chan struct{}
	once      sync.Once
	closeOnce sync.Once
	r         io.Reader
}

type lineResult struct {
	text string
	err  error
}

// NewTextInput reads lines from r.
func NewTextInput(r io.Reader) *TextInput {
	return &TextInput{r: r, lines: make(chan lineResult), done: make(chan struct{})}
}

func (t *TextInput) Prompt() string { return "\n[You] " }

// Next blocks until a line is read or ctx is done.
func (t *TextInput) Next(ctx context.Context) (string, error) {
	t.once.Do(func() { go t.scan() })
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-t.done:
		return "", io.EOF
	case l, ok := <-t.lines:
		if !ok {
			return "", io.EOF
		}
		return l.text, l.err
	}
}

// scan runs in the background so a blocked read does not hold up
// cancellation. It stops sending once Close is called.
func (t *TextInput) scan() {
	defer close(t.lines)
	sc := bufio.NewScanner(t.r)
	for sc.Scan() {
		if !t.send(lineResult{text: sc.Text()}) {
			return
		}
	}
	if err := sc.Err(); err != nil {
		t.send(lineResult{err: err})
	}
}

func (t *TextInput) send(l lineResult) bool {
	select {
	case <-t.done:
		return false
	default:
	}
	select {
	case t.lines <- l:
		return true
	case <-t.done:
		return false
	}
}

// Close releases the reader goroutine. Later calls to Next return io.EOF.
func (t *TextInput) Close() error {
	t.closeOnce.Do(func() { close(t.done) })
	return nil
}

// Transcriber is the speech side of voice input.
type Transcriber interface {
	Transcribe(ctx context.Context, maxDuration time.Duration) (model.UtteranceResult, error)
	Listen(ctx context.Context) (model.UtteranceResult, error)
	Stop() error
}

// VoiceInput turns recognized utterances into text. With streaming set it
// waits for an utterance boundary; otherwise it captures a fixed window and
// lets the router escalate.
type VoiceInput struct {
	speech    Transcriber
	window    time.Duration
	streaming bool
	last      model.UtteranceResult
}

// NewVoiceInput builds a voice input over s.
func NewVoiceInput(s Transcriber, window time.Duration, streaming bool) *VoiceInput {
	return &VoiceInput{speech: s, window: window, streaming: streaming}
}

func (v *VoiceInput) Prompt() string { return "\n[Listening...] Say something:\n" }

func (v *VoiceInput) Next(ctx context.Context) (string, error) {
	var (
		res model.UtteranceResult
		err error
	)
	if v.streaming {
		res, err = v.speech.Listen(ctx)
	} else {
		res, err = v.speech.Transcribe(ctx, v.window)
	}
	if errors.Is(err, audio.ErrStopped) {
		return "", io.EOF
	}
	if err != nil {
		return "", err
	}
	v.last = res
	return res.Text, nil
}

// Last returns the most recent utterance.
func (v *VoiceInput) Last() model.UtteranceResult { return v.last }

// Close stops audio capture. It is idempotent.
func (v *VoiceInput) Close() error { return v.speech.Stop() }
