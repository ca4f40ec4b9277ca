// Package app runs the interactive loop: acquire an utterance, classify it,
// dispatch it to a skill and report the outcome.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/intentiq/internal/domain/intent"
	"github.com/okian/intentiq/internal/domain/skill"
	"github.com/okian/intentiq/internal/domain/textnorm"
	"github.com/okian/intentiq/pkg/logger"
	"github.com/okian/intentiq/pkg/metrics"
)

// Defaults for the loop.
const (
	DefaultExitIntent = "exit"
	tableRule         = "----------------------------------------"
)

// DefaultShutdownKeywords end the loop when entered verbatim.
var DefaultShutdownKeywords = []string{"exit", "quit", "stop", "shutdown"}

// Classifier predicts an intent for text.
type Classifier interface {
	Predict(ctx context.Context, text string) (intent.Prediction, error)
}

// Dispatcher runs the skill for an intent.
type Dispatcher interface {
	Dispatch(ctx context.Context, intentName, payload string) (*skill.Result, error)
}

// Outcome is the result of one classify and dispatch cycle.
type Outcome struct {
	RequestID string         `json:"request_id"`
	Input     string         `json:"input"`
	Text      string         `json:"text"`
	WakeWord  bool           `json:"wake_word"`
	Label     string         `json:"label,omitempty"`
	Scores    []intent.Score `json:"scores,omitempty"`
	Result    *skill.Result  `json:"result,omitempty"`
	Exit      bool           `json:"exit"`
}

// Engine owns one input and processes a single utterance at a time.
type Engine struct {
	clf        Classifier
	skills     Dispatcher
	input      Input
	pre        *textnorm.Preprocessor
	shutdown   map[string]struct{}
	exitIntent string
	out        io.Writer
	log        logger.Logger

	stopOnce sync.Once
	stopErr  error
}

// New wires an engine. input may be nil for engines used only through
// HandleText.
func New(clf Classifier, skills Dispatcher, input Input, opts ...Option) (*Engine, error) {
	if clf == nil || skills == nil {
		return nil, fmt.Errorf("%w: classifier and skill registry are required", ErrNotConfigured)
	}
	e := &Engine{
		clf:        clf,
		skills:     skills,
		input:      input,
		exitIntent: DefaultExitIntent,
		out:        os.Stdout,
		log:        logger.NewNop(),
	}
	WithShutdownKeywords(DefaultShutdownKeywords...)(e)
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.Named("engine")
	return e, nil
}

// Run loops until a shutdown keyword, the exit intent, cancellation of ctx
// or the end of input. Errors of a single utterance are logged and never end
// the loop.
func (e *Engine) Run(ctx context.Context) error {
	if e.input == nil {
		return fmt.Errorf("%w: no input", ErrNotConfigured)
	}
	defer func() { _ = e.Shutdown() }()

	e.log.Info(ctx, "engine ready")
	for {
		if ctx.Err() != nil {
			e.log.Info(ctx, "engine cancelled")
			return nil
		}
		id := uuid.NewString()

		e.printf("%s", e.input.Prompt())
		raw, err := e.input.Next(ctx)
		switch {
		case errors.Is(err, io.EOF):
			e.log.Info(ctx, "input exhausted")
			return nil
		case ctx.Err() != nil:
			e.log.Info(ctx, "engine cancelled")
			return nil
		case err != nil:
			metrics.RecordUtterance("input_error")
			e.log.Error(ctx, "failed to acquire input", logger.String("request_id", id), logger.Error(err))
			continue
		}

		text := strings.TrimSpace(raw)
		if text == "" {
			metrics.RecordUtterance("empty")
			continue
		}
		e.printf("[User] %s\n", text)

		if e.IsShutdownKeyword(text) {
			e.printf("[System] Shutdown command received.\n")
			metrics.RecordUtterance("shutdown")
			return nil
		}

		out, err := e.handle(ctx, id, text)
		if errors.Is(err, ErrEmptyInput) {
			continue
		}
		if err != nil {
			e.log.Error(ctx, "utterance failed", logger.String("request_id", id), logger.Error(err))
			continue
		}
		if out.Exit {
			e.printf("[System] Exit intent detected. Shutting down...\n")
			return nil
		}
	}
}

// HandleText runs one classify and dispatch cycle without printing. A
// dispatch failure is logged and leaves Result nil; only classification
// errors are returned.
func (e *Engine) HandleText(ctx context.Context, text string) (Outcome, error) {
	return e.process(ctx, uuid.NewString(), text, false)
}

func (e *Engine) handle(ctx context.Context, id, text string) (Outcome, error) {
	return e.process(ctx, id, text, true)
}

// Classify preprocesses and classifies text without dispatching it.
func (e *Engine) Classify(ctx context.Context, text string) (Outcome, error) {
	return e.classify(ctx, uuid.NewString(), text)
}

func (e *Engine) classify(ctx context.Context, id, text string) (Outcome, error) {
	out := Outcome{RequestID: id, Input: text, Text: strings.TrimSpace(text)}
	if e.pre != nil {
		out.WakeWord, out.Text = e.pre.Process(text)
		e.log.Debug(ctx, "preprocessed input",
			logger.String("request_id", id),
			logger.Bool("wake_word", out.WakeWord),
			logger.String("text", out.Text))
	}
	if out.Text == "" {
		metrics.RecordUtterance("empty")
		return out, ErrEmptyInput
	}

	pred, err := e.clf.Predict(ctx, out.Text)
	if err != nil {
		metrics.RecordUtterance("classify_error")
		return out, err
	}
	if pred.Distribution != nil && !pred.Aligned() {
		metrics.RecordUtterance("classify_error")
		return out, fmt.Errorf("%w: %d probabilities for %d labels", intent.ErrPredict, len(pred.Distribution), len(pred.Labels))
	}
	out.Label = pred.Label
	out.Scores = scoreTable(pred)
	out.Exit = out.Label == e.exitIntent
	e.log.Info(ctx, "intent predicted",
		logger.String("request_id", id),
		logger.String("label", out.Label))
	return out, nil
}

func (e *Engine) process(ctx context.Context, id, text string, report bool) (Outcome, error) {
	out, err := e.classify(ctx, id, text)
	if err != nil {
		return out, err
	}
	if report {
		e.printf("[Predicted Intent] %s\n", out.Label)
		e.printTable(out.Scores)
	}
	if out.Exit {
		metrics.RecordUtterance("exit")
		return out, nil
	}

	start := time.Now()
	res, err := e.skills.Dispatch(ctx, out.Label, strings.TrimSpace(out.Input))
	if err != nil {
		metrics.RecordUtterance("dispatch_error")
		e.log.Warn(ctx, "no skill result",
			logger.String("request_id", id),
			logger.String("intent", out.Label),
			logger.Error(err))
		return out, nil
	}
	out.Result = res
	if report && res != nil && res.Message != "" {
		e.printf("[Skill] %s\n", res.Message)
	}
	e.log.Debug(ctx, "skill finished",
		logger.String("request_id", id),
		logger.Duration("elapsed", time.Since(start)))
	metrics.RecordUtterance("ok")
	return out, nil
}

// IsShutdownKeyword reports whether text is one of the shutdown words.
func (e *Engine) IsShutdownKeyword(text string) bool {
	_, ok := e.shutdown[strings.ToLower(strings.TrimSpace(text))]
	return ok
}

// Shutdown stops the input. Calling it more than once is safe.
func (e *Engine) Shutdown() error {
	e.stopOnce.Do(func() {
		if e.input != nil {
			e.stopErr = e.input.Close()
		}
		e.log.Info(context.Background(), "engine stopped")
	})
	return e.stopErr
}

// scoreTable keeps the decoder's label order.
func scoreTable(p intent.Prediction) []intent.Score {
	if !p.Aligned() {
		return nil
	}
	out := make([]intent.Score, len(p.Distribution))
	for i, prob := range p.Distribution {
		out[i] = intent.Score{Label: p.Labels[i], Probability: prob}
	}
	return out
}

func (e *Engine) printTable(scores []intent.Score) {
	if len(scores) == 0 {
		return
	}
	e.printf("\n[Probabilities]\n%s\n", tableRule)
	for _, s := range scores {
		e.printf("%-20s %6.2f%%\n", s.Label, s.Probability*100)
	}
	e.printf("%s\n", tableRule)
}

func (e *Engine) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(e.out, format, args...)
}
