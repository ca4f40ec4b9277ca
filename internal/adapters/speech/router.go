package speech

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/intentiq/internal/adapters/audio"
	"github.com/okian/intentiq/internal/domain/model"
	"github.com/okian/intentiq/pkg/logger"
	"github.com/okian/intentiq/pkg/metrics"
)

// Router runs one recognition cycle at a time: capture, fast recognition,
// and escalation to the accurate engine when the policy rejects the fast
// result.
type Router struct {
	fast       Streaming
	accurate   Batch
	source     audio.Source
	policy     Policy
	sampleRate int
	log        logger.Logger

	mu sync.Mutex
}

// NewRouter wires the engines to source. The fast engine is mandatory;
// without an accurate engine every escalation yields an empty result.
func NewRouter(fast Streaming, accurate Batch, source audio.Source, opts ...Option) (*Router, error) {
	if fast == nil {
		return nil, ErrNoFastEngine
	}
	if source == nil {
		return nil, fmt.Errorf("%w: no audio source", ErrNotConfigured)
	}
	r := &Router{
		fast:       fast,
		accurate:   accurate,
		source:     source,
		policy:     DefaultPolicy(),
		sampleRate: audio.DefaultSampleRate,
		log:        logger.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.Named("speech")
	return r, nil
}

// Transcribe captures up to maxDuration of audio and recognizes it. The
// returned error is non-nil only when capture itself failed or no audio is
// left; recognition failures produce an empty result.
func (r *Router) Transcribe(ctx context.Context, maxDuration time.Duration) (model.UtteranceResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.trace(ctx, StateCapturing)
	buf, err := r.capture(ctx, maxDuration)
	if err != nil {
		return model.UtteranceResult{}, err
	}
	res := model.UtteranceResult{ID: uuid.NewString(), Audio: buf, At: time.Now()}

	start := time.Now()
	tr, ferr := r.recognizeFast(buf)
	metrics.RecordRecognition(r.fast.Name(), outcome(ferr), msSince(start))
	r.trace(ctx, StateFastResult,
		logger.String("text", tr.Text),
		logger.Float64("confidence", tr.Confidence),
		logger.Bool("final", tr.Final))

	if ferr == nil && r.policy.Accept(tr.Text, tr.Confidence) {
		r.trace(ctx, StateAccept, logger.String("engine", r.fast.Name()), logger.String("utterance_id", res.ID))
		conf := tr.Confidence
		res.Text = tr.Text
		res.Confidence = &conf
		res.Engine = r.fast.Name()
		return res, nil
	}
	if ferr != nil {
		r.log.Warn(ctx, "fast recognition failed, escalating", logger.Error(ferr))
	}

	r.trace(ctx, StateEscalate, logger.Int("words", WordCount(tr.Text)))
	metrics.RecordEscalation()
	res.Escalated = true

	if r.accurate == nil {
		r.log.Error(ctx, "escalation without accurate engine",
			logger.Error(fmt.Errorf("%w: no accurate engine", ErrRecognition)))
		return res, nil
	}
	res.Engine = r.accurate.Name()

	start = time.Now()
	text, aerr := r.accurate.Transcribe(ctx, audio.PCM16ToFloat32(buf))
	metrics.RecordRecognition(r.accurate.Name(), outcome(aerr), msSince(start))
	if aerr != nil {
		if !errors.Is(aerr, ErrRecognition) {
			aerr = fmt.Errorf("%w: %s: %v", ErrRecognition, r.accurate.Name(), aerr)
		}
		metrics.RecordErrorByComponent("speech", "accurate")
		r.log.Error(ctx, "accurate recognition failed", logger.Error(aerr))
		return res, nil
	}
	res.Text = strings.TrimSpace(text)
	r.trace(ctx, StateAccurateResult, logger.String("text", res.Text))
	r.trace(ctx, StateAccept, logger.String("engine", res.Engine), logger.String("utterance_id", res.ID))
	return res, nil
}

// Listen streams audio into the fast engine until it reports an utterance
// boundary with non-empty text. There is no escalation.
func (r *Router) Listen(ctx context.Context) (model.UtteranceResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	chunks, err := r.source.Start(ctx)
	if err != nil {
		return model.UtteranceResult{}, fmt.Errorf("start capture: %w", err)
	}
	defer r.stopSource(ctx)

	r.fast.Reset()
	var buf []byte
	for {
		select {
		case <-ctx.Done():
			return model.UtteranceResult{}, ctx.Err()
		case chunk, ok := <-chunks:
			if !ok {
				return model.UtteranceResult{}, audio.ErrStopped
			}
			buf = append(buf, chunk...)

			final, err := r.fast.Accept(chunk)
			if err != nil {
				metrics.RecordRecognition(r.fast.Name(), outcome(err), 0)
				r.log.Warn(ctx, "fast engine rejected chunk", logger.Error(err))
				continue
			}
			if !final {
				continue
			}
			tr, err := r.fast.Result()
			if err != nil {
				r.log.Warn(ctx, "fast engine result unreadable", logger.Error(err))
				continue
			}
			metrics.RecordRecognition(r.fast.Name(), outcome(nil), 0)
			if tr.Text == "" {
				buf = buf[:0]
				continue
			}
			conf := tr.Confidence
			return model.UtteranceResult{
				ID:         uuid.NewString(),
				Audio:      buf,
				Text:       tr.Text,
				Confidence: &conf,
				Engine:     r.fast.Name(),
				At:         time.Now(),
			}, nil
		}
	}
}

// Stop ends any capture in progress. It is idempotent.
func (r *Router) Stop() error { return r.source.Stop() }

// Close releases both engines.
func (r *Router) Close() error {
	err := r.fast.Close()
	if r.accurate != nil {
		err = errors.Join(err, r.accurate.Close())
	}
	return err
}

// capture collects chunks until maxDuration of wall time or of audio has
// passed, or the source runs dry.
func (r *Router) capture(ctx context.Context, maxDuration time.Duration) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	chunks, err := r.source.Start(ctx)
	if err != nil {
		return nil, fmt.Errorf("start capture: %w", err)
	}
	defer r.stopSource(ctx)

	limit := int(maxDuration.Seconds()*float64(r.sampleRate)) * audio.BytesPerSample
	timer := time.NewTimer(maxDuration)
	defer timer.Stop()

	var buf []byte
loop:
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
			break loop
		case chunk, ok := <-chunks:
			if !ok {
				if len(buf) == 0 {
					return nil, audio.ErrStopped
				}
				break loop
			}
			buf = append(buf, chunk...)
			if limit > 0 && len(buf) >= limit {
				break loop
			}
		}
	}
	r.log.Debug(ctx, "capture finished",
		logger.Int("bytes", len(buf)),
		logger.Duration("audio", audio.Duration(len(buf), r.sampleRate)))
	return buf, nil
}

// recognizeFast feeds the whole buffer at once and reads the final result
// when the engine reached a boundary, else the partial one.
func (r *Router) recognizeFast(buf []byte) (Transcript, error) {
	r.fast.Reset()
	if len(buf) == 0 {
		return Transcript{}, nil
	}
	if _, err := r.fast.Accept(buf); err != nil {
		return Transcript{}, err
	}
	return r.fast.Result()
}

func (r *Router) stopSource(ctx context.Context) {
	if err := r.source.Stop(); err != nil {
		r.log.Warn(ctx, "failed to stop audio source", logger.Error(err))
	}
}

func (r *Router) trace(ctx context.Context, s State, fields ...logger.Field) {
	r.log.Debug(ctx, "recognition state", append([]logger.Field{logger.String("state", s.String())}, fields...)...)
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000
}
