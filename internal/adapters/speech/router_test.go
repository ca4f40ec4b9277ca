package speech_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/intentiq/internal/adapters/audio"
	"github.com/okian/intentiq/internal/adapters/speech"
	"github.com/okian/intentiq/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

// scriptedFast returns the same transcript for any audio.
type scriptedFast struct {
	mu        sync.Mutex
	tr        speech.Transcript
	acceptErr error
	accepted  int
}

func (f *scriptedFast) Name() string { return "fast" }

func (f *scriptedFast) Accept(chunk []byte) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accepted += len(chunk)
	return f.tr.Final, f.acceptErr
}

func (f *scriptedFast) Result() (speech.Transcript, error) { return f.tr, nil }
func (f *scriptedFast) Reset()                             {}
func (f *scriptedFast) Close() error                       { return nil }

// boundaryFast reports a boundary every `every` chunks, yielding the next
// scripted text each time.
type boundaryFast struct {
	every  int
	texts  []string
	chunks int
	final  bool
}

func (f *boundaryFast) Name() string { return "fast" }

func (f *boundaryFast) Accept([]byte) (bool, error) {
	f.chunks++
	f.final = f.chunks%f.every == 0
	return f.final, nil
}

func (f *boundaryFast) Result() (speech.Transcript, error) {
	if !f.final || len(f.texts) == 0 {
		return speech.Transcript{}, nil
	}
	text := f.texts[0]
	f.texts = f.texts[1:]
	return speech.Transcript{Text: text, Confidence: 0.9, Final: true}, nil
}

func (f *boundaryFast) Reset()       {}
func (f *boundaryFast) Close() error { return nil }

type fakeAccurate struct {
	text    string
	err     error
	calls   int
	samples int
}

func (f *fakeAccurate) Name() string { return "accurate" }

func (f *fakeAccurate) Transcribe(_ context.Context, samples []float32) (string, error) {
	f.calls++
	f.samples = len(samples)
	return f.text, f.err
}

func (f *fakeAccurate) Close() error { return nil }

func seconds(s float64) []byte {
	return make([]byte, int(s*audio.DefaultSampleRate)*audio.BytesPerSample)
}

func TestRouterTranscribe(t *testing.T) {
	ctx := context.Background()

	Convey("Given half a second of audio", t, func() {
		src := audio.NewReplay(seconds(0.5))
		accurate := &fakeAccurate{text: " set a timer for ten minutes "}
		capture := logger.NewCapture()

		Convey("When the fast result is short and confident", func() {
			fast := &scriptedFast{tr: speech.Transcript{Text: "lights on", Confidence: 0.9, Final: true}}
			r, err := speech.NewRouter(fast, accurate, src)
			So(err, ShouldBeNil)

			res, err := r.Transcribe(ctx, 3*time.Second)

			Convey("Then it is accepted without escalation", func() {
				So(err, ShouldBeNil)
				So(res.Text, ShouldEqual, "lights on")
				So(res.HasConfidence(), ShouldBeTrue)
				So(*res.Confidence, ShouldEqual, 0.9)
				So(res.Engine, ShouldEqual, "fast")
				So(res.Escalated, ShouldBeFalse)
				So(res.ID, ShouldNotBeEmpty)
				So(accurate.calls, ShouldEqual, 0)
				So(len(res.Audio), ShouldEqual, len(seconds(0.5)))
				So(fast.accepted, ShouldEqual, len(res.Audio))
			})
		})

		Convey("When the fast result is too long", func() {
			fast := &scriptedFast{tr: speech.Transcript{Text: "set a timer for ten", Confidence: 0.95, Final: true}}
			r, _ := speech.NewRouter(fast, accurate, src)

			res, err := r.Transcribe(ctx, 3*time.Second)

			Convey("Then the same buffer goes to the accurate engine once", func() {
				So(err, ShouldBeNil)
				So(accurate.calls, ShouldEqual, 1)
				So(accurate.samples, ShouldEqual, len(res.Audio)/audio.BytesPerSample)
				So(res.Text, ShouldEqual, "set a timer for ten minutes")
				So(res.HasConfidence(), ShouldBeFalse)
				So(res.Escalated, ShouldBeTrue)
				So(res.Engine, ShouldEqual, "accurate")
			})
		})

		Convey("When the fast result has low confidence", func() {
			fast := &scriptedFast{tr: speech.Transcript{Text: "lights", Confidence: 0.5, Final: true}}
			r, _ := speech.NewRouter(fast, accurate, src)
			res, err := r.Transcribe(ctx, 3*time.Second)
			So(err, ShouldBeNil)
			So(res.Escalated, ShouldBeTrue)
			So(accurate.calls, ShouldEqual, 1)
		})

		Convey("When the fast engine only has a partial hypothesis", func() {
			fast := &scriptedFast{tr: speech.Transcript{Text: "lights"}}
			r, _ := speech.NewRouter(fast, accurate, src)
			res, err := r.Transcribe(ctx, 3*time.Second)
			So(err, ShouldBeNil)
			So(res.Escalated, ShouldBeTrue)
		})

		Convey("When the accurate engine fails", func() {
			fast := &scriptedFast{tr: speech.Transcript{Text: "one two three four", Confidence: 1, Final: true}}
			failing := &fakeAccurate{err: errors.New("model crashed")}
			r, _ := speech.NewRouter(fast, failing, src, speech.WithLogger(capture))

			res, err := r.Transcribe(ctx, 3*time.Second)

			Convey("Then the result is empty and the failure is only logged", func() {
				So(err, ShouldBeNil)
				So(res.Text, ShouldBeEmpty)
				So(res.Empty(), ShouldBeTrue)
				So(failing.calls, ShouldEqual, 1)
				So(capture.Count("error"), ShouldEqual, 1)
			})
		})

		Convey("When there is no accurate engine", func() {
			fast := &scriptedFast{tr: speech.Transcript{Text: "one two three four", Confidence: 1, Final: true}}
			r, _ := speech.NewRouter(fast, nil, src, speech.WithLogger(capture))
			res, err := r.Transcribe(ctx, 3*time.Second)
			So(err, ShouldBeNil)
			So(res.Empty(), ShouldBeTrue)
			So(capture.Count("error"), ShouldEqual, 1)
		})

		Convey("When the fast engine fails", func() {
			fast := &scriptedFast{acceptErr: errors.New("decoder")}
			r, _ := speech.NewRouter(fast, accurate, src)
			res, err := r.Transcribe(ctx, 3*time.Second)
			So(err, ShouldBeNil)
			So(res.Escalated, ShouldBeTrue)
			So(res.Text, ShouldEqual, "set a timer for ten minutes")
		})
	})

	Convey("Given more audio than one capture window", t, func() {
		src := audio.NewReplay(seconds(1.5), audio.WithBlockSize(2000))
		fast := &scriptedFast{tr: speech.Transcript{Text: "ok", Confidence: 1, Final: true}}
		r, _ := speech.NewRouter(fast, nil, src)

		Convey("Then each capture is bounded by audio time and the source runs dry", func() {
			first, err := r.Transcribe(ctx, time.Second)
			So(err, ShouldBeNil)
			So(len(first.Audio), ShouldEqual, len(seconds(1)))

			second, err := r.Transcribe(ctx, time.Second)
			So(err, ShouldBeNil)
			So(len(second.Audio), ShouldEqual, len(seconds(0.5)))
			So(first.ID, ShouldNotBeEmpty)
			So(second.ID, ShouldNotEqual, first.ID)

			_, err = r.Transcribe(ctx, time.Second)
			So(errors.Is(err, audio.ErrStopped), ShouldBeTrue)
		})
	})

	Convey("Given a cancelled context", t, func() {
		src := audio.NewReplay(seconds(1), audio.WithPacing(true))
		fast := &scriptedFast{}
		r, _ := speech.NewRouter(fast, nil, src)
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := r.Transcribe(cctx, time.Second)
		So(errors.Is(err, context.Canceled), ShouldBeTrue)
	})

	Convey("Construction requires a fast engine and a source", t, func() {
		_, err := speech.NewRouter(nil, &fakeAccurate{}, audio.NewReplay(nil))
		So(errors.Is(err, speech.ErrNoFastEngine), ShouldBeTrue)

		_, err = speech.NewRouter(&scriptedFast{}, nil, nil)
		So(errors.Is(err, speech.ErrNotConfigured), ShouldBeTrue)
	})
}

func TestRouterListen(t *testing.T) {
	ctx := context.Background()

	Convey("Given a fast engine whose first boundary is silence", t, func() {
		src := audio.NewReplay(seconds(1), audio.WithBlockSize(1000))
		fast := &boundaryFast{every: 2, texts: []string{"", "hello there"}}
		r, _ := speech.NewRouter(fast, &fakeAccurate{}, src)

		res, err := r.Listen(ctx)

		Convey("Then the first non-empty utterance is returned", func() {
			So(err, ShouldBeNil)
			So(res.Text, ShouldEqual, "hello there")
			So(res.ID, ShouldNotBeEmpty)
			So(res.Escalated, ShouldBeFalse)
			So(fast.chunks, ShouldEqual, 4)
			So(len(res.Audio), ShouldEqual, 2*audio.ChunkBytes(1000))
		})

		Convey("Then the rest of the audio is still available", func() {
			So(src.Remaining(), ShouldEqual, len(seconds(1))-4*audio.ChunkBytes(1000))
		})
	})

	Convey("Given audio without any boundary", t, func() {
		src := audio.NewReplay(seconds(0.25))
		r, _ := speech.NewRouter(&boundaryFast{every: 1000}, nil, src)
		_, err := r.Listen(ctx)
		So(errors.Is(err, audio.ErrStopped), ShouldBeTrue)
	})
}

func TestPolicy(t *testing.T) {
	Convey("Given the default policy", t, func() {
		p := speech.DefaultPolicy()
		So(p.ShortCommandMaxWords, ShouldEqual, 3)
		So(p.LowConfidenceThreshold, ShouldEqual, 0.75)

		So(p.Accept("turn on lights", 0.75), ShouldBeTrue)
		So(p.Accept("turn on the lights", 0.99), ShouldBeFalse)
		So(p.Accept("lights", 0.74), ShouldBeFalse)
		So(p.Accept("", 0.8), ShouldBeTrue)
		So(speech.WordCount("  a\tb  c\n"), ShouldEqual, 3)
	})

	Convey("States have stable names", t, func() {
		So(speech.StateEscalate.String(), ShouldEqual, "ESCALATE")
		So(speech.StateAccurateResult.String(), ShouldEqual, "ACCURATE_RESULT")
	})
}

func TestParseResult(t *testing.T) {
	Convey("Given Vosk results", t, func() {
		Convey("A final result averages word confidences", func() {
			tr, err := speech.ParseResult(`{"result":[{"conf":1.0,"word":"lights"},{"conf":0.5,"word":"on"}],"text":"lights on"}`)
			So(err, ShouldBeNil)
			So(tr.Text, ShouldEqual, "lights on")
			So(tr.Confidence, ShouldEqual, 0.75)
			So(tr.Final, ShouldBeTrue)
		})

		Convey("A final result without words has zero confidence", func() {
			tr, err := speech.ParseResult(`{"text" : "hello"}`)
			So(err, ShouldBeNil)
			So(tr.Final, ShouldBeTrue)
			So(tr.Confidence, ShouldEqual, 0)
		})

		Convey("A partial result has zero confidence", func() {
			tr, err := speech.ParseResult(`{"partial" : "hel"}`)
			So(err, ShouldBeNil)
			So(tr.Text, ShouldEqual, "hel")
			So(tr.Final, ShouldBeFalse)
			So(tr.Confidence, ShouldEqual, 0)
		})

		Convey("Malformed JSON is a recognition error", func() {
			_, err := speech.ParseResult(`{"text":`)
			So(errors.Is(err, speech.ErrRecognition), ShouldBeTrue)
		})
	})
}
