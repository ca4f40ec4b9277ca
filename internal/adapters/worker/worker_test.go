package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/intentiq/internal/adapters/worker"
	"github.com/okian/intentiq/internal/domain/intent"
	logging "github.com/okian/intentiq/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

var errUnknown = errors.New("unknown text")

// echoPredictor labels each text with itself and tracks concurrency.
type echoPredictor struct {
	delay   time.Duration
	fail    string
	active  atomic.Int32
	maxSeen atomic.Int32
	calls   atomic.Int32
}

func (p *echoPredictor) Predict(ctx context.Context, text string) (intent.Prediction, error) {
	p.calls.Add(1)
	n := p.active.Add(1)
	defer p.active.Add(-1)
	for {
		m := p.maxSeen.Load()
		if n <= m || p.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	select {
	case <-time.After(p.delay):
	case <-ctx.Done():
		return intent.Prediction{}, ctx.Err()
	}
	if text == p.fail {
		return intent.Prediction{}, errUnknown
	}
	return intent.Prediction{Label: "label-" + text}, nil
}

func texts(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprint(i)
	}
	return out
}

func TestPool(t *testing.T) {
	ctx := context.Background()

	convey.Convey("Given a pool of four workers", t, func() {
		p := &echoPredictor{delay: 5 * time.Millisecond}
		capture := logging.NewCapture()
		pool := worker.NewPool(4, p, capture)
		convey.So(pool.Size(), convey.ShouldEqual, 4)

		convey.Convey("When predicting a batch", func() {
			preds, err := pool.PredictAll(ctx, texts(20))

			convey.Convey("Then results keep input order and work ran in parallel", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(preds, convey.ShouldHaveLength, 20)
				for i, pr := range preds {
					convey.So(pr.Label, convey.ShouldEqual, fmt.Sprintf("label-%d", i))
				}
				convey.So(p.maxSeen.Load(), convey.ShouldBeGreaterThan, 1)
				convey.So(p.maxSeen.Load(), convey.ShouldBeLessThanOrEqualTo, 4)
				convey.So(capture.Count("info"), convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When one prediction fails", func() {
			p.fail = "7"
			preds, err := pool.PredictAll(ctx, texts(200))

			convey.Convey("Then the error names the text and the rest is cancelled", func() {
				convey.So(preds, convey.ShouldBeNil)
				convey.So(errors.Is(err, errUnknown), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "text 8")
				convey.So(p.calls.Load(), convey.ShouldBeLessThan, 200)
			})
		})

		convey.Convey("When the batch is empty", func() {
			preds, err := pool.PredictAll(ctx, nil)
			convey.So(err, convey.ShouldBeNil)
			convey.So(preds, convey.ShouldBeEmpty)
		})

		convey.Convey("When the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := pool.PredictAll(cctx, texts(10))
			convey.So(err, convey.ShouldNotBeNil)
		})
	})

	convey.Convey("Given a pool without an explicit size", t, func() {
		pool := worker.NewPool(0, &echoPredictor{}, nil)
		convey.So(pool.Size(), convey.ShouldBeGreaterThanOrEqualTo, 1)
	})
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a single worker", t, func() {
		w := worker.NewInMemoryWorker(&echoPredictor{}, worker.WithName("solo"))
		jobs := make(chan worker.Job, 2)
		results := make(chan worker.Result, 2)
		jobs <- worker.Job{Index: 0, Text: "a"}
		jobs <- worker.Job{Index: 1, Text: "b"}
		close(jobs)

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Run(context.Background(), jobs, results)
		}()
		wg.Wait()
		close(results)

		var labels []string
		for r := range results {
			convey.So(r.Err, convey.ShouldBeNil)
			labels = append(labels, r.Prediction.Label)
		}
		convey.So(labels, convey.ShouldResemble, []string{"label-a", "label-b"})
	})
}
