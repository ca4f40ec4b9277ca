package intent

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/intentiq/internal/adapters/embedding"
	"github.com/okian/intentiq/internal/domain/classifier"
	"github.com/okian/intentiq/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

// wideProba claims two classes but returns three probabilities.
type wideProba struct{ dim int }

func (w wideProba) Kind() string                   { return "wide" }
func (w wideProba) Dim() int                       { return w.dim }
func (w wideProba) Classes() int                   { return 2 }
func (w wideProba) Predict([]float32) (int, error) { return 0, nil }
func (w wideProba) PredictProba([]float32) ([]float64, error) {
	return []float64{0.5, 0.3, 0.2}, nil
}

func newRecognizer(t *testing.T, clf classifier.Classifier) *Recognizer {
	t.Helper()
	h, err := embedding.NewHashing("hashing-test", 16)
	if err != nil {
		t.Fatal(err)
	}
	var enc classifier.LabelEncoder
	enc.Fit([]string{"exit", "time"})
	return &Recognizer{family: "LR", version: 1, embedder: h, clf: clf, labels: &enc, log: logger.NewNop()}
}

func TestPredictShapeChecks(t *testing.T) {
	ctx := context.Background()

	Convey("Given a classifier with more rows than the decoder has labels", t, func() {
		rows := [][]float64{make([]float64, 16), make([]float64, 16), make([]float64, 16)}
		r := newRecognizer(t, &classifier.Logistic{Weights: rows, Bias: make([]float64, 3)})

		var err error
		So(func() { _, err = r.Predict(ctx, "what time is it") }, ShouldNotPanic)
		So(errors.Is(err, ErrPredict), ShouldBeTrue)
	})

	Convey("Given a classifier whose distribution is wider than the labels", t, func() {
		r := newRecognizer(t, wideProba{dim: 16})

		_, err := r.Predict(ctx, "what time is it")
		So(errors.Is(err, ErrPredict), ShouldBeTrue)
		So(err.Error(), ShouldContainSubstring, "3 probabilities for 2 labels")
	})
}
