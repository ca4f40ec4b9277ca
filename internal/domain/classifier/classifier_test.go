package classifier_test

import (
	"errors"
	"testing"

	"github.com/okian/intentiq/internal/domain/classifier"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/vmihailenco/msgpack/v5"
)

// three classes over a 2-d input; class i fires on the i-th axis or on neither.
func threeWayLogistic() *classifier.Logistic {
	return &classifier.Logistic{
		Weights: [][]float64{{4, 0}, {0, 4}, {-2, -2}},
		Bias:    []float64{0, 0, 1},
	}
}

func TestLogistic(t *testing.T) {
	Convey("Given a three class logistic model", t, func() {
		lr := threeWayLogistic()

		Convey("When predicting along the second axis", func() {
			idx, err := lr.Predict([]float32{0, 1})
			proba, perr := lr.PredictProba([]float32{0, 1})

			Convey("Then it should pick class 1 with a normalized distribution", func() {
				So(err, ShouldBeNil)
				So(perr, ShouldBeNil)
				So(idx, ShouldEqual, 1)
				So(len(proba), ShouldEqual, 3)
				So(proba[0]+proba[1]+proba[2], ShouldAlmostEqual, 1.0, 1e-9)
				So(proba[1], ShouldBeGreaterThan, proba[0])
			})
		})

		Convey("When the input has the wrong dimension", func() {
			_, err := lr.Predict([]float32{1, 2, 3})
			So(errors.Is(err, classifier.ErrDimension), ShouldBeTrue)
		})

		Convey("When the model is binary with a single weight row", func() {
			bin := &classifier.Logistic{Weights: [][]float64{{1, 0}}, Bias: []float64{0}}
			proba, err := bin.PredictProba([]float32{3, 0})
			So(err, ShouldBeNil)
			So(bin.Classes(), ShouldEqual, 2)
			So(len(proba), ShouldEqual, 2)
			So(proba[1], ShouldBeGreaterThan, 0.9)
		})
	})
}

func TestLinearSVC(t *testing.T) {
	Convey("Given a linear SVC", t, func() {
		svc := &classifier.LinearSVC{Weights: [][]float64{{1, -1}, {-1, 1}}, Bias: []float64{0, 0}}

		Convey("Then it predicts without being probabilistic", func() {
			idx, err := svc.Predict([]float32{0, 2})
			So(err, ShouldBeNil)
			So(idx, ShouldEqual, 1)

			var c classifier.Classifier = svc
			_, ok := c.(classifier.Probabilistic)
			So(ok, ShouldBeFalse)
		})

		Convey("When binary it should use the sign of the decision function", func() {
			bin := &classifier.LinearSVC{Weights: [][]float64{{1}}, Bias: []float64{-0.5}}
			neg, _ := bin.Predict([]float32{0})
			pos, _ := bin.Predict([]float32{1})
			So(neg, ShouldEqual, 0)
			So(pos, ShouldEqual, 1)
		})
	})
}

func TestMLP(t *testing.T) {
	Convey("Given a two layer MLP", t, func() {
		mlp := &classifier.MLP{Layers: []classifier.Layer{
			{Weights: [][]float64{{1, 0}, {0, 1}}, Bias: []float64{0, 0}},
			{Weights: [][]float64{{2, 0}, {0, 2}}, Bias: []float64{0, 0}},
		}}

		Convey("Then the hidden ReLU feeds a softmax head", func() {
			proba, err := mlp.PredictProba([]float32{1, -1})
			So(err, ShouldBeNil)
			So(proba[0], ShouldBeGreaterThan, proba[1])
			So(mlp.Dim(), ShouldEqual, 2)
			So(mlp.Classes(), ShouldEqual, 2)
		})

		Convey("When there are no layers", func() {
			_, err := (&classifier.MLP{}).PredictProba([]float32{1})
			So(errors.Is(err, classifier.ErrMalformed), ShouldBeTrue)
		})
	})
}

func TestCodec(t *testing.T) {
	Convey("Given encoded classifiers", t, func() {
		for _, c := range []classifier.Classifier{
			threeWayLogistic(),
			&classifier.LinearSVC{Weights: [][]float64{{1, 0}, {0, 1}}, Bias: []float64{0, 0}},
			&classifier.MLP{Layers: []classifier.Layer{{Weights: [][]float64{{1, 1}, {1, -1}}, Bias: []float64{0, 0}}}},
		} {
			blob, err := classifier.Encode(c)
			So(err, ShouldBeNil)

			back, err := classifier.Decode(blob)
			So(err, ShouldBeNil)
			So(back.Kind(), ShouldEqual, c.Kind())

			want, _ := c.Predict([]float32{1, 0})
			got, _ := back.Predict([]float32{1, 0})
			So(got, ShouldEqual, want)
		}

		Convey("When the kind is unknown", func() {
			blob, _ := msgpack.Marshal(map[string]interface{}{"kind": "forest", "payload": []byte{0xc0}})
			_, err := classifier.Decode(blob)
			So(errors.Is(err, classifier.ErrUnknownKind), ShouldBeTrue)
		})

		Convey("When the blob is garbage", func() {
			_, err := classifier.Decode([]byte("not msgpack at all"))
			So(err, ShouldNotBeNil)
		})
	})
}

func TestLabelEncoder(t *testing.T) {
	Convey("Given training labels", t, func() {
		var enc classifier.LabelEncoder
		targets := enc.Fit([]string{"weather", "greet", "exit", "greet"})

		Convey("Then classes are sorted and targets index into them", func() {
			So(enc.Classes, ShouldResemble, []string{"exit", "greet", "weather"})
			So(targets, ShouldResemble, []int{2, 1, 0, 1})

			label, err := enc.Decode(1)
			So(err, ShouldBeNil)
			So(label, ShouldEqual, "greet")

			idx, ok := enc.Index("weather")
			So(ok, ShouldBeTrue)
			So(idx, ShouldEqual, 2)
		})

		Convey("When decoding out of range", func() {
			_, err := enc.Decode(3)
			So(errors.Is(err, classifier.ErrIndex), ShouldBeTrue)
		})

		Convey("When serialized and restored", func() {
			blob, err := classifier.EncodeLabels(&enc)
			So(err, ShouldBeNil)
			back, err := classifier.DecodeLabels(blob)
			So(err, ShouldBeNil)
			So(back.Classes, ShouldResemble, enc.Classes)
		})

		Convey("When the blob holds no classes", func() {
			blob, _ := classifier.EncodeLabels(&classifier.LabelEncoder{})
			_, err := classifier.DecodeLabels(blob)
			So(errors.Is(err, classifier.ErrMalformed), ShouldBeTrue)
		})
	})
}
