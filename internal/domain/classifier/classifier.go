// Package classifier holds the inference side of the supported classifier
// families. Training happens elsewhere; this package only decodes saved
// parameters and predicts class indices from embedding vectors.
package classifier

import (
	"fmt"
	"math"
)

// Kinds stored in the blob envelope.
const (
	KindLogistic  = "logistic"
	KindLinearSVC = "linear_svc"
	KindMLP       = "mlp"
)

// Classifier maps a feature vector to a class index.
type Classifier interface {
	Kind() string
	Dim() int
	Classes() int
	Predict(x []float32) (int, error)
}

// Probabilistic classifiers also expose the per-class distribution.
type Probabilistic interface {
	Classifier
	PredictProba(x []float32) ([]float64, error)
}

// Logistic is a multinomial (or binary, one weight row) logistic regression.
type Logistic struct {
	Weights [][]float64 `msgpack:"weights"`
	Bias    []float64   `msgpack:"bias"`
}

func (l *Logistic) Kind() string { return KindLogistic }
func (l *Logistic) Dim() int     { return rowDim(l.Weights) }
func (l *Logistic) Classes() int { return binaryAware(len(l.Weights)) }

func (l *Logistic) Predict(x []float32) (int, error) {
	p, err := l.PredictProba(x)
	if err != nil {
		return 0, err
	}
	return argmax(p), nil
}

func (l *Logistic) PredictProba(x []float32) ([]float64, error) {
	scores, err := linear(l.Weights, l.Bias, x)
	if err != nil {
		return nil, err
	}
	if len(scores) == 1 {
		p := sigmoid(scores[0])
		return []float64{1 - p, p}, nil
	}
	return softmax(scores), nil
}

// LinearSVC is a one-vs-rest linear support vector classifier. It has no
// calibrated probabilities.
type LinearSVC struct {
	Weights [][]float64 `msgpack:"weights"`
	Bias    []float64   `msgpack:"bias"`
}

func (s *LinearSVC) Kind() string { return KindLinearSVC }
func (s *LinearSVC) Dim() int     { return rowDim(s.Weights) }
func (s *LinearSVC) Classes() int { return binaryAware(len(s.Weights)) }

func (s *LinearSVC) Predict(x []float32) (int, error) {
	scores, err := linear(s.Weights, s.Bias, x)
	if err != nil {
		return 0, err
	}
	if len(scores) == 1 {
		if scores[0] > 0 {
			return 1, nil
		}
		return 0, nil
	}
	return argmax(scores), nil
}

// Layer is one dense layer; Weights is out x in.
type Layer struct {
	Weights [][]float64 `msgpack:"weights"`
	Bias    []float64   `msgpack:"bias"`
}

// MLP is a feed-forward network with ReLU hidden layers and a softmax
// (or logistic, for a single output unit) head.
type MLP struct {
	Layers []Layer `msgpack:"layers"`
}

func (m *MLP) Kind() string { return KindMLP }

func (m *MLP) Dim() int {
	if len(m.Layers) == 0 {
		return 0
	}
	return rowDim(m.Layers[0].Weights)
}

func (m *MLP) Classes() int {
	if len(m.Layers) == 0 {
		return 0
	}
	return binaryAware(len(m.Layers[len(m.Layers)-1].Weights))
}

func (m *MLP) Predict(x []float32) (int, error) {
	p, err := m.PredictProba(x)
	if err != nil {
		return 0, err
	}
	return argmax(p), nil
}

func (m *MLP) PredictProba(x []float32) ([]float64, error) {
	if len(m.Layers) == 0 {
		return nil, fmt.Errorf("%w: mlp without layers", ErrMalformed)
	}
	act := x
	var out []float64
	for i, layer := range m.Layers {
		z, err := linear(layer.Weights, layer.Bias, act)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		if i == len(m.Layers)-1 {
			out = z
			break
		}
		next := make([]float32, len(z))
		for j, v := range z {
			if v > 0 {
				next[j] = float32(v)
			}
		}
		act = next
	}
	if len(out) == 1 {
		p := sigmoid(out[0])
		return []float64{1 - p, p}, nil
	}
	return softmax(out), nil
}

func linear(w [][]float64, b []float64, x []float32) ([]float64, error) {
	if len(w) == 0 {
		return nil, fmt.Errorf("%w: no weights", ErrMalformed)
	}
	if len(b) != len(w) {
		return nil, fmt.Errorf("%w: %d bias terms for %d rows", ErrMalformed, len(b), len(w))
	}
	out := make([]float64, len(w))
	for i, row := range w {
		if len(row) != len(x) {
			return nil, fmt.Errorf("%w: want %d got %d", ErrDimension, len(row), len(x))
		}
		s := b[i]
		for j, v := range row {
			s += v * float64(x[j])
		}
		out[i] = s
	}
	return out, nil
}

func rowDim(w [][]float64) int {
	if len(w) == 0 {
		return 0
	}
	return len(w[0])
}

// binaryAware reports class count; a single output row encodes two classes.
func binaryAware(rows int) int {
	if rows == 1 {
		return 2
	}
	return rows
}

func softmax(z []float64) []float64 {
	maxZ := math.Inf(-1)
	for _, v := range z {
		if v > maxZ {
			maxZ = v
		}
	}
	out := make([]float64, len(z))
	var sum float64
	for i, v := range z {
		out[i] = math.Exp(v - maxZ)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

func sigmoid(v float64) float64 { return 1 / (1 + math.Exp(-v)) }

func argmax(v []float64) int {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}
