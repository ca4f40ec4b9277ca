// Package intent classifies utterances into intent labels with a versioned
// embedding + classifier + label decoder pipeline.
package intent

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/okian/intentiq/internal/adapters/embedding"
	"github.com/okian/intentiq/internal/adapters/repository"
	"github.com/okian/intentiq/internal/domain/classifier"
	"github.com/okian/intentiq/internal/domain/model"
	"github.com/okian/intentiq/pkg/logger"
	"github.com/okian/intentiq/pkg/metrics"
)

// Source bundles what Load needs to build a Recognizer.
type Source struct {
	Store      repository.Store
	Embeddings *embedding.Cache
	Embedding  embedding.Config
}

// Recognizer is an immutable, loaded intent model. Predict is safe for
// concurrent use.
//
// Class index i of the classifier is assumed to mean the i-th class of the
// label encoder; both come from the same training run.
type Recognizer struct {
	family   model.Family
	version  model.Version
	embedder embedding.Provider
	clf      classifier.Classifier
	labels   *classifier.LabelEncoder
	meta     model.Metadata
	log      logger.Logger
}

// Prediction is the outcome of one classification.
type Prediction struct {
	Label string
	Index int
	// Labels is the decoder's class list; Distribution aligns with it and is
	// nil when the classifier has no probability support.
	Labels       []string
	Distribution []float64
}

// Score is one row of a probability table.
type Score struct {
	Label       string  `json:"label"`
	Probability float64 `json:"probability"`
}

// Confidence returns the probability of the predicted label, if known.
func (p Prediction) Confidence() (float64, bool) {
	if p.Distribution == nil || p.Index >= len(p.Distribution) {
		return 0, false
	}
	return p.Distribution[p.Index], true
}

// Aligned reports whether Distribution has one probability per label.
func (p Prediction) Aligned() bool {
	return p.Distribution != nil && len(p.Distribution) == len(p.Labels)
}

// Ranked returns the distribution sorted by probability, highest first. It
// is nil when the distribution is missing or not aligned with Labels.
func (p Prediction) Ranked() []Score {
	if !p.Aligned() {
		return nil
	}
	out := make([]Score, len(p.Distribution))
	for i, prob := range p.Distribution {
		out[i] = Score{Label: p.Labels[i], Probability: prob}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Probability > out[j].Probability })
	return out
}

// Load builds a Recognizer. The embedding provider is obtained first (and
// shared through the cache), then the classifier, then the label decoder,
// then metadata. Classifier or decoder failures are fatal; missing or broken
// metadata only produces a warning.
func Load(ctx context.Context, src Source, family model.Family, version model.Version, opts ...Option) (*Recognizer, error) {
	r := &Recognizer{family: family, log: logger.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.Named("intent")

	rec, err := r.load(ctx, src, version)
	outcome := "ok"
	if err != nil {
		outcome = "error"
		metrics.RecordErrorByComponent("intent", "load")
	}
	metrics.RecordModelLoad(string(family), outcome)
	return rec, err
}

func (r *Recognizer) load(ctx context.Context, src Source, version model.Version) (*Recognizer, error) {
	if src.Store == nil || src.Embeddings == nil {
		return nil, fmt.Errorf("%w: store and embedding cache are required", ErrLoad)
	}
	r.log.Info(ctx, "loading intent model",
		logger.String("family", string(r.family)),
		logger.String("version", version.String()))

	emb, err := src.Embeddings.Get(src.Embedding)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding provider: %v", ErrLoad, err)
	}
	r.embedder = emb
	r.log.Info(ctx, "embedding provider ready", logger.String("model", emb.ModelID()))

	loc, err := src.Store.Resolve(ctx, r.family, version)
	if err != nil {
		return nil, err
	}
	r.version = loc.Version

	set, err := src.Store.ReadArtifacts(ctx, loc)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s %s: %v", ErrLoad, r.family, r.version, err)
	}

	r.clf, err = classifier.Decode(set.Classifier)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s classifier: %v", ErrLoad, r.family, r.version, err)
	}
	r.log.Info(ctx, "classifier loaded", logger.String("path", loc.ClassifierPath), logger.String("kind", r.clf.Kind()))

	r.labels, err = classifier.DecodeLabels(set.LabelEncoder)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s label encoder: %v", ErrLoad, r.family, r.version, err)
	}
	r.log.Info(ctx, "label encoder loaded", logger.String("path", loc.EncoderPath), logger.Int("classes", len(r.labels.Classes)))

	if d := emb.Dim(); d > 0 && d != r.clf.Dim() {
		return nil, fmt.Errorf("%w: %s %s expects %d dimensions, embedding %q yields %d",
			ErrLoad, r.family, r.version, r.clf.Dim(), emb.ModelID(), d)
	}
	if n := len(r.labels.Classes); r.clf.Classes() != n {
		return nil, fmt.Errorf("%w: %s %s classifier has %d classes, label encoder has %d",
			ErrLoad, r.family, r.version, r.clf.Classes(), n)
	}

	meta, err := src.Store.ReadMetadata(ctx, loc)
	switch {
	case err != nil:
		r.log.Warn(ctx, "no usable metadata for model version",
			logger.String("family", string(r.family)),
			logger.String("version", r.version.String()),
			logger.Error(err))
	default:
		r.meta = *meta
		if meta.EmbeddingModel != "" && meta.EmbeddingModel != emb.ModelID() {
			r.log.Warn(ctx, "model was trained with a different embedding model",
				logger.String("trained", meta.EmbeddingModel),
				logger.String("loaded", emb.ModelID()))
		}
	}
	return r, nil
}

// Predict classifies text.
func (r *Recognizer) Predict(ctx context.Context, text string) (Prediction, error) {
	start := time.Now()

	vec, err := r.embedder.Embed(ctx, text)
	if err != nil {
		return Prediction{}, fmt.Errorf("%w: embed: %w", ErrPredict, err)
	}
	if c, n := r.clf.Classes(), len(r.labels.Classes); c != n {
		return Prediction{}, fmt.Errorf("%w: classifier has %d classes, label encoder has %d", ErrPredict, c, n)
	}
	idx, err := r.clf.Predict(vec)
	if err != nil {
		return Prediction{}, fmt.Errorf("%w: classify: %w", ErrPredict, err)
	}
	label, err := r.labels.Decode(idx)
	if err != nil {
		return Prediction{}, fmt.Errorf("%w: decode: %w", ErrPredict, err)
	}

	p := Prediction{Label: label, Index: idx, Labels: r.Labels()}
	if prob, ok := r.clf.(classifier.Probabilistic); ok {
		dist, err := prob.PredictProba(vec)
		if err != nil {
			return Prediction{}, fmt.Errorf("%w: probabilities: %w", ErrPredict, err)
		}
		if len(dist) != len(p.Labels) {
			return Prediction{}, fmt.Errorf("%w: %d probabilities for %d labels", ErrPredict, len(dist), len(p.Labels))
		}
		p.Distribution = dist
	}

	metrics.RecordPrediction(string(r.family), label, float64(time.Since(start).Microseconds())/1000)
	return p, nil
}

// Family returns the loaded family.
func (r *Recognizer) Family() model.Family { return r.family }

// Version returns the resolved version.
func (r *Recognizer) Version() model.Version { return r.version }

// Metadata returns the loaded metadata, empty when none was found.
func (r *Recognizer) Metadata() model.Metadata { return r.meta }

// EmbeddingModel returns the embedding provider's model id.
func (r *Recognizer) EmbeddingModel() string { return r.embedder.ModelID() }

// Labels returns a copy of the decoder's classes.
func (r *Recognizer) Labels() []string {
	out := make([]string, len(r.labels.Classes))
	copy(out, r.labels.Classes)
	return out
}
