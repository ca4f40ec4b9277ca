package intent

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/okian/intentiq/internal/domain/textnorm"
)

// Predictor is the part of Recognizer that evaluation needs.
type Predictor interface {
	Predict(ctx context.Context, text string) (Prediction, error)
}

// Sample is one labelled utterance.
type Sample struct {
	Text   string
	Intent string
}

// LabelStats holds per-label evaluation figures.
type LabelStats struct {
	Support   int
	Predicted int
	Correct   int
}

// Precision is correct / predicted.
func (s LabelStats) Precision() float64 { return ratio(s.Correct, s.Predicted) }

// Recall is correct / support.
func (s LabelStats) Recall() float64 { return ratio(s.Correct, s.Support) }

// F1 is the harmonic mean of precision and recall.
func (s LabelStats) F1() float64 {
	p, r := s.Precision(), s.Recall()
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}

// Report summarizes an evaluation run.
type Report struct {
	Total    int
	Correct  int
	Labels   []string
	PerLabel map[string]LabelStats
	// Confusion[actual][predicted] counts samples.
	Confusion map[string]map[string]int
}

// Accuracy is correct / total.
func (r Report) Accuracy() float64 { return ratio(r.Correct, r.Total) }

// Evaluate predicts every sample and compares with its label.
func Evaluate(ctx context.Context, p Predictor, samples []Sample) (Report, error) {
	if len(samples) == 0 {
		return Report{}, fmt.Errorf("%w: no samples", ErrDataset)
	}
	preds := make([]Prediction, len(samples))
	for i, s := range samples {
		if err := ctx.Err(); err != nil {
			return Report{}, err
		}
		pred, err := p.Predict(ctx, s.Text)
		if err != nil {
			return Report{}, fmt.Errorf("sample %d: %w", i+1, err)
		}
		preds[i] = pred
	}
	return Tally(samples, preds)
}

// Tally compares predictions made elsewhere with the sample labels;
// preds[i] belongs to samples[i].
func Tally(samples []Sample, preds []Prediction) (Report, error) {
	if len(samples) == 0 {
		return Report{}, fmt.Errorf("%w: no samples", ErrDataset)
	}
	if len(preds) != len(samples) {
		return Report{}, fmt.Errorf("%w: %d predictions for %d samples", ErrDataset, len(preds), len(samples))
	}
	rep := Report{
		PerLabel:  make(map[string]LabelStats),
		Confusion: make(map[string]map[string]int),
	}
	for i, s := range samples {
		pred := preds[i]
		rep.Total++
		actual := rep.PerLabel[s.Intent]
		actual.Support++
		if pred.Label == s.Intent {
			rep.Correct++
			actual.Correct++
		}
		rep.PerLabel[s.Intent] = actual

		predicted := rep.PerLabel[pred.Label]
		predicted.Predicted++
		rep.PerLabel[pred.Label] = predicted

		row := rep.Confusion[s.Intent]
		if row == nil {
			row = make(map[string]int)
			rep.Confusion[s.Intent] = row
		}
		row[pred.Label]++
	}
	for l := range rep.PerLabel {
		rep.Labels = append(rep.Labels, l)
	}
	sort.Strings(rep.Labels)
	return rep, nil
}

// Write renders the report as aligned text.
func (r Report) Write(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "accuracy\t%.4f\t(%d/%d)\n\n", r.Accuracy(), r.Correct, r.Total)
	fmt.Fprintln(tw, "label\tprecision\trecall\tf1\tsupport")
	for _, l := range r.Labels {
		s := r.PerLabel[l]
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%.2f\t%d\n", l, s.Precision(), s.Recall(), s.F1(), s.Support)
	}
	fmt.Fprintln(tw)

	fmt.Fprint(tw, "actual \\ predicted")
	for _, l := range r.Labels {
		fmt.Fprintf(tw, "\t%s", l)
	}
	fmt.Fprintln(tw)
	for _, a := range r.Labels {
		fmt.Fprint(tw, a)
		for _, p := range r.Labels {
			fmt.Fprintf(tw, "\t%d", r.Confusion[a][p])
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

// LoadSamplesCSV reads a dataset with "text" and "intent" columns. Each text
// goes through pre (when non-nil) and rows that end up empty are dropped,
// matching how training data is prepared.
func LoadSamplesCSV(r io.Reader, pre *textnorm.Preprocessor) ([]Sample, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrDataset, err)
	}
	textCol, intentCol := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "text":
			textCol = i
		case "intent":
			intentCol = i
		}
	}
	if textCol < 0 || intentCol < 0 {
		return nil, fmt.Errorf("%w: need text and intent columns, got %v", ErrDataset, header)
	}

	var out []Sample
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrDataset, line, err)
		}
		if textCol >= len(rec) || intentCol >= len(rec) {
			continue
		}
		text := rec[textCol]
		if pre != nil {
			_, text = pre.Process(text)
		}
		label := strings.TrimSpace(rec[intentCol])
		if strings.TrimSpace(text) == "" || label == "" {
			continue
		}
		out = append(out, Sample{Text: text, Intent: label})
	}
	return out, nil
}

func ratio(a, b int) float64 {
	if b == 0 {
		return 0
	}
	return float64(a) / float64(b)
}
