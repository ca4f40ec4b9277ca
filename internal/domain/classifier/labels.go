package classifier

import (
	"fmt"
	"sort"

	"github.com/vmihailenco/msgpack/v5"
)

// LabelEncoder maps class indices to intent labels. Classes are sorted, so
// index i is the i-th label in lexical order.
type LabelEncoder struct {
	Classes []string `msgpack:"classes"`
}

// Fit learns the sorted unique labels and returns the encoded targets.
func (e *LabelEncoder) Fit(labels []string) []int {
	seen := make(map[string]struct{}, len(labels))
	e.Classes = e.Classes[:0]
	for _, l := range labels {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		e.Classes = append(e.Classes, l)
	}
	sort.Strings(e.Classes)

	out := make([]int, len(labels))
	for i, l := range labels {
		out[i] = sort.SearchStrings(e.Classes, l)
	}
	return out
}

// Decode returns the label for class index i.
func (e *LabelEncoder) Decode(i int) (string, error) {
	if i < 0 || i >= len(e.Classes) {
		return "", fmt.Errorf("%w: %d of %d", ErrIndex, i, len(e.Classes))
	}
	return e.Classes[i], nil
}

// Index returns the class index of label.
func (e *LabelEncoder) Index(label string) (int, bool) {
	i := sort.SearchStrings(e.Classes, label)
	if i < len(e.Classes) && e.Classes[i] == label {
		return i, true
	}
	return 0, false
}

// EncodeLabels serializes the encoder.
func EncodeLabels(e *LabelEncoder) ([]byte, error) {
	return msgpack.Marshal(e)
}

// DecodeLabels restores an encoder written by EncodeLabels.
func DecodeLabels(blob []byte) (*LabelEncoder, error) {
	var e LabelEncoder
	if err := msgpack.Unmarshal(blob, &e); err != nil {
		return nil, fmt.Errorf("%w: label encoder: %v", ErrMalformed, err)
	}
	if len(e.Classes) == 0 {
		return nil, fmt.Errorf("%w: label encoder without classes", ErrMalformed)
	}
	return &e, nil
}
