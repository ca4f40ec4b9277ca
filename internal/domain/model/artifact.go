// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"
)

// Family names an interchangeable classifier family. Each family maps to
// exactly one storage directory.
type Family string

// Known families.
const (
	FamilyLR        Family = "LR"
	FamilySVC       Family = "SVC"
	FamilyNeuralNet Family = "NeuralNet"
)

// Version is a positive, per-family artifact version. Latest (0) asks the
// store for the newest saved version.
type Version int

// Latest requests the highest saved version.
const Latest Version = 0

// String renders the version the way file names carry it.
func (v Version) String() string {
	if v == Latest {
		return "latest"
	}
	return fmt.Sprintf("v%d", int(v))
}

// ParseVersion accepts "latest", "", "3" or "v3".
func ParseVersion(s string) (Version, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" || s == "latest" {
		return Latest, nil
	}
	s = strings.TrimPrefix(s, "v")
	var n int
	if _, err := fmt.Sscanf(s, "%d", &n); err != nil || n <= 0 || fmt.Sprint(n) != s {
		return Latest, fmt.Errorf("invalid version %q", s)
	}
	return Version(n), nil
}

// Metadata describes a saved artifact set. Field order is the on-disk order.
type Metadata struct {
	ModelType      string `json:"model_type"`
	Version        int    `json:"version"`
	Samples        int    `json:"samples"`
	UniqueLabels   int    `json:"unique_labels"`
	EmbeddingModel string `json:"embedding_model"`
	DatasetUsed    string `json:"dataset_used"`
}

// ArtifactSet is what a training run produces and what a load consumes.
// Classifier and LabelEncoder always belong to the same version.
type ArtifactSet struct {
	Classifier   []byte
	LabelEncoder []byte
	Metadata     Metadata
}

// Locator addresses one resolved version of a family on disk.
type Locator struct {
	Family         Family
	Version        Version
	ClassifierPath string
	EncoderPath    string
	MetadataPath   string
}
