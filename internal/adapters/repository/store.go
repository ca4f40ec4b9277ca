// Package repository stores versioned classifier artifacts per family.
package repository

import (
	"context"

	"github.com/okian/intentiq/internal/domain/model"
)

// Store provides versioned access to classifier artifact sets.
type Store interface {
	// Families returns the configured families in sorted order.
	Families() []model.Family

	// ListVersions returns the saved versions of family in ascending order.
	// Returns ErrNotFound for an unconfigured family and an empty slice when
	// nothing has been saved yet.
	ListVersions(ctx context.Context, family model.Family) ([]model.Version, error)

	// Resolve locates an explicit version, or the newest one for model.Latest.
	// Returns ErrNotFound when the classifier or label encoder is missing.
	Resolve(ctx context.Context, family model.Family, version model.Version) (model.Locator, error)

	// NextVersion returns max(existing)+1, or 1 for an empty family.
	NextVersion(ctx context.Context, family model.Family) (model.Version, error)

	// Save writes set as a new version and returns it.
	Save(ctx context.Context, family model.Family, set model.ArtifactSet) (model.Version, error)

	// ReadArtifacts loads the classifier and label encoder blobs.
	ReadArtifacts(ctx context.Context, loc model.Locator) (model.ArtifactSet, error)

	// ReadMetadata loads the metadata of a located version.
	ReadMetadata(ctx context.Context, loc model.Locator) (*model.Metadata, error)
}
