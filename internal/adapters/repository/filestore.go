package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/gofrs/flock"

	"github.com/okian/intentiq/internal/domain/model"
	"github.com/okian/intentiq/pkg/logger"
	"github.com/okian/intentiq/pkg/metrics"
)

// Defaults for the file store.
const (
	DefaultExtension = "msgpack"
	defaultLockRetry = 50 * time.Millisecond
	lockFileName     = ".save.lock"
	metadataIndent   = "    "
	filePerm         = 0o644
	dirPerm          = 0o755
)

// FileStore keeps each family in its own directory:
//
//	classifier_v<N>.<ext>
//	label_encoder_v<N>.<ext>
//	metadata_v<N>.json
//
// Versions are never overwritten. Saves from concurrent processes are
// serialized by a lock file in the family directory.
type FileStore struct {
	dirs      map[model.Family]string
	ext       string
	lockRetry time.Duration
	log       logger.Logger
	pattern   *regexp.Regexp
}

var _ Store = (*FileStore)(nil)

// NewFileStore builds a store rooted at root. families maps each family to
// its directory; relative directories are resolved against root.
func NewFileStore(root string, families map[string]string, opts ...Option) (*FileStore, error) {
	if len(families) == 0 {
		return nil, fmt.Errorf("%w: no families configured", ErrInvalidFamily)
	}
	s := &FileStore{
		dirs:      make(map[model.Family]string, len(families)),
		ext:       DefaultExtension,
		lockRetry: defaultLockRetry,
		log:       logger.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	for name, dir := range families {
		if name == "" || dir == "" {
			return nil, fmt.Errorf("%w: empty family name or directory", ErrInvalidFamily)
		}
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(root, dir)
		}
		s.dirs[model.Family(name)] = dir
	}
	ext := regexp.QuoteMeta(s.ext)
	s.pattern = regexp.MustCompile(`^(classifier|label_encoder)_v(\d+)\.` + ext + `$|^(metadata)_v(\d+)\.json$`)
	return s, nil
}

// Families returns the configured families in sorted order.
func (s *FileStore) Families() []model.Family {
	out := make([]model.Family, 0, len(s.dirs))
	for f := range s.dirs {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Dir returns the directory backing family.
func (s *FileStore) Dir(family model.Family) (string, error) {
	dir, ok := s.dirs[family]
	if !ok {
		return "", fmt.Errorf("%w: unknown family %q", ErrNotFound, family)
	}
	return dir, nil
}

// ListVersions returns the complete versions of family in ascending order.
// A version is complete once both its classifier and label encoder exist.
func (s *FileStore) ListVersions(ctx context.Context, family model.Family) ([]model.Version, error) {
	files, err := s.scan(ctx, family)
	if err != nil {
		return nil, err
	}
	versions := make([]model.Version, 0, len(files))
	for v, kinds := range files {
		if kinds&(hasClassifier|hasEncoder) == hasClassifier|hasEncoder {
			versions = append(versions, v)
		}
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i] < versions[j] })
	return versions, nil
}

const (
	hasClassifier = 1 << iota
	hasEncoder
	hasMetadata
)

// scan maps every version number found in the family directory to the
// artifact kinds present for it, complete or not.
func (s *FileStore) scan(ctx context.Context, family model.Family) (map[model.Version]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dir, err := s.Dir(family)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return map[model.Version]int{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", family, err)
	}

	files := make(map[model.Version]int, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := s.pattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		kind, num := m[1], m[2]
		if kind == "" {
			kind, num = m[3], m[4]
		}
		n, err := strconv.Atoi(num)
		if err != nil || n <= 0 {
			continue
		}
		switch kind {
		case "classifier":
			files[model.Version(n)] |= hasClassifier
		case "label_encoder":
			files[model.Version(n)] |= hasEncoder
		default:
			files[model.Version(n)] |= hasMetadata
		}
	}
	return files, nil
}

// Resolve locates an explicit version, or the newest one for model.Latest.
func (s *FileStore) Resolve(ctx context.Context, family model.Family, version model.Version) (model.Locator, error) {
	if version < model.Latest {
		return model.Locator{}, fmt.Errorf("%w: %s version %d", ErrNotFound, family, version)
	}
	if version == model.Latest {
		versions, err := s.ListVersions(ctx, family)
		if err != nil {
			return model.Locator{}, err
		}
		if len(versions) == 0 {
			return model.Locator{}, fmt.Errorf("%w: no saved models for %s", ErrNotFound, family)
		}
		version = versions[len(versions)-1]
	}
	if err := ctx.Err(); err != nil {
		return model.Locator{}, err
	}

	dir, err := s.Dir(family)
	if err != nil {
		return model.Locator{}, err
	}
	loc := s.locator(family, dir, version)
	for _, p := range []string{loc.ClassifierPath, loc.EncoderPath} {
		if _, err := os.Stat(p); err != nil {
			return model.Locator{}, fmt.Errorf("%w: %s %s missing %s", ErrNotFound, family, version, filepath.Base(p))
		}
	}
	return loc, nil
}

// NextVersion returns one past the highest version number used by any
// artifact file, or 1 for an empty family. Leftovers of an incomplete save
// still claim their number.
func (s *FileStore) NextVersion(ctx context.Context, family model.Family) (model.Version, error) {
	files, err := s.scan(ctx, family)
	if err != nil {
		return 0, err
	}
	var highest model.Version
	for v := range files {
		if v > highest {
			highest = v
		}
	}
	return highest + 1, nil
}

// Save writes set as a new version. Metadata is written last so a reader
// never sees metadata for an incomplete version.
func (s *FileStore) Save(ctx context.Context, family model.Family, set model.ArtifactSet) (model.Version, error) {
	v, err := s.save(ctx, family, set)
	outcome := "ok"
	if err != nil {
		outcome = "error"
		metrics.RecordErrorByComponent("repository", "save")
	}
	metrics.RecordArtifactSave(string(family), outcome)
	return v, err
}

func (s *FileStore) save(ctx context.Context, family model.Family, set model.ArtifactSet) (model.Version, error) {
	dir, err := s.Dir(family)
	if err != nil {
		return 0, err
	}
	if len(set.Classifier) == 0 || len(set.LabelEncoder) == 0 {
		return 0, fmt.Errorf("%w: %s: empty classifier or label encoder", ErrSave, family)
	}
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrSave, family, err)
	}

	lock := flock.New(filepath.Join(dir, lockFileName))
	locked, err := lock.TryLockContext(ctx, s.lockRetry)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: lock: %v", ErrSave, family, err)
	}
	if !locked {
		return 0, fmt.Errorf("%w: %s: lock not acquired", ErrSave, family)
	}
	defer func() { _ = lock.Unlock() }()

	version, err := s.NextVersion(ctx, family)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrSave, family, err)
	}

	meta := set.Metadata
	meta.Version = int(version)
	if meta.ModelType == "" {
		meta.ModelType = string(family)
	}
	metaBytes, err := json.MarshalIndent(meta, "", metadataIndent)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %s metadata: %v", ErrSave, family, version, err)
	}

	loc := s.locator(family, dir, version)
	steps := []struct {
		name string
		path string
		data []byte
	}{
		{"classifier", loc.ClassifierPath, set.Classifier},
		{"label encoder", loc.EncoderPath, set.LabelEncoder},
		{"metadata", loc.MetadataPath, metaBytes},
	}

	var written []string
	for _, st := range steps {
		if err := writeNew(st.path, st.data); err != nil {
			for _, p := range written {
				_ = os.Remove(p)
			}
			s.log.Error(ctx, "artifact save failed",
				logger.String("family", string(family)),
				logger.Int("version", int(version)),
				logger.String("artifact", st.name),
				logger.Error(err))
			return 0, fmt.Errorf("%w: %s %s %s: %v", ErrSave, family, version, st.name, err)
		}
		written = append(written, st.path)
	}

	s.log.Info(ctx, "artifacts saved",
		logger.String("family", string(family)),
		logger.Int("version", int(version)),
		logger.Int("samples", meta.Samples))
	return version, nil
}

// ReadArtifacts loads the classifier and label encoder blobs.
func (s *FileStore) ReadArtifacts(ctx context.Context, loc model.Locator) (model.ArtifactSet, error) {
	if err := ctx.Err(); err != nil {
		return model.ArtifactSet{}, err
	}
	clf, err := readBlob(loc.ClassifierPath)
	if err != nil {
		return model.ArtifactSet{}, fmt.Errorf("%s %s classifier: %w", loc.Family, loc.Version, err)
	}
	enc, err := readBlob(loc.EncoderPath)
	if err != nil {
		return model.ArtifactSet{}, fmt.Errorf("%s %s label encoder: %w", loc.Family, loc.Version, err)
	}
	return model.ArtifactSet{Classifier: clf, LabelEncoder: enc}, nil
}

// ReadMetadata loads the metadata of a located version.
func (s *FileStore) ReadMetadata(ctx context.Context, loc model.Locator) (*model.Metadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := readBlob(loc.MetadataPath)
	if err != nil {
		return nil, fmt.Errorf("%s %s metadata: %w", loc.Family, loc.Version, err)
	}
	var meta model.Metadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("%w: %s %s metadata: %v", ErrCorrupt, loc.Family, loc.Version, err)
	}
	return &meta, nil
}

func (s *FileStore) locator(family model.Family, dir string, v model.Version) model.Locator {
	n := strconv.Itoa(int(v))
	return model.Locator{
		Family:         family,
		Version:        v,
		ClassifierPath: filepath.Join(dir, "classifier_v"+n+"."+s.ext),
		EncoderPath:    filepath.Join(dir, "label_encoder_v"+n+"."+s.ext),
		MetadataPath:   filepath.Join(dir, "metadata_v"+n+".json"),
	}
}

func readBlob(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, filepath.Base(path))
	}
	return b, err
}

// writeNew writes data to a temp file and renames it into place, refusing
// to replace an existing file.
func writeNew(path string, data []byte) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", filepath.Base(path))
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Chmod(tmpName, filePerm); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return err
	}
	return nil
}
