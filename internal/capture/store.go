// Package capture persists face captures encrypted at rest, each with a
// plaintext metadata record alongside.
package capture

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/saturnino-fabrica-de-software/emotune/internal/domain"
)

const (
	CiphertextExt = ".enc"
	MetadataExt   = ".json"

	idTimeLayout = "20060102_150405"
	maxIDLength  = 128
)

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// NormalizeID accepts an artifact id with or without its .enc or .json
// suffix and returns the bare id. Anything that could escape the store
// directory is rejected.
func NormalizeID(name string) (string, error) {
	id := strings.TrimSuffix(strings.TrimSuffix(name, CiphertextExt), MetadataExt)
	if id == "" || len(id) > maxIDLength || !idPattern.MatchString(id) {
		return "", domain.ErrInvalidArtifactID.WithError(fmt.Errorf("rejected %q", name))
	}
	return id, nil
}

// Store writes each capture as two files in one directory: <id>.enc holding
// the sealed image and <id>.json holding CaptureMetadata. Ids are second
// resolution, so a second write with the same id and emotion replaces the first.
type Store struct {
	dir    string
	sealer *sealer
	now    func() time.Time
	logger *slog.Logger

	// serializes the two renames of a write so pairs never interleave
	mu sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for ids and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func NewStore(dir string, key []byte, logger *slog.Logger, opts ...Option) (*Store, error) {
	sl, err := newSealer(key)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create capture directory: %w", err)
	}

	s := &Store{
		dir:    dir,
		sealer: sl,
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Write seals raw under a new id and records its metadata. Any byte sequence,
// including an empty one, is stored as given. The ciphertext is committed
// first; if the metadata write fails the ciphertext is removed.
func (s *Store) Write(ctx context.Context, raw []byte, emotionIndex int, region domain.FaceRegion) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	emotion, err := domain.EmotionFromIndex(emotionIndex)
	if err != nil {
		return "", err
	}

	createdAt := s.now().UTC()
	id := createdAt.Format(idTimeLayout) + "_" + strconv.Itoa(emotion.Index())

	sealed, err := s.sealer.seal(raw, []byte(id))
	if err != nil {
		return "", domain.ErrPersistenceFailure.WithError(err)
	}

	meta := domain.CaptureMetadata{
		Filename:        id,
		Emotion:         emotion.String(),
		EmotionIndex:    emotion.Index(),
		FaceCoordinates: region,
		Ciphertext:      id + CiphertextExt,
		CreatedAt:       createdAt,
	}
	metaBytes, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", domain.ErrPersistenceFailure.WithError(fmt.Errorf("marshal metadata: %w", err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	encPath := s.path(id, CiphertextExt)
	if err := writeFileAtomic(encPath, sealed, 0o600); err != nil {
		return "", domain.ErrPersistenceFailure.WithError(err)
	}

	if err := writeFileAtomic(s.path(id, MetadataExt), metaBytes, 0o600); err != nil {
		if rmErr := os.Remove(encPath); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			s.logger.Error("failed to roll back ciphertext after metadata write failure",
				"id", id,
				"error", rmErr,
			)
		}
		s.logger.Error("failed to write capture metadata", "id", id, "error", err)
		return "", domain.ErrPersistenceFailure.WithError(err)
	}

	s.logger.Info("capture stored",
		"id", id,
		"emotion", emotion.String(),
		"bytes", len(raw),
	)
	return id, nil
}

// Read returns the decrypted image for id.
func (s *Store) Read(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id, err := NormalizeID(name)
	if err != nil {
		return nil, err
	}

	sealed, err := os.ReadFile(s.path(id, CiphertextExt))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrArtifactNotFound
	}
	if err != nil {
		return nil, domain.ErrPersistenceFailure.WithError(fmt.Errorf("read ciphertext: %w", err))
	}

	raw, err := s.sealer.open(sealed, []byte(id))
	if err != nil {
		s.logger.Warn("capture failed authentication", "id", id, "error", err)
		return nil, domain.ErrDecryptionFailure.WithError(err)
	}
	return raw, nil
}

// ReadMetadata returns the metadata record for id.
func (s *Store) ReadMetadata(ctx context.Context, name string) (*domain.CaptureMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id, err := NormalizeID(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path(id, MetadataExt))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrMetadataNotFound
	}
	if err != nil {
		return nil, domain.ErrPersistenceFailure.WithError(fmt.Errorf("read metadata: %w", err))
	}

	var meta domain.CaptureMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, domain.ErrPersistenceFailure.WithError(fmt.Errorf("parse metadata %s: %w", id, err))
	}
	return &meta, nil
}

// List returns the ids of all stored ciphertexts in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := s.readDir()
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if id, ok := artifactID(e, CiphertextExt); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Orphans returns file names whose partner artifact is missing. A crash
// between the two renames of Write can leave one behind.
func (s *Store) Orphans(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := s.readDir()
	if err != nil {
		return nil, err
	}

	ciphertexts := make(map[string]bool)
	metadata := make(map[string]bool)
	for _, e := range entries {
		if id, ok := artifactID(e, CiphertextExt); ok {
			ciphertexts[id] = true
		}
		if id, ok := artifactID(e, MetadataExt); ok {
			metadata[id] = true
		}
	}

	var orphans []string
	for id := range ciphertexts {
		if !metadata[id] {
			orphans = append(orphans, id+CiphertextExt)
		}
	}
	for id := range metadata {
		if !ciphertexts[id] {
			orphans = append(orphans, id+MetadataExt)
		}
	}
	sort.Strings(orphans)
	return orphans, nil
}

func (s *Store) path(id, ext string) string {
	return filepath.Join(s.dir, id+ext)
}

func (s *Store) readDir() ([]fs.DirEntry, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.ErrPersistenceFailure.WithError(fmt.Errorf("list captures: %w", err))
	}
	return entries, nil
}

func artifactID(e fs.DirEntry, ext string) (string, bool) {
	if !e.Type().IsRegular() || !strings.HasSuffix(e.Name(), ext) {
		return "", false
	}
	id := strings.TrimSuffix(e.Name(), ext)
	if !idPattern.MatchString(id) {
		return "", false
	}
	return id, true
}

// writeFileAtomic writes to a temp file in the target directory and renames it
// into place, so readers never observe a partial file.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+base+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("write %s: %w", base, err)
	}
	if err := tmp.Chmod(perm); err != nil {
		cleanup()
		return fmt.Errorf("chmod %s: %w", base, err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("sync %s: %w", base, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", base, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", base, err)
	}
	return nil
}
