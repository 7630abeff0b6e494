package capture

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/emotune/internal/domain"
)

var (
	fixedTime  = time.Date(2026, 10, 19, 14, 30, 5, 0, time.UTC)
	testRegion = domain.FaceRegion{X: 263, Y: 187, W: 131, H: 131}
	testImage  = []byte("\xff\xd8\xff\xe0 fake jpeg bytes")
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T, dir string, key []byte) *Store {
	t.Helper()
	if key == nil {
		var err error
		key, err = GenerateKey()
		require.NoError(t, err)
	}
	s, err := NewStore(dir, key, testLogger(), WithClock(func() time.Time { return fixedTime }))
	require.NoError(t, err)
	return s
}

func TestNormalizeID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "bare id", input: "20261019_143005_3", want: "20261019_143005_3"},
		{name: "enc suffix", input: "20261019_143005_3.enc", want: "20261019_143005_3"},
		{name: "json suffix", input: "20261019_143005_3.json", want: "20261019_143005_3"},
		{name: "dash allowed", input: "legacy-capture", want: "legacy-capture"},
		{name: "empty", input: "", wantErr: true},
		{name: "only suffix", input: ".enc", wantErr: true},
		{name: "parent traversal", input: "../secret.key", wantErr: true},
		{name: "path separator", input: "a/b", wantErr: true},
		{name: "dot inside", input: "a.b", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeID(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidArtifactID)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStore_WriteRead(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := newTestStore(t, dir, nil)

	id, err := s.Write(ctx, testImage, 3, testRegion)
	require.NoError(t, err)
	assert.Equal(t, "20261019_143005_3", id)

	t.Run("image round trips", func(t *testing.T) {
		got, err := s.Read(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, testImage, got)

		got, err = s.Read(ctx, id+".enc")
		require.NoError(t, err)
		assert.Equal(t, testImage, got)
	})

	t.Run("metadata describes capture", func(t *testing.T) {
		meta, err := s.ReadMetadata(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, id, meta.Filename)
		assert.Equal(t, "happy", meta.Emotion)
		assert.Equal(t, 3, meta.EmotionIndex)
		assert.Equal(t, testRegion, meta.FaceCoordinates)
		assert.Equal(t, id+".enc", meta.Ciphertext)
		assert.True(t, fixedTime.Equal(meta.CreatedAt))
	})

	t.Run("ciphertext is not plaintext", func(t *testing.T) {
		sealed, err := os.ReadFile(filepath.Join(dir, id+".enc"))
		require.NoError(t, err)
		assert.False(t, bytes.Contains(sealed, testImage))
		assert.Greater(t, len(sealed), len(testImage))
	})

	t.Run("files are owner only", func(t *testing.T) {
		for _, name := range []string{id + ".enc", id + ".json"} {
			info, err := os.Stat(filepath.Join(dir, name))
			require.NoError(t, err)
			assert.Equal(t, os.FileMode(0o600), info.Mode().Perm(), name)
		}
	})
}

func TestStore_Write_InvalidInput(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := newTestStore(t, dir, nil)

	_, err := s.Write(ctx, testImage, 7, testRegion)
	assert.ErrorIs(t, err, domain.ErrUnknownEmotionIndex)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStore_EmptyCaptureRoundTrips(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := newTestStore(t, dir, nil)

	for _, raw := range [][]byte{nil, {}} {
		id, err := s.Write(ctx, raw, 0, testRegion)
		require.NoError(t, err)

		got, err := s.Read(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, []byte{}, got)

		meta, err := s.ReadMetadata(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "angry", meta.Emotion)
	}

	ids, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"20261019_143005_0"}, ids)
}

func TestStore_SameSecondSameEmotionOverwrites(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, t.TempDir(), nil)

	first, err := s.Write(ctx, []byte("first"), 3, testRegion)
	require.NoError(t, err)
	second, err := s.Write(ctx, []byte("second"), 3, testRegion)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	got, err := s.Read(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got)

	other, err := s.Write(ctx, []byte("third"), 5, testRegion)
	require.NoError(t, err)
	assert.Equal(t, "20261019_143005_5", other)

	ids, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"20261019_143005_3", "20261019_143005_5"}, ids)
}

func TestStore_NotFound(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, t.TempDir(), nil)

	_, err := s.Read(ctx, "20200101_000000_0")
	assert.ErrorIs(t, err, domain.ErrArtifactNotFound)

	_, err = s.ReadMetadata(ctx, "20200101_000000_0")
	require.ErrorIs(t, err, domain.ErrMetadataNotFound)
	assert.Equal(t, "Metadata file not found", err.Error())

	_, err = s.Read(ctx, "../../etc/passwd")
	assert.ErrorIs(t, err, domain.ErrInvalidArtifactID)
}

func TestStore_DecryptionFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("tampered ciphertext", func(t *testing.T) {
		dir := t.TempDir()
		s := newTestStore(t, dir, nil)
		id, err := s.Write(ctx, testImage, 0, testRegion)
		require.NoError(t, err)

		path := filepath.Join(dir, id+".enc")
		sealed, err := os.ReadFile(path)
		require.NoError(t, err)
		sealed[len(sealed)-1] ^= 0xff
		require.NoError(t, os.WriteFile(path, sealed, 0o600))

		_, err = s.Read(ctx, id)
		assert.ErrorIs(t, err, domain.ErrDecryptionFailure)
	})

	t.Run("wrong key", func(t *testing.T) {
		dir := t.TempDir()
		id, err := newTestStore(t, dir, nil).Write(ctx, testImage, 1, testRegion)
		require.NoError(t, err)

		_, err = newTestStore(t, dir, nil).Read(ctx, id)
		assert.ErrorIs(t, err, domain.ErrDecryptionFailure)
	})

	t.Run("ciphertext moved to another id", func(t *testing.T) {
		dir := t.TempDir()
		s := newTestStore(t, dir, nil)
		id, err := s.Write(ctx, testImage, 2, testRegion)
		require.NoError(t, err)

		sealed, err := os.ReadFile(filepath.Join(dir, id+".enc"))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "20200101_000000_2.enc"), sealed, 0o600))

		_, err = s.Read(ctx, "20200101_000000_2")
		assert.ErrorIs(t, err, domain.ErrDecryptionFailure)
	})

	t.Run("truncated ciphertext", func(t *testing.T) {
		dir := t.TempDir()
		s := newTestStore(t, dir, nil)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "short.enc"), []byte("abc"), 0o600))

		_, err := s.Read(ctx, "short")
		assert.ErrorIs(t, err, domain.ErrDecryptionFailure)
	})
}

func TestStore_MetadataFailureRollsBackCiphertext(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := newTestStore(t, dir, nil)

	// A directory where the metadata file belongs makes the rename fail.
	require.NoError(t, os.Mkdir(filepath.Join(dir, "20261019_143005_4.json"), 0o700))

	_, err := s.Write(ctx, testImage, 4, testRegion)
	assert.ErrorIs(t, err, domain.ErrPersistenceFailure)

	_, err = os.Stat(filepath.Join(dir, "20261019_143005_4.enc"))
	assert.True(t, os.IsNotExist(err), "ciphertext should be removed")

	ids, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestStore_ListAndOrphans(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	clock := fixedTime
	s, err := NewStore(dir, mustKey(t), testLogger(), WithClock(func() time.Time { return clock }))
	require.NoError(t, err)

	idA, err := s.Write(ctx, testImage, 0, testRegion)
	require.NoError(t, err)
	clock = clock.Add(time.Second)
	idB, err := s.Write(ctx, testImage, 6, testRegion)
	require.NoError(t, err)

	// noise that List must ignore
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".20261019_143007_1.enc.tmp-123"), []byte("x"), 0o600))

	ids, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{idA, idB}, ids)

	orphans, err := s.Orphans(ctx)
	require.NoError(t, err)
	assert.Empty(t, orphans)

	require.NoError(t, os.Remove(filepath.Join(dir, idA+".json")))
	require.NoError(t, os.Remove(filepath.Join(dir, idB+".enc")))

	orphans, err = s.Orphans(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{idA + ".enc", idB + ".json"}, orphans)

	ids, err = s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{idA}, ids)
}

func TestStore_ListMissingDirectory(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "captures")
	s := newTestStore(t, root, nil)
	require.NoError(t, os.Remove(root))

	ids, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestStore_ConcurrentWrites(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, t.TempDir(), nil)

	var wg sync.WaitGroup
	for i := 0; i < domain.EmotionCount; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_, err := s.Write(ctx, []byte{byte(idx), 1, 2, 3}, idx, testRegion)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	ids, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, ids, domain.EmotionCount)

	for i, id := range ids {
		raw, err := s.Read(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, byte(i), raw[0])
	}
}

func mustKey(t *testing.T) []byte {
	t.Helper()
	key, err := GenerateKey()
	require.NoError(t, err)
	return key
}
