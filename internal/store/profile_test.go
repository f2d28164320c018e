package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newJSONProfileStore(t *testing.T) *ProfileStore {
	t.Helper()
	codec, err := CodecFor("json")
	require.NoError(t, err)
	return NewProfileStore(filepath.Join(t.TempDir(), "users.json"), codec)
}

func TestProfileStore_MissingFileIsEmpty(t *testing.T) {
	s := newJSONProfileStore(t)

	profiles, err := s.Load()
	require.NoError(t, err)
	require.Empty(t, profiles)
}

func TestProfileStore_RoundTrip(t *testing.T) {
	for _, encoding := range []string{"json", "cbor"} {
		t.Run(encoding, func(t *testing.T) {
			codec, err := CodecFor(encoding)
			require.NoError(t, err)
			s := NewProfileStore(filepath.Join(t.TempDir(), "users."+encoding), codec)

			created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
			in := map[string]*Profile{
				"alice": {
					Embeddings: [][]float32{{1, 0, 0}, {0.5, 0.5, 0}},
					CreatedAt:  created,
					LastUsedAt: created.Add(time.Hour),
				},
				"bob": {
					Embeddings: [][]float32{{0, 1, 0}, {0, 0, 1}},
					CreatedAt:  created,
				},
			}
			require.NoError(t, s.Save(in))

			out, err := s.Load()
			require.NoError(t, err)
			require.Len(t, out, 2)
			require.Equal(t, in["alice"].Embeddings, out["alice"].Embeddings)
			require.True(t, out["alice"].CreatedAt.Equal(created))
			require.True(t, out["alice"].LastUsedAt.Equal(created.Add(time.Hour)))
			require.Equal(t, in["bob"].Embeddings, out["bob"].Embeddings)
		})
	}
}

func TestProfileStore_LegacyShapesNormalized(t *testing.T) {
	s := newJSONProfileStore(t)

	// All three generations of the on-disk shape in one file.
	raw := `{
	  "alice": {"embeddings": [[1, 0], [0, 1]], "created_at": "2024-01-01T00:00:00Z"},
	  "bob": [[1, 0], [0.5, 0.5]],
	  "carol": [0.25, 0.75]
	}`
	require.NoError(t, os.WriteFile(s.Path(), []byte(raw), 0o600))

	profiles, err := s.Load()
	require.NoError(t, err)

	require.Len(t, profiles["alice"].Embeddings, 2)
	require.Len(t, profiles["bob"].Embeddings, 2)
	require.Equal(t, [][]float32{{0.25, 0.75}}, profiles["carol"].Embeddings)
}

func TestProfileStore_LegacyFileRewrittenInCurrentForm(t *testing.T) {
	s := newJSONProfileStore(t)

	require.NoError(t, os.WriteFile(s.Path(), []byte(`{"carol": [0.25, 0.75]}`), 0o600))

	profiles, err := s.Load()
	require.NoError(t, err)
	require.NoError(t, s.Save(profiles))

	// After the rewrite, a record-shape decode of every entry succeeds.
	reloaded, err := s.Load()
	require.NoError(t, err)
	require.Equal(t, [][]float32{{0.25, 0.75}}, reloaded["carol"].Embeddings)
}

func TestProfileStore_CorruptFileFails(t *testing.T) {
	s := newJSONProfileStore(t)
	require.NoError(t, os.WriteFile(s.Path(), []byte("{broken"), 0o600))

	_, err := s.Load()
	require.Error(t, err)
}

func TestProfileStore_UnrecognizedEntryFails(t *testing.T) {
	s := newJSONProfileStore(t)
	require.NoError(t, os.WriteFile(s.Path(), []byte(`{"alice": "not-a-profile"}`), 0o600))

	_, err := s.Load()
	require.Error(t, err)
}

func TestProfileStore_SaveCreatesParentDirs(t *testing.T) {
	codec, err := CodecFor("json")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "nested", "deeper", "users.json")
	s := NewProfileStore(path, codec)

	require.NoError(t, s.Save(map[string]*Profile{}))
	_, statErr := os.Stat(path)
	require.NoError(t, statErr)
}

func TestCodecFor_UnknownEncoding(t *testing.T) {
	_, err := CodecFor("xml")
	require.Error(t, err)
}

func TestProfileClone_Independent(t *testing.T) {
	orig := &Profile{Embeddings: [][]float32{{1, 2}}}
	cp := orig.Clone()
	cp.Embeddings[0][0] = 99

	require.Equal(t, float32(1), orig.Embeddings[0][0])
}
