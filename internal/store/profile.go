package store

import (
	"fmt"
	"time"
)

// Profile is one user's enrollment record: every valid voice sample kept at
// registration, plus bookkeeping timestamps.
type Profile struct {
	Embeddings [][]float32 `json:"embeddings" cbor:"embeddings"`
	CreatedAt  time.Time   `json:"created_at" cbor:"created_at"`
	LastUsedAt time.Time   `json:"last_used_at,omitempty" cbor:"last_used_at,omitempty"`
}

// Clone returns a deep copy of the profile.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	out := &Profile{
		CreatedAt:  p.CreatedAt,
		LastUsedAt: p.LastUsedAt,
	}
	if len(p.Embeddings) > 0 {
		out.Embeddings = make([][]float32, len(p.Embeddings))
		for i, emb := range p.Embeddings {
			cp := make([]float32, len(emb))
			copy(cp, emb)
			out.Embeddings[i] = cp
		}
	}
	return out
}

// ProfileStore reads and writes the username → Profile table.
type ProfileStore struct {
	path  string
	codec Codec
}

// NewProfileStore builds a ProfileStore for the file at path using codec.
func NewProfileStore(path string, codec Codec) *ProfileStore {
	return &ProfileStore{path: path, codec: codec}
}

// Path returns the backing file path.
func (s *ProfileStore) Path() string { return s.path }

// Load reads the whole profile table. A missing file yields an empty table.
//
// Each entry may be in one of three shapes, branched per entry so old and new
// users can coexist in one file: the current Profile record, an older plain
// list of embedding vectors, or the oldest form of one single vector. Legacy
// shapes are normalized into Profile records at load; the next Save rewrites
// the file in current form.
func (s *ProfileStore) Load() (map[string]*Profile, error) {
	data, ok, err := readFile(s.path)
	if err != nil {
		return nil, err
	}
	if !ok || len(data) == 0 {
		return map[string]*Profile{}, nil
	}

	raw, err := s.codec.UnmarshalRawMap(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}

	out := make(map[string]*Profile, len(raw))
	for username, entry := range raw {
		profile, err := s.decodeEntry(entry)
		if err != nil {
			return nil, fmt.Errorf("decode %s: entry %q: %w", s.path, username, err)
		}
		out[username] = profile
	}
	return out, nil
}

func (s *ProfileStore) decodeEntry(entry []byte) (*Profile, error) {
	var profile Profile
	if err := s.codec.Unmarshal(entry, &profile); err == nil {
		return &profile, nil
	}

	var embeddings [][]float32
	if err := s.codec.Unmarshal(entry, &embeddings); err == nil {
		return &Profile{Embeddings: embeddings}, nil
	}

	var single []float32
	if err := s.codec.Unmarshal(entry, &single); err == nil {
		return &Profile{Embeddings: [][]float32{single}}, nil
	}

	return nil, fmt.Errorf("unrecognized profile entry shape")
}

// Save overwrites the whole profile table.
func (s *ProfileStore) Save(profiles map[string]*Profile) error {
	data, err := s.codec.Marshal(profiles)
	if err != nil {
		return fmt.Errorf("encode %s: %w", s.path, err)
	}
	return writeFile(s.path, data)
}
