package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/jainqa/internal/ai"
	"github.com/xxxsen/jainqa/internal/model"
)

const snapshotFile = "index.json"

// ErrEmbed marks insert failures caused by the embedding provider, so
// the API layer can report them as an upstream problem rather than an
// index fault.
var ErrEmbed = errors.New("embedding failed")

// Store owns the on-disk knowledge index. All mutation is serialized
// through one writer lock so concurrent uploads cannot lose each
// other's insertions. The in-memory handle is kept across requests;
// the snapshot on disk is only reread at first use.
type Store struct {
	mu      sync.RWMutex
	dir     string
	loaded  bool
	entries []Entry
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) SnapshotPath() string {
	return filepath.Join(s.dir, snapshotFile)
}

// Insert embeds every chunk with the caller's embedder and merges the
// batch into the index. Either the whole batch is added and persisted
// or nothing changes.
func (s *Store) Insert(ctx context.Context, chunks []model.Chunk, embedder ai.IEmbedder) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}
	batch := make([]Entry, 0, len(chunks))
	for _, chunk := range chunks {
		vector, err := embedder.Embed(ctx, chunk.Text, "RETRIEVAL_DOCUMENT")
		if err != nil {
			return 0, fmt.Errorf("%w: chunk %d: %v", ErrEmbed, chunk.Position, err)
		}
		batch = append(batch, Entry{Chunk: chunk, Vector: vector})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoadedLocked(ctx); err != nil {
		return 0, err
	}
	s.entries = append(s.entries, batch...)
	if err := s.persistLocked(); err != nil {
		s.entries = s.entries[:len(s.entries)-len(batch)]
		return 0, err
	}
	logutil.GetLogger(ctx).Info("index updated",
		zap.Int("added", len(batch)),
		zap.Int("total", len(s.entries)),
	)
	return len(batch), nil
}

// Search returns the topK chunks nearest to the query vector.
func (s *Store) Search(ctx context.Context, query []float32, topK int) ([]model.SearchResult, error) {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()
	if !loaded {
		s.mu.Lock()
		err := s.ensureLoadedLocked(ctx)
		s.mu.Unlock()
		if err != nil {
			return nil, err
		}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return searchEntries(s.entries, query, topK), nil
}

// Count reports how many chunks the index holds. A zero count means
// the knowledge base is empty and chat must short-circuit.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoadedLocked(ctx); err != nil {
		return 0, err
	}
	return len(s.entries), nil
}

// RestoreSnapshot replaces the on-disk snapshot with the given backup
// content and swaps the in-memory copy in the same critical section.
// The content is validated before anything is overwritten.
func (s *Store) RestoreSnapshot(ctx context.Context, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read backup: %w", err)
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("decode backup: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	tmp := s.SnapshotPath() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write index snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.SnapshotPath()); err != nil {
		return fmt.Errorf("replace index snapshot: %w", err)
	}
	s.entries = snap.Entries
	s.loaded = true
	logutil.GetLogger(ctx).Info("index snapshot restored",
		zap.String("path", s.SnapshotPath()),
		zap.Int("chunks", len(s.entries)),
	)
	return nil
}

func (s *Store) ensureLoadedLocked(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	data, err := os.ReadFile(s.SnapshotPath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.loaded = true
			return nil
		}
		return fmt.Errorf("read index snapshot: %w", err)
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("decode index snapshot: %w", err)
	}
	s.entries = snap.Entries
	s.loaded = true
	logutil.GetLogger(ctx).Info("index snapshot loaded",
		zap.String("path", s.SnapshotPath()),
		zap.Int("chunks", len(s.entries)),
	)
	return nil
}

func (s *Store) persistLocked() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	data, err := json.Marshal(snapshot{Version: 1, Entries: s.entries})
	if err != nil {
		return fmt.Errorf("encode index snapshot: %w", err)
	}
	tmp := s.SnapshotPath() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write index snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.SnapshotPath()); err != nil {
		return fmt.Errorf("replace index snapshot: %w", err)
	}
	return nil
}
