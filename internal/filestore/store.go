package filestore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/xxxsen/jainqa/internal/config"
)

// Store is the durable archive for raw uploaded documents and index
// snapshot backups. The knowledge index itself never lives here; the
// archive is what uploads are replayed or restored from.
type Store interface {
	Save(ctx context.Context, key string, r ReadSeekCloser, size int64) error
	// Open streams a previously saved object. Backends that cannot
	// read back (s3) return an error saying so.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

type ReadSeekCloser interface {
	io.Reader
	io.Seeker
	io.Closer
}

type Factory func(args interface{}) (Store, error)

// backends is populated from init functions only, so access after
// startup is read-only and needs no locking.
var backends = map[string]Factory{}

func Register(name string, factory Factory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	backends[key] = factory
}

func New(cfg config.FileStoreConfig) (Store, error) {
	key := strings.ToLower(strings.TrimSpace(cfg.Type))
	if key == "" {
		return nil, fmt.Errorf("file_store.type is required")
	}
	factory, ok := backends[key]
	if !ok {
		return nil, fmt.Errorf("unsupported file store type: %s", cfg.Type)
	}
	return factory(cfg.Data)
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return fmt.Errorf("file store config is required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode file store config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode file store config: %w", err)
	}
	return nil
}
