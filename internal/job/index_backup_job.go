package job

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/jainqa/internal/filestore"
	"github.com/xxxsen/jainqa/internal/index"
)

// IndexBackupJob copies the current index snapshot into the file
// store. The snapshot write itself is not crash-safe, so a periodic
// off-disk copy is the recovery path for a corrupted index.
type IndexBackupJob struct {
	store *index.Store
	files filestore.Store
}

func NewIndexBackupJob(store *index.Store, files filestore.Store) *IndexBackupJob {
	return &IndexBackupJob{store: store, files: files}
}

func (j *IndexBackupJob) Name() string {
	return "index_backup"
}

func (j *IndexBackupJob) Run(ctx context.Context) error {
	if j.store == nil || j.files == nil {
		return nil
	}
	path := j.store.SnapshotPath()
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logutil.GetLogger(ctx).Debug("no index snapshot yet, nothing to back up")
			return nil
		}
		return fmt.Errorf("open snapshot: %w", err)
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat snapshot: %w", err)
	}
	key := fmt.Sprintf("index-backup-%s.json", time.Now().UTC().Format("20060102T150405"))
	if err := j.files.Save(ctx, key, file, info.Size()); err != nil {
		return fmt.Errorf("save backup: %w", err)
	}
	logutil.GetLogger(ctx).Info("index snapshot backed up",
		zap.String("key", key),
		zap.Int64("size", info.Size()),
	)
	return nil
}

// RestoreIndexBackup pulls a backup object out of the file store and
// installs it as the current index snapshot. Meant for offline
// recovery via the restore command, not for a live server.
func RestoreIndexBackup(ctx context.Context, files filestore.Store, store *index.Store, key string) error {
	reader, err := files.Open(ctx, key)
	if err != nil {
		return fmt.Errorf("open backup %s: %w", key, err)
	}
	defer reader.Close()
	if err := store.RestoreSnapshot(ctx, reader); err != nil {
		return fmt.Errorf("restore backup %s: %w", key, err)
	}
	return nil
}
