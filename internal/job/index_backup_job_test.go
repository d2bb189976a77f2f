package job_test

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/jainqa/internal/config"
	"github.com/xxxsen/jainqa/internal/filestore"
	"github.com/xxxsen/jainqa/internal/index"
	"github.com/xxxsen/jainqa/internal/job"
	"github.com/xxxsen/jainqa/internal/model"
)

type staticEmbedder struct{}

func (staticEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	return []float32{1, 0}, nil
}

func (staticEmbedder) ModelName() string { return "static" }

func TestBackupCopiesSnapshot(t *testing.T) {
	ctx := context.Background()
	indexDir := t.TempDir()
	backupDir := t.TempDir()

	store := index.NewStore(indexDir)
	chunks := []model.Chunk{{ID: "c-1", Source: "s", Position: 0, Text: "अहिंसा"}}
	_, err := store.Insert(ctx, chunks, staticEmbedder{})
	require.NoError(t, err)

	files, err := filestore.New(config.FileStoreConfig{
		Type: "local",
		Data: map[string]interface{}{"dir": backupDir},
	})
	require.NoError(t, err)

	require.NoError(t, job.NewIndexBackupJob(store, files).Run(ctx))

	entries, err := os.ReadDir(backupDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.True(t, strings.HasPrefix(entries[0].Name(), "index-backup-"))

	original, err := os.ReadFile(store.SnapshotPath())
	require.NoError(t, err)
	backup, err := os.ReadFile(backupDir + "/" + entries[0].Name())
	require.NoError(t, err)
	require.Equal(t, original, backup)
}

func TestRestoreFromBackup(t *testing.T) {
	ctx := context.Background()
	backupDir := t.TempDir()

	source := index.NewStore(t.TempDir())
	chunks := []model.Chunk{{ID: "c-1", Source: "s", Position: 0, Text: "अहिंसा परमो धर्मः।"}}
	_, err := source.Insert(ctx, chunks, staticEmbedder{})
	require.NoError(t, err)

	files, err := filestore.New(config.FileStoreConfig{
		Type: "local",
		Data: map[string]interface{}{"dir": backupDir},
	})
	require.NoError(t, err)
	require.NoError(t, job.NewIndexBackupJob(source, files).Run(ctx))

	entries, err := os.ReadDir(backupDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	// recover the backup into a brand-new index directory
	restored := index.NewStore(t.TempDir())
	require.NoError(t, job.RestoreIndexBackup(ctx, files, restored, entries[0].Name()))

	count, err := restored.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)
	results, err := restored.Search(ctx, []float32{1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "अहिंसा परमो धर्मः।", results[0].Chunk.Text)
}

func TestRestoreMissingBackupFails(t *testing.T) {
	ctx := context.Background()
	files, err := filestore.New(config.FileStoreConfig{
		Type: "local",
		Data: map[string]interface{}{"dir": t.TempDir()},
	})
	require.NoError(t, err)

	err = job.RestoreIndexBackup(ctx, files, index.NewStore(t.TempDir()), "index-backup-nope.json")
	require.Error(t, err)
}

func TestBackupNoSnapshotIsNoop(t *testing.T) {
	ctx := context.Background()
	store := index.NewStore(t.TempDir())
	backupDir := t.TempDir()

	files, err := filestore.New(config.FileStoreConfig{
		Type: "local",
		Data: map[string]interface{}{"dir": backupDir},
	})
	require.NoError(t, err)

	require.NoError(t, job.NewIndexBackupJob(store, files).Run(ctx))
	entries, err := os.ReadDir(backupDir)
	require.NoError(t, err)
	require.Empty(t, entries)
}
