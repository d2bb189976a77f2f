package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/jainqa/internal/config"
	"github.com/xxxsen/jainqa/internal/embedcache"
	"github.com/xxxsen/jainqa/internal/filestore"
	"github.com/xxxsen/jainqa/internal/handler"
	"github.com/xxxsen/jainqa/internal/index"
	"github.com/xxxsen/jainqa/internal/job"
	"github.com/xxxsen/jainqa/internal/schedule"
	"github.com/xxxsen/jainqa/internal/session"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "jainqa",
		Short: "jain scripture qa backend server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run jainqa server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))
			return runServer(cfg)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")

	var backupKey string
	restoreCmd := &cobra.Command{
		Use:   "restore",
		Short: "restore the knowledge index from a backup in the file store",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" || backupKey == "" {
				return fmt.Errorf("--config and --key are required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cfg.FileStore == nil {
				return fmt.Errorf("file_store is not configured")
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			files, err := filestore.New(*cfg.FileStore)
			if err != nil {
				return fmt.Errorf("init file store: %w", err)
			}
			ctx := context.Background()
			if err := job.RestoreIndexBackup(ctx, files, index.NewStore(cfg.IndexPath), backupKey); err != nil {
				return err
			}
			logutil.GetLogger(ctx).Info("restore complete", zap.String("key", backupKey))
			return nil
		},
	}
	restoreCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	restoreCmd.Flags().StringVar(&backupKey, "key", "", "backup object key, e.g. index-backup-20260831T120000.json")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(restoreCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("index_path", cfg.IndexPath),
		zap.String("ai_provider", cfg.AI.Provider),
	)

	store := index.NewStore(cfg.IndexPath)
	sessions := session.NewStore(cfg.Session.MaxSessions, time.Duration(cfg.Session.TTLMinutes)*time.Minute)
	cache := embedcache.NewCache(cfg.AI.EmbedCacheSize, time.Duration(cfg.AI.EmbedCacheTTLMinutes)*time.Minute)

	var files filestore.Store
	if cfg.FileStore != nil {
		var err error
		files, err = filestore.New(*cfg.FileStore)
		if err != nil {
			return fmt.Errorf("init file store: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Backup.Enable {
		scheduler := schedule.New()
		if err := scheduler.Add(job.NewIndexBackupJob(store, files), cfg.Backup.Cron); err != nil {
			return fmt.Errorf("schedule backup job: %w", err)
		}
		scheduler.Start(ctx)
		defer scheduler.Stop()
	}

	deps := handler.RouterDeps{
		Upload: handler.NewUploadHandler(cfg.AI, cfg.Ingest.ChunkSize, store, files, cache),
		Chat:   handler.NewChatHandler(cfg.AI, store, sessions, cache),
	}
	router := handler.NewRouter(deps)

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}
	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", addr))

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
