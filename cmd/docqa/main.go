package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/xxxsen/docqa/internal/ai"
	"github.com/xxxsen/docqa/internal/config"
	"github.com/xxxsen/docqa/internal/docstore"
	"github.com/xxxsen/docqa/internal/extract"
	"github.com/xxxsen/docqa/internal/filestore"
	"github.com/xxxsen/docqa/internal/handler"
	"github.com/xxxsen/docqa/internal/index"
	"github.com/xxxsen/docqa/internal/job"
	"github.com/xxxsen/docqa/internal/middleware"
	"github.com/xxxsen/docqa/internal/pkg/password"
	"github.com/xxxsen/docqa/internal/schedule"
	"github.com/xxxsen/docqa/internal/service"
)

func main() {
	var (
		configPath string
		envPath    string
	)

	rootCmd := &cobra.Command{
		Use:   "docqa",
		Short: "document question answering server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run docqa server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			if err := config.LoadEnv(envPath); err != nil {
				return err
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
	runCmd.Flags().StringVar(&envPath, "env", ".env", "optional env file loaded before the config")

	hashCmd := &cobra.Command{
		Use:   "hash-password <plain>",
		Short: "print a bcrypt hash for admin.password_hash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := password.Hash(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, hashCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger := logutil.GetLogger(ctx)
	logger.Info("starting server",
		zap.Int("port", cfg.Port),
		zap.String("doc_store", cfg.DocStore.Type),
		zap.String("index_journal", cfg.Index.Journal.Type),
		zap.String("file_store", cfg.FileStore.Type),
	)

	docs, err := docstore.New(cfg.DocStore)
	if err != nil {
		return fmt.Errorf("init doc store: %w", err)
	}
	defer docs.Close()

	journal, err := index.NewJournal(cfg.Index.Journal)
	if err != nil {
		return fmt.Errorf("init index journal: %w", err)
	}
	idx, err := index.Open(ctx, cfg.Index.Dimension, journal)
	if err != nil {
		journal.Close()
		return fmt.Errorf("open index: %w", err)
	}
	defer idx.Close()
	logger.Info("index loaded", zap.Int("size", idx.Size()), zap.Int("dimension", idx.Dimension()))

	dispatcher, err := extract.NewDispatcherFromConfig(cfg.Extract)
	if err != nil {
		return fmt.Errorf("init extractors: %w", err)
	}
	oracles, err := ai.NewManagerFromConfig(cfg.AI)
	if err != nil {
		return fmt.Errorf("init ai: %w", err)
	}
	logger.Info("ai oracles ready", zap.String("embed_model", oracles.EmbeddingModelName()), zap.Int("timeout_seconds", cfg.AI.Timeout))
	var archive filestore.Store
	if cfg.FileStore.Type != "" {
		archive, err = filestore.New(cfg.FileStore)
		if err != nil {
			return fmt.Errorf("init file store: %w", err)
		}
	}

	retrieval := service.NewRetrievalService(dispatcher, docs, idx, oracles, oracles, oracles, archive, time.Duration(cfg.AI.Timeout)*time.Second)
	authService := service.NewAuthService(cfg.Admin, []byte(cfg.JWTSecret), time.Minute*time.Duration(cfg.JWTTTLMinutes))

	if cfg.Audit.Enabled {
		scheduler := schedule.NewCronScheduler()
		if err := scheduler.AddJob(job.NewIndexAuditJob(retrieval), cfg.Audit.Spec); err != nil {
			return err
		}
		scheduler.Start(ctx)
		defer scheduler.Stop()
	}

	deps := handler.RouterDeps{
		Auth:            handler.NewAuthHandler(authService),
		Documents:       handler.NewDocumentHandler(retrieval, cfg.UploadMaxBytes),
		QA:              handler.NewQAHandler(retrieval),
		JWTSecret:       []byte(cfg.JWTSecret),
		UploadPerMinute: cfg.RateLimit.UploadPerMinute,
		AskPerMinute:    cfg.RateLimit.AskPerMinute,
	}
	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	engine, err := webapi.NewEngine(
		"/api/v1",
		addr,
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORSAllowlist),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}
	logger.Info("http server listening", zap.String("addr", addr))

	errCh := make(chan error, 1)
	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("server stopping...")
		return nil
	case err := <-errCh:
		return fmt.Errorf("serve http: %w", err)
	}
}
