package main

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/vialuz/sac-dashboard/modules"
	"github.com/vialuz/sac-dashboard/modules/sac/services"
	"github.com/vialuz/sac-dashboard/pkg/application"
	"github.com/vialuz/sac-dashboard/pkg/composables"
	"github.com/vialuz/sac-dashboard/pkg/configuration"
	"github.com/vialuz/sac-dashboard/pkg/eventbus"
)

const (
	processedDir = "processed"
	failedDir    = "failed"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			configuration.Use().Unload()
			log.Println(r)
			debug.PrintStack()
			os.Exit(1)
		}
	}()

	conf := configuration.Use()
	logger := conf.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, conf.Database.Opts)
	if err != nil {
		panic(err)
	}
	defer pool.Close()

	app := application.New(&application.ApplicationOptions{
		Pool:     pool,
		EventBus: eventbus.NewEventPublisher(logger),
		Logger:   logger,
	})
	if err := modules.Load(app); err != nil {
		log.Fatalf("failed to load modules: %v", err)
	}

	service := app.Service(services.IngestionService{}).(*services.IngestionService)
	worker := &dropDirWorker{
		dir:      conf.Worker.DropDir,
		interval: conf.Worker.PollInterval,
		service:  service,
		logger:   logger,
	}

	logger.WithField("dir", worker.dir).Info("watching drop directory")
	worker.Run(composables.WithPool(ctx, pool))
}

// dropDirWorker polls a directory for report files and feeds them through the
// same pipeline the HTTP upload uses. Processed files move to a subdirectory
// so reruns are safe.
type dropDirWorker struct {
	dir      string
	interval time.Duration
	service  *services.IngestionService
	logger   *logrus.Logger
}

func (w *dropDirWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker stopping")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *dropDirWorker) sweep(ctx context.Context) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			w.logger.WithError(err).Error("reading drop directory")
		}
		return
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			return
		}
		if entry.IsDir() || !hasReportExtension(entry.Name()) {
			continue
		}
		w.processFile(ctx, entry.Name())
	}
}

func (w *dropDirWorker) processFile(ctx context.Context, name string) {
	path := filepath.Join(w.dir, name)
	logger := w.logger.WithField("file", name)

	raw, err := os.ReadFile(path)
	if err != nil {
		logger.WithError(err).Error("reading file")
		return
	}

	result, err := w.service.Ingest(ctx, name, raw, nil)
	if err != nil {
		logger.WithError(err).Warn("file rejected")
		w.moveTo(path, failedDir, logger)
		return
	}

	logger.WithField("status", result.Status).
		WithField("imported", result.Imported).
		WithField("duplicates", result.Duplicates).
		Info("file processed")
	w.moveTo(path, processedDir, logger)
}

func (w *dropDirWorker) moveTo(path, subdir string, logger *logrus.Entry) {
	target := filepath.Join(w.dir, subdir)
	if err := os.MkdirAll(target, 0o755); err != nil {
		logger.WithError(err).Error("creating archive directory")
		return
	}
	dest := filepath.Join(target, time.Now().UTC().Format("20060102T150405")+"_"+filepath.Base(path))
	if err := os.Rename(path, dest); err != nil {
		logger.WithError(err).Error("archiving file")
	}
}

func hasReportExtension(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".xlsx":
		return true
	}
	return false
}
