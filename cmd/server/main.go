package main

import (
	"context"
	"io/fs"
	"log"
	"os"
	"runtime/debug"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/vialuz/sac-dashboard/internal/server"
	"github.com/vialuz/sac-dashboard/modules"
	"github.com/vialuz/sac-dashboard/pkg/application"
	"github.com/vialuz/sac-dashboard/pkg/configuration"
	"github.com/vialuz/sac-dashboard/pkg/eventbus"
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

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
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

	if err := applyMigrations(context.Background(), app, pool); err != nil {
		log.Fatalf("failed to apply migrations: %v", err)
	}

	serverInstance, err := server.Default(&server.DefaultOptions{
		Logger:        logger,
		Configuration: conf,
		Application:   app,
		Pool:          pool,
	})
	if err != nil {
		log.Fatalf("failed to create server: %v", err)
	}
	logger.Infof("listening on %s", conf.Address)
	if err := serverInstance.Start(context.Background(), conf.Address); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}

func applyMigrations(ctx context.Context, app application.Application, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer func() {
		_ = db.Close()
	}()

	for _, source := range app.Migrations().Sources() {
		sub, err := fs.Sub(source.FS, source.Dir)
		if err != nil {
			return err
		}
		provider, err := goose.NewProvider(goose.DialectPostgres, db, sub)
		if err != nil {
			return err
		}
		if _, err := provider.Up(ctx); err != nil {
			return err
		}
	}
	return nil
}
