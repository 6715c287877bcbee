// Package main runs the pet store API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	app "github.com/pawmart/petstore/internal/app"
	"github.com/pawmart/petstore/internal/app/cache"
	"github.com/pawmart/petstore/internal/app/httpapi"
	"github.com/pawmart/petstore/internal/app/services/auth"
	"github.com/pawmart/petstore/internal/app/services/ordernum"
	"github.com/pawmart/petstore/internal/app/storage/postgres"
	"github.com/pawmart/petstore/internal/config"
	"github.com/pawmart/petstore/internal/database"
	"github.com/pawmart/petstore/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}).WithComponent("petstore")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stores := app.Stores{}
	if cfg.Database.DSN != "" {
		db, err := database.Open(cfg.Database)
		if err != nil {
			log.WithError(err).Fatal("open database")
		}
		defer db.Close()

		if err := database.Migrate(db); err != nil {
			log.WithError(err).Fatal("run migrations")
		}

		store := postgres.New(db)
		stores = app.Stores{
			Users:      store,
			Addresses:  store,
			Categories: store,
			Pets:       store,
			Carts:      store,
			Discounts:  store,
			Orders:     store,
			Deliveries: store,
			Audits:     store,
		}
		log.Info("using postgres store")
	} else {
		log.Warn("DATABASE_DSN not set; using in-memory store")
	}

	opts := app.Options{
		TokenProvider: auth.NewTokenProvider(cfg.JWT.Secret, cfg.JWT.Expiry),
		OrderNumbers:  ordernum.FromConfig(cfg.Order.GeneratorType),
	}

	if cfg.Redis.Addr != "" {
		petCache, err := cache.NewPetCache(ctx, cfg.Redis, log.WithComponent("petcache"))
		if err != nil {
			log.WithError(err).Warn("redis unavailable; running without pet cache")
		} else {
			defer petCache.Close()
			opts.PetCache = petCache
			log.Info("pet cache enabled")
		}
	}

	application := app.New(stores, opts, log)
	api := httpapi.NewServer(application, opts.TokenProvider, log.WithComponent("httpapi"))

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      api.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.WithField("addr", server.Addr).Info("server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server error")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("shutdown error")
	}
	log.Info("server stopped")
}
