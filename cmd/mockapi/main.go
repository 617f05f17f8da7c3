// Command mockapi serves a seeded in-memory accounting backend for local
// development and demos.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erp/books/internal/infrastructure/logger"
	"github.com/erp/books/internal/testutil/fakeapi"
	"go.uber.org/zap"
)

func main() {
	var (
		addr     = flag.String("addr", ":8000", "listen address")
		seed     = flag.Uint64("seed", 42, "seed for the generated records")
		vendors  = flag.Int("vendors", 8, "vendors per company")
		items    = flag.Int("items", 20, "items per company")
		bills    = flag.Int("bills", 15, "bills per company")
		orders   = flag.Int("orders", 6, "purchase orders per company")
		logLevel = flag.String("log-level", "info", "log level")
	)
	flag.Parse()

	cfg := logger.DefaultConfig()
	cfg.Level = *logLevel
	log, err := logger.New(cfg)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	api := fakeapi.New(fakeapi.Options{
		Seed:    *seed,
		Vendors: *vendors,
		Items:   *items,
		Bills:   *bills,
		Orders:  *orders,
		Logger:  log,
	})

	srv := &http.Server{
		Addr:              *addr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("mock backend listening",
			zap.String("addr", *addr),
			zap.String("base_url", "http://localhost"+*addr+fakeapi.APIPrefix),
			zap.String("company_id", fakeapi.DefaultCompanyID),
			zap.String("username", fakeapi.DefaultUsername),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("forced shutdown", zap.Error(err))
	}
}
