package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"auditline.org/internal/calls"
	"auditline.org/internal/directory"
	"auditline.org/internal/httpapi"
	"auditline.org/internal/notify"
	"auditline.org/internal/obs"
	"auditline.org/internal/store/pg"
)

var (
	version = "0.3.0"
	commit  = "dev"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	addr := os.Getenv("AUDITLINE_HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	cfg := httpapi.Config{
		Version: version,
	}

	// With a DSN the platform runs against Postgres; without one it falls
	// back to in-memory stores, which is enough for local development.
	var store *pg.Store
	if dsn := os.Getenv("AUDITLINE_PG_DSN"); dsn != "" {
		var err error
		store, err = pg.Open(dsn)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		cfg.ReadyProbe = httpapi.ReadyProbe{DB: store.DB()}
		cfg.Calls = store
		cfg.Profiles = store
		// Notifications write through to Postgres so they survive restarts;
		// the in-process feed only carries long-poll wake-ups.
		cfg.Feed = notify.NewFeedWithLog(store)
		dir, err := directory.NewService(store)
		if err != nil {
			log.Fatalf("directory service: %v", err)
		}
		cfg.Directory = dir
	} else {
		cfg.Calls = calls.NewInMemory()
		cfg.Feed = notify.NewFeed()
		dir, err := directory.NewService(directory.NewMemory())
		if err != nil {
			log.Fatalf("directory service: %v", err)
		}
		cfg.Directory = dir
	}

	api := httpapi.New(cfg)

	handler := httpapi.SecurityHeaders(api.Handler())
	handler = httpapi.CORS(handler)
	handler = httpapi.MaxBodyBytes(handler, 1<<20)
	handler = httpapi.RateLimit(handler, 50, 25)

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		// Long polls hold responses open for up to a minute.
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Starting auditline-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if store != nil {
		_ = store.Close()
	}
	log.Println("Stopped")
}
