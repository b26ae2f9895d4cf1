package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mrxohit/Collection-Site/internal/config"
	"github.com/mrxohit/Collection-Site/internal/httpapi"
	"github.com/mrxohit/Collection-Site/internal/ledger"
	"github.com/mrxohit/Collection-Site/internal/store"
	boltstore "github.com/mrxohit/Collection-Site/internal/store/bolt"
	"github.com/mrxohit/Collection-Site/internal/store/memory"
	pgstore "github.com/mrxohit/Collection-Site/internal/store/postgres"
	redisstore "github.com/mrxohit/Collection-Site/internal/store/redis"
)

func main() {
	cfg := config.Load()
	if err := validateSecurityConfig(cfg); err != nil {
		log.Fatalf("invalid security configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	docs, closers := openStore(ctx, cfg)

	loc, err := time.LoadLocation(cfg.StoreTimezone)
	if err != nil {
		log.Fatalf("invalid STORE_TIMEZONE %q: %v", cfg.StoreTimezone, err)
	}

	engine := ledger.New(ctx, docs, ledger.Options{Location: loc, Seed: true})

	// Two-phase startup: catch-up must finish before the scheduler arms, so
	// rollover never observes stale prior-day journal entries.
	engine.CatchUp(ctx)
	scheduler := ledger.NewScheduler(engine, time.Duration(cfg.RolloverBufferSeconds)*time.Second)
	scheduler.Start()

	auth, err := httpapi.NewAuthManager(
		cfg.AuthSecret,
		time.Duration(cfg.AccessTokenTTLMinutes)*time.Minute,
		seedUsers(),
	)
	if err != nil {
		log.Fatalf("auth setup: %v", err)
	}
	api := httpapi.New(engine, auth, cfg.AllowedOrigin)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("collection backend listening on %s", cfg.Address())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	scheduler.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}

	engine.Flush(shutdownCtx)

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Printf("close error: %v", err)
		}
	}

	log.Println("server stopped")
}

// openStore picks the persistence backend: postgres when DATABASE_URL is
// set, then redis, then bolt. STORE_BACKEND=memory forces the in-memory
// store for throwaway runs.
func openStore(ctx context.Context, cfg config.Config) (store.DocumentStore, []func() error) {
	closers := make([]func() error, 0, 1)

	if cfg.StoreBackend == "memory" {
		log.Println("store: in-memory")
		return memory.New(), closers
	}

	if cfg.DatabaseURL != "" {
		pg, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("postgres unavailable (%v) and DATABASE_URL is set; refusing to start", err)
		}
		log.Println("store: postgres")
		return pg, append(closers, pg.Close)
	}

	if cfg.RedisAddr != "" {
		rs := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := rs.Ping(ctx); err != nil {
			log.Fatalf("redis unavailable (%v) and REDIS_ADDR is set; refusing to start", err)
		}
		log.Println("store: redis")
		return rs, append(closers, rs.Close)
	}

	bs, err := boltstore.New(cfg.BoltPath)
	if err != nil {
		log.Fatalf("failed to open bolt store at %s: %v", cfg.BoltPath, err)
	}
	log.Printf("store: bolt (%s)", cfg.BoltPath)
	return bs, append(closers, bs.Close)
}

// seedUsers builds the login accounts for this deployment. Passwords come
// from SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD; dev defaults are used
// with a warning when unset.
func seedUsers() []httpapi.SeedUser {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	cashierPwd := envOr("SEED_CASHIER_PASSWORD", "cashier123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_CASHIER_PASSWORD") == "" {
		log.Println("WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD to override.")
	}

	return []httpapi.SeedUser{
		{Username: "admin", Password: adminPwd, Role: "admin"},
		{Username: "cashier", Password: cashierPwd, Role: "cashier"},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	return nil
}
