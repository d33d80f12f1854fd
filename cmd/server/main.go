package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ignite/library-api/internal/api"
	"github.com/ignite/library-api/internal/config"
	"github.com/ignite/library-api/internal/mail"
	"github.com/ignite/library-api/internal/pkg/distlock"
	"github.com/ignite/library-api/internal/repository/postgres"
	"github.com/ignite/library-api/internal/service/book"
	"github.com/ignite/library-api/internal/service/loan"
	"github.com/ignite/library-api/internal/worker"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if os.Getenv("DATABASE_URL") != "" {
		log.Println("[config] DATABASE_URL env override active")
	}

	if cfg.Database.URL == "" {
		log.Fatal("database url is required (config database.url or DATABASE_URL)")
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime())

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		pingCancel()
		log.Fatalf("Failed to ping database: %v", err)
	}
	pingCancel()
	log.Println("Connected to database")

	bookRepo := postgres.NewBookRepo(db)
	loanRepo := postgres.NewLoanRepo(db)

	bookService := book.NewService(bookRepo)
	loanService := loan.NewService(loanRepo, bookRepo)

	handlers := api.NewHandlers(bookService, loanService)
	server := api.NewServer(cfg.Server, handlers)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Optional Redis for the notifier's distributed lock. Without it the
	// notifier falls back to a PG advisory lock.
	var redisClient *redis.Client
	if cfg.Redis.Enabled && cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			redisClient = redis.NewClient(&redis.Options{Addr: cfg.Redis.URL})
		} else {
			redisClient = redis.NewClient(opts)
		}
		rCtx, rCancel := context.WithTimeout(ctx, 3*time.Second)
		if err := redisClient.Ping(rCtx).Err(); err != nil {
			log.Printf("Warning: Redis connection failed (%s): %v — falling back to PG advisory lock", cfg.Redis.URL, err)
			redisClient.Close()
			redisClient = nil
		} else {
			log.Printf("Redis connected: %s", cfg.Redis.URL)
		}
		rCancel()
	}

	var notifier *worker.OverdueNotifier
	if cfg.Notifier.Enabled {
		var sender mail.Sender
		if cfg.SES.Enabled && cfg.SES.FromAddress != "" {
			sesSender, err := mail.NewSESSender(cfg.SES.AccessKey, cfg.SES.SecretKey, cfg.SES.Region, cfg.SES.FromAddress, cfg.Notifier.Subject)
			if err != nil {
				log.Printf("Warning: Failed to initialize SES sender: %v — overdue notices will be logged only", err)
				sender = mail.LogSender{}
			} else {
				sender = sesSender
				log.Printf("SES sender initialized (region: %s, from: %s)", cfg.SES.Region, cfg.SES.FromAddress)
			}
		} else {
			sender = mail.LogSender{}
			log.Println("SES not configured — overdue notices will be logged only")
		}

		notifier = worker.NewOverdueNotifier(loanService, sender, cfg.Notifier.GraceDays, cfg.Notifier.Hour, cfg.Notifier.Message)
		notifier.SetLock(distlock.NewLock(redisClient, db, "overdue-notifier", 10*time.Minute))
		if err := notifier.Start(ctx); err != nil {
			log.Printf("Warning: Failed to start overdue notifier: %v", err)
		} else {
			log.Printf("Overdue notifier started (daily at %02d:00 UTC, grace: %d days)", cfg.Notifier.Hour, cfg.Notifier.GraceDays)
		}
	} else {
		log.Println("Overdue notifier disabled")
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.GetHost(), cfg.Server.Port)
		log.Printf("Starting server on %s", addr)
		if err := server.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down...")

	cancel()
	if notifier != nil {
		notifier.Stop()
	}
	if redisClient != nil {
		redisClient.Close()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
