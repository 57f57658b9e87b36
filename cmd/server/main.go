package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/warroomhq/warroom/internal/api"
	"github.com/warroomhq/warroom/internal/config"
	"github.com/warroomhq/warroom/internal/contacts"
	"github.com/warroomhq/warroom/internal/content"
	"github.com/warroomhq/warroom/internal/store"
	"github.com/warroomhq/warroom/internal/transport"
)

// checkPortAvailable verifies that the target port is not already in use.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v", port, addr, err)
	}
	ln.Close()
	return nil
}

func main() {
	log.Println("War Room server starting")

	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if os.Getenv("DATABASE_URL") != "" {
		log.Println("[config] DATABASE_URL env override active")
	}

	host := cfg.Server.GetHost()
	port := cfg.Server.Port
	if err := checkPortAvailable(host, port); err != nil {
		log.Fatalf("Pre-flight check FAILED: %v", err)
	}

	// Mail transport: SES when enabled, SMTP otherwise.
	var mailer transport.MailTransport
	if cfg.SES.Enabled {
		ses, err := transport.NewSESTransport(cfg.SES.AccessKey, cfg.SES.SecretKey,
			cfg.SES.Region, cfg.SES.FromAddress, cfg.SES.FromName)
		if err != nil {
			log.Fatalf("Failed to initialize SES transport: %v", err)
		}
		mailer = ses
		log.Printf("[transport] SES region=%s", cfg.SES.Region)
	} else {
		mailer = transport.NewSMTPTransport(cfg.SMTP.Host, cfg.SMTP.Port,
			cfg.SMTP.Username, cfg.SMTP.Password, cfg.Dispatch.FromName)
		log.Printf("[transport] SMTP host=%s:%d", cfg.SMTP.Host, cfg.SMTP.Port)
	}

	// Persistence: Postgres when configured, in-memory otherwise.
	var st store.Store
	if cfg.Database.Enabled && cfg.Database.URL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		pg, err := store.Open(ctx, cfg.Database.URL)
		cancel()
		if err != nil {
			log.Fatalf("Failed to connect to Postgres: %v", err)
		}
		defer pg.Close()
		if err := pg.EnsureSchema(context.Background()); err != nil {
			log.Fatalf("Failed to ensure schema: %v", err)
		}
		st = pg
		log.Println("[store] Postgres connected")
	} else {
		st = store.NewMemoryStore()
		log.Println("[store] in-memory (no DATABASE_URL)")
	}

	// Content generation providers.
	var genOpts []content.AIOption
	if cfg.AI.AnthropicAPIKey != "" {
		genOpts = append(genOpts, content.WithAnthropic(cfg.AI.AnthropicAPIKey, cfg.AI.AnthropicModel))
	}
	if cfg.AI.OpenAIAPIKey != "" {
		genOpts = append(genOpts, content.WithOpenAI(cfg.AI.OpenAIAPIKey, cfg.AI.OpenAIModel))
	}
	if cfg.AI.Enabled && cfg.AI.AnthropicAPIKey == "" && cfg.AI.OpenAIAPIKey == "" {
		genOpts = append(genOpts, content.WithBedrock(cfg.AI.BedrockRegion, cfg.AI.BedrockModelID))
	}
	generator := content.NewAIGenerator(genOpts...)
	newsletter := content.NewNewsletterBuilder(cfg.RSS.MaxItems)

	handlers := api.NewHandlers(st, mailer, generator, newsletter, cfg.Dispatch.Delay())

	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.Printf("[redis] unavailable, progress tracking disabled: %v", err)
		} else {
			handlers.SetRedis(rdb)
			log.Printf("[redis] connected addr=%s", cfg.Redis.Addr)
		}
	}

	if cfg.Contacts.Enabled {
		src, err := contacts.NewS3Source(cfg.Contacts.AccessKey, cfg.Contacts.SecretKey,
			cfg.Contacts.S3Region, cfg.Contacts.S3Bucket)
		if err != nil {
			log.Printf("[contacts] s3 source disabled: %v", err)
		} else {
			handlers.SetS3Source(src)
			log.Printf("[contacts] s3 source bucket=%s", cfg.Contacts.S3Bucket)
		}
	}

	router := api.SetupRoutes(handlers)
	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", host, port),
		Handler: router,
	}

	// Setup graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Starting server on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
