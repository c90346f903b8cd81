package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"studyroom-be/internal/bootstrap"
	"studyroom-be/internal/config"
	"studyroom-be/internal/server"
	"studyroom-be/internal/tracer"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()
	if cfg.Security.AuthKey == "" {
		log.Println("[WARN] AUTH_KEY is empty, every login will be rejected")
	}

	// Tracing (OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer(cfg.Tracing)
	defer shutdownTracer(context.Background())

	// 2. Bootstrap Dependencies (Container)
	container, err := bootstrap.NewContainer(cfg)
	if err != nil {
		log.Panicf("Unable to bootstrap: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Start Background Services
	if err := container.Start(ctx); err != nil {
		log.Panicf("Unable to start background services: %v", err)
	}

	// 4. Initialize Server
	srv := server.New(cfg, container)

	go func() {
		<-ctx.Done()
		log.Println("Shutting down...")
		container.Close()
		if err := srv.Shutdown(); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	// 5. Run Server
	if err := srv.Run(); err != nil {
		log.Fatal(err)
	}
}
