package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"rag-chat-orchestrator/internal/bootstrap"
	"rag-chat-orchestrator/internal/config"
	"rag-chat-orchestrator/internal/server"
	"rag-chat-orchestrator/internal/tracer"
	"rag-chat-orchestrator/pkg/database"
)

func main() {
	// 0. Initialize Tracer
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)

	// 4. Start the Orchestrator (durable subscriptions + reaper)
	if err := container.OrchestratorService.Start(); err != nil {
		log.Panicf("Unable to start orchestrator: %v", err)
	}
	log.Println("Background: Orchestrator consuming chat events...")

	// 5. Initialize Health Server
	srv := server.New(cfg, container)

	go func() {
		if err := srv.Run(); err != nil {
			log.Printf("Health server stopped: %v", err)
		}
	}()

	// 6. Wait for shutdown signal, then drain in-flight generations
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down: draining in-flight generations...")
	container.OrchestratorService.Shutdown()
	if err := srv.Shutdown(); err != nil {
		log.Printf("Health server shutdown: %v", err)
	}
	container.Close()
	log.Println("Shutdown complete")
}
