package bootstrap

import (
	"context"
	"log"
	"time"

	"rag-chat-orchestrator/internal/config"
	"rag-chat-orchestrator/internal/pkg/logger"
	"rag-chat-orchestrator/internal/repository/implementation"
	"rag-chat-orchestrator/internal/service"
	"rag-chat-orchestrator/pkg/channel"
	"rag-chat-orchestrator/pkg/channel/gochannel"
	pkgNats "rag-chat-orchestrator/pkg/channel/nats"
	"rag-chat-orchestrator/pkg/chat/grounding"
	"rag-chat-orchestrator/pkg/chat/registry"
	"rag-chat-orchestrator/pkg/chat/response"
	"rag-chat-orchestrator/pkg/chat/router"
	"rag-chat-orchestrator/pkg/llm/factory"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	OrchestratorService service.IOrchestratorService
	Logger              logger.ILogger

	publisher  channel.Publisher
	subscriber channel.Subscriber
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	streamLogger := logger.NewIsolatedLogger("logs/stream.log")

	pendingTimeout := time.Duration(cfg.Chat.PendingTimeoutSeconds) * time.Second
	reapInterval := time.Duration(cfg.Chat.ReapIntervalSeconds) * time.Second

	// 1. Message Channel
	var publisher channel.Publisher
	var subscriber channel.Subscriber
	if cfg.Broker.Backend == "channel" {
		bus := gochannel.NewAdapter()
		publisher = bus
		subscriber = bus
		log.Printf("[INFO] Using Broker: in-process channel (single instance only)")
	} else {
		natsPub, err := pkgNats.NewPublisher(cfg.Broker.NatsURL)
		if err != nil {
			log.Fatalf("[FATAL] Failed to connect NATS publisher: %v", err)
		}
		natsSub, err := pkgNats.NewSubscriber(cfg.Broker.NatsURL, cfg.Chat.MaxInFlight)
		if err != nil {
			log.Fatalf("[FATAL] Failed to connect NATS subscriber: %v", err)
		}
		publisher = natsPub
		subscriber = natsSub
		log.Printf("[INFO] Using Broker: NATS JetStream (%s)", cfg.Broker.NatsURL)
	}

	// 2. Registries
	var pending registry.PendingRegistry
	var cancels registry.CancellationRegistry
	if cfg.Chat.RegistryBackend == "redis" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{Addr: cfg.App.RedisURL}
		}
		rdb := redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
		pending = registry.NewRedisPendingRegistry(rdb, pendingTimeout)
		cancels = registry.NewRedisCancellationRegistry(rdb, pendingTimeout, sysLogger)
		log.Printf("[INFO] Using Registries: REDIS")
	} else {
		pending = registry.NewMemoryPendingRegistry()
		cancels = registry.NewMemoryCancellationRegistry()
		log.Printf("[INFO] Using Registries: MEMORY")
	}

	// 3. LLM Provider
	llmProvider, err := factory.NewLLMProvider(cfg.Ai.LLMProvider, cfg.Ai.LLMModel, cfg.Ai.OllamaBaseURL)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 4. Repositories + domain components
	turnRepo := implementation.NewConversationTurnRepository(db)
	configRepo := implementation.NewSessionConfigRepository(db)

	resolver := service.NewSessionConfigResolver(configRepo, sysLogger)
	queryRouter := router.NewRouter(resolver, pending, publisher, sysLogger)
	assembler := grounding.NewAssembler(sysLogger)
	generator := response.NewGenerator(llmProvider, streamLogger)
	history := service.NewHistoryLoader(turnRepo, cfg.Chat.HistoryLimit)

	orchestrator := service.NewOrchestratorService(
		publisher,
		subscriber,
		queryRouter,
		assembler,
		generator,
		pending,
		cancels,
		history,
		sysLogger,
		pendingTimeout,
		reapInterval,
		cfg.Chat.MaxInFlight,
	)

	return &Container{
		OrchestratorService: orchestrator,
		Logger:              sysLogger,
		publisher:           publisher,
		subscriber:          subscriber,
	}
}

// Close releases broker connections after the orchestrator has drained.
func (c *Container) Close() {
	c.subscriber.Close()
	c.publisher.Close()
	if err := c.Logger.Sync(); err != nil {
		log.Printf("Logger sync: %v", err)
	}
}
