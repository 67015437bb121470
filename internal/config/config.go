package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Broker   BrokerConfig
	Ai       AIConfig
	Chat     ChatConfig
}

type AppConfig struct {
	Port        string
	Environment string
	LogFilePath string
	RedisURL    string
}

type DatabaseConfig struct {
	Connection string
}

type BrokerConfig struct {
	Backend string // "nats" or "channel" (in-process, single instance only)
	NatsURL string
}

type AIConfig struct {
	LLMProvider   string // "ollama", etc
	LLMModel      string // e.g. "llama3", "qwen2.5"
	OllamaBaseURL string
}

type ChatConfig struct {
	RegistryBackend       string // "memory" or "redis"
	PendingTimeoutSeconds int    // unmatched pending queries fail after this bound
	ReapIntervalSeconds   int
	MaxInFlight           int // per-process unacked delivery / generation bound
	HistoryLimit          int // turns loaded for generation context
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:        getEnv("APP_PORT", "3000"),
			Environment: getEnv("GO_ENV", "development"),
			LogFilePath: getEnv("LOG_FILE_PATH", "logs/orchestrator.log"),
			RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Broker: BrokerConfig{
			Backend: getEnv("BROKER_BACKEND", "nats"),
			NatsURL: getEnv("NATS_URL", "nats://localhost:4222"),
		},
		Ai: AIConfig{
			LLMProvider:   getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:      getEnv("LLM_MODEL", "llama3"),
			OllamaBaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		},
		Chat: ChatConfig{
			RegistryBackend:       getEnv("REGISTRY_BACKEND", "memory"),
			PendingTimeoutSeconds: getEnvAsInt("PENDING_TIMEOUT_SECONDS", 60),
			ReapIntervalSeconds:   getEnvAsInt("REAP_INTERVAL_SECONDS", 10),
			MaxInFlight:           getEnvAsInt("MAX_IN_FLIGHT", 8),
			HistoryLimit:          getEnvAsInt("HISTORY_LIMIT", 10),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}
