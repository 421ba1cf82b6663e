package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Cache     CacheConfig
	Retrieval RetrievalConfig
	Pipeline  PipelineConfig
	Ai        AIConfig
}

type AppConfig struct {
	Environment string
	LogFilePath string
	NatsURL     string
	RedisURL    string
	OtlpURL     string
}

type DatabaseConfig struct {
	Connection string
}

type CacheConfig struct {
	L1Capacity    int
	SweepInterval time.Duration
	EmbeddingTTL  time.Duration
	SpeechTTL     time.Duration
	ResponseTTL   time.Duration
	SearchTTL     time.Duration
}

type RetrievalConfig struct {
	Strategy         string // "fixed" or "adaptive"
	WebSearchURL     string // empty disables the web source
	SubSearchTimeout time.Duration
	TokenBudget      int
	MaxResults       int
}

type PipelineConfig struct {
	RecentTurnLimit int
	LongTermWindow  time.Duration
	ShortInputRunes int
	ProgressTopic   string
	TurnSubject     string
	CheckpointTTL   time.Duration
}

type AIConfig struct {
	LLMProvider       string // "ollama", "openai", etc
	LLMModel          string // e.g. "llama3", "qwen2.5"
	EmbeddingProvider string
	OllamaBaseURL     string
	WhisperURL        string // empty disables audio turns
	ClassifierEnabled bool
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Environment: getEnv("GO_ENV", "development"),
			LogFilePath: getEnv("LOG_FILE_PATH", "logs/app.log"),
			NatsURL:     getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379"),
			OtlpURL:     getEnv("OTLP_ENDPOINT", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Cache: CacheConfig{
			L1Capacity:    getEnvAsInt("CACHE_L1_CAPACITY", 2048),
			SweepInterval: getEnvAsDuration("CACHE_SWEEP_INTERVAL", 10*time.Minute),
			EmbeddingTTL:  getEnvAsDuration("CACHE_EMBEDDING_TTL", 24*time.Hour),
			SpeechTTL:     getEnvAsDuration("CACHE_SPEECH_TTL", 168*time.Hour),
			ResponseTTL:   getEnvAsDuration("CACHE_RESPONSE_TTL", 1*time.Hour),
			SearchTTL:     getEnvAsDuration("CACHE_SEARCH_TTL", 5*time.Minute),
		},
		Retrieval: RetrievalConfig{
			Strategy:         getEnv("RETRIEVAL_STRATEGY", "adaptive"),
			WebSearchURL:     getEnv("WEB_SEARCH_URL", ""),
			SubSearchTimeout: getEnvAsDuration("RETRIEVAL_SUBSEARCH_TIMEOUT", 8*time.Second),
			TokenBudget:      getEnvAsInt("RETRIEVAL_TOKEN_BUDGET", 2000),
			MaxResults:       getEnvAsInt("RETRIEVAL_MAX_RESULTS", 10),
		},
		Pipeline: PipelineConfig{
			RecentTurnLimit: getEnvAsInt("MEMORY_RECENT_TURNS", 10),
			LongTermWindow:  getEnvAsDuration("MEMORY_LONG_TERM_WINDOW", 2160*time.Hour),
			ShortInputRunes: getEnvAsInt("PIPELINE_SHORT_INPUT_RUNES", 12),
			ProgressTopic:   getEnv("PROGRESS_TOPIC", "pipeline.progress"),
			TurnSubject:     getEnv("TURN_SUBJECT", "turns.request"),
			CheckpointTTL:   getEnvAsDuration("CHECKPOINT_TTL", 24*time.Hour),
		},
		Ai: AIConfig{
			LLMProvider:       getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:          getEnv("LLM_MODEL", "llama3"),
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "ollama"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			WhisperURL:        getEnv("WHISPER_URL", ""),
			ClassifierEnabled: getEnvAsBool("ROUTER_CLASSIFIER_ENABLED", false),
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

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
