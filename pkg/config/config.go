package config

import (
	"os"
	"strconv"
)

type Config struct {
	GoogleApiKey   string
	SerperApiKey   string
	BraveApiKey    string
	SearchProvider string
	DatabaseURL    string
	PeerURL        string
	ReasoningModel string
	FastModel      string
	Port           string
	Depth          int
	Breadth        int
	MaxResults     int
	ChunkSize      int
	ChunkOverlap   int
	EmbeddingModel string
	CollectionName string
}

func Load() *Config {
	return &Config{
		GoogleApiKey:   getEnv("GOOGLE_API_KEY", ""),
		SerperApiKey:   getEnv("SERPER_API_KEY", ""),
		BraveApiKey:    getEnv("BRAVE_API_KEY", ""),
		SearchProvider: getEnv("SEARCH_PROVIDER", "serper"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		PeerURL:        getEnv("PEER_URL", ""),
		ReasoningModel: getEnv("REASONING_MODEL", "gemini-3-pro-preview"),
		FastModel:      getEnv("FAST_MODEL", "gemini-3-flash-preview"),
		Port:           getEnv("PORT", "3000"),
		Depth:          getEnvAsInt("RESEARCH_DEPTH", 2),
		Breadth:        getEnvAsInt("RESEARCH_BREADTH", 3),
		MaxResults:     getEnvAsInt("MAX_SEARCH_RESULTS", 3),
		ChunkSize:      getEnvAsInt("CHUNK_SIZE", 1000),
		ChunkOverlap:   getEnvAsInt("CHUNK_OVERLAP", 200),
		EmbeddingModel: getEnv("EMBEDDING_MODEL", "gemini-embedding-001"),
		CollectionName: getEnv("COLLECTION_NAME", "research_sources"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
