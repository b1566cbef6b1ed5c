package config

import (
	"sync"
	"time"
)

var (
	ollamaOnce   sync.Once
	ollamaConfig *OllamaConfig
)

type OllamaConfig struct {
	Endpoint    string
	Model       string
	MaxTokens   int
	Temperature float64
	MaxPoolSize int
	PoolTimeout time.Duration
}

func GetOllamaConfig() *OllamaConfig {
	ollamaOnce.Do(func() {
		loadEnv()

		ollamaConfig = &OllamaConfig{
			Endpoint:    getEnv("OLLAMA_ENDPOINT", "http://localhost:11434"),
			Model:       getEnv("OLLAMA_MODEL", "llama3.2"),
			MaxTokens:   getEnvInt("OLLAMA_MAX_TOKENS", 200),
			Temperature: 0.1,
			MaxPoolSize: getEnvInt("OLLAMA_POOL_SIZE", 4),
			PoolTimeout: time.Duration(getEnvInt("OLLAMA_POOL_TIMEOUT_SECONDS", 30)) * time.Second,
		}
	})
	return ollamaConfig
}
