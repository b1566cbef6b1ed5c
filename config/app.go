package config

import "sync"

var (
	appOnce   sync.Once
	appConfig *AppConfig
)

// AppConfig holds the service-level settings.
type AppConfig struct {
	Env             string
	ServiceName     string
	Version         string
	HTTPPort        string
	GRPCPort        string
	LogLevel        string
	LogFile         string
	ProcessorConfig string
	StorageRoot     string
	Pipeline        string
}

func GetAppConfig() *AppConfig {
	appOnce.Do(func() {
		appConfig = LoadAppConfig()
	})
	return appConfig
}

// LoadAppConfig reads the settings without caching them.
func LoadAppConfig() *AppConfig {
	loadEnv()

	return &AppConfig{
		Env:             getEnvKeepEmpty("ENV", "development"),
		ServiceName:     getEnv("SERVICE_NAME", "doc-intelligence"),
		Version:         getEnv("VERSION", "1.0.0"),
		HTTPPort:        getEnv("HTTP_PORT", "8001"),
		GRPCPort:        getEnv("GRPC_PORT", "9001"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFile:         getEnv("LOG_FILE", ""),
		ProcessorConfig: getEnv("PROCESSOR_CONFIG", ""),
		StorageRoot:     getEnv("STORAGE_ROOT", "data/documents"),
		Pipeline:        getEnv("PIPELINE", "nop"),
	}
}

// IsProduction reports whether ENV is production.
func (c *AppConfig) IsProduction() bool {
	return c.Env == "production"
}
