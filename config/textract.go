package config

import "sync"

var (
	textractOnce   sync.Once
	textractConfig *TextractConfig
)

type TextractConfig struct {
	Region        string
	AccessKey     string
	SecretKey     string
	MinConfidence float64
	// Preprocess normalizes JPEG and PNG scans before upload.
	Preprocess   bool
	MaxDimension int
}

func (c *TextractConfig) Enabled() bool {
	return c.Region != ""
}

func GetTextractConfig() *TextractConfig {
	textractOnce.Do(func() {
		loadEnv()

		textractConfig = &TextractConfig{
			Region:        getEnv("AWS_REGION", ""),
			AccessKey:     getEnv("AWS_ACCESS_KEY", ""),
			SecretKey:     getEnv("AWS_SECRET_KEY", ""),
			MinConfidence: float64(getEnvInt("TEXTRACT_MIN_CONFIDENCE", 80)),
			Preprocess:    getEnvBool("TEXTRACT_PREPROCESS", true),
			MaxDimension:  getEnvInt("TEXTRACT_MAX_DIMENSION", 4096),
		}
	})
	return textractConfig
}
