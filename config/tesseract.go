package config

import (
	"strings"
	"sync"
)

var (
	tesseractOnce   sync.Once
	tesseractConfig *TesseractConfig
)

// TesseractConfig applies only to binaries built with -tags tesseract.
type TesseractConfig struct {
	Languages []string
}

func GetTesseractConfig() *TesseractConfig {
	tesseractOnce.Do(func() {
		loadEnv()

		tesseractConfig = &TesseractConfig{
			Languages: strings.Split(getEnv("TESSERACT_LANGUAGES", "eng"), "+"),
		}
	})
	return tesseractConfig
}
