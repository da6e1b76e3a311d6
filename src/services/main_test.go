package services

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/username/easysplit/backend/src/config"
	"github.com/username/easysplit/backend/src/database"
	"github.com/username/easysplit/backend/src/logger"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")

	config.Cfg = &config.AppConfig{
		Port:               "8080",
		BaseCurrency:       "GBP",
		RatesAPIURL:        "http://127.0.0.1:1", // unreachable, tests exercise the fallback path
		RatesTimeout:       50 * time.Millisecond,
		RatesCacheTTL:      time.Minute,
		RatesFallback:      map[string]float64{"GBP": 1.0, "EUR": 0.86, "CNY": 0.11},
		RateMissingPolicy:  config.RateMissingPolicyFail,
		ReportCacheTTL:     time.Minute,
		MaxUploadSizeBytes: 1 << 20,
	}

	tmpDir, err := os.MkdirTemp("", "easysplit-services-test")
	if err != nil {
		panic(err)
	}
	database.InitDB(filepath.Join(tmpDir, "test.db"))

	code := m.Run()
	os.RemoveAll(tmpDir)
	os.Exit(code)
}
