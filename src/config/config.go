package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Rate policies for currencies that have debt but no table entry.
const (
	RateMissingPolicyFail       = "fail"
	RateMissingPolicyAssumeBase = "assume-base"
)

type AppConfig struct {
	Port               string
	DatabasePath       string
	LogLevel           string
	MaxUploadSizeBytes int64

	BaseCurrency      string
	RatesAPIURL       string
	RatesTimeout      time.Duration
	RatesCacheTTL     time.Duration
	RatesFallback     map[string]float64
	RateMissingPolicy string

	ReportCacheTTL time.Duration

	EmailServiceProvider string

	SMTPServer   string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string

	MailgunDomain        string
	MailgunPrivateAPIKey string

	SenderEmail string
	SenderName  string
}

var Cfg *AppConfig

func LoadConfig() {
	errEnv := godotenv.Load()
	if errEnv != nil {
		log.Println("Info: No .env file found or error loading .env file. Relying on OS environment variables and defaults. Error (if any):", errEnv)
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	baseCurrency := strings.ToUpper(getEnv("BASE_CURRENCY", "GBP"))
	if len(baseCurrency) != 3 {
		log.Printf("WARNING: Invalid BASE_CURRENCY '%s' (expected a 3-letter code). Using default GBP.", baseCurrency)
		baseCurrency = "GBP"
	}

	rateMissingPolicy := strings.ToLower(getEnv("RATE_MISSING_POLICY", RateMissingPolicyFail))
	if rateMissingPolicy != RateMissingPolicyFail && rateMissingPolicy != RateMissingPolicyAssumeBase {
		log.Printf("WARNING: Invalid RATE_MISSING_POLICY '%s'. Using default '%s'.", rateMissingPolicy, RateMissingPolicyFail)
		rateMissingPolicy = RateMissingPolicyFail
	}

	maxUploadSizeBytesStr := getEnv("MAX_UPLOAD_SIZE_BYTES", "10485760")
	maxUploadSizeBytes, err := strconv.ParseInt(maxUploadSizeBytesStr, 10, 64)
	if err != nil {
		log.Printf("WARNING: Invalid MAX_UPLOAD_SIZE_BYTES format '%s'. Using default 10MB. Error: %v", maxUploadSizeBytesStr, err)
		maxUploadSizeBytes = 10 * 1024 * 1024
	}

	Cfg = &AppConfig{
		Port:               getEnv("PORT", "8080"),
		DatabasePath:       getEnv("DATABASE_PATH", "./easysplit.db"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		MaxUploadSizeBytes: maxUploadSizeBytes,

		BaseCurrency:      baseCurrency,
		RatesAPIURL:       getEnv("RATES_API_URL", "https://api.exchangerate.host"),
		RatesTimeout:      getEnvAsDuration("RATES_TIMEOUT", 5*time.Second),
		RatesCacheTTL:     getEnvAsDuration("RATES_CACHE_TTL", 1*time.Hour),
		RatesFallback:     parseRateList(getEnv("RATES_FALLBACK", "GBP:1.0,EUR:0.86,CNY:0.11")),
		RateMissingPolicy: rateMissingPolicy,

		ReportCacheTTL: getEnvAsDuration("REPORT_CACHE_TTL", 5*time.Minute),

		EmailServiceProvider: getEnv("EMAIL_SERVICE_PROVIDER", "mock"),

		SMTPServer:   getEnv("SMTP_SERVER", ""),
		SMTPPort:     getEnvAsInt("SMTP_PORT", 587),
		SMTPUser:     getEnv("SMTP_USER", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		MailgunDomain:        getEnv("MAILGUN_DOMAIN", ""),
		MailgunPrivateAPIKey: getEnv("MAILGUN_PRIVATE_API_KEY", ""),

		SenderEmail: getEnv("SENDER_EMAIL", "noreply@example.com"),
		SenderName:  getEnv("SENDER_NAME", "EasySplit App"),
	}

	if _, ok := Cfg.RatesFallback[Cfg.BaseCurrency]; !ok {
		Cfg.RatesFallback[Cfg.BaseCurrency] = 1.0
	}

	if Cfg.EmailServiceProvider == "mailgun" {
		if Cfg.MailgunDomain == "" {
			log.Fatalf("FATAL: MAILGUN_DOMAIN is required when EMAIL_SERVICE_PROVIDER is 'mailgun', but it's not set in environment or .env file.")
		}
		if Cfg.MailgunPrivateAPIKey == "" {
			log.Fatalf("FATAL: MAILGUN_PRIVATE_API_KEY is required when EMAIL_SERVICE_PROVIDER is 'mailgun', but it's not set in environment or .env file.")
		}
		if Cfg.SenderEmail == "noreply@example.com" || Cfg.SenderEmail == "" {
			log.Fatalf("FATAL: SENDER_EMAIL must be configured properly (e.g., your Mailgun sender) when EMAIL_SERVICE_PROVIDER is 'mailgun'.")
		}
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s, BaseCurrency=%s, EmailProvider=%s",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath, Cfg.BaseCurrency, Cfg.EmailServiceProvider)
}

// parseRateList parses "CODE:FACTOR,CODE:FACTOR" pairs. Malformed pairs are
// skipped with a warning so one typo doesn't wipe the whole fallback table.
func parseRateList(raw string) map[string]float64 {
	rates := make(map[string]float64)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		code, factorStr, found := strings.Cut(pair, ":")
		if !found {
			log.Printf("WARNING: Malformed rate pair '%s' (expected CODE:FACTOR). Skipping.", pair)
			continue
		}
		factor, err := strconv.ParseFloat(strings.TrimSpace(factorStr), 64)
		if err != nil || factor <= 0 {
			log.Printf("WARNING: Invalid rate factor in pair '%s'. Skipping.", pair)
			continue
		}
		rates[strings.ToUpper(strings.TrimSpace(code))] = factor
	}
	return rates
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		log.Printf("Integer value for %s not set or empty, using default: %d", key, fallback)
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		log.Printf("Duration value for %s not set or empty, using default: %s", key, fallback.String())
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}
