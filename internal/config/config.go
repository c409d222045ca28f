package config

import (
	"errors"
	"io/fs"
	"log"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/Simplici0/makerquote/internal/logging"
)

const (
	defaultDBPath          = "./dev.db"
	defaultPort            = "8080"
	defaultEnv             = "development"
	defaultQuoteTTLHours   = 168
	defaultMinFilamentCost = 3.00
	defaultMaxQuantity     = 1000

	defaultMaxGrams                 = 10000
	defaultMaxPrintHours            = 720
	defaultMaxPostProcessingMinutes = 1440
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	Env             string
	DBPath          string
	Port            string
	QuoteTTL        time.Duration
	MinFilamentCost float64
	MaxQuantity     int
	CORSOrigins     []string
	Logging         logging.Config

	// Upper bounds per unit; they keep priced amounts finite.
	MaxGrams                 float64
	MaxPrintHours            float64
	MaxPostProcessingMinutes float64
}

// IsDev reports whether the service runs in the development environment.
func (c Config) IsDev() bool {
	return c.Env == "" || c.Env == defaultEnv
}

// Load reads ./.env (if present) and the environment into a Config.
func Load() Config {
	return LoadFrom(".env")
}

// LoadFrom is Load with an explicit dotenv path. Variables already present
// in the environment are never overwritten by the file.
func LoadFrom(dotenvPath string) Config {
	if err := godotenv.Load(dotenvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("warning: could not read %s: %v", dotenvPath, err)
	}

	logDefaults := logging.DefaultConfig()
	cfg := Config{
		Env:             stringOr("APP_ENV", defaultEnv),
		DBPath:          stringOr("DB_PATH", defaultDBPath),
		Port:            stringOr("PORT", defaultPort),
		QuoteTTL:        time.Duration(intOr("QUOTE_TTL_HOURS", defaultQuoteTTLHours)) * time.Hour,
		MinFilamentCost: floatOr("MIN_FILAMENT_COST", defaultMinFilamentCost),
		MaxQuantity:     intOr("MAX_QUANTITY", defaultMaxQuantity),
		CORSOrigins:     listOr("CORS_ALLOWED_ORIGINS", []string{"*"}),
		Logging: logging.Config{
			Level:  stringOr("LOG_LEVEL", logDefaults.Level),
			Format: stringOr("LOG_FORMAT", logDefaults.Format),
			Output: stringOr("LOG_OUTPUT", logDefaults.Output),
		},
	}
	cfg.Logging.Development = cfg.IsDev()
	cfg.MaxGrams = floatOr("MAX_GRAMS", defaultMaxGrams)
	cfg.MaxPrintHours = floatOr("MAX_PRINT_HOURS", defaultMaxPrintHours)
	cfg.MaxPostProcessingMinutes = floatOr("MAX_POST_PROCESSING_MINUTES", defaultMaxPostProcessingMinutes)

	return cfg
}

func stringOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func listOr(key string, fallback []string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func intOr(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		log.Printf("warning: %s=%q is not a positive integer, using %d", key, raw, fallback)
		return fallback
	}
	return v
}

func floatOr(key string, fallback float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		log.Printf("warning: %s=%q is not a non-negative number, using %v", key, raw, fallback)
		return fallback
	}
	return v
}
