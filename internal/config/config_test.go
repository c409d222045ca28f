package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// unset clears key for the duration of the test.
func unset(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("unset %s: %v", key, err)
	}
}

func TestLoadFrom_ReadsDotEnvAndIgnoresNoise(t *testing.T) {
	for _, k := range []string{"PORT", "DB_PATH", "QUOTE_TTL_HOURS", "MIN_FILAMENT_COST", "APP_ENV"} {
		unset(t, k)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := []byte(`
# comment

PORT=9090
export DB_PATH=/tmp/quotes.db
QUOTE_TTL_HOURS="48"
MIN_FILAMENT_COST='2.5'
APP_ENV=production
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write dotenv: %v", err)
	}

	cfg := LoadFrom(path)

	if cfg.Port != "9090" {
		t.Fatalf("Port=%q, want %q", cfg.Port, "9090")
	}
	if cfg.DBPath != "/tmp/quotes.db" {
		t.Fatalf("DBPath=%q, want %q", cfg.DBPath, "/tmp/quotes.db")
	}
	if cfg.QuoteTTL != 48*time.Hour {
		t.Fatalf("QuoteTTL=%v, want %v", cfg.QuoteTTL, 48*time.Hour)
	}
	if cfg.MinFilamentCost != 2.5 {
		t.Fatalf("MinFilamentCost=%v, want 2.5", cfg.MinFilamentCost)
	}
	if cfg.IsDev() {
		t.Fatalf("expected production env")
	}
}

func TestLoadFrom_DoesNotOverwriteExistingEnv(t *testing.T) {
	t.Setenv("PORT", "7000")

	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("PORT=9999\n"), 0o600); err != nil {
		t.Fatalf("write dotenv: %v", err)
	}

	if got := LoadFrom(path).Port; got != "7000" {
		t.Fatalf("Port=%q, want %q", got, "7000")
	}
}

func TestLoadFrom_DefaultsWhenMissingOrInvalid(t *testing.T) {
	for _, k := range []string{"PORT", "DB_PATH", "APP_ENV", "MAX_QUANTITY", "MIN_FILAMENT_COST"} {
		unset(t, k)
	}
	t.Setenv("QUOTE_TTL_HOURS", "soon")

	cfg := LoadFrom(filepath.Join(t.TempDir(), "missing.env"))

	if cfg.Port != defaultPort || cfg.DBPath != defaultDBPath {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.QuoteTTL != defaultQuoteTTLHours*time.Hour {
		t.Fatalf("QuoteTTL=%v, want default", cfg.QuoteTTL)
	}
	if cfg.MaxQuantity != defaultMaxQuantity || cfg.MinFilamentCost != defaultMinFilamentCost {
		t.Fatalf("unexpected policy defaults: %+v", cfg)
	}
	if !cfg.IsDev() || !cfg.Logging.Development {
		t.Fatalf("expected development defaults")
	}
}

func TestLoadFrom_CORSOrigins(t *testing.T) {
	unset(t, "CORS_ALLOWED_ORIGINS")
	missing := filepath.Join(t.TempDir(), "missing.env")

	if got := LoadFrom(missing).CORSOrigins; len(got) != 1 || got[0] != "*" {
		t.Fatalf("CORSOrigins=%v, want [*]", got)
	}

	t.Setenv("CORS_ALLOWED_ORIGINS", " https://shop.example.com, ,https://admin.example.com ")
	got := LoadFrom(missing).CORSOrigins
	if len(got) != 2 || got[0] != "https://shop.example.com" || got[1] != "https://admin.example.com" {
		t.Fatalf("CORSOrigins=%v", got)
	}
}

func TestLoadFrom_UnitCaps(t *testing.T) {
	for _, k := range []string{"MAX_GRAMS", "MAX_PRINT_HOURS"} {
		unset(t, k)
	}
	t.Setenv("MAX_POST_PROCESSING_MINUTES", "NaN")
	missing := filepath.Join(t.TempDir(), "missing.env")

	cfg := LoadFrom(missing)
	if cfg.MaxGrams != defaultMaxGrams || cfg.MaxPrintHours != defaultMaxPrintHours {
		t.Fatalf("unexpected cap defaults: %+v", cfg)
	}
	if cfg.MaxPostProcessingMinutes != defaultMaxPostProcessingMinutes {
		t.Fatalf("MaxPostProcessingMinutes=%v, want default for NaN", cfg.MaxPostProcessingMinutes)
	}

	t.Setenv("MAX_GRAMS", "2500")
	t.Setenv("MAX_PRINT_HOURS", "Inf")
	cfg = LoadFrom(missing)
	if cfg.MaxGrams != 2500 {
		t.Fatalf("MaxGrams=%v, want 2500", cfg.MaxGrams)
	}
	if cfg.MaxPrintHours != defaultMaxPrintHours {
		t.Fatalf("MaxPrintHours=%v, want default for Inf", cfg.MaxPrintHours)
	}
}
