package config

import (
	"os"
	"testing"
)

func setEnv(key, value string) {
	_ = os.Setenv(key, value)
}

func unsetEnv(key string) {
	_ = os.Unsetenv(key)
}

var configEnvVars = []string{
	"BM25_K1", "BM25_B", "K_BM25", "K_ANN", "W_SEM", "W_META", "W_FUZZ",
	"PARTIAL_CREDIT_BAND", "EMBEDDING_DIM", "SMALL_POOL_THRESHOLD",
	"EMBEDDING_BASE_URL", "EMBEDDING_API_KEY", "EMBEDDING_MODEL_NAME",
	"EMBEDDING_RATE_LIMIT", "QDRANT_URL", "QDRANT_COLLECTION",
	"CORPUS_PATH", "INDEX_DIR", "BUILD_LOG_DB_PATH", "LOG_FORMAT",
}

func withCleanEnv(t *testing.T, fn func()) {
	t.Helper()
	original := make(map[string]string)
	for _, key := range configEnvVars {
		original[key] = os.Getenv(key)
		unsetEnv(key)
	}
	defer func() {
		for key, value := range original {
			if value != "" {
				setEnv(key, value)
			} else {
				unsetEnv(key)
			}
		}
	}()

	tmpDir := t.TempDir()
	originalWd, _ := os.Getwd()
	_ = os.Chdir(tmpDir)
	defer func() { _ = os.Chdir(originalWd) }()

	fn()
}

func TestLoadDefaults(t *testing.T) {
	withCleanEnv(t, func() {
		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() unexpected error: %v", err)
		}
		if cfg.K1 != 1.5 || cfg.B != 0.75 {
			t.Errorf("expected default k1=1.5 b=0.75, got k1=%v b=%v", cfg.K1, cfg.B)
		}
		if cfg.KBM25 != 50 || cfg.KANN != 50 {
			t.Errorf("expected default K_bm25=K_ann=50, got %d/%d", cfg.KBM25, cfg.KANN)
		}
		if cfg.WSem != 0.6 || cfg.WMeta != 0.3 || cfg.WFuzz != 0.1 {
			t.Errorf("expected default weights 0.6/0.3/0.1, got %v/%v/%v", cfg.WSem, cfg.WMeta, cfg.WFuzz)
		}
		if cfg.PartialCreditBand != 0.20 {
			t.Errorf("expected default partial_credit_band 0.20, got %v", cfg.PartialCreditBand)
		}
		if cfg.SmallPoolThreshold != 200 {
			t.Errorf("expected default small_pool_threshold 200, got %d", cfg.SmallPoolThreshold)
		}
		if cfg.UseQdrant {
			t.Errorf("expected UseQdrant=false when QDRANT_URL is unset")
		}
	})
}

func TestLoadRejectsWeightsThatDoNotSumToOne(t *testing.T) {
	withCleanEnv(t, func() {
		setEnv("W_SEM", "0.5")
		setEnv("W_META", "0.5")
		setEnv("W_FUZZ", "0.5")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error when weights do not sum to 1.0")
		}
	})
}

func TestLoadRejectsInvalidNumber(t *testing.T) {
	withCleanEnv(t, func() {
		setEnv("BM25_K1", "not-a-number")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for non-numeric BM25_K1")
		}
	})
}

func TestLoadHonorsOverrides(t *testing.T) {
	withCleanEnv(t, func() {
		setEnv("K_BM25", "75")
		setEnv("QDRANT_URL", "http://localhost:6333")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() unexpected error: %v", err)
		}
		if cfg.KBM25 != 75 {
			t.Errorf("expected K_bm25=75, got %d", cfg.KBM25)
		}
		if !cfg.UseQdrant {
			t.Errorf("expected UseQdrant=true when QDRANT_URL is set")
		}
	})
}

func TestLoadCreatesIndexDirectory(t *testing.T) {
	withCleanEnv(t, func() {
		setEnv("INDEX_DIR", "nested/index/dir")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() unexpected error: %v", err)
		}
		if _, err := os.Stat(cfg.IndexDir); os.IsNotExist(err) {
			t.Errorf("expected Load() to create index directory %q", cfg.IndexDir)
		}
	})
}

func TestGetEnv(t *testing.T) {
	originalValue := os.Getenv("TEST_ENV_VAR")
	defer func() {
		if originalValue != "" {
			setEnv("TEST_ENV_VAR", originalValue)
		} else {
			unsetEnv("TEST_ENV_VAR")
		}
	}()

	setEnv("TEST_ENV_VAR", "set-value")
	if got := getEnv("TEST_ENV_VAR", "default"); got != "set-value" {
		t.Errorf("getEnv() = %q, want %q", got, "set-value")
	}

	unsetEnv("TEST_ENV_VAR")
	if got := getEnv("TEST_ENV_VAR", "default"); got != "default" {
		t.Errorf("getEnv() = %q, want %q", got, "default")
	}
}
