// Package config loads the engine's tuning parameters and external wiring
// from environment variables, following the teacher's godotenv-plus-
// getEnv-with-defaults pattern: the first .env file found in the working
// directory or up to four of its parents is loaded, and environment
// variables already set take precedence over it.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds every tunable and wiring value the retrieval core needs.
// Field names and defaults mirror the Configuration table.
type Config struct {
	K1                 float64
	B                  float64
	KBM25              int
	KANN               int
	WSem               float64
	WMeta              float64
	WFuzz              float64
	PartialCreditBand  float64
	EmbeddingDim       int
	SmallPoolThreshold int

	EmbeddingBaseURL   string
	EmbeddingAPIKey    string
	EmbeddingModelName string
	EmbeddingRateLimit float64

	QdrantURL        string
	QdrantCollection string
	UseQdrant        bool

	CorpusPath    string
	IndexDir      string
	BuildLogDBPath string
	AUMUnit       string

	LogFormat string
}

// Load reads configuration from the environment, applying defaults for
// every optional field and validating the few required ones. Validation
// failures are fatal at startup, matching the teacher's Load() contract.
func Load() (*Config, error) {
	_ = godotenv.Load()

	if wd, err := os.Getwd(); err == nil {
		dir := wd
		for i := 0; i < 5; i++ {
			envPath := filepath.Join(dir, ".env")
			if _, statErr := os.Stat(envPath); statErr == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	k1, err := getFloat("BM25_K1", 1.5)
	if err != nil {
		return nil, err
	}
	b, err := getFloat("BM25_B", 0.75)
	if err != nil {
		return nil, err
	}
	kBM25, err := getInt("K_BM25", 50)
	if err != nil {
		return nil, err
	}
	kANN, err := getInt("K_ANN", 50)
	if err != nil {
		return nil, err
	}
	wSem, err := getFloat("W_SEM", 0.6)
	if err != nil {
		return nil, err
	}
	wMeta, err := getFloat("W_META", 0.3)
	if err != nil {
		return nil, err
	}
	wFuzz, err := getFloat("W_FUZZ", 0.1)
	if err != nil {
		return nil, err
	}
	if diff := (wSem + wMeta + wFuzz) - 1.0; diff > 1e-6 || diff < -1e-6 {
		return nil, fmt.Errorf("w_sem + w_meta + w_fuzz must sum to 1.0, got %.4f", wSem+wMeta+wFuzz)
	}
	partialCreditBand, err := getFloat("PARTIAL_CREDIT_BAND", 0.20)
	if err != nil {
		return nil, err
	}
	embeddingDim, err := getInt("EMBEDDING_DIM", 768)
	if err != nil {
		return nil, err
	}
	smallPoolThreshold, err := getInt("SMALL_POOL_THRESHOLD", 200)
	if err != nil {
		return nil, err
	}
	embeddingRateLimit, err := getFloat("EMBEDDING_RATE_LIMIT", 10)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		K1:                 k1,
		B:                  b,
		KBM25:              kBM25,
		KANN:               kANN,
		WSem:               wSem,
		WMeta:              wMeta,
		WFuzz:              wFuzz,
		PartialCreditBand:  partialCreditBand,
		EmbeddingDim:       embeddingDim,
		SmallPoolThreshold: smallPoolThreshold,

		EmbeddingBaseURL:   getEnv("EMBEDDING_BASE_URL", "http://localhost:8081"),
		EmbeddingAPIKey:    getEnv("EMBEDDING_API_KEY", "dummy-key"),
		EmbeddingModelName: getEnv("EMBEDDING_MODEL_NAME", "granite-embedding-278m-multilingual"),
		EmbeddingRateLimit: embeddingRateLimit,

		QdrantURL:        getEnv("QDRANT_URL", ""),
		QdrantCollection: getEnv("QDRANT_COLLECTION", "funds"),

		CorpusPath:     getEnv("CORPUS_PATH", "./data/funds.csv"),
		IndexDir:       getEnv("INDEX_DIR", "./data/index"),
		BuildLogDBPath: getEnv("BUILD_LOG_DB_PATH", "./data/buildlog.db"),
		AUMUnit:        getEnv("AUM_UNIT", "cr"),

		LogFormat: getEnv("LOG_FORMAT", "text"),
	}
	cfg.UseQdrant = cfg.QdrantURL != ""

	if err := os.MkdirAll(cfg.IndexDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.BuildLogDBPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create build log directory: %w", err)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getFloat(key string, defaultValue float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid number: %w", key, err)
	}
	return v, nil
}

func getInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return v, nil
}
