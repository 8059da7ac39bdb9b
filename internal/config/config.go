// Package config loads runtime settings from the TOML config file and
// environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// EnvPrefix is the prefix for environment variable overrides.
const EnvPrefix = "RECALL_"

// Storage holds persistence settings.
type Storage struct {
	// DataDir is the directory holding the database. "~" expands to
	// the home directory.
	DataDir string `toml:"data_dir"`
}

// Embeddings holds embedding and rerank model settings.
type Embeddings struct {
	Model         string `toml:"model"`
	Dim           int    `toml:"dim"`
	RerankEnabled bool   `toml:"rerank_enabled"`
}

// Retrieval holds ranking settings.
type Retrieval struct {
	TopKDense     int     `toml:"top_k_dense"`
	TopKFinal     int     `toml:"top_k_final"`
	MMRLambda     float64 `toml:"mmr_lambda"`
	RRFWeight     float64 `toml:"rrf_weight"`
	HybridEnabled bool    `toml:"hybrid_enabled"`
}

// Chunking holds token budgets for the chunker.
type Chunking struct {
	TargetTokens  int `toml:"target_tokens"`
	MaxTokens     int `toml:"max_tokens"`
	MinTokens     int `toml:"min_tokens"`
	OverlapTokens int `toml:"overlap_tokens"`
}

// Watch holds folder-watch settings.
type Watch struct {
	IncludeGlob string `toml:"include_glob"`
	ExcludeGlob string `toml:"exclude_glob"`
	// DebounceMS limits how often changed paths are re-ingested.
	DebounceMS int `toml:"debounce_ms"`
}

// Settings is the full runtime configuration.
type Settings struct {
	Storage    Storage    `toml:"storage"`
	Embeddings Embeddings `toml:"embeddings"`
	Retrieval  Retrieval  `toml:"retrieval"`
	Chunking   Chunking   `toml:"chunking"`
	Watch      Watch      `toml:"watch"`
}

// Default returns the built-in settings.
func Default() Settings {
	return Settings{
		Storage: Storage{
			DataDir: "~/.recall",
		},
		Embeddings: Embeddings{
			Model:         "hashed-384",
			Dim:           384,
			RerankEnabled: true,
		},
		Retrieval: Retrieval{
			TopKDense:     100,
			TopKFinal:     8,
			MMRLambda:     0.5,
			RRFWeight:     60,
			HybridEnabled: true,
		},
		Chunking: Chunking{
			TargetTokens:  200,
			MaxTokens:     320,
			MinTokens:     80,
			OverlapTokens: 40,
		},
		Watch: Watch{
			IncludeGlob: "**/*.{md,markdown,mdx,txt,text,log,mbox}",
			ExcludeGlob: "**/{.git,.obsidian,node_modules}/**",
			DebounceMS:  2000,
		},
	}
}

// Load reads settings from the given path, falling back to
// $RECALL_CONFIG and then ~/.recall/config.toml. A missing file yields
// the defaults. Environment variables with the RECALL_ prefix override
// individual values last.
func Load(path string) (Settings, error) {
	settings := Default()

	resolved := resolvePath(path)
	if resolved != "" {
		raw, err := os.ReadFile(resolved)
		if err != nil {
			if !os.IsNotExist(err) || path != "" {
				return settings, fmt.Errorf("reading config %s: %w", resolved, err)
			}
		} else if err := toml.Unmarshal(raw, &settings); err != nil {
			return settings, fmt.Errorf("parsing config %s: %w", resolved, err)
		}
	}

	applyEnvOverrides(&settings)
	return settings, nil
}

// DataDir returns the expanded storage directory.
func (s Settings) DataDir() string {
	return ExpandPath(s.Storage.DataDir)
}

// ExpandPath expands a leading "~" to the user home directory.
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(strings.TrimPrefix(path, "~"), "/"))
	}
	return path
}

func resolvePath(path string) string {
	if path != "" {
		return ExpandPath(path)
	}
	if env := os.Getenv(EnvPrefix + "CONFIG"); env != "" {
		return ExpandPath(env)
	}
	return ExpandPath("~/.recall/config.toml")
}

// applyEnvOverrides maps RECALL_* variables onto individual settings.
func applyEnvOverrides(s *Settings) {
	setString(&s.Storage.DataDir, "DATA_DIR")
	setString(&s.Embeddings.Model, "EMBEDDING_MODEL")
	setInt(&s.Embeddings.Dim, "EMBEDDING_DIM")
	setBool(&s.Embeddings.RerankEnabled, "RERANK_ENABLED")
	setInt(&s.Retrieval.TopKDense, "TOP_K_DENSE")
	setInt(&s.Retrieval.TopKFinal, "TOP_K_FINAL")
	setFloat(&s.Retrieval.MMRLambda, "MMR_LAMBDA")
	setFloat(&s.Retrieval.RRFWeight, "RRF_WEIGHT")
	setBool(&s.Retrieval.HybridEnabled, "HYBRID_ENABLED")
	setInt(&s.Chunking.TargetTokens, "TARGET_TOKENS")
	setInt(&s.Chunking.MaxTokens, "MAX_TOKENS")
	setInt(&s.Chunking.MinTokens, "MIN_TOKENS")
	setInt(&s.Chunking.OverlapTokens, "OVERLAP_TOKENS")
	setString(&s.Watch.IncludeGlob, "WATCH_INCLUDE")
	setString(&s.Watch.ExcludeGlob, "WATCH_EXCLUDE")
	setInt(&s.Watch.DebounceMS, "WATCH_DEBOUNCE_MS")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(EnvPrefix + key); ok {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(EnvPrefix + key); ok {
		if parsed, err := strconv.Atoi(v); err == nil {
			*dst = parsed
		}
	}
}

func setFloat(dst *float64, key string) {
	if v, ok := os.LookupEnv(EnvPrefix + key); ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = parsed
		}
	}
}

func setBool(dst *bool, key string) {
	if v, ok := os.LookupEnv(EnvPrefix + key); ok {
		if parsed, err := strconv.ParseBool(v); err == nil {
			*dst = parsed
		}
	}
}
