// Package config provides unified configuration loading for the supplement
// search services. Supports YAML files, .env files and environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the supplements services.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Dataset       DatasetConfig       `yaml:"dataset"`
	Search        SearchConfig        `yaml:"search"`
	Cache         CacheConfig         `yaml:"cache"`
	Coach         CoachConfig         `yaml:"coach"`
	CORS          CORSConfig          `yaml:"cors"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
}

// DatasetConfig locates the CSV file and names the columns that play a role
// in search and display.
type DatasetConfig struct {
	Path    string        `yaml:"path"`
	Columns ColumnsConfig `yaml:"columns"`

	// Watch reloads the dataset when the file changes on disk.
	Watch         bool          `yaml:"watch"`
	WatchDebounce time.Duration `yaml:"watch_debounce"`
}

// ColumnsConfig maps semantic roles to CSV header names.
type ColumnsConfig struct {
	KeyCol                string   `yaml:"key_col"`
	NameCol               string   `yaml:"name_col"`
	AliasCol              string   `yaml:"alias_col"`
	FlagCols              []string `yaml:"flag_cols"`
	DetailCols            []string `yaml:"detail_cols"`
	BrandCols             []string `yaml:"brand_cols"`
	MechanismCol          string   `yaml:"mechanism_col"`
	IndicationsDisplayCol string   `yaml:"indications_display_col"`
	EvidenceCol           string   `yaml:"evidence_col"`
	CostCol               string   `yaml:"cost_col"`
}

// SearchConfig holds ranking options.
type SearchConfig struct {
	// MechanismMatch enables substring matching against the mechanism column.
	MechanismMatch bool `yaml:"mechanism_match"`
	// DefaultLimit caps results returned by the API and CLI; 0 means no cap.
	DefaultLimit int `yaml:"default_limit"`
}

// CacheConfig holds coaching-text cache settings.
type CacheConfig struct {
	Driver     string        `yaml:"driver"` // memory or redis
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
	Redis      RedisConfig   `yaml:"redis"`
}

// RedisConfig holds Redis-specific settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
	Prefix   string `yaml:"prefix"`
}

// CoachConfig holds settings for generated coaching text.
type CoachConfig struct {
	Enabled       bool                `yaml:"enabled"`
	APIKey        string              `yaml:"-"`
	BaseURL       string              `yaml:"base_url"`
	Model         string              `yaml:"model"`
	AllowedModels []string            `yaml:"allowed_models"`
	Temperature   float64             `yaml:"temperature"`
	Timeout       time.Duration       `yaml:"timeout"`
	MaxRetries    int                 `yaml:"max_retries"`
	MinTextLength int                 `yaml:"min_text_length"`
	GoalKeys      []string            `yaml:"goal_keys"`
	BatchLimit    int                 `yaml:"batch_limit"`
	Augment       map[string][]string `yaml:"augment"`
	Columns       CoachColumns        `yaml:"columns"`
}

// CoachColumns names the CSV columns the coach reads.
type CoachColumns struct {
	LevelOfEvidence  string `yaml:"level_of_evidence"`
	Mechanisms       string `yaml:"mechanisms"`
	DirectBenefits   string `yaml:"direct_cognitive_benefits"`
	IndirectBenefits string `yaml:"indirect_cognitive_benefits"`
	SuggestedDosage  string `yaml:"suggested_dosage"`
	PotentialRisks   string `yaml:"potential_risks"`
	WhyTopChoice     string `yaml:"why_top_choice"`
	RecommendedBrand string `yaml:"recommended_brand"`
}

// CORSConfig holds the browser origin allow-list.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	ServiceName string `yaml:"service_name"`
}

// Load reads .env files, the optional YAML file at path, applies environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	// Missing .env files are fine.
	_ = godotenv.Load()
	if path != "" {
		_ = godotenv.Load(filepath.Join(filepath.Dir(path), ".env"))
	}

	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}

		if cfg.Dataset.Path != "" {
			cfg.Dataset.Path = ResolveRelativePath(path, cfg.Dataset.Path)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration matching the stock master.csv layout.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8090,
			ReadTimeout:      15 * time.Second,
			WriteTimeout:     30 * time.Second,
			IdleTimeout:      120 * time.Second,
			GracefulShutdown: 10 * time.Second,
		},
		Dataset: DatasetConfig{
			Path:          "data/master.csv",
			WatchDebounce: 500 * time.Millisecond,
			Columns: ColumnsConfig{
				KeyCol:   "supplement_key",
				NameCol:  "supplement_name",
				AliasCol: "aliases",
				FlagCols: []string{
					"sleep_flag",
					"metabolic_flag",
					"cardiovascular_flag",
					"immune_flag",
					"anti_inflammatory_flag",
				},
				DetailCols: []string{
					"level_of_evidence",
					"mechanisms",
					"direct_cognitive_benefits",
					"indirect_cognitive_benefits",
					"suggested_dosage",
					"potential_risks",
					"source_link",
				},
				BrandCols: []string{
					"recommended_brand",
					"why_top_choice",
					"cost",
				},
				MechanismCol: "mechanisms",
				EvidenceCol:  "level_of_evidence",
				CostCol:      "cost",
			},
		},
		Search: SearchConfig{
			MechanismMatch: true,
			DefaultLimit:   0,
		},
		Cache: CacheConfig{
			Driver:     "memory",
			TTL:        24 * time.Hour,
			MaxEntries: 2000,
			Redis: RedisConfig{
				Addr:     "localhost:6379",
				DB:       0,
				PoolSize: 10,
				Prefix:   "supplements:",
			},
		},
		Coach: CoachConfig{
			Enabled:       true,
			BaseURL:       "https://api.openai.com/v1",
			Model:         "gpt-4o-mini",
			AllowedModels: []string{"gpt-4o-mini", "gpt-4.1-mini", "gpt-4o"},
			Temperature:   0.2,
			Timeout:       8 * time.Second,
			MaxRetries:    1,
			MinTextLength: 60,
			GoalKeys:      []string{"sleep", "metabolic", "cardiovascular", "immune", "anti_inflammatory"},
			BatchLimit:    3,
			Columns: CoachColumns{
				LevelOfEvidence:  "level_of_evidence",
				Mechanisms:       "mechanisms",
				DirectBenefits:   "direct_cognitive_benefits",
				IndirectBenefits: "indirect_cognitive_benefits",
				SuggestedDosage:  "suggested_dosage",
				PotentialRisks:   "potential_risks",
				WhyTopChoice:     "why_top_choice",
				RecommendedBrand: "recommended_brand",
			},
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
		},
		Observability: ObservabilityConfig{
			LogLevel:    "info",
			LogFormat:   "json",
			ServiceName: "supplements",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if strings.TrimSpace(c.Dataset.Columns.KeyCol) == "" {
		return fmt.Errorf("dataset.columns.key_col is required")
	}

	if c.Cache.Driver != "memory" && c.Cache.Driver != "redis" {
		return fmt.Errorf("invalid cache driver: %s", c.Cache.Driver)
	}

	if c.Dataset.Watch && c.Dataset.WatchDebounce <= 0 {
		return fmt.Errorf("dataset.watch_debounce must be > 0 when watch is enabled")
	}

	if c.Search.DefaultLimit < 0 {
		return fmt.Errorf("search.default_limit must be >= 0")
	}

	if c.Coach.Enabled && !c.Coach.ModelAllowed(c.Coach.Model) {
		return fmt.Errorf("coach model %q is not in allowed_models", c.Coach.Model)
	}

	if c.Coach.MinTextLength < 0 {
		return fmt.Errorf("coach.min_text_length must be >= 0")
	}

	return nil
}

// ModelAllowed reports whether model is in the allow-list. An empty list
// allows any model.
func (c CoachConfig) ModelAllowed(model string) bool {
	if len(c.AllowedModels) == 0 {
		return true
	}
	for _, m := range c.AllowedModels {
		if m == model {
			return true
		}
	}
	return false
}

// Addr returns the host:port the API server listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}

	if v := os.Getenv("DATASET_PATH"); v != "" {
		cfg.Dataset.Path = v
	}

	if v := os.Getenv("DATASET_WATCH"); v != "" {
		if watch, err := strconv.ParseBool(v); err == nil {
			cfg.Dataset.Watch = watch
		}
	}

	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Cache.Driver = "redis"
		cfg.Cache.Redis.Addr = strings.TrimPrefix(v, "redis://")
	}

	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Coach.APIKey = v
	}

	if v := os.Getenv("COACH_MODEL"); v != "" {
		cfg.Coach.Model = v
	}

	if v := os.Getenv("COACH_BASE_URL"); v != "" {
		cfg.Coach.BaseURL = v
	}

	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.CORS.AllowedOrigins = origins
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}
}

// ResolveRelativePath resolves a path relative to the config file location.
func ResolveRelativePath(configPath, targetPath string) string {
	if filepath.IsAbs(targetPath) {
		return targetPath
	}
	return filepath.Join(filepath.Dir(configPath), targetPath)
}
