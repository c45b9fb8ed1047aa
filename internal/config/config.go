package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/i474232898/weather-dashboard/internal/common"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

type AppConfig struct {
	Port        string        `yaml:"port"`
	HTTPTimeout time.Duration `yaml:"httpTimeout"`

	// Open-Meteo forecast endpoint and reply caching.
	OpenMeteoURL string        `yaml:"openMeteoUrl"`
	CacheTTL     time.Duration `yaml:"cacheTtl"`
	ValkeyAddr   string        `yaml:"valkeyAddr"` // empty keeps the in-memory cache

	Groq GroqConfig `yaml:"groq"`

	// Session retention.
	SessionMaxAge   time.Duration `yaml:"sessionMaxAge"`
	MaxSessions     int           `yaml:"maxSessions"` // 0 = unlimited
	JanitorInterval time.Duration `yaml:"janitorInterval"`
	ChatLimit       int           `yaml:"chatLimit"`

	// Datasets; empty paths use the bundled copies.
	CitiesFile    string `yaml:"citiesFile"`
	CountriesFile string `yaml:"countriesFile"`
	MappingFile   string `yaml:"mappingFile"`

	GeocoderAPIKey string  `yaml:"geocoderApiKey"`
	SnowfallRatio  float64 `yaml:"snowfallRatio"`
	SnowfallUnit   string  `yaml:"snowfallUnit"` // cm or mm
}

// GroqConfig configures the summary model.
type GroqConfig struct {
	APIKey        string        `yaml:"apiKey"`
	KeyFile       string        `yaml:"keyFile"` // TOML file with GROQ_API_KEY
	BaseURL       string        `yaml:"baseUrl"`
	Model         string        `yaml:"model"`
	FallbackModel string        `yaml:"fallbackModel"`
	Cooldown      time.Duration `yaml:"cooldown"`
	Timeout       time.Duration `yaml:"timeout"`
}

func defaultConfig() *AppConfig {
	return &AppConfig{
		Port:            "8080",
		HTTPTimeout:     10 * time.Second,
		OpenMeteoURL:    "https://api.open-meteo.com/v1/forecast",
		CacheTTL:        time.Hour,
		SessionMaxAge:   24 * time.Hour,
		MaxSessions:     1000,
		JanitorInterval: 5 * time.Minute,
		ChatLimit:       4,
		SnowfallRatio:   7,
		SnowfallUnit:    "cm",
		Groq: GroqConfig{
			BaseURL:       "https://api.groq.com/openai/v1",
			Model:         "llama-3.3-70b-versatile",
			FallbackModel: "llama-3.1-8b-instant",
			Cooldown:      60 * time.Second,
			Timeout:       60 * time.Second,
		},
	}
}

// Load reads configuration from an optional YAML file and the environment
// (environment wins), with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if cfg.Groq.KeyFile != "" {
		key, err := readKeyFile(cfg.Groq.KeyFile)
		if err != nil {
			return nil, err
		}
		cfg.Groq.APIKey = common.FirstNonEmpty(cfg.Groq.APIKey, key)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func hydrateFromFile(cfg *AppConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnv(cfg *AppConfig) error {
	cfg.Port = getenvDefault("PORT", cfg.Port)
	cfg.OpenMeteoURL = getenvDefault("OPEN_METEO_URL", cfg.OpenMeteoURL)
	cfg.ValkeyAddr = getenvDefault("VALKEY_ADDR", cfg.ValkeyAddr)
	cfg.MaxSessions = getenvInt("SESSION_MAX_COUNT", cfg.MaxSessions)
	cfg.ChatLimit = getenvInt("CHAT_LIMIT", cfg.ChatLimit)
	cfg.CitiesFile = getenvDefault("CITIES_FILE", cfg.CitiesFile)
	cfg.CountriesFile = getenvDefault("COUNTRIES_FILE", cfg.CountriesFile)
	cfg.MappingFile = getenvDefault("PARAM_MAPPING_FILE", cfg.MappingFile)
	cfg.GeocoderAPIKey = getenvDefault("GEOCODER_API_KEY", cfg.GeocoderAPIKey)
	cfg.SnowfallUnit = getenvDefault("SNOWFALL_UNIT", cfg.SnowfallUnit)

	cfg.Groq.APIKey = getenvDefault("GROQ_API_KEY", cfg.Groq.APIKey)
	cfg.Groq.KeyFile = getenvDefault("GROQ_KEY_FILE", cfg.Groq.KeyFile)
	cfg.Groq.BaseURL = getenvDefault("GROQ_BASE_URL", cfg.Groq.BaseURL)
	cfg.Groq.Model = getenvDefault("GROQ_MODEL", cfg.Groq.Model)
	cfg.Groq.FallbackModel = getenvDefault("GROQ_FALLBACK_MODEL", cfg.Groq.FallbackModel)

	if v := os.Getenv("SNOWFALL_RATIO"); v != "" {
		ratio, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid SNOWFALL_RATIO: %w", err)
		}
		cfg.SnowfallRatio = ratio
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"HTTP_TIMEOUT", &cfg.HTTPTimeout},
		{"CACHE_TTL", &cfg.CacheTTL},
		{"SESSION_MAX_AGE", &cfg.SessionMaxAge},
		{"JANITOR_INTERVAL", &cfg.JanitorInterval},
		{"GROQ_COOLDOWN", &cfg.Groq.Cooldown},
		{"GROQ_TIMEOUT", &cfg.Groq.Timeout},
	}
	for _, d := range durations {
		v := os.Getenv(d.key)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", d.key, err)
		}
		*d.dst = parsed
	}
	return nil
}

// readKeyFile reads GROQ_API_KEY from a TOML secrets file.
func readKeyFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read groq key file: %w", err)
	}
	var secrets struct {
		GroqAPIKey string `toml:"GROQ_API_KEY"`
	}
	if err := toml.Unmarshal(data, &secrets); err != nil {
		return "", fmt.Errorf("parse groq key file: %w", err)
	}
	return secrets.GroqAPIKey, nil
}

// Validate ensures required settings are present.
func (c *AppConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}
	if c.HTTPTimeout <= 0 {
		return errors.New("http timeout must be positive")
	}
	if c.OpenMeteoURL == "" {
		return errors.New("open-meteo url is required")
	}
	if c.Groq.Model == "" || c.Groq.FallbackModel == "" {
		return errors.New("groq model and fallback model are required")
	}
	if c.Groq.Cooldown <= 0 {
		return errors.New("groq cooldown must be positive")
	}
	if c.SnowfallRatio <= 0 {
		return errors.New("snowfall ratio must be positive")
	}
	if c.SnowfallUnit != "cm" && c.SnowfallUnit != "mm" {
		return fmt.Errorf("snowfall unit must be cm or mm, got %q", c.SnowfallUnit)
	}
	if c.ChatLimit <= 0 {
		return errors.New("chat limit must be positive")
	}
	return nil
}

// Chart returns the precipitation display settings.
func (c *AppConfig) Chart() weather.ChartOptions {
	return weather.ChartOptions{SnowfallRatio: c.SnowfallRatio, SnowfallUnit: c.SnowfallUnit}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}
