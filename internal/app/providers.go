package app

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/i474232898/weather-dashboard/internal/cache"
	"github.com/i474232898/weather-dashboard/internal/config"
	"github.com/i474232898/weather-dashboard/internal/places"
	"github.com/i474232898/weather-dashboard/internal/summary"
	"github.com/i474232898/weather-dashboard/internal/summary/groq"
	"github.com/i474232898/weather-dashboard/internal/weather"
	"github.com/i474232898/weather-dashboard/internal/weather/providers"
)

// Cache holds the reply cache and, when it is in-process, the handle the
// janitor purges.
type Cache struct {
	cache.Cache
	Memory *cache.MemoryCache
	close  func()
}

// Close releases the cache connection, if any.
func (c *Cache) Close() {
	if c.close != nil {
		c.close()
	}
}

// ProvideCache connects to valkey when configured and falls back to memory.
func ProvideCache(cfg *config.AppConfig) *Cache {
	if cfg.ValkeyAddr != "" {
		opt, err := buildValkeyOptions(cfg.ValkeyAddr)
		if err != nil {
			log.Printf("ERROR: invalid valkey configuration, falling back to memory cache: %v", err)
			return memoryCache()
		}
		client, err := valkey.NewClient(opt)
		if err != nil {
			log.Printf("ERROR: failed to create valkey client, falling back to memory cache: %v", err)
			return memoryCache()
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
			log.Printf("ERROR: valkey ping failed, falling back to memory cache: %v", err)
			client.Close()
			return memoryCache()
		}
		log.Printf("INFO: valkey reply cache enabled at %s", cfg.ValkeyAddr)
		return &Cache{Cache: cache.NewValkeyCache(client, "weather"), close: client.Close}
	}
	return memoryCache()
}

func memoryCache() *Cache {
	mem := cache.NewMemoryCache()
	return &Cache{Cache: mem, Memory: mem}
}

func buildValkeyOptions(addr string) (valkey.ClientOption, error) {
	if strings.Contains(addr, "://") {
		return valkey.ParseURL(addr)
	}
	return valkey.ClientOption{InitAddress: []string{addr}}, nil
}

// ProvideWeather builds the weather service on the Open-Meteo provider.
func ProvideWeather(cfg *config.AppConfig, c cache.Cache) (*weather.Service, error) {
	mapping, err := weather.LoadFieldMapping(cfg.MappingFile)
	if err != nil {
		return nil, err
	}
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	provider := providers.NewOpenMeteoProvider(httpClient,
		providers.WithBaseURL(cfg.OpenMeteoURL),
		providers.WithCache(c, cfg.CacheTTL),
	)
	return weather.NewService(mapping, provider), nil
}

// ProvidePlaces loads the city datasets.
func ProvidePlaces(cfg *config.AppConfig) (*places.Resolver, error) {
	dir, err := places.Load(cfg.CitiesFile, cfg.CountriesFile)
	if err != nil {
		return nil, err
	}
	return places.NewResolver(dir, cfg.GeocoderAPIKey), nil
}

// ProvideSummary builds the summary service. Without an API key every
// summary reports the provider as unavailable.
func ProvideSummary(cfg *config.AppConfig) *summary.Service {
	sel := summary.NewModelSelector(cfg.Groq.Model, cfg.Groq.FallbackModel, cfg.Groq.Cooldown)
	client, err := groq.NewClient(cfg.Groq.APIKey, cfg.Groq.BaseURL, cfg.Groq.Timeout)
	if err != nil {
		log.Printf("INFO: summaries disabled: %v", err)
		return summary.NewService(nil, sel)
	}
	return summary.NewService(client, sel)
}
