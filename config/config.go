package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// DefaultTenantID is used when a fact or request carries no tenant.
var DefaultTenantID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

// Config holds the full service configuration.
type Config struct {
	Postgres      PostgresConfig      `yaml:"postgres"`
	NATS          NATSConfig          `yaml:"nats"`
	HTTP          HTTPConfig          `yaml:"http"`
	JWT           JWTConfig           `yaml:"jwt"`
	Ranking       RankingConfig       `yaml:"ranking"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// PostgresConfig holds Postgres configuration.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// NATSConfig holds NATS configuration.
type NATSConfig struct {
	URL string `yaml:"url"`
}

// HTTPConfig holds the read-API listener configuration.
type HTTPConfig struct {
	Address string `yaml:"address"`
	// RateLimitPerSecond bounds read-API requests per client; zero disables limiting.
	RateLimitPerSecond float64 `yaml:"rate_limit_per_second"`
	RateLimitBurst     int     `yaml:"rate_limit_burst"`
}

// JWTConfig holds verification settings for inbound API tokens.
type JWTConfig struct {
	Secret string `yaml:"secret"`
}

// RankingConfig carries the externally-owned scoring rules.
type RankingConfig struct {
	// ClassPoints maps event class (1-5) to base points. Monotonic by contract.
	ClassPoints map[int]int `yaml:"class_points"`
	// DistanceThreshold1Point and DistanceThreshold2Points are one-way miles.
	// Strictly-greater comparisons at both boundaries.
	DistanceThreshold1Point  int `yaml:"distance_threshold_1_point"`
	DistanceThreshold2Points int `yaml:"distance_threshold_2_points"`
	// Visitor bonuses by geographic relationship.
	VisitorBonusSameContinent      int `yaml:"visitor_bonus_same_continent"`
	VisitorBonusDifferentContinent int `yaml:"visitor_bonus_different_continent"`
	// MaxPageSize clamps the read-path take parameter.
	MaxPageSize int `yaml:"max_page_size"`
	// RebuildHourUTC is the hour the nightly rebuild jobs are scheduled at.
	RebuildHourUTC int `yaml:"rebuild_hour_utc"`
}

// ObservabilityConfig holds configuration for observability components.
type ObservabilityConfig struct {
	Environment    string `yaml:"environment"`
	MetricsAddress string `yaml:"metrics_address"`
}

// LoadConfig loads the configuration from a YAML file, then applies
// environment-variable overrides. A missing file is not an error; defaults and
// env vars alone can configure the service.
func LoadConfig(filename string) (*Config, error) {
	cfg := defaultConfig()

	if data, err := os.ReadFile(filename); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWT.Secret = v
	}
	if v := os.Getenv("METRICS_ADDRESS"); v != "" {
		cfg.Observability.MetricsAddress = v
	}
	if v := os.Getenv("APP_ENV"); v != "" {
		cfg.Observability.Environment = v
	}
	if v := os.Getenv("REBUILD_HOUR_UTC"); v != "" {
		if hour, err := strconv.Atoi(v); err == nil {
			cfg.Ranking.RebuildHourUTC = hour
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:            ":8080",
			RateLimitPerSecond: 25,
			RateLimitBurst:     50,
		},
		Ranking: RankingConfig{
			ClassPoints:                    map[int]int{1: 1, 2: 3, 3: 5, 4: 10, 5: 15},
			DistanceThreshold1Point:        200,
			DistanceThreshold2Points:       800,
			VisitorBonusSameContinent:      1,
			VisitorBonusDifferentContinent: 2,
			MaxPageSize:                    100,
			RebuildHourUTC:                 3,
		},
		Observability: ObservabilityConfig{
			Environment:    "production",
			MetricsAddress: ":9091",
		},
	}
}

func (c *Config) validate() error {
	if c.Ranking.DistanceThreshold1Point >= c.Ranking.DistanceThreshold2Points {
		return fmt.Errorf("distance thresholds out of order: %d >= %d",
			c.Ranking.DistanceThreshold1Point, c.Ranking.DistanceThreshold2Points)
	}
	if len(c.Ranking.ClassPoints) == 0 {
		return fmt.Errorf("class points table is empty")
	}
	if c.Ranking.MaxPageSize <= 0 {
		return fmt.Errorf("max page size must be positive, got %d", c.Ranking.MaxPageSize)
	}
	if c.Ranking.RebuildHourUTC < 0 || c.Ranking.RebuildHourUTC > 23 {
		return fmt.Errorf("rebuild hour must be 0-23, got %d", c.Ranking.RebuildHourUTC)
	}
	return nil
}
