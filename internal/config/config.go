// Package config loads service settings from the environment, an optional
// .env file, and an optional YAML file with engine tuning values.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Engine holds the tunable constants of the optimization engine.
type Engine struct {
	EarthRadiusKm         float64       `yaml:"earth_radius_km"`
	AverageSpeedKph       float64       `yaml:"average_speed_kph"`
	DefaultServiceMinutes int           `yaml:"default_service_minutes"`
	MaxStops              int           `yaml:"max_stops"`
	RoadNetworkMaxStops   int           `yaml:"road_network_max_stops"`
	PairwiseMaxStops      int           `yaml:"pairwise_max_stops"`
	PairwiseDelay         time.Duration `yaml:"pairwise_delay"`
	GeometryMaxStops      int           `yaml:"geometry_max_stops"`
	TwoOptMaxSweeps       int           `yaml:"two_opt_max_sweeps"`
	DefaultStartTime      string        `yaml:"default_start_time"`
}

// OSRM configures the external routing service.
type OSRM struct {
	BaseURL  string        `yaml:"osrm_base_url"`
	Profile  string        `yaml:"osrm_profile"`
	Timeout  time.Duration `yaml:"osrm_timeout"`
	Cooldown time.Duration `yaml:"osrm_cooldown"`
}

type Config struct {
	Engine Engine `yaml:",inline"`
	OSRM   OSRM   `yaml:",inline"`

	Port         string        `yaml:"port"`
	LogLevel     string        `yaml:"log_level"`
	LogFormat    string        `yaml:"log_format"`
	CacheBackend string        `yaml:"cache_backend"`
	CacheTTL     time.Duration `yaml:"cache_ttl"`
	RedisURL     string        `yaml:"-"`
	DatabaseURL  string        `yaml:"-"`
	DBPath       string        `yaml:"db_path"`
}

// Defaults returns the configuration used when nothing is overridden.
func Defaults() Config {
	return Config{
		Engine: Engine{
			EarthRadiusKm:         6371,
			AverageSpeedKph:       40,
			DefaultServiceMinutes: 30,
			MaxStops:              50,
			RoadNetworkMaxStops:   100,
			PairwiseMaxStops:      10,
			PairwiseDelay:         100 * time.Millisecond,
			GeometryMaxStops:      25,
			TwoOptMaxSweeps:       100,
			DefaultStartTime:      "09:00",
		},
		OSRM: OSRM{
			BaseURL:  "http://router.project-osrm.org",
			Profile:  "driving",
			Timeout:  10 * time.Second,
			Cooldown: 60 * time.Second,
		},
		Port:         "8080",
		LogLevel:     "info",
		LogFormat:    "json",
		CacheBackend: "none",
		CacheTTL:     24 * time.Hour,
		DBPath:       "data/cache.db",
	}
}

// Get returns the environment value for key, or fallback when unset.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Load reads .env (if present), then the YAML file named by ENGINE_CONFIG
// (if set), then environment overrides.
func Load() (Config, error) {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	cfg := Defaults()

	if path := strings.TrimSpace(os.Getenv("ENGINE_CONFIG")); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("load config: read %q: %w", path, err)
	}
	return c.decodeYAML(data)
}

func (c *Config) decodeYAML(data []byte) error {
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("load config: parse yaml: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	var errs []error

	floatVar := func(key string, dst *float64) {
		if v := os.Getenv(key); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = f
		}
	}
	intVar := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	durVar := func(key string, dst *time.Duration) {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}
	strVar := func(key string, dst *string) {
		*dst = Get(key, *dst)
	}

	floatVar("EARTH_RADIUS_KM", &c.Engine.EarthRadiusKm)
	floatVar("AVERAGE_SPEED_KPH", &c.Engine.AverageSpeedKph)
	intVar("DEFAULT_SERVICE_MINUTES", &c.Engine.DefaultServiceMinutes)
	intVar("MAX_STOPS", &c.Engine.MaxStops)
	intVar("ROAD_NETWORK_MAX_STOPS", &c.Engine.RoadNetworkMaxStops)
	intVar("PAIRWISE_MAX_STOPS", &c.Engine.PairwiseMaxStops)
	durVar("PAIRWISE_DELAY", &c.Engine.PairwiseDelay)
	intVar("GEOMETRY_MAX_STOPS", &c.Engine.GeometryMaxStops)
	intVar("TWO_OPT_MAX_SWEEPS", &c.Engine.TwoOptMaxSweeps)
	strVar("DEFAULT_START_TIME", &c.Engine.DefaultStartTime)

	strVar("OSRM_BASE_URL", &c.OSRM.BaseURL)
	strVar("OSRM_PROFILE", &c.OSRM.Profile)
	durVar("OSRM_TIMEOUT", &c.OSRM.Timeout)
	durVar("OSRM_COOLDOWN", &c.OSRM.Cooldown)

	strVar("PORT", &c.Port)
	strVar("LOG_LEVEL", &c.LogLevel)
	strVar("LOG_FORMAT", &c.LogFormat)
	strVar("CACHE_BACKEND", &c.CacheBackend)
	durVar("CACHE_TTL", &c.CacheTTL)
	strVar("REDIS_URL", &c.RedisURL)
	strVar("DATABASE_URL", &c.DatabaseURL)
	strVar("DB_PATH", &c.DBPath)

	if len(errs) > 0 {
		return fmt.Errorf("load config: %w", errors.Join(errs...))
	}
	return nil
}

// Validate rejects values the engine cannot run with.
func (c Config) Validate() error {
	e := c.Engine
	switch {
	case e.EarthRadiusKm <= 0:
		return errors.New("config: earth_radius_km must be > 0")
	case e.AverageSpeedKph <= 0:
		return errors.New("config: average_speed_kph must be > 0")
	case e.DefaultServiceMinutes < 0:
		return errors.New("config: default_service_minutes must be >= 0")
	case e.MaxStops <= 0:
		return errors.New("config: max_stops must be > 0")
	case e.RoadNetworkMaxStops < 0, e.PairwiseMaxStops < 0, e.GeometryMaxStops < 0:
		return errors.New("config: stop thresholds must be >= 0")
	case e.PairwiseDelay <= 0:
		return errors.New("config: pairwise_delay must be > 0")
	case e.TwoOptMaxSweeps <= 0:
		return errors.New("config: two_opt_max_sweeps must be > 0")
	case strings.TrimSpace(c.OSRM.BaseURL) == "":
		return errors.New("config: osrm_base_url must be non-empty")
	}

	switch strings.ToLower(c.CacheBackend) {
	case "", "none", "redis", "postgres", "sqlite":
	default:
		return fmt.Errorf("config: unknown cache_backend %q", c.CacheBackend)
	}

	return nil
}
