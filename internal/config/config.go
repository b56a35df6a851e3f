package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates application configuration values.
type Config struct {
	HTTP    HTTPConfig
	Graph   GraphConfig
	Logging LoggingConfig
	Seed    SeedConfig
	Feed    FeedConfig
}

// HTTPConfig governs HTTP server behaviour.
type HTTPConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

// GraphConfig describes connectivity to the Neo4j database backing persistence.
// An empty URI keeps the graph in memory only.
type GraphConfig struct {
	URI            string
	Database       string
	Username       string
	Password       string
	MaxConnections int
	EnsureSchema   bool
}

// SeedConfig points at a graph definition file applied at startup.
type SeedConfig struct {
	File string
	Vars map[string]float64
}

// FeedConfig configures the Kafka edge-event consumer. It is disabled without brokers.
type FeedConfig struct {
	Brokers      []string
	Topic        string
	KafkaVersion string
	ClientID     string
}

// Enabled reports whether a feed should be started.
func (f FeedConfig) Enabled() bool {
	return len(f.Brokers) > 0
}

// LoggingConfig controls structured logging settings.
type LoggingConfig struct {
	Level         string
	Format        string // text|json
	Colored       bool
	IncludeCaller bool
}

const (
	defaultHost             = "0.0.0.0"
	defaultPort             = 8080
	defaultReadTimeout      = 10 * time.Second
	defaultWriteTimeout     = 15 * time.Second
	defaultIdleTimeout      = 60 * time.Second
	defaultShutdownTimeout  = 10 * time.Second
	defaultLoggingLevel     = "info"
	defaultLoggingFormat    = "text"
	defaultGraphMaxSessions = 10
	defaultFeedTopic        = "graph.edges"
	defaultKafkaVersion     = "2.2.0"
	defaultFeedClientID     = "routegraph"
)

// Load reads configuration from environment variables, applying defaults.
func Load() (Config, error) {
	cfg := Config{
		HTTP: HTTPConfig{
			Host:            valueOrDefault("SERVER_HOST", defaultHost),
			ReadTimeout:     defaultReadTimeout,
			WriteTimeout:    defaultWriteTimeout,
			IdleTimeout:     defaultIdleTimeout,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Logging: LoggingConfig{
			Level:         valueOrDefault("LOG_LEVEL", defaultLoggingLevel),
			Format:        valueOrDefault("LOG_FORMAT", defaultLoggingFormat),
			Colored:       parseBoolWithDefault("LOG_COLOR", false),
			IncludeCaller: parseBoolWithDefault("LOG_INCLUDE_CALLER", false),
		},
		Graph: GraphConfig{
			URI:            os.Getenv("GRAPH_URI"),
			Database:       valueOrDefault("GRAPH_DATABASE", ""),
			Username:       os.Getenv("GRAPH_USERNAME"),
			Password:       os.Getenv("GRAPH_PASSWORD"),
			MaxConnections: parseIntWithDefault("GRAPH_MAX_CONNECTIONS", defaultGraphMaxSessions),
			EnsureSchema:   parseBoolWithDefault("GRAPH_ENSURE_SCHEMA", true),
		},
		Seed: SeedConfig{
			File: os.Getenv("SEED_FILE"),
		},
		Feed: FeedConfig{
			Brokers:      splitCSV(os.Getenv("FEED_BROKERS")),
			Topic:        valueOrDefault("FEED_TOPIC", defaultFeedTopic),
			KafkaVersion: valueOrDefault("FEED_KAFKA_VERSION", defaultKafkaVersion),
			ClientID:     valueOrDefault("FEED_CLIENT_ID", defaultFeedClientID),
		},
	}

	vars, err := parseSeedVars(os.Getenv("SEED_VARS"))
	if err != nil {
		return Config{}, err
	}
	cfg.Seed.Vars = vars

	port, err := parsePort("SERVER_PORT", defaultPort)
	if err != nil {
		return Config{}, err
	}
	cfg.HTTP.Port = port

	timeouts := []struct {
		key    string
		target *time.Duration
	}{
		{"SERVER_READ_TIMEOUT", &cfg.HTTP.ReadTimeout},
		{"SERVER_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout},
		{"SERVER_IDLE_TIMEOUT", &cfg.HTTP.IdleTimeout},
		{"SERVER_SHUTDOWN_TIMEOUT", &cfg.HTTP.ShutdownTimeout},
	}
	for _, t := range timeouts {
		if err := parseDuration(t.key, t.target); err != nil {
			return Config{}, err
		}
	}

	cfg.HTTP.AllowedOrigins = splitCSV(os.Getenv("SERVER_ALLOWED_ORIGINS"))

	return cfg, nil
}

// parseSeedVars reads "name=value,name=value" pairs of numeric seed variables.
func parseSeedVars(csv string) (map[string]float64, error) {
	vars := map[string]float64{}
	for _, pair := range splitCSV(csv) {
		name, raw, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid SEED_VARS entry %q", pair)
		}
		val, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid SEED_VARS value for %s: %w", name, err)
		}
		vars[name] = val
	}
	return vars, nil
}

func splitCSV(csv string) []string {
	var out []string
	for _, part := range strings.Split(csv, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func valueOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBoolWithDefault(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		val, err := strconv.ParseBool(v)
		if err != nil {
			return fallback
		}
		return val
	}
	return fallback
}

func parseIntWithDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if val, err := strconv.Atoi(v); err == nil {
			return val
		}
	}
	return fallback
}

func parseDuration(key string, target *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*target = d
	return nil
}

func parsePort(key string, fallback int) (int, error) {
	if v := os.Getenv(key); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s value %q: %w", key, v, err)
		}
		if port <= 0 || port > 65535 {
			return 0, fmt.Errorf("port %d is out of range", port)
		}
		return port, nil
	}
	return fallback, nil
}
