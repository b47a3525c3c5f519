package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// minGeodesicPoints keeps every route splittable into its ten colored segments.
const minGeodesicPoints = 10

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Reference data.
	AirportsFile     string
	ReplacementsFile string

	MaxUploadBytes    int64
	ErrorPreviewLimit int

	// Playback pacing.
	PlaybackSegmentDelay      time.Duration
	PlaybackHighlightDuration time.Duration

	// Rendering.
	GeodesicPoints    int
	GeodesicCacheSize int
	MapWidth          int
	MapHeight         int

	// Optional session event publishing.
	KafkaEnabled     bool
	KafkaBrokers     []string
	KafkaEventsTopic string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	segmentDelay, err := parseDuration("PLAYBACK_SEGMENT_DELAY", "40ms", true)
	if err != nil {
		return nil, err
	}
	highlight, err := parseDuration("PLAYBACK_HIGHLIGHT_DURATION", "800ms", false)
	if err != nil {
		return nil, err
	}

	maxUpload, err := parsePositiveInt("MAX_UPLOAD_BYTES", 10<<20)
	if err != nil {
		return nil, err
	}
	previewLimit, err := parsePositiveInt("ERROR_PREVIEW_LIMIT", 10)
	if err != nil {
		return nil, err
	}
	geodesicPoints, err := parsePositiveInt("GEODESIC_POINTS", 100)
	if err != nil {
		return nil, err
	}
	cacheSize, err := parsePositiveInt("GEODESIC_CACHE_SIZE", 2048)
	if err != nil {
		return nil, err
	}
	width, err := parsePositiveInt("MAP_WIDTH", 1280)
	if err != nil {
		return nil, err
	}
	height, err := parsePositiveInt("MAP_HEIGHT", 720)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		AirportsFile:     sharedcfg.EnvOrDefault("AIRPORTS_FILE", "data/airports.csv"),
		ReplacementsFile: sharedcfg.EnvOrDefault("REPLACEMENTS_FILE", "data/iata_replacements.csv"),

		MaxUploadBytes:    int64(maxUpload),
		ErrorPreviewLimit: previewLimit,

		PlaybackSegmentDelay:      segmentDelay,
		PlaybackHighlightDuration: highlight,

		GeodesicPoints:    geodesicPoints,
		GeodesicCacheSize: cacheSize,
		MapWidth:          width,
		MapHeight:         height,

		KafkaEnabled:     os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:     sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaEventsTopic: sharedcfg.EnvOrDefault("KAFKA_EVENTS_TOPIC", "flight-map-events"),
	}

	if cfg.AirportsFile == "" {
		return nil, errors.New("AIRPORTS_FILE is required")
	}
	if cfg.GeodesicPoints < minGeodesicPoints {
		return nil, fmt.Errorf("GEODESIC_POINTS must be at least %d", minGeodesicPoints)
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if cfg.KafkaEventsTopic == "" {
			return nil, errors.New("KAFKA_EVENTS_TOPIC is required when KAFKA_ENABLED is true")
		}
	}

	return cfg, nil
}

func parseDuration(key, def string, allowZero bool) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d < 0 || (d == 0 && !allowZero) {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return n, nil
}
