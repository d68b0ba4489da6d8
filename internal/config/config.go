// Package config provides the configuration structure for the voice-generator service.
package config

import (
	"fmt"

	"github.com/book-expert/configurator"
	"github.com/book-expert/logger"
)

// NATSConfig holds the configuration for NATS.
type NATSConfig struct {
	URL              string `toml:"url"`
	JobsStreamName   string `toml:"jobs_stream_name"`
	JobsConsumerName string `toml:"jobs_consumer_name"`
	JobsSubject      string `toml:"jobs_subject"`
	AudioBucket      string `toml:"audio_object_store_bucket"`
}

// TTSConfig holds the synthesis provider settings.
type TTSConfig struct {
	Endpoint       string  `toml:"endpoint"`
	Token          string  `toml:"token"`
	SpeakingRate   float64 `toml:"speaking_rate"`
	Pitch          float64 `toml:"pitch"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
}

// WorkerConfig bounds job and segment concurrency and the retry policy.
type WorkerConfig struct {
	MaxInFlight       int `toml:"max_in_flight"`
	SegmentWorkers    int `toml:"segment_workers"`
	RetryMaxAttempts  int `toml:"retry_max_attempts"`
	RetryBaseDelayMS  int `toml:"retry_base_delay_ms"`
	JobTimeoutSeconds int `toml:"job_timeout_seconds"`
	AckWaitSeconds    int `toml:"ack_wait_seconds"`
}

// PostgresConfig holds the metadata store connection settings.
type PostgresConfig struct {
	DSN string `toml:"dsn"`
}

// HTTPConfig holds the WebSocket/HTTP surface settings. PublicBaseURL is
// the externally reachable prefix recorded in audio reference URLs.
type HTTPConfig struct {
	ListenAddr    string `toml:"listen_addr"`
	PublicBaseURL string `toml:"public_base_url"`
}

// PathsConfig holds the configuration for file paths.
type PathsConfig struct {
	BaseLogsDir string `toml:"base_logs_dir"`
}

// Config is the root configuration structure.
type Config struct {
	NATS     NATSConfig     `toml:"nats"`
	TTS      TTSConfig      `toml:"tts"`
	Worker   WorkerConfig   `toml:"worker"`
	Postgres PostgresConfig `toml:"postgres"`
	HTTP     HTTPConfig     `toml:"http"`
	Paths    PathsConfig    `toml:"paths"`
}

// Load loads the configuration for the voice-generator service.
func Load(log *logger.Logger) (*Config, error) {
	var cfg Config

	err := configurator.Load(&cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from configurator: %w", err)
	}

	return &cfg, nil
}
