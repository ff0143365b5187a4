// Package config loads and validates the parquetflow-demo binary's YAML
// configuration.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config is the top-level configuration for a running sink.
type Config struct {
	Output   OutputConfig   `mapstructure:"output"`
	Sink     SinkConfig     `mapstructure:"sink"`
	Schema   []ColumnConfig `mapstructure:"schema"`
	LogLevel string         `mapstructure:"logLevel"`
}

// OutputConfig names the Parquet file this run produces.
type OutputConfig struct {
	Path        string `mapstructure:"path"`
	Compression string `mapstructure:"compression"` // uncompressed, snappy, gzip, zstd
	CreatedBy   string `mapstructure:"createdBy"`
}

// SinkConfig bounds the ring buffer and drainer behavior.
type SinkConfig struct {
	RingCapacity    int `mapstructure:"ringCapacity"`
	MaxPayloadBytes int `mapstructure:"maxPayloadBytes"`
	RowGroupRows    int `mapstructure:"rowGroupRows"`
	DrainBatch      int `mapstructure:"drainBatch"`
	IdleTimeoutMs   int `mapstructure:"idleTimeoutMs"`
}

// ColumnConfig describes one schema column and its fixed record width.
type ColumnConfig struct {
	Name       string `mapstructure:"name"`
	Type       string `mapstructure:"type"`       // boolean, int32, int64, float, double, byte_array, fixed_len_byte_array, int96
	Repetition string `mapstructure:"repetition"` // required, optional
	TypeLength int32  `mapstructure:"typeLength"` // for fixed_len_byte_array
	Width      int    `mapstructure:"width"`      // record slot width in bytes
}

// Load reads and validates configuration from a YAML file.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configFile)
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Output.Path == "" {
		return fmt.Errorf("output.path must be configured")
	}
	if len(cfg.Schema) == 0 {
		return fmt.Errorf("schema must declare at least one column")
	}
	if cfg.Sink.RingCapacity <= 0 || cfg.Sink.RingCapacity&(cfg.Sink.RingCapacity-1) != 0 {
		return fmt.Errorf("sink.ringCapacity must be a positive power of two, got %d", cfg.Sink.RingCapacity)
	}
	if cfg.Sink.RowGroupRows <= 0 {
		return fmt.Errorf("sink.rowGroupRows must be greater than 0")
	}
	if cfg.Sink.MaxPayloadBytes <= 0 {
		return fmt.Errorf("sink.maxPayloadBytes must be greater than 0")
	}
	if cfg.Sink.DrainBatch <= 0 {
		return fmt.Errorf("sink.drainBatch must be greater than 0")
	}
	for _, col := range cfg.Schema {
		if col.Name == "" {
			return fmt.Errorf("schema column missing name")
		}
		if col.Width <= 0 {
			return fmt.Errorf("schema column %q must declare a positive width", col.Name)
		}
	}
	return nil
}
