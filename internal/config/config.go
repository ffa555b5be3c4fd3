// Package config loads the process-level configuration for the eNodeB
// binary: bind addresses, radio device selection, and observability
// settings. It is distinct from internal/paramdb, which owns the 3GPP
// parameter store and is mutated at runtime over the control socket.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level eNodeB process configuration.
type Config struct {
	ENB           ENBConfig           `yaml:"enb"`
	Radio         RadioConfig         `yaml:"radio"`
	Control       SocketConfig        `yaml:"control"`
	Debug         SocketConfig        `yaml:"debug"`
	PCAP          PCAPConfig          `yaml:"pcap"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ENBConfig identifies this eNodeB instance.
type ENBConfig struct {
	Name       string `yaml:"name"`
	InstanceID string `yaml:"instance_id"`
}

// RadioConfig selects the Radio backend and its tuning defaults.
type RadioConfig struct {
	// Type selects the Radio implementation: "sdr", "no_rf", or "udp_loop".
	Type       string `yaml:"type"`
	DeviceArgs string `yaml:"device_args"`
	TxGainDB   int    `yaml:"tx_gain_db"`
	RxGainDB   int    `yaml:"rx_gain_db"`
	// UDPLoopAddr is only used when Type == "udp_loop" (integration tests).
	UDPLoopAddr string `yaml:"udp_loop_addr"`
}

// SocketConfig describes a newline-delimited TCP listener.
type SocketConfig struct {
	Enabled     bool   `yaml:"enabled"`
	BindAddress string `yaml:"bind_address"`
	Port        int    `yaml:"port"`
}

// PCAPConfig controls the MAC-LTE capture sink.
type PCAPConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// ObservabilityConfig mirrors the ambient stack every component in this
// repository was built alongside.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
	Logging LoggingConfig `yaml:"logging"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

type TracingConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"`
	Endpoint string `yaml:"endpoint"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads path as YAML. A missing file is not an error: it yields
// DefaultConfig so the binary can start from a clean checkout.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks field ranges that would otherwise fail lazily and
// confusingly deep inside a goroutine.
func (c *Config) Validate() error {
	switch c.Radio.Type {
	case "sdr", "no_rf", "udp_loop":
	default:
		return fmt.Errorf("invalid radio type: %s", c.Radio.Type)
	}

	if c.Control.Enabled && (c.Control.Port <= 0 || c.Control.Port > 65535) {
		return fmt.Errorf("invalid control port: %d", c.Control.Port)
	}
	if c.Debug.Enabled && (c.Debug.Port <= 0 || c.Debug.Port > 65535) {
		return fmt.Errorf("invalid debug port: %d", c.Debug.Port)
	}
	if c.Observability.Metrics.Enabled && (c.Observability.Metrics.Port <= 0 || c.Observability.Metrics.Port > 65535) {
		return fmt.Errorf("invalid metrics port: %d", c.Observability.Metrics.Port)
	}
	if c.ENB.InstanceID == "" {
		return fmt.Errorf("enb instance id is required")
	}

	return nil
}

// DefaultConfig is used whenever no config file is present on disk.
func DefaultConfig() *Config {
	return &Config{
		ENB: ENBConfig{
			Name:       "enb-1",
			InstanceID: "00000000-0000-0000-0000-0000000000e1",
		},
		Radio: RadioConfig{
			Type:     "no_rf",
			TxGainDB: 0,
			RxGainDB: 0,
		},
		Control: SocketConfig{
			Enabled:     true,
			BindAddress: "127.0.0.1",
			Port:        9000,
		},
		Debug: SocketConfig{
			Enabled:     true,
			BindAddress: "127.0.0.1",
			Port:        9001,
		},
		PCAP: PCAPConfig{
			Enabled: false,
			Path:    "/tmp/enb.pcap",
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Port:    9090,
			},
			Tracing: TracingConfig{
				Enabled:  false,
				Exporter: "otlp",
			},
			Logging: LoggingConfig{
				Level:  "info",
				Format: "json",
			},
		},
	}
}

// ShutdownTimeout is the drain budget for shutdown. Nothing reads it:
// cmd/enb stops the radio, the control/debug listeners and the metrics
// server without a deadline.
const ShutdownTimeout = 30 * time.Second
