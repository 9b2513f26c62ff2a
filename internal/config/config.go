package config

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	AppEnv   string     `env:"APP_ENV" envDefault:"dev"`
	LogLevel slog.Level `env:"-"`

	// LogFormat is auto (tint for dev builds, JSON otherwise), text or json.
	LogFormat string `env:"LOG_FORMAT" envDefault:"auto"`

	BLEBackend string `env:"BLE_BACKEND" envDefault:"bluez"`
	BLEAdapter string `env:"BLE_ADAPTER" envDefault:"hci0"`
	// KnownSensors maps sensor MAC to display label. Empty accepts every sensor.
	KnownSensors     map[string]string `env:"KNOWN_SENSORS" envSeparator:"," envKeyValSeparator:"="`
	PayloadByteOrder string            `env:"PAYLOAD_BYTE_ORDER" envDefault:"big"`
	OutputFormat     string            `env:"OUTPUT_FORMAT" envDefault:"text"`
	KeepAlive        time.Duration     `env:"KEEPALIVE_INTERVAL" envDefault:"10s"`

	MQTTEnabled     bool   `env:"MQTT_ENABLED" envDefault:"false"`
	MQTTBroker      string `env:"MQTT_BROKER" envDefault:"localhost"`
	MQTTPort        int    `env:"MQTT_PORT" envDefault:"1883"`
	MQTTClientID    string `env:"MQTT_CLIENT_ID" envDefault:"atc-gateway"`
	MQTTTopicPrefix string `env:"MQTT_TOPIC_PREFIX" envDefault:"sensors"`

	// HTTPAddr enables the status server when set.
	HTTPAddr string `env:"HTTP_ADDR"`
}

// rawConfig carries values that need validation before they land in Config.
type rawConfig struct {
	Config
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

func LoadFromEnv() (Config, error) {
	var raw rawConfig
	if err := env.Parse(&raw); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg := raw.Config

	cfg.AppEnv = strings.TrimSpace(cfg.AppEnv)
	if cfg.AppEnv == "" {
		cfg.AppEnv = "dev"
	}
	switch cfg.AppEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", cfg.AppEnv)
	}

	level, err := parseLogLevel(raw.LogLevel)
	if err != nil {
		return Config{}, err
	}
	cfg.LogLevel = level

	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	switch cfg.LogFormat {
	case "":
		cfg.LogFormat = "auto"
	case "auto", "text", "json":
	default:
		return Config{}, fmt.Errorf("invalid LOG_FORMAT %q (allowed: auto, text, json)", cfg.LogFormat)
	}

	cfg.BLEBackend = strings.ToLower(strings.TrimSpace(cfg.BLEBackend))
	switch cfg.BLEBackend {
	case "bluez", "hci":
	default:
		return Config{}, fmt.Errorf("invalid BLE_BACKEND %q (allowed: bluez, hci)", cfg.BLEBackend)
	}
	cfg.BLEAdapter = strings.TrimSpace(cfg.BLEAdapter)

	cfg.PayloadByteOrder = strings.ToLower(strings.TrimSpace(cfg.PayloadByteOrder))
	if _, err := parseByteOrder(cfg.PayloadByteOrder); err != nil {
		return Config{}, err
	}

	cfg.OutputFormat = strings.ToLower(strings.TrimSpace(cfg.OutputFormat))
	switch cfg.OutputFormat {
	case "text", "json":
	default:
		return Config{}, fmt.Errorf("invalid OUTPUT_FORMAT %q (allowed: text, json)", cfg.OutputFormat)
	}

	if cfg.KeepAlive <= 0 {
		return Config{}, fmt.Errorf("KEEPALIVE_INTERVAL must be positive, got %v", cfg.KeepAlive)
	}

	if cfg.MQTTPort <= 0 || cfg.MQTTPort > 65535 {
		return Config{}, fmt.Errorf("invalid MQTT_PORT %d", cfg.MQTTPort)
	}
	cfg.MQTTTopicPrefix = strings.Trim(strings.TrimSpace(cfg.MQTTTopicPrefix), "/")

	cfg.HTTPAddr = strings.TrimSpace(cfg.HTTPAddr)

	return cfg, nil
}

// ByteOrder returns the configured payload byte order.
func (c Config) ByteOrder() binary.ByteOrder {
	order, err := parseByteOrder(c.PayloadByteOrder)
	if err != nil {
		return binary.BigEndian
	}
	return order
}

func parseByteOrder(s string) (binary.ByteOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "big", "be", "":
		return binary.BigEndian, nil
	case "little", "le":
		return binary.LittleEndian, nil
	default:
		return nil, fmt.Errorf("invalid PAYLOAD_BYTE_ORDER %q (allowed: big, little)", s)
	}
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
