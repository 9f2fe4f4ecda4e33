package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds every knob the service reads from the environment.
// Values marked required abort startup when missing (see Load).
type Config struct {
	Environment string `envconfig:"ENV" default:"development"`

	// MQTT broker session settings
	MQTTBrokerURL         string `envconfig:"MQTT_BROKER_URL" required:"true"`
	MQTTUsername          string `envconfig:"MQTT_USERNAME"`
	MQTTPassword          string `envconfig:"MQTT_PASSWORD"`
	MQTTClientID          string `envconfig:"MQTT_CLIENT_ID" default:"sites-ingestion"`
	MQTTTopic             string `envconfig:"MQTT_TOPIC" default:"sundaya/mqtt/+/+"`
	MQTTQoS               int    `envconfig:"MQTT_QOS" default:"1"`
	MQTTKeepaliveSec      int    `envconfig:"MQTT_KEEPALIVE_SEC" default:"60"`
	MQTTReconnectPeriodMs int    `envconfig:"MQTT_RECONNECT_PERIOD_MS" default:"5000"`
	MQTTConnectTimeoutSec int    `envconfig:"MQTT_CONNECT_TIMEOUT_SEC" default:"30"`
	MQTTStatusTopic       string `envconfig:"MQTT_STATUS_TOPIC" default:"sundaya/ingestion/status"`

	// Database settings
	DatabaseURL string `envconfig:"SITES_DATABASE_URL" required:"true"`

	// Staging insert retry settings
	InsertMaxRetries       int `envconfig:"INSERT_MAX_RETRIES" default:"3"`
	InsertBackoffInitialMs int `envconfig:"INSERT_BACKOFF_INITIAL_MS" default:"200"`
	InsertBackoffMaxMs     int `envconfig:"INSERT_BACKOFF_MAX_MS" default:"2000"`

	// Operational reporting and retention
	StatsIntervalSec     int `envconfig:"STATS_INTERVAL_SEC" default:"300"`
	CleanupIntervalSec   int `envconfig:"CLEANUP_INTERVAL_SEC" default:"3600"`
	CleanupRetentionDays int `envconfig:"CLEANUP_RETENTION_DAYS" default:"60"`

	// Downstream ETL tuning. The poller that drains PENDING rows lives in a
	// separate service; these are validated here so one .env serves both.
	ETLPollIntervalSec int `envconfig:"ETL_POLL_INTERVAL_SEC" default:"30"`
	ETLBatchSize       int `envconfig:"ETL_BATCH_SIZE" default:"100"`
	ETLMaxRetries      int `envconfig:"ETL_MAX_RETRIES" default:"5"`
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.MQTTQoS < 0 || c.MQTTQoS > 2 {
		return fmt.Errorf("MQTT_QOS must be 0, 1 or 2, got %d", c.MQTTQoS)
	}
	if c.MQTTKeepaliveSec <= 0 {
		return fmt.Errorf("MQTT_KEEPALIVE_SEC must be positive, got %d", c.MQTTKeepaliveSec)
	}
	if c.MQTTReconnectPeriodMs <= 0 {
		return fmt.Errorf("MQTT_RECONNECT_PERIOD_MS must be positive, got %d", c.MQTTReconnectPeriodMs)
	}
	if c.MQTTConnectTimeoutSec <= 0 {
		return fmt.Errorf("MQTT_CONNECT_TIMEOUT_SEC must be positive, got %d", c.MQTTConnectTimeoutSec)
	}
	if c.InsertMaxRetries < 1 {
		return fmt.Errorf("INSERT_MAX_RETRIES must be at least 1, got %d", c.InsertMaxRetries)
	}
	if c.CleanupRetentionDays < 1 {
		return fmt.Errorf("CLEANUP_RETENTION_DAYS must be at least 1, got %d", c.CleanupRetentionDays)
	}
	if c.ETLBatchSize < 1 {
		return fmt.Errorf("ETL_BATCH_SIZE must be at least 1, got %d", c.ETLBatchSize)
	}
	return nil
}
