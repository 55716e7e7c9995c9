package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. AQUASTREAM_DB_PATH.
const EnvPrefix = "AQUASTREAM"

type Config struct {
	Port       string
	LogLevel   string
	DBPath     string
	Auth       AuthConfig
	Device     DeviceConfig
	Automation AutomationConfig
	MQTT       MQTTConfig
}

type AuthConfig struct {
	SigningKey    string
	TokenTTL      time.Duration
	AdminUsername string
	AdminPassword string
}

type DeviceConfig struct {
	StatusPath string
	Timeout    time.Duration
}

type AutomationConfig struct {
	PollInterval   time.Duration
	FeederPulse    time.Duration
	SensorThrottle time.Duration
}

// MQTTConfig is optional; an empty Broker disables publishing.
type MQTTConfig struct {
	Broker   string
	ClientID string
	Topic    string
	Username string
	Password string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("db.path", "aquastream.db")

	v.SetDefault("auth.signing_key", "")
	v.SetDefault("auth.token_ttl", time.Hour)
	v.SetDefault("auth.admin_username", "admin")
	v.SetDefault("auth.admin_password", "")

	v.SetDefault("device.status_path", "/aquastream-dashboard/sensor_value.json")
	v.SetDefault("device.timeout", 5*time.Second)

	v.SetDefault("automation.poll_interval", 10*time.Second)
	v.SetDefault("automation.feeder_pulse", 2*time.Second)
	v.SetDefault("automation.sensor_throttle", 30*time.Second)

	v.SetDefault("mqtt.broker", "")
	v.SetDefault("mqtt.client_id", "aquastream")
	v.SetDefault("mqtt.topic", "aquastream/events")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
}

// Load reads configs/config.yml (or the file named by path when non-empty),
// applies AQUASTREAM_* environment overrides and falls back to defaults.
// A missing config file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("configs")
		v.SetConfigName("config")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := fromViper(v)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Port:     v.GetString("port"),
		LogLevel: v.GetString("log.level"),
		DBPath:   v.GetString("db.path"),
		Auth: AuthConfig{
			SigningKey:    v.GetString("auth.signing_key"),
			TokenTTL:      v.GetDuration("auth.token_ttl"),
			AdminUsername: v.GetString("auth.admin_username"),
			AdminPassword: v.GetString("auth.admin_password"),
		},
		Device: DeviceConfig{
			StatusPath: v.GetString("device.status_path"),
			Timeout:    v.GetDuration("device.timeout"),
		},
		Automation: AutomationConfig{
			PollInterval:   v.GetDuration("automation.poll_interval"),
			FeederPulse:    v.GetDuration("automation.feeder_pulse"),
			SensorThrottle: v.GetDuration("automation.sensor_throttle"),
		},
		MQTT: MQTTConfig{
			Broker:   v.GetString("mqtt.broker"),
			ClientID: v.GetString("mqtt.client_id"),
			Topic:    v.GetString("mqtt.topic"),
			Username: v.GetString("mqtt.username"),
			Password: v.GetString("mqtt.password"),
		},
	}
}

func (c *Config) validate() error {
	if c.Automation.PollInterval <= 0 {
		return fmt.Errorf("automation.poll_interval must be positive, got %s", c.Automation.PollInterval)
	}
	if c.Automation.FeederPulse <= 0 {
		return fmt.Errorf("automation.feeder_pulse must be positive, got %s", c.Automation.FeederPulse)
	}
	if c.Device.Timeout <= 0 {
		return fmt.Errorf("device.timeout must be positive, got %s", c.Device.Timeout)
	}
	if !strings.HasPrefix(c.Device.StatusPath, "/") {
		return fmt.Errorf("device.status_path must start with '/', got %q", c.Device.StatusPath)
	}
	if c.Auth.SigningKey == "" {
		return errors.New("auth.signing_key is required")
	}
	return nil
}
