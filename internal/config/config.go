package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Directory drivers.
const (
	DirectoryREST     = "rest"
	DirectoryPostgres = "postgres"
	DirectoryStatic   = "static"
)

// Buzzer kinds.
const (
	BuzzerBell = "bell"
	BuzzerLog  = "log"
)

type Config struct {
	Port      string          `mapstructure:"port"`
	Log       LogConfig       `mapstructure:"log"`
	DB        DBConfig        `mapstructure:"db"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Device    DeviceConfig    `mapstructure:"device"`
	Directory DirectoryConfig `mapstructure:"directory"`
	MQTT      MQTTConfig      `mapstructure:"mqtt"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Simulator SimulatorConfig `mapstructure:"simulator"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type AuthConfig struct {
	SigningKey string        `mapstructure:"signing_key"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
}

// DeviceConfig tunes the sensor session.
type DeviceConfig struct {
	Path             string        `mapstructure:"path"`
	DialTimeout      time.Duration `mapstructure:"dial_timeout"`
	RetryInterval    time.Duration `mapstructure:"retry_interval"`
	ProbeTimeout     time.Duration `mapstructure:"probe_timeout"`
	BuzzerInterval   time.Duration `mapstructure:"buzzer_interval"`
	Buzzer           string        `mapstructure:"buzzer"`
	WindowSize       int           `mapstructure:"window_size"`
	DefaultThreshold float64       `mapstructure:"default_threshold"`
}

// DirectoryConfig selects where the device's current address is looked up.
type DirectoryConfig struct {
	Driver  string        `mapstructure:"driver"`
	URL     string        `mapstructure:"url"`
	APIKey  string        `mapstructure:"api_key"`
	Table   string        `mapstructure:"table"`
	DSN     string        `mapstructure:"dsn"`
	Address string        `mapstructure:"address"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type MQTTConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Broker      string `mapstructure:"broker"`
	ClientID    string `mapstructure:"client_id"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	TopicPrefix string `mapstructure:"topic_prefix"`
	QoS         byte   `mapstructure:"qos"`
}

type TelegramConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Token   string `mapstructure:"token"`
	ChatID  int64  `mapstructure:"chat_id"`
}

// SimulatorConfig drives cmd/devicesim.
type SimulatorConfig struct {
	Port    string        `mapstructure:"port"`
	Tick    time.Duration `mapstructure:"tick"`
	TargetC float64       `mapstructure:"target_c"`
}

var defaults = map[string]any{
	"port":                     "8080",
	"log.level":                "info",
	"log.format":               "console",
	"db.path":                  "app.db",
	"auth.signing_key":         "",
	"auth.token_ttl":           time.Hour,
	"device.path":              "/ws",
	"device.dial_timeout":      5 * time.Second,
	"device.retry_interval":    3 * time.Second,
	"device.probe_timeout":     2 * time.Second,
	"device.buzzer_interval":   time.Second,
	"device.buzzer":            BuzzerLog,
	"device.window_size":       20,
	"device.default_threshold": 100.0,
	"directory.driver":         DirectoryREST,
	"directory.url":            "",
	"directory.api_key":        "",
	"directory.table":          "esp32_connections",
	"directory.dsn":            "",
	"directory.address":        "",
	"directory.timeout":        5 * time.Second,
	"mqtt.enabled":             false,
	"mqtt.broker":              "tcp://localhost:1883",
	"mqtt.client_id":           "thermometer-dashboard",
	"mqtt.username":            "",
	"mqtt.password":            "",
	"mqtt.topic_prefix":        "thermometer",
	"mqtt.qos":                 1,
	"telegram.enabled":         false,
	"telegram.token":           "",
	"telegram.chat_id":         0,
	"simulator.port":           "8081",
	"simulator.tick":           time.Second,
	"simulator.target_c":       25.0,
}

// Load reads configs/config.yml (optional), .env (optional) and environment
// overrides such as DEVICE_RETRY_INTERVAL or DIRECTORY_URL.
func Load(paths ...string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{"configs"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the dashboard cannot run with.
func (c *Config) Validate() error {
	switch c.Directory.Driver {
	case DirectoryREST:
		if c.Directory.URL == "" {
			return errors.New("directory.url is required for the rest driver")
		}
	case DirectoryPostgres:
		if c.Directory.DSN == "" {
			return errors.New("directory.dsn is required for the postgres driver")
		}
	case DirectoryStatic:
		if c.Directory.Address == "" {
			return errors.New("directory.address is required for the static driver")
		}
	default:
		return fmt.Errorf("unknown directory.driver %q", c.Directory.Driver)
	}
	if c.Device.RetryInterval <= 0 {
		return errors.New("device.retry_interval must be positive")
	}
	if c.Device.BuzzerInterval <= 0 {
		return errors.New("device.buzzer_interval must be positive")
	}
	if c.Device.WindowSize <= 0 {
		return errors.New("device.window_size must be positive")
	}
	if c.Telegram.Enabled && (c.Telegram.Token == "" || c.Telegram.ChatID == 0) {
		return errors.New("telegram.token and telegram.chat_id are required when telegram is enabled")
	}
	return nil
}
