package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"zapis/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Backup     BackupConfig     `yaml:"backup"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	API        APIConfig        `yaml:"api"`
	Booking    BookingConfig    `yaml:"booking"`
	SMS        SMSConfig        `yaml:"sms"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Google     GoogleConfig     `yaml:"google"`
	Exports    ExportConfig     `yaml:"exports"`
	Services   []models.Service `yaml:"services"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type APIConfig struct {
	Enabled   bool               `yaml:"enabled"`
	HTTP      APIHTTPConfig      `yaml:"http"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIHTTPConfig struct {
	Port int `yaml:"port"`
}

type APIAuthConfig struct {
	HeaderAPIKey string         `yaml:"header_api_key"`
	HeaderExtra  string         `yaml:"header_extra"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key         string   `yaml:"key"`
	Extra       string   `yaml:"extra"`
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// BookingConfig управляет генерацией слотов и публичной записью.
type BookingConfig struct {
	Timezone           string `yaml:"timezone"`
	GranularityMinutes int    `yaml:"granularity_minutes"`
	MaxAdvanceDays     int    `yaml:"max_advance_days"`
	CodeLength         int    `yaml:"code_length"`
	CodeTTLSeconds     int    `yaml:"code_ttl_seconds"`
	SendLimit          int    `yaml:"send_limit"`
	SendWindowSeconds  int    `yaml:"send_window_seconds"`
}

// CodeTTL returns the verification code lifetime as a duration.
func (b BookingConfig) CodeTTL() time.Duration {
	return time.Duration(b.CodeTTLSeconds) * time.Second
}

// SendWindow returns the code issuance rate-limit window.
func (b BookingConfig) SendWindow() time.Duration {
	return time.Duration(b.SendWindowSeconds) * time.Second
}

// Location loads the business timezone. Slot arithmetic and commit-time
// timestamps all run in this single zone.
func (b BookingConfig) Location() (*time.Location, error) {
	if b.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(b.Timezone)
}

type SMSConfig struct {
	GatewayURL string `yaml:"gateway_url"`
	APIKey     string `yaml:"api_key"`
	Sender     string `yaml:"sender"`
	TimeoutSec int    `yaml:"timeout_seconds"`
}

type TelegramConfig struct {
	BotToken    string `yaml:"bot_token"`
	OwnerChatID int64  `yaml:"owner_chat_id"`
}

type GoogleConfig struct {
	GoogleCredentialsFile     string `yaml:"credentials_file"`
	AppointmentsSpreadSheetID string `yaml:"appointments_spreadsheet_id"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

func Load(configPath string) (*Config, error) {
	// Загружаем .env файл если существует
	_ = godotenv.Load(".env")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Предварительная замена переменных окружения в YAML
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	if _, err := c.Booking.Location(); err != nil {
		return fmt.Errorf("invalid booking timezone %q: %w", c.Booking.Timezone, err)
	}

	if c.Booking.GranularityMinutes < 5 || c.Booking.GranularityMinutes > 240 {
		return fmt.Errorf("booking granularity out of range: %d", c.Booking.GranularityMinutes)
	}

	return ValidateServices(c.Services)
}

func ValidateServices(services []models.Service) error {
	// Check for duplicate service IDs
	serviceIDs := make(map[int64]bool)
	for _, svc := range services {
		if svc.ID == 0 {
			return fmt.Errorf("service '%s' has invalid ID 0", svc.Name)
		}
		if serviceIDs[svc.ID] {
			return fmt.Errorf("duplicate service ID found: %d", svc.ID)
		}
		serviceIDs[svc.ID] = true
		if svc.DurationMinutes <= 0 {
			return fmt.Errorf("service '%s' has non-positive duration", svc.Name)
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.API.Auth.HeaderExtra == "" {
		c.API.Auth.HeaderExtra = "x-api-extra"
	}

	// Booking defaults
	if c.Booking.GranularityMinutes == 0 {
		c.Booking.GranularityMinutes = models.DefaultGranularityMinutes
	}
	if c.Booking.MaxAdvanceDays == 0 {
		c.Booking.MaxAdvanceDays = models.DefaultMaxAdvanceDays
	}
	if c.Booking.CodeLength == 0 {
		c.Booking.CodeLength = models.DefaultCodeLength
	}
	if c.Booking.CodeTTLSeconds == 0 {
		c.Booking.CodeTTLSeconds = models.DefaultCodeTTL
	}
	if c.Booking.SendLimit == 0 {
		c.Booking.SendLimit = models.DefaultSendLimit
	}
	if c.Booking.SendWindowSeconds == 0 {
		c.Booking.SendWindowSeconds = models.DefaultSendWindow
	}

	if c.SMS.TimeoutSec == 0 {
		c.SMS.TimeoutSec = 10
	}
}
