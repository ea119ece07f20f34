package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	NATS      NATSConfig      `mapstructure:"nats"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Detection DetectionConfig `mapstructure:"detection"`
	Dialogue  DialogueConfig  `mapstructure:"dialogue"`
	Callback  CallbackConfig  `mapstructure:"callback"`
	Sessions  SessionsConfig  `mapstructure:"sessions"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	Version     string `mapstructure:"version"`
	Debug       bool   `mapstructure:"debug"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	HTTPPort        int           `mapstructure:"http_port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// AuthConfig holds the inbound API key configuration. The evaluation
// harness authenticates with a static x-api-key header.
type AuthConfig struct {
	APIKey string `mapstructure:"api_key"`
}

type DatabaseConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

type RedisConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type NATSConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	URL        string `mapstructure:"url"`
	StreamName string `mapstructure:"stream_name"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	TimeFormat string `mapstructure:"time_format"`
}

// DetectionConfig holds the intent scoring table. The reference values are
// heuristic calibration, not derived from a labeled dataset, so every
// constant is overridable here.
type DetectionConfig struct {
	BaseThreeCategories   float64 `mapstructure:"base_three_categories"`
	BaseTwoCategories     float64 `mapstructure:"base_two_categories"`
	BaseOneCategory       float64 `mapstructure:"base_one_category"`
	ThreatFinancialBoost  float64 `mapstructure:"threat_financial_boost"`
	ThreatFinancialCap    float64 `mapstructure:"threat_financial_cap"`
	UrgencyVerifyBoost    float64 `mapstructure:"urgency_verify_boost"`
	UrgencyVerifyCap      float64 `mapstructure:"urgency_verify_cap"`
	HistoryUrgencyBoost   float64 `mapstructure:"history_urgency_boost"`
	HistoryUrgencyCap     float64 `mapstructure:"history_urgency_cap"`
	HistoryWindow         int     `mapstructure:"history_window"`
	ScamThreshold         float64 `mapstructure:"scam_threshold"`
}

// DefaultDetection returns the reference scoring table.
func DefaultDetection() DetectionConfig {
	return DetectionConfig{
		BaseThreeCategories:  0.85,
		BaseTwoCategories:    0.70,
		BaseOneCategory:      0.50,
		ThreatFinancialBoost: 0.15,
		ThreatFinancialCap:   0.95,
		UrgencyVerifyBoost:   0.10,
		UrgencyVerifyCap:     0.90,
		HistoryUrgencyBoost:  0.05,
		HistoryUrgencyCap:    0.95,
		HistoryWindow:        3,
		ScamThreshold:        0.50,
	}
}

// DialogueConfig holds the stage machine ceilings.
type DialogueConfig struct {
	IntelTarget     int `mapstructure:"intel_target"`      // distinct items before closing
	ExtractionCap   int `mapstructure:"extraction_cap"`    // message ceiling inside extraction
	ConversationCap int `mapstructure:"conversation_cap"`  // hard per-session message ceiling
}

// DefaultDialogue returns the reference stage ceilings.
func DefaultDialogue() DialogueConfig {
	return DialogueConfig{
		IntelTarget:     3,
		ExtractionCap:   12,
		ConversationCap: 20,
	}
}

// CallbackConfig holds the external evaluation sink settings.
type CallbackConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type SessionsConfig struct {
	ShardCount    int           `mapstructure:"shard_count"`
	Retention     time.Duration `mapstructure:"retention"`      // reported sessions kept this long
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/orbtrap-lab")
	}

	setDefaults(v)

	// Environment variables
	v.SetEnvPrefix("ORBTRAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bind nested env vars explicitly (viper doesn't auto-bind nested struct fields)
	v.BindEnv("auth.api_key", "ORBTRAP_AUTH_API_KEY")
	v.BindEnv("callback.url", "ORBTRAP_CALLBACK_URL")
	v.BindEnv("redis.enabled", "ORBTRAP_REDIS_ENABLED")
	v.BindEnv("redis.host", "ORBTRAP_REDIS_HOST")
	v.BindEnv("redis.port", "ORBTRAP_REDIS_PORT")
	v.BindEnv("redis.password", "ORBTRAP_REDIS_PASSWORD")
	v.BindEnv("database.enabled", "ORBTRAP_DATABASE_ENABLED")
	v.BindEnv("database.host", "ORBTRAP_DATABASE_HOST")
	v.BindEnv("database.port", "ORBTRAP_DATABASE_PORT")
	v.BindEnv("database.user", "ORBTRAP_DATABASE_USER")
	v.BindEnv("database.password", "ORBTRAP_DATABASE_PASSWORD")
	v.BindEnv("database.dbname", "ORBTRAP_DATABASE_DBNAME")
	v.BindEnv("nats.enabled", "ORBTRAP_NATS_ENABLED")
	v.BindEnv("nats.url", "ORBTRAP_NATS_URL")
	v.BindEnv("app.environment", "ORBTRAP_APP_ENVIRONMENT")

	if err := v.ReadInConfig(); err != nil {
		// Config file is optional; defaults plus env cover a dev run
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// LoadDefault loads configuration with default path
func LoadDefault() (*Config, error) {
	return Load("")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "orbtrap-lab")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.version", "0.1.0")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 5001)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("auth.api_key", "sk_test_123456789")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.key_prefix", "orbtrap:")

	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)

	v.SetDefault("nats.stream_name", "ORBTRAP_EVENTS")

	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Accept", "Content-Type", "x-api-key"})
	v.SetDefault("cors.max_age", 300)

	v.SetDefault("ratelimit.enabled", false)
	v.SetDefault("ratelimit.requests_per_minute", 120)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")

	det := DefaultDetection()
	v.SetDefault("detection.base_three_categories", det.BaseThreeCategories)
	v.SetDefault("detection.base_two_categories", det.BaseTwoCategories)
	v.SetDefault("detection.base_one_category", det.BaseOneCategory)
	v.SetDefault("detection.threat_financial_boost", det.ThreatFinancialBoost)
	v.SetDefault("detection.threat_financial_cap", det.ThreatFinancialCap)
	v.SetDefault("detection.urgency_verify_boost", det.UrgencyVerifyBoost)
	v.SetDefault("detection.urgency_verify_cap", det.UrgencyVerifyCap)
	v.SetDefault("detection.history_urgency_boost", det.HistoryUrgencyBoost)
	v.SetDefault("detection.history_urgency_cap", det.HistoryUrgencyCap)
	v.SetDefault("detection.history_window", det.HistoryWindow)
	v.SetDefault("detection.scam_threshold", det.ScamThreshold)

	dlg := DefaultDialogue()
	v.SetDefault("dialogue.intel_target", dlg.IntelTarget)
	v.SetDefault("dialogue.extraction_cap", dlg.ExtractionCap)
	v.SetDefault("dialogue.conversation_cap", dlg.ConversationCap)

	v.SetDefault("callback.url", "https://hackathon.guvi.in/api/updateHoneyPotFinalResult")
	v.SetDefault("callback.timeout", 10*time.Second)

	v.SetDefault("sessions.shard_count", 32)
	v.SetDefault("sessions.retention", time.Hour)
	v.SetDefault("sessions.sweep_interval", 5*time.Minute)
}
