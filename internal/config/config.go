package config

import "time"

// Config is the application configuration.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Server        ServerConfig       `mapstructure:"server"`
	Database      DatabaseConfig     `mapstructure:"database"`
	Redis         RedisConfig        `mapstructure:"redis"`
	Logging       LoggingConfig      `mapstructure:"logging"`
	Analysis      AnalysisConfig     `mapstructure:"analysis"`
	Classifier    ClassifierConfig   `mapstructure:"classifier"`
	Notifications NotificationConfig `mapstructure:"notifications"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	BodyLimitMB  int           `mapstructure:"body_limit_mb"`
	AllowOrigins string        `mapstructure:"allow_origins"`
}

type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

type RedisConfig struct {
	Address  string        `mapstructure:"address"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// AnalysisConfig controls the local matcher and scorer.
type AnalysisConfig struct {
	// Timeout wraps matching and scoring calls; zero disables it.
	Timeout             time.Duration `mapstructure:"timeout"`
	DoctorsPerSpecialty int           `mapstructure:"doctors_per_specialty"`
	// DemoSession enables the scripted "second scan is benign" session.
	DemoSession bool `mapstructure:"demo_session"`
}

type ClassifierConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	APIKey   string        `mapstructure:"api_key"`
	Model    string        `mapstructure:"model"`
	Timeout  time.Duration `mapstructure:"timeout"`
	FailOpen bool          `mapstructure:"fail_open"`
}

type NotificationConfig struct {
	AWSRegion string `mapstructure:"aws_region"`
	SES       struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
	} `mapstructure:"ses"`
	SNS struct {
		Enabled bool `mapstructure:"enabled"`
	} `mapstructure:"sns"`
}
