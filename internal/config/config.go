package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// CasdoorConfig holds the identity provider settings
type CasdoorConfig struct {
	Endpoint     string `mapstructure:"endpoint"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	Cert         string `mapstructure:"cert"`
	Organization string `mapstructure:"organization"`
	Application  string `mapstructure:"application"`
	RedirectURL  string `mapstructure:"redirect_url"`
}

type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type StorageConfig struct {
	Endpoint         string        `mapstructure:"endpoint"`
	AccessKey        string        `mapstructure:"access_key"`
	SecretKey        string        `mapstructure:"secret_key"`
	BucketPastPapers string        `mapstructure:"bucket_past_papers"`
	UseSSL           bool          `mapstructure:"use_ssl"`
	Region           string        `mapstructure:"region"`
	UploadURLTTL     time.Duration `mapstructure:"upload_url_ttl"`
}

// AuthConfig covers session handling and first-login provisioning
type AuthConfig struct {
	AdminEmails         []string      `mapstructure:"admin_emails"`
	ContributorEmails   []string      `mapstructure:"contributor_emails"`
	StateSecret         string        `mapstructure:"state_secret"`
	StateTTL            time.Duration `mapstructure:"state_ttl"`
	SessionCookieName   string        `mapstructure:"session_cookie_name"`
	SessionCookieMaxAge time.Duration `mapstructure:"session_cookie_max_age"`
	BootstrapAttempts   int           `mapstructure:"bootstrap_attempts"`
	BootstrapBaseDelay  time.Duration `mapstructure:"bootstrap_base_delay"`
}

type JobsConfig struct {
	BacklogSchedule string `mapstructure:"backlog_schedule"`
}

type Config struct {
	Environment    string         `mapstructure:"environment"`
	Port           string         `mapstructure:"port"`
	LogLevelName   string         `mapstructure:"log_level"`
	AppBaseURL     string         `mapstructure:"app_base_url"`
	RedisURL       string         `mapstructure:"redis_url"`
	AllowedOrigins []string       `mapstructure:"allowed_origins"`
	Database       DatabaseConfig `mapstructure:"database"`
	Casdoor        CasdoorConfig  `mapstructure:"casdoor"`
	Kafka          KafkaConfig    `mapstructure:"kafka"`
	Storage        StorageConfig  `mapstructure:"storage"`
	Auth           AuthConfig     `mapstructure:"auth"`
	Jobs           JobsConfig     `mapstructure:"jobs"`

	LogLevel slog.Level `mapstructure:"-"`
}

// LoadConfig reads .env, an optional config.yaml and the process environment.
// Nested keys map to upper-case env vars with dots replaced by underscores,
// e.g. casdoor.client_id -> CASDOOR_CLIENT_ID.
func LoadConfig() (*Config, error) {
	// .env is optional outside local development
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(cfg.LogLevelName)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevelName, err)
	}

	cfg.Auth.AdminEmails = normalizeEmails(cfg.Auth.AdminEmails)
	cfg.Auth.ContributorEmails = normalizeEmails(cfg.Auth.ContributorEmails)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the settings the service cannot start without
func (c *Config) Validate() error {
	var missing []string
	if c.Database.URL == "" {
		missing = append(missing, "database.url")
	}
	if c.Casdoor.Endpoint == "" {
		missing = append(missing, "casdoor.endpoint")
	}
	if c.Casdoor.ClientID == "" {
		missing = append(missing, "casdoor.client_id")
	}
	if c.Auth.StateSecret == "" {
		missing = append(missing, "auth.state_secret")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	if c.Auth.BootstrapAttempts < 1 {
		return fmt.Errorf("auth.bootstrap_attempts must be at least 1")
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("port", "8080")
	v.SetDefault("log_level", "INFO")
	v.SetDefault("app_base_url", "http://localhost:3000")
	v.SetDefault("redis_url", "")
	v.SetDefault("allowed_origins", []string{"http://localhost:3000"})

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.auto_migrate", false)

	v.SetDefault("casdoor.endpoint", "")
	v.SetDefault("casdoor.client_id", "")
	v.SetDefault("casdoor.client_secret", "")
	v.SetDefault("casdoor.cert", "")
	v.SetDefault("casdoor.organization", "stemhub")
	v.SetDefault("casdoor.application", "stemhub-web")
	v.SetDefault("casdoor.redirect_url", "http://localhost:8080/api/auth/callback")

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "stemhub.events")

	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.access_key", "")
	v.SetDefault("storage.secret_key", "")
	v.SetDefault("storage.bucket_past_papers", "stemhub-past-papers")
	v.SetDefault("storage.use_ssl", false)
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.upload_url_ttl", "15m")

	v.SetDefault("auth.admin_emails", []string{})
	v.SetDefault("auth.contributor_emails", []string{})
	v.SetDefault("auth.state_secret", "")
	v.SetDefault("auth.state_ttl", "10m")
	v.SetDefault("auth.session_cookie_name", "stemhub_session")
	v.SetDefault("auth.session_cookie_max_age", "168h")
	v.SetDefault("auth.bootstrap_attempts", 3)
	v.SetDefault("auth.bootstrap_base_delay", "250ms")

	v.SetDefault("jobs.backlog_schedule", "0 */15 * * * *")
}

func normalizeEmails(emails []string) []string {
	out := make([]string, 0, len(emails))
	for _, e := range emails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			out = append(out, e)
		}
	}
	return out
}
