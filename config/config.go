// config/config.go
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// MailConfig selects and configures the outgoing email transport.
type MailConfig struct {
	Provider      string `yaml:"provider"` // "postmark", "sendgrid" or "log"
	PostmarkToken string `yaml:"postmark_token"`
	SendGridKey   string `yaml:"sendgrid_key"`
	From          string `yaml:"from"`
	FromName      string `yaml:"from_name"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	Database int           `yaml:"database"`
	TTL      time.Duration `yaml:"ttl"`
}

// Config holds everything the API needs at startup.
type Config struct {
	Port             string        `yaml:"port"`
	Env              string        `yaml:"env"`
	MongoURI         string        `yaml:"mongo_uri"`
	Database         string        `yaml:"database"`
	JWTSecret        string        `yaml:"jwt_secret"`
	JWTExpire        time.Duration `yaml:"jwt_expire"`
	CookieExpireDays int           `yaml:"cookie_expire_days"`
	PublicURL        string        `yaml:"public_url"`
	UploadDir        string        `yaml:"upload_dir"`
	UploadURL        string        `yaml:"upload_url"`
	Mail             MailConfig    `yaml:"mail"`
	Redis            RedisConfig   `yaml:"redis"`
}

// Default returns the configuration used when nothing else is provided.
func Default() Config {
	return Config{
		Port:             "5000",
		Env:              "development",
		Database:         "ecommerce",
		JWTExpire:        30 * 24 * time.Hour,
		CookieExpireDays: 7,
		UploadDir:        "uploads",
		UploadURL:        "/uploads",
		Mail: MailConfig{
			FromName: "Goodluck Fashion",
		},
		Redis: RedisConfig{
			TTL: time.Minute,
		},
	}
}

// Load builds the configuration from defaults, an optional .env file, an optional
// YAML file named by CONFIG_FILE and finally the process environment.
func Load() (Config, error) {
	cfg := Default()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Proceeding with environment variables.")
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := LoadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadFile overlays the YAML file at path onto cfg.
func LoadFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config file: %w", err)
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(cfg); err != nil {
		return fmt.Errorf("decode config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Port, "PORT")
	setString(&cfg.Env, "NODE_ENV")
	setString(&cfg.Env, "APP_ENV")
	setString(&cfg.MongoURI, "MONGO_URI")
	setString(&cfg.Database, "MONGO_DB")
	setString(&cfg.JWTSecret, "JWT_SECRET")
	setString(&cfg.PublicURL, "PUBLIC_URL")
	setString(&cfg.UploadDir, "UPLOAD_DIR")
	setString(&cfg.UploadURL, "UPLOAD_URL")
	setString(&cfg.Mail.Provider, "MAIL_PROVIDER")
	setString(&cfg.Mail.PostmarkToken, "POSTMARK_API_TOKEN")
	setString(&cfg.Mail.SendGridKey, "SENDGRID_API_KEY")
	setString(&cfg.Mail.From, "EMAIL_SENDER")
	setString(&cfg.Mail.FromName, "FROM_NAME")
	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")

	if v := os.Getenv("JWT_EXPIRE"); v != "" {
		d, err := ParseDuration(v)
		if err != nil {
			return fmt.Errorf("JWT_EXPIRE: %w", err)
		}
		cfg.JWTExpire = d
	}
	if v := os.Getenv("JWT_COOKIE_EXPIRE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("JWT_COOKIE_EXPIRE: %w", err)
		}
		cfg.CookieExpireDays = n
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("REDIS_DB: %w", err)
		}
		cfg.Redis.Database = n
	}
	if v := os.Getenv("CACHE_TTL"); v != "" {
		d, err := ParseDuration(v)
		if err != nil {
			return fmt.Errorf("CACHE_TTL: %w", err)
		}
		cfg.Redis.TTL = d
	}
	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

// ParseDuration accepts Go durations ("720h") and whole days ("30d").
func ParseDuration(v string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	if strings.HasSuffix(v, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(v, "d"))
		if err != nil {
			return 0, fmt.Errorf("invalid day duration %q", v)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	return time.ParseDuration(v)
}

// IsProduction reports whether cookies must be secure and secrets mandatory.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// MailProvider resolves the transport to use, inferring it from credentials when unset.
func (c Config) MailProvider() string {
	if c.Mail.Provider != "" {
		return strings.ToLower(c.Mail.Provider)
	}
	switch {
	case c.Mail.PostmarkToken != "":
		return "postmark"
	case c.Mail.SendGridKey != "":
		return "sendgrid"
	default:
		return "log"
	}
}

func (c Config) Validate() error {
	if c.Port == "" {
		return errors.New("config: port is required")
	}
	if c.CookieExpireDays <= 0 {
		return errors.New("config: cookie expiry must be positive")
	}
	if c.IsProduction() {
		if c.JWTSecret == "" {
			return errors.New("config: JWT_SECRET is required in production")
		}
		if c.MongoURI == "" {
			return errors.New("config: MONGO_URI is required in production")
		}
	}
	return nil
}
