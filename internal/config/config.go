package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type AppConfig struct {
	Port    int    `yaml:"port"`
	GinMode string `yaml:"gin_mode"`
}

type MoodleConfig struct {
	BaseURL string `yaml:"base_url"`
	Token   string `yaml:"token"`
	Timeout string `yaml:"timeout"`
}

type CacheConfig struct {
	Backend string `yaml:"backend"` // "memory" or "redis"
	TTL     string `yaml:"ttl"`
	TreeTTL string `yaml:"tree_ttl"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type JWTConfig struct {
	Secret     string `yaml:"secret"`
	Issuer     string `yaml:"issuer"`
	SessionTTL string `yaml:"session_ttl"`
}

type MagicCodeConfig struct {
	Length      int    `yaml:"length"`
	TTL         string `yaml:"ttl"`
	MaxAttempts int    `yaml:"max_attempts"`
}

type MailerConfig struct {
	BaseURL string `yaml:"base_url"`
}

type CasbinConfig struct {
	ModelPath string `yaml:"model_path"`
}

type ConfigFile struct {
	App       AppConfig       `yaml:"app"`
	Moodle    MoodleConfig    `yaml:"moodle"`
	Cache     CacheConfig     `yaml:"cache"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	JWT       JWTConfig       `yaml:"jwt"`
	MagicCode MagicCodeConfig `yaml:"magic_code"`
	Mailer    MailerConfig    `yaml:"mailer"`
	Casbin    CasbinConfig    `yaml:"casbin"`
}

type Config struct {
	Port    string
	GinMode string

	MoodleBaseURL string
	MoodleToken   string
	MoodleTimeout time.Duration

	CacheBackend string
	CacheTTL     time.Duration
	TreeTTL      time.Duration

	DSN           string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret  string
	JWTIssuer  string
	SessionTTL time.Duration

	CodeLength      int
	CodeTTL         time.Duration
	CodeMaxAttempts int

	MailerBaseURL string

	CasbinModelPath string
}

// placeholderSecret is used when no JWT secret is configured. Deployments
// must override it; app.Run warns loudly when it is left in place.
const placeholderSecret = "odel-dev-secret-change-me"

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

// Load reads config/config.yml and applies environment overrides for the
// secrets and endpoints that differ per deployment.
func Load() (*Config, error) {
	return LoadFrom("config/config.yml")
}

func LoadFrom(path string) (*Config, error) {
	file, err := loadConfigFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	moodleTimeout, err := parseDuration(file.Moodle.Timeout, 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid moodle timeout: %w", err)
	}
	cacheTTL, err := parseDuration(file.Cache.TTL, 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid cache TTL: %w", err)
	}
	treeTTL, err := parseDuration(file.Cache.TreeTTL, 10*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid category tree TTL: %w", err)
	}
	sessionTTL, err := parseDuration(file.JWT.SessionTTL, 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("invalid session TTL: %w", err)
	}
	codeTTL, err := parseDuration(file.MagicCode.TTL, 10*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid magic code TTL: %w", err)
	}

	codeLength := file.MagicCode.Length
	if codeLength == 0 {
		codeLength = 6
	}
	maxAttempts := file.MagicCode.MaxAttempts
	if maxAttempts == 0 {
		maxAttempts = 5
	}

	return &Config{
		Port:            fmt.Sprintf("%d", file.App.Port),
		GinMode:         env("GIN_MODE", file.App.GinMode),
		MoodleBaseURL:   env("MOODLE_BASE_URL", file.Moodle.BaseURL),
		MoodleToken:     env("MOODLE_TOKEN", file.Moodle.Token),
		MoodleTimeout:   moodleTimeout,
		CacheBackend:    env("CACHE_BACKEND", file.Cache.Backend),
		CacheTTL:        cacheTTL,
		TreeTTL:         treeTTL,
		DSN:             env("DATABASE_DSN", file.Database.DSN),
		RedisAddr:       env("REDIS_ADDR", file.Redis.Addr),
		RedisPassword:   env("REDIS_PASSWORD", file.Redis.Password),
		RedisDB:         envInt("REDIS_DB", file.Redis.DB),
		JWTSecret:       env("JWT_SECRET", defaultStr(file.JWT.Secret, placeholderSecret)),
		JWTIssuer:       defaultStr(file.JWT.Issuer, "odel-portal"),
		SessionTTL:      sessionTTL,
		CodeLength:      codeLength,
		CodeTTL:         codeTTL,
		CodeMaxAttempts: maxAttempts,
		MailerBaseURL:   env("MAILER_BASE_URL", file.Mailer.BaseURL),
		CasbinModelPath: defaultStr(file.Casbin.ModelPath, "config/casbin_model.conf"),
	}, nil
}

// UsingPlaceholderSecret reports whether the deployment never set a real JWT
// signing secret.
func (c *Config) UsingPlaceholderSecret() bool {
	return c.JWTSecret == placeholderSecret
}

func loadConfigFile(path string) (*ConfigFile, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read config file at %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(bytes, &config); err != nil {
		return nil, fmt.Errorf("could not parse config yaml: %w", err)
	}

	return &config, nil
}

func parseDuration(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	return time.ParseDuration(s)
}

func defaultStr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
