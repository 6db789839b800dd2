// Package config assembles the runtime settings from an optional .env file,
// an optional YAML file and the process environment, in that order of
// increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultMongoURI = "mongodb://localhost:27017"
	defaultDBName   = "catalog"
	defaultPort     = "3000"
	defaultRate     = "100-15M"
	defaultHashCost = 12

	EnvProduction = "production"
)

var ErrMissingSecret = errors.New("JWT_SECRET is required")

type Config struct {
	MongoURI    string   `yaml:"mongoURI"`
	DBName      string   `yaml:"dbName"`
	Port        string   `yaml:"port"`
	JWTSecret   string   `yaml:"jwtSecret"`
	BcryptCost  int      `yaml:"bcryptCost"`
	RateLimit   string   `yaml:"rateLimit"`
	Env         string   `yaml:"env"`
	CORSOrigins []string `yaml:"corsOrigins"`
	Cookie      Cookie   `yaml:"cookie"`

	// TrustedProxies may set X-Forwarded-For; empty trusts no proxy.
	TrustedProxies []string `yaml:"trustedProxies"`
}

type Cookie struct {
	Domain string `yaml:"domain"`
	Secure bool   `yaml:"secure"`
}

func defaults() *Config {
	return &Config{
		MongoURI:   defaultMongoURI,
		DBName:     defaultDBName,
		Port:       defaultPort,
		BcryptCost: defaultHashCost,
		RateLimit:  defaultRate,
		Env:        "development",
	}
}

// Load reads .env (when present), then path (when not empty), then the
// environment. JWT_SECRET must end up set.
func Load(path string) (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := defaults()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if cfg.JWTSecret == "" {
		return nil, ErrMissingSecret
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	var loaded Config
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("parsing YAML config: %w", err)
	}
	c.merge(&loaded)
	return nil
}

// merge copies every non-zero value of loaded over c.
func (c *Config) merge(loaded *Config) {
	if loaded.MongoURI != "" {
		c.MongoURI = loaded.MongoURI
	}
	if loaded.DBName != "" {
		c.DBName = loaded.DBName
	}
	if loaded.Port != "" {
		c.Port = loaded.Port
	}
	if loaded.JWTSecret != "" {
		c.JWTSecret = loaded.JWTSecret
	}
	if loaded.BcryptCost != 0 {
		c.BcryptCost = loaded.BcryptCost
	}
	if loaded.RateLimit != "" {
		c.RateLimit = loaded.RateLimit
	}
	if loaded.Env != "" {
		c.Env = loaded.Env
	}
	if len(loaded.CORSOrigins) > 0 {
		c.CORSOrigins = loaded.CORSOrigins
	}
	if len(loaded.TrustedProxies) > 0 {
		c.TrustedProxies = loaded.TrustedProxies
	}
	if loaded.Cookie.Domain != "" {
		c.Cookie.Domain = loaded.Cookie.Domain
	}
	if loaded.Cookie.Secure {
		c.Cookie.Secure = true
	}
}

func (c *Config) applyEnv() error {
	for key, dst := range map[string]*string{
		"MONGODB_URI":   &c.MongoURI,
		"DB_NAME":       &c.DBName,
		"PORT":          &c.Port,
		"JWT_SECRET":    &c.JWTSecret,
		"RATE_LIMIT":    &c.RateLimit,
		"APP_ENV":       &c.Env,
		"COOKIE_DOMAIN": &c.Cookie.Domain,
	} {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	if v := os.Getenv("BCRYPT_COST"); v != "" {
		cost, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("BCRYPT_COST: %w", err)
		}
		c.BcryptCost = cost
	}
	if v := os.Getenv("COOKIE_SECURE"); v != "" {
		secure, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("COOKIE_SECURE: %w", err)
		}
		c.Cookie.Secure = secure
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.CORSOrigins = splitList(v)
	}
	if v := os.Getenv("TRUSTED_PROXIES"); v != "" {
		c.TrustedProxies = splitList(v)
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// Addr is the listen address for Port.
func (c *Config) Addr() string {
	return ":" + strings.TrimPrefix(c.Port, ":")
}
