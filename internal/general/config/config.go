package config

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config carries everything the tracking service needs at startup. It is
// loaded once; zero values are filled with defaults before validation.
type Config struct {
	Database struct {
		Host     string
		Port     int
		User     string
		Password string
		Name     string // YAML key: "database"
	}
	RabbitMQ struct {
		Host     string
		Port     int
		User     string
		Password string
	}
	WebSocket struct {
		Port int
	}
	JWT struct {
		SecretKey        string `yaml:"secret_key"`
		AccessTTLMinutes int    `yaml:"access_ttl_minutes"`
	}
}

// LoadFromFile loads config from a YAML file to a Config struct, applies
// defaults, and validates required fields.
func LoadFromFile(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := parseYAML(file, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// AccessTTL returns the configured access token lifetime.
func (c *Config) AccessTTL() time.Duration {
	return time.Duration(c.JWT.AccessTTLMinutes) * time.Minute
}

func applyDefaults(cfg *Config) {
	fillString(&cfg.Database.Host, "localhost")
	fillInt(&cfg.Database.Port, 5432)

	fillString(&cfg.RabbitMQ.Host, "localhost")
	fillInt(&cfg.RabbitMQ.Port, 5672)

	fillInt(&cfg.WebSocket.Port, 8080)

	if cfg.JWT.SecretKey == "" {
		cfg.JWT.SecretKey = randomSecret()
	}
	fillInt(&cfg.JWT.AccessTTLMinutes, 24*60)
}

func fillString(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}

func fillInt(dst *int, def int) {
	if *dst == 0 {
		*dst = def
	}
}

// randomSecret keeps a dev instance bootable without a configured signing
// key. The key changes on every start, so issued tokens do not survive a
// restart.
func randomSecret() string {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		key = []byte(strconv.FormatInt(time.Now().UnixNano(), 10))
	}
	return base64.StdEncoding.EncodeToString(key)
}

// validate checks required fields and basic ranges, reporting every problem
// in one error.
func (c *Config) validate() error {
	var problems []string
	need := func(value, name string) {
		if value == "" {
			problems = append(problems, name+" is required")
		}
	}
	port := func(n int, name string) {
		if n <= 0 || n > 65535 {
			problems = append(problems, name+" must be in 1..65535")
		}
	}

	port(c.Database.Port, "database.port")
	need(c.Database.User, "database.user")
	need(c.Database.Password, "database.password")
	need(c.Database.Name, "database.name")

	port(c.RabbitMQ.Port, "rabbitmq.port")
	need(c.RabbitMQ.User, "rabbitmq.user")
	need(c.RabbitMQ.Password, "rabbitmq.password")

	port(c.WebSocket.Port, "websocket.port")

	if c.JWT.AccessTTLMinutes < 0 {
		problems = append(problems, "jwt.access_ttl_minutes must not be negative")
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}
