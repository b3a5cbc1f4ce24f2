package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const fullConfig = `
database:
  host: db.internal   # primary
  port: 5433
  user: geotrack
  password: "s3cret"
  database: tracking

rabbitmq:
  host: mq.internal
  port: 5673
  user: geotrack
  password: 'guest pass'

websocket:
  port: 9090

jwt:
  secret_key: "very-long-signing-key"
  access_ttl_minutes: 90
`

func TestLoadFromFile(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, fullConfig))
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}

	if cfg.Database.Host != "db.internal" || cfg.Database.Port != 5433 || cfg.Database.Name != "tracking" {
		t.Errorf("database = %+v", cfg.Database)
	}
	if cfg.Database.Password != "s3cret" {
		t.Errorf("quoted password = %q", cfg.Database.Password)
	}
	if cfg.RabbitMQ.Password != "guest pass" {
		t.Errorf("single-quoted password = %q", cfg.RabbitMQ.Password)
	}
	if cfg.WebSocket.Port != 9090 {
		t.Errorf("websocket port = %d", cfg.WebSocket.Port)
	}
	if cfg.JWT.SecretKey != "very-long-signing-key" {
		t.Errorf("jwt secret = %q", cfg.JWT.SecretKey)
	}
	if cfg.AccessTTL() != 90*time.Minute {
		t.Errorf("access ttl = %s", cfg.AccessTTL())
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	minimal := `
database:
  user: geotrack
  password: pw
  database: tracking

rabbitmq:
  user: geotrack
  password: pw
`
	cfg, err := LoadFromFile(writeConfig(t, minimal))
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}

	if cfg.Database.Host != "localhost" || cfg.Database.Port != 5432 {
		t.Errorf("database defaults = %s:%d", cfg.Database.Host, cfg.Database.Port)
	}
	if cfg.RabbitMQ.Host != "localhost" || cfg.RabbitMQ.Port != 5672 {
		t.Errorf("rabbitmq defaults = %s:%d", cfg.RabbitMQ.Host, cfg.RabbitMQ.Port)
	}
	if cfg.WebSocket.Port != 8080 {
		t.Errorf("websocket default = %d", cfg.WebSocket.Port)
	}
	if cfg.JWT.SecretKey == "" {
		t.Error("jwt secret not generated")
	}
	if cfg.AccessTTL() != 24*time.Hour {
		t.Errorf("ttl default = %s", cfg.AccessTTL())
	}
}

func TestLoadReportsAllProblems(t *testing.T) {
	broken := `
database:
  port: 70000
  user: geotrack
  database: tracking

rabbitmq:
  user: geotrack
  password: pw
`
	_, err := LoadFromFile(writeConfig(t, broken))
	if err == nil {
		t.Fatal("invalid config accepted")
	}
	msg := err.Error()
	for _, want := range []string{"database.port", "database.password"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q does not mention %s", msg, want)
		}
	}
}

func TestParserRejectsGarbage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "unknown section",
			body: "redis:\n  port: 6379\n",
			want: "unknown top-level key",
		},
		{
			name: "unknown key",
			body: "database:\n  hostname: x\n",
			want: "unknown key in database",
		},
		{
			name: "duplicate section",
			body: "jwt:\n  secret_key: a\njwt:\n  secret_key: b\n",
			want: "duplicate 'jwt' section",
		},
		{
			name: "key without section",
			body: "  port: 8080\n",
			want: "key without a section",
		},
		{
			name: "non-integer port",
			body: "websocket:\n  port: eighty\n",
			want: "websocket.port must be int",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var cfg Config
			err := parseYAML(strings.NewReader(tc.body), &cfg)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("err = %v, want mention of %q", err, tc.want)
			}
		})
	}
}

func TestResolveScalar(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`"localhost"`, "localhost"},
		{`'password123'`, "password123"},
		{`plain`, "plain"},
		{`  padded  `, "padded"},
		{`""`, ""},
	}
	for _, tc := range tests {
		if got := resolveScalar(tc.in); got != tc.want {
			t.Errorf("resolveScalar(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
