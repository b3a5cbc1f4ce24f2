package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// setter stores one scalar into its Config field, converting as needed.
type setter func(cfg *Config, val string) error

// configSchema is the full shape of config.yaml: fixed sections, fixed keys.
// Anything outside it is a typo and fails the load.
var configSchema = map[string]map[string]setter{
	"database": {
		"host":     func(cfg *Config, v string) error { cfg.Database.Host = v; return nil },
		"port":     func(cfg *Config, v string) error { return setInt(&cfg.Database.Port, v) },
		"user":     func(cfg *Config, v string) error { cfg.Database.User = v; return nil },
		"password": func(cfg *Config, v string) error { cfg.Database.Password = v; return nil },
		"database": func(cfg *Config, v string) error { cfg.Database.Name = v; return nil },
	},
	"rabbitmq": {
		"host":     func(cfg *Config, v string) error { cfg.RabbitMQ.Host = v; return nil },
		"port":     func(cfg *Config, v string) error { return setInt(&cfg.RabbitMQ.Port, v) },
		"user":     func(cfg *Config, v string) error { cfg.RabbitMQ.User = v; return nil },
		"password": func(cfg *Config, v string) error { cfg.RabbitMQ.Password = v; return nil },
	},
	"websocket": {
		"port": func(cfg *Config, v string) error { return setInt(&cfg.WebSocket.Port, v) },
	},
	"jwt": {
		"secret_key":         func(cfg *Config, v string) error { cfg.JWT.SecretKey = v; return nil },
		"access_ttl_minutes": func(cfg *Config, v string) error { return setInt(&cfg.JWT.AccessTTLMinutes, v) },
	},
}

func setInt(dst *int, val string) error {
	n, err := strconv.Atoi(val)
	if err != nil {
		return fmt.Errorf("must be int: %v", err)
	}
	*dst = n
	return nil
}

// parseYAML reads the fixed two-level mapping of config.yaml against
// configSchema. It is not a general YAML parser: known sections, scalar
// values, comments and quoting only.
func parseYAML(r io.Reader, cfg *Config) error {
	scanner := bufio.NewScanner(r)
	seen := make(map[string]bool, len(configSchema))

	section := ""
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()

		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		trim := strings.TrimSpace(line)
		if trim == "" {
			continue
		}

		// unindented lines open a section
		if line[0] != ' ' && line[0] != '\t' {
			name, rest, found := strings.Cut(trim, ":")
			if !found || strings.TrimSpace(rest) != "" {
				return fmt.Errorf("line %d: unknown top-level key %q", lineNo, trim)
			}
			name = strings.TrimSpace(name)
			if _, ok := configSchema[name]; !ok {
				return fmt.Errorf("line %d: unknown top-level key %q", lineNo, name)
			}
			if seen[name] {
				return fmt.Errorf("line %d: duplicate '%s' section", lineNo, name)
			}
			seen[name] = true
			section = name
			continue
		}

		if section == "" {
			return fmt.Errorf("line %d: key without a section", lineNo)
		}

		key, rest, found := strings.Cut(trim, ":")
		if !found || strings.TrimSpace(key) == "" {
			return fmt.Errorf("line %d: expected 'key: value'", lineNo)
		}
		key = strings.TrimSpace(key)

		set, ok := configSchema[section][key]
		if !ok {
			return fmt.Errorf("line %d: unknown key in %s: %q", lineNo, section, key)
		}
		if err := set(cfg, resolveScalar(rest)); err != nil {
			return fmt.Errorf("line %d: %s.%s %s", lineNo, section, key, err)
		}
	}

	return scanner.Err()
}

// resolveScalar trims whitespace and strips one layer of matching quotes so
// values like jwt.secret_key are never stored quoted.
func resolveScalar(s string) string {
	s = strings.TrimSpace(s)

	n := len(s)
	if n >= 2 && ((s[0] == '"' && s[n-1] == '"') || (s[0] == '\'' && s[n-1] == '\'')) {
		if unq, err := strconv.Unquote(s); err == nil {
			return unq
		}
		// single quotes and odd escapes fall back to a plain strip
		return s[1 : n-1]
	}
	return s
}
