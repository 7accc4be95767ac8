// Package config loads the function environment from defaults, an optional YAML file and environment variables.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/sirupsen/logrus"
)

// Env is the environment passed to every queue handler
type Env struct {
	Type              string `koanf:"env_type"`
	Region            string `koanf:"aws_region"`
	UsersTable        string `koanf:"users_table"`
	EmailAPIURL       string `koanf:"email_api_url"`
	EmailAPIKey       string `koanf:"email_api_key"`
	LogLevel          string `koanf:"log_level"`
	BatchItemFailures bool   `koanf:"batch_item_failures"`
}

// EnvType returns the deployment stage tag
func (e Env) EnvType() string {
	return e.Type
}

var defaults = map[string]interface{}{
	"log_level":           "info",
	"batch_item_failures": false,
}

// keys are the environment variables read, lowercased
var keys = map[string]bool{
	"env_type":            true,
	"aws_region":          true,
	"users_table":         true,
	"email_api_url":       true,
	"email_api_key":       true,
	"log_level":           true,
	"batch_item_failures": true,
}

// Load reads the configuration, using the YAML file named by CONFIG_FILE if set.
func Load() (Env, error) {
	return load(os.Getenv("CONFIG_FILE"))
}

func load(path string) (Env, error) {

	k := koanf.New(".")
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return Env{}, fmt.Errorf("failed to load defaults: %v", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Env{}, fmt.Errorf("failed to load config file: %v", err)
		}
	}

	// environment variables win, e.g. ENV_TYPE, USERS_TABLE
	err := k.Load(env.Provider("", ".", func(s string) string {
		s = strings.ToLower(s)
		if !keys[s] {
			return ""
		}
		return s
	}), nil)
	if err != nil {
		return Env{}, fmt.Errorf("failed to load environment: %v", err)
	}

	var e Env
	if err := k.Unmarshal("", &e); err != nil {
		return Env{}, fmt.Errorf("failed to unmarshal config: %v", err)
	}
	if err := e.Validate(); err != nil {
		return Env{}, err
	}
	return e, nil
}

// Validate checks the required values are present
func (e Env) Validate() error {
	if e.Type == "" {
		return fmt.Errorf("missing environment variable: ENV_TYPE")
	}
	if e.EmailAPIURL != "" {
		if _, err := url.ParseRequestURI(e.EmailAPIURL); err != nil {
			return fmt.Errorf("invalid email_api_url: %v", err)
		}
	}
	return nil
}

// ValidateHandlers checks the values the queue handlers need at runtime are present
func (e Env) ValidateHandlers() error {
	if err := e.Validate(); err != nil {
		return err
	}
	required := []struct{ name, value string }{
		{"USERS_TABLE", e.UsersTable},
		{"EMAIL_API_URL", e.EmailAPIURL},
		{"EMAIL_API_KEY", e.EmailAPIKey},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("missing environment variable: %v", r.name)
		}
	}
	return nil
}

// Logger returns a JSON logger at the configured level, falling back to info.
func (e Env) Logger() *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.JSONFormatter{})

	lvl, err := logrus.ParseLevel(e.LogLevel)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
	return l
}
