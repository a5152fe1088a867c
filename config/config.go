// Package config provides YAML configuration parsing for BallotBoard.
//
// This package enables running BallotBoard as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
//
// Example configuration:
//
//	title: Summer Showdown
//	port: 8080
//	base_url: http://${BALLOT_HOST:-localhost}:8080
//	poll_interval: 500ms
//
//	options: [summer1, summer2]
//	command: curl -X POST -d '{"vote":"summer1"}' http://localhost:8080/api/votes
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultPort         = 8080
	defaultBaseURL      = "http://localhost:8080"
	defaultPollInterval = 500 * time.Millisecond
	defaultRows         = 2
)

// minPollInterval keeps a config from hammering the ballot server.
const minPollInterval = 100 * time.Millisecond

// Config is the root configuration structure for BallotBoard.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Title is the chart title. Defaults to "BallotBoard" if not set.
	Title string `yaml:"title"`

	// Port is the HTTP server port. Defaults to 8080.
	Port int `yaml:"port"`

	// BaseURL is the ballot server address. Defaults to http://localhost:8080.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	BaseURL string `yaml:"base_url"`

	// PollInterval is the time between poll starts. Defaults to 500ms.
	PollInterval Duration `yaml:"poll_interval"`

	// Timeout bounds each HTTP request. Zero means the SDK default (10s).
	Timeout Duration `yaml:"timeout"`

	// VotesPath is the votes endpoint path. Defaults to /api/votes.
	VotesPath string `yaml:"votes_path"`

	// SystemPath is the address endpoint path. Defaults to /api/system.
	SystemPath string `yaml:"system_path"`

	// VotesField locates the votes array in the body, in dot notation.
	// Defaults to "votes".
	VotesField string `yaml:"votes_field"`

	// Options declares the display rows.
	Options OptionsConfig `yaml:"options"`

	// Command is the vote command shown under the chart. Its first
	// "localhost" is replaced with the ballot server's address.
	Command string `yaml:"command"`

	// DiscardStale drops out-of-order snapshots instead of drawing the last
	// one to arrive.
	DiscardStale bool `yaml:"discard_stale"`

	// Headers are custom HTTP headers sent with each request.
	// Values support environment variable substitution.
	Headers map[string]string `yaml:"headers"`
}

// OptionsConfig declares the chart's rows.
//
// It supports two formats in YAML:
//
// A row count:
//
//	options: 3
//
// A list of labels, shown until the first poll:
//
//	options: [summer1, summer2]
type OptionsConfig struct {
	// Labels are the initial row labels. Empty when only Rows was given.
	Labels []string

	// Rows is the number of display rows.
	Rows int
}

// UnmarshalYAML implements yaml.Unmarshaler for OptionsConfig.
func (o *OptionsConfig) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var n int
		if err := node.Decode(&n); err != nil {
			return fmt.Errorf("options must be a row count or a list of labels: %w", err)
		}
		o.Rows = n
		return nil

	case yaml.SequenceNode:
		var labels []string
		if err := node.Decode(&labels); err != nil {
			return err
		}
		o.Labels = labels
		o.Rows = len(labels)
		return nil
	}

	return fmt.Errorf("options must be a row count or a list of labels, got %v", node.Kind)
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		varName := submatches[1]
		hasDefault := submatches[2] != ""

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return submatches[3]
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
//
// Environment variables in the file are expanded before parsing.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in BaseURL, Command and Header values.
// Defaults are applied for Port (8080), BaseURL, PollInterval (500ms) and
// Options (two rows).
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = Duration(defaultPollInterval)
	}
	if cfg.Options.Rows == 0 && cfg.Options.Labels == nil {
		cfg.Options.Rows = defaultRows
	}

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}

	if c.PollInterval.Duration() < minPollInterval {
		return fmt.Errorf("poll_interval must be at least %s, got %s", minPollInterval, c.PollInterval.Duration())
	}
	if c.Timeout.Duration() < 0 {
		return fmt.Errorf("timeout cannot be negative, got %s", c.Timeout.Duration())
	}

	expanded, err := expandEnvVars(c.BaseURL)
	if err != nil {
		return fmt.Errorf("base_url: %w", err)
	}
	c.BaseURL = expanded

	parsedURL, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base_url: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("base_url scheme must be http or https, got %q", parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("base_url must include a host, got %q", c.BaseURL)
	}

	if c.Command, err = expandEnvVars(c.Command); err != nil {
		return fmt.Errorf("command: %w", err)
	}

	for k, v := range c.Headers {
		if k == "" {
			return errors.New("headers: key cannot be empty")
		}
		expanded, err := expandEnvVars(v)
		if err != nil {
			return fmt.Errorf("headers[%s]: %w", k, err)
		}
		c.Headers[k] = expanded
	}

	if c.Options.Rows < 1 {
		return fmt.Errorf("options: at least one row is required, got %d", c.Options.Rows)
	}

	return nil
}
