// Copyright 2025 Alan Matykiewicz
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to use,
// copy, modify, merge, publish, distribute, sublicense, and/or sell copies of the
// Software, and to permit persons to whom the Software is furnished to do so,
// subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
// EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES
// OF MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND
// NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR COPYRIGHT
// HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY,
// WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING
// FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR
// OTHER DEALINGS IN THE SOFTWARE.

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/goccy/go-yaml"
)

const (
	ThrottleBackendProcess = "process"
	ThrottleBackendRedis   = "redis"

	EnvUsername = "COPYSCAPE_USERNAME"
	EnvAPIKey   = "COPYSCAPE_API_KEY"
	EnvEndpoint = "COPYSCAPE_ENDPOINT"
)

var (
	ErrMissingCredentials     = errors.New("username and api key are required")
	ErrInvalidThrottleBackend = errors.New("invalid throttle backend")
	ErrInvalidConcurrency     = errors.New("batch concurrency must be at least 1")
)

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Key      string `yaml:"key"`
}

type ThrottleConfig struct {
	Backend  string      `yaml:"backend"`
	Interval string      `yaml:"interval"`
	Redis    RedisConfig `yaml:"redis"`
}

type BatchConfig struct {
	Concurrency int `yaml:"concurrency"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type Config struct {
	Username  string `yaml:"username"`
	APIKey    string `yaml:"api_key"`
	Endpoint  string `yaml:"endpoint"`
	Timeout   string `yaml:"timeout"`
	UserAgent string `yaml:"user_agent"`

	// Path is the file the config was read from, empty when none was found.
	Path string `yaml:"-"`

	Throttle ThrottleConfig `yaml:"throttle"`
	Batch    BatchConfig    `yaml:"batch"`
	Log      LogConfig      `yaml:"log"`
}

func Default() Config {
	return Config{
		Endpoint: "https://www.copyscape.com/api/",
		Timeout:  "60s",
		Throttle: ThrottleConfig{
			Backend:  ThrottleBackendProcess,
			Interval: "1s",
			Redis: RedisConfig{
				Addr: "localhost:6379",
				Key:  "copyscape:throttle",
			},
		},
		Batch: BatchConfig{
			Concurrency: 4,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Read loads the config at path on top of the defaults. A missing file is
// not an error. Credentials and the endpoint can be overridden from the
// environment.
func Read(path string) (*Config, error) {
	conf := Default()

	file, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(file, &conf); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
		conf.Path = path
	}

	conf.applyEnv()

	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return &conf, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvUsername); v != "" {
		c.Username = v
	}
	if v := os.Getenv(EnvAPIKey); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv(EnvEndpoint); v != "" {
		c.Endpoint = v
	}
}

func (c Config) Validate() error {
	if c.Username == "" || c.APIKey == "" {
		return ErrMissingCredentials
	}

	switch c.Throttle.Backend {
	case ThrottleBackendProcess, ThrottleBackendRedis:
	default:
		return fmt.Errorf("%w: '%s'", ErrInvalidThrottleBackend, c.Throttle.Backend)
	}

	if c.Batch.Concurrency < 1 {
		return ErrInvalidConcurrency
	}

	if _, err := c.TimeoutDuration(); err != nil {
		return err
	}
	if _, err := c.ThrottleInterval(); err != nil {
		return err
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

func (c Config) TimeoutDuration() (time.Duration, error) {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout '%s': %w", c.Timeout, err)
	}
	return d, nil
}

func (c Config) ThrottleInterval() (time.Duration, error) {
	d, err := time.ParseDuration(c.Throttle.Interval)
	if err != nil {
		return 0, fmt.Errorf("invalid throttle interval '%s': %w", c.Throttle.Interval, err)
	}
	if d < time.Second {
		return 0, fmt.Errorf("throttle interval '%s' is below the service limit of 1s", c.Throttle.Interval)
	}
	return d, nil
}

func (c Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("invalid log level '%s': %w", c.Log.Level, err)
	}
	return level, nil
}
