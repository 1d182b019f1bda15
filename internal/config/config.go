// Package config loads the tcmdx configuration file and applies TCMDX_*
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/abhisek/tcmdx/internal/diagnosis"
	"github.com/abhisek/tcmdx/internal/extract"
	"github.com/abhisek/tcmdx/internal/llm"
	"github.com/abhisek/tcmdx/internal/reply"
	"github.com/abhisek/tcmdx/internal/session"
	"github.com/abhisek/tcmdx/internal/vision"
)

// Config is the full process configuration.
type Config struct {
	Server  ServerConfig         `yaml:"server"`
	Store   StoreConfig          `yaml:"store"`
	Rules   RulesConfig          `yaml:"rules"`
	Session session.MergeOptions `yaml:"session"`
	Extract extract.Config       `yaml:"extract"`
	Vision  vision.Config        `yaml:"vision"`
	Reply   reply.Config         `yaml:"reply"`
	LLM     llm.Config           `yaml:"llm"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// TurnTimeout bounds one /api/tcm_process request, LLM calls included.
	TurnTimeout time.Duration `yaml:"turn_timeout"`
}

// StoreConfig configures persistence. An empty Path resolves to the default
// data directory; Disabled turns the store off entirely.
type StoreConfig struct {
	Path     string `yaml:"path"`
	Disabled bool   `yaml:"disabled"`
}

// RulesConfig locates the knowledge base. An empty Path uses the embedded
// default.
type RulesConfig struct {
	Path string         `yaml:"path"`
	Axes diagnosis.Axes `yaml:"axes"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
			TurnTimeout:     90 * time.Second,
		},
		Rules:   RulesConfig{Axes: diagnosis.DefaultAxes()},
		Session: session.DefaultMergeOptions(),
		Extract: extract.DefaultConfig(),
		Vision:  vision.DefaultConfig(),
		Reply:   reply.DefaultConfig(),
		LLM:     llm.DefaultConfig(),
	}
}

// Load reads path over the defaults, then applies environment overrides.
// An empty path, or a path that does not exist, yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from TCMDX_* environment variables.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("TCMDX_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("TCMDX_DB"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("TCMDX_RULES"); v != "" {
		c.Rules.Path = v
	}
	if v := os.Getenv("TCMDX_VISION"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("TCMDX_VISION: %w", err)
		}
		c.Vision.Enabled = b
	}
	c.LLM.ApplyEnv()
	return nil
}

// ResolveLLM returns the LLM configuration to use. When the configured
// provider lacks credentials, well-known API key variables are probed.
func (c Config) ResolveLLM() (llm.Config, error) {
	err := c.LLM.Validate()
	if err == nil {
		return c.LLM, nil
	}
	discovered, ok := llm.DiscoverConfig()
	if !ok {
		return llm.Config{}, err
	}
	discovered.VisionModel = c.LLM.VisionModel
	discovered.Retry = c.LLM.Retry
	discovered.Timeout = c.LLM.Timeout
	return discovered, nil
}
