// Package config loads the explorer configuration from YAML with environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-grc-explorer/pkg/filter"
	"github.com/dd0wney/cluso-grc-explorer/pkg/graph"
	"github.com/dd0wney/cluso-grc-explorer/pkg/validation"
	"github.com/dd0wney/cluso-grc-explorer/pkg/visibility"
)

// Chat provider names
const (
	ProviderAuto      = "auto"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderNone      = "none"
)

// MinSecretLength is the shortest accepted JWT signing secret
const MinSecretLength = 32

// Config is the complete explorer configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Graph    GraphConfig    `yaml:"graph"`
	Filters  FilterDefaults `yaml:"filters"`
	Sessions SessionConfig  `yaml:"sessions"`
	Chat     ChatConfig     `yaml:"chat"`
	Auth     AuthConfig     `yaml:"auth"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig configures the HTTP listener
type ServerConfig struct {
	Addr            string        `yaml:"addr" validate:"required"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	CORSOrigins     []string      `yaml:"cors_origins"`
	RateLimit       float64       `yaml:"rate_limit" validate:"gte=0"`
	RateBurst       int           `yaml:"rate_burst" validate:"gte=0"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes" validate:"gte=0"`
}

// GraphConfig configures where the graph comes from
type GraphConfig struct {
	Source        string        `yaml:"source" validate:"required"`
	Watch         bool          `yaml:"watch"`
	WatchDebounce time.Duration `yaml:"watch_debounce"`
	FocusDepth    int           `yaml:"focus_depth" validate:"min=1,max=16"`
}

// FilterDefaults is the filter state a new session starts with
type FilterDefaults struct {
	Predicates  []string `yaml:"predicates" validate:"dive,predicate"`
	Layout      string   `yaml:"layout" validate:"omitempty,layout"`
	ShowOrphans bool     `yaml:"show_orphans"`
	HideLabels  bool     `yaml:"hide_labels"`
}

// SessionConfig bounds the in-memory session store
type SessionConfig struct {
	Max     int           `yaml:"max" validate:"min=1"`
	IdleTTL time.Duration `yaml:"idle_ttl"`
}

// ChatConfig selects the assistant provider
type ChatConfig struct {
	Provider     string `yaml:"provider" validate:"oneof=auto anthropic gemini none"`
	Model        string `yaml:"model"`
	MaxTokens    int    `yaml:"max_tokens" validate:"min=1"`
	AnthropicKey string `yaml:"-"`
	GeminiKey    string `yaml:"-"`
}

// AuthConfig configures bearer-token authentication
type AuthConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Secret   string        `yaml:"secret"`
	TokenTTL time.Duration `yaml:"token_ttl"`
}

// LogConfig configures logging
type LogConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn warning error DEBUG INFO WARN WARNING ERROR"`
}

// Default returns the built-in configuration
func Default() *Config {
	preds := make([]string, 0, len(filter.DefaultPredicates))
	for _, p := range filter.DefaultPredicates {
		preds = append(preds, string(p))
	}
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RateLimit:       50,
			RateBurst:       100,
			MaxBodyBytes:    1 << 20,
		},
		Graph: GraphConfig{
			Source:        "file://data/graph.json",
			WatchDebounce: 500 * time.Millisecond,
			FocusDepth:    visibility.DefaultFocusDepth,
		},
		Filters: FilterDefaults{
			Predicates: preds,
			Layout:     string(filter.LayoutCose),
		},
		Sessions: SessionConfig{
			Max:     256,
			IdleTTL: 30 * time.Minute,
		},
		Chat: ChatConfig{
			Provider:  ProviderAuto,
			MaxTokens: 2048,
		},
		Auth: AuthConfig{
			TokenTTL: 24 * time.Hour,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads path over the defaults and applies environment overrides. An
// empty path or a missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	if port := os.Getenv("PORT"); port != "" {
		if _, err := strconv.Atoi(port); err != nil {
			return fmt.Errorf("invalid PORT %q: %w", port, err)
		}
		c.Server.Addr = ":" + port
	}
	if addr := os.Getenv("GRC_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if src := os.Getenv("GRC_GRAPH_SOURCE"); src != "" {
		c.Graph.Source = src
	}
	if depth := os.Getenv("GRC_FOCUS_DEPTH"); depth != "" {
		n, err := strconv.Atoi(depth)
		if err != nil {
			return fmt.Errorf("invalid GRC_FOCUS_DEPTH %q: %w", depth, err)
		}
		c.Graph.FocusDepth = n
	}
	if origins := os.Getenv("GRC_CORS_ORIGINS"); origins != "" {
		c.Server.CORSOrigins = strings.Split(origins, ",")
	}
	if secret := os.Getenv("GRC_JWT_SECRET"); secret != "" {
		c.Auth.Secret = secret
		c.Auth.Enabled = true
	}
	if p := os.Getenv("GRC_CHAT_PROVIDER"); p != "" {
		c.Chat.Provider = p
	}
	if m := os.Getenv("GRC_CHAT_MODEL"); m != "" {
		c.Chat.Model = m
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	c.Chat.AnthropicKey = os.Getenv("ANTHROPIC_API_KEY")
	c.Chat.GeminiKey = os.Getenv("GEMINI_API_KEY")
	return nil
}

// ChatProvider resolves "auto" to the first provider with a key
func (c *Config) ChatProvider() string {
	if c.Chat.Provider != ProviderAuto {
		return c.Chat.Provider
	}
	switch {
	case c.Chat.AnthropicKey != "":
		return ProviderAnthropic
	case c.Chat.GeminiKey != "":
		return ProviderGemini
	default:
		return ProviderNone
	}
}

// FilterState converts the configured defaults into a filter state
func (f FilterDefaults) FilterState() filter.State {
	s := filter.Default()
	s.Predicates = make(map[graph.Predicate]bool, len(f.Predicates))
	for _, p := range f.Predicates {
		s.Predicates[graph.Predicate(p)] = true
	}
	if l, err := filter.ParseLayout(f.Layout); err == nil {
		s.Layout = l
	}
	s.ShowOrphans = f.ShowOrphans
	s.ShowLabels = !f.HideLabels
	return s
}

// Validate checks struct tags and cross-field rules
func (c *Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return err
	}

	cv := validation.NewConfigValidator("Config")
	cv.When(c.Auth.Enabled, func(v *validation.ConfigValidator) {
		v.MinLength("Auth.Secret", c.Auth.Secret, MinSecretLength)
		v.MinDuration("Auth.TokenTTL", c.Auth.TokenTTL, time.Minute)
	})
	cv.When(c.Chat.Provider == ProviderAnthropic, func(v *validation.ConfigValidator) {
		v.Required("Chat.AnthropicKey", c.Chat.AnthropicKey)
	})
	cv.When(c.Chat.Provider == ProviderGemini, func(v *validation.ConfigValidator) {
		v.Required("Chat.GeminiKey", c.Chat.GeminiKey)
	})
	cv.When(c.Graph.Watch, func(v *validation.ConfigValidator) {
		v.MinDuration("Graph.WatchDebounce", c.Graph.WatchDebounce, 10*time.Millisecond)
	})
	cv.When(c.Sessions.IdleTTL != 0, func(v *validation.ConfigValidator) {
		v.MinDuration("Sessions.IdleTTL", c.Sessions.IdleTTL, time.Second)
	})
	return cv.Validate()
}

// Save writes the configuration as YAML. Secrets loaded from the
// environment are not written.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
