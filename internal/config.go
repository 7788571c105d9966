package internal

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

// ThisPolicy selects the receiver a non-strict function sees when it is called
// with an undefined or null this.
type ThisPolicy int

const (
	// ThisGlobal substitutes the global object.
	ThisGlobal ThisPolicy = iota
	// ThisUndefined passes undefined through unchanged.
	ThisUndefined
)

var thisPolicyNames = map[string]ThisPolicy{
	"global":    ThisGlobal,
	"undefined": ThisUndefined,
}

// String returns the configuration name of the policy.
func (p ThisPolicy) String() string {
	switch p {
	case ThisGlobal:
		return "global"
	case ThisUndefined:
		return "undefined"
	}
	return fmt.Sprintf("ThisPolicy(%d)", int(p))
}

// UnmarshalYAML decodes a policy from its name.
func (p *ThisPolicy) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	v, ok := thisPolicyNames[strings.ToLower(s)]
	if !ok {
		return fmt.Errorf("unknown this policy %q", s)
	}
	*p = v
	return nil
}

// MarshalYAML encodes a policy as its name.
func (p ThisPolicy) MarshalYAML() (interface{}, error) {
	return p.String(), nil
}

// Config holds the tunable limits and policies of a VM.
type Config struct {
	// MaxCallDepth is the maximum number of nested calls before a call throws
	// a RangeError. Zero means no limit.
	MaxCallDepth int `yaml:"max_call_depth"`
	// ThisPolicy is the receiver substitution policy for non-strict calls.
	ThisPolicy ThisPolicy `yaml:"this_policy"`
	// InterruptEvery is the number of statements evaluated between checks of
	// the interrupt hook. Values below 1 mean every statement.
	InterruptEvery int `yaml:"interrupt_every"`
	// CollectThreshold, if positive, is the number of live objects above which
	// a cycle collection pass runs automatically at a safe point.
	CollectThreshold int `yaml:"collect_threshold"`
	// LogLevel is the minimum level of log records, one of debug, info, warn,
	// and error.
	LogLevel string `yaml:"log_level"`
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return Config{
		MaxCallDepth:   2000,
		ThisPolicy:     ThisGlobal,
		InterruptEvery: 1000,
		LogLevel:       "info",
	}
}

// ParseConfig decodes a YAML configuration. Fields absent from the document
// keep their default values. Unknown fields are an error.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("jsvm: parsing config: %w", err)
	}
	if _, err := ParseLevel(cfg.LogLevel); err != nil {
		return Config{}, err
	}
	if cfg.MaxCallDepth < 0 {
		return Config{}, fmt.Errorf("jsvm: max_call_depth must be non-negative, not %d", cfg.MaxCallDepth)
	}
	return cfg, nil
}

// LoadConfig reads and decodes a YAML configuration file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("jsvm: reading config: %w", err)
	}
	return ParseConfig(data)
}

// Marshal encodes the configuration as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// ParseLevel converts a level name to a slog level. The empty string is info.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("jsvm: unknown log level %q", s)
	}
	return l, nil
}
