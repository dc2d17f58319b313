// Package config provides configuration loading for designd.
//
// Configuration is read from a YAML file, overridden by environment
// variables, with hardcoded defaults underneath.
package config

import (
	"errors"
	"fmt"
)

// Config holds the complete designd configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	LLM      LLMConfig      `koanf:"llm"`
	Pipeline PipelineConfig `koanf:"pipeline"`
	ChatLog  ChatLogConfig  `koanf:"chatlog"`
	Toolset  ToolsetConfig  `koanf:"toolset"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            int      `koanf:"http_port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// LLMConfig holds the completion backend configuration.
type LLMConfig struct {
	APIKey  Secret `koanf:"api_key"`
	Model   string `koanf:"model"`
	BaseURL string `koanf:"base_url"`
}

// PipelineConfig holds orchestration settings.
type PipelineConfig struct {
	// Policy selects how the main pipeline propagates context:
	// "sequential" or "fanout".
	Policy        string `koanf:"policy"`
	MaxIterations int    `koanf:"max_iterations"`
	// RolesFile optionally points at a YAML file overriding role
	// instructions. The file is watched for changes at runtime.
	RolesFile string `koanf:"roles_file"`
}

// ChatLogConfig holds session chat log settings.
type ChatLogConfig struct {
	MaxEntries int    `koanf:"max_entries"`
	Dir        string `koanf:"dir"`
}

// ToolsetConfig holds the optional external tool endpoint. The toolset
// is wired into agents only when both URL and token are set.
type ToolsetConfig struct {
	URL   string `koanf:"url"`
	Token Secret `koanf:"token"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Validate validates the configuration.
//
// Returns an error if:
//   - Server port is not between 1 and 65535
//   - Shutdown timeout is not positive
//   - The LLM API key is missing
//   - The pipeline policy is unknown or max_iterations is negative
//   - The chat log cap is not positive
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}

	if !c.LLM.APIKey.IsSet() {
		return errors.New("llm api key is required (set llm.api_key or OPENAI_API_KEY)")
	}
	if c.LLM.Model == "" {
		return errors.New("llm model must not be empty")
	}

	switch c.Pipeline.Policy {
	case "sequential", "fanout":
	default:
		return fmt.Errorf("unknown pipeline policy: %q (must be sequential or fanout)", c.Pipeline.Policy)
	}
	if c.Pipeline.MaxIterations < 0 {
		return fmt.Errorf("max_iterations must not be negative: %d", c.Pipeline.MaxIterations)
	}

	if c.ChatLog.MaxEntries < 1 {
		return fmt.Errorf("chatlog max_entries must be positive: %d", c.ChatLog.MaxEntries)
	}
	if c.ChatLog.Dir == "" {
		return errors.New("chatlog dir must not be empty")
	}

	return nil
}
