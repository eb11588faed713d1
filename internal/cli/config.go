// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Config command implementation for draftpad.
//
// Command: config [show|set|reset|path]
// Short:   Inspect or change configuration
// Aliases: (none)
//
// Examples:
//   draftpad config                        Show current configuration
//   draftpad config set server.port 9000   Set a value (dot notation)
//   draftpad config set backend.model llama3.2:1b
//   draftpad config path                   Print the config file path
//   draftpad config reset                  Restore defaults
//
// Changes are written to ~/.draftpad/config.toml. A running server picks
// up backend changes through its config watcher without a restart.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/jeranaias/draftpad/internal/config"
)

// =============================================================================
// CONFIG ACCESS WRAPPERS
// =============================================================================

// Config is an alias for the canonical configuration type.
type Config = config.Config

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return config.Default()
}

// ConfigPath returns the path to the config file.
func ConfigPath() string {
	path, err := config.ConfigPathTOML()
	if err != nil {
		return ""
	}
	return path
}

// LoadConfig loads the configuration from the config file.
// Returns default config if the file doesn't exist.
func LoadConfig() (*Config, error) {
	return config.Load()
}

// SaveConfig saves the configuration to the config file.
func SaveConfig(cfg *Config) error {
	return config.Save(cfg)
}

// =============================================================================
// HANDLE CONFIG
// =============================================================================

// HandleConfig handles the "config" command.
func HandleConfig(args Args) error {
	switch args.Subcommand {
	case "", "show":
		if args.JSON {
			return handleConfigShowJSON()
		}
		return handleConfigShow()

	case "set":
		return handleConfigSet(args.ConfigKey, args.ConfigVal)

	case "reset":
		return handleConfigReset()

	case "path":
		if args.JSON {
			return handleConfigPathJSON()
		}
		return handleConfigPath()

	default:
		return fmt.Errorf("unknown config subcommand: %s (expected show, set, reset, or path)", args.Subcommand)
	}
}

// handleConfigShowJSON outputs configuration in JSON format.
func handleConfigShowJSON() error {
	cfg, err := LoadConfig()
	if err != nil {
		cfg = DefaultConfig()
	}

	data := ConfigData{
		DefaultModel: cfg.DefaultModel,
		Server: ConfigServerInfo{
			Port:           cfg.Server.Port,
			RateLimitRPS:   cfg.Server.RateLimitRPS,
			RateLimitBurst: cfg.Server.RateLimitBurst,
		},
		Backend: ConfigBackendInfo{
			URL:   cfg.Backend.URL,
			Model: cfg.Backend.Model,
		},
		UI: ConfigUIInfo{
			Theme:          cfg.UI.Theme,
			RenderMarkdown: cfg.UI.RenderMarkdown,
			ShowStats:      cfg.UI.ShowStats,
		},
		Path: ConfigPath(),
	}

	return NewJSONResponse("config show", data).Print()
}

// handleConfigPathJSON outputs the config path in JSON format.
func handleConfigPathJSON() error {
	path := ConfigPath()
	_, err := os.Stat(path)
	exists := !os.IsNotExist(err)

	data := map[string]interface{}{
		"path":   path,
		"exists": exists,
	}

	return NewJSONResponse("config path", data).Print()
}

// handleConfigShow displays the current configuration, section by section
// in the layout of the TOML file itself.
func handleConfigShow() error {
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %s (using defaults)\n", err)
		cfg = DefaultConfig()
	}

	fmt.Println()
	fmt.Println(TitleStyle.Render("draftpad Configuration"))
	fmt.Println(RenderSeparator())
	fmt.Println()

	fmt.Println(SectionStyle.Render("[general]"))
	printConfigEntry("default_model:", cfg.DefaultModel)
	fmt.Println()

	fmt.Println(SectionStyle.Render("[server]"))
	printConfigEntry("port:", fmt.Sprintf("%d", cfg.Server.Port))
	printConfigEntry("rate_limit_rps:", fmt.Sprintf("%g", cfg.Server.RateLimitRPS))
	printConfigEntry("rate_limit_burst:", fmt.Sprintf("%d", cfg.Server.RateLimitBurst))
	fmt.Println()

	fmt.Println(SectionStyle.Render("[backend]"))
	printConfigEntry("url:", cfg.Backend.URL)
	model := cfg.Backend.Model
	if model == "" {
		model = fmt.Sprintf("(default_model: %s)", cfg.DefaultModel)
	}
	printConfigEntry("model:", model)
	fmt.Println()

	fmt.Println(SectionStyle.Render("[ui]"))
	printConfigEntry("theme:", cfg.UI.Theme)
	printConfigEntry("render_markdown:", fmt.Sprintf("%t", cfg.UI.RenderMarkdown))
	printConfigEntry("show_stats:", fmt.Sprintf("%t", cfg.UI.ShowStats))
	fmt.Println()

	fmt.Println(SeparatorStyle.Render(strings.Repeat("-", 41)))
	fmt.Printf("Config file: %s\n", DimStyle.Render(ConfigPath()))
	fmt.Println()

	return nil
}

// printConfigEntry prints one aligned key/value line.
func printConfigEntry(key, value string) {
	fmt.Printf("  %s %s\n", LabelStyle.Render(key), ValueStyle.Render(value))
}

// handleConfigSet sets a configuration value.
func handleConfigSet(key, value string) error {
	if key == "" {
		return fmt.Errorf("no config key provided\nUsage: draftpad config set <key> <value>")
	}
	if value == "" {
		return fmt.Errorf("no config value provided\nUsage: draftpad config set %s <value>", key)
	}

	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %s (using defaults)\n", err)
		cfg = DefaultConfig()
	}

	key = strings.ToLower(strings.TrimSpace(key))

	// Dot-notation path first; it covers every key the config knows.
	setErr := cfg.Set(key, value)
	if setErr == nil {
		if validateErr := cfg.Validate(); validateErr != nil {
			return fmt.Errorf("invalid configuration value: %w", validateErr)
		}
		if saveErr := SaveConfig(cfg); saveErr != nil {
			return fmt.Errorf("failed to save config: %w", saveErr)
		}
		fmt.Printf("%s %s = %s\n", SuccessStyle.Render("[OK]"), key, value)
		return nil
	}
	if !strings.Contains(setErr.Error(), "unknown field") {
		// The key resolved but the value didn't parse.
		return fmt.Errorf("invalid value for %s: %w", key, setErr)
	}

	// Shorthand fallbacks for the names people actually type.
	switch key {
	case "model":
		cfg.Backend.Model = value

	case "port":
		var port int
		if _, err := fmt.Sscanf(value, "%d", &port); err != nil {
			return fmt.Errorf("invalid port: %s (must be an integer)", value)
		}
		cfg.Server.Port = port

	case "backend", "url":
		cfg.Backend.URL = value

	case "theme":
		cfg.UI.Theme = strings.ToLower(value)

	case "markdown":
		cfg.UI.RenderMarkdown = parseBool(value)

	case "stats":
		cfg.UI.ShowStats = parseBool(value)

	default:
		return fmt.Errorf("unknown config key: %s\n\nValid keys:\n  %s",
			key, strings.Join(config.GetAllKeys(), "\n  "))
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration value: %w", err)
	}
	if err := SaveConfig(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Printf("%s %s = %s\n", SuccessStyle.Render("[OK]"), key, value)
	return nil
}

// handleConfigReset resets configuration to defaults.
func handleConfigReset() error {
	cfg := DefaultConfig()

	if err := SaveConfig(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Printf("%s Configuration reset to defaults\n", SuccessStyle.Render("[OK]"))
	fmt.Printf("Config file: %s\n", DimStyle.Render(ConfigPath()))

	return nil
}

// handleConfigPath shows the config file path.
func handleConfigPath() error {
	path := ConfigPath()
	fmt.Println(path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "%s (file does not exist - will be created on first use)\n",
			DimStyle.Render("Note"))
	}

	return nil
}

// parseBool parses a boolean string value leniently.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}
