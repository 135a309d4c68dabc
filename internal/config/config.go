// Package config resolves, parses, validates, and defaults lexi configuration.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Config is the runtime configuration. Display preferences live in the
// settings store, not here.
type Config struct {
	SpeechCmd   CommandConfig
	OCRLanguage string
	ExportDir   string
	LogLevel    string
}

// CommandConfig stores a raw command string and its parsed argv form.
type CommandConfig struct {
	Raw  string
	Argv []string
}

// Warning is a non-fatal config issue.
type Warning struct {
	Message string
}

// Loaded captures resolved config path, parsed values, and non-fatal warnings.
type Loaded struct {
	Path     string
	Config   Config
	Warnings []Warning
	Exists   bool
}

type fileConfig struct {
	SpeechCmd   *string `json:"speech_cmd"`
	OCRLanguage *string `json:"ocr_language"`
	ExportDir   *string `json:"export_dir"`
	LogLevel    *string `json:"log_level"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		OCRLanguage: "eng",
		ExportDir:   ".",
		LogLevel:    "info",
	}
}

// ResolvePath applies CLI/XDG/home fallback rules for config.json location.
func ResolvePath(explicit string) (string, error) {
	if strings.TrimSpace(explicit) != "" {
		return explicit, nil
	}
	if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdg != "" {
		return filepath.Join(xdg, "lexi", "config.json"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.New("unable to resolve user home for config fallback")
	}
	return filepath.Join(home, ".config", "lexi", "config.json"), nil
}

// Load resolves, reads, parses, and validates the runtime configuration.
func Load(explicitPath string) (Loaded, error) {
	resolvedPath, err := ResolvePath(explicitPath)
	if err != nil {
		return Loaded{}, err
	}

	content, err := os.ReadFile(resolvedPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Loaded{
				Path:   resolvedPath,
				Config: Default(),
				Warnings: []Warning{{
					Message: fmt.Sprintf("config file %q not found; using defaults", resolvedPath),
				}},
			}, nil
		}
		return Loaded{}, fmt.Errorf("read config %q: %w", resolvedPath, err)
	}

	cfg, warnings, err := Parse(content, Default())
	if err != nil {
		return Loaded{}, fmt.Errorf("parse config %q: %w", resolvedPath, err)
	}
	return Loaded{Path: resolvedPath, Config: cfg, Warnings: warnings, Exists: true}, nil
}

// Parse overlays a JSON config document onto base and validates the result.
// Unknown keys produce warnings.
func Parse(content []byte, base Config) (Config, []Warning, error) {
	var warnings []Warning
	if len(bytes.TrimSpace(content)) == 0 {
		return base, nil, nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(content, &raw); err != nil {
		return Config{}, nil, err
	}
	for key := range raw {
		switch key {
		case "speech_cmd", "ocr_language", "export_dir", "log_level":
		default:
			warnings = append(warnings, Warning{Message: fmt.Sprintf("unknown key %q ignored", key)})
		}
	}

	var fc fileConfig
	if err := json.Unmarshal(content, &fc); err != nil {
		return Config{}, nil, err
	}

	cfg := base
	if fc.SpeechCmd != nil {
		argv, err := ParseArgv(*fc.SpeechCmd)
		if err != nil {
			return Config{}, nil, fmt.Errorf("speech_cmd: %w", err)
		}
		cfg.SpeechCmd = CommandConfig{Raw: *fc.SpeechCmd, Argv: argv}
	}
	if fc.OCRLanguage != nil {
		cfg.OCRLanguage = strings.TrimSpace(*fc.OCRLanguage)
	}
	if fc.ExportDir != nil {
		cfg.ExportDir = strings.TrimSpace(*fc.ExportDir)
	}
	if fc.LogLevel != nil {
		cfg.LogLevel = strings.TrimSpace(*fc.LogLevel)
	}

	if err := Validate(cfg); err != nil {
		return Config{}, nil, err
	}
	return cfg, warnings, nil
}

// Validate enforces config invariants.
func Validate(cfg Config) error {
	if cfg.OCRLanguage == "" {
		return fmt.Errorf("ocr_language must not be empty")
	}
	for _, lang := range cfg.OCRLanguages() {
		if strings.ContainsAny(lang, " /\\") {
			return fmt.Errorf("ocr_language %q is not a tesseract language code", lang)
		}
	}
	if cfg.ExportDir == "" {
		return fmt.Errorf("export_dir must not be empty")
	}
	switch strings.ToLower(cfg.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log_level must be one of: debug, info, warn, error")
	}
	if cfg.SpeechCmd.Raw != "" && len(cfg.SpeechCmd.Argv) == 0 {
		return fmt.Errorf("speech_cmd is configured but empty")
	}
	if err := checkPlaceholders(cfg.SpeechCmd.Argv); err != nil {
		return fmt.Errorf("speech_cmd: %w", err)
	}
	return nil
}

// OCRLanguages splits OCRLanguage on '+' the way tesseract does.
func (c Config) OCRLanguages() []string {
	var out []string
	for _, l := range strings.Split(c.OCRLanguage, "+") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}
