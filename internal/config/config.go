/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package config loads the user configuration: a YAML file in the user's
// config directory, merged over Defaults and then overridden by ANV_*
// environment variables. The store password never touches the file; it is
// kept in the OS keyring.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"annotview/internal/annot"
)

type GeneralConfig struct {
	TelemetryOptIn    bool   `yaml:"telemetry_opt_in"`
	TelemetryEndpoint string `yaml:"telemetry_endpoint"`
	// User is the author name used for permission checks.
	User  string `yaml:"user"`
	Admin bool   `yaml:"admin"`
}

// OverlayConfig tunes the selection and measurement overlays.
type OverlayConfig struct {
	ConnectorDelayMs     int      `yaml:"connector_delay_ms"`
	PopupGap             float32  `yaml:"popup_gap"`
	LinkExcludedTools    []string `yaml:"link_excluded_tools"`
	CommentExcludedTools []string `yaml:"comment_excluded_tools"`
	// DisabledElements and DisabledActions hold UI element and action ids
	// that start out disabled.
	DisabledElements []string `yaml:"disabled_elements"`
	DisabledActions  []string `yaml:"disabled_actions"`
	// PluginFiles are Lua scripts registering custom measurement views.
	PluginFiles []string `yaml:"plugin_files"`
}

// ConnectorDelay returns the connector line delay as a duration.
func (o OverlayConfig) ConnectorDelay() time.Duration {
	if o.ConnectorDelayMs <= 0 {
		return time.Duration(Defaults().Overlay.ConnectorDelayMs) * time.Millisecond
	}
	return time.Duration(o.ConnectorDelayMs) * time.Millisecond
}

// StoreConfig selects where annotation documents are kept.
type StoreConfig struct {
	Driver string `yaml:"driver"` // "sqlite" | "postgres"
	Path   string `yaml:"path"`   // sqlite database file
	DSN    string `yaml:"dsn"`    // postgres URL without password
	// Password is read from the keyring, never from the file.
	Password string `yaml:"-"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

// AppConfig is the user-editable configuration. config_version is bumped
// when the structure changes incompatibly.
type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	General       GeneralConfig `yaml:"general"`
	Overlay       OverlayConfig `yaml:"overlay"`
	Store         StoreConfig   `yaml:"store"`
	Logging       LoggingConfig `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{TelemetryEndpoint: "https://telemetry.annotview.invalid/v1/events"},
		Overlay: OverlayConfig{
			ConnectorDelayMs:     300,
			PopupGap:             4,
			LinkExcludedTools:    annot.DefaultLinkExcludedTools(),
			CommentExcludedTools: annot.DefaultCommentExcludedTools(),
		},
		Store:   StoreConfig{Driver: "sqlite", Path: defaultStorePath()},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

// Env var names used as overrides.
const (
	EnvConfigFile        = "ANV_CONFIG"
	EnvTelemetryOptIn    = "ANV_TELEMETRY_OPT_IN"
	EnvTelemetryEndpoint = "ANV_TELEMETRY_ENDPOINT"
	EnvUser              = "ANV_USER"
	EnvConnectorDelayMs  = "ANV_CONNECTOR_DELAY_MS"
	EnvPlugins           = "ANV_PLUGINS"
	EnvStoreDriver       = "ANV_STORE_DRIVER"
	EnvStorePath         = "ANV_STORE_PATH"
	EnvStoreDSN          = "ANV_STORE_DSN"
	EnvStorePassword     = "ANV_STORE_PASSWORD"
	EnvLogLevel          = "ANV_LOG_LEVEL"
	EnvLogFormat         = "ANV_LOG_FORMAT"
	EnvLogSource         = "ANV_LOG_SOURCE"
	EnvLogFile           = "ANV_LOG_FILE"
)

// configDir returns the per-user application directory.
func configDir() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "AnnotView")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "AnnotView")
	default:
		if x := os.Getenv("XDG_CONFIG_HOME"); x != "" {
			base = filepath.Join(x, "annotview")
		} else {
			base = filepath.Join(os.Getenv("HOME"), ".config", "annotview")
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return base, nil
}

func defaultStorePath() string {
	dir, err := configDir()
	if err != nil {
		return "annotations.db"
	}
	return filepath.Join(dir, "annotations.db")
}

// ConfigPath returns the config file path; ANV_CONFIG takes precedence.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigFile)); p != "" {
		return p, nil
	}
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the user config file from ConfigPath.
func Load() (AppConfig, error) {
	path, err := ConfigPath()
	if err != nil {
		return Defaults(), err
	}
	return LoadFrom(path)
}

// LoadFrom reads path (a missing file is fine), merges it over the
// defaults, applies environment overrides and fetches the store password.
func LoadFrom(path string) (AppConfig, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
		mergeInto(&cfg, &fileCfg)
	case !errors.Is(err, os.ErrNotExist):
		return cfg, fmt.Errorf("read %s: %w", path, err)
	}
	applyEnvOverrides(&cfg)
	if cfg.Store.Password == "" && cfg.Store.Driver == "postgres" {
		if pw, err := StorePassword(cfg.Store); err == nil {
			cfg.Store.Password = pw
		}
	}
	return cfg, nil
}

// Save writes cfg to path and stores a non-empty store password in the keyring.
func Save(path string, cfg AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	if cfg.Store.Password != "" {
		return SetStorePassword(cfg.Store, cfg.Store.Password)
	}
	return nil
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	dst.General.TelemetryOptIn = src.General.TelemetryOptIn
	dst.General.Admin = src.General.Admin
	if s := strings.TrimSpace(src.General.TelemetryEndpoint); s != "" {
		dst.General.TelemetryEndpoint = s
	}
	if s := strings.TrimSpace(src.General.User); s != "" {
		dst.General.User = s
	}

	if src.Overlay.ConnectorDelayMs > 0 {
		dst.Overlay.ConnectorDelayMs = src.Overlay.ConnectorDelayMs
	}
	if src.Overlay.PopupGap > 0 {
		dst.Overlay.PopupGap = src.Overlay.PopupGap
	}
	// lists present in the file replace the defaults, even when empty
	if src.Overlay.LinkExcludedTools != nil {
		dst.Overlay.LinkExcludedTools = src.Overlay.LinkExcludedTools
	}
	if src.Overlay.CommentExcludedTools != nil {
		dst.Overlay.CommentExcludedTools = src.Overlay.CommentExcludedTools
	}
	if src.Overlay.DisabledElements != nil {
		dst.Overlay.DisabledElements = src.Overlay.DisabledElements
	}
	if src.Overlay.DisabledActions != nil {
		dst.Overlay.DisabledActions = src.Overlay.DisabledActions
	}
	if src.Overlay.PluginFiles != nil {
		dst.Overlay.PluginFiles = src.Overlay.PluginFiles
	}

	if s := strings.ToLower(strings.TrimSpace(src.Store.Driver)); s != "" {
		dst.Store.Driver = s
	}
	if s := strings.TrimSpace(src.Store.Path); s != "" {
		dst.Store.Path = s
	}
	if s := strings.TrimSpace(src.Store.DSN); s != "" {
		dst.Store.DSN = s
	}

	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvTelemetryOptIn)); v != "" {
		cfg.General.TelemetryOptIn = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvTelemetryEndpoint)); v != "" {
		cfg.General.TelemetryEndpoint = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvUser)); v != "" {
		cfg.General.User = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvConnectorDelayMs)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Overlay.ConnectorDelayMs = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvPlugins)); v != "" {
		var files []string
		for _, f := range strings.Split(v, string(os.PathListSeparator)) {
			if f = strings.TrimSpace(f); f != "" {
				files = append(files, f)
			}
		}
		cfg.Overlay.PluginFiles = files
	}
	if v := strings.TrimSpace(os.Getenv(EnvStoreDriver)); v != "" {
		cfg.Store.Driver = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvStorePath)); v != "" {
		cfg.Store.Path = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvStoreDSN)); v != "" {
		cfg.Store.DSN = v
	}
	if v := os.Getenv(EnvStorePassword); v != "" {
		cfg.Store.Password = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

var envByKey = map[string]string{
	"general.telemetry_opt_in":   EnvTelemetryOptIn,
	"general.telemetry_endpoint": EnvTelemetryEndpoint,
	"general.user":               EnvUser,
	"overlay.connector_delay_ms": EnvConnectorDelayMs,
	"overlay.plugin_files":       EnvPlugins,
	"store.driver":               EnvStoreDriver,
	"store.path":                 EnvStorePath,
	"store.dsn":                  EnvStoreDSN,
	"logging.level":              EnvLogLevel,
	"logging.format":             EnvLogFormat,
	"logging.source":             EnvLogSource,
	"logging.file":               EnvLogFile,
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	env, ok := envByKey[key]
	if !ok || os.Getenv(env) == "" {
		return "", false
	}
	return env, true
}
