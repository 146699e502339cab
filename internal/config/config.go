// Package config handles application configuration
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"notecraft/internal/actions"
	"notecraft/internal/dateexpr"
	"notecraft/internal/markdown"
	"notecraft/internal/notification"
	"notecraft/internal/views"
)

//go:embed config.sample.yaml
var sampleConfig string

// GetSampleConfig returns the embedded sample configuration content
func GetSampleConfig() string {
	return sampleConfig
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Verbose bool `yaml:"verbose"`
}

// RemindersConfig selects where due reminders are delivered
type RemindersConfig struct {
	OSNotification bool   `yaml:"os_notification"`
	LogFile        string `yaml:"log_file"`
}

// Config represents the application configuration
type Config struct {
	// DoneSymbol is nil when unset so that an explicit "" can disable it.
	DoneSymbol                *string         `yaml:"done_symbol"`
	TabSize                   int             `yaml:"tab_size"`
	CompletionDateIncludeTime bool            `yaml:"completion_date_include_time"`
	CreationDateIncludeTime   bool            `yaml:"creation_date_include_time"`
	DurationIncludeSeconds    bool            `yaml:"duration_include_seconds"`
	AddCreationDate           bool            `yaml:"add_creation_date"`
	SetDueDateThisWeekDay     string          `yaml:"set_due_date_this_week_day"`
	SetDueDateNextWeekDay     string          `yaml:"set_due_date_next_week_day"`
	DefaultFile               string          `yaml:"default_file"`
	DefaultArchiveFile        string          `yaml:"default_archive_file"`
	StateDB                   string          `yaml:"state_db"`
	ViewsDir                  string          `yaml:"views_dir"`
	DefaultView               string          `yaml:"default_view"`
	SortTagsView              string          `yaml:"sort_tags_view"`
	OutputFormat              string          `yaml:"output_format"`
	Reminders                 RemindersConfig `yaml:"reminders"`
	Logging                   LoggingConfig   `yaml:"logging"`
}

const (
	defaultDoneSymbol  = "x "
	defaultTabSize     = 4
	defaultThisWeekDay = "Friday"
	defaultNextWeekDay = "Monday"
)

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	symbol := defaultDoneSymbol
	return &Config{
		DoneSymbol:            &symbol,
		TabSize:               defaultTabSize,
		SetDueDateThisWeekDay: defaultThisWeekDay,
		SetDueDateNextWeekDay: defaultNextWeekDay,
		StateDB:               filepath.Join(GetDataDir(), "state.db"),
		ViewsDir:              filepath.Join(GetConfigDir(), "views"),
		SortTagsView:          views.SortAlphabetic,
		OutputFormat:          "text",
	}
}

// Load loads configuration from the specified path, or the default XDG path if empty.
// If the config file doesn't exist, it creates one from the sample.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = filepath.Join(GetConfigDir(), "config.yaml")
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML and fills unset fields with defaults.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML in config file: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.DoneSymbol == nil {
		c.DoneSymbol = d.DoneSymbol
	}
	if c.TabSize == 0 {
		c.TabSize = d.TabSize
	}
	if c.SetDueDateThisWeekDay == "" {
		c.SetDueDateThisWeekDay = d.SetDueDateThisWeekDay
	}
	if c.SetDueDateNextWeekDay == "" {
		c.SetDueDateNextWeekDay = d.SetDueDateNextWeekDay
	}
	if c.StateDB == "" {
		c.StateDB = d.StateDB
	}
	if c.ViewsDir == "" {
		c.ViewsDir = d.ViewsDir
	}
	if c.SortTagsView == "" {
		c.SortTagsView = d.SortTagsView
	}
	if c.OutputFormat == "" {
		c.OutputFormat = d.OutputFormat
	}
	c.DefaultFile = ExpandPath(c.DefaultFile)
	c.DefaultArchiveFile = ExpandPath(c.DefaultArchiveFile)
	c.StateDB = ExpandPath(c.StateDB)
	c.ViewsDir = ExpandPath(c.ViewsDir)
	c.Reminders.LogFile = ExpandPath(c.Reminders.LogFile)
}

// save writes the embedded sample configuration to path
func save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.TabSize < 0 {
		return fmt.Errorf("invalid tab_size: %d (must not be negative)", c.TabSize)
	}
	if _, ok := dateexpr.ParseWeekday(c.SetDueDateThisWeekDay); !ok {
		return fmt.Errorf("invalid set_due_date_this_week_day: %q", c.SetDueDateThisWeekDay)
	}
	if _, ok := dateexpr.ParseWeekday(c.SetDueDateNextWeekDay); !ok {
		return fmt.Errorf("invalid set_due_date_next_week_day: %q", c.SetDueDateNextWeekDay)
	}
	if c.SortTagsView != views.SortAlphabetic && c.SortTagsView != views.SortCount {
		return fmt.Errorf("invalid sort_tags_view: %q (must be '%s' or '%s')", c.SortTagsView, views.SortAlphabetic, views.SortCount)
	}
	if c.OutputFormat != "text" && c.OutputFormat != "json" {
		return fmt.Errorf("invalid output_format: %q (must be 'text' or 'json')", c.OutputFormat)
	}
	if c.DefaultView != "" {
		if err := views.ValidateViewName(c.DefaultView); err != nil {
			return fmt.Errorf("invalid default_view: %w", err)
		}
	}
	return nil
}

// ApplyFlags applies CLI flag overrides to the configuration
func (c *Config) ApplyFlags(verbose bool, outputFormat string) {
	if verbose {
		c.Logging.Verbose = true
	}
	if outputFormat != "" {
		c.OutputFormat = outputFormat
	}
}

// GetDoneSymbol returns the configured done symbol.
func (c *Config) GetDoneSymbol() string {
	if c.DoneSymbol == nil {
		return defaultDoneSymbol
	}
	return *c.DoneSymbol
}

// DueOptions returns the weekdays used for "this week" and "next week".
// Invalid names fall back to the defaults; Validate reports them.
func (c *Config) DueOptions() dateexpr.Options {
	opts := dateexpr.DefaultOptions()
	if wd, ok := dateexpr.ParseWeekday(c.SetDueDateThisWeekDay); ok {
		opts.ThisWeekDay = wd
	}
	if wd, ok := dateexpr.ParseWeekday(c.SetDueDateNextWeekDay); ok {
		opts.NextWeekDay = wd
	}
	return opts
}

// ParseOptions returns the parser settings.
func (c *Config) ParseOptions(now time.Time) markdown.Options {
	return markdown.Options{
		DoneSymbol: c.GetDoneSymbol(),
		TabSize:    c.TabSize,
		Now:        now,
		Due:        c.DueOptions(),
	}
}

// ActionSettings returns the settings of the task actions.
func (c *Config) ActionSettings(now func() time.Time) actions.Settings {
	return actions.Settings{
		CompletionDateIncludeTime: c.CompletionDateIncludeTime,
		CreationDateIncludeTime:   c.CreationDateIncludeTime,
		DurationIncludeSeconds:    c.DurationIncludeSeconds,
		AddCreationDate:           c.AddCreationDate,
		ArchiveFile:               c.DefaultArchiveFile,
		Now:                       now,
	}
}

// NotificationConfig returns the channels reminders are delivered to.
func (c *Config) NotificationConfig() notification.Config {
	return notification.Config{
		Desktop: c.Reminders.OSNotification,
		LogFile: c.Reminders.LogFile,
	}
}

// getXDGDir returns a directory path following XDG spec.
// envVar is the XDG environment variable (e.g., "XDG_CONFIG_HOME").
// fallbackPath is the relative path from home (e.g., ".config").
func getXDGDir(envVar, fallbackPath string) string {
	if xdgDir := os.Getenv(envVar); xdgDir != "" {
		return filepath.Join(xdgDir, "notecraft")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", fallbackPath, "notecraft")
	}
	return filepath.Join(home, fallbackPath, "notecraft")
}

// GetConfigDir returns the configuration directory following XDG spec
func GetConfigDir() string {
	return getXDGDir("XDG_CONFIG_HOME", ".config")
}

// GetDataDir returns the data directory following XDG spec
func GetDataDir() string {
	return getXDGDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

// ExpandPath expands ~ and environment variables in a path
func ExpandPath(path string) string {
	if path == "" {
		return path
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
	}
	return os.ExpandEnv(path)
}
