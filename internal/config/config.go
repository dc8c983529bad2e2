package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Global configuration structure.
type Global struct {
	GDPThreshold     float64 `mapstructure:"gdp_threshold" yaml:"gdp_threshold"`
	Delimiter        string  `mapstructure:"delimiter" yaml:"delimiter"`
	DecimalSeparator string  `mapstructure:"decimal_separator" yaml:"decimal_separator"`

	// Storage backend
	Store      string `mapstructure:"store" yaml:"store"`
	SQLitePath string `mapstructure:"sqlite_path" yaml:"sqlite_path"`

	DedupMerge bool `mapstructure:"dedup_merge" yaml:"dedup_merge"`

	// Output
	OutputFormat string `mapstructure:"output_format" yaml:"output_format"`
	OutputDir    string `mapstructure:"output_dir" yaml:"output_dir"`

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
}

// Keys lists the settable configuration keys in display order.
var Keys = []string{
	"gdp_threshold", "delimiter", "decimal_separator", "store", "sqlite_path",
	"dedup_merge", "output_format", "output_dir", "log_level", "log_format",
}

// Defaults returns the built-in configuration.
func Defaults() *Global {
	return &Global{
		GDPThreshold: 1500,
		Store:        StoreMemory,
		DedupMerge:   true,
		OutputFormat: "markdown",
		LogLevel:     "info",
		LogFormat:    "text",
	}
}

// DefaultPath returns ~/.lifeexp/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".lifeexp", "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.lifeexp/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. CLI flags are applied by the caller.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("LIFEEXP")
	v.AutomaticEnv()

	d := Defaults()
	v.SetDefault("gdp_threshold", d.GDPThreshold)
	v.SetDefault("delimiter", d.Delimiter)
	v.SetDefault("decimal_separator", d.DecimalSeparator)
	v.SetDefault("store", d.Store)
	v.SetDefault("sqlite_path", d.SQLitePath)
	v.SetDefault("dedup_merge", d.DedupMerge)
	v.SetDefault("output_format", d.OutputFormat)
	v.SetDefault("output_dir", d.OutputDir)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		v.AddConfigPath(filepath.Join(home, ".lifeexp"))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		// An explicit path that does not exist surfaces as fs.ErrNotExist.
		if !errors.As(err, &nf) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks enumerated and numeric settings.
func (c *Global) Validate() error {
	if c.GDPThreshold <= 0 {
		return fmt.Errorf("gdp_threshold must be > 0, got %v", c.GDPThreshold)
	}
	switch c.Store {
	case StoreMemory, StoreSQLite:
	default:
		return fmt.Errorf("store must be %q or %q, got %q", StoreMemory, StoreSQLite, c.Store)
	}
	switch c.OutputFormat {
	case "markdown", "csv", "xlsx", "json":
	default:
		return fmt.Errorf("output_format must be markdown, csv, xlsx or json, got %q", c.OutputFormat)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn or error, got %q", c.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("log_format must be text or json, got %q", c.LogFormat)
	}
	if _, err := c.DelimiterRune(); err != nil {
		return err
	}
	if _, err := c.DecimalRune(); err != nil {
		return err
	}
	return nil
}

// DelimiterRune returns the configured field delimiter, or 0 for auto.
// "tab" and "\t" both mean a tab.
func (c *Global) DelimiterRune() (rune, error) {
	switch c.Delimiter {
	case "":
		return 0, nil
	case "tab", `\t`, "\t":
		return '\t', nil
	}
	r := []rune(c.Delimiter)
	if len(r) != 1 {
		return 0, fmt.Errorf("delimiter must be a single character, got %q", c.Delimiter)
	}
	return r[0], nil
}

// DecimalRune returns the configured decimal separator, or 0 for auto.
func (c *Global) DecimalRune() (rune, error) {
	switch c.DecimalSeparator {
	case "":
		return 0, nil
	case ".", ",":
		return rune(c.DecimalSeparator[0]), nil
	}
	return 0, fmt.Errorf("decimal_separator must be '.' or ',', got %q", c.DecimalSeparator)
}

// Get returns the string form of a key's value.
func (c *Global) Get(key string) (string, error) {
	switch key {
	case "gdp_threshold":
		return strconv.FormatFloat(c.GDPThreshold, 'f', -1, 64), nil
	case "delimiter":
		return c.Delimiter, nil
	case "decimal_separator":
		return c.DecimalSeparator, nil
	case "store":
		return c.Store, nil
	case "sqlite_path":
		return c.SQLitePath, nil
	case "dedup_merge":
		return strconv.FormatBool(c.DedupMerge), nil
	case "output_format":
		return c.OutputFormat, nil
	case "output_dir":
		return c.OutputDir, nil
	case "log_level":
		return c.LogLevel, nil
	case "log_format":
		return c.LogFormat, nil
	}
	return "", fmt.Errorf("unknown key %q (valid: %s)", key, strings.Join(Keys, ", "))
}

// Set parses value into key and validates the result.
func (c *Global) Set(key, value string) error {
	next := *c
	switch key {
	case "gdp_threshold":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("gdp_threshold: %w", err)
		}
		next.GDPThreshold = f
	case "delimiter":
		next.Delimiter = value
	case "decimal_separator":
		next.DecimalSeparator = value
	case "store":
		next.Store = strings.ToLower(value)
	case "sqlite_path":
		next.SQLitePath = value
	case "dedup_merge":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("dedup_merge: %w", err)
		}
		next.DedupMerge = b
	case "output_format":
		next.OutputFormat = strings.ToLower(value)
	case "output_dir":
		next.OutputDir = value
	case "log_level":
		next.LogLevel = strings.ToLower(value)
	case "log_format":
		next.LogFormat = strings.ToLower(value)
	default:
		return fmt.Errorf("unknown key %q (valid: %s)", key, strings.Join(Keys, ", "))
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}
