package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/KaramelBytes/edareport/internal/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// Ingestion limits
	MaxRows    int `mapstructure:"max_rows" yaml:"max_rows"`
	MaxColumns int `mapstructure:"max_columns" yaml:"max_columns"`

	// Classification
	CategoryRatio    float64 `mapstructure:"category_ratio" yaml:"category_ratio"`
	MinCategoryLimit int     `mapstructure:"min_category_limit" yaml:"min_category_limit"`

	// Report and rendering
	PreviewRows   int    `mapstructure:"preview_rows" yaml:"preview_rows"`
	RenderWorkers int    `mapstructure:"render_workers" yaml:"render_workers"`
	OutputDir     string `mapstructure:"output_dir" yaml:"output_dir"`

	// Server
	ServerAddr string `mapstructure:"server_addr" yaml:"server_addr"`
	MaxRuns    int    `mapstructure:"max_runs" yaml:"max_runs"`

	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
}

// Keys lists the settable configuration keys in display order.
var Keys = []string{
	"max_rows", "max_columns", "category_ratio", "min_category_limit",
	"preview_rows", "render_workers", "output_dir", "server_addr", "max_runs", "log_level",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("max_rows", 1_000_000)
	v.SetDefault("max_columns", 500)
	v.SetDefault("category_ratio", 0.5)
	v.SetDefault("min_category_limit", 20)
	v.SetDefault("preview_rows", 5)
	v.SetDefault("render_workers", 4)
	v.SetDefault("output_dir", ".")
	v.SetDefault("server_addr", ":8080")
	v.SetDefault("max_runs", 32)
	v.SetDefault("log_level", "info")
}

// Default returns the built-in configuration.
func Default() *Global {
	v := viper.New()
	setDefaults(v)
	var c Global
	_ = v.Unmarshal(&c)
	return &c
}

// DefaultPath is ~/.edareport/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".edareport", "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.edareport/config.yaml, creating the directory if necessary.
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
// Precedence: env > config file > defaults. A .env file in the working
// directory is read first; variables already set win over it.
func Load(cfgFile string) (*Global, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("EDAREPORT")
	v.AutomaticEnv()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		v.AddConfigPath(filepath.Join(home, ".edareport"))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// optional read
		_ = v.ReadInConfig()
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

// Validate rejects values no stage can work with.
func (c *Global) Validate() error {
	switch {
	case c.MaxRows < 0:
		return fmt.Errorf("max_rows must be >= 0, got %d", c.MaxRows)
	case c.MaxColumns < 0:
		return fmt.Errorf("max_columns must be >= 0, got %d", c.MaxColumns)
	case c.CategoryRatio < 0 || c.CategoryRatio > 1:
		return fmt.Errorf("category_ratio must be within [0,1], got %g", c.CategoryRatio)
	case c.MinCategoryLimit < 0:
		return fmt.Errorf("min_category_limit must be >= 0, got %d", c.MinCategoryLimit)
	case c.PreviewRows < 0:
		return fmt.Errorf("preview_rows must be >= 0, got %d", c.PreviewRows)
	case c.RenderWorkers < 1:
		return fmt.Errorf("render_workers must be >= 1, got %d", c.RenderWorkers)
	case c.MaxRuns < 1:
		return fmt.Errorf("max_runs must be >= 1, got %d", c.MaxRuns)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Set assigns one key from its string form. c is unchanged when the result
// would be invalid.
func (c *Global) Set(key, val string) error {
	next := *c
	if err := next.set(key, val); err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

func (c *Global) set(key, val string) error {
	atoi := func() (int, error) {
		i, err := strconv.Atoi(val)
		if err != nil {
			return 0, fmt.Errorf("invalid int for %s: %v", key, val)
		}
		return i, nil
	}
	var err error
	switch key {
	case "max_rows":
		c.MaxRows, err = atoi()
	case "max_columns":
		c.MaxColumns, err = atoi()
	case "category_ratio":
		f, perr := strconv.ParseFloat(val, 64)
		if perr != nil {
			return fmt.Errorf("invalid float for category_ratio: %v", val)
		}
		c.CategoryRatio = f
	case "min_category_limit":
		c.MinCategoryLimit, err = atoi()
	case "preview_rows":
		c.PreviewRows, err = atoi()
	case "render_workers":
		c.RenderWorkers, err = atoi()
	case "output_dir":
		c.OutputDir = val
	case "server_addr":
		c.ServerAddr = val
	case "max_runs":
		c.MaxRuns, err = atoi()
	case "log_level":
		c.LogLevel = val
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return err
}

// Get returns one key in string form.
func (c *Global) Get(key string) (string, bool) {
	switch key {
	case "max_rows":
		return strconv.Itoa(c.MaxRows), true
	case "max_columns":
		return strconv.Itoa(c.MaxColumns), true
	case "category_ratio":
		return strconv.FormatFloat(c.CategoryRatio, 'g', -1, 64), true
	case "min_category_limit":
		return strconv.Itoa(c.MinCategoryLimit), true
	case "preview_rows":
		return strconv.Itoa(c.PreviewRows), true
	case "render_workers":
		return strconv.Itoa(c.RenderWorkers), true
	case "output_dir":
		return c.OutputDir, true
	case "server_addr":
		return c.ServerAddr, true
	case "max_runs":
		return strconv.Itoa(c.MaxRuns), true
	case "log_level":
		return c.LogLevel, true
	}
	return "", false
}
