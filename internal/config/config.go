// Package config provides configuration types and loading for csvinjector.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/upysusa/csvinjector/internal/database"
)

const (
	// FileName is the config file picked up from the working directory.
	FileName = "csvinjector.yaml"

	DefaultDriver         = "sqlserver"
	DefaultDatabase       = "Upysusa"
	DefaultCSVDir         = "./csvs"
	DefaultExtension      = ".csv"
	DefaultMinConfidence  = 10
	DefaultConnectTimeout = 30 * time.Second
)

// ErrConfigNotFound is returned when an explicitly requested config file
// does not exist.
var ErrConfigNotFound = errors.New("config file not found")

// Config holds all configuration options for csvinjector.
type Config struct {
	Driver         string        `yaml:"driver"`
	Server         string        `yaml:"server"`
	Port           int           `yaml:"port"`
	Database       string        `yaml:"database"`
	User           string        `yaml:"user"`
	Password       string        `yaml:"password"`
	DSN            string        `yaml:"dsn"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`

	CSVDir        string `yaml:"csv_dir"`
	Extension     string `yaml:"extension"`
	Delimiter     string `yaml:"delimiter"`
	PlanFile      string `yaml:"plan"`
	MinConfidence int    `yaml:"min_confidence"`
	BatchSize     int    `yaml:"batch_size"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	Progress  bool   `yaml:"progress"`

	// Report is an optional CSV/TSV summary path ("-" for stdout).
	Report string `yaml:"report"`
}

// Default returns the configuration used when nothing is overridden:
// a local SQL Server reached by hostname with trusted authentication.
func Default() *Config {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "localhost"
	}
	return &Config{
		Driver:         DefaultDriver,
		Server:         host,
		Database:       DefaultDatabase,
		ConnectTimeout: DefaultConnectTimeout,
		CSVDir:         DefaultCSVDir,
		Extension:      DefaultExtension,
		Delimiter:      "auto",
		MinConfidence:  DefaultMinConfidence,
		BatchSize:      database.BatchSize,
		LogLevel:       "info",
		LogFormat:      "text",
		Progress:       true,
	}
}

// LoadFile overlays the YAML file at path onto c. Keys absent from the file
// keep their current values.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

// ParseDelimiter converts a delimiter string to a rune.
// Valid values: "comma", "csv", "tab", "tsv", "semicolon", "pipe", "auto".
// Returns 0 for auto-detection.
func ParseDelimiter(delimiterStr string) (rune, error) {
	switch strings.ToLower(delimiterStr) {
	case "comma", "csv", ",":
		return ',', nil
	case "tab", "tsv", "\t":
		return '\t', nil
	case "semicolon", ";":
		return ';', nil
	case "pipe", "|":
		return '|', nil
	case "auto", "":
		return 0, nil
	default:
		return 0, fmt.Errorf("invalid delimiter: %s (use 'comma', 'tab', 'semicolon', 'pipe' or 'auto')", delimiterStr)
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	var errs []error

	if _, err := database.Lookup(c.Driver); err != nil {
		errs = append(errs, err)
	}
	if c.DSN == "" && strings.TrimSpace(c.Database) == "" {
		errs = append(errs, errors.New("database is required"))
	}
	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.MinConfidence < 0 || c.MinConfidence > 100 {
		errs = append(errs, fmt.Errorf("min_confidence %d out of range 0..100", c.MinConfidence))
	}
	if c.BatchSize < 1 {
		errs = append(errs, fmt.Errorf("batch_size must be at least 1, got %d", c.BatchSize))
	}
	if c.ConnectTimeout < 0 {
		errs = append(errs, fmt.Errorf("connect_timeout must not be negative"))
	}
	if c.CSVDir == "" {
		errs = append(errs, errors.New("csv_dir is required"))
	}
	if _, err := ParseDelimiter(c.Delimiter); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Target returns the connection settings for the database package.
func (c *Config) Target() database.Target {
	return database.Target{
		Driver:         c.Driver,
		Server:         c.Server,
		Port:           c.Port,
		Database:       c.Database,
		User:           c.User,
		Password:       c.Password,
		DSN:            c.DSN,
		ConnectTimeout: c.ConnectTimeout,
		AppName:        database.DefaultAppName,
	}
}
