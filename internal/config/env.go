package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment variable read by ApplyEnv.
const EnvPrefix = "CSVINJECTOR_"

// LookupFunc resolves an environment variable.
type LookupFunc func(key string) (string, bool)

// LoadDotEnv loads variables from the given .env files (".env" when none are
// given) without overriding variables already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overlays CSVINJECTOR_* variables onto c.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	strs := map[string]*string{
		"DRIVER":     &c.Driver,
		"SERVER":     &c.Server,
		"DATABASE":   &c.Database,
		"USER":       &c.User,
		"PASSWORD":   &c.Password,
		"DSN":        &c.DSN,
		"CSV_DIR":    &c.CSVDir,
		"EXTENSION":  &c.Extension,
		"DELIMITER":  &c.Delimiter,
		"PLAN":       &c.PlanFile,
		"LOG_LEVEL":  &c.LogLevel,
		"LOG_FORMAT": &c.LogFormat,
		"REPORT":     &c.Report,
	}
	for key, dst := range strs {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"PORT":           &c.Port,
		"MIN_CONFIDENCE": &c.MinConfidence,
		"BATCH_SIZE":     &c.BatchSize,
	}
	for key, dst := range ints {
		v, ok := lookup(EnvPrefix + key)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid value for %s%s=%q: %w", EnvPrefix, key, v, err)
		}
		*dst = n
	}

	if v, ok := lookup(EnvPrefix + "CONNECT_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid value for %sCONNECT_TIMEOUT=%q: %w", EnvPrefix, v, err)
		}
		c.ConnectTimeout = d
	}

	if v, ok := lookup(EnvPrefix + "PROGRESS"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid value for %sPROGRESS=%q: %w", EnvPrefix, v, err)
		}
		c.Progress = b
	}

	return nil
}
