// Package config loads chick settings from a YAML file, a .env file and
// the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/chobyoungjae/chick/pkg/chick/merge"
	"github.com/chobyoungjae/chick/pkg/chick/sheet"
	"github.com/chobyoungjae/chick/pkg/chick/shipment"
)

// Config holds all chick configuration.
type Config struct {
	// Workbook is the .xlsx file operated on.
	Workbook string `yaml:"workbook"`
	// Sheet is the sheet name; empty selects the first sheet.
	Sheet string `yaml:"sheet"`
	// DataRange, e.g. D7:AH198, overrides the shipment data rows and
	// columns when set.
	DataRange string `yaml:"data_range,omitempty"`

	Merge    merge.Layout    `yaml:"merge"`
	Adjacent AdjacentConfig  `yaml:"adjacent"`
	Shipment shipment.Layout `yaml:"shipment"`
	Watch    WatchConfig     `yaml:"watch"`
	Logging  LoggingConfig   `yaml:"logging"`
}

// AdjacentConfig selects the column whose identical neighbours are merged
// for display.
type AdjacentConfig struct {
	Column   int `yaml:"column"`
	FirstRow int `yaml:"first_row"`
}

// WatchConfig configures the timer and file triggers.
type WatchConfig struct {
	// CheckInterval is how often the full reconciliation runs.
	CheckInterval string `yaml:"check_interval"`
	// WatchFile enables reconciliation when the workbook changes on disk.
	WatchFile bool `yaml:"watch_file"`
	// Debounce settles bursts of file events.
	Debounce string `yaml:"debounce"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level       string `yaml:"level"` // debug, info, warn, error
	Development bool   `yaml:"development"`
}

// DefaultConfig returns the configuration of the daily order sheet.
func DefaultConfig() *Config {
	return &Config{
		Merge: merge.DefaultLayout(),
		Adjacent: AdjacentConfig{
			Column:   1,
			FirstRow: 2,
		},
		Shipment: shipment.DefaultLayout(),
		Watch: WatchConfig{
			CheckInterval: "1m",
			WatchFile:     true,
			Debounce:      "500ms",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from path. A missing file yields the defaults.
// Variables from a .env file in the working directory are loaded first;
// environment variables override file values.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()
	if err := cfg.applyDataRange(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("CHICK_WORKBOOK"); v != "" {
		c.Workbook = v
	}
	if v := os.Getenv("CHICK_SHEET"); v != "" {
		c.Sheet = v
	}
	if v := os.Getenv("CHICK_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("CHICK_COMPLETED_MARKER"); v != "" {
		c.Shipment.CompletedMarker = v
	}
	if v := os.Getenv("CHICK_CHECK_INTERVAL"); v != "" {
		c.Watch.CheckInterval = v
	}
	if v := os.Getenv("CHICK_DATA_RANGE"); v != "" {
		c.DataRange = v
	}
}

func (c *Config) applyDataRange() error {
	if c.DataRange == "" {
		return nil
	}
	sheetName, r, err := sheet.ParseRange(c.DataRange)
	if err != nil {
		return fmt.Errorf("data_range: %w", err)
	}
	if sheetName != "" && c.Sheet == "" {
		c.Sheet = sheetName
	}
	c.Shipment.DataStartRow, c.Shipment.DataEndRow = r.R1, r.R2
	c.Shipment.DataStartColumn, c.Shipment.DataEndColumn = r.C1, r.C2
	return nil
}

// CheckInterval returns the timer interval.
func (c *Config) CheckInterval() time.Duration {
	return parseDuration(c.Watch.CheckInterval, time.Minute)
}

// Debounce returns the file event debounce.
func (c *Config) Debounce() time.Duration {
	return parseDuration(c.Watch.Debounce, 500*time.Millisecond)
}

// Validate checks that the layouts are usable.
func (c *Config) Validate() error {
	var errs []error
	s := c.Shipment
	if s.DataStartColumn < 1 || s.DataEndColumn < s.DataStartColumn {
		errs = append(errs, fmt.Errorf("shipment: invalid data columns %d..%d", s.DataStartColumn, s.DataEndColumn))
	}
	if s.DataStartRow < 1 || s.DataEndRow < s.DataStartRow {
		errs = append(errs, fmt.Errorf("shipment: invalid data rows %d..%d", s.DataStartRow, s.DataEndRow))
	}
	if s.HeaderRow < 1 || s.OrderColumn < 1 || s.LedgerColumn < 1 || s.LedgerStartRow < 1 {
		errs = append(errs, errors.New("shipment: header row, order column and ledger position must be positive"))
	}
	if s.CompletedMarker == "" {
		errs = append(errs, errors.New("shipment: completed marker must not be empty"))
	}
	m := c.Merge
	if m.HeaderRow < 1 || m.DataStartRow < 1 || m.KeyColumn < 1 || m.ValueStartColumn < 1 {
		errs = append(errs, errors.New("merge: rows and columns must be positive"))
	}
	if m.EndMarker == "" && m.ValueEndColumn < 1 {
		errs = append(errs, errors.New("merge: either end_marker or value_end_column is required"))
	}
	if c.Adjacent.Column < 1 || c.Adjacent.FirstRow < 1 {
		errs = append(errs, errors.New("adjacent: column and first_row must be positive"))
	}
	if _, err := time.ParseDuration(c.Watch.CheckInterval); err != nil || c.CheckInterval() <= 0 {
		errs = append(errs, fmt.Errorf("watch: invalid check_interval %q", c.Watch.CheckInterval))
	}
	if d, err := time.ParseDuration(c.Watch.Debounce); err != nil || d <= 0 {
		errs = append(errs, fmt.Errorf("watch: invalid debounce %q", c.Watch.Debounce))
	}
	return errors.Join(errs...)
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
