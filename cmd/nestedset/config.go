package main

import (
	"bytes"
	"database/sql"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/quintans/faults"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDriver = "sqlite"
	DefaultDSN    = "nestedset.db"
	DefaultTable  = "CATEGORY"
)

// ColumnsConfig names the columns of the tree table
type ColumnsConfig struct {
	ID    *string `yaml:"id,omitempty"`
	Scope *string `yaml:"scope,omitempty"`
	Left  *string `yaml:"left,omitempty"`
	Right *string `yaml:"right,omitempty"`
	Level *string `yaml:"level,omitempty"`
	Name  *string `yaml:"name,omitempty"`
}

// Config is read from the yaml file. Every field is optional.
type Config struct {
	DriverStr    *string        `yaml:"driver,omitempty"`
	DSNStr       *string        `yaml:"dsn,omitempty"`
	IsolationStr *string        `yaml:"isolation,omitempty"`
	TableStr     *string        `yaml:"table,omitempty"`
	Columns      *ColumnsConfig `yaml:"columns,omitempty"`
}

func NewConfig(data []byte) (*Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, faults.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// ConfigFromFile loads the configuration. An empty path gives the defaults.
func ConfigFromFile(path string) (*Config, error) {
	if path == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, faults.Wrap(err)
	}
	return NewConfig(data)
}

func str(s *string, def string) string {
	if s == nil || *s == "" {
		return def
	}
	return *s
}

func (cfg *Config) Driver() string {
	return str(cfg.DriverStr, DefaultDriver)
}

func (cfg *Config) DSN() string {
	return str(cfg.DSNStr, DefaultDSN)
}

func (cfg *Config) Table() string {
	return str(cfg.TableStr, DefaultTable)
}

func (cfg *Config) columns() ColumnsConfig {
	if cfg.Columns == nil {
		return ColumnsConfig{}
	}
	return *cfg.Columns
}

func (cfg *Config) IDColumn() string {
	return str(cfg.columns().ID, "ID")
}

func (cfg *Config) ScopeColumn() string {
	return str(cfg.columns().Scope, "TREE_SCOPE")
}

func (cfg *Config) LeftColumn() string {
	return str(cfg.columns().Left, "LFT")
}

func (cfg *Config) RightColumn() string {
	return str(cfg.columns().Right, "RGT")
}

func (cfg *Config) LevelColumn() string {
	return str(cfg.columns().Level, "LVL")
}

func (cfg *Config) NameColumn() string {
	return str(cfg.columns().Name, "NAME")
}

// Isolation is the isolation level of the tree mutations.
// Servers default to serializable. The embedded and Firebird drivers keep their default.
func (cfg *Config) Isolation() (sql.IsolationLevel, error) {
	def := "default"
	switch cfg.Driver() {
	case "mysql", "postgres":
		def = "serializable"
	}

	switch s := strings.ToLower(str(cfg.IsolationStr, def)); s {
	case "default":
		return sql.LevelDefault, nil
	case "read-committed":
		return sql.LevelReadCommitted, nil
	case "repeatable-read":
		return sql.LevelRepeatableRead, nil
	case "serializable":
		return sql.LevelSerializable, nil
	default:
		return sql.LevelDefault, faults.Errorf("unknown isolation level %q", s)
	}
}
