package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"bigfiles/internal/index"
	"bigfiles/internal/query"
	"bigfiles/internal/store"

	"github.com/goccy/go-yaml"
)

// DefaultFile is read from the working directory when --config is not given.
const DefaultFile = "bigfiles.yaml"

// DefaultPort is the HTTP front end's port.
const DefaultPort = 3030

// Config is the merged configuration of defaults, the YAML file and flags.
type Config struct {
	DB      string   `yaml:"db"`
	Driver  string   `yaml:"driver"`
	Limit   int      `yaml:"limit"`
	Prune   string   `yaml:"prune"`
	Exclude []string `yaml:"exclude"`
	Verbose bool     `yaml:"verbose"`
	Server  Server   `yaml:"server"`
}

// Server configures the HTTP front end.
type Server struct {
	Addr string `yaml:"addr"`
	Port int    `yaml:"port"`
	// Advertise overrides the discovered LAN address printed at startup.
	Advertise string `yaml:"advertise"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DB:     store.DefaultPath,
		Driver: store.DriverCGO,
		Limit:  query.DefaultLimit,
		Prune:  string(index.PruneKeep),
		Server: Server{
			Addr: "0.0.0.0",
			Port: DefaultPort,
		},
	}
}

// Load returns Default overlaid with the YAML file at path. A missing file
// is not an error when optional is true. The result is not validated, so
// flags can still override a bad value; call Validate once merged.
func Load(path string, optional bool) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges and enumerations.
func (c Config) Validate() error {
	if c.DB == "" {
		return errors.New("db path must not be empty")
	}
	if c.Driver != store.DriverCGO && c.Driver != store.DriverPureGo {
		return fmt.Errorf("unknown driver %q (want %s or %s)", c.Driver, store.DriverCGO, store.DriverPureGo)
	}
	if c.Limit < 0 {
		return fmt.Errorf("limit must not be negative, got %d", c.Limit)
	}
	if _, err := index.ParsePrunePolicy(c.Prune); err != nil {
		return err
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("port out of range: %d", c.Server.Port)
	}
	return nil
}
