package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the process configuration, read from HIDESEEK_* variables
type Config struct {
	Addr          string  `env:"ADDR" envDefault:":10000"`
	AllowedOrigin string  `env:"ALLOWED_ORIGIN" envDefault:"*"`
	PublicURL     string  `env:"PUBLIC_URL"`
	LogFile       string  `env:"LOG_FILE"`
	LogLevel      string  `env:"LOG_LEVEL" envDefault:"info"`
	DBPath        string  `env:"DB_PATH"`
	MapFile       string  `env:"MAP_FILE"`
	TileSize      float64 `env:"TILE_SIZE" envDefault:"40"`
	Seed          int64   `env:"SEED"`

	Rules Rules
}

const envPrefix = "HIDESEEK_"

// LoadConfig reads an optional .env file, the environment, then flags
func LoadConfig(args []string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: envPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	fl := flag.NewFlagSet("hideseek-server", flag.ContinueOnError)
	addr := fl.String("addr", cfg.Addr, "HTTP listen address")
	mapFile := fl.String("map", cfg.MapFile, "Path to a tile map file (default: built-in map)")
	if err := fl.Parse(args); err != nil {
		return Config{}, err
	}
	cfg.Addr = *addr
	cfg.MapFile = *mapFile

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with
func (c Config) Validate() error {
	if c.Addr == "" {
		return errors.New("listen address must not be empty")
	}
	if c.TileSize <= 0 {
		return fmt.Errorf("tile size must be positive, got %v", c.TileSize)
	}
	if err := c.Rules.Validate(); err != nil {
		return fmt.Errorf("rules: %w", err)
	}
	return nil
}
