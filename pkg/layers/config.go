/*
 Copyright (C) 2022-2026, The layerlist Go Library Authors

 This file is part of layerlist: A Go Library for Keyed Ordered Layers.

 layerlist is free software; you can redistribute it and/or
 modify it under the terms of the GNU Lesser General Public
 License as published by the Free Software Foundation; either
 version 2.1 of the License, or any later version.

 layerlist is distributed in the hope that it will be useful,
 but WITHOUT ANY WARRANTY; without even the implied warranty of
 MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
 See the GNU Lesser General Public License for more details.

 A copy of the GNU Lesser General Public License is provided by this
 library under LICENSE.md. If absent, it can be found within the
 GitHub repository:
          https://github.com/justincpresley/layerlist
*/

package layers

import (
	"errors"
	"fmt"
	"os"

	log "github.com/apex/log"
	yaml "gopkg.in/yaml.v3"
)

type Backend string

const (
	BoltBackend   Backend = "bolt"
	SQLiteBackend Backend = "sqlite"
)

var ErrInvalidConfig = errors.New("layers: invalid config")

type Config struct {
	Backend  Backend `yaml:"backend"`
	Path     string  `yaml:"path"`   // "~/" and "./" prefixes are resolved
	Bucket   string  `yaml:"bucket"` // bolt only
	List     string  `yaml:"list"`
	LogLevel string  `yaml:"log_level"`
}

func GetDefaultConfig() *Config {
	return &Config{
		Backend:  BoltBackend,
		Path:     "~/.layerlist/layers.db",
		Bucket:   "layers",
		List:     "default",
		LogLevel: "warn",
	}
}

// LoadConfig reads a YAML file over the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := GetDefaultConfig()
	data, err := os.ReadFile(resolvePath(path))
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Backend {
	case BoltBackend:
		if c.Bucket == "" {
			return fmt.Errorf("%w: bolt backend needs a bucket", ErrInvalidConfig)
		}
	case SQLiteBackend:
	default:
		return fmt.Errorf("%w: unknown backend %q", ErrInvalidConfig, c.Backend)
	}
	if c.Path == "" {
		return fmt.Errorf("%w: empty path", ErrInvalidConfig)
	}
	if c.List == "" {
		return fmt.Errorf("%w: empty list name", ErrInvalidConfig)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

func (c *Config) Level() log.Level {
	lvl, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.WarnLevel
	}
	return lvl
}
