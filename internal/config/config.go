// Copyright 2024 The Cockroach Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads the TOML configuration of the inventory tool.
package config

import (
	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"

	"github.com/cockroachdb/dhash/internal/logutil"
)

// Config is the top-level configuration file.
//
//	[table]
//	initial-capacity = 11
//	max-load-factor = 0.75
//
//	[log]
//	level = "info"
//
//	[[products]]
//	id = "LPT-1452"
//	name = "Gaming Laptop"
//	stock = 15
type Config struct {
	Table    Table          `toml:"table"`
	Log      logutil.Config `toml:"log"`
	Products []Product      `toml:"products"`
}

// Table holds the sizing parameters of the inventory's hash table.
type Table struct {
	InitialCapacity int     `toml:"initial-capacity"`
	MaxLoadFactor   float64 `toml:"max-load-factor"`
}

// Product is a seed inventory entry.
type Product struct {
	ID    string `toml:"id"`
	Name  string `toml:"name"`
	Stock int    `toml:"stock"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Table: Table{
			InitialCapacity: 11,
			MaxLoadFactor:   0.75,
		},
		Log: logutil.DefaultConfig(),
		Products: []Product{
			{ID: "LPT-1452", Name: "Gaming Laptop", Stock: 15},
			{ID: "MON-9987", Name: `4K Monitor 32"`, Stock: 8},
			{ID: "KEY-3341", Name: "Mechanical Keyboard", Stock: 23},
		},
	}
}

// Load reads path on top of the defaults. Keys missing from the file keep
// their default value; a products list in the file replaces the default one.
func Load(path string) (Config, error) {
	cfg := Default()
	cfg.Products = nil
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, errors.Wrapf(err, "loading %s", path)
	}
	if !md.IsDefined("products") {
		cfg.Products = Default().Products
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, errors.Newf("%s: unknown keys %v", path, undecoded)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, errors.Wrapf(err, "validating %s", path)
	}
	return cfg, nil
}

// Validate checks the ranges of the table parameters and that every seed
// product has an ID.
func (c Config) Validate() error {
	if c.Table.InitialCapacity < 0 {
		return errors.Newf("table.initial-capacity must be >= 0, got %d", c.Table.InitialCapacity)
	}
	if !(c.Table.MaxLoadFactor > 0 && c.Table.MaxLoadFactor <= 1) {
		return errors.Newf("table.max-load-factor must be in (0, 1], got %v", c.Table.MaxLoadFactor)
	}
	for i, p := range c.Products {
		if p.ID == "" {
			return errors.Newf("products[%d]: missing id", i)
		}
		if p.Stock < 0 {
			return errors.Newf("products[%d] (%s): negative stock %d", i, p.ID, p.Stock)
		}
	}
	return nil
}
