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

// Command inventory walks an electronics store inventory through the life of
// a dhash.Table: stocking products, adjusting stock levels, withdrawing a
// product, and re-registering an existing product ID.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/cockroachdb/dhash/internal/config"
	"github.com/cockroachdb/dhash/internal/inventory"
	"github.com/cockroachdb/dhash/internal/logutil"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML configuration file")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	}

	logger, err := logutil.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger, os.Stdout); err != nil {
		logger.Error("inventory failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *zap.Logger, w io.Writer) error {
	inv := inventory.New(cfg.Table, logger)

	fmt.Fprintln(w, "=== Stage 1: stocking ===")
	for _, p := range cfg.Products {
		if err := inv.Add(p.ID, p.Name, p.Stock); err != nil {
			return err
		}
		fmt.Fprintf(w, "added %s - %s (stock %d)\n", p.ID, p.Name, p.Stock)
	}
	printStats(w, inv)
	inv.LogStats("inventory stocked")

	fmt.Fprintln(w, "=== Stage 2: stock updates ===")
	updates := []struct {
		id    string
		delta int
	}{
		{"LPT-1452", -3},
		{"KEY-3341", 10},
		{"PHN-0001", 5},
	}
	for _, u := range updates {
		p, err := inv.AdjustStock(u.id, u.delta)
		switch {
		case errors.Is(err, inventory.ErrUnknownProduct):
			fmt.Fprintf(w, "product %s does not exist\n", u.id)
		case err != nil:
			return err
		default:
			fmt.Fprintf(w, "updated %s: stock %d\n", u.id, p.Stock)
		}
	}
	printStats(w, inv)

	fmt.Fprintln(w, "=== Stage 3: withdrawal ===")
	inv.Withdraw("MON-9987")
	fmt.Fprintln(w, "withdrew MON-9987")
	if err := check(w, inv, "MON-9987"); err != nil {
		return err
	}

	fmt.Fprintln(w, "=== Stage 4: duplicate product ===")
	if err := inv.Add("LPT-1452", "Premium Laptop", 10); err != nil {
		return err
	}
	if err := check(w, inv, "LPT-1452"); err != nil {
		return err
	}

	fmt.Fprintln(w, "=== Summary ===")
	printStats(w, inv)
	inv.LogStats("inventory done")
	return nil
}

func check(w io.Writer, inv *inventory.Inventory, id string) error {
	p, ok, err := inv.Lookup(id)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintf(w, "product %s does not exist or was withdrawn\n", id)
		return nil
	}
	fmt.Fprintf(w, "product %s: %s (available %d)\n", id, p.Name, p.Stock)
	return nil
}

func printStats(w io.Writer, inv *inventory.Inventory) {
	s := inv.Stats()
	fmt.Fprintf(w, "products: %d  capacity: %d  load factor: %.2f%%\n",
		s.Len, s.Capacity, 100*s.LoadFactor)
}
