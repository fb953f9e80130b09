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

// Package inventory tracks product stock levels in a dhash.Table keyed by
// product ID.
package inventory

import (
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/cockroachdb/dhash"
	"github.com/cockroachdb/dhash/internal/config"
)

var (
	// ErrEmptyID is returned when a product ID is empty.
	ErrEmptyID = errors.New("inventory: empty product id")
	// ErrUnknownProduct is returned when adjusting the stock of a product
	// that is not in the inventory.
	ErrUnknownProduct = errors.New("inventory: unknown product")
)

// Product is the value stored for each product ID.
type Product struct {
	Name  string
	Stock int
}

// Inventory is a set of products. It is not goroutine-safe.
type Inventory struct {
	products *dhash.Table[string, Product]
	logger   *zap.Logger
}

// New returns an empty inventory sized according to cfg.
func New(cfg config.Table, logger *zap.Logger) *Inventory {
	return &Inventory{
		products: dhash.New[string, Product](cfg.InitialCapacity,
			dhash.WithMaxLoadFactor[string, Product](cfg.MaxLoadFactor)),
		logger: logger,
	}
}

// Add registers a product, replacing any product with the same ID.
func (inv *Inventory) Add(id, name string, stock int) error {
	if id == "" {
		return ErrEmptyID
	}
	if err := inv.products.Put(id, Product{Name: name, Stock: stock}); err != nil {
		return errors.Wrapf(err, "adding %s", id)
	}
	inv.logger.Info("product added",
		zap.String("id", id), zap.String("name", name), zap.Int("stock", stock))
	return nil
}

// AdjustStock adds delta to the stock of a product, clamping at zero, and
// returns the updated product. The stored value is replaced through Put; a
// Product returned by Lookup is a copy and changing it has no effect.
func (inv *Inventory) AdjustStock(id string, delta int) (Product, error) {
	p, ok, err := inv.Lookup(id)
	if err != nil {
		return Product{}, err
	}
	if !ok {
		inv.logger.Warn("stock update for unknown product", zap.String("id", id), zap.Int("delta", delta))
		return Product{}, errors.Wrapf(ErrUnknownProduct, "%s", id)
	}
	p.Stock += delta
	if p.Stock < 0 {
		p.Stock = 0
	}
	if err := inv.products.Put(id, p); err != nil {
		return Product{}, errors.Wrapf(err, "updating %s", id)
	}
	inv.logger.Info("stock updated",
		zap.String("id", id), zap.Int("delta", delta), zap.Int("stock", p.Stock))
	return p, nil
}

// Withdraw removes a product. Withdrawing an unknown product is a noop.
func (inv *Inventory) Withdraw(id string) {
	inv.products.Remove(id)
	inv.logger.Info("product withdrawn", zap.String("id", id))
}

// Lookup returns the product with the given ID.
func (inv *Inventory) Lookup(id string) (Product, bool, error) {
	if id == "" {
		return Product{}, false, ErrEmptyID
	}
	p, ok, err := inv.products.Get(id)
	if err != nil {
		return Product{}, false, errors.Wrapf(err, "looking up %s", id)
	}
	return p, ok, nil
}

// Each calls fn for every product. The order is unspecified.
func (inv *Inventory) Each(fn func(id string, p Product) bool) {
	inv.products.All(fn)
}

// Stats returns the occupancy of the underlying table.
func (inv *Inventory) Stats() dhash.Stats {
	return inv.products.Stats()
}

// LogStats writes the current occupancy to the logger.
func (inv *Inventory) LogStats(msg string) {
	s := inv.Stats()
	inv.logger.Info(msg,
		zap.Int("products", s.Len),
		zap.Int("capacity", s.Capacity),
		zap.Int("tombstones", s.Tombstones),
		zap.Int("resizes", s.Resizes),
		zap.Float64("load-factor", s.LoadFactor))
}
