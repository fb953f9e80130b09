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

package dhash

// Stats is a point-in-time summary of a Table's occupancy.
type Stats struct {
	Len        int
	Capacity   int
	Tombstones int
	// Resizes is the number of times the table has grown since it was
	// created.
	Resizes    int
	LoadFactor float64
	// TombstoneRatio is Tombstones/Capacity. Tombstones are not counted in
	// LoadFactor, so a remove-heavy workload shows up here instead.
	TombstoneRatio float64
}

// Stats returns a snapshot of the table's counters.
func (t *Table[K, V]) Stats() Stats {
	s := Stats{
		Len:        t.used,
		Capacity:   int(t.capacity),
		Tombstones: t.tombstones,
		Resizes:    t.resizes,
		LoadFactor: t.LoadFactor(),
	}
	if t.capacity > 0 {
		s.TombstoneRatio = float64(t.tombstones) / float64(t.capacity)
	}
	return s
}
