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

// package dhash is a Go implementation of an open-addressing hash table
// which resolves collisions with double hashing. See
// https://en.wikipedia.org/wiki/Double_hashing.
//
// # Double Hashing
//
// All entries live directly in a single array of slots. A key's hash code is
// reduced twice: h1 = hash%capacity selects the first slot to examine and
// h2 = hash%(capacity-1)+1 selects the distance between successive probes.
// The probe sequence is
//
//	index(i) = (h1 + i*h2) mod capacity,  i = 0 .. capacity-1
//
// The capacity of a Table is always prime. Since h2 is in [1, capacity-1] it
// is coprime with the capacity and the probe sequence is a permutation of all
// of the slot indexes: every slot is reachable from every starting point.
//
// Each slot is in one of three states: empty (never used), a tombstone
// (previously held an entry that has since been removed), or occupied. A
// lookup terminates at the first empty slot along its probe sequence because
// an insertion never skips over an empty slot. Tombstones do not terminate a
// lookup as entries inserted after the tombstone's entry may lie beyond it.
// Removal converts an occupied slot into a tombstone and insertion reuses the
// first tombstone seen along the probe sequence.
//
// # Growth
//
// Before inserting, Put checks whether (Len()+1)/Capacity() would exceed the
// maximum load factor (0.75 by default, see WithMaxLoadFactor). If so the
// table is resized to nextPrime(2*capacity) and every live entry is rehashed
// into the new slot array. Tombstones are dropped by a resize. Tombstones are
// not counted towards the load factor and the table never shrinks.
package dhash

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/cockroachdb/errors"
)

const (
	debug = false

	defaultCapacity      = 11
	defaultMaxLoadFactor = 0.75
)

// slotState is the tag of a Slot. The zero value is slotEmpty so that a
// freshly allocated slot array is entirely empty.
type slotState uint8

const (
	slotEmpty slotState = iota
	slotTombstone
	slotOccupied
)

func (s slotState) String() string {
	switch s {
	case slotEmpty:
		return "empty"
	case slotTombstone:
		return "tombstone"
	case slotOccupied:
		return "occupied"
	default:
		return fmt.Sprintf("slotState(%d)", uint8(s))
	}
}

// Slot holds a key and value. The key and value are only meaningful when the
// slot is occupied.
type Slot[K comparable, V any] struct {
	state slotState
	key   K
	value V
}

// Table is an unordered map from keys to values with Put, Get, Remove, and
// All operations. Collisions are resolved with double hashing over a prime
// number of slots. By default keys are hashed by their Hash method if they
// implement Hasher and otherwise by a built-in hash function for the key
// type. A different hash function can be specified using the WithHash
// option.
//
// A Table is NOT goroutine-safe.
type Table[K comparable, V any] struct {
	// The hash function used to derive both h1 and h2 for a key.
	hash hashFn[K]
	// Growth is triggered when (used+1)/capacity would exceed maxLoadFactor.
	maxLoadFactor float64
	// The allocator to use for the slots slice.
	allocator Allocator[K, V]
	// slots is capacity in length.
	slots []Slot[K, V]
	// The total number of slots. Always prime.
	capacity uint64
	// The number of occupied slots (i.e. the number of elements in the
	// table).
	used int
	// The number of tombstone slots. Reset to zero by a resize.
	tombstones int
	// The number of times the table has been resized.
	resizes int
	// nilable is true if K is a pointer, channel, unsafe.Pointer, or
	// interface type. Nil keys of such types are rejected by Put and Get.
	nilable bool
}

// New constructs a new Table with capacity of at least initialCapacity,
// rounded up to a prime. If initialCapacity is <= 0 the default capacity of
// 11 is used.
func New[K comparable, V any](initialCapacity int, options ...option[K, V]) *Table[K, V] {
	t := &Table[K, V]{
		maxLoadFactor: defaultMaxLoadFactor,
		allocator:     defaultAllocator[K, V]{},
		nilable:       isNilable[K](),
	}

	for _, op := range options {
		op.apply(t)
	}

	if t.hash == nil {
		t.hash = defaultHasher[K]()
	}
	if !(t.maxLoadFactor > 0 && t.maxLoadFactor <= 1) {
		panic(errors.AssertionFailedf("max load factor %v is not in the range (0, 1]", t.maxLoadFactor))
	}

	if initialCapacity <= 0 {
		initialCapacity = defaultCapacity
	}
	t.capacity = nextPrime(uint64(initialCapacity))
	t.slots = t.allocator.AllocSlots(int(t.capacity))

	t.checkInvariants()
	return t
}

// Close closes the table, releasing any memory back to its configured
// allocator. It is unnecessary to close a table using the default allocator.
// It is invalid to use a Table after it has been closed, though Close itself
// is idempotent.
func (t *Table[K, V]) Close() {
	if t.allocator == nil {
		return
	}
	if t.slots != nil {
		t.allocator.FreeSlots(t.slots)
	}
	t.slots = nil
	t.capacity = 0
	t.used = 0
	t.tombstones = 0
	t.allocator = nil
}

// Put inserts an entry into the table, overwriting an existing value if an
// entry with the same key already exists. Put returns ErrInvalidArgument if
// key is nil, and an error matching ErrTableFull if no slot along the key's
// probe sequence is available. The table is unmodified when an error is
// returned.
func (t *Table[K, V]) Put(key K, value V) error {
	if t.isNil(key) {
		return ErrInvalidArgument
	}

	// Before performing the insertion we may decide the table is getting
	// overcrowded. Note that this happens even if key is already present.
	if float64(t.used+1)/float64(t.capacity) > t.maxLoadFactor {
		t.resize(nextPrime(2 * t.capacity))
	}

	h := t.hash(&key)
	seq := makeProbeSeq(h, t.capacity)
	if debug {
		fmt.Printf("put(%v): %s\n", key, seq)
	}

	// The first tombstone encountered along the probe sequence. If the key is
	// not present the entry is placed here rather than at the terminating
	// empty slot.
	var tombstone *Slot[K, V]

	for ; seq.index < t.capacity; seq = seq.next() {
		s := &t.slots[seq.offset]
		switch s.state {
		case slotEmpty:
			if debug {
				fmt.Printf("put(not-found): offset=%d reuse-tombstone=%t\n", seq.offset, tombstone != nil)
			}
			if tombstone != nil {
				s = tombstone
				t.tombstones--
			}
			t.occupy(s, key, value)
			return nil

		case slotTombstone:
			if tombstone == nil {
				tombstone = s
			}

		case slotOccupied:
			if s.key == key {
				if debug {
					fmt.Printf("put(updating): index=%d key=%v\n", seq.offset, key)
				}
				s.value = value
				t.checkInvariants()
				return nil
			}
		}
	}

	// Every slot was visited without finding an empty slot or the key.
	if tombstone != nil {
		t.tombstones--
		t.occupy(tombstone, key, value)
		return nil
	}
	return errors.Wrapf(ErrTableFull, "capacity=%d used=%d tombstones=%d",
		t.capacity, t.used, t.tombstones)
}

func (t *Table[K, V]) occupy(s *Slot[K, V], key K, value V) {
	s.state = slotOccupied
	s.key = key
	s.value = value
	t.used++
	if debug {
		fmt.Printf("put(inserting): used=%d tombstones=%d\n", t.used, t.tombstones)
	}
	t.checkInvariants()
}

// Get retrieves the value from the table for the specified key, returning
// ok=false if the key is not present. Get returns ErrInvalidArgument if key
// is nil.
func (t *Table[K, V]) Get(key K) (value V, ok bool, err error) {
	if t.isNil(key) {
		return value, false, ErrInvalidArgument
	}
	if s := t.find(key); s != nil {
		return s.value, true, nil
	}
	return value, false, nil
}

// Remove removes the entry corresponding to the specified key from the table,
// leaving a tombstone in its slot. It is a noop to remove a nil or
// non-existent key.
func (t *Table[K, V]) Remove(key K) {
	if t.isNil(key) {
		return
	}
	s := t.find(key)
	if s == nil {
		return
	}
	*s = Slot[K, V]{state: slotTombstone}
	t.used--
	t.tombstones++
	if debug {
		fmt.Printf("remove(%v): used=%d tombstones=%d\n", key, t.used, t.tombstones)
	}
	t.checkInvariants()
}

// find returns the occupied slot holding key, or nil if key is not present.
func (t *Table[K, V]) find(key K) *Slot[K, V] {
	h := t.hash(&key)
	seq := makeProbeSeq(h, t.capacity)
	if debug {
		fmt.Printf("find(%v): %s\n", key, seq)
	}

	for ; seq.index < t.capacity; seq = seq.next() {
		s := &t.slots[seq.offset]
		switch s.state {
		case slotEmpty:
			// An insertion never skips past an empty slot, so the key cannot
			// be further along the probe sequence.
			return nil
		case slotOccupied:
			if s.key == key {
				return s
			}
		}
	}
	return nil
}

// All calls yield sequentially for each key and value present in the table.
// If yield returns false, iteration stops. The table can be mutated during
// iteration, though there is no guarantee that the mutations will be visible
// to the iteration.
func (t *Table[K, V]) All(yield func(key K, value V) bool) {
	// Snapshot the slots so that iteration remains valid if the table is
	// resized during iteration.
	slots := t.slots
	for i := range slots {
		s := &slots[i]
		if s.state != slotOccupied {
			continue
		}
		if !yield(s.key, s.value) {
			return
		}
	}
}

// Clear deletes all entries from the table. The capacity is retained.
func (t *Table[K, V]) Clear() {
	clear(t.slots)
	t.used = 0
	t.tombstones = 0
	t.checkInvariants()
}

// Len returns the number of entries in the table.
func (t *Table[K, V]) Len() int {
	return t.used
}

// Capacity returns the number of slots in the table. The capacity is always
// prime.
func (t *Table[K, V]) Capacity() int {
	return int(t.capacity)
}

// LoadFactor returns Len()/Capacity().
func (t *Table[K, V]) LoadFactor() float64 {
	if t.capacity == 0 {
		return 0
	}
	return float64(t.used) / float64(t.capacity)
}

// resize allocates a slot array with the specified capacity and reinserts
// every occupied slot of the old array into it. Tombstones are dropped.
func (t *Table[K, V]) resize(newCapacity uint64) {
	oldSlots := t.slots
	oldCapacity := t.capacity

	t.slots = t.allocator.AllocSlots(int(newCapacity))
	t.capacity = newCapacity
	t.tombstones = 0
	t.resizes++

	if debug {
		fmt.Printf("resize: capacity=%d->%d used=%d\n", oldCapacity, newCapacity, t.used)
	}

	for i := range oldSlots {
		s := &oldSlots[i]
		if s.state != slotOccupied {
			continue
		}
		t.uncheckedPut(t.hash(&s.key), s.key, s.value)
	}

	if oldCapacity > 0 {
		t.allocator.FreeSlots(oldSlots)
	}

	t.checkInvariants()
}

// uncheckedPut inserts an entry known not to be in the table into the first
// empty slot of its probe sequence. Used by resize, where the slot array
// contains no tombstones.
func (t *Table[K, V]) uncheckedPut(h uint64, key K, value V) {
	for seq := makeProbeSeq(h, t.capacity); seq.index < t.capacity; seq = seq.next() {
		s := &t.slots[seq.offset]
		if s.state == slotEmpty {
			s.state = slotOccupied
			s.key = key
			s.value = value
			return
		}
	}
	panic(errors.AssertionFailedf("no empty slot for %v: capacity=%d used=%d", key, t.capacity, t.used))
}

func (t *Table[K, V]) isNil(key K) bool {
	if !t.nilable {
		return false
	}
	var zero K
	return key == zero
}

func isNilable[K comparable]() bool {
	switch reflect.TypeFor[K]().Kind() {
	case reflect.Pointer, reflect.Chan, reflect.UnsafePointer, reflect.Interface:
		return true
	default:
		return false
	}
}

func (t *Table[K, V]) checkInvariants() {
	if invariants {
		if !isPrime(t.capacity) {
			panic(fmt.Sprintf("invariant failed: capacity %d is not prime\n%s", t.capacity, t.debugString()))
		}
		if uint64(len(t.slots)) != t.capacity {
			panic(fmt.Sprintf("invariant failed: found %d slots, but capacity is %d\n%s",
				len(t.slots), t.capacity, t.debugString()))
		}

		// For every occupied slot, verify we can retrieve the key using find
		// and that find returns this very slot. Count the number of used and
		// tombstone slots.
		var used int
		var tombstones int
		for i := range t.slots {
			s := &t.slots[i]
			switch s.state {
			case slotEmpty:
			case slotTombstone:
				tombstones++
			case slotOccupied:
				if f := t.find(s.key); f != s {
					panic(fmt.Sprintf("invariant failed: slot(%d): %v not found [hash=%016x]\n%s",
						i, s.key, t.hash(&s.key), t.debugString()))
				}
				used++
			default:
				panic(fmt.Sprintf("invariant failed: slot(%d): unexpected state %s", i, s.state))
			}
		}

		if used != t.used {
			panic(fmt.Sprintf("invariant failed: found %d used slots, but used count is %d\n%s",
				used, t.used, t.debugString()))
		}
		if tombstones != t.tombstones {
			panic(fmt.Sprintf("invariant failed: found %d tombstones, but tombstone count is %d\n%s",
				tombstones, t.tombstones, t.debugString()))
		}
		if uint64(used+tombstones) > t.capacity {
			panic(fmt.Sprintf("invariant failed: used=%d + tombstones=%d exceeds capacity=%d",
				used, tombstones, t.capacity))
		}
	}
}

func (t *Table[K, V]) debugString() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "capacity=%d  used=%d  tombstones=%d\n", t.capacity, t.used, t.tombstones)
	for i := range t.slots {
		switch s := &t.slots[i]; s.state {
		case slotOccupied:
			h := t.hash(&s.key)
			fmt.Fprintf(&buf, "  %4d: %v [h1=%d h2=%d]\n", i, s.key, h1(h, t.capacity), h2(h, t.capacity))
		default:
			fmt.Fprintf(&buf, "  %4d: %s\n", i, s.state)
		}
	}
	return buf.String()
}

// probeSeq maintains the state for a probe sequence. The sequence is
//
//	p(i) := (h1 + i*h2) mod capacity
//
// It is computed incrementally so that i*h2 never overflows. When the
// capacity is prime the first capacity offsets of the sequence visit every
// slot exactly once.
type probeSeq struct {
	capacity uint64
	offset   uint64
	step     uint64
	index    uint64
}

func makeProbeSeq(hash, capacity uint64) probeSeq {
	return probeSeq{
		capacity: capacity,
		offset:   h1(hash, capacity),
		step:     h2(hash, capacity),
		index:    0,
	}
}

func (s probeSeq) next() probeSeq {
	s.index++
	s.offset = (s.offset + s.step) % s.capacity
	return s
}

func (s probeSeq) String() string {
	return fmt.Sprintf("capacity=%d offset=%d step=%d index=%d", s.capacity, s.offset, s.step, s.index)
}

// h1 is the first slot examined for a hash.
func h1(h, capacity uint64) uint64 {
	return h % capacity
}

// h2 is the distance between successive probes for a hash. It is in the
// range [1, capacity-1].
func h2(h, capacity uint64) uint64 {
	if capacity < 2 {
		return 1
	}
	return h%(capacity-1) + 1
}
