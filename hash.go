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

import (
	"hash/maphash"
	"reflect"
	"unsafe"

	"github.com/cespare/xxhash/v2"
)

// Hasher is implemented by keys that supply their own hash code. Keys which
// are equal must return equal hash codes, and the hash code of a key must not
// change while the key is in a Table.
type Hasher interface {
	Hash() uint64
}

type hashFn[K comparable] func(key *K) uint64

// seed is shared by every Table so that the hash of a key is stable for the
// life of the process.
var seed = maphash.MakeSeed()

// defaultHasher returns the hash function used for keys of type K when no
// WithHash option is given. Keys implementing Hasher use their Hash method.
// Integer and boolean keys hash to their own value, strings are hashed with
// xxhash, and every other comparable type is hashed with maphash.
func defaultHasher[K comparable]() hashFn[K] {
	typ := reflect.TypeFor[K]()
	if typ.Implements(reflect.TypeFor[Hasher]()) {
		return func(key *K) uint64 {
			return any(*key).(Hasher).Hash()
		}
	}

	// The key is reinterpreted through its underlying kind so that named
	// types (e.g. type ProductID int64) get the same treatment as the
	// predeclared types. Signed values are sign extended before being
	// converted to the unsigned domain.
	switch typ.Kind() {
	case reflect.Bool:
		return func(key *K) uint64 {
			if *(*bool)(unsafe.Pointer(key)) {
				return 1
			}
			return 0
		}
	case reflect.Int:
		return func(key *K) uint64 { return uint64(int64(*(*int)(unsafe.Pointer(key)))) }
	case reflect.Int8:
		return func(key *K) uint64 { return uint64(int64(*(*int8)(unsafe.Pointer(key)))) }
	case reflect.Int16:
		return func(key *K) uint64 { return uint64(int64(*(*int16)(unsafe.Pointer(key)))) }
	case reflect.Int32:
		return func(key *K) uint64 { return uint64(int64(*(*int32)(unsafe.Pointer(key)))) }
	case reflect.Int64:
		return func(key *K) uint64 { return uint64(*(*int64)(unsafe.Pointer(key))) }
	case reflect.Uint:
		return func(key *K) uint64 { return uint64(*(*uint)(unsafe.Pointer(key))) }
	case reflect.Uint8:
		return func(key *K) uint64 { return uint64(*(*uint8)(unsafe.Pointer(key))) }
	case reflect.Uint16:
		return func(key *K) uint64 { return uint64(*(*uint16)(unsafe.Pointer(key))) }
	case reflect.Uint32:
		return func(key *K) uint64 { return uint64(*(*uint32)(unsafe.Pointer(key))) }
	case reflect.Uint64:
		return func(key *K) uint64 { return *(*uint64)(unsafe.Pointer(key)) }
	case reflect.Uintptr:
		return func(key *K) uint64 { return uint64(*(*uintptr)(unsafe.Pointer(key))) }
	case reflect.String:
		return func(key *K) uint64 { return xxhash.Sum64String(*(*string)(unsafe.Pointer(key))) }
	default:
		return func(key *K) uint64 { return maphash.Comparable(seed, *key) }
	}
}
