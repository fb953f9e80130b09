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

import "github.com/cockroachdb/errors"

var (
	// ErrInvalidArgument is returned by Put and Get when the key is nil.
	ErrInvalidArgument = errors.New("dhash: invalid argument: nil key")

	// ErrTableFull is returned by Put when the key's probe sequence was
	// exhausted without finding the key, an empty slot, or a tombstone.
	ErrTableFull = errors.New("dhash: table full")
)
