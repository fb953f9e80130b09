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

// nextPrime returns the smallest prime >= n. Values of n <= 2 map to 2.
func nextPrime(n uint64) uint64 {
	if n <= 2 {
		return 2
	}
	candidate := n | 1
	for !isPrime(candidate) {
		candidate += 2
	}
	return candidate
}

// isPrime tests n for primality by trial division with divisors of the form
// 6k±1 up to sqrt(n).
func isPrime(n uint64) bool {
	switch {
	case n <= 1:
		return false
	case n <= 3:
		return true
	case n%2 == 0 || n%3 == 0:
		return false
	}
	for i := uint64(5); i*i <= n; i += 6 {
		if n%i == 0 || n%(i+2) == 0 {
			return false
		}
	}
	return true
}
