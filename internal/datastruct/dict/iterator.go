// Copyright 2024 The Godis Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dict

import "unsafe"

// Iterator walks every entry of a Dict exactly once, across both tables
// when rehashing. Two flavors exist (spec §4.2.4):
//
//   - A safe iterator (NewSafeIterator) suppresses the per-operation lazy
//     rehash step for as long as it is live, so the bucket layout it is
//     walking cannot shift underneath it. The dict may still be mutated
//     through Add/Delete/etc. during a safe iteration.
//   - An unsafe iterator (NewIterator) does not suppress anything; it is
//     cheaper but only valid if the caller makes no mutating call on the
//     dict for the iterator's entire lifetime. Release computes a
//     fingerprint mismatch check and panics if that contract was broken.
type Iterator struct {
	d    *Dict
	safe bool

	initialized bool
	table       int
	index       int64

	entry     *Entry
	nextEntry *Entry

	fingerprint uint64
}

// NewIterator returns an unsafe iterator over d.
func (d *Dict) NewIterator() *Iterator {
	return &Iterator{d: d, safe: false}
}

// NewSafeIterator returns a safe iterator over d.
func (d *Dict) NewSafeIterator() *Iterator {
	return &Iterator{d: d, safe: true}
}

// Next advances the iterator and returns the next entry, or nil once
// every bucket of every live table has been visited. It caches the
// successor of the entry it is about to return, so on a safe iterator
// Delete-ing the entry just returned (via d.Delete or d.Unlink) is safe,
// matching the list package's same guarantee. On an unsafe iterator any
// such mutation trips the fingerprint check.
func (it *Iterator) Next() *Entry {
	for {
		if it.entry == nil {
			if !it.initialized {
				it.initialized = true
				if it.safe {
					it.d.safeIterators++
				} else {
					it.fingerprint = it.d.fingerprint()
				}
				it.index = -1
			}

			t := &it.d.ht[it.table]
			it.index++

			if t.size == 0 || uint64(it.index) >= t.size {
				if it.d.IsRehashing() && it.table == 0 {
					it.table = 1
					it.index = 0
					t = &it.d.ht[1]
					if t.size == 0 {
						return nil
					}
				} else {
					return nil
				}
			}

			it.entry = t.buckets[it.index]
		} else {
			it.entry = it.nextEntry
		}

		if it.entry != nil {
			it.nextEntry = it.entry.next
			return it.entry
		}
	}
}

// Release must be called when the caller is done iterating. For a safe
// iterator it decrements the dict's active-safe-iterator count,
// re-enabling the lazy rehash step. For an unsafe iterator it recomputes
// the dict's fingerprint and panics if it no longer matches the one taken
// when iteration began — the load-bearing assertion spec §4.2.4 and §7
// call for: an unsafe iterator observed a structural mutation it was
// promised would not happen.
func (it *Iterator) Release() {
	if !it.initialized {
		return
	}
	if it.safe {
		it.d.safeIterators--
		return
	}
	if it.fingerprint != it.d.fingerprint() {
		panic("dict: unsafe iterator used across a structural mutation of the dict")
	}
}

// fingerprint mixes the six internal values that change under any
// structural mutation (table pointer, size, and used count, for both
// ht[0] and ht[1]) through Thomas Wang's 64-bit integer hash, the same
// technique the original dict.c fingerprint uses. Two fingerprints taken
// around a sequence of operations are equal iff none of those six values
// changed, which is the property an unsafe iterator is relying on.
func (d *Dict) fingerprint() uint64 {
	integers := [6]uint64{
		tableAddr(d.ht[0].buckets), d.ht[0].size, d.ht[0].used,
		tableAddr(d.ht[1].buckets), d.ht[1].size, d.ht[1].used,
	}

	var hash uint64
	for _, v := range integers {
		hash += v
		hash = wangMix64(hash)
	}
	return hash
}

// tableAddr returns the address of a bucket slice's backing array as a
// uint64, or 0 for an empty/nil slice. This stands in for dict.c's raw
// table pointer: as long as nothing reallocates the slice (append is
// never used on buckets; resizing always builds a fresh slice and retires
// the old one), the address is stable for an iterator's lifetime.
func tableAddr(buckets []*Entry) uint64 {
	if len(buckets) == 0 {
		return 0
	}
	return uint64(uintptr(unsafe.Pointer(&buckets[0])))
}

// wangMix64 is Thomas Wang's 64-bit integer hash, used unmodified by the
// original dict.c fingerprint to spread the six mixed-in values.
func wangMix64(key uint64) uint64 {
	key = (^key) + (key << 21)
	key = key ^ (key >> 24)
	key = key + (key << 3) + (key << 8)
	key = key ^ (key >> 14)
	key = key + (key << 2) + (key << 4)
	key = key ^ (key >> 28)
	key = key + (key << 31)
	return key
}
