// Copyright 2024 The Godis Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dict implements a chained hash table that rehashes
// incrementally between two coexisting tables, in the style of Redis's
// dict.c: lookups stay amortized O(1), growth never pauses for long
// because migration work is spread one bucket at a time across
// subsequent calls, and a bit-reversed cursor lets callers scan the whole
// keyspace safely across intervening resizes.
//
// The package assumes the single-threaded cooperative model its host
// operates under: a Dict performs no internal synchronization, and at
// most one logical thread of control may touch a given Dict at a time.
// Callers that need cross-goroutine access must serialize it themselves
// (see internal/command.Dispatcher for how this repository does that).
package dict

import (
	"errors"
	"time"
)

// dictInitialSize is the table size a Dict lazily grows into on its first
// insertion.
const dictInitialSize = 4

// Process-wide policy flags, read unsynchronized per the single-threaded
// cooperative model (spec §5). Set these once during startup, before any
// Dict is mutated concurrently with reads of them.
var (
	resizeEnabled     = true
	forceResizeRatio  uint64 = 5
)

// SetResizeEnabled toggles whether ordinary load-factor growth is allowed.
// Disabling it does not forbid growth outright: a table whose load factor
// exceeds ForceResizeRatio still expands, to cap worst-case chain length
// even while a COW-sensitive child process (e.g. a background save) is
// running.
func SetResizeEnabled(v bool) { resizeEnabled = v }

// ResizeEnabled reports the current resize policy.
func ResizeEnabled() bool { return resizeEnabled }

// SetForceResizeRatio sets the used/size ratio above which growth proceeds
// even when ResizeEnabled is false. Default is 5.
func SetForceResizeRatio(ratio uint64) { forceResizeRatio = ratio }

// ForceResizeRatio returns the current force-resize ratio.
func ForceResizeRatio() uint64 { return forceResizeRatio }

// Errors returned by operations that refuse to change a Dict's state.
var (
	// ErrAlreadyRehashing is returned by Expand/Resize when the dict is
	// already migrating between two tables.
	ErrAlreadyRehashing = errors.New("dict: already rehashing")

	// ErrResizeDisabled is returned by Resize when ResizeEnabled is false.
	ErrResizeDisabled = errors.New("dict: resizing is disabled")
)

// TypeDescriptor customizes key/value lifecycle for a Dict, mirroring the
// six optional callbacks spec §3 assigns to a dict "type": Hash must be
// set (Go cannot derive a hash for an arbitrary key the way identity
// comparison can default), the rest default to no duplication, no
// destruction, and interface-equality comparison.
type TypeDescriptor struct {
	// Hash computes the 64-bit digest of a key. Required.
	Hash func(key any) uint64

	// DupKey, if set, duplicates a key when an entry is duplicated by a
	// caller (the dict package itself never duplicates keys; this hook
	// exists for dependents that copy entries wholesale; the hash/set
	// wrappers in this module do not set it).
	DupKey func(priv any, key any) any

	// DupVal duplicates a value the same way DupKey duplicates a key.
	DupVal func(priv any, val any) any

	// CmpKey compares two keys for equality. If nil, keys are compared
	// with Go's == after a pointer/value identity fast path.
	CmpKey func(priv any, a, b any) bool

	// FreeKey is invoked exactly once per key on removal, if set.
	FreeKey func(priv any, key any)

	// FreeVal is invoked exactly once per value on removal or replace, if
	// set.
	FreeVal func(priv any, val any)
}

// Entry is a key/value record living in one bucket chain. Entries are
// returned by reference by AddRaw, AddOrFind, Unlink and the iterators so
// that callers can observe or (via SetValue) mutate the stored value
// without a second lookup.
type Entry struct {
	key  any
	val  any
	next *Entry
}

// Key returns the entry's key.
func (e *Entry) Key() any { return e.key }

// Value returns the entry's current value.
func (e *Entry) Value() any { return e.val }

// SetValue overwrites the entry's value in place.
func (e *Entry) SetValue(v any) { e.val = v }

// table is one of the two coexisting hash tables (ht[0] / ht[1]) a Dict
// owns. It is a value, not a separately heap-allocated object: the Dict
// struct is the arena, per spec design note 9.
type table struct {
	buckets  []*Entry
	size     uint64
	sizemask uint64
	used     uint64
}

// Dict is a chained hash table with incremental rehashing. The zero value
// is not ready for use; construct one with New.
type Dict struct {
	typ  *TypeDescriptor
	priv any

	ht [2]table

	// rehashIdx is -1 when stable, or the next ht[0] bucket to migrate
	// when rehashing.
	rehashIdx int64

	// safeIterators counts live safe iterators. While nonzero, lazyStep
	// is suppressed so the bucket layout is stable for the duration of
	// the iteration (spec §4.2.2, §4.2.4).
	safeIterators int
}

// New creates an empty Dict using the given type descriptor and opaque
// per-dict private data (passed back to every DupKey/DupVal/CmpKey/
// FreeKey/FreeVal call). O(1): the first table is allocated lazily on the
// first insertion.
func New(typ *TypeDescriptor, priv any) *Dict {
	return &Dict{typ: typ, priv: priv, rehashIdx: -1}
}

// PrivateData returns the private data pointer the Dict was constructed
// with.
func (d *Dict) PrivateData() any { return d.priv }

// Len returns the total number of entries across both tables. O(1).
func (d *Dict) Len() int { return int(d.ht[0].used + d.ht[1].used) }

// IsRehashing reports whether the dict is currently migrating from ht[0]
// to ht[1].
func (d *Dict) IsRehashing() bool { return d.rehashIdx != -1 }

// nextPower returns the least power of two >= max(n, 4), saturating at
// 1<<63 the way spec's nextPower saturates at LONG_MAX+1 when n would
// overflow a signed machine word.
func nextPower(n uint64) uint64 {
	const maxPow = uint64(1) << 63
	if n >= maxPow {
		return maxPow
	}
	size := uint64(dictInitialSize)
	for size < n {
		size <<= 1
	}
	return size
}

// NextPower exposes the sizing policy's rounding rule for callers (tests,
// the introspection shell) that want to predict capacities without
// mutating a Dict.
func NextPower(n uint64) uint64 { return nextPower(n) }

// expand allocates a table of nextPower(size) and either installs it
// directly as ht[0] (if ht[0] was still empty, so the dict stays Stable)
// or installs it as ht[1] and starts rehashing at index 0. Callers must
// ensure the dict is not already rehashing.
func (d *Dict) expand(size uint64) error {
	newSize := nextPower(size)
	newTable := table{
		buckets:  make([]*Entry, newSize),
		size:     newSize,
		sizemask: newSize - 1,
	}

	if d.ht[0].size == 0 {
		d.ht[0] = newTable
		return nil
	}

	d.ht[1] = newTable
	d.rehashIdx = 0
	return nil
}

// Expand explicitly starts growing (or lazily initializing) the dict to
// hold at least size entries. It refuses if the dict is already
// rehashing, matching spec's precondition-violation error kind.
func (d *Dict) Expand(size uint64) error {
	if d.IsRehashing() {
		return ErrAlreadyRehashing
	}
	return d.expand(size)
}

// Resize shrinks the dict to the smallest capacity that still fits its
// current entries: nextPower(max(used, 4)). It refuses while rehashing or
// while resizing is administratively disabled.
func (d *Dict) Resize() error {
	if d.IsRehashing() {
		return ErrAlreadyRehashing
	}
	if !ResizeEnabled() {
		return ErrResizeDisabled
	}
	return d.expand(d.ht[0].used)
}

// expandIfNeeded applies the sizing policy from spec §4.2.1 before an
// insertion: lazily initialize an empty ht[0], or start rehashing once
// the load factor crosses 1.0 and either resizing is enabled or the load
// factor has blown past the force-resize ratio.
func (d *Dict) expandIfNeeded() {
	if d.IsRehashing() {
		return
	}
	if d.ht[0].size == 0 {
		_ = d.expand(dictInitialSize)
		return
	}
	if d.ht[0].used >= d.ht[0].size &&
		(ResizeEnabled() || d.ht[0].used/d.ht[0].size > ForceResizeRatio()) {
		_ = d.expand(d.ht[0].used * 2)
	}
}

// lazyStep performs the amortized single rehash migration spec §4.2.2
// calls for as a side effect of ordinary operations, but only when no
// safe iterator is pinning the current layout.
func (d *Dict) lazyStep() {
	if d.safeIterators != 0 {
		return
	}
	if d.IsRehashing() {
		d.rehashStepN(1)
	}
}

// rehashStepN migrates up to n nonempty buckets from ht[0] to ht[1],
// visiting at most n*10 empty buckets total before giving up early for
// this call (spec §4.2.2's empty-bucket cap, which keeps a single call
// from blocking on a table that rehashed down to a handful of entries
// spread across a huge sparse table). It reports whether more migration
// work remains.
func (d *Dict) rehashStepN(n int) bool {
	if !d.IsRehashing() {
		return false
	}

	emptyVisits := int64(n) * 10
	for ; n > 0 && d.ht[0].used != 0; n-- {
		for d.rehashIdx < int64(d.ht[0].size) && d.ht[0].buckets[d.rehashIdx] == nil {
			d.rehashIdx++
			emptyVisits--
			if emptyVisits <= 0 {
				return true
			}
		}
		if d.rehashIdx >= int64(d.ht[0].size) {
			break
		}

		entry := d.ht[0].buckets[d.rehashIdx]
		for entry != nil {
			next := entry.next
			idx := d.hashKey(entry.key) & d.ht[1].sizemask
			entry.next = d.ht[1].buckets[idx]
			d.ht[1].buckets[idx] = entry
			d.ht[0].used--
			d.ht[1].used++
			entry = next
		}
		d.ht[0].buckets[d.rehashIdx] = nil
		d.rehashIdx++
	}

	if d.ht[0].used == 0 {
		d.ht[0] = d.ht[1]
		d.ht[1] = table{}
		d.rehashIdx = -1
		return false
	}

	return true
}

// RehashStep drives up to n bucket migrations explicitly, independent of
// the per-operation lazy step, and reports whether more work remains
// (false once the rehash has completed). Safe to call even while a safe
// iterator is active; the lazy-step suppression only governs the
// *implicit* per-operation step.
func (d *Dict) RehashStep(n int) bool { return d.rehashStepN(n) }

// RehashMilliseconds drives rehashStepN(100) repeatedly until roughly ms
// milliseconds of wall-clock time have elapsed, for hosts that want to
// budget a fixed slice of a maintenance cycle to migration work (spec
// §4.2.2) instead of relying solely on the per-operation lazy step. The
// deadline is checked between hundred-bucket bursts, not within one, so
// the final burst may run slightly over budget.
func (d *Dict) RehashMilliseconds(ms int64) {
	deadline := time.Now().Add(time.Duration(ms) * time.Millisecond)
	for time.Now().Before(deadline) {
		if !d.rehashStepN(100) {
			return
		}
	}
}

// hashKey computes a key's hash using the type descriptor's Hash
// callback, which is required.
func (d *Dict) hashKey(key any) uint64 {
	return d.typ.Hash(key)
}

// keysEqual compares two keys, fast-pathing on interface identity before
// falling back to the type descriptor's CmpKey (or plain == if unset).
func (d *Dict) keysEqual(a, b any) bool {
	if a == b {
		return true
	}
	if d.typ.CmpKey != nil {
		return d.typ.CmpKey(d.priv, a, b)
	}
	return false
}

// findEntry looks up key given its precomputed hash, consulting ht[1]
// too when rehashing, stopping at the first hit.
func (d *Dict) findEntry(key any, h uint64) *Entry {
	for i := 0; i < 2; i++ {
		t := &d.ht[i]
		if t.size == 0 {
			continue
		}
		idx := h & t.sizemask
		for e := t.buckets[idx]; e != nil; e = e.next {
			if d.keysEqual(e.key, key) {
				return e
			}
		}
		if !d.IsRehashing() {
			break
		}
	}
	return nil
}

// Find looks up key, consulting ht[1] as well when rehashing. O(1)
// amortized.
func (d *Dict) Find(key any) (any, bool) {
	if d.Len() == 0 {
		return nil, false
	}
	d.lazyStep()
	e := d.findEntry(key, d.hashKey(key))
	if e == nil {
		return nil, false
	}
	return e.val, true
}

// Exists reports whether key is present.
func (d *Dict) Exists(key any) bool {
	_, ok := d.Find(key)
	return ok
}

// AddRaw inserts key if absent and returns the freshly created entry
// (with a nil value, for the caller to fill in via SetValue), or returns
// the pre-existing entry as the second return value if key was already
// present. New entries land in ht[1] while rehashing, else ht[0], and are
// pushed onto the head of their bucket chain.
func (d *Dict) AddRaw(key any) (entry *Entry, existing *Entry) {
	d.lazyStep()
	d.expandIfNeeded()

	h := d.hashKey(key)
	if e := d.findEntry(key, h); e != nil {
		return nil, e
	}

	tableIdx := 0
	if d.IsRehashing() {
		tableIdx = 1
	}
	t := &d.ht[tableIdx]
	idx := h & t.sizemask

	e := &Entry{key: key, next: t.buckets[idx]}
	t.buckets[idx] = e
	t.used++
	return e, nil
}

// Add inserts key/val only if key is absent. Returns false without
// modifying the dict if key was already present.
func (d *Dict) Add(key, val any) bool {
	entry, existing := d.AddRaw(key)
	if existing != nil {
		return false
	}
	entry.val = val
	return true
}

// Replace inserts key/val if absent (returning true), or overwrites the
// existing value (returning false). The new value is assigned before the
// old one is freed, so refcounted values that alias the same underlying
// object across the assignment are not destroyed by their own
// replacement (spec §3's replace-ordering invariant).
func (d *Dict) Replace(key, val any) bool {
	entry, existing := d.AddRaw(key)
	if existing == nil {
		entry.val = val
		return true
	}

	old := existing.val
	existing.val = val
	if d.typ.FreeVal != nil {
		d.typ.FreeVal(d.priv, old)
	}
	return false
}

// AddOrFind returns the entry for key, inserting one with a nil value if
// absent.
func (d *Dict) AddOrFind(key any) *Entry {
	entry, existing := d.AddRaw(key)
	if existing != nil {
		return existing
	}
	return entry
}

// genericDelete is the shared implementation behind Delete and Unlink.
func (d *Dict) genericDelete(key any, unlink bool) *Entry {
	if d.Len() == 0 {
		return nil
	}
	d.lazyStep()

	h := d.hashKey(key)
	for i := 0; i < 2; i++ {
		t := &d.ht[i]
		if t.size == 0 {
			continue
		}
		idx := h & t.sizemask

		var prev *Entry
		for e := t.buckets[idx]; e != nil; e = e.next {
			if d.keysEqual(e.key, key) {
				if prev != nil {
					prev.next = e.next
				} else {
					t.buckets[idx] = e.next
				}
				t.used--
				e.next = nil

				if !unlink {
					if d.typ.FreeKey != nil {
						d.typ.FreeKey(d.priv, e.key)
					}
					if d.typ.FreeVal != nil {
						d.typ.FreeVal(d.priv, e.val)
					}
				}
				return e
			}
			prev = e
		}

		if !d.IsRehashing() {
			break
		}
	}

	return nil
}

// Delete removes key, freeing its key and value via the type descriptor.
// Returns false if key was not present.
func (d *Dict) Delete(key any) bool {
	return d.genericDelete(key, false) != nil
}

// Unlink removes key from its bucket chain without freeing it, handing
// ownership to the caller, who must eventually call FreeUnlinkedEntry (or
// reuse the entry's value without freeing it at all).
func (d *Dict) Unlink(key any) *Entry {
	return d.genericDelete(key, true)
}

// FreeUnlinkedEntry frees the key and value of an entry previously
// removed via Unlink.
func (d *Dict) FreeUnlinkedEntry(e *Entry) {
	if e == nil {
		return
	}
	if d.typ.FreeKey != nil {
		d.typ.FreeKey(d.priv, e.key)
	}
	if d.typ.FreeVal != nil {
		d.typ.FreeVal(d.priv, e.val)
	}
}

// clearTable frees every entry in ht[idx] and resets it to the zero
// table, invoking progress every 65536 buckets for long clears.
func (d *Dict) clearTable(idx int, progress func(priv any)) {
	t := &d.ht[idx]
	for i := uint64(0); i < t.size; i++ {
		if progress != nil && i != 0 && i&0xFFFF == 0 {
			progress(d.priv)
		}
		e := t.buckets[i]
		for e != nil {
			next := e.next
			if d.typ.FreeKey != nil {
				d.typ.FreeKey(d.priv, e.key)
			}
			if d.typ.FreeVal != nil {
				d.typ.FreeVal(d.priv, e.val)
			}
			e = next
		}
	}
	d.ht[idx] = table{}
}

// Clear removes every entry from both tables, invoking progress
// periodically during long clears (nil is fine if the caller doesn't
// care). The dict remains usable afterward, with rehashIdx reset to -1.
func (d *Dict) Clear(progress func(priv any)) {
	d.clearTable(0, progress)
	d.clearTable(1, progress)
	d.rehashIdx = -1
}

// Release clears the dict. Provided for symmetry with spec's release;
// unlike the C original there is no separate struct to free.
func (d *Dict) Release() { d.Clear(nil) }

// EmptyDict clears both tables and also resets the active-safe-iterator
// count, for hosts recovering from an iterator leak (an iterator whose
// Release was never called).
func (d *Dict) EmptyDict() {
	d.Clear(nil)
	d.safeIterators = 0
}
