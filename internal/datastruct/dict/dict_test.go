// Copyright 2024 The Godis Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dict

import (
	"fmt"
	"testing"
)

func identityHash(key any) uint64 { return uint64(key.(int)) }

func newIdentityDict() *Dict {
	return New(&TypeDescriptor{Hash: identityHash}, nil)
}

func TestNextPower(t *testing.T) {
	cases := map[uint64]uint64{
		0:  4,
		1:  4,
		4:  4,
		5:  8,
		8:  8,
		9:  16,
		63: 64,
		64: 64,
	}
	for n, want := range cases {
		if got := nextPower(n); got != want {
			t.Errorf("nextPower(%d) = %d, want %d", n, got, want)
		}
	}
}

func TestLazyInitAndLoadFactorGrowth(t *testing.T) {
	d := newIdentityDict()
	if d.ht[0].size != 0 {
		t.Fatalf("expected lazily-uninitialized ht[0], got size %d", d.ht[0].size)
	}

	d.Add(0, "v0")
	if d.ht[0].size != 4 {
		t.Fatalf("first insert should lazily init ht[0] to size 4, got %d", d.ht[0].size)
	}

	for i := 1; i < 4; i++ {
		d.Add(i, fmt.Sprintf("v%d", i))
	}
	if d.IsRehashing() {
		t.Fatalf("dict should still be stable at load factor 1.0 before the triggering insert")
	}

	// The 5th insert crosses used >= size and must start a rehash into a
	// doubled table.
	d.Add(4, "v4")
	if !d.IsRehashing() {
		t.Fatalf("expected rehashing to have started once used reached size")
	}
	if d.ht[1].size != 8 {
		t.Fatalf("expected ht[1] size 8, got %d", d.ht[1].size)
	}
}

func TestRehashAcrossResizeBoundary(t *testing.T) {
	d := newIdentityDict()
	const n = 40
	for i := 0; i < n; i++ {
		d.Add(i, i*10)
	}
	if !d.IsRehashing() {
		t.Fatalf("expected dict to be mid-rehash after %d inserts", n)
	}

	steps := 0
	for d.RehashStep(1) {
		steps++
		if steps > 10000 {
			t.Fatalf("rehash did not converge")
		}
	}
	if d.IsRehashing() {
		t.Fatalf("RehashStep loop should have finished rehashing")
	}

	for i := 0; i < n; i++ {
		v, ok := d.Find(i)
		if !ok || v != i*10 {
			t.Fatalf("Find(%d) = %v, %v; want %v, true", i, v, ok, i*10)
		}
	}
	if d.Len() != n {
		t.Fatalf("Len() = %d, want %d", d.Len(), n)
	}
}

func TestRehashMillisecondsDrivesToCompletion(t *testing.T) {
	d := newIdentityDict()
	const n = 200
	for i := 0; i < n; i++ {
		d.Add(i, i)
	}
	if !d.IsRehashing() {
		t.Fatalf("expected dict to be mid-rehash after %d inserts", n)
	}

	d.RehashMilliseconds(50)

	if d.IsRehashing() {
		t.Fatalf("RehashMilliseconds(50) should have finished rehashing a %d-entry dict", n)
	}
	for i := 0; i < n; i++ {
		if v, ok := d.Find(i); !ok || v != i {
			t.Fatalf("Find(%d) = %v, %v; want %v, true", i, v, ok, i)
		}
	}
}

func scanAll(d *Dict) map[int]bool {
	visited := map[int]bool{}
	var cursor uint64
	for {
		cursor = d.Scan(cursor, nil, func(priv any, e *Entry) {
			visited[e.Key().(int)] = true
		})
		if cursor == 0 {
			break
		}
	}
	return visited
}

func TestScanVisitsAllEntriesStable(t *testing.T) {
	d := newIdentityDict()
	const n = 20
	for i := 0; i < n; i++ {
		d.Add(i, nil)
	}
	for d.IsRehashing() {
		d.RehashStep(1)
	}

	visited := scanAll(d)
	for i := 0; i < n; i++ {
		if !visited[i] {
			t.Fatalf("scan failed to visit key %d in a stable dict", i)
		}
	}
}

func TestScanVisitsAllEntriesWhileRehashing(t *testing.T) {
	d := newIdentityDict()
	const n = 40
	for i := 0; i < n; i++ {
		d.Add(i, nil)
	}
	if !d.IsRehashing() {
		t.Fatalf("expected dict to be mid-rehash")
	}

	visited := scanAll(d)
	for i := 0; i < n; i++ {
		if !visited[i] {
			t.Fatalf("scan failed to visit key %d while the dict was rehashing", i)
		}
	}
}

func TestSafeIteratorSuppressesLazyRehash(t *testing.T) {
	d := newIdentityDict()
	for i := 0; i < 5; i++ {
		d.Add(i, i)
	}
	if !d.IsRehashing() {
		t.Fatalf("expected rehashing to have started")
	}

	it := d.NewSafeIterator()
	it.Next()

	before := d.rehashIdx
	d.Find(0)
	if d.rehashIdx != before {
		t.Fatalf("lazy rehash step advanced (idx %d -> %d) while a safe iterator was active", before, d.rehashIdx)
	}
	it.Release()

	d.Find(0)
	if d.rehashIdx == before {
		t.Fatalf("lazy rehash step did not resume after the safe iterator was released")
	}
}

func TestUnsafeIteratorFingerprintMismatchPanics(t *testing.T) {
	d := newIdentityDict()
	for i := 0; i < 3; i++ {
		d.Add(i, i)
	}

	it := d.NewIterator()
	it.Next()

	d.Add(100, 100)

	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected Release to panic after a structural mutation mid unsafe-iteration")
		}
	}()
	it.Release()
}

func TestUnsafeIteratorNoMutationDoesNotPanic(t *testing.T) {
	d := newIdentityDict()
	for i := 0; i < 3; i++ {
		d.Add(i, i)
	}

	it := d.NewIterator()
	count := 0
	for e := it.Next(); e != nil; e = it.Next() {
		count++
	}
	it.Release() // must not panic

	if count != 3 {
		t.Fatalf("iterator visited %d entries, want 3", count)
	}
}

func TestReplaceAssignsBeforeFreeingOldValue(t *testing.T) {
	var d *Dict
	typ := &TypeDescriptor{
		Hash: identityHash,
		FreeVal: func(priv any, val any) {
			cur, ok := d.Find(1)
			if !ok || cur != "new" {
				panic(fmt.Sprintf("FreeVal(%v) ran before the new value was visible, dict has %v", val, cur))
			}
		},
	}
	d = New(typ, nil)

	d.Add(1, "old")
	if inserted := d.Replace(1, "new"); inserted {
		t.Fatalf("Replace should report false for an overwrite")
	}

	v, _ := d.Find(1)
	if v != "new" {
		t.Fatalf("Find(1) = %v, want new", v)
	}
}

func TestReplaceInsertsWhenAbsent(t *testing.T) {
	d := newIdentityDict()
	if inserted := d.Replace(7, "v"); !inserted {
		t.Fatalf("Replace should report true for a fresh insert")
	}
	if v, ok := d.Find(7); !ok || v != "v" {
		t.Fatalf("Find(7) = %v, %v", v, ok)
	}
}

func TestDeleteAndUnlink(t *testing.T) {
	d := newIdentityDict()
	d.Add(1, "a")
	d.Add(2, "b")

	if !d.Delete(1) {
		t.Fatalf("Delete(1) should report true")
	}
	if d.Delete(1) {
		t.Fatalf("Delete(1) should report false the second time")
	}

	e := d.Unlink(2)
	if e == nil || e.Value() != "b" {
		t.Fatalf("Unlink(2) = %v", e)
	}
	if _, ok := d.Find(2); ok {
		t.Fatalf("key should no longer be reachable after Unlink")
	}
	d.FreeUnlinkedEntry(e)
}

func TestAddRawReturnsExistingWithoutOverwriting(t *testing.T) {
	d := newIdentityDict()
	d.Add(1, "first")

	entry, existing := d.AddRaw(1)
	if entry != nil || existing == nil {
		t.Fatalf("AddRaw on an existing key should return (nil, existingEntry)")
	}
	if existing.Value() != "first" {
		t.Fatalf("existing entry value = %v, want first", existing.Value())
	}
}

func TestClearResetsDict(t *testing.T) {
	freed := 0
	typ := &TypeDescriptor{
		Hash:    identityHash,
		FreeVal: func(priv any, val any) { freed++ },
	}
	d := New(typ, nil)
	for i := 0; i < 10; i++ {
		d.Add(i, i)
	}

	d.Clear(nil)
	if d.Len() != 0 {
		t.Fatalf("Len() after Clear = %d, want 0", d.Len())
	}
	if freed != 10 {
		t.Fatalf("freed %d values, want 10", freed)
	}

	d.Add(1, "reused")
	if v, ok := d.Find(1); !ok || v != "reused" {
		t.Fatalf("dict should remain usable after Clear")
	}
}

func TestRandomEntryOnEmptyDict(t *testing.T) {
	d := newIdentityDict()
	if _, ok := d.RandomEntry(); ok {
		t.Fatalf("RandomEntry on an empty dict should report false")
	}
}

func TestRandomEntryReturnsExistingKey(t *testing.T) {
	d := newIdentityDict()
	want := map[int]bool{}
	for i := 0; i < 10; i++ {
		d.Add(i, nil)
		want[i] = true
	}

	for i := 0; i < 50; i++ {
		e, ok := d.RandomEntry()
		if !ok {
			t.Fatalf("RandomEntry reported false on a nonempty dict")
		}
		if !want[e.Key().(int)] {
			t.Fatalf("RandomEntry returned unknown key %v", e.Key())
		}
	}
}

func TestSomeKeysIsBoundedAndDistinct(t *testing.T) {
	d := newIdentityDict()
	for i := 0; i < 200; i++ {
		d.Add(i, nil)
	}

	got := d.SomeKeys(10)
	if len(got) > 10 {
		t.Fatalf("SomeKeys(10) returned %d entries, want at most 10", len(got))
	}

	seen := map[int]bool{}
	for _, e := range got {
		k := e.Key().(int)
		if seen[k] {
			t.Fatalf("SomeKeys returned duplicate key %d", k)
		}
		seen[k] = true
	}
}

func TestSomeKeysCapsAtDictSize(t *testing.T) {
	d := newIdentityDict()
	for i := 0; i < 3; i++ {
		d.Add(i, nil)
	}
	got := d.SomeKeys(100)
	if len(got) != 3 {
		t.Fatalf("SomeKeys(100) on a 3-entry dict returned %d, want 3", len(got))
	}
}

func TestExpandRefusesWhileRehashing(t *testing.T) {
	d := newIdentityDict()
	for i := 0; i < 5; i++ {
		d.Add(i, nil)
	}
	if !d.IsRehashing() {
		t.Fatalf("expected rehashing")
	}
	if err := d.Expand(1024); err != ErrAlreadyRehashing {
		t.Fatalf("Expand while rehashing = %v, want ErrAlreadyRehashing", err)
	}
}

func TestResizeRefusesWhenDisabled(t *testing.T) {
	d := newIdentityDict()
	d.Add(1, nil)

	SetResizeEnabled(false)
	defer SetResizeEnabled(true)

	if err := d.Resize(); err != ErrResizeDisabled {
		t.Fatalf("Resize while disabled = %v, want ErrResizeDisabled", err)
	}
}
