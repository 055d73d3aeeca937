// Copyright 2024 The Godis Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dict

// TableSnapshot is a point-in-time, read-only view of one of a Dict's two
// tables, for debug introspection (the interactive shell's dump command,
// test failure output).
type TableSnapshot struct {
	Size, SizeMask, Used uint64
	ChainLengths         []int
}

// Snapshot is a point-in-time view of a Dict's internal state, meant to
// be handed to a pretty-printer rather than inspected programmatically.
type Snapshot struct {
	Len         int
	Rehashing   bool
	RehashIndex int64
	Table0      TableSnapshot
	Table1      TableSnapshot
}

func snapshotTable(t *table) TableSnapshot {
	s := TableSnapshot{Size: t.size, SizeMask: t.sizemask, Used: t.used}
	if t.size == 0 {
		return s
	}
	s.ChainLengths = make([]int, t.size)
	for i := uint64(0); i < t.size; i++ {
		n := 0
		for e := t.buckets[i]; e != nil; e = e.next {
			n++
		}
		s.ChainLengths[i] = n
	}
	return s
}

// Dump captures a Snapshot of the dict's current internal layout, meant
// to be fed to a verbose printer such as kr/pretty rather than consumed
// by production code.
func (d *Dict) Dump() Snapshot {
	return Snapshot{
		Len:         d.Len(),
		Rehashing:   d.IsRehashing(),
		RehashIndex: d.rehashIdx,
		Table0:      snapshotTable(&d.ht[0]),
		Table1:      snapshotTable(&d.ht[1]),
	}
}
