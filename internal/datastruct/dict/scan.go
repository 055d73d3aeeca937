// Copyright 2024 The Godis Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dict

// Scan visits every entry reachable from the bucket(s) named by cursor
// and returns the next cursor to pass on the following call. A full scan
// starts with cursor 0 and continues until Scan returns 0 again.
//
// The algorithm (ported from dict.c's dictScan, spec §4.2.6) guarantees
// every entry present for the entire duration of the scan is visited at
// least once, even if the table grows or shrinks between calls, by
// incrementing the cursor with its bits reversed: this visits buckets in
// an order where growing the table only ever subdivides a bucket already
// visited into buckets that sort after it, never before. Entries added
// and removed within the scan's lifetime may or may not be visited.
//
// onBucket, if non-nil, is invoked once per visited bucket with its head
// entry (nil for an empty bucket) before onEntry is invoked for each
// entry in that bucket; most callers only need onEntry.
func (d *Dict) Scan(cursor uint64, onBucket func(priv any, bucketHead *Entry), onEntry func(priv any, e *Entry)) uint64 {
	if d.Len() == 0 {
		return 0
	}

	if !d.IsRehashing() {
		t := &d.ht[0]
		mask := t.sizemask
		idx := cursor & mask

		visitBucket(d.priv, t.buckets[idx], onBucket, onEntry)

		return advanceCursor(cursor, mask)
	}

	// While rehashing, both tables must be covered. t0 is always the
	// smaller-masked table and t1 the larger one; ht[0]/ht[1] may be
	// either depending on whether the dict is growing or shrinking, so
	// pick by mask rather than by index.
	t0, t1 := &d.ht[0], &d.ht[1]
	if t0.sizemask > t1.sizemask {
		t0, t1 = t1, t0
	}
	m0, m1 := t0.sizemask, t1.sizemask

	idx := cursor & m0
	visitBucket(d.priv, t0.buckets[idx], onBucket, onEntry)

	// t1 has more bits than t0; every t0 bucket corresponds to multiple
	// t1 buckets (those sharing its low m0 bits). Visit all of them
	// before advancing past this t0 bucket.
	for {
		idx = cursor & m1
		visitBucket(d.priv, t1.buckets[idx], onBucket, onEntry)

		cursor = advanceCursor(cursor, m1)

		if cursor&(m0^m1) == 0 {
			break
		}
	}

	return cursor
}

func visitBucket(priv any, head *Entry, onBucket func(priv any, bucketHead *Entry), onEntry func(priv any, e *Entry)) {
	if onBucket != nil {
		onBucket(priv, head)
	}
	if onEntry != nil {
		for e := head; e != nil; e = e.next {
			onEntry(priv, e)
		}
	}
}

// advanceCursor increments cursor within the space of mask-sized buckets
// using the bit-reversed increment: the cursor's unused high bits are
// first forced to 1 (so the reversal carries correctly), the whole word
// is bit-reversed, incremented by one, and reversed back.
func advanceCursor(cursor, mask uint64) uint64 {
	cursor |= ^mask
	cursor = reverseBits(cursor)
	cursor++
	return reverseBits(cursor)
}

// reverseBits reverses the bit order of a full 64-bit word.
func reverseBits(v uint64) uint64 {
	var r uint64
	for i := 0; i < 64; i++ {
		r |= ((v >> uint(i)) & 1) << uint(63-i)
	}
	return r
}
