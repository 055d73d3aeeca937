// Copyright 2024 The Godis Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dict

import "math/rand"

// RandomEntry returns a uniformly-chosen entry, or (nil, false) if the
// dict is empty. When rehashing, the bucket is picked uniformly across
// the union of ht[0] (from rehashIdx onward; earlier buckets are already
// migrated and empty) and the whole of ht[1], then one entry is picked
// uniformly from that bucket's chain. This matches dict.c's randomKey:
// the outer pick is uniform over buckets, not over entries directly,
// since there's no O(1) way to index into a chain.
func (d *Dict) RandomEntry() (*Entry, bool) {
	if d.Len() == 0 {
		return nil, false
	}

	d.lazyStep()

	for {
		if !d.IsRehashing() {
			t := &d.ht[0]
			idx := uint64(rand.Int63()) % t.size
			if t.buckets[idx] != nil {
				return pickFromChain(t.buckets[idx]), true
			}
			continue
		}

		span := (d.ht[0].size - uint64(d.rehashIdx)) + d.ht[1].size
		r := uint64(rand.Int63()) % span

		if r < d.ht[0].size-uint64(d.rehashIdx) {
			idx := uint64(d.rehashIdx) + r
			if d.ht[0].buckets[idx] != nil {
				return pickFromChain(d.ht[0].buckets[idx]), true
			}
			continue
		}

		idx := r - (d.ht[0].size - uint64(d.rehashIdx))
		if d.ht[1].buckets[idx] != nil {
			return pickFromChain(d.ht[1].buckets[idx]), true
		}
	}
}

// pickFromChain counts the chain starting at head and returns a uniformly
// chosen entry from it.
func pickFromChain(head *Entry) *Entry {
	n := 0
	for e := head; e != nil; e = e.next {
		n++
	}
	pick := rand.Intn(n)
	e := head
	for i := 0; i < pick; i++ {
		e = e.next
	}
	return e
}

// SomeKeys makes a best-effort attempt to return up to count distinct
// entries without the uniformity guarantee RandomEntry gives: it is
// meant for sampling-based approximations (LRU/LFU eviction candidate
// selection) where speed matters more than a perfectly even
// distribution. It walks forward from a random starting bucket,
// collecting every entry of each nonempty bucket it visits (so a dense
// chain can push the result past a single bucket's worth of candidates),
// teleporting to a fresh random bucket after enough consecutive empty
// buckets, and giving up after count*10 bucket visits regardless of how
// many entries it has found.
//
// If the dict is rehashing, each call also explicitly drives up to count
// rehash steps — independent of, and in addition to, any lazy step —
// since a caller sampling for eviction wants rehashing to make forward
// progress proportional to the sampling pressure it is placing on the
// dict (this is a deliberate deviation from a strict lazy-step-per-call
// discipline; see DESIGN.md).
func (d *Dict) SomeKeys(count int) []*Entry {
	total := d.Len()
	if total == 0 || count <= 0 {
		return nil
	}
	if count > total {
		count = total
	}

	steps := count
	for d.IsRehashing() && steps > 0 {
		d.rehashStepN(1)
		steps--
	}

	t0, t1 := &d.ht[0], &d.ht[1]
	maxMask := t0.sizemask
	if d.IsRehashing() && t1.sizemask > maxMask {
		maxMask = t1.sizemask
	}

	result := make([]*Entry, 0, count)
	seen := make(map[*Entry]struct{}, count)
	i := uint64(rand.Int63()) & maxMask
	emptyStreak := 0
	maxSteps := count * 10

	for len(result) < count && maxSteps > 0 {
		for table := 0; table < 2; table++ {
			if table == 1 && !d.IsRehashing() {
				break
			}
			t := t0
			if table == 1 {
				t = t1
			}

			if table == 0 && d.IsRehashing() && i < uint64(d.rehashIdx) {
				// Already migrated out of ht[0]; only ht[1] at this index
				// can hold anything, and only if it's in range.
				if i >= t1.size {
					i = uint64(d.rehashIdx)
				}
				continue
			}

			if i >= t.size {
				continue
			}

			bucket := t.buckets[i]
			if bucket == nil {
				emptyStreak++
				if emptyStreak >= 5 && emptyStreak >= count {
					i = uint64(rand.Int63()) & maxMask
					emptyStreak = 0
				}
				continue
			}

			emptyStreak = 0
			for e := bucket; e != nil; e = e.next {
				if _, dup := seen[e]; dup {
					continue
				}
				seen[e] = struct{}{}
				result = append(result, e)
				if len(result) == count {
					return result
				}
			}
		}

		i = (i + 1) & maxMask
		maxSteps--
	}

	return result
}
