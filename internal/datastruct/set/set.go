// Copyright 2024 The Godis Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package set implements the set data structure as a thin typed wrapper
// over internal/datastruct/dict, using the value half of each entry as a
// presence marker the way dict.c itself suggests a "dict used as a set"
// should (spec §2: "dependent subsystems ... treat it as the
// foundational associative container").
package set

import (
	"github.com/zyhnesmr/dictkv/internal/datastruct/dict"
	"github.com/zyhnesmr/dictkv/pkg/hashfn"
)

// SetEncoding represents the encoding type of a set.
type SetEncoding byte

const (
	// SetEncodingHashtable backs the set with a dict.Dict.
	SetEncodingHashtable SetEncoding = iota
	// SetEncodingIntset is reserved for a future compact all-integer
	// encoding; not implemented.
	SetEncodingIntset
)

func memberType() *dict.TypeDescriptor {
	return &dict.TypeDescriptor{
		Hash:   func(key any) uint64 { return hashfn.Sum64([]byte(key.(string)), dict.HashSeed()) },
		CmpKey: func(priv any, a, b any) bool { return a.(string) == b.(string) },
	}
}

// Set represents a Redis set data structure: an unordered collection of
// distinct strings. It carries no lock of its own; see the hash package
// for the same discipline and its rationale.
type Set struct {
	d        *dict.Dict
	encoding SetEncoding
}

// NewSet creates an empty set.
func NewSet() *Set {
	return &Set{d: dict.New(memberType(), nil), encoding: SetEncodingHashtable}
}

// NewSetFromSlice creates a set preloaded from items.
func NewSetFromSlice(items []string) *Set {
	s := NewSet()
	for _, item := range items {
		s.d.Add(item, struct{}{})
	}
	return s
}

// Add adds a member to the set, returning 1 if it was newly added, 0 if
// it was already present.
func (s *Set) Add(member string) int {
	if s.d.Add(member, struct{}{}) {
		return 1
	}
	return 0
}

// AddMultiple adds members, returning the count newly added.
func (s *Set) AddMultiple(members []string) int {
	added := 0
	for _, member := range members {
		if s.d.Add(member, struct{}{}) {
			added++
		}
	}
	return added
}

// Remove removes a member, reporting whether it was present.
func (s *Set) Remove(member string) bool {
	return s.d.Delete(member)
}

// RemoveMultiple removes members, returning the count actually removed.
func (s *Set) RemoveMultiple(members []string) int {
	removed := 0
	for _, member := range members {
		if s.d.Delete(member) {
			removed++
		}
	}
	return removed
}

// Contains reports whether member is in the set.
func (s *Set) Contains(member string) bool {
	return s.d.Exists(member)
}

// ContainsMultiple reports membership of several members at once, 1 for
// present and 0 for absent, in the same order as members.
func (s *Set) ContainsMultiple(members []string) []int {
	result := make([]int, len(members))
	for i, member := range members {
		if s.d.Exists(member) {
			result[i] = 1
		}
	}
	return result
}

// Len returns the number of members.
func (s *Set) Len() int { return s.d.Len() }

// Members returns all members, in no particular order.
func (s *Set) Members() []string { return s.ToSlice() }

// Pop removes and returns a uniformly-chosen member.
func (s *Set) Pop() (string, bool) {
	e, ok := s.d.RandomEntry()
	if !ok {
		return "", false
	}
	member := e.Key().(string)
	s.d.Delete(member)
	return member, true
}

// PopMultiple removes and returns up to count members, chosen via the
// dict's best-effort sampler (spec §4.2.5's someKeys).
func (s *Set) PopMultiple(count int) []string {
	entries := s.d.SomeKeys(count)
	result := make([]string, 0, len(entries))
	for _, e := range entries {
		member := e.Key().(string)
		result = append(result, member)
		s.d.Delete(member)
	}
	return result
}

// RandomMember returns a uniformly-chosen member without removing it.
func (s *Set) RandomMember() (string, bool) {
	e, ok := s.d.RandomEntry()
	if !ok {
		return "", false
	}
	return e.Key().(string), true
}

// RandomMembers returns count members, possibly with repeats, sampled
// via RandomEntry.
func (s *Set) RandomMembers(count int) []string {
	if s.d.Len() == 0 || count <= 0 {
		return nil
	}
	result := make([]string, count)
	for i := range result {
		e, _ := s.d.RandomEntry()
		result[i] = e.Key().(string)
	}
	return result
}

// RandomMembersDistinct returns up to count distinct members, via the
// dict's best-effort sampler.
func (s *Set) RandomMembersDistinct(count int) []string {
	entries := s.d.SomeKeys(count)
	result := make([]string, len(entries))
	for i, e := range entries {
		result[i] = e.Key().(string)
	}
	return result
}

// MoveTo moves member from s to dest, reporting whether it was moved.
// Fails without effect if member is absent from s or already present in
// dest.
func (s *Set) MoveTo(member string, dest *Set) bool {
	if !s.d.Exists(member) {
		return false
	}
	if dest.d.Exists(member) {
		return false
	}
	s.d.Delete(member)
	dest.d.Add(member, struct{}{})
	return true
}

// Diff returns members present in s but absent from every set in others.
func (s *Set) Diff(others []*Set) []string {
	result := make([]string, 0)
	it := s.d.NewIterator()
	for e := it.Next(); e != nil; e = it.Next() {
		member := e.Key().(string)
		found := false
		for _, other := range others {
			if other.d.Exists(member) {
				found = true
				break
			}
		}
		if !found {
			result = append(result, member)
		}
	}
	it.Release()
	return result
}

// Intersect returns members present in s and every set in others.
func (s *Set) Intersect(others []*Set) []string {
	result := make([]string, 0)
	it := s.d.NewIterator()
	for e := it.Next(); e != nil; e = it.Next() {
		member := e.Key().(string)
		inAll := true
		for _, other := range others {
			if !other.d.Exists(member) {
				inAll = false
				break
			}
		}
		if inAll {
			result = append(result, member)
		}
	}
	it.Release()
	return result
}

// Union returns the union of s and every set in others, each member
// appearing once.
func (s *Set) Union(others []*Set) []string {
	seen := make(map[string]struct{})
	result := make([]string, 0)

	collect := func(set *Set) {
		it := set.d.NewIterator()
		for e := it.Next(); e != nil; e = it.Next() {
			member := e.Key().(string)
			if _, ok := seen[member]; !ok {
				seen[member] = struct{}{}
				result = append(result, member)
			}
		}
		it.Release()
	}

	collect(s)
	for _, other := range others {
		collect(other)
	}
	return result
}

// IsSubset reports whether every member of s is also in other.
func (s *Set) IsSubset(other *Set) bool {
	if s.d.Len() > other.d.Len() {
		return false
	}
	it := s.d.NewIterator()
	defer it.Release()
	for e := it.Next(); e != nil; e = it.Next() {
		if !other.d.Exists(e.Key().(string)) {
			return false
		}
	}
	return true
}

// Clear removes all members.
func (s *Set) Clear() {
	s.d.Clear(nil)
}

// Scan resumes a cursor-based walk of the set's members, returning up to
// count members and the cursor to pass on the next call.
func (s *Set) Scan(cursor uint64, count int) (uint64, []string) {
	var members []string
	next := s.d.Scan(cursor, nil, func(priv any, e *dict.Entry) {
		if count <= 0 || len(members) < count {
			members = append(members, e.Key().(string))
		}
	})
	return next, members
}

// Copy returns a shallow copy of the set.
func (s *Set) Copy() *Set {
	newSet := &Set{d: dict.New(memberType(), nil), encoding: s.encoding}
	it := s.d.NewIterator()
	for e := it.Next(); e != nil; e = it.Next() {
		newSet.d.Add(e.Key().(string), struct{}{})
	}
	it.Release()
	return newSet
}

// Encoding returns the set's encoding tag.
func (s *Set) Encoding() SetEncoding { return s.encoding }

// Size returns the approximate memory footprint of the set's members.
func (s *Set) Size() int64 {
	size := int64(0)
	it := s.d.NewIterator()
	for e := it.Next(); e != nil; e = it.Next() {
		size += int64(len(e.Key().(string)))
	}
	it.Release()
	size += int64(s.d.Len()) * 16
	return size
}

// ToSlice returns all members as a slice.
func (s *Set) ToSlice() []string {
	result := make([]string, 0, s.d.Len())
	it := s.d.NewIterator()
	for e := it.Next(); e != nil; e = it.Next() {
		result = append(result, e.Key().(string))
	}
	it.Release()
	return result
}
