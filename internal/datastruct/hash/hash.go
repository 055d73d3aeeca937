// Copyright 2024 The Godis Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package hash implements the hash field-value container as a thin
// typed wrapper over internal/datastruct/dict, demonstrating the dict
// package's intended role as foundational infrastructure for dependent
// subsystems rather than a single self-contained collection.
package hash

import (
	"strconv"

	"github.com/zyhnesmr/dictkv/internal/datastruct/dict"
	"github.com/zyhnesmr/dictkv/pkg/hashfn"
)

// HashEncoding represents the encoding type of a hash.
type HashEncoding byte

const (
	// HashEncodingHashtable backs the hash with a dict.Dict.
	HashEncodingHashtable HashEncoding = iota
	// HashEncodingZiplist is reserved for a future compact small-hash
	// encoding; not implemented.
	HashEncodingZiplist
)

func fieldType() *dict.TypeDescriptor {
	return &dict.TypeDescriptor{
		Hash:   func(key any) uint64 { return stringHash(key.(string)) },
		CmpKey: func(priv any, a, b any) bool { return a.(string) == b.(string) },
	}
}

func stringHash(s string) uint64 {
	return hashfn.Sum64([]byte(s), dict.HashSeed())
}

// Hash represents a Redis hash data structure: a set of field/value
// string pairs. It carries no lock of its own; callers share the
// single-owner concurrency discipline the rest of the host uses (see
// internal/command.Dispatcher).
type Hash struct {
	d        *dict.Dict
	encoding HashEncoding
}

// NewHash creates an empty hash.
func NewHash() *Hash {
	return &Hash{d: dict.New(fieldType(), nil), encoding: HashEncodingHashtable}
}

// NewHashFromMap creates a hash preloaded from m.
func NewHashFromMap(m map[string]string) *Hash {
	h := NewHash()
	for k, v := range m {
		h.d.Replace(k, v)
	}
	return h
}

// Set sets a field-value pair, returning 1 if the field was newly
// created and 0 if it already existed.
func (h *Hash) Set(field, value string) int {
	if h.d.Replace(field, value) {
		return 1
	}
	return 0
}

// Get returns the value of a field.
func (h *Hash) Get(field string) (string, bool) {
	v, ok := h.d.Find(field)
	if !ok {
		return "", false
	}
	return v.(string), true
}

// MSet sets multiple field-value pairs, returning the count of fields
// that were newly created.
func (h *Hash) MSet(pairs map[string]string) int {
	newFields := 0
	for field, value := range pairs {
		if h.d.Replace(field, value) {
			newFields++
		}
	}
	return newFields
}

// MGet gets multiple field values; absent fields come back as nil.
func (h *Hash) MGet(fields []string) []interface{} {
	result := make([]interface{}, len(fields))
	for i, field := range fields {
		if val, ok := h.d.Find(field); ok {
			result[i] = val
		}
	}
	return result
}

// Del deletes fields, returning the count actually removed.
func (h *Hash) Del(fields ...string) int {
	deleted := 0
	for _, field := range fields {
		if h.d.Delete(field) {
			deleted++
		}
	}
	return deleted
}

// Exists reports whether field is present.
func (h *Hash) Exists(field string) bool {
	return h.d.Exists(field)
}

// Len returns the number of fields.
func (h *Hash) Len() int { return h.d.Len() }

// Keys returns all field names, in no particular order.
func (h *Hash) Keys() []string {
	keys := make([]string, 0, h.d.Len())
	it := h.d.NewIterator()
	for e := it.Next(); e != nil; e = it.Next() {
		keys = append(keys, e.Key().(string))
	}
	it.Release()
	return keys
}

// Vals returns all values, in no particular order.
func (h *Hash) Vals() []string {
	vals := make([]string, 0, h.d.Len())
	it := h.d.NewIterator()
	for e := it.Next(); e != nil; e = it.Next() {
		vals = append(vals, e.Value().(string))
	}
	it.Release()
	return vals
}

// GetAll returns a flat field, value, field, value, ... slice.
func (h *Hash) GetAll() []string {
	result := make([]string, 0, h.d.Len()*2)
	it := h.d.NewIterator()
	for e := it.Next(); e != nil; e = it.Next() {
		result = append(result, e.Key().(string), e.Value().(string))
	}
	it.Release()
	return result
}

// GetAllMap returns all field-value pairs as a map.
func (h *Hash) GetAllMap() map[string]string {
	result := make(map[string]string, h.d.Len())
	it := h.d.NewIterator()
	for e := it.Next(); e != nil; e = it.Next() {
		result[e.Key().(string)] = e.Value().(string)
	}
	it.Release()
	return result
}

// IncrBy parses field as an integer, adds delta, and stores the result.
func (h *Hash) IncrBy(field string, delta int64) (int64, error) {
	entry := h.d.AddOrFind(field)
	if entry.Value() == nil {
		entry.SetValue(strconv.FormatInt(delta, 10))
		return delta, nil
	}

	current, err := strconv.ParseInt(entry.Value().(string), 10, 64)
	if err != nil {
		return 0, err
	}

	newVal := current + delta
	entry.SetValue(strconv.FormatInt(newVal, 10))
	return newVal, nil
}

// IncrByFloat parses field as a float, adds delta, and stores the result.
func (h *Hash) IncrByFloat(field string, delta float64) (float64, error) {
	entry := h.d.AddOrFind(field)
	if entry.Value() == nil {
		entry.SetValue(strconv.FormatFloat(delta, 'f', -1, 64))
		return delta, nil
	}

	current, err := strconv.ParseFloat(entry.Value().(string), 64)
	if err != nil {
		return 0, err
	}

	newVal := current + delta
	entry.SetValue(strconv.FormatFloat(newVal, 'f', -1, 64))
	return newVal, nil
}

// RandomField returns a uniformly-chosen field, via the dict's sampling
// primitive (spec §4.2.5).
func (h *Hash) RandomField() (string, bool) {
	e, ok := h.d.RandomEntry()
	if !ok {
		return "", false
	}
	return e.Key().(string), true
}

// Scan resumes a cursor-based walk of the hash's fields, returning up to
// count field names and the cursor to pass on the next call (0 once
// exhausted). It is a direct pass-through to the dict's bit-reversed
// cursor scan (spec §4.2.6); pattern filtering, if any, is the caller's
// responsibility.
func (h *Hash) Scan(cursor uint64, count int) (uint64, []string) {
	var keys []string
	next := h.d.Scan(cursor, nil, func(priv any, e *dict.Entry) {
		if count <= 0 || len(keys) < count {
			keys = append(keys, e.Key().(string))
		}
	})
	return next, keys
}

// StrLen returns the length of a field's value, or 0 if absent.
func (h *Hash) StrLen(field string) int {
	if val, ok := h.Get(field); ok {
		return len(val)
	}
	return 0
}

// Encoding returns the hash's encoding tag.
func (h *Hash) Encoding() HashEncoding { return h.encoding }

// Size returns the approximate memory footprint of the hash's field and
// value strings.
func (h *Hash) Size() int64 {
	size := int64(0)
	it := h.d.NewIterator()
	for e := it.Next(); e != nil; e = it.Next() {
		size += int64(len(e.Key().(string)) + len(e.Value().(string)))
	}
	it.Release()
	size += int64(h.d.Len()) * 16
	return size
}
