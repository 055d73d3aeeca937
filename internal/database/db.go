// Copyright 2024 The Godis Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package database

import (
	"fmt"
	"time"

	"github.com/zyhnesmr/dictkv/internal/datastruct/dict"
	"github.com/zyhnesmr/dictkv/internal/eviction"
	"github.com/zyhnesmr/dictkv/pkg/hashfn"
)

// DirtyKeyCallback is called when a key is modified
type DirtyKeyCallback func(key string)

func keyType() *dict.TypeDescriptor {
	return &dict.TypeDescriptor{
		Hash:   func(key any) uint64 { return hashfn.Sum64([]byte(key.(string)), dict.HashSeed()) },
		CmpKey: func(priv any, a, b any) bool { return a.(string) == b.(string) },
	}
}

// DB represents a single keyspace, a dict.Dict of live keys plus a
// companion dict.Dict of expiration deadlines. It carries no lock of its
// own: per spec §5's single-owner concurrency model, all DB methods are
// called only from internal/command.Dispatcher's loop goroutine.
type DB struct {
	id      int
	dict    *dict.Dict
	expires *dict.Dict

	dirtyKeyCallback DirtyKeyCallback
}

// NewDB creates a new database.
func NewDB(id int) *DB {
	return &DB{
		id:      id,
		dict:    dict.New(keyType(), nil),
		expires: dict.New(keyType(), nil),
	}
}

// SetDirtyKeyCallback sets the callback for marking dirty keys
func (db *DB) SetDirtyKeyCallback(cb DirtyKeyCallback) {
	db.dirtyKeyCallback = cb
}

// markDirty marks a key as dirty (modified)
func (db *DB) markDirty(key string) {
	if db.dirtyKeyCallback != nil {
		db.dirtyKeyCallback(key)
	}
}

// GetID returns the database ID
func (db *DB) GetID() int {
	return db.id
}

// allKeys walks the main dict and returns every key currently stored,
// including ones pending lazy expiration.
func (db *DB) allKeys() []string {
	keys := make([]string, 0, db.dict.Len())
	it := db.dict.NewIterator()
	for e := it.Next(); e != nil; e = it.Next() {
		keys = append(keys, e.Key().(string))
	}
	it.Release()
	return keys
}

// Get returns the value for a key, with lazy expiration on access
func (db *DB) Get(key string) (*Object, bool) {
	v, ok := db.dict.Find(key)
	if !ok {
		return nil, false
	}

	if db.isExpired(key) {
		db.dict.Delete(key)
		db.expires.Delete(key)
		return nil, false
	}

	return v.(*Object), true
}

// Set sets a key-value pair
func (db *DB) Set(key string, value *Object) {
	if db.isExpired(key) {
		db.expires.Delete(key)
	}
	db.dict.Replace(key, value)
	db.markDirty(key)
}

// SetNX sets a key-value pair only if key doesn't exist
func (db *DB) SetNX(key string, value *Object) bool {
	if db.dict.Exists(key) && !db.isExpired(key) {
		return false
	}
	if db.isExpired(key) {
		db.expires.Delete(key)
	}
	db.dict.Replace(key, value)
	db.markDirty(key)
	return true
}

// SetXX sets a key-value pair only if key exists
func (db *DB) SetXX(key string, value *Object) bool {
	if !db.dict.Exists(key) || db.isExpired(key) {
		return false
	}
	db.dict.Replace(key, value)
	db.markDirty(key)
	return true
}

// Delete removes keys from the database
func (db *DB) Delete(keys ...string) int {
	deleted := 0
	for _, key := range keys {
		if db.dict.Delete(key) {
			db.expires.Delete(key)
			deleted++
			db.markDirty(key)
		}
	}
	return deleted
}

// Exists checks if keys exist
func (db *DB) Exists(keys ...string) int {
	count := 0
	for _, key := range keys {
		if db.dict.Exists(key) && !db.isExpired(key) {
			count++
		}
	}
	return count
}

// Type returns the type of a key
func (db *DB) Type(key string) string {
	if v, ok := db.dict.Find(key); ok && !db.isExpired(key) {
		if o, ok := v.(*Object); ok {
			return o.Type.String()
		}
	}
	return "none"
}

// Keys returns all keys matching a pattern
func (db *DB) Keys(pattern string) []string {
	all := db.allKeys()

	if pattern == "*" {
		result := make([]string, 0, len(all))
		for _, key := range all {
			if !db.isExpired(key) {
				result = append(result, key)
			}
		}
		return result
	}

	result := make([]string, 0)
	for _, key := range all {
		if !db.isExpired(key) && matchPattern(key, pattern) {
			result = append(result, key)
		}
	}
	return result
}

// RandomKey returns a random key
func (db *DB) RandomKey() (string, bool) {
	for i := 0; i < 100; i++ {
		e, ok := db.dict.RandomEntry()
		if !ok {
			return "", false
		}
		key := e.Key().(string)
		if !db.isExpired(key) {
			return key, true
		}
	}
	return "", false
}

// Rename renames a key
func (db *DB) Rename(key, newKey string) error {
	if key == newKey {
		return nil
	}

	v, ok := db.dict.Find(key)
	if !ok || db.isExpired(key) {
		return fmt.Errorf("no such key")
	}

	var expireTime int64
	if exp, ok := db.expires.Find(key); ok {
		expireTime = exp.(int64)
	}

	db.dict.Delete(key)
	db.expires.Delete(key)

	db.dict.Replace(newKey, v)
	if expireTime > 0 {
		db.expires.Replace(newKey, expireTime)
	} else {
		db.expires.Delete(newKey)
	}

	db.markDirty(key)
	db.markDirty(newKey)
	return nil
}

// RenameNX renames a key only if new key doesn't exist
func (db *DB) RenameNX(key, newKey string) (bool, error) {
	if key == newKey {
		return false, nil
	}

	v, ok := db.dict.Find(key)
	if !ok || db.isExpired(key) {
		return false, fmt.Errorf("no such key")
	}

	if db.dict.Exists(newKey) && !db.isExpired(newKey) {
		return false, nil
	}

	var expireTime int64
	if exp, ok := db.expires.Find(key); ok {
		expireTime = exp.(int64)
	}

	db.dict.Delete(key)
	db.expires.Delete(key)

	db.dict.Replace(newKey, v)
	if expireTime > 0 {
		db.expires.Replace(newKey, expireTime)
	}

	db.markDirty(key)
	db.markDirty(newKey)
	return true, nil
}

// Expire sets an expiration time for a key (in seconds)
func (db *DB) Expire(key string, seconds int) bool {
	if !db.dict.Exists(key) {
		return false
	}
	expireTime := time.Now().Add(time.Duration(seconds) * time.Second).Unix()
	db.expires.Replace(key, expireTime)
	return true
}

// ExpireAt sets an expiration timestamp for a key
func (db *DB) ExpireAt(key string, timestamp int64) bool {
	if !db.dict.Exists(key) {
		return false
	}
	db.expires.Replace(key, timestamp)
	return true
}

// TTL returns the time to live for a key (in seconds)
func (db *DB) TTL(key string) int64 {
	if !db.dict.Exists(key) {
		return -2 // Key doesn't exist
	}

	exp, ok := db.expires.Find(key)
	if !ok {
		return -1 // No expiration
	}

	ttl := exp.(int64) - time.Now().Unix()
	if ttl <= 0 {
		return -2 // Already expired
	}
	return ttl
}

// PTTL returns the time to live for a key (in milliseconds)
func (db *DB) PTTL(key string) int64 {
	ttl := db.TTL(key)
	if ttl < 0 {
		return ttl
	}
	return ttl * 1000
}

// Persist removes the expiration from a key
func (db *DB) Persist(key string) bool {
	if !db.dict.Exists(key) {
		return false
	}
	return db.expires.Delete(key)
}

// DBSize returns the number of keys in the database
func (db *DB) DBSize() int {
	count := 0
	for _, key := range db.allKeys() {
		if !db.isExpired(key) {
			count++
		}
	}
	return count
}

// FlushDB removes all keys from the database
func (db *DB) FlushDB() {
	db.dict.Clear(nil)
	db.expires.Clear(nil)
}

// isExpired checks if a key is expired
func (db *DB) isExpired(key string) bool {
	exp, ok := db.expires.Find(key)
	if !ok {
		return false
	}
	return exp.(int64) <= time.Now().Unix()
}

// matchPattern checks if a key matches a pattern
func matchPattern(key, pattern string) bool {
	if pattern == "*" {
		return true
	}

	if len(pattern) > 1 && pattern[0] == '*' && pattern[len(pattern)-1] == '*' {
		sub := pattern[1 : len(pattern)-1]
		return contains(key, sub)
	}

	if pattern[len(pattern)-1] == '*' {
		prefix := pattern[:len(pattern)-1]
		return len(key) >= len(prefix) && key[:len(prefix)] == prefix
	}

	if pattern[0] == '*' {
		suffix := pattern[1:]
		return len(key) >= len(suffix) && key[len(key)-len(suffix):] == suffix
	}

	return key == pattern
}

func contains(s, substr string) bool {
	return len(s) >= len(substr) && findContains(s, substr)
}

func findContains(s, substr string) bool {
	for i := 0; i <= len(s)-len(substr); i++ {
		match := true
		for j := 0; j < len(substr); j++ {
			if s[i+j] != substr[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// ActiveExpire actively removes up to limit expired keys, walking the
// expires dict directly rather than the (generally larger) main dict.
func (db *DB) ActiveExpire(limit int) int {
	expired := 0
	now := time.Now().Unix()

	var candidates []string
	it := db.expires.NewIterator()
	for e := it.Next(); e != nil; e = it.Next() {
		if e.Value().(int64) <= now {
			candidates = append(candidates, e.Key().(string))
		}
	}
	it.Release()

	for _, key := range candidates {
		if expired >= limit {
			break
		}
		db.dict.Delete(key)
		db.expires.Delete(key)
		expired++
		db.markDirty(key)
	}

	return expired
}

// ScanExpire implements expire.ActiveExpireDB: it runs one active
// expiration pass over this database's expiration index, bounded by
// effort, and reports how many keys it actually reaped. It also budgets
// a sliver of wall-clock time to drive incremental rehashing forward on
// both dicts, so a database that only ever receives reads still finishes
// migrating after a burst of writes instead of relying solely on the
// lazy per-operation step.
func (db *DB) ScanExpire(effort int) int {
	expired := db.ActiveExpire(effort)
	db.dict.RehashMilliseconds(1)
	db.expires.RehashMilliseconds(1)
	return expired
}

// GetExpiresDict returns the expires dictionary
func (db *DB) GetExpiresDict() *dict.Dict {
	return db.expires
}

// GetDict returns the main dictionary
func (db *DB) GetDict() *dict.Dict {
	return db.dict
}

// Scan scans keys with cursor, using the dict's native bit-reversed
// cursor (spec §4.2.6) rather than a flattened-slice offset.
func (db *DB) Scan(cursor int, count int, pattern string) (int, []string) {
	var result []string
	next := db.dict.Scan(uint64(cursor), nil, func(priv any, e *dict.Entry) {
		key := e.Key().(string)
		if !db.isExpired(key) && matchPattern(key, pattern) {
			result = append(result, key)
		}
	})
	return int(next), result
}

// Stats returns database statistics
func (db *DB) Stats() DBStats {
	return DBStats{
		ID:      db.id,
		Keys:    int64(db.dict.Len()),
		Expires: db.expires.Len(),
	}
}

// DBStats holds database statistics
type DBStats struct {
	ID      int
	Keys    int64
	Expires int
}

// ==================== Eviction Support ====================

// GetKeyInfo returns information about a key for eviction decisions
func (db *DB) GetKeyInfo(key string) (*eviction.KeyInfo, bool) {
	v, ok := db.dict.Find(key)
	if !ok || db.isExpired(key) {
		return nil, false
	}

	object, ok := v.(*Object)
	if !ok {
		return nil, false
	}

	var expiresAt int64
	if exp, ok := db.expires.Find(key); ok {
		expiresAt = exp.(int64)
	}

	return &eviction.KeyInfo{
		Key:       key,
		LRU:       object.LRU,
		ExpiresAt: expiresAt,
		Size:      object.Size(),
	}, true
}

// GetRandomKey returns a random key from the database
func (db *DB) GetRandomKey() (string, bool) {
	return db.RandomKey()
}

// GetRandomKeyWithExpiration returns a random key that has an expiration
func (db *DB) GetRandomKeyWithExpiration() (string, bool) {
	e, ok := db.expires.RandomEntry()
	if !ok {
		return "", false
	}
	key := e.Key().(string)
	if db.isExpired(key) || !db.dict.Exists(key) {
		return "", false
	}
	return key, true
}

// GetKeysCount returns the total number of keys in the database
func (db *DB) GetKeysCount() int {
	return db.DBSize()
}

// GetKeysWithExpirationCount returns the number of keys with expiration
func (db *DB) GetKeysWithExpirationCount() int {
	count := 0
	it := db.expires.NewIterator()
	for e := it.Next(); e != nil; e = it.Next() {
		key := e.Key().(string)
		if db.dict.Exists(key) && !db.isExpired(key) {
			count++
		}
	}
	it.Release()
	return count
}

// DeleteForEviction removes a key from the database (for eviction).
func (db *DB) DeleteForEviction(key string) bool {
	if !db.dict.Delete(key) {
		return false
	}
	db.expires.Delete(key)
	return true
}

// DeleteSingle removes a single key from the database (implements eviction.DBAccessor.Delete)
func (db *DB) DeleteSingle(key string) bool {
	return db.DeleteForEviction(key)
}

// GetMemoryUsage returns the approximate memory usage of the database
func (db *DB) GetMemoryUsage() int64 {
	var total int64

	it := db.dict.NewIterator()
	for e := it.Next(); e != nil; e = it.Next() {
		key := e.Key().(string)
		if db.isExpired(key) {
			continue
		}
		if o, ok := e.Value().(*Object); ok {
			total += o.Size()
			total += int64(len(key))
		}
	}
	it.Release()

	total += int64(db.dict.Len()) * 16
	return total
}
