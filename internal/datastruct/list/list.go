// Copyright 2024 The Godis Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package list implements a generic doubly linked list of opaque values,
// customized by caller-supplied duplicator, comparator, and destructor
// callbacks. It is the ordered container with pluggable value ownership,
// matching the role adlist.c plays for Redis; in this module its direct
// user is cmd/dictkv-shell (the hash/set wrappers and the eviction sampler
// are built on the dict package instead).
package list

// Callbacks customizes a List's value ownership. A nil field falls back to
// the identity behavior documented on each field; this is the "capability
// record" spec design note 9 calls for in place of subclassing.
type Callbacks struct {
	// Dup duplicates a value for List.Duplicate. If nil, duplication is
	// shallow: the new list shares the same value pointers as the source.
	Dup func(value any) (any, bool)

	// Free is invoked exactly once per value on node removal and on list
	// destruction. If nil, values are not freed.
	Free func(value any)

	// Match reports whether value equals key, used by SearchKey. If nil,
	// SearchKey falls back to pointer/interface equality (value == key).
	Match func(value any, key any) bool
}

// Node is one link of the list. Prev/Next form the doubly linked chain;
// head.Prev and tail.Next are always nil.
type Node struct {
	Value any
	prev  *Node
	next  *Node
}

// Prev returns the previous node, or nil at the head.
func (n *Node) Prev() *Node { return n.prev }

// Next returns the next node, or nil at the tail.
func (n *Node) Next() *Node { return n.next }

// List is a doubly linked list of opaque values. The zero value is not
// ready for use; construct one with New.
type List struct {
	head, tail *Node
	length     int
	callbacks  Callbacks
}

// New creates an empty list with no callbacks (shallow duplication, no
// freeing, pointer-equality search). O(1).
func New() *List {
	return &List{}
}

// NewWithCallbacks creates an empty list using the given callbacks.
func NewWithCallbacks(cb Callbacks) *List {
	return &List{callbacks: cb}
}

// SetCallbacks replaces the list's callback set.
func (l *List) SetCallbacks(cb Callbacks) { l.callbacks = cb }

// Len returns the number of nodes in the list. O(1).
func (l *List) Len() int { return l.length }

// Front returns the head node, or nil if the list is empty.
func (l *List) Front() *Node { return l.head }

// Back returns the tail node, or nil if the list is empty.
func (l *List) Back() *Node { return l.tail }

// Empty removes all nodes, invoking Free on each value if set. The list
// itself remains usable afterward with length 0. O(n).
func (l *List) Empty() {
	node := l.head
	for node != nil {
		next := node.next
		if l.callbacks.Free != nil {
			l.callbacks.Free(node.Value)
		}
		node.prev = nil
		node.next = nil
		node = next
	}
	l.head = nil
	l.tail = nil
	l.length = 0
}

// Release empties the list and drops its internal state. After Release the
// List value should not be reused; construct a new one instead.
func (l *List) Release() {
	l.Empty()
}

// Prepend inserts value at the head of the list in O(1). Returns the new
// node. Go's allocator cannot fail the way spec's allocator wrapper can, so
// Prepend never returns a failure sentinel; the contract is preserved by
// always returning a valid node.
func (l *List) Prepend(value any) *Node {
	node := &Node{Value: value}
	if l.head == nil {
		l.head = node
		l.tail = node
	} else {
		node.next = l.head
		l.head.prev = node
		l.head = node
	}
	l.length++
	return node
}

// Append inserts value at the tail of the list in O(1). Returns the new node.
func (l *List) Append(value any) *Node {
	node := &Node{Value: value}
	if l.tail == nil {
		l.head = node
		l.tail = node
	} else {
		node.prev = l.tail
		l.tail.next = node
		l.tail = node
	}
	l.length++
	return node
}

// Insert splices a new node holding value before or after anchor in O(1).
// anchor must belong to l. Updates head/tail when anchor sits at a boundary.
func (l *List) Insert(anchor *Node, value any, after bool) *Node {
	node := &Node{Value: value}

	if after {
		node.prev = anchor
		node.next = anchor.next
		if l.tail == anchor {
			l.tail = node
		}
	} else {
		node.next = anchor
		node.prev = anchor.prev
		if l.head == anchor {
			l.head = node
		}
	}

	if node.prev != nil {
		node.prev.next = node
	}
	if node.next != nil {
		node.next.prev = node
	}

	l.length++
	return node
}

// Delete unlinks node, invoking Free on its value if set, in O(1). node
// must belong to l.
func (l *List) Delete(node *Node) {
	if node.prev != nil {
		node.prev.next = node.next
	} else {
		l.head = node.next
	}
	if node.next != nil {
		node.next.prev = node.prev
	} else {
		l.tail = node.prev
	}

	if l.callbacks.Free != nil {
		l.callbacks.Free(node.Value)
	}

	node.prev = nil
	node.next = nil
	l.length--
}

// Direction selects the traversal order of an Iterator.
type Direction int

const (
	// HeadToTail walks from the head toward the tail.
	HeadToTail Direction = iota
	// TailToHead walks from the tail toward the head.
	TailToHead
)

// Iterator walks a List in one direction. It caches the next node before
// returning the current one, so deleting the node just returned by Next via
// List.Delete is safe; deleting any other node during iteration is
// undefined, matching spec §4.1.
type Iterator struct {
	next      *Node
	direction Direction
}

// NewIterator creates an iterator over l in the given direction, positioned
// at the first element for that direction.
func (l *List) NewIterator(direction Direction) *Iterator {
	it := &Iterator{direction: direction}
	if direction == HeadToTail {
		it.next = l.head
	} else {
		it.next = l.tail
	}
	return it
}

// Rewind repositions it at the head of l for forward iteration.
func (it *Iterator) Rewind(l *List) {
	it.next = l.head
	it.direction = HeadToTail
}

// RewindTail repositions it at the tail of l for reverse iteration.
func (it *Iterator) RewindTail(l *List) {
	it.next = l.tail
	it.direction = TailToHead
}

// Next returns the next node in the iteration, or nil when exhausted.
func (it *Iterator) Next() *Node {
	cur := it.next
	if cur != nil {
		if it.direction == HeadToTail {
			it.next = cur.next
		} else {
			it.next = cur.prev
		}
	}
	return cur
}

// ReleaseIterator exists for symmetry with spec's releaseIterator; Iterator
// holds no external resources, so this is a no-op.
func (it *Iterator) ReleaseIterator() {}

// Duplicate deep-copies l if Dup is set, else performs a shallow copy that
// shares the source's value pointers. The new list carries the same
// callbacks as l. If Dup fails on any node, the partially built copy is
// released and (nil, false) is returned, matching spec's rollback contract.
func (l *List) Duplicate() (*List, bool) {
	out := &List{callbacks: l.callbacks}

	for node := l.head; node != nil; node = node.next {
		value := node.Value
		if l.callbacks.Dup != nil {
			dup, ok := l.callbacks.Dup(node.Value)
			if !ok {
				out.Empty()
				return nil, false
			}
			value = dup
		}
		out.Append(value)
	}

	return out, true
}

// SearchKey returns the first node for which Match(node.Value, key) holds
// (or node.Value == key if Match is unset), scanning from the head. O(n).
func (l *List) SearchKey(key any) *Node {
	for node := l.head; node != nil; node = node.next {
		if l.callbacks.Match != nil {
			if l.callbacks.Match(node.Value, key) {
				return node
			}
		} else if node.Value == key {
			return node
		}
	}
	return nil
}

// Index returns the node at position i: i >= 0 counts from the head, i < 0
// counts from the tail (-1 is the last node). Returns nil if i is out of
// range. O(n).
func (l *List) Index(i int) *Node {
	if i >= 0 {
		node := l.head
		for ; i > 0 && node != nil; i-- {
			node = node.next
		}
		return node
	}

	node := l.tail
	for i = -i - 1; i > 0 && node != nil; i-- {
		node = node.prev
	}
	return node
}

// Rotate detaches the tail node and prepends it as the new head. No-op for
// length <= 1. O(1).
func (l *List) Rotate() {
	if l.length <= 1 {
		return
	}

	tail := l.tail
	l.tail = tail.prev
	l.tail.next = nil

	tail.prev = nil
	tail.next = l.head
	l.head.prev = tail
	l.head = tail
}

// Join splices all of other onto the end of l. other is left empty but
// valid (its callbacks are preserved) and its length becomes 0. l's length
// becomes the sum of both. Callers are responsible for other and l sharing
// compatible value-ownership semantics.
func (l *List) Join(other *List) {
	if other.length == 0 {
		return
	}

	if l.tail == nil {
		l.head = other.head
		l.tail = other.tail
	} else {
		l.tail.next = other.head
		other.head.prev = l.tail
		l.tail = other.tail
	}

	l.length += other.length

	other.head = nil
	other.tail = nil
	other.length = 0
}
