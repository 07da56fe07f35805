// SPDX-License-Identifier: MIT
//
// Copyright (c) 2025 Aaron LI
//
// IP tree: a text-keyed wrapper around the radix core with per-entry
// data, one address family per tree, and entries that safely outlive
// their backing nodes.
//

package iptree

import (
	"errors"

	"ipradix/radix"
)

var (
	ErrNoSuchPrefix = errors.New("no such prefix")
	ErrMixedFamily  = errors.New("mixing IPv4 and IPv6 in a single tree is not supported")
)

// Tree stores textual prefixes ("addr" or "addr/len") in a radix tree
// and hands out an Entry per stored prefix. The first Add fixes the
// tree's address family; a v4 and a v6 prefix with matching high bits
// would otherwise alias each other.
//
// NOTE: Like the underlying radix.Tree, this structure does no internal
// locking; the consumer serializes access when needed.
type Tree struct {
	rt     *radix.Tree
	family radix.Family // zero until the first Add
}

// New returns an empty tree.
func New() *Tree {
	return &Tree{rt: radix.New()}
}

// Entry is the caller-facing handle for one stored prefix. It duplicates
// the prefix's identity so it stays usable as a plain value after the
// backing node is removed or the tree is closed; Node() reports nil once
// detached.
type Entry struct {
	node *radix.Node

	Network   string
	Prefix    string
	PrefixLen int
	Family    radix.Family

	// Data carries arbitrary caller attributes.
	Data map[string]any
}

func newEntry(node *radix.Node) *Entry {
	p := node.Prefix()
	return &Entry{
		node:      node,
		Network:   p.NetworkString(),
		Prefix:    p.String(),
		PrefixLen: p.Bitlen(),
		Family:    p.Family(),
		Data:      make(map[string]any),
	}
}

// Node returns the backing radix node, or nil when the entry has been
// detached by Delete or Close.
func (e *Entry) Node() *radix.Node { return e.node }

func (e *Entry) detach() { e.node = nil }

// Add stores the prefix and returns its entry. Adding a prefix that is
// already stored returns the existing entry unchanged.
func (t *Tree) Add(s string) (*Entry, error) {
	prefix, err := radix.ParsePrefix(s)
	if err != nil {
		return nil, err
	}
	if t.family == 0 {
		t.family = prefix.Family()
	} else if prefix.Family() != t.family {
		return nil, ErrMixedFamily
	}

	node := t.rt.Lookup(prefix)
	if node.Data == nil {
		node.Data = newEntry(node)
	}
	return node.Data.(*Entry), nil
}

// Delete removes the prefix from the tree. The entry returned by Add
// stays valid as an inert value but no longer references the tree.
// Returns ErrNoSuchPrefix when the prefix is not stored.
func (t *Tree) Delete(s string) error {
	prefix, err := radix.ParsePrefix(s)
	if err != nil {
		return err
	}
	node := t.rt.SearchExact(prefix)
	if node == nil {
		return ErrNoSuchPrefix
	}

	if e, ok := node.Data.(*Entry); ok {
		e.detach()
	}
	node.Data = nil
	t.rt.Remove(node)
	return nil
}

// SearchExact returns the entry stored for exactly this prefix, or nil.
// The error is non-nil only for unparsable input.
func (t *Tree) SearchExact(s string) (*Entry, error) {
	prefix, err := radix.ParsePrefix(s)
	if err != nil {
		return nil, err
	}
	node := t.rt.SearchExact(prefix)
	if node == nil || node.Data == nil {
		return nil, nil
	}
	return node.Data.(*Entry), nil
}

// SearchBest returns the entry of the longest stored prefix containing
// the query, or nil. The error is non-nil only for unparsable input.
func (t *Tree) SearchBest(s string) (*Entry, error) {
	prefix, err := radix.ParsePrefix(s)
	if err != nil {
		return nil, err
	}
	node := t.rt.SearchBest(prefix)
	if node == nil || node.Data == nil {
		return nil, nil
	}
	return node.Data.(*Entry), nil
}

// Nodes returns every stored entry, in tree walk order.
func (t *Tree) Nodes() []*Entry {
	entries := []*Entry{}
	t.rt.Walk(func(n *radix.Node) bool {
		if e, ok := n.Data.(*Entry); ok {
			entries = append(entries, e)
		}
		return true
	})
	return entries
}

// Len returns the number of stored prefixes.
func (t *Tree) Len() int {
	n := 0
	t.rt.Walk(func(*radix.Node) bool { n++; return true })
	return n
}

// Close tears down the tree and detaches every entry. The tree must not
// be used afterwards; detached entries remain usable as plain values.
func (t *Tree) Close() {
	t.rt.Clear(func(n *radix.Node) {
		if e, ok := n.Data.(*Entry); ok {
			e.detach()
		}
	})
}
