// Package match pairs up items of two ordered sequences by an identity key.
//
// Matching is exact string equality on the key, without normalization. Items
// whose key is absent never match and are always reported as added or removed.
// When a key occurs more than once on one side the last occurrence wins and the
// key is reported once, at the position of its first occurrence.
package match

import (
	"mftfcheck/internal/registry"
)

// KeyFunc returns an item's identity and whether it declares one.
type KeyFunc[T any] func(T) (string, bool)

// Pair is one item present on both sides.
type Pair[T any] struct {
	Key    string
	Before T
	After  T
}

// Result is the outcome of matching before against after.
type Result[T any] struct {
	Removed []T
	Added   []T
	Matched []Pair[T]
	// Duplicates lists identity values declared more than once on either side.
	Duplicates []string
}

// Changed reports whether anything was added or removed.
func (r Result[T]) Changed() bool {
	return len(r.Removed) > 0 || len(r.Added) > 0
}

// ByKey matches before against after in a single pass over each sequence.
func ByKey[T any](before, after []T, key KeyFunc[T]) Result[T] {
	var res Result[T]
	dups := make(map[string]bool)

	afterIdx := index(after, key, dups)
	beforeIdx := index(before, key, dups)

	emitted := make(map[string]bool, len(beforeIdx))
	for _, item := range before {
		k, ok := key(item)
		if !ok {
			res.Removed = append(res.Removed, item)
			continue
		}
		if emitted[k] {
			continue
		}
		emitted[k] = true
		last := before[beforeIdx[k]]
		if j, found := afterIdx[k]; found {
			res.Matched = append(res.Matched, Pair[T]{Key: k, Before: last, After: after[j]})
		} else {
			res.Removed = append(res.Removed, last)
		}
	}

	for _, item := range after {
		k, ok := key(item)
		if !ok {
			res.Added = append(res.Added, item)
			continue
		}
		if _, inBefore := beforeIdx[k]; inBefore || emitted[k] {
			continue
		}
		emitted[k] = true
		res.Added = append(res.Added, after[afterIdx[k]])
	}

	for _, item := range append(before[:len(before):len(before)], after...) {
		if k, ok := key(item); ok && dups[k] {
			res.Duplicates = append(res.Duplicates, k)
			dups[k] = false
		}
	}
	return res
}

// index maps each key to the position of its last occurrence and marks keys
// seen more than once in dups.
func index[T any](items []T, key KeyFunc[T], dups map[string]bool) map[string]int {
	idx := make(map[string]int, len(items))
	for i, item := range items {
		k, ok := key(item)
		if !ok {
			continue
		}
		if _, seen := idx[k]; seen {
			dups[k] = true
		}
		idx[k] = i
	}
	return idx
}

// Reordered reports whether the keys present on both sides appear in a
// different relative order. Each key is placed at its first occurrence.
func Reordered[T any](before, after []T, key KeyFunc[T]) bool {
	afterKeys := orderedKeys(after, key)
	inAfter := make(map[string]bool, len(afterKeys))
	for _, k := range afterKeys {
		inAfter[k] = true
	}

	var common []string
	inBefore := make(map[string]bool)
	for _, k := range orderedKeys(before, key) {
		inBefore[k] = true
		if inAfter[k] {
			common = append(common, k)
		}
	}

	i := 0
	for _, k := range afterKeys {
		if !inBefore[k] {
			continue
		}
		if common[i] != k {
			return true
		}
		i++
	}
	return false
}

func orderedKeys[T any](items []T, key KeyFunc[T]) []string {
	seen := make(map[string]bool, len(items))
	var keys []string
	for _, item := range items {
		k, ok := key(item)
		if !ok || seen[k] {
			continue
		}
		seen[k] = true
		keys = append(keys, k)
	}
	return keys
}

// ElementKey returns a KeyFunc reading the identity attribute attr of an element.
func ElementKey(attr string) KeyFunc[registry.Element] {
	return func(e registry.Element) (string, bool) {
		return e.Identity(attr)
	}
}

// Elements matches the elements carrying tag by the identity attribute attr.
// An empty tag matches elements of every tag together.
func Elements(before, after []registry.Element, tag, attr string) Result[registry.Element] {
	if tag != "" {
		before = withTag(before, tag)
		after = withTag(after, tag)
	}
	return ByKey(before, after, ElementKey(attr))
}

func withTag(elems []registry.Element, tag string) []registry.Element {
	out := make([]registry.Element, 0, len(elems))
	for _, e := range elems {
		if e.Tag == tag {
			out = append(out, e)
		}
	}
	return out
}
