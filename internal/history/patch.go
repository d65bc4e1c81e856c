// internal/history/patch.go
package history

import (
	"slices"
	"sort"
)

// OpKind names a structural edit on an ordered collection
type OpKind string

const (
	OpRemove OpKind = "remove" // drop Count items starting at Index
	OpInsert OpKind = "insert" // insert Items at Index
	OpMove   OpKind = "move"   // take the item at Index and reinsert it at To
)

// Op is one edit. Indices refer to the collection as it stands after every
// preceding op of the same patch has been applied.
type Op[T any] struct {
	Kind  OpKind `json:"kind"`
	Index int    `json:"index"`
	To    int    `json:"to,omitempty"`
	Count int    `json:"count,omitempty"`
	Items []T    `json:"items,omitempty"`
}

// Patch is an ordered list of edits that turns a later version of a
// collection back into an earlier one
type Patch[T any] []Op[T]

// Empty reports whether applying the patch changes nothing
func (p Patch[T]) Empty() bool {
	return len(p) == 0
}

type cloner[T any] interface {
	Clone() T
}

// cloneItem deep-copies items that know how to clone themselves
func cloneItem[T any](v T) T {
	if c, ok := any(v).(cloner[T]); ok {
		return c.Clone()
	}
	return v
}

// Revert applies p to items and returns the reconstructed collection.
// The input slice is never modified. The patch must have been computed
// against exactly this version of the collection.
func Revert[T any](items []T, p Patch[T]) []T {
	out := make([]T, len(items))
	copy(out, items)

	for _, op := range p {
		switch op.Kind {
		case OpRemove:
			out = slices.Delete(out, op.Index, op.Index+op.Count)
		case OpInsert:
			inserted := make([]T, len(op.Items))
			for i, item := range op.Items {
				inserted[i] = cloneItem(item)
			}
			out = slices.Insert(out, op.Index, inserted...)
		case OpMove:
			item := out[op.Index]
			out = slices.Delete(out, op.Index, op.Index+1)
			out = slices.Insert(out, op.To, item)
		}
	}
	return out
}

// compareKeyed computes the patch that turns next back into prior, matching
// items by key. Ops are emitted in three phases: removals of items prior never
// had, moves that restore the prior relative order of shared items, and
// insertions of items next dropped.
func compareKeyed[T any, K comparable](prior, next []T, key func(T) K) Patch[T] {
	priorKeys := make(map[K]bool, len(prior))
	for _, item := range prior {
		priorKeys[key(item)] = true
	}
	nextKeys := make(map[K]bool, len(next))
	for _, item := range next {
		nextKeys[key(item)] = true
	}

	var patch Patch[T]

	// Back to front, so earlier indices stay valid while removing.
	for i := len(next) - 1; i >= 0; i-- {
		if priorKeys[key(next[i])] {
			continue
		}
		start := i
		for start > 0 && !priorKeys[key(next[start-1])] {
			start--
		}
		patch = append(patch, Op[T]{Kind: OpRemove, Index: start, Count: i - start + 1})
		i = start
	}

	working := make([]K, 0, len(next))
	for _, item := range next {
		if k := key(item); priorKeys[k] {
			working = append(working, k)
		}
	}
	target := make([]K, 0, len(working))
	for _, item := range prior {
		if k := key(item); nextKeys[k] {
			target = append(target, k)
		}
	}
	patch = append(patch, planMoves[T](working, target)...)

	for i := 0; i < len(prior); {
		if nextKeys[key(prior[i])] {
			i++
			continue
		}
		var items []T
		j := i
		for j < len(prior) && !nextKeys[key(prior[j])] {
			items = append(items, cloneItem(prior[j]))
			j++
		}
		patch = append(patch, Op[T]{Kind: OpInsert, Index: i, Items: items})
		i = j
	}

	return patch
}

// planMoves reorders working into target (same keys, different order).
// Keys on a longest increasing run stay put; each other key is moved once,
// directly behind its predecessor in target.
func planMoves[T any, K comparable](working, target []K) Patch[T] {
	rank := make(map[K]int, len(target))
	for i, k := range target {
		rank[k] = i
	}
	seq := make([]int, len(working))
	for i, k := range working {
		seq[i] = rank[k]
	}
	stable := make(map[K]bool, len(working))
	for _, i := range longestIncreasing(seq) {
		stable[working[i]] = true
	}

	var patch Patch[T]
	current := slices.Clone(working)
	for t, k := range target {
		if stable[k] {
			continue
		}
		from := slices.Index(current, k)
		current = slices.Delete(current, from, from+1)
		to := 0
		if t > 0 {
			to = slices.Index(current, target[t-1]) + 1
		}
		current = slices.Insert(current, to, k)
		if from != to {
			patch = append(patch, Op[T]{Kind: OpMove, Index: from, To: to})
		}
	}
	return patch
}

// longestIncreasing returns the positions in seq of one longest strictly
// increasing subsequence
func longestIncreasing(seq []int) []int {
	if len(seq) == 0 {
		return nil
	}

	tails := make([]int, 0, len(seq))
	prev := make([]int, len(seq))
	for i, v := range seq {
		l := sort.Search(len(tails), func(j int) bool {
			return seq[tails[j]] >= v
		})
		prev[i] = -1
		if l > 0 {
			prev[i] = tails[l-1]
		}
		if l == len(tails) {
			tails = append(tails, i)
		} else {
			tails[l] = i
		}
	}

	out := make([]int, len(tails))
	k := tails[len(tails)-1]
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = k
		k = prev[k]
	}
	return out
}
