// Copyright 2025 Harald Albrecht.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not
// use this file except in compliance with the License. You may obtain a copy
// of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS, WITHOUT
// WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the
// License for the specific language governing permissions and limitations
// under the License.

package bitmap

import (
	"fmt"
	"math/bits"
	"slices"
)

// Unbounded is the range end marking an open range “x-” that extends to
// infinity; it doubles as the [Set.Weight] result for sets with such an
// infinite tail, where no finite cardinality exists.
const Unbounded = -1

// None signals “no such index”, as returned by [Set.First], [Set.Last], and
// [Set.Next].
const None = -1

const wordbits = 64

// Set is an ordered set of non-negative indices, such as the OS-assigned
// numbers of CPUs or of NUMA nodes. It consists of a finite bit string
// prefix, optionally followed by an infinite tail covering each and every
// index at and beyond the prefix. The infinite tail is what sets Set apart
// from a plain affinity bit mask: the complement of a finite set is still
// representable, without an infinite backing store.
//
// The zero value is an empty set, ready for use. Sets are not safe for
// concurrent modification; clone instead of sharing across goroutines.
type Set struct {
	words []uint64
	tail  bool // every index at/beyond the words prefix is a member.
}

// CPUSet is a set of CPU indices.
type CPUSet = Set

// NodeSet is a set of NUMA node indices.
type NodeSet = Set

// New returns a new empty Set.
func New() *Set {
	return &Set{}
}

// Full returns a new Set containing all indices, from zero to infinity.
func Full() *Set {
	return &Set{tail: true}
}

// Singleton returns a new Set containing exactly the single index idx.
func Singleton(idx uint) *Set {
	s := New()
	s.Add(idx)
	return s
}

// Range returns a new Set containing the indices from..to inclusive. If to
// is [Unbounded], the new Set contains all indices starting at from.
func Range(from uint, to int) *Set {
	s := New()
	s.AddRange(from, to)
	return s
}

// Wrap returns a Set view over the passed words, such as an affinity bit
// mask filled in by the kernel or kept inside a topology object. The view
// does not copy and does not own the words: it reads through to them, and
// wrapping never allocates. Mutating a wrapped Set may either write through
// to the original words or detach onto a fresh backing store, so callers
// wanting to modify a view should [Set.Clone] it first.
func Wrap(words []uint64) *Set {
	return &Set{words: words}
}

func wordIndex(idx uint) int {
	return int(idx / wordbits)
}

func wordMask(idx uint) uint64 {
	return uint64(1) << (idx % wordbits)
}

// fill is the implicit value of all words beyond the finite prefix.
func (s *Set) fill() uint64 {
	if s.tail {
		return ^uint64(0)
	}
	return 0
}

// word returns the i'th 64-bit chunk of the set, continuing beyond the
// prefix with the fill value.
func (s *Set) word(i int) uint64 {
	if i >= len(s.words) {
		return s.fill()
	}
	return s.words[i]
}

// grow extends the prefix to cover at least n words, newly uncovered words
// keeping their implicit fill value.
func (s *Set) grow(n int) {
	for len(s.words) < n {
		s.words = append(s.words, s.fill())
	}
}

// trim drops trailing prefix words that equal the fill value, so that
// structurally different mutation histories converge onto the same form.
func (s *Set) trim() {
	fill := s.fill()
	n := len(s.words)
	for n > 0 && s.words[n-1] == fill {
		n--
	}
	s.words = s.words[:n]
}

// Add adds the index idx to this set.
func (s *Set) Add(idx uint) {
	if s.tail && wordIndex(idx) >= len(s.words) {
		return // already covered by the infinite tail.
	}
	s.grow(wordIndex(idx) + 1)
	s.words[wordIndex(idx)] |= wordMask(idx)
	s.trim()
}

// AddRange adds the indices from..to inclusive to this set. If to is
// [Unbounded], all indices starting at from are added, giving the set an
// infinite tail. AddRange panics when passed a bounded range with from
// beyond to.
func (s *Set) AddRange(from uint, to int) {
	if to < 0 {
		s.grow(wordIndex(from) + 1)
		for idx := from; wordIndex(idx) < len(s.words); idx++ {
			s.words[wordIndex(idx)] |= wordMask(idx)
		}
		s.tail = true
		s.trim()
		return
	}
	if from > uint(to) {
		panic(fmt.Sprintf("invalid range %d-%d", from, to))
	}
	s.grow(wordIndex(uint(to)) + 1)
	for idx := from; idx <= uint(to); idx++ {
		s.words[wordIndex(idx)] |= wordMask(idx)
	}
	s.trim()
}

// Remove removes the index idx from this set.
func (s *Set) Remove(idx uint) {
	if !s.tail && wordIndex(idx) >= len(s.words) {
		return // beyond the prefix of a finite set.
	}
	s.grow(wordIndex(idx) + 1)
	s.words[wordIndex(idx)] &^= wordMask(idx)
	s.trim()
}

// RemoveRange removes the indices from..to inclusive from this set. If to is
// [Unbounded], all indices starting at from are removed, cutting off any
// infinite tail. RemoveRange panics when passed a bounded range with from
// beyond to.
func (s *Set) RemoveRange(from uint, to int) {
	if to < 0 {
		wi := wordIndex(from)
		if s.tail {
			s.grow(wi + 1)
		}
		if wi < len(s.words) {
			s.words = s.words[:wi+1]
			s.words[wi] &= wordMask(from) - 1
		}
		s.tail = false
		s.trim()
		return
	}
	if from > uint(to) {
		panic(fmt.Sprintf("invalid range %d-%d", from, to))
	}
	if s.tail {
		s.grow(wordIndex(uint(to)) + 1)
	}
	top := uint(len(s.words)) * wordbits
	for idx := from; idx <= uint(to) && idx < top; idx++ {
		s.words[wordIndex(idx)] &^= wordMask(idx)
	}
	s.trim()
}

// Clear removes all indices, leaving the empty set behind.
func (s *Set) Clear() {
	s.words = nil
	s.tail = false
}

// Invert replaces this set in place with its complement relative to all
// non-negative indices: every member becomes a non-member and vice versa.
// Inverting the empty set yields the full set and the other way round; any
// finite non-empty set gains an infinite tail.
func (s *Set) Invert() {
	for i := range s.words {
		s.words[i] = ^s.words[i]
	}
	s.tail = !s.tail
	s.trim()
}

// Singlify reduces this set to at most a single member: its smallest index.
// An empty set stays empty. Singlifying before binding avoids a task being
// migrated between the multiple CPUs of the original mask.
func (s *Set) Singlify() {
	first := s.First()
	s.Clear()
	if first != None {
		s.Add(uint(first))
	}
}

// IsEmpty reports whether this set has no members at all.
func (s *Set) IsEmpty() bool {
	if s.tail {
		return false
	}
	for _, w := range s.words {
		if w != 0 {
			return false
		}
	}
	return true
}

// IsFull reports whether this set contains all indices from zero to
// infinity.
func (s *Set) IsFull() bool {
	if !s.tail {
		return false
	}
	for _, w := range s.words {
		if w != ^uint64(0) {
			return false
		}
	}
	return true
}

// IsSet reports whether the index idx is a member of this set.
func (s *Set) IsSet(idx uint) bool {
	if wordIndex(idx) >= len(s.words) {
		return s.tail
	}
	return s.words[wordIndex(idx)]&wordMask(idx) != 0
}

// Weight returns the number of members of this set, or [Unbounded] for a set
// with an infinite tail, whose cardinality is not finite.
func (s *Set) Weight() int {
	if s.tail {
		return Unbounded
	}
	weight := 0
	for _, w := range s.words {
		weight += bits.OnesCount64(w)
	}
	return weight
}

// First returns the smallest member of this set, or [None] for an empty set.
func (s *Set) First() int {
	for i, w := range s.words {
		if w != 0 {
			return i*wordbits + bits.TrailingZeros64(w)
		}
	}
	if s.tail {
		return len(s.words) * wordbits
	}
	return None
}

// Last returns the largest member of this set, or [None] when the set either
// is empty or has an infinite tail and thus no largest member.
func (s *Set) Last() int {
	if s.tail {
		return None
	}
	for i := len(s.words) - 1; i >= 0; i-- {
		if w := s.words[i]; w != 0 {
			return i*wordbits + wordbits - 1 - bits.LeadingZeros64(w)
		}
	}
	return None
}

// Next returns the smallest member of this set that is strictly greater than
// after, or [None] when there is no further member. Passing [None] starts
// before the first possible index, so a full ascending walk reads:
//
//	for idx := s.Next(bitmap.None); idx != bitmap.None; idx = s.Next(idx) { … }
//
// Next is the cursor primitive underlying [Set.Indices] and
// [Set.IndicesBelow]; beware that on a set with an infinite tail such a walk
// never ends.
func (s *Set) Next(after int) int {
	idx := after + 1
	if idx < 0 {
		idx = 0
	}
	wi := idx / wordbits
	if wi >= len(s.words) {
		if s.tail {
			return idx
		}
		return None
	}
	if w := s.words[wi] &^ (wordMask(uint(idx)) - 1); w != 0 {
		return wi*wordbits + bits.TrailingZeros64(w)
	}
	for wi++; wi < len(s.words); wi++ {
		if w := s.words[wi]; w != 0 {
			return wi*wordbits + bits.TrailingZeros64(w)
		}
	}
	if s.tail {
		return len(s.words) * wordbits
	}
	return None
}

// Clone returns an independent deep copy of this set; mutating the clone
// never affects the original, nor the other way round.
func (s *Set) Clone() *Set {
	return &Set{words: slices.Clone(s.words), tail: s.tail}
}

// Not returns the complement of this set as a new set, leaving the original
// untouched; it is the pure sibling of the in-place [Set.Invert].
func (s *Set) Not() *Set {
	c := s.Clone()
	c.Invert()
	return c
}

// Equal reports whether this set and other contain exactly the same indices,
// regardless of how both sets internally chunk their members into prefix
// words.
func (s *Set) Equal(other *Set) bool {
	if s.tail != other.tail {
		return false
	}
	for i := max(len(s.words), len(other.words)) - 1; i >= 0; i-- {
		if s.word(i) != other.word(i) {
			return false
		}
	}
	return true
}

// And returns the intersection of this set and other as a new set.
func (s *Set) And(other *Set) *Set {
	r := &Set{
		words: make([]uint64, max(len(s.words), len(other.words))),
		tail:  s.tail && other.tail,
	}
	for i := range r.words {
		r.words[i] = s.word(i) & other.word(i)
	}
	r.trim()
	return r
}

// Or returns the union of this set and other as a new set.
func (s *Set) Or(other *Set) *Set {
	r := &Set{
		words: make([]uint64, max(len(s.words), len(other.words))),
		tail:  s.tail || other.tail,
	}
	for i := range r.words {
		r.words[i] = s.word(i) | other.word(i)
	}
	r.trim()
	return r
}

// AndNot returns the members of this set that are not members of other, as a
// new set.
func (s *Set) AndNot(other *Set) *Set {
	r := &Set{
		words: make([]uint64, max(len(s.words), len(other.words))),
		tail:  s.tail && !other.tail,
	}
	for i := range r.words {
		r.words[i] = s.word(i) &^ other.word(i)
	}
	r.trim()
	return r
}

// Xor returns the symmetric difference of this set and other as a new set.
func (s *Set) Xor(other *Set) *Set {
	r := &Set{
		words: make([]uint64, max(len(s.words), len(other.words))),
		tail:  s.tail != other.tail,
	}
	for i := range r.words {
		r.words[i] = s.word(i) ^ other.word(i)
	}
	r.trim()
	return r
}

// Intersects reports whether this set and other have at least one member in
// common.
func (s *Set) Intersects(other *Set) bool {
	for i := max(len(s.words), len(other.words)) - 1; i >= 0; i-- {
		if s.word(i)&other.word(i) != 0 {
			return true
		}
	}
	return s.tail && other.tail
}

// Mask materializes this set into a plain affinity bit mask of nwords 64-bit
// words, such as consumed by the sched_setaffinity(2) syscall. An infinite
// tail gets truncated at the mask width, and a mask too narrow for all
// finite members silently drops the excess; size the mask using [Set.Last]
// or the width of the topology where precision matters.
func (s *Set) Mask(nwords int) []uint64 {
	mask := make([]uint64, nwords)
	for i := range mask {
		mask[i] = s.word(i)
	}
	return mask
}

// String returns the members of this set in canonical textual list format:
// ascending, maximally merged “x-y” ranges separated by “,”, single-index
// ranges collapsed into a bare “x”, and an infinite tail rendered as a final
// open “x-” range. The empty set renders as the empty string.
func (s *Set) String() string {
	return s.List().String()
}

// List returns the list of index ranges corresponding with this set.
//
// This is an optimized implementation that does not use any division and
// modulo operations; instead, it only uses increment and (single bit
// position) shift operations. Additionally, this implementation
// fast-forwards through all-0s and all-1s prefix words wherever possible. An
// infinite tail ends the list with a single open range.
func (s *Set) List() List {
	prefixlen := uint64(len(s.words))
	list := List{}
	idx := uint(0)
	wordidx := uint64(0)
	mask := uint64(1)

findNextIndexInWord:
	for {
		// If we're inside a prefix word, try to find the next set bit, if
		// any, otherwise stop after we've fallen off the MSB end of the
		// word.
		if mask != 1 {
			for {
				if s.words[wordidx]&mask != 0 {
					break
				}
				idx++
				mask <<= 1
				if mask == 0 {
					// fallen off the MSB end of the word.
					wordidx++
					mask = 1
					break
				}
			}
		}
		// Try to fast-forward through completely unset prefix words, where
		// possible.
		for wordidx < prefixlen && s.words[wordidx] == 0 {
			idx += wordbits
			wordidx++
		}
		if wordidx >= prefixlen {
			// Nothing more in the prefix; an infinite tail seamlessly takes
			// over right at the prefix end.
			if s.tail {
				return append(list, [2]int{int(idx), Unbounded})
			}
			return list
		}
		// We arrived at a non-zero prefix word, so let's now find the first
		// member in it.
		for {
			if s.words[wordidx]&mask != 0 {
				break
			}
			idx++
			mask <<= 1
		}
		// We've located a member, so a range starts here. Move on to the
		// next index, handling a word boundary when necessary.
		from := idx
		idx++
		mask <<= 1
		if mask == 0 {
			wordidx++
			mask = 1
		}
		// Now locate the next non-member within the currently inspected
		// prefix word, until we find one or have exhausted our search within
		// the current word.
		if mask != 1 {
			for {
				if s.words[wordidx]&mask == 0 {
					list = append(list, [2]int{int(from), int(idx) - 1})
					continue findNextIndexInWord
				}
				idx++
				mask <<= 1
				if mask == 0 {
					wordidx++
					mask = 1
					break
				}
			}
		}
		// Try to fast-forward through completely set prefix words, where
		// applicable.
		for wordidx < prefixlen && s.words[wordidx] == ^uint64(0) {
			idx += wordbits
			wordidx++
		}
		// Are we completely done? If so, add the final range (which runs
		// straight into the tail when there is one) and call it a day.
		if wordidx >= prefixlen {
			if s.tail {
				return append(list, [2]int{int(from), Unbounded})
			}
			return append(list, [2]int{int(from), int(idx) - 1})
		}
		// We arrived at a non-all-1s prefix word, so let's now find the
		// first non-member in it. Add the range, and then rinse and repeat
		// from the beginning: find the next member or fall off the prefix.
		for {
			if s.words[wordidx]&mask == 0 {
				list = append(list, [2]int{int(from), int(idx) - 1})
				break
			}
			idx++
			mask <<= 1
		}
	}
}
