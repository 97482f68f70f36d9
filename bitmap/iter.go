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

import "iter"

// FromSeq returns a new [Set] containing the union of all indices produced
// by the passed sequence; duplicates are fine and order doesn't matter.
func FromSeq(indices iter.Seq[uint]) *Set {
	s := New()
	for idx := range indices {
		s.Add(idx)
	}
	return s
}

// Indices returns an iterator over the members of this set, in strictly
// ascending order. Indices panics when called on a set with an infinite
// tail, as walking such a set would never terminate; use [Set.IndicesBelow]
// with an explicit bound instead. The set must not be mutated while
// iteration is in progress.
func (s *Set) Indices() iter.Seq[uint] {
	if s.tail {
		panic("cannot iterate over a set with an infinite tail, use IndicesBelow instead")
	}
	return func(yield func(uint) bool) {
		for idx := s.Next(None); idx != None; idx = s.Next(idx) {
			if !yield(uint(idx)) {
				return
			}
		}
	}
}

// IndicesBelow returns an iterator over the members of this set that are
// strictly less than limit, in strictly ascending order. In contrast to
// [Set.Indices] it is safe on sets with an infinite tail, as the
// caller-supplied bound terminates the walk. The set must not be mutated
// while iteration is in progress.
func (s *Set) IndicesBelow(limit uint) iter.Seq[uint] {
	return func(yield func(uint) bool) {
		for idx := s.Next(None); idx != None && idx < int(limit); idx = s.Next(idx) {
			if !yield(uint(idx)) {
				return
			}
		}
	}
}
