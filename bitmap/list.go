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
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/thediveo/faf"
)

// List is a list of index [from...to] ranges, with indices starting from
// zero. A range whose end is [Unbounded] is open: it extends from its start
// to infinity and may only ever appear as the final range of a list.
type List [][2]int

// String returns the index list in textual format, with the individual
// ranges “x-y” separated by “,”, single index ranges collapsed into “x”
// (instead of “x-x”), and an open range rendered as “x-” without an upper
// bound.
func (l List) String() string {
	var b strings.Builder
	for idx, irange := range l {
		if idx > 0 {
			b.WriteString(",")
		}
		switch {
		case irange[1] == Unbounded:
			b.WriteString(fmt.Sprintf("%d-", irange[0]))
		case irange[0] == irange[1]:
			b.WriteString(fmt.Sprintf("%d", irange[0]))
		default:
			b.WriteString(fmt.Sprintf("%d-%d", irange[0], irange[1]))
		}
	}
	return b.String()
}

// NewList returns a new index List for the given textual list format. If the
// text is malformed then an error is returned instead.
func NewList(b []byte) (List, error) {
	bs := faf.NewBytestring(b)
	l := List{}
	for {
		// nothing more, we're at the end of text/line, so we're successfully
		// done.
		if bs.EOL() {
			return l, nil
		}
		// we now expect an index number and if there is nothing else
		// following, we're also done, adding the index as a single index
		// range to our list.
		from, ok := bs.Uint64()
		if !ok {
			return nil, errors.New("expected unsigned integer number")
		}
		if bs.EOL() {
			return append(l, [2]int{int(from), int(from)}), nil
		}
		// Either this is a from-to range or another range should follow...
		switch ch, _ := bs.Next(); ch {
		case '-':
			// an open “x-” range extends to infinity and is only allowed as
			// the final range, so nothing must follow it.
			if bs.EOL() {
				return append(l, [2]int{int(from), Unbounded}), nil
			}
			// a bounded range, so get the end of the range and then add the
			// range to our list. If nothing else follows, then we're done.
			to, ok := bs.Uint64()
			if !ok {
				return nil, errors.New("expected unsigned integer number")
			}
			l = append(l, [2]int{int(from), int(to)})
			if bs.EOL() {
				return l, nil
			}
			// another index (or range) is expected to follow, separated by
			// ",", so we check for a necessary comma. Then we start over
			// with the next index or range.
			ch, _ = bs.Next()
			if ch != ',' {
				return nil, errors.New("expected ','")
			}
		case ',':
			// a single index, and more to follow; so add this single index
			// range and then rinse and repeat.
			l = append(l, [2]int{int(from), int(from)})
		default:
			return nil, errors.New("expected '-' or ','")
		}
	}
}

// Parse returns the [Set] for the given canonical textual list format, or an
// error if the text is malformed. Parse and [Set.String] are mutual
// inverses.
func Parse(b []byte) (*Set, error) {
	l, err := NewList(b)
	if err != nil {
		return nil, err
	}
	return l.Set(), nil
}

// Set returns the [Set] corresponding with this list.
func (l List) Set() *Set {
	s := New()
	// Do last range first to grow the prefix only once.
	for i := range l {
		r := l[len(l)-i-1]
		s.AddRange(uint(r[0]), r[1])
	}
	return s
}

// end returns the inclusive end of the passed range, with open ranges
// extending to the maximum representable index.
func end(irange [2]int) int {
	if irange[1] == Unbounded {
		return math.MaxInt
	}
	return irange[1]
}

// IsOverlapping returns true if this List overlaps with another List.
//
// Both lists must be in canonical form where all ranges are ordered from
// lowest to highest and never overlap within the same list.
func (l List) IsOverlapping(another List) bool {
	// We assume canonical list form here, that is, all ranges within a list
	// are ordered from lowest to highest and never overlapping within a
	// list.
	r2idx := 0
	for _, r1 := range l {
		for {
			// If we've exhausted our second range list to compare with,
			// we're done: there can't be any overlap.
			if r2idx >= len(another) {
				return false
			}
			// We're positively done if the current first range and the
			// current second range overlap.
			if end(r1) >= another[r2idx][0] && r1[0] <= end(another[r2idx]) {
				return true
			}
			// When the current range from the second list now is beyond the
			// current range from the first list we need to advance to the
			// next range from that first list and then rinse and repeat.
			if another[r2idx][0] > end(r1) {
				break
			}
			// Process ranges from the second list while we've yet to catch
			// up to the current first list range.
			r2idx++
		}
	}
	return false
}

// Overlap returns the overlap of this List with another List as a new List.
// If the range lists are not overlapping, then an empty new List is
// returned.
func (l List) Overlap(another List) List {
	overlaps := List{}
	r2idx := 0
	for _, r1 := range l {
		for {
			// If we've exhausted our second range list to compare with,
			// we're done: there can't be any more overlap.
			if r2idx >= len(another) {
				return overlaps
			}
			// If we have overlap, then add the range where the lists
			// overlap to the result. In contrast to just detecting an
			// overlap we then carry on, as there might be more overlaps in
			// store for us. The overlap of two open ranges is open again.
			if end(r1) >= another[r2idx][0] && r1[0] <= end(another[r2idx]) {
				from := max(r1[0], another[r2idx][0])
				to := min(end(r1), end(another[r2idx]))
				if r1[1] == Unbounded && another[r2idx][1] == Unbounded {
					to = Unbounded
				}
				overlaps = append(overlaps, [2]int{from, to})
			}
			// Depending on whether the second ranges end lies beyond the
			// first ranges end we either need to move on to the next first
			// range, or next second range, respectively.
			if end(another[r2idx]) > end(r1) {
				break
			}
			r2idx++
		}
	}
	return overlaps
}

// Remove the lowest index from the specified List, returning the index
// together with a new List of remaining indices.
//
// The Remove operation is useful to pick individual and available
// (“online”) CPUs after first getting the List of CPU affinities for a
// task/process.
func (l List) Remove() (idx uint, remaining List) {
	if len(l) == 0 {
		panic("cannot remove from empty List")
	}
	lowestRange := l[0]
	if lowestRange[1] == Unbounded || lowestRange[0] < lowestRange[1] {
		// There will still be indices in the lowest range after we've
		// removed the index at the beginning of the range...
		idx = uint(lowestRange[0])
		return idx, append(List{[2]int{lowestRange[0] + 1, lowestRange[1]}}, l[1:]...)
	}
	// We've exhausted the lowest range after we've removed the last index
	// from that range, so we return the remaining ranges, throwing away the
	// now empty lowest range...
	return uint(lowestRange[0]), slices.Clone(l[1:])
}
