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
	"slices"

	. "github.com/onsi/ginkgo/v2/dsl/core"
	. "github.com/onsi/gomega"
	. "github.com/thediveo/success"
)

var _ = Describe("iterating over index sets", func() {

	It("builds a set from a sequence of indices", func() {
		s := FromSeq(slices.Values([]uint{5, 3, 4, 3, 9}))
		Expect(s.String()).To(Equal("3-5,9"))
	})

	It("yields members in strictly ascending order", func() {
		s := Successful(Parse([]byte("1-2,64,666")))
		Expect(slices.Collect(s.Indices())).To(Equal([]uint{1, 2, 64, 666}))
	})

	It("yields nothing for the empty set", func() {
		Expect(slices.Collect(New().Indices())).To(BeEmpty())
	})

	It("yields as many members as the set weighs", func() {
		s := Successful(Parse([]byte("0,2-5,63-66")))
		Expect(slices.Collect(s.Indices())).To(HaveLen(s.Weight()))
	})

	It("stops early when the consumer does", func() {
		s := Successful(Parse([]byte("1-100")))
		var got []uint
		for idx := range s.Indices() {
			got = append(got, idx)
			if len(got) == 3 {
				break
			}
		}
		Expect(got).To(Equal([]uint{1, 2, 3}))
	})

	It("refuses to iterate over an infinite set without a bound", func() {
		Expect(func() { Full().Indices() }).To(Panic())
		Expect(func() { Range(42, Unbounded).Indices() }).To(Panic())
	})

	It("iterates over infinite sets only up to an explicit bound", func() {
		Expect(slices.Collect(Full().IndicesBelow(4))).To(Equal([]uint{0, 1, 2, 3}))
		s := Successful(Parse([]byte("3,126-")))
		Expect(slices.Collect(s.IndicesBelow(129))).To(Equal([]uint{3, 126, 127, 128}))
	})

	It("round-trips a set through its index sequence", func() {
		s := Successful(Parse([]byte("0,2-5,63-66")))
		Expect(FromSeq(s.Indices()).Equal(s)).To(BeTrue())
	})

})
