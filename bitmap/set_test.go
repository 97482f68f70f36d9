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
	. "github.com/onsi/ginkgo/v2/dsl/core"
	. "github.com/onsi/ginkgo/v2/dsl/table"
	. "github.com/onsi/gomega"
	. "github.com/thediveo/success"
)

var _ = Describe("index sets", func() {

	DescribeTable("converting sets into range lists",
		func(set *Set, expected List) {
			Expect(set.List()).To(Equal(expected))
		},
		Entry("empty set", New(), List{}),
		Entry("all-zeros prefix", &Set{words: []uint64{0}}, List{}),
		Entry("all-zeros prefix", &Set{words: []uint64{0, 0}}, List{}),

		// all in first word
		Entry("single index #0", &Set{words: []uint64{1 << 0, 0}}, List{{0, 0}}),
		Entry("single index #1", &Set{words: []uint64{1 << 1}}, List{{1, 1}}),
		Entry("single index #63", &Set{words: []uint64{1 << 63}}, List{{63, 63}}),
		Entry("single index #63, none else", &Set{words: []uint64{1 << 63, 0, 0}}, List{{63, 63}}),
		Entry("indices #1-3", &Set{words: []uint64{0xe, 0}}, List{{1, 3}}),

		// skip first zero words
		Entry("single index #64", &Set{words: []uint64{0, 1 << 0}}, List{{64, 64}}),

		// multiple ranges in same word
		Entry("indices #1-2, #62", &Set{words: []uint64{1<<62 | 1<<2 | 1<<1}}, List{{1, 2}, {62, 62}}),

		// range across word boundaries
		Entry("indices #63-64", &Set{words: []uint64{1 << 63, 1 << 0}}, List{{63, 64}}),
		Entry("indices #63-127", &Set{words: []uint64{1 << 63, ^uint64(0)}}, List{{63, 127}}),

		// multiple all-1s words
		Entry("indices #0-127", &Set{words: []uint64{^uint64(0), ^uint64(0)}}, List{{0, 127}}),

		// mixed
		Entry("indices #0-64", &Set{words: []uint64{^uint64(0), 1 << 0}}, List{{0, 64}}),
		Entry("indices #0-64, 67", &Set{words: []uint64{^uint64(0), 1<<3 | 1<<0}}, List{{0, 64}, {67, 67}}),
		Entry("indices #65-127, 129", &Set{words: []uint64{0, ^uint64(0) - 1, 1 << 1}}, List{{65, 127}, {129, 129}}),

		Entry("b/w", &Set{words: []uint64{0xaa0}}, List{{5, 5}, {7, 7}, {9, 9}, {11, 11}}),
		Entry("art", &Set{words: []uint64{0x5a0}}, List{{5, 5}, {7, 8}, {10, 10}}),

		// infinite tails
		Entry("full set", Full(), List{{0, Unbounded}}),
		Entry("tail only", &Set{words: []uint64{0}, tail: true}, List{{64, Unbounded}}),
		Entry("run into the tail", &Set{words: []uint64{1 << 63}, tail: true}, List{{63, Unbounded}}),
		Entry("all-1s words into the tail", &Set{words: []uint64{1 << 62, ^uint64(0)}, tail: true}, List{{62, Unbounded}}),
		Entry("head and tail", &Set{words: []uint64{0xe}, tail: true}, List{{1, 3}, {64, Unbounded}}),
	)

	Context("constructing", func() {

		It("creates the empty set", func() {
			s := New()
			Expect(s.IsEmpty()).To(BeTrue())
			Expect(s.String()).To(BeEmpty())
		})

		It("creates the full set", func() {
			s := Full()
			Expect(s.IsFull()).To(BeTrue())
			Expect(s.String()).To(Equal("0-"))
		})

		It("creates singletons", func() {
			Expect(Singleton(42).String()).To(Equal("42"))
			Expect(Singleton(42).Weight()).To(Equal(1))
		})

		It("creates bounded and open ranges", func() {
			Expect(Range(2, 5).String()).To(Equal("2-5"))
			Expect(Range(128, Unbounded).String()).To(Equal("128-"))
			Expect(Range(0, Unbounded).IsFull()).To(BeTrue())
		})

		It("wraps externally managed mask words without copying", func() {
			words := []uint64{0x6, 0x1}
			s := Wrap(words)
			Expect(s.String()).To(Equal("1-2,64"))
			words[0] |= 1 << 4
			Expect(s.IsSet(4)).To(BeTrue(), "view must read through")
		})

	})

	Context("adding and removing indices", func() {

		It("adds and removes single indices", func() {
			s := New()
			Expect(s.IsEmpty()).To(BeTrue())
			s.Add(1)
			s.Add(3)
			s.Add(8)
			Expect(s.String()).To(Equal("1,3,8"))
			Expect(s.IsEmpty()).To(BeFalse())
			s.Remove(3)
			Expect(s.String()).To(Equal("1,8"))
			s.Remove(666)
			Expect(s.String()).To(Equal("1,8"))
		})

		It("merges overlapping ranges", func() {
			s := New()
			s.AddRange(3, 5)
			s.AddRange(4, 7)
			Expect(s.String()).To(Equal("3-7"))
		})

		It("removes bounded and open ranges", func() {
			s := Range(1, 5)
			s.RemoveRange(4, 6)
			Expect(s.String()).To(Equal("1-3"))
			s.RemoveRange(2, Unbounded)
			Expect(s.String()).To(Equal("1"))
		})

		It("punches holes into the tail", func() {
			s := Full()
			s.Remove(3)
			Expect(s.String()).To(Equal("0-2,4-"))
			s.RemoveRange(100, 199)
			Expect(s.String()).To(Equal("0-2,4-99,200-"))
		})

		It("cuts off the tail", func() {
			s := Full()
			s.RemoveRange(64, Unbounded)
			Expect(s.String()).To(Equal("0-63"))
			Expect(s.Weight()).To(Equal(64))
		})

		It("panics on invalid bounded ranges", func() {
			Expect(func() { New().AddRange(3, 1) }).To(Panic())
			Expect(func() { New().RemoveRange(3, 1) }).To(Panic())
		})

		It("clears everything", func() {
			s := Range(4, 7)
			Expect(s.IsEmpty()).To(BeFalse())
			Expect(s.IsSet(5)).To(BeTrue())
			s.Clear()
			Expect(s.IsSet(5)).To(BeFalse())
			Expect(s.IsEmpty()).To(BeTrue())

			s = Full()
			s.Clear()
			Expect(s.IsEmpty()).To(BeTrue())
		})

	})

	Context("membership", func() {

		It("correctly tests", func() {
			Expect(Wrap([]uint64{2}).IsSet(0)).To(BeFalse())
			Expect(Wrap([]uint64{2}).IsSet(1)).To(BeTrue())
			Expect(Wrap([]uint64{2}).IsSet(666)).To(BeFalse())
		})

		It("tests membership far into the tail", func() {
			s := Range(1000, Unbounded)
			Expect(s.IsSet(999)).To(BeFalse())
			Expect(s.IsSet(1000)).To(BeTrue())
			Expect(s.IsSet(1_000_000_000)).To(BeTrue())
		})

	})

	DescribeTable("weighing",
		func(s *Set, expected int) {
			Expect(s.Weight()).To(Equal(expected))
		},
		Entry("empty", New(), 0),
		Entry("singleton", Singleton(9), 1),
		Entry("range", Range(2, 5), 4),
		Entry("full", Full(), Unbounded),
		Entry("open range", Range(42, Unbounded), Unbounded),
	)

	DescribeTable("first and last",
		func(s *Set, first, last int) {
			Expect(s.First()).To(Equal(first))
			Expect(s.Last()).To(Equal(last))
		},
		Entry("empty", New(), None, None),
		Entry("singleton", Singleton(9), 9, 9),
		Entry("range", Range(2, 130), 2, 130),
		Entry("full", Full(), 0, None),
		Entry("open range", Range(512, Unbounded), 512, None),
	)

	Context("complementing", func() {

		It("inverts in place", func() {
			s := Singleton(3)
			s.Invert()
			Expect(s.String()).To(Equal("0-2,4-"))
			s.Invert()
			Expect(s.String()).To(Equal("3"))
		})

		It("turns empty into full and vice versa", func() {
			s := New()
			s.Invert()
			Expect(s.IsFull()).To(BeTrue())
			s.Invert()
			Expect(s.IsEmpty()).To(BeTrue())
		})

		It("complements without modifying the original", func() {
			s := Singleton(3)
			Expect(s.Not().String()).To(Equal("0-2,4-"))
			Expect(s.String()).To(Equal("3"))
			Expect(s.Not().Not().Equal(s)).To(BeTrue())
		})

	})

	Context("singlifying", func() {

		It("reduces to the smallest member", func() {
			s := Range(0, 127)
			s.Invert()
			Expect(s.Weight()).To(Equal(Unbounded))
			s.Singlify()
			Expect(s.Weight()).To(Equal(1))
			Expect(s.First()).To(Equal(128))
			Expect(s.Last()).To(Equal(128))
		})

		It("is idempotent and keeps empty sets empty", func() {
			s := New()
			s.Singlify()
			Expect(s.IsEmpty()).To(BeTrue())

			s = Range(5, 9)
			s.Singlify()
			once := s.Clone()
			s.Singlify()
			Expect(s.Equal(once)).To(BeTrue())
			Expect(s.String()).To(Equal("5"))
		})

	})

	Context("cloning", func() {

		It("produces independent copies", func() {
			s := Range(1, 3)
			c := s.Clone()
			c.Add(42)
			Expect(s.String()).To(Equal("1-3"))
			Expect(c.String()).To(Equal("1-3,42"))
		})

	})

	DescribeTable("structural equality",
		func(s1, s2 *Set, expected bool) {
			Expect(s1.Equal(s2)).To(Equal(expected))
			Expect(s2.Equal(s1)).To(Equal(expected))
		},
		Entry("empties", New(), &Set{words: []uint64{0, 0}}, true),
		Entry("same members, different prefixes", Range(0, 63), &Set{words: []uint64{^uint64(0), 0}}, true),
		Entry("full versus trailing all-1s", Full(), &Set{words: []uint64{^uint64(0)}, tail: true}, true),
		Entry("finite never equals infinite", Range(0, 63), Full(), false),
		Entry("different members", Singleton(1), Singleton(2), false),
	)

	Context("set algebra", func() {

		It("intersects", func() {
			Expect(Range(1, 5).And(Range(3, 9)).String()).To(Equal("3-5"))
			Expect(Range(1, 5).And(Range(64, Unbounded)).IsEmpty()).To(BeTrue())
			Expect(Range(42, Unbounded).And(Range(100, Unbounded)).String()).To(Equal("100-"))
			Expect(Full().And(Singleton(7)).String()).To(Equal("7"))
		})

		It("unites", func() {
			Expect(Range(1, 2).Or(Singleton(64)).String()).To(Equal("1-2,64"))
			Expect(Singleton(3).Or(Singleton(3).Not()).IsFull()).To(BeTrue())
		})

		It("subtracts", func() {
			Expect(Full().AndNot(Singleton(3)).String()).To(Equal("0-2,4-"))
			Expect(Range(1, 5).AndNot(Range(4, 6)).String()).To(Equal("1-3"))
		})

		It("computes symmetric differences", func() {
			Expect(Range(1, 3).Xor(Range(3, 5)).String()).To(Equal("1-2,4-5"))
			Expect(Full().Xor(Full()).IsEmpty()).To(BeTrue())
		})

		DescribeTable("testing for intersection",
			func(l1, l2 string, expected bool) {
				s1 := Successful(Parse([]byte(l1)))
				s2 := Successful(Parse([]byte(l2)))
				Expect(s1.Intersects(s2)).To(Equal(expected))
			},
			Entry(nil, "", "", false),
			Entry(nil, "1-3", "5-7", false),
			Entry(nil, "1-3", "100-111", false),
			Entry(nil, "98-101", "100-200", true),
			Entry(nil, "1-3", "128-", false),
			Entry(nil, "1000", "128-", true),
			Entry(nil, "128-", "4096-", true),
		)

	})

	Context("walking with the Next cursor", func() {

		It("walks a finite set in ascending order", func() {
			s := Successful(Parse([]byte("1-2,64")))
			Expect(s.Next(None)).To(Equal(1))
			Expect(s.Next(1)).To(Equal(2))
			Expect(s.Next(2)).To(Equal(64))
			Expect(s.Next(64)).To(Equal(None))
		})

		It("walks into the tail", func() {
			s := Successful(Parse([]byte("3,128-")))
			Expect(s.Next(None)).To(Equal(3))
			Expect(s.Next(3)).To(Equal(128))
			Expect(s.Next(128)).To(Equal(129))
			Expect(s.Next(100_000)).To(Equal(100_001))
		})

	})

	Context("materializing affinity masks", func() {

		It("fills the requested number of words", func() {
			Expect(Singleton(65).Mask(2)).To(Equal([]uint64{0, 2}))
			Expect(Singleton(65).Mask(3)).To(Equal([]uint64{0, 2, 0}))
		})

		It("truncates infinite tails at the mask width", func() {
			Expect(Full().Mask(2)).To(Equal([]uint64{^uint64(0), ^uint64(0)}))
		})

	})

	Context("textual round trips", func() {

		DescribeTable("rendering canonically and parsing back",
			func(text string) {
				s := Successful(Parse([]byte(text)))
				Expect(s.String()).To(Equal(text))
				Expect(Successful(Parse([]byte(s.String()))).Equal(s)).To(BeTrue())
			},
			Entry(nil, ""),
			Entry(nil, "0"),
			Entry(nil, "0-"),
			Entry(nil, "2-5,9"),
			Entry(nil, "0-2,4-"),
			Entry(nil, "1,63-65,1000-1001"),
		)

		It("round-trips mutation-built sets", func() {
			s := Range(3, 5)
			s.Add(9)
			s.AddRange(70, Unbounded)
			s.Remove(4)
			Expect(s.String()).To(Equal("3,5,9,70-"))
			Expect(Successful(Parse([]byte(s.String()))).Equal(s)).To(BeTrue())
		})

	})

	When("testing indices in prefix words", func() {

		It("returns correct word indices", func() {
			Expect(wordIndex(32)).To(Equal(0))
			Expect(wordIndex(32 + 2*64)).To(Equal(2))
		})

		It("returns correct bit masks", func() {
			Expect(wordMask(32)).To(Equal(uint64(1) << 32))
			Expect(wordMask(32 + 2*64)).To(Equal(uint64(1) << 32))
		})

	})

})
