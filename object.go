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

package hwtopo

import (
	"fmt"

	"github.com/thediveo/hwtopo/bitmap"
)

// Object is a single element of the topology tree, such as the machine
// itself, a NUMA node, a package, a cache, a core, or a processing unit.
// Objects of the same type populate a single horizontal level of the tree
// and are doubly linked as cousins along that level, as well as into their
// parent's children.
type Object struct {
	// Type of this object.
	Type ObjectType
	// OSIndex is the OS-assigned index of this object, such as the CPU
	// number of a PU or the node number of a NUMA node; it is -1 where the
	// OS assigns no meaningful index, as for the machine and for caches.
	OSIndex int
	// Name is an optional descriptive string, such as the machine's host
	// name.
	Name string
	// Depth is the level of this object within the tree, with the root at
	// depth 0.
	Depth int
	// LogicalIndex is the position of this object within its level, in
	// ascending order of the first CPU covered.
	LogicalIndex int
	// SiblingRank is the position of this object within its parent's
	// children.
	SiblingRank int

	Parent      *Object
	Children    []*Object
	NextSibling *Object
	PrevSibling *Object
	NextCousin  *Object
	PrevCousin  *Object

	// CPUSet identifies the processing units covered by this object. The
	// set is held by reference: it is the object's own storage, shared with
	// every query returning this object. Clone before mutating.
	CPUSet *bitmap.CPUSet
	// NodeSet identifies the NUMA nodes covered by this object, held by
	// reference just like CPUSet. It is empty on systems not reporting any
	// NUMA nodes.
	NodeSet *bitmap.NodeSet

	// Memory describes the memory attached at and below this object.
	Memory ObjectMemory
	// Cache describes the cache attributes of ObjectCache objects and is
	// nil for all other object types.
	Cache *CacheAttributes
}

// ObjectMemory describes the memory attached to an [Object].
type ObjectMemory struct {
	// TotalMemory is the total memory in bytes at and below this object.
	TotalMemory uint64
	// LocalMemory is the memory in bytes directly attached to this object,
	// non-zero only for NUMA nodes and the machine.
	LocalMemory uint64
}

// CacheAttributes describe an [ObjectCache] object.
type CacheAttributes struct {
	// Size of the cache in bytes.
	Size uint64
	// Level of the cache, such as 1 for L1, 2 for L2, and so on.
	Level int
	// LineSize is the cache line size in bytes, or 0 if unknown.
	LineSize uint
	// Associativity ways; 0 if unknown, -1 for fully associative caches.
	Associativity int
	// Type of the cache: unified, data, or instruction.
	Type CacheType
}

// CacheType differentiates unified, data, and instruction caches.
type CacheType int

const (
	CacheUnified CacheType = iota
	CacheData
	CacheInstruction
)

// String returns the cache type name, using sysfs spelling.
func (t CacheType) String() string {
	switch t {
	case CacheData:
		return "Data"
	case CacheInstruction:
		return "Instruction"
	default:
		return "Unified"
	}
}

// Arity returns the number of children of this object.
func (o *Object) Arity() int {
	return len(o.Children)
}

// FirstChild returns the first child of this object, or nil if it has none.
func (o *Object) FirstChild() *Object {
	if len(o.Children) == 0 {
		return nil
	}
	return o.Children[0]
}

// LastChild returns the last child of this object, or nil if it has none.
func (o *Object) LastChild() *Object {
	if len(o.Children) == 0 {
		return nil
	}
	return o.Children[len(o.Children)-1]
}

// String returns a short description of this object, such as “Machine”,
// “L2 Cache (1024KB)”, or “PU”.
func (o *Object) String() string {
	if o.Type == ObjectCache && o.Cache != nil {
		s := fmt.Sprintf("L%d", o.Cache.Level)
		if o.Cache.Type == CacheInstruction {
			s += "i"
		} else if o.Cache.Type == CacheData {
			s += "d"
		}
		return fmt.Sprintf("%s Cache (%dKB)", s, o.Cache.Size/1024)
	}
	if o.Name != "" {
		return fmt.Sprintf("%s %q", o.Type, o.Name)
	}
	return o.Type.String()
}
