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

// ObjectType identifies the kind of hardware element a topology [Object]
// stands for.
//
// ObjectTypes are partially ordered by containment:
//   - A == B if objects of type A and B are the same kind.
//   - A < B if objects of type A usually include objects of type B; for
//     instance, a machine is smaller than a PU, as a machine contains
//     processing units.
//   - A > B if objects of type A usually are included in objects of type B.
type ObjectType int

const (
	// ObjectSystem is a whole system composed of several machines; only
	// seen on clustered setups.
	ObjectSystem ObjectType = iota
	// ObjectMachine is a set of processors and memory with cache coherency.
	ObjectMachine
	// ObjectNUMANode is a set of processors around memory which the
	// processors can directly access.
	ObjectNUMANode
	// ObjectPackage is a physical package or chip, what goes into a socket.
	ObjectPackage
	// ObjectCache is a cache, whose level and type are described by the
	// object's cache attributes.
	ObjectCache
	// ObjectCore is a computation unit, which may be shared by several PUs
	// on SMT systems.
	ObjectCore
	// ObjectPU is a processing unit, the smallest schedulable hardware
	// thread; its OS index is what affinity masks refer to.
	ObjectPU
	// ObjectGroup is an intermediate group object without better fitting
	// type.
	ObjectGroup
	// ObjectMisc are miscellaneous objects inserted by the user or tools.
	ObjectMisc
)

var objectTypeNames = map[ObjectType]string{
	ObjectSystem:   "System",
	ObjectMachine:  "Machine",
	ObjectNUMANode: "NUMANode",
	ObjectPackage:  "Package",
	ObjectCache:    "Cache",
	ObjectCore:     "Core",
	ObjectPU:       "PU",
	ObjectGroup:    "Group",
	ObjectMisc:     "Misc",
}

// String returns the object type name.
func (t ObjectType) String() string {
	if name, ok := objectTypeNames[t]; ok {
		return name
	}
	return "Unknown"
}

// Compare returns a negative value if this object type usually contains
// objects of type other, zero if both types are the same, and a positive
// value if objects of this type usually are contained in objects of type
// other.
func (t ObjectType) Compare(other ObjectType) int {
	return int(t) - int(other)
}
