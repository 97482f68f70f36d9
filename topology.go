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
	"errors"
	"fmt"
)

// ErrTypeDepthUnknown is returned when no level of the topology consists of
// objects of the requested type.
var ErrTypeDepthUnknown = errors.New("no level with objects of requested type")

// ErrTypeDepthMultiple is returned when objects of the requested type are
// spread over multiple levels of the topology, as typically happens for
// caches.
var ErrTypeDepthMultiple = errors.New("objects of requested type exist at multiple levels")

// Flag customizes the topology discovery process; see [WithFlags].
type Flag uint

const (
	// FlagWholeSystem discovers all CPUs the system could possibly bring
	// up, instead of only those currently online.
	FlagWholeSystem Flag = 1 << iota
	// FlagICaches additionally discovers instruction caches, which are
	// skipped by default.
	FlagICaches
)

// Topology is the logical representation of the hierarchical structure of
// the physical hardware this process runs on: a tree of [Object] elements,
// organized in horizontal levels of uniform object type.
//
// A Topology is immutable after discovery and thus safe for concurrent
// queries; the sets held by its objects are shared by reference, so clone
// them before mutation.
type Topology struct {
	levels  [][]*Object
	flags   Flag
	support *Support
}

type options struct {
	flags    Flag
	sysRoot  string
	procRoot string
}

// Option customizes topology discovery when passed to [New].
type Option func(*options)

// WithFlags customizes the discovery process with the given [Flag] bits.
func WithFlags(flags Flag) Option {
	return func(o *options) {
		o.flags |= flags
	}
}

// WithSysRoot reads the sysfs hierarchy from the passed directory instead
// of “/sys”; useful for tests and when working on snapshots of other
// systems.
func WithSysRoot(root string) Option {
	return func(o *options) {
		o.sysRoot = root
	}
}

// WithProcRoot reads the procfs hierarchy from the passed directory instead
// of “/proc”.
func WithProcRoot(root string) Option {
	return func(o *options) {
		o.procRoot = root
	}
}

// New discovers the topology of the system this process runs on and returns
// its logical representation. The discovery process can be customized by
// passing options, in particular [WithFlags].
func New(opts ...Option) (*Topology, error) {
	o := options{
		sysRoot:  "/sys",
		procRoot: "/proc",
	}
	for _, opt := range opts {
		opt(&o)
	}
	levels, err := discover(&o)
	if err != nil {
		return nil, err
	}
	return &Topology{
		levels:  levels,
		flags:   o.flags,
		support: platformSupport(),
	}, nil
}

// Flags returns the discovery customization flags this topology was built
// with. The flags only matter during discovery, so this is mostly useful
// for debugging.
func (t *Topology) Flags() Flag {
	return t.flags
}

// Support returns what the underlying OS can and cannot do in terms of
// discovery and binding on this system.
func (t *Topology) Support() *Support {
	return t.support
}

// Depth returns the number of levels of this topology. In practice the full
// depth equals the depth of the [ObjectPU] level plus one.
func (t *Topology) Depth() int {
	return len(t.levels)
}

// Root returns the object at the root of the topology.
func (t *Topology) Root() *Object {
	return t.levels[0][0]
}

// TypeAtDepth returns the type of the objects populating the level at the
// given depth. It panics when depth is out of bounds.
func (t *Topology) TypeAtDepth(depth int) ObjectType {
	if depth < 0 || depth >= len(t.levels) {
		panic(fmt.Sprintf("depth %d out of bounds", depth))
	}
	return t.levels[depth][0].Type
}

// TypeAtRoot is a convenient shorthand for TypeAtDepth(0).
func (t *Topology) TypeAtRoot() ObjectType {
	return t.TypeAtDepth(0)
}

// SizeAtDepth returns the number of objects populating the level at the
// given depth. It panics when depth is out of bounds.
func (t *Topology) SizeAtDepth(depth int) int {
	if depth < 0 || depth >= len(t.levels) {
		panic(fmt.Sprintf("depth %d out of bounds", depth))
	}
	return len(t.levels[depth])
}

// ObjectsAtDepth returns the objects populating the level at the given
// depth, in logical order. It panics when depth is out of bounds.
func (t *Topology) ObjectsAtDepth(depth int) []*Object {
	if depth < 0 || depth >= len(t.levels) {
		panic(fmt.Sprintf("depth %d out of bounds", depth))
	}
	return t.levels[depth]
}

// DepthForType returns the depth of the level populated by objects of the
// given type. It returns [ErrTypeDepthUnknown] when no level has objects of
// this type, and [ErrTypeDepthMultiple] when several levels do, as usually
// is the case for [ObjectCache] on systems with multiple cache levels.
func (t *Topology) DepthForType(typ ObjectType) (int, error) {
	depth := -1
	for d := range t.levels {
		if t.levels[d][0].Type != typ {
			continue
		}
		if depth >= 0 {
			return 0, ErrTypeDepthMultiple
		}
		depth = d
	}
	if depth < 0 {
		return 0, ErrTypeDepthUnknown
	}
	return depth, nil
}

// DepthOrBelowForType returns the depth for the given object type like
// [Topology.DepthForType], except that when no level has objects of this
// type it returns the depth just below where such objects would have been:
// the highest level whose objects are logically contained in objects of the
// requested type. This is how callers locate “cores, or else the smallest
// sets of CPUs the OS knows about”.
func (t *Topology) DepthOrBelowForType(typ ObjectType) (int, error) {
	depth, err := t.DepthForType(typ)
	if !errors.Is(err, ErrTypeDepthUnknown) {
		return depth, err
	}
	pu, err := t.DepthForType(ObjectPU)
	if err != nil {
		return 0, err
	}
	for d := pu - 1; d >= 0; d-- {
		if t.TypeAtDepth(d).Compare(typ) < 0 {
			return d + 1, nil
		}
	}
	return 0, ErrTypeDepthUnknown
}

// DepthOrAboveForType returns the depth for the given object type like
// [Topology.DepthForType], except that when no level has objects of this
// type it returns the depth just above where such objects would have been.
func (t *Topology) DepthOrAboveForType(typ ObjectType) (int, error) {
	depth, err := t.DepthForType(typ)
	if !errors.Is(err, ErrTypeDepthUnknown) {
		return depth, err
	}
	pu, err := t.DepthForType(ObjectPU)
	if err != nil {
		return 0, err
	}
	for d := 0; d < pu; d++ {
		if t.TypeAtDepth(d).Compare(typ) > 0 {
			return d - 1, nil
		}
	}
	return 0, ErrTypeDepthUnknown
}

// ObjectsWithType returns all objects of the given type, in logical order.
// Like [Topology.DepthForType] it errors when objects of this type populate
// multiple levels.
func (t *Topology) ObjectsWithType(typ ObjectType) ([]*Object, error) {
	depth, err := t.DepthForType(typ)
	if err != nil {
		return nil, err
	}
	return t.levels[depth], nil
}
