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
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/thediveo/hwtopo/bitmap"
)

// discover builds the topology tree levels from the sysfs and procfs
// hierarchies. The kernel describes CPU and node sets in the same textual
// list format as [bitmap.Parse] understands, so all mask plumbing runs
// through the bitmap engine.
func discover(o *options) ([][]*Object, error) {
	cpusfile := "online"
	if o.flags&FlagWholeSystem != 0 {
		cpusfile = "possible"
	}
	cpus, err := readSet(filepath.Join(o.sysRoot, "devices/system/cpu", cpusfile))
	if err != nil {
		return nil, fmt.Errorf("cannot discover CPUs: %w", err)
	}
	if cpus.IsEmpty() {
		return nil, errors.New("cannot discover CPUs: none reported")
	}

	machine := &Object{
		Type:    ObjectMachine,
		OSIndex: -1,
		CPUSet:  cpus,
		NodeSet: bitmap.New(),
	}
	if hostname, err := os.Hostname(); err == nil {
		machine.Name = hostname
	}
	machine.Memory.TotalMemory = readMemTotal(filepath.Join(o.procRoot, "meminfo"))

	nodes := discoverNodes(o, machine)
	pkgs, cores, pus := discoverCPUs(o, cpus)
	caches := discoverCaches(o, cpus)

	levels := [][]*Object{}
	addLevel := func(objs []*Object) {
		if len(objs) == 0 {
			return
		}
		slices.SortStableFunc(objs, func(a, b *Object) int {
			return a.CPUSet.First() - b.CPUSet.First()
		})
		levels = append(levels, objs)
	}
	addLevel([]*Object{machine})
	addLevel(nodes)
	addLevel(pkgs)
	for _, level := range cacheLevels(caches) {
		addLevel(level)
	}
	addLevel(cores)
	addLevel(pus)

	assignNodeSets(levels, nodes)
	linkLevels(levels)
	return levels, nil
}

// discoverNodes returns the NUMA node objects of the system, if any,
// additionally recording the discovered node indices and local memory in
// the machine object. Systems without any NUMA information simply yield no
// node objects, dropping the NUMA node level from the tree.
func discoverNodes(o *options, machine *Object) []*Object {
	nodesdir := filepath.Join(o.sysRoot, "devices/system/node")
	nodeset, err := readSet(filepath.Join(nodesdir, "online"))
	if err != nil {
		machine.Memory.LocalMemory = machine.Memory.TotalMemory
		return nil
	}
	nodes := []*Object{}
	for nodeid := range nodeset.Indices() {
		nodedir := filepath.Join(nodesdir, fmt.Sprintf("node%d", nodeid))
		nodecpus, err := readSet(filepath.Join(nodedir, "cpulist"))
		if err != nil {
			continue
		}
		cpuset := nodecpus.And(machine.CPUSet)
		if cpuset.IsEmpty() {
			// memory-only node; it contributes memory, but no place in the
			// processor tree.
			machine.NodeSet.Add(nodeid)
			continue
		}
		node := &Object{
			Type:    ObjectNUMANode,
			OSIndex: int(nodeid),
			CPUSet:  cpuset,
			NodeSet: bitmap.Singleton(nodeid),
		}
		node.Memory.LocalMemory = readMemTotal(filepath.Join(nodedir, "meminfo"))
		node.Memory.TotalMemory = node.Memory.LocalMemory
		machine.NodeSet.Add(nodeid)
		nodes = append(nodes, node)
	}
	return nodes
}

// discoverCPUs returns the package, core, and PU objects for the passed set
// of CPUs, grouping the CPUs by their sysfs physical package and core
// identifications.
func discoverCPUs(o *options, cpus *bitmap.CPUSet) (pkgs, cores, pus []*Object) {
	type coreid struct {
		pkg  int
		core int
	}
	pkgsets := map[int]*bitmap.CPUSet{}
	coresets := map[coreid]*bitmap.CPUSet{}
	for cpu := range cpus.Indices() {
		pus = append(pus, &Object{
			Type:    ObjectPU,
			OSIndex: int(cpu),
			CPUSet:  bitmap.Singleton(cpu),
		})
		topodir := filepath.Join(o.sysRoot, "devices/system/cpu",
			fmt.Sprintf("cpu%d", cpu), "topology")
		pkg, err := readInt(filepath.Join(topodir, "physical_package_id"))
		if err != nil {
			// no topology information for this CPU (offline, or very
			// minimal kernel); it then appears directly below the machine.
			continue
		}
		if pkgsets[pkg] == nil {
			pkgsets[pkg] = bitmap.New()
		}
		pkgsets[pkg].Add(cpu)
		core, err := readInt(filepath.Join(topodir, "core_id"))
		if err != nil {
			continue
		}
		id := coreid{pkg: pkg, core: core}
		if coresets[id] == nil {
			coresets[id] = bitmap.New()
		}
		coresets[id].Add(cpu)
	}
	for pkg, set := range pkgsets {
		pkgs = append(pkgs, &Object{
			Type:    ObjectPackage,
			OSIndex: pkg,
			CPUSet:  set,
		})
	}
	for id, set := range coresets {
		cores = append(cores, &Object{
			Type:    ObjectCore,
			OSIndex: id.core,
			CPUSet:  set,
		})
	}
	return pkgs, cores, pus
}

// discoverCaches returns the distinct cache objects for the passed set of
// CPUs, deduplicating caches shared between several CPUs by their level,
// type, and set of sharing CPUs. Instruction caches are skipped unless
// [FlagICaches] asks for them.
func discoverCaches(o *options, cpus *bitmap.CPUSet) []*Object {
	type cachekey struct {
		level  int
		typ    CacheType
		shared string
	}
	seen := map[cachekey]bool{}
	caches := []*Object{}
	for cpu := range cpus.Indices() {
		for idx := 0; ; idx++ {
			cachedir := filepath.Join(o.sysRoot, "devices/system/cpu",
				fmt.Sprintf("cpu%d", cpu), "cache", fmt.Sprintf("index%d", idx))
			level, err := readInt(filepath.Join(cachedir, "level"))
			if err != nil {
				break // cache indices are contiguous, so we're done here.
			}
			typ := readCacheType(cachedir)
			if typ == CacheInstruction && o.flags&FlagICaches == 0 {
				continue
			}
			shared, err := readSet(filepath.Join(cachedir, "shared_cpu_list"))
			if err != nil {
				shared = bitmap.Singleton(cpu)
			}
			cpuset := shared.And(cpus)
			key := cachekey{level: level, typ: typ, shared: cpuset.String()}
			if seen[key] {
				continue
			}
			seen[key] = true
			attr := &CacheAttributes{
				Level: level,
				Type:  typ,
			}
			if size, err := readString(filepath.Join(cachedir, "size")); err == nil {
				attr.Size = parseSize(size)
			}
			if linesize, err := readInt(filepath.Join(cachedir, "coherency_line_size")); err == nil {
				attr.LineSize = uint(linesize)
			}
			if ways, err := readInt(filepath.Join(cachedir, "ways_of_associativity")); err == nil {
				attr.Associativity = ways
			}
			caches = append(caches, &Object{
				Type:    ObjectCache,
				OSIndex: -1,
				CPUSet:  cpuset,
				Cache:   attr,
			})
		}
	}
	return caches
}

// cacheLevels groups the passed cache objects into tree levels by their
// cache level, ordered from the outermost (highest) cache level down to L1,
// as outer caches contain inner caches.
func cacheLevels(caches []*Object) [][]*Object {
	bylevel := map[int][]*Object{}
	for _, cache := range caches {
		bylevel[cache.Cache.Level] = append(bylevel[cache.Cache.Level], cache)
	}
	levelnos := []int{}
	for level := range bylevel {
		levelnos = append(levelnos, level)
	}
	slices.Sort(levelnos)
	slices.Reverse(levelnos)
	levels := [][]*Object{}
	for _, level := range levelnos {
		levels = append(levels, bylevel[level])
	}
	return levels
}

// assignNodeSets gives every object its set of covered NUMA nodes: the
// nodes whose CPUs intersect the object's CPUs. Without any NUMA nodes all
// objects end up with empty node sets.
func assignNodeSets(levels [][]*Object, nodes []*Object) {
	for _, level := range levels {
		for _, obj := range level {
			if obj.NodeSet != nil {
				continue // machine and NUMA nodes already know their nodes.
			}
			obj.NodeSet = bitmap.New()
			for _, node := range nodes {
				if node.CPUSet.Intersects(obj.CPUSet) {
					obj.NodeSet.Add(uint(node.OSIndex))
				}
			}
		}
	}
}

// linkLevels wires up the tree: depths, logical indices, cousin links along
// each level, and parent/child/sibling links across levels. An object's
// parent is the nearest object on a higher level whose CPUs cover the
// object's CPUs.
func linkLevels(levels [][]*Object) {
	for depth, level := range levels {
		for i, obj := range level {
			obj.Depth = depth
			obj.LogicalIndex = i
			if i > 0 {
				obj.PrevCousin = level[i-1]
				level[i-1].NextCousin = obj
			}
			if depth == 0 {
				continue
			}
			parent := findParent(levels, depth-1, obj)
			if parent == nil {
				continue
			}
			obj.Parent = parent
			obj.SiblingRank = len(parent.Children)
			if n := len(parent.Children); n > 0 {
				obj.PrevSibling = parent.Children[n-1]
				parent.Children[n-1].NextSibling = obj
			}
			parent.Children = append(parent.Children, obj)
		}
	}
}

// findParent returns the nearest object at or above the passed depth whose
// CPU set covers the object's CPU set, or nil if there is none, which can
// only happen for the root.
func findParent(levels [][]*Object, depth int, obj *Object) *Object {
	for ; depth >= 0; depth-- {
		for _, candidate := range levels[depth] {
			if obj.CPUSet.AndNot(candidate.CPUSet).IsEmpty() {
				return candidate
			}
		}
	}
	return nil
}

// readString returns the whitespace-trimmed contents of the passed pseudo
// file.
func readString(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

// readInt returns the integer contents of the passed pseudo file.
func readInt(path string) (int, error) {
	s, err := readString(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(s)
}

// readSet parses the passed pseudo file in the kernel's textual index list
// format, such as “0-3,8-11”.
func readSet(path string) (*bitmap.CPUSet, error) {
	s, err := readString(path)
	if err != nil {
		return nil, err
	}
	set, err := bitmap.Parse([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("malformed index list in %s: %w", path, err)
	}
	return set, nil
}

// readMemTotal extracts the MemTotal amount from a meminfo-style pseudo
// file, returning it in bytes, or zero when unavailable. It handles both
// the /proc/meminfo format “MemTotal: N kB” and the per-node format
// “Node 0 MemTotal: N kB”.
func readMemTotal(path string) uint64 {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	for _, line := range strings.Split(string(b), "\n") {
		fields := strings.Fields(line)
		for i, field := range fields {
			if field != "MemTotal:" || i+1 >= len(fields) {
				continue
			}
			kb, err := strconv.ParseUint(fields[i+1], 10, 64)
			if err != nil {
				return 0
			}
			return kb * 1024
		}
	}
	return 0
}

// readCacheType returns the type of the cache described by the passed sysfs
// cache directory, defaulting to a unified cache.
func readCacheType(cachedir string) CacheType {
	switch typ, _ := readString(filepath.Join(cachedir, "type")); typ {
	case "Data":
		return CacheData
	case "Instruction":
		return CacheInstruction
	default:
		return CacheUnified
	}
}

// parseSize parses a sysfs cache size, such as “32K” or “8M”, into bytes.
func parseSize(s string) uint64 {
	mult := uint64(1)
	switch {
	case strings.HasSuffix(s, "K"):
		mult, s = 1024, strings.TrimSuffix(s, "K")
	case strings.HasSuffix(s, "M"):
		mult, s = 1024*1024, strings.TrimSuffix(s, "M")
	case strings.HasSuffix(s, "G"):
		mult, s = 1024*1024*1024, strings.TrimSuffix(s, "G")
	}
	size, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return size * mult
}
