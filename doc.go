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

/*
Package hwtopo discovers the hardware topology of the system a process runs
on and represents it as a navigable tree of [Object] elements: the machine,
its NUMA nodes, physical packages, caches, cores, and processing units
(PUs). Each object identifies its processing and memory resources using the
index sets of the sibling [github.com/thediveo/hwtopo/bitmap] package, so
schedulers, pinning tools, and parallel runtimes can answer “what resources
exist and how are they related” and then act on the answer, without parsing
sysfs and procfs themselves.

[New] discovers the [Topology], which then can be queried by level depth and
[ObjectType], walked along parent/child/cousin links, and used to bind
processes and tasks to CPUs via [Topology.SetCPUBind] and friends, or via
the lower-level [Affinity] and [SetAffinity].

This package speaks Linux: discovery reads the sysfs and procfs pseudo
filesystems and binding uses the sched_setaffinity(2) syscall family.
*/
package hwtopo
