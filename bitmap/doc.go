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
Package bitmap implements sets of non-negative indices that identify
physical resources by their OS-assigned numbers, such as CPUs ([CPUSet]) and
NUMA nodes ([NodeSet]).

Logically, [List] and [Set] are equivalent, as they both represent sets of
indices. The difference lies in their internal representations, mirroring
the two textual forms the Linux kernel uses in syscalls and procfs/sysfs
pseudo files.

  - [List] internally stores indices as ranges, such as 1-4, 8-15.
  - [Set] internally stores indices as bits in a word string, such as (hex)
    ff1e.

[List.Set] converts a List into its corresponding Set. In the opposite
direction, [Set.List] converts a Set into its equivalent List.

Unlike a plain kernel affinity mask, a Set can additionally carry an
infinite tail: all indices from some threshold upward are then members. This
keeps the complement of any set representable, so [Set.Invert] and [Set.Not]
are total, at the price of such sets having no finite cardinality
([Set.Weight] then returns [Unbounded]) and no largest member ([Set.Last]
then returns [None]). In the canonical textual list format, an infinite tail
renders as a final open range, as in “0-2,4-”.
*/
package bitmap
