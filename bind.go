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
	"os"
	"sync/atomic"
	"syscall"
	"unsafe"

	"github.com/thediveo/hwtopo/bitmap"

	"golang.org/x/sys/unix"
)

// CPUBindFlags refine how a CPU binding is to be applied; see also
// [Topology.SetCPUBind].
type CPUBindFlags int

const (
	// CPUBindProcess binds all threads of the current (possibly)
	// multithreaded process.
	CPUBindProcess CPUBindFlags = 1 << iota
	// CPUBindThread binds the current thread of the current process; make
	// sure to have the OS-level thread locked to the calling go routine.
	CPUBindThread
	// CPUBindStrict requests strict binding from the OS; on Linux,
	// sched_setaffinity(2) always binds strictly, so this flag changes
	// nothing.
	CPUBindStrict
	// CPUBindNoMemBind avoids any effect on memory binding; always the case
	// here, as memory binding is never touched.
	CPUBindNoMemBind
)

// setwords reflects the dynamically determined size of kernel CPU masks on
// this system (size in uint64 words). This is usually smaller than the
// fixed-sized [unix.CPUSet] that Go's [unix.SchedGetaffinity] uses.
var setwords atomic.Uint64

const wordbytesize = 8 // bytes per mask word

func init() {
	setwords.Store(1)
}

// Affinity returns the affinity CPU set of the process or task with the
// passed PID/TID. If tid is zero, then the affinity CPU set of the calling
// thread is returned (make sure to have the OS-level thread locked to the
// calling go routine in this case). The returned set wraps the mask buffer
// filled in by the kernel, without copying.
//
// Notes:
//   - we don't use [unix.SchedGetaffinity] as this is tied to the fixed
//     size [unix.CPUSet] type; instead, we dynamically figure out the size
//     needed and cache the size internally.
//   - retrieving the affinity CPU mask and then speed-running it into a
//     set is roughly two orders of magnitude faster than fetching
//     “/proc/$PID/status” and looking for the “Cpus_allowed_list”, because
//     generating the broad status procfs file is expensive.
func Affinity(tid int) (*bitmap.CPUSet, error) {
	var mask []uint64

	setlenStart := setwords.Load()
	setlen := setlenStart
	for {
		mask = make([]uint64, setlen)
		// see also:
		// https://man7.org/linux/man-pages/man2/sched_setaffinity.2.html;
		// we use RawSyscall here instead of Syscall as we know that
		// SYS_SCHED_GETAFFINITY does not block, following Go's stdlib
		// implementation.
		_, _, e := unix.RawSyscall(unix.SYS_SCHED_GETAFFINITY,
			uintptr(tid), uintptr(setlen*wordbytesize), uintptr(unsafe.Pointer(&mask[0])))
		if e != 0 {
			if e == unix.EINVAL {
				setlen *= 2
				continue
			}
			return nil, e
		}
		// Remember the new size; if this fails because another go routine
		// already upped the mask size, retry until we either notice that
		// we're smaller than what was set as the new mask size, or we
		// succeed in setting the size.
		for {
			if setwords.CompareAndSwap(setlenStart, setlen) {
				break
			}
			setlenStart = setwords.Load()
			if setlenStart > setlen {
				break
			}
		}
		break
	}
	return bitmap.Wrap(mask), nil
}

// SetAffinity sets the CPU affinities for the specified task/process.
// Otherwise, it returns an error. It is an error trying to set no
// affinities. A set with an infinite tail is truncated at the width of the
// kernel's CPU mask.
func SetAffinity(tid int, cpus *bitmap.CPUSet) error {
	if cpus.IsEmpty() {
		return syscall.EINVAL
	}
	nwords := int(setwords.Load())
	if last := cpus.Last(); last >= 0 && last/64+1 > nwords {
		nwords = last/64 + 1
	}
	mask := cpus.Mask(nwords)
	_, _, e := unix.RawSyscall(unix.SYS_SCHED_SETAFFINITY,
		uintptr(tid), uintptr(uint64(len(mask))*wordbytesize), uintptr(unsafe.Pointer(&mask[0])))
	if e != 0 {
		return e
	}
	return nil
}

// SetCPUBind binds the current process or thread to the CPUs in the passed
// set, as refined by the passed flags: [CPUBindThread] binds only the
// calling thread, otherwise all threads of this process get bound.
func (t *Topology) SetCPUBind(cpus *bitmap.CPUSet, flags CPUBindFlags) error {
	if flags&CPUBindThread != 0 {
		return t.SetProcCPUBind(0, cpus, flags)
	}
	return t.SetProcCPUBind(os.Getpid(), cpus, flags)
}

// SetProcCPUBind binds the process or task with the passed PID/TID to the
// CPUs in the passed set.
func (t *Topology) SetProcCPUBind(pid int, cpus *bitmap.CPUSet, flags CPUBindFlags) error {
	if err := SetAffinity(pid, cpus); err != nil {
		return fmt.Errorf("cannot bind PID %d: %w", pid, err)
	}
	return nil
}

// CPUBind returns the set of CPUs the current process or thread is bound
// to; see [Topology.SetCPUBind] regarding flags.
func (t *Topology) CPUBind(flags CPUBindFlags) (*bitmap.CPUSet, error) {
	if flags&CPUBindThread != 0 {
		return t.ProcCPUBind(0, flags)
	}
	return t.ProcCPUBind(os.Getpid(), flags)
}

// ProcCPUBind returns the set of CPUs the process or task with the passed
// PID/TID is bound to.
func (t *Topology) ProcCPUBind(pid int, flags CPUBindFlags) (*bitmap.CPUSet, error) {
	cpus, err := Affinity(pid)
	if err != nil {
		return nil, fmt.Errorf("cannot get binding of PID %d: %w", pid, err)
	}
	return cpus, nil
}

// LastCPULocation returns the physical CPU where the calling thread last
// ran, as a singleton CPU set.
//
// The operating system may move tasks from one processor to another at any
// time according to their binding, so this function may return something
// that is already outdated.
func (t *Topology) LastCPULocation(flags CPUBindFlags) (*bitmap.CPUSet, error) {
	cpu, _, err := unix.Getcpu()
	if err != nil {
		return nil, fmt.Errorf("cannot locate current CPU: %w", err)
	}
	return bitmap.Singleton(uint(cpu)), nil
}
