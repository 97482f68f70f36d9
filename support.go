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

// Support describes what the underlying OS can and cannot do on this
// system, as reported by [Topology.Support].
type Support struct {
	Discovery DiscoverySupport
	CPUBind   CPUBindSupport
	MemBind   MemBindSupport
}

// DiscoverySupport describes actual discovery support for this topology.
type DiscoverySupport struct {
	// Detecting the number of PU objects is supported.
	PU bool
	// Detecting NUMA nodes and their memory is supported.
	NUMA bool
}

// CPUBindSupport describes actual PU binding support for this topology.
type CPUBindSupport struct {
	// Binding the whole current process is supported.
	SetThisProcCPUBind bool
	// Getting the binding of the whole current process is supported.
	GetThisProcCPUBind bool
	// Binding a whole given process is supported.
	SetProcCPUBind bool
	// Getting the binding of a whole given process is supported.
	GetProcCPUBind bool
	// Binding the current thread only is supported.
	SetThisThreadCPUBind bool
	// Getting the binding of the current thread only is supported.
	GetThisThreadCPUBind bool
	// Binding a given thread only is supported.
	SetThreadCPUBind bool
	// Getting the binding of a given thread only is supported.
	GetThreadCPUBind bool
	// Getting the last processor where the current thread ran is supported.
	GetThisThreadLastCPULocation bool
}

// MemBindSupport describes actual memory binding support for this topology.
type MemBindSupport struct {
	// First-touch policy is supported.
	FirstTouch bool
	// Bind policy is supported.
	Bind bool
	// Interleave policy is supported.
	Interleave bool
	// Migration of bound memory is supported.
	Migrate bool
}

// platformSupport returns the support flags for Linux, the only platform
// this module currently speaks the syscall and sysfs dialects of.
func platformSupport() *Support {
	return &Support{
		Discovery: DiscoverySupport{
			PU:   true,
			NUMA: true,
		},
		CPUBind: CPUBindSupport{
			SetThisProcCPUBind:           true,
			GetThisProcCPUBind:           true,
			SetProcCPUBind:               true,
			GetProcCPUBind:               true,
			SetThisThreadCPUBind:         true,
			GetThisThreadCPUBind:         true,
			SetThreadCPUBind:             true,
			GetThreadCPUBind:             true,
			GetThisThreadLastCPULocation: true,
		},
		// memory binding is not wired up to the mbind(2) family yet.
		MemBind: MemBindSupport{},
	}
}
