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
	"bytes"
	"os"
	"runtime"

	"github.com/thediveo/hwtopo/bitmap"

	. "github.com/onsi/ginkgo/v2/dsl/core"
	. "github.com/onsi/gomega"
	. "github.com/thediveo/success"
)

// allowedCPUs returns this process's CPU affinities as reported by
// /proc/self/status in its “Cpus_allowed_list” line.
func allowedCPUs() *bitmap.CPUSet {
	GinkgoHelper()
	prefix := []byte("Cpus_allowed_list:\t")
	for _, line := range bytes.Split(Successful(os.ReadFile("/proc/self/status")), []byte("\n")) {
		if !bytes.HasPrefix(line, prefix) {
			continue
		}
		return Successful(bitmap.Parse(line[len(prefix):]))
	}
	Fail("no Cpus_allowed_list in /proc/self/status")
	return nil
}

var _ = Describe("CPU affinities and binding", func() {

	It("gets this process's CPU affinities, consistent with /proc/self/status data", func() {
		cpus := Successful(Affinity(os.Getpid()))
		Expect(cpus.IsEmpty()).To(BeFalse())
		Expect(setwords.Load()).NotTo(BeZero())
		Expect(cpus.Equal(allowedCPUs())).To(BeTrue(),
			"affinity %q differs from status %q", cpus, allowedCPUs())
	})

	It("changes this process's CPU affinity", func() {
		runtime.LockOSThread() // don't unlock, throw away the tainted task

		affs := Successful(Affinity(0))
		oneonly := affs.Clone()
		oneonly.Singlify()
		Expect(SetAffinity(0, oneonly)).To(Succeed())

		Expect(Successful(Affinity(0)).Equal(oneonly)).To(BeTrue())

		Expect(SetAffinity(0, affs)).To(Succeed())
	})

	It("cannot set empty affinities", func() {
		Expect(SetAffinity(0, bitmap.New())).NotTo(Succeed())
	})

	Context("binding through a topology", func() {

		var topo *Topology

		BeforeEach(func() {
			topo = Successful(New())
		})

		It("gets this thread's binding", func() {
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()
			cpus := Successful(topo.CPUBind(CPUBindThread))
			Expect(cpus.IsEmpty()).To(BeFalse())
			Expect(cpus.AndNot(topo.Root().CPUSet).IsEmpty()).To(BeTrue(),
				"bound to CPUs outside the topology")
		})

		It("binds this thread to a single PU and back", func() {
			runtime.LockOSThread() // don't unlock, throw away the tainted task

			affs := Successful(topo.CPUBind(CPUBindThread))
			oneonly := affs.Clone()
			oneonly.Singlify()
			Expect(topo.SetCPUBind(oneonly, CPUBindThread)).To(Succeed())
			Expect(Successful(topo.CPUBind(CPUBindThread)).Weight()).To(Equal(1))

			Expect(topo.SetCPUBind(affs, CPUBindThread)).To(Succeed())
		})

		It("locates the CPU this thread last ran on", func() {
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()
			loc := Successful(topo.LastCPULocation(CPUBindThread))
			Expect(loc.Weight()).To(Equal(1))
			Expect(loc.AndNot(topo.Root().CPUSet).IsEmpty()).To(BeTrue())
		})

	})

})
