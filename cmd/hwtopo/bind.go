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

package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/thediveo/hwtopo"
	"github.com/thediveo/hwtopo/bitmap"
)

func newBindCommand() *cobra.Command {
	var singlify bool
	bindCmd := &cobra.Command{
		Use:   "bind PID CPULIST",
		Short: "bind a process to the specified set of CPUs",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pid, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid PID %q: %w", args[0], err)
			}
			cpus, err := bitmap.Parse([]byte(args[1]))
			if err != nil {
				return fmt.Errorf("invalid CPU list %q: %w", args[1], err)
			}
			if singlify {
				cpus.Singlify()
			}
			topo, err := newTopology()
			if err != nil {
				return err
			}
			// only bind to CPUs the topology actually knows about.
			cpus = cpus.And(topo.Root().CPUSet)
			if err := topo.SetProcCPUBind(pid, cpus, hwtopo.CPUBindProcess); err != nil {
				return err
			}
			bound, err := topo.ProcCPUBind(pid, hwtopo.CPUBindProcess)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "PID %d now bound to cpuset %q\n", pid, bound)
			return nil
		},
	}
	bindCmd.Flags().BoolVar(&singlify, "singlify", false,
		"reduce the CPU set to its single smallest CPU before binding")
	return bindCmd
}
