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

// hwtopo prints the hardware topology of this system, calculates with CPU
// sets in the kernel's textual list format, and pins processes to CPUs.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/thediveo/hwtopo"
)

var (
	sysRoot     string
	procRoot    string
	wholeSystem bool
	iCaches     bool
)

// newTopology discovers the topology as customized by the global CLI flags.
func newTopology() (*hwtopo.Topology, error) {
	flags := hwtopo.Flag(0)
	if wholeSystem {
		flags |= hwtopo.FlagWholeSystem
	}
	if iCaches {
		flags |= hwtopo.FlagICaches
	}
	return hwtopo.New(
		hwtopo.WithSysRoot(sysRoot),
		hwtopo.WithProcRoot(procRoot),
		hwtopo.WithFlags(flags))
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "hwtopo",
		Short:        "hwtopo shows the hardware topology and works with CPU sets",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&sysRoot, "sys-root", "/sys",
		"root of the sysfs hierarchy to discover from")
	rootCmd.PersistentFlags().StringVar(&procRoot, "proc-root", "/proc",
		"root of the procfs hierarchy to discover from")
	rootCmd.PersistentFlags().BoolVar(&wholeSystem, "whole-system", false,
		"discover all possible CPUs, not only the online ones")
	rootCmd.PersistentFlags().BoolVar(&iCaches, "i-caches", false,
		"additionally discover instruction caches")
	rootCmd.AddCommand(newTreeCommand())
	rootCmd.AddCommand(newCalcCommand())
	rootCmd.AddCommand(newBindCommand())
	return rootCmd
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		slog.Error("command failed", "err", err)
		os.Exit(1)
	}
}
