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
	"io"

	"github.com/spf13/cobra"
	"github.com/thediveo/hwtopo"
)

func newTreeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tree",
		Short: "print the topology tree of this system",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			topo, err := newTopology()
			if err != nil {
				return err
			}
			printObject(cmd.OutOrStdout(), topo.Root(), 0)
			return nil
		},
	}
}

// printObject writes the subtree of the passed object in indented tree
// style.
func printObject(w io.Writer, obj *hwtopo.Object, indent int) {
	fmt.Fprintf(w, "%*s%s", indent*2, "", obj)
	if obj.OSIndex >= 0 {
		fmt.Fprintf(w, " #%d", obj.OSIndex)
	}
	fmt.Fprintf(w, " cpuset:%q\n", obj.CPUSet)
	for _, child := range obj.Children {
		printObject(w, child, indent+1)
	}
}
