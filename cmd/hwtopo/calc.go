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

	"github.com/spf13/cobra"
	"github.com/thediveo/hwtopo/bitmap"
)

func newCalcCommand() *cobra.Command {
	var (
		intersect bool
		invert    bool
		singlify  bool
	)
	calcCmd := &cobra.Command{
		Use:   "calc CPULIST [CPULIST ...]",
		Short: "calculate with CPU sets in textual list format",
		Long: `calculate with CPU sets in textual list format, such as "0-3,8".
Multiple sets are combined into their union, or into their intersection with
--and. The combination can then be complemented with --not and reduced to a
single CPU with --singlify. Open-ended sets like "4-" are fine.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sets := make([]*bitmap.CPUSet, 0, len(args))
			for _, arg := range args {
				set, err := bitmap.Parse([]byte(arg))
				if err != nil {
					return fmt.Errorf("invalid CPU list %q: %w", arg, err)
				}
				sets = append(sets, set)
			}
			result := sets[0]
			for _, set := range sets[1:] {
				if intersect {
					result = result.And(set)
					continue
				}
				result = result.Or(set)
			}
			if invert {
				result = result.Not()
			}
			if singlify {
				result.Singlify()
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", result)
			return nil
		},
	}
	calcCmd.Flags().BoolVar(&intersect, "and", false,
		"intersect the sets instead of uniting them")
	calcCmd.Flags().BoolVar(&invert, "not", false,
		"complement the combined set")
	calcCmd.Flags().BoolVar(&singlify, "singlify", false,
		"reduce the result to its single smallest CPU")
	return calcCmd
}
