// Copyright 2026 Google Inc. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"github.com/spf13/cobra"

	"github.com/google/buildgen/compdb"
	"github.com/google/buildgen/deptools"
)

func newDepfixerCmd() *cobra.Command {
	return &cobra.Command{
		Use:    "depfixer",
		Short:  "Adds an empty rule for every dependency of a depfile read from stdin",
		Args:   cobra.NoArgs,
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return deptools.FixDepfile(cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func newCompdbCmd() *cobra.Command {
	compdbCmd := &cobra.Command{
		Use:   "compdb",
		Short: "Works with compilation databases",
	}
	compdbCmd.AddCommand(&cobra.Command{
		Use:   "merge <output file> <input files...>",
		Short: "Merges several compile_commands.json files into one",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := compdb.Merge(args[1:]...)
			if err != nil {
				return err
			}
			return compdb.Write(args[0], entries)
		},
	})
	return compdbCmd
}
