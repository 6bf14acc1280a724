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

// buildgen generates Make, Ninja or MSBuild files from a YAML build
// description.
package main

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/google/buildgen"
)

func newRootCmd() *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "buildgen",
		Short: "Generates build files from a build description",
		Long: `buildgen reads a buildgen.yaml build description and writes the input of a
build tool (Make, Ninja or MSBuild) into a build directory.  The generated
files regenerate themselves when the description changes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := zerolog.InfoLevel
			if verbose {
				level = zerolog.DebugLevel
			}
			logger := zerolog.New(NewConsoleWriter(cmd.ErrOrStderr())).Level(level)
			cmd.SetContext(buildgen.WithLogger(cmd.Context(), &logger))
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug messages")

	rootCmd.AddCommand(newGenerateCmd(), newRegenerateCmd(), newDepfixerCmd(), newCompdbCmd())
	return rootCmd
}

func main() {
	err := newRootCmd().ExecuteContext(context.Background())
	if err != nil {
		logger := zerolog.New(NewConsoleWriter(os.Stderr))
		logger.Error().Err(err).Msg("buildgen failed")
		os.Exit(1)
	}
}
