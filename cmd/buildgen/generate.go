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
	"context"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/google/buildgen"
	"github.com/google/buildgen/buildfile"
	"github.com/google/buildgen/compdb"
	"github.com/google/buildgen/makefile"
	"github.com/google/buildgen/msbuild"
	"github.com/google/buildgen/ninja"
)

// UUIDMapName is the file in the build directory that keeps MSBuild project
// identities stable.
const UUIDMapName = ".buildgen-uuids.json"

var ErrUnknownBackend = eris.New("unknown backend")

type generateOptions struct {
	sourceDir string
	buildFile string
	backend   string
}

func newGenerateCmd() *cobra.Command {
	opts := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate <build dir>",
		Short: "Generates build files into a build directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return generate(cmd.Context(), args[0], opts)
		},
	}
	cmd.Flags().StringVarP(&opts.sourceDir, "source", "s", ".", "source directory")
	cmd.Flags().StringVarP(&opts.buildFile, "file", "f", "",
		"build description (default: "+buildfile.DefaultName+" in the source directory)")
	cmd.Flags().StringVarP(&opts.backend, "backend", "b", "", "make, ninja or msbuild")
	return cmd
}

func newRegenerateCmd() *cobra.Command {
	return &cobra.Command{
		Use:    "regenerate <build dir>",
		Short:  "Regenerates build files the way they were last generated",
		Args:   cobra.ExactArgs(1),
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := buildfile.LoadState(args[0])
			if err != nil {
				return err
			}
			return generate(cmd.Context(), args[0], &generateOptions{
				sourceDir: state.SourceDir,
				buildFile: state.BuildFile,
				backend:   state.Backend,
			})
		},
	}
}

// generatorCommand returns the command that runs this program again.
func generatorCommand() []string {
	exe, err := os.Executable()
	if err != nil {
		return nil
	}
	return []string{exe}
}

// newBackend returns the backend called name.  The returned finish
// function must run after a successful write.
func newBackend(ctx context.Context, name string, env *buildgen.Env) (buildgen.Backend, func() error, error) {
	switch name {
	case "make":
		return makefile.New(), nil, nil
	case "ninja":
		return ninja.New(), nil, nil
	case "msbuild":
		uuids, err := msbuild.LoadUUIDMap(ctx, env.BuildPath(UUIDMapName))
		if err != nil {
			return nil, nil, err
		}
		return msbuild.New(uuids), uuids.Save, nil
	default:
		return nil, nil, eris.Wrapf(ErrUnknownBackend, "%q", name)
	}
}

func generate(ctx context.Context, dir string, opts *generateOptions) error {
	log := buildgen.Log(ctx)

	sourceDir, err := filepath.Abs(opts.sourceDir)
	if err != nil {
		return eris.Wrapf(err, "failed to resolve %s", opts.sourceDir)
	}
	buildDir, err := filepath.Abs(dir)
	if err != nil {
		return eris.Wrapf(err, "failed to resolve %s", dir)
	}
	buildFile := filepath.Join(sourceDir, buildfile.DefaultName)
	if opts.buildFile != "" {
		buildFile, err = filepath.Abs(opts.buildFile)
		if err != nil {
			return eris.Wrapf(err, "failed to resolve %s", opts.buildFile)
		}
	}

	d, err := buildfile.Load(buildFile)
	if err != nil {
		return err
	}
	dotEnv, err := d.Config.ApplyEnv(sourceDir)
	if err != nil {
		return err
	}
	if opts.backend != "" {
		d.Config.Backend = opts.backend
	}
	d.Config.SetDefaults()

	env, err := d.Env(sourceDir, buildDir)
	if err != nil {
		return err
	}
	env.BuildFile = buildFile
	if dotEnv != "" {
		env.CacheFiles = append(env.CacheFiles, dotEnv)
	}
	env.Generator = generatorCommand()

	g, err := d.Graph(env.Toolchain)
	if err != nil {
		return eris.Wrapf(err, "failed to evaluate %s", buildFile)
	}
	log.Debug().Int("nodes", len(g.Nodes())).Int("edges", len(g.Edges())).Msg("Loaded build graph")

	backend, finish, err := newBackend(ctx, d.Config.Backend, env)
	if err != nil {
		return err
	}
	err = backend.Write(ctx, env, g)
	if err != nil {
		return eris.Wrapf(err, "%s backend failed", backend.Name())
	}
	if finish != nil {
		err = finish()
		if err != nil {
			return err
		}
	}

	if *d.Config.CompileCommands {
		entries, err := compdb.FromGraph(env, g)
		if err != nil {
			return err
		}
		err = compdb.Write(env.BuildPath(compdb.FileName), entries)
		if err != nil {
			return err
		}
	}

	state := &buildfile.State{
		SourceDir: sourceDir,
		BuildFile: buildFile,
		Backend:   d.Config.Backend,
	}
	err = state.Save(buildDir)
	if err != nil {
		return err
	}
	log.Info().Str("path", buildDir).Msgf("Generated %s files in %s", backend.Name(), buildDir)
	return nil
}
