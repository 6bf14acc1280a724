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

package buildgen

import (
	"context"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/google/buildgen/graph"
	"github.com/google/buildgen/safestr"
	"github.com/google/buildgen/toolchain"
)

type Platform string

const (
	Posix   Platform = "posix"
	Windows Platform = "windows"
)

// HasDestDir returns true if the platform supports staged installs into a
// DESTDIR.
func (p Platform) HasDestDir() bool {
	return p == Posix
}

// Separator returns the path separator used in build files for p.
func (p Platform) Separator() string {
	if p == Windows {
		return `\`
	}
	return "/"
}

// Env describes where and for what a build is generated.
type Env struct {
	// SourceDir and BuildDir are absolute.
	SourceDir string
	BuildDir  string

	Platform  Platform
	Toolchain toolchain.Toolchain

	// InstallDirs maps install roots to absolute directories.
	InstallDirs map[safestr.Root]string

	// BuildFile is the build description the graph was loaded from, and
	// CacheFiles are directory-listing caches it was evaluated against.  The
	// generated build files rerun Generator when any of them changes.
	BuildFile  string
	CacheFiles []string
	Generator  []string

	// ProjectName names the solution for backends that need one.
	ProjectName string
}

// Backend renders a build graph into the input of one build executor.
type Backend interface {
	Name() string

	// Write renders g and writes the resulting files into env.BuildDir.
	// Nothing is written unless the whole graph rendered successfully.
	Write(ctx context.Context, env *Env, g *graph.Graph) error
}

// BuildPath returns the absolute path of name in the build directory.
func (e *Env) BuildPath(name string) string {
	return filepath.Join(e.BuildDir, name)
}

// InstallDir returns the directory for an install root.
func (e *Env) InstallDir(root safestr.Root) (string, error) {
	dir, ok := e.InstallDirs[root]
	if !ok {
		return "", eris.Errorf("no directory configured for install root %q", root)
	}
	return dir, nil
}

// RelSourceDir returns the source directory relative to the build directory,
// or the absolute source directory when no relative path exists.
func (e *Env) RelSourceDir() string {
	rel, err := filepath.Rel(e.BuildDir, e.SourceDir)
	if err != nil {
		return e.SourceDir
	}
	return filepath.ToSlash(rel)
}

// GeneratorCommand returns the command that regenerates the build files.
func (e *Env) GeneratorCommand() []safestr.String {
	words := e.Generator
	if len(words) == 0 {
		words = []string{"buildgen"}
	}
	cmd := safestr.Raws(words...)
	cmd = append(cmd, safestr.Raw("regenerate"), safestr.NewPath("", safestr.BuildRoot))
	return cmd
}

// DepfixerCommand returns the command that post-processes a depfile.
func (e *Env) DepfixerCommand() []safestr.String {
	words := e.Generator
	if len(words) == 0 {
		words = []string{"buildgen"}
	}
	return append(safestr.Raws(words...), safestr.Raw("depfixer"))
}
