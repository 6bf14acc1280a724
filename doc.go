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

// Buildgen is a meta-build compiler.  It takes a backend-agnostic build graph
// of files, compile steps, link steps, aliases and ad-hoc commands, and renders
// it into the native input of a build executor: a GNU Make makefile, a Ninja
// (https://ninja-build.org/) manifest, or a Visual Studio solution with one
// MSBuild project per binary.
//
// Command lines are carried through the graph as symbolic strings (see package
// safestr) so that each backend can apply its own escaping and quoting rules
// exactly once, when the file is written.  Paths are symbolic too: a path is
// relative to the source root, the build root, an install root, or absolute,
// and each backend decides how those roots are spelled in its output.
//
// Generation is a single pass.  The front end builds the graph, one backend is
// chosen and handed the whole graph together with an Env describing the source
// and build directories, and the backend writes its files.  Any error aborts
// the run before a file is replaced; files are written with WriteFileAtomic so
// an interrupted run never leaves a half-written build file behind.
//
// Each backend also wires up incremental-rebuild metadata: dependency files
// for compiled sources, a rule that reruns the generator when the build
// description changes, and, for MSBuild, a persisted map that keeps project
// GUIDs stable across regenerations.
package buildgen
