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

// Package compdb writes and merges compilation databases, the
// compile_commands.json files read by clang tooling.
package compdb

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/google/buildgen"
	"github.com/google/buildgen/graph"
	"github.com/google/buildgen/safestr"
)

// FileName is the conventional name of a compilation database.
const FileName = "compile_commands.json"

// Shell is the only context of a database: a word of a command line.
const Shell safestr.Context = 0

var ErrNoInputs = eris.New("no compilation databases to merge")

// An Entry describes how one translation unit is compiled.
type Entry struct {
	Directory string   `json:"directory"`
	File      string   `json:"file"`
	Command   string   `json:"command,omitempty"`
	Arguments []string `json:"arguments,omitempty"`
	Output    string   `json:"output,omitempty"`
}

// RootMap returns how paths are realized in a database whose entries run in
// env.BuildDir.  Source paths are absolute so that tools can find the files
// without knowing the build directory.
func RootMap(env *buildgen.Env) safestr.RootMap {
	return safestr.RootMap{
		Prefixes: map[safestr.Root]safestr.String{
			safestr.SourceRoot: safestr.Raw(filepath.ToSlash(env.SourceDir)),
		},
	}
}

func escaper(p buildgen.Platform) safestr.EscapeFunc {
	quote := p.QuoteFunc()
	return func(text string, _ safestr.Context, q bool) string {
		if q {
			return quote(text)
		}
		return text
	}
}

// FromGraph returns one entry for each compile edge of g, in edge order.
func FromGraph(env *buildgen.Env, g *graph.Graph) ([]Entry, error) {
	roots := RootMap(env)
	r := &safestr.Renderer{Escape: escaper(env.Platform), Roots: roots}

	entries := []Entry{}
	for _, e := range g.Edges() {
		c, ok := e.(*graph.Compile)
		if !ok {
			continue
		}
		src := g.Node(c.Source).Path
		obj := g.Node(c.Output()).Path

		comp, err := env.Toolchain.Compiler(c.Language)
		if err != nil {
			return nil, eris.Wrapf(err, "compile edge for %s", obj)
		}
		words := comp.Command()
		words = append(words, comp.Flags(c)...)
		words = append(words, comp.Args(src, obj, nil)...)

		args := make([]string, len(words))
		for i, word := range words {
			args[i] = safestr.Text(word, roots)
		}
		entries = append(entries, Entry{
			Directory: env.BuildDir,
			File:      safestr.Text(src, roots),
			Command:   strings.Join(r.RenderList(words, Shell), " "),
			Arguments: args,
			Output:    safestr.Text(obj, roots),
		})
	}
	return entries, nil
}

// Write stores entries as a database at filename.
func Write(filename string, entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return eris.Wrap(err, "failed to encode compilation database")
	}
	return buildgen.WriteFileAtomic(filename, append(data, '\n'))
}

// Read loads the database at filename.
func Read(filename string) ([]Entry, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to read %s", filename)
	}
	var entries []Entry
	err = json.Unmarshal(data, &entries)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to decode %s", filename)
	}
	return entries, nil
}

// Merge concatenates the databases at filenames, in order.  The entries are
// taken as they are, so relative directories stay relative to wherever each
// database was generated.
func Merge(filenames ...string) ([]Entry, error) {
	if len(filenames) == 0 {
		return nil, ErrNoInputs
	}
	merged := []Entry{}
	for _, filename := range filenames {
		entries, err := Read(filename)
		if err != nil {
			return nil, err
		}
		merged = append(merged, entries...)
	}
	return merged, nil
}
