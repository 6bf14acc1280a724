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
	"github.com/google/buildgen/graph"
	"github.com/google/buildgen/safestr"
)

var (
	space = safestr.Literal(" ")
	and   = safestr.Literal(" && ")
)

// QuoteFunc returns the shell quoting function for p.
func (p Platform) QuoteFunc() func(string) string {
	if p == Windows {
		return safestr.QuoteWindows
	}
	return safestr.QuoteShell
}

// CommandLine joins cmds into a single shell command line.  Each command is a
// list of words; a Path in the first position is realized as an executable
// so that the shell never searches PATH for a file in the build tree.  vars
// are set for every command.
//
// The result still needs rendering in a shell context: the Raw words are
// quoted one by one, while the separators between them are Literals.
func (e *Env) CommandLine(roots safestr.RootMap, cmds [][]safestr.String,
	vars []graph.EnvVar) safestr.String {

	var lines []safestr.String
	for _, cmd := range cmds {
		if len(cmd) == 0 {
			continue
		}
		words := make([]safestr.String, 0, len(cmd)+len(vars))
		if e.Platform != Windows {
			for _, v := range vars {
				words = append(words, safestr.Join(safestr.Literal(v.Name+"="), v.Value))
			}
		}
		for i, word := range cmd {
			if p, ok := word.(safestr.Path); ok && i == 0 {
				word = safestr.Realize(p, roots, true)
			}
			words = append(words, word)
		}
		lines = append(lines, safestr.JoinWith(words, space))
	}

	line := safestr.JoinWith(lines, and)
	if e.Platform == Windows && (len(vars) > 0 || len(lines) > 1) {
		var sets []safestr.String
		for _, v := range vars {
			sets = append(sets, safestr.Join(safestr.Literal("set "+v.Name+"="), v.Value))
		}
		sets = append(sets, line)
		return safestr.Join(safestr.Literal("cmd /c "), safestr.JoinWith(sets, and))
	}
	return line
}

// InstallCommands returns the commands that copy every install of g into
// place.  Destinations carry the destdir flag so that staged installs work
// on platforms that support them.
func (e *Env) InstallCommands(g *graph.Graph) [][]safestr.String {
	var cmds [][]safestr.String
	for _, in := range g.Installs {
		src := g.Node(in.Source).Path
		dest := in.Dest.WithDestDir(true)
		if e.Platform == Windows {
			cmds = append(cmds, []safestr.String{
				safestr.Raw("cmd"), safestr.Raw("/c"), safestr.Raw("copy"), safestr.Raw("/Y"), src, dest,
			})
			continue
		}
		cmds = append(cmds,
			[]safestr.String{safestr.Raw("mkdir"), safestr.Raw("-p"), dest.Parent()},
			[]safestr.String{safestr.Raw("cp"), safestr.Raw("-p"), src, dest})
	}
	return cmds
}

// TestCommand returns the command line that runs every test of g in order,
// stopping at the first failure.
func (e *Env) TestCommand(roots safestr.RootMap, g *graph.Graph) safestr.String {
	var lines []safestr.String
	for _, t := range g.Tests {
		lines = append(lines, e.CommandLine(roots, [][]safestr.String{t.Command}, t.Env))
	}
	return safestr.JoinWith(lines, and)
}
