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

// Package graphtest builds small graphs for backend tests.
package graphtest

import (
	"testing"

	"github.com/google/buildgen/graph"
	"github.com/google/buildgen/safestr"
	"github.com/google/buildgen/toolchain"
)

// A Builder adds nodes and edges to G, failing the test on any error.
type Builder struct {
	t testing.TB
	G *graph.Graph
}

func New(t testing.TB) *Builder {
	return &Builder{t: t, G: graph.New()}
}

func Src(p string) safestr.Path   { return safestr.NewPath(p, safestr.SourceRoot) }
func Build(p string) safestr.Path { return safestr.NewPath(p, safestr.BuildRoot) }

// Source returns the node of a file in the source directory.
func (b *Builder) Source(p string) graph.NodeID {
	return b.G.AddFile(Src(p))
}

func (b *Builder) add(e graph.Edge) {
	b.t.Helper()
	if _, err := b.G.AddEdge(e); err != nil {
		b.t.Fatalf("AddEdge: %s", err)
	}
}

// Compile compiles the source file src into the object obj in the build
// directory.  edit, if non-nil, can fill in the remaining fields.
func (b *Builder) Compile(src, obj string, edit func(*graph.Compile)) graph.NodeID {
	b.t.Helper()
	source := b.Source(src)
	lang, err := toolchain.LanguageFor(Src(src))
	if err != nil {
		b.t.Fatal(err)
	}
	out := b.G.AddFile(Build(obj))
	c := &graph.Compile{
		EdgeBase: graph.EdgeBase{Outputs: []graph.NodeID{out}},
		Source:   source,
		Language: lang,
	}
	if edit != nil {
		edit(c)
	}
	b.add(c)
	return out
}

// Link links objs and libs into out in the build directory.
func (b *Builder) Link(kind graph.LinkKind, out string, objs, libs []graph.NodeID) graph.NodeID {
	b.t.Helper()
	node := b.G.AddFile(Build(out))
	b.add(&graph.Link{
		EdgeBase:  graph.EdgeBase{Outputs: []graph.NodeID{node}},
		LinkKind:  kind,
		Name:      out,
		Objects:   objs,
		Libraries: libs,
	})
	return node
}

// Alias adds a phony target standing for deps.
func (b *Builder) Alias(name string, deps ...graph.NodeID) graph.NodeID {
	b.t.Helper()
	node := b.G.AddFile(Build(name))
	b.add(&graph.Alias{
		EdgeBase: graph.EdgeBase{Outputs: []graph.NodeID{node}, ExtraDeps: deps},
	})
	return node
}

// Command adds cmd as the producer of out.
func (b *Builder) Command(out string, cmd *graph.Command) graph.NodeID {
	b.t.Helper()
	node := b.G.AddFile(Build(out))
	cmd.Outputs = []graph.NodeID{node}
	b.add(cmd)
	return node
}

// HelloWorld returns the graph of an executable "app" built from main.c and
// util.c.
func HelloWorld(t testing.TB) *Builder {
	b := New(t)
	mainObj := b.Compile("main.c", "main.o", nil)
	util := b.Compile("util.c", "util.o", nil)
	b.Link(graph.Executable, "app", []graph.NodeID{mainObj, util}, nil)
	return b
}
