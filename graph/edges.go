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

package graph

import (
	"fmt"

	"github.com/google/buildgen/safestr"
)

// An Edge is one build action.  The set of implementations is closed:
// *Compile, *Link, *Alias and *Command.
type Edge interface {
	Kind() EdgeKind
	base() *EdgeBase
	inputs() []NodeID
}

type EdgeKind int

const (
	CompileEdge EdgeKind = iota
	LinkEdge
	AliasEdge
	CommandEdge
)

func (k EdgeKind) String() string {
	switch k {
	case CompileEdge:
		return "compile"
	case LinkEdge:
		return "link"
	case AliasEdge:
		return "alias"
	case CommandEdge:
		return "command"
	default:
		panic(fmt.Sprintf("unknown edge kind: %d", int(k)))
	}
}

// EdgeBase holds the fields shared by every edge.
type EdgeBase struct {
	ID          EdgeID
	Outputs     []NodeID
	ExtraDeps   []NodeID
	Description string
}

func (b *EdgeBase) base() *EdgeBase { return b }

// Base returns the shared fields of e.
func Base(e Edge) *EdgeBase { return e.base() }

type Language string

const (
	C   Language = "c"
	CXX Language = "c++"
)

// A Compile edge turns one source file into one object file.
type Compile struct {
	EdgeBase
	Source   NodeID
	Language Language
	Includes []safestr.Path
	Options  []safestr.String

	// Shared marks objects that end up in a shared library and so need
	// position-independent code.
	Shared bool
}

func (*Compile) Kind() EdgeKind { return CompileEdge }

func (c *Compile) inputs() []NodeID { return []NodeID{c.Source} }

// Output returns the object file produced by c.
func (c *Compile) Output() NodeID { return c.Outputs[0] }

type LinkKind int

const (
	Executable LinkKind = iota
	SharedLibrary
	StaticLibrary
)

func (k LinkKind) String() string {
	switch k {
	case Executable:
		return "executable"
	case SharedLibrary:
		return "shared_library"
	case StaticLibrary:
		return "static_library"
	default:
		panic(fmt.Sprintf("unknown link kind: %d", int(k)))
	}
}

// A Link edge combines objects and libraries into a binary.
type Link struct {
	EdgeBase
	LinkKind       LinkKind
	Name           string
	Objects        []NodeID
	Libraries      []NodeID
	CompileOptions []safestr.String
	LinkOptions    []safestr.String
}

func (*Link) Kind() EdgeKind { return LinkEdge }

func (l *Link) inputs() []NodeID {
	result := make([]NodeID, 0, len(l.Objects)+len(l.Libraries))
	result = append(result, l.Objects...)
	return append(result, l.Libraries...)
}

// Output returns the binary produced by l.
func (l *Link) Output() NodeID { return l.Outputs[0] }

// An Alias edge is a phony target standing for its dependencies.
type Alias struct {
	EdgeBase
}

func (*Alias) Kind() EdgeKind { return AliasEdge }

func (*Alias) inputs() []NodeID { return nil }

// A Command edge runs arbitrary commands to produce its outputs.
type Command struct {
	EdgeBase
	Commands [][]safestr.String
	Env      []EnvVar

	// Console gives the commands direct access to the terminal.
	Console bool

	// Restat lets the executor skip dependents when the commands leave the
	// outputs untouched.
	Restat bool

	// Phony commands produce no files; their outputs are target names.
	Phony bool
}

func (*Command) Kind() EdgeKind { return CommandEdge }

func (*Command) inputs() []NodeID { return nil }
