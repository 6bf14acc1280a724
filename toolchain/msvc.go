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

package toolchain

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/google/buildgen/graph"
	"github.com/google/buildgen/safestr"
)

// MSVC is the Visual C++ toolchain (cl, link and lib).
type MSVC struct {
	CL   []string
	Link []string
	Lib  []string
}

// NewMSVC returns an MSVC toolchain, filling empty commands with the usual
// defaults.
func NewMSVC(cl, link, lib []string) *MSVC {
	if len(cl) == 0 {
		cl = []string{"cl"}
	}
	if len(link) == 0 {
		link = []string{"link"}
	}
	if len(lib) == 0 {
		lib = []string{"lib"}
	}
	return &MSVC{CL: cl, Link: link, Lib: lib}
}

func (*MSVC) Flavor() string    { return "msvc" }
func (*MSVC) ObjectExt() string { return ".obj" }

func (t *MSVC) Compiler(lang graph.Language) (Compiler, error) {
	switch lang {
	case graph.C:
		return &msvcCompiler{name: "cl_c", lang: lang, command: t.CL}, nil
	case graph.CXX:
		return &msvcCompiler{name: "cl_cxx", lang: lang, command: t.CL}, nil
	default:
		return nil, eris.Wrapf(ErrUnknownLanguage, "%q", lang)
	}
}

func (t *MSVC) Linker(kind graph.LinkKind, langs []graph.Language) Linker {
	if kind == graph.StaticLibrary {
		return &msvcLinker{name: "lib", command: t.Lib, kind: kind}
	}
	return &msvcLinker{name: "link", command: t.Link, kind: kind}
}

type msvcCompiler struct {
	name    string
	lang    graph.Language
	command []string
}

func (c *msvcCompiler) Name() string              { return c.name }
func (c *msvcCompiler) Language() graph.Language  { return c.lang }
func (c *msvcCompiler) Command() []safestr.String { return commandWords(c.command) }
func (c *msvcCompiler) DepsStyle() DepsStyle      { return DepsMSVC }

// cl reports headers on stdout with /showIncludes instead of writing a file.
func (c *msvcCompiler) Depfile(obj safestr.Path) (safestr.Path, bool) {
	return safestr.Path{}, false
}

func (c *msvcCompiler) Flags(e *graph.Compile) []safestr.String {
	var flags []safestr.String
	for _, inc := range e.Includes {
		flags = append(flags, safestr.Join(safestr.Raw("/I"), inc))
	}
	return append(flags, e.Options...)
}

func (c *msvcCompiler) Args(in, out, depfile safestr.String) []safestr.String {
	args := []safestr.String{safestr.Raw("/nologo"), safestr.Raw("/showIncludes")}
	if c.lang == graph.CXX {
		args = append(args, safestr.Raw("/TP"))
	}
	return append(args, safestr.Raw("/c"), in, safestr.Join(safestr.Raw("/Fo"), out))
}

type msvcLinker struct {
	name    string
	kind    graph.LinkKind
	command []string
}

func (l *msvcLinker) Name() string              { return l.name }
func (l *msvcLinker) Command() []safestr.String { return commandWords(l.command) }

func (l *msvcLinker) Flags(e *graph.Link) []safestr.String {
	var flags []safestr.String
	switch l.kind {
	case graph.SharedLibrary:
		flags = append(flags, safestr.Raw("/DLL"))
	case graph.StaticLibrary:
		return nil
	}
	flags = append(flags, e.CompileOptions...)
	return append(flags, e.LinkOptions...)
}

func (l *msvcLinker) Args(in []safestr.String, out safestr.String) []safestr.String {
	args := []safestr.String{safestr.Raw("/nologo"), safestr.Join(safestr.Raw("/OUT:"), out)}
	return append(args, in...)
}

func (l *msvcLinker) LibFlags(lib safestr.Path) ([]safestr.String, error) {
	if l.kind == graph.StaticLibrary {
		return nil, nil
	}
	base := lib.Base()
	if !strings.HasSuffix(strings.ToLower(base), ".lib") || len(base) == len(".lib") {
		return nil, eris.Wrapf(ErrBadLibrary, "%s", lib)
	}
	var flags []safestr.String
	if len(lib.Split()) > 1 {
		flags = append(flags, safestr.Join(safestr.Raw("/LIBPATH:"), lib.Parent()))
	}
	return append(flags, safestr.Raw(base)), nil
}
