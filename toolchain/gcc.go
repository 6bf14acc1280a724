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
	"regexp"

	"github.com/rotisserie/eris"

	"github.com/google/buildgen/graph"
	"github.com/google/buildgen/safestr"
)

// GCC is a toolchain driven through cc-style command lines (gcc, clang).
type GCC struct {
	CC  []string
	CXX []string
	AR  []string
}

// NewGCC returns a GCC toolchain, filling empty commands with the usual
// defaults.
func NewGCC(cc, cxx, ar []string) *GCC {
	if len(cc) == 0 {
		cc = []string{"cc"}
	}
	if len(cxx) == 0 {
		cxx = []string{"c++"}
	}
	if len(ar) == 0 {
		ar = []string{"ar"}
	}
	return &GCC{CC: cc, CXX: cxx, AR: ar}
}

func (*GCC) Flavor() string    { return "gcc" }
func (*GCC) ObjectExt() string { return ".o" }

func (t *GCC) Compiler(lang graph.Language) (Compiler, error) {
	switch lang {
	case graph.C:
		return &gccCompiler{name: "cc", lang: lang, command: t.CC}, nil
	case graph.CXX:
		return &gccCompiler{name: "cxx", lang: lang, command: t.CXX}, nil
	default:
		return nil, eris.Wrapf(ErrUnknownLanguage, "%q", lang)
	}
}

func (t *GCC) Linker(kind graph.LinkKind, langs []graph.Language) Linker {
	if kind == graph.StaticLibrary {
		return &gccArchiver{command: t.AR}
	}
	if hasLanguage(langs, graph.CXX) {
		return &gccLinker{name: "link_cxx", kind: kind, command: t.CXX}
	}
	return &gccLinker{name: "link_cc", kind: kind, command: t.CC}
}

type gccCompiler struct {
	name    string
	lang    graph.Language
	command []string
}

func (c *gccCompiler) Name() string              { return c.name }
func (c *gccCompiler) Language() graph.Language  { return c.lang }
func (c *gccCompiler) Command() []safestr.String { return commandWords(c.command) }
func (c *gccCompiler) DepsStyle() DepsStyle      { return DepsGCC }

func (c *gccCompiler) Depfile(obj safestr.Path) (safestr.Path, bool) {
	return obj.AddExt(".d"), true
}

func (c *gccCompiler) Flags(e *graph.Compile) []safestr.String {
	var flags []safestr.String
	for _, inc := range e.Includes {
		flags = append(flags, safestr.Join(safestr.Raw("-I"), inc))
	}
	if e.Shared {
		flags = append(flags, safestr.Raw("-fPIC"))
	}
	return append(flags, e.Options...)
}

func (c *gccCompiler) Args(in, out, depfile safestr.String) []safestr.String {
	var args []safestr.String
	if depfile != nil {
		args = append(args, safestr.Raw("-MMD"), safestr.Raw("-MF"), depfile)
	}
	return append(args, safestr.Raw("-c"), in, safestr.Raw("-o"), out)
}

type gccLinker struct {
	name    string
	kind    graph.LinkKind
	command []string
}

func (l *gccLinker) Name() string              { return l.name }
func (l *gccLinker) Command() []safestr.String { return commandWords(l.command) }

func (l *gccLinker) Flags(e *graph.Link) []safestr.String {
	var flags []safestr.String
	if l.kind == graph.SharedLibrary {
		flags = append(flags, safestr.Raw("-shared"))
	}
	flags = append(flags, e.CompileOptions...)
	return append(flags, e.LinkOptions...)
}

func (l *gccLinker) Args(in []safestr.String, out safestr.String) []safestr.String {
	args := append([]safestr.String(nil), in...)
	return append(args, safestr.Raw("-o"), out)
}

var gccLibName = regexp.MustCompile(`^lib(.+)\.(so(\.[0-9.]+)?|a|dylib)$`)

func (l *gccLinker) LibFlags(lib safestr.Path) ([]safestr.String, error) {
	m := gccLibName.FindStringSubmatch(lib.Base())
	if m == nil {
		return nil, eris.Wrapf(ErrBadLibrary, "%s", lib)
	}
	var flags []safestr.String
	if len(lib.Split()) > 1 {
		flags = append(flags, safestr.Join(safestr.Raw("-L"), lib.Parent()))
	}
	return append(flags, safestr.Raw("-l"+m[1])), nil
}

type gccArchiver struct {
	command []string
}

func (*gccArchiver) Name() string                { return "ar" }
func (a *gccArchiver) Command() []safestr.String { return commandWords(a.command) }

// Static archives take no link flags.
func (*gccArchiver) Flags(*graph.Link) []safestr.String { return nil }

func (*gccArchiver) Args(in []safestr.String, out safestr.String) []safestr.String {
	args := []safestr.String{safestr.Raw("crs"), out}
	return append(args, in...)
}

func (*gccArchiver) LibFlags(lib safestr.Path) ([]safestr.String, error) {
	return nil, nil
}
