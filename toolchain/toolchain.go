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

// Package toolchain is the interface between the backends and the per-tool
// flag computation.  It knows how to spell a compile or link command for a
// given compiler family; it does not decide which flags a project wants.
package toolchain

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/google/buildgen/graph"
	"github.com/google/buildgen/safestr"
)

var (
	ErrBadLibrary      = eris.New("library name cannot be turned into a link flag")
	ErrUnknownLanguage = eris.New("unknown source language")
)

// A DepsStyle tells the executor how a compiler reports header dependencies.
type DepsStyle int

const (
	DepsNone DepsStyle = iota
	DepsGCC
	DepsMSVC
)

func (d DepsStyle) String() string {
	switch d {
	case DepsNone:
		return "none"
	case DepsGCC:
		return "gcc"
	case DepsMSVC:
		return "msvc"
	default:
		panic(fmt.Sprintf("unknown deps style: %d", int(d)))
	}
}

// A Compiler spells compile commands.  The in, out and depfile arguments are
// Strings so that a backend can pass variable references (like Ninja's $in)
// as well as real paths.
type Compiler interface {
	// Name is a short identifier usable as a rule or variable name.
	Name() string
	Language() graph.Language
	Command() []safestr.String
	DepsStyle() DepsStyle

	// Depfile returns where the dependency file for obj goes, if the compiler
	// writes one.
	Depfile(obj safestr.Path) (safestr.Path, bool)

	// Flags returns the per-edge flags: include paths, PIC and options.
	Flags(c *graph.Compile) []safestr.String

	// Args returns the arguments naming the input, output and depfile.
	// depfile is ignored by compilers that don't write one.
	Args(in, out, depfile safestr.String) []safestr.String
}

// A Linker spells link (or archive) commands.
type Linker interface {
	Name() string
	Command() []safestr.String
	Flags(l *graph.Link) []safestr.String
	Args(in []safestr.String, out safestr.String) []safestr.String

	// LibFlags returns the arguments that link against a library that the
	// build does not produce itself.
	LibFlags(lib safestr.Path) ([]safestr.String, error)
}

// LanguageFor returns the language of a source file from its extension.
func LanguageFor(p safestr.Path) (graph.Language, error) {
	switch strings.ToLower(p.Ext()) {
	case ".c":
		return graph.C, nil
	case ".cc", ".cpp", ".cxx", ".c++":
		return graph.CXX, nil
	default:
		return "", eris.Wrapf(ErrUnknownLanguage, "%s", p)
	}
}

// A Toolchain groups the compilers and linkers of one compiler family.
type Toolchain interface {
	Flavor() string
	Compiler(lang graph.Language) (Compiler, error)
	Linker(kind graph.LinkKind, langs []graph.Language) Linker
	ObjectExt() string
}

// commandWords turns a configured command line into Raw words.
func commandWords(words []string) []safestr.String {
	return safestr.Raws(words...)
}

func hasLanguage(langs []graph.Language, lang graph.Language) bool {
	for _, l := range langs {
		if l == lang {
			return true
		}
	}
	return false
}
