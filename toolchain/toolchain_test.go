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
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/buildgen/graph"
	"github.com/google/buildgen/safestr"
)

func TestLanguageFor(t *testing.T) {
	for input, want := range map[string]graph.Language{
		"main.c":   graph.C,
		"main.C":   graph.C,
		"main.cpp": graph.CXX,
		"main.cc":  graph.CXX,
		"x/y.cxx":  graph.CXX,
	} {
		lang, err := LanguageFor(safestr.NewPath(input, safestr.SourceRoot))
		require.NoError(t, err, input)
		assert.Equal(t, want, lang, input)
	}

	_, err := LanguageFor(safestr.NewPath("main.rs", safestr.SourceRoot))
	assert.True(t, eris.Is(err, ErrUnknownLanguage))
}

func TestGCCCompiler(t *testing.T) {
	tc := NewGCC(nil, nil, nil)
	cc, err := tc.Compiler(graph.C)
	require.NoError(t, err)

	edge := &graph.Compile{
		Includes: []safestr.Path{safestr.NewPath("include", safestr.SourceRoot)},
		Options:  safestr.Raws("-O2"),
		Shared:   true,
	}
	text := func(list []safestr.String) []string {
		result := make([]string, len(list))
		for i, s := range list {
			result[i] = safestr.Text(s, safestr.RootMap{})
		}
		return result
	}

	assert.Equal(t, "cc", cc.Name())
	assert.Equal(t, []string{"cc"}, text(cc.Command()))
	assert.Equal(t, []string{"-Iinclude", "-fPIC", "-O2"}, text(cc.Flags(edge)))
	assert.Equal(t, []string{"-MMD", "-MF", "a.o.d", "-c", "a.c", "-o", "a.o"},
		text(cc.Args(safestr.Raw("a.c"), safestr.Raw("a.o"), safestr.Raw("a.o.d"))))
	assert.Equal(t, []string{"-c", "a.c", "-o", "a.o"},
		text(cc.Args(safestr.Raw("a.c"), safestr.Raw("a.o"), nil)))

	depfile, ok := cc.Depfile(safestr.NewPath("a.o", safestr.BuildRoot))
	assert.True(t, ok)
	assert.Equal(t, "a.o.d", depfile.Suffix())
	assert.Equal(t, DepsGCC, cc.DepsStyle())
}

func TestGCCLinkerSelection(t *testing.T) {
	tc := NewGCC([]string{"gcc"}, []string{"g++"}, nil)
	assert.Equal(t, "link_cc", tc.Linker(graph.Executable, []graph.Language{graph.C}).Name())
	assert.Equal(t, "link_cxx", tc.Linker(graph.SharedLibrary, []graph.Language{graph.C, graph.CXX}).Name())
	assert.Equal(t, "ar", tc.Linker(graph.StaticLibrary, []graph.Language{graph.CXX}).Name())
}

func TestGCCLibFlags(t *testing.T) {
	linker := NewGCC(nil, nil, nil).Linker(graph.Executable, nil)

	flags, err := linker.LibFlags(safestr.NewPath("/usr/lib/libz.so", safestr.AbsoluteRoot))
	require.NoError(t, err)
	require.Len(t, flags, 2)
	assert.Equal(t, "-L/usr/lib", safestr.Text(flags[0], safestr.RootMap{}))
	assert.Equal(t, "-lz", safestr.Text(flags[1], safestr.RootMap{}))

	flags, err = linker.LibFlags(safestr.NewPath("libfoo.so.1.2", safestr.BuildRoot))
	require.NoError(t, err)
	assert.Equal(t, []safestr.String{safestr.Raw("-lfoo")}, flags)

	_, err = linker.LibFlags(safestr.NewPath("foo.dll", safestr.BuildRoot))
	assert.True(t, eris.Is(err, ErrBadLibrary))
}

func TestMSVC(t *testing.T) {
	tc := NewMSVC(nil, nil, nil)
	cxx, err := tc.Compiler(graph.CXX)
	require.NoError(t, err)
	_, ok := cxx.Depfile(safestr.NewPath("a.obj", safestr.BuildRoot))
	assert.False(t, ok)
	assert.Equal(t, DepsMSVC, cxx.DepsStyle())

	linker := tc.Linker(graph.Executable, nil)
	flags, err := linker.LibFlags(safestr.NewPath("zlib.lib", safestr.SourceRoot))
	require.NoError(t, err)
	assert.Equal(t, []safestr.String{safestr.Raw("zlib.lib")}, flags)

	_, err = linker.LibFlags(safestr.NewPath("libz.a", safestr.SourceRoot))
	assert.True(t, eris.Is(err, ErrBadLibrary))
	assert.Equal(t, ".obj", tc.ObjectExt())
}
