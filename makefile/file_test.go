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

package makefile

import (
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"mvdan.cc/sh/v3/shell"

	"github.com/google/buildgen/safestr"
)

func TestEscape(t *testing.T) {
	e := escaper{quote: safestr.QuoteShell}
	testCases := []struct {
		ctx   safestr.Context
		quote bool
		in    string
		out   string
	}{
		{Target, true, "a b:c$d%", `a\ b\:c$$d\%`},
		{Target, true, "x#y?*[]~", `x\#y\?\*\[\]\~`},
		{Target, true, "a|b", "a|b"},
		{Dependency, true, "a|b", `a\|b`},
		{Function, true, "a,b c", "'a$(,)b c'"},
		{Function, false, "x,$y", "x$(,)$$y"},
		{Shell, true, "$HOME x", "'$$HOME x'"},
		{Shell, false, "$x", "$$x"},
		{Clean, true, "a b$c", "a b$$c"},
		{Include, true, "sub dir/x#1$c.d", `sub\ dir/x\#1$$c.d`},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.out, e.escape(tc.in, tc.ctx, tc.quote), "%q in context %d", tc.in, tc.ctx)
	}
}

var roundTripWords = []string{
	"simple", "with space", "dollar$sign", "$(var)", "quote'd", `double"quote`,
	"semi;colon", "comma,separated", "percent%", "hash#", "back\\slash",
}

func TestShellRoundTrip(t *testing.T) {
	r := &safestr.Renderer{Escape: escaper{quote: safestr.QuoteShell}.escape}
	unescape := strings.NewReplacer("$$", "$")

	for _, word := range roundTripWords {
		rendered := r.Render(safestr.Raw(word), Shell)
		fields, err := shell.Fields(unescape.Replace(rendered), nil)
		require.NoError(t, err, "word %q rendered as %q", word, rendered)
		assert.Equal(t, []string{word}, fields, "word %q rendered as %q", word, rendered)
	}
}

func TestFunctionRoundTrip(t *testing.T) {
	r := &safestr.Renderer{Escape: escaper{quote: safestr.QuoteShell}.escape}
	unescape := strings.NewReplacer("$(,)", ",", "$$", "$")

	for _, word := range roundTripWords {
		rendered := r.Render(safestr.Raw(word), Function)
		assert.NotContains(t, strings.ReplaceAll(rendered, "$(,)", ""), ",")
		fields, err := shell.Fields(unescape.Replace(rendered), nil)
		require.NoError(t, err, "word %q rendered as %q", word, rendered)
		assert.Equal(t, []string{word}, fields, "word %q rendered as %q", word, rendered)
	}
}

// unescapeTarget undoes target escaping the way Make reads a rule line.
func unescapeTarget(s string) string {
	sb := &strings.Builder{}
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '\\' && i+1 < len(s):
			i++
		case s[i] == '$' && i+1 < len(s) && s[i+1] == '$':
			i++
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

func TestTargetRoundTrip(t *testing.T) {
	r := &safestr.Renderer{Escape: escaper{quote: safestr.QuoteShell}.escape}
	for _, word := range []string{"plain.o", "with space.o", "a:b", "x%y", "cost$1", "[a]*?~#", "a|b"} {
		for _, ctx := range []safestr.Context{Target, Dependency} {
			rendered := r.Render(safestr.Raw(word), ctx)
			assert.NotContains(t, strings.ReplaceAll(rendered, `\ `, ""), " ")
			assert.Equal(t, word, unescapeTarget(rendered), "%q rendered as %q", word, rendered)
		}
	}
}

func TestDuplicateVariables(t *testing.T) {
	m := NewMakefile()
	require.NoError(t, m.Variable("CC", "cc", Simple, false))

	err := m.Variable("CC", "gcc", Simple, false)
	assert.True(t, eris.Is(err, ErrDuplicate))
	assert.NoError(t, m.Variable("CC", "gcc", Simple, true))

	assert.True(t, eris.Is(m.Variable(commaVariable, ";", Simple, false), ErrDuplicate))

	require.NoError(t, m.TargetVariable("a.o", "CCFLAGS", "-g", false))
	require.NoError(t, m.TargetVariable("b.o", "CCFLAGS", "-O2", false))
	assert.True(t, eris.Is(m.TargetVariable("a.o", "CCFLAGS", "-O0", false), ErrDuplicate))

	require.NoError(t, m.Define("_COMPILE_C", []string{"$(CC) -c $< -o $@"}, false))
	assert.True(t, eris.Is(m.Define("_COMPILE_C", nil, false), ErrDuplicate))
	assert.True(t, eris.Is(m.Define("CC", nil, false), ErrDuplicate))

	assert.Error(t, m.Variable("A B", "x", Simple, false))

	assert.Equal(t, []variable{{",", ",", Simple}, {"CC", "cc", Simple}}, m.globals)
	assert.Len(t, m.targetVars, 2)
	assert.Len(t, m.defines, 1)
}

func TestDuplicateRules(t *testing.T) {
	m := NewMakefile()
	require.NoError(t, m.Rule(Rule{Targets: []string{"a"}}, false))

	err := m.Rule(Rule{Targets: []string{"b", "a"}}, false)
	assert.True(t, eris.Is(err, ErrDuplicate))
	assert.False(t, m.HasTarget("b"))

	assert.NoError(t, m.Rule(Rule{Targets: []string{"a"}, Recipe: []string{"true"}}, true))
	assert.Len(t, m.rules, 1)
	assert.Empty(t, m.rules[0].Recipe)

	assert.Error(t, m.Rule(Rule{Targets: []string{"c"}, Define: "_MISSING"}, false))
	assert.Error(t, m.Rule(Rule{}, false))
	assert.False(t, m.HasTarget("c"))
}

func TestMakefileWriteTo(t *testing.T) {
	m := NewMakefile()
	require.NoError(t, m.Variable("CC", "cc", Simple, false))
	require.NoError(t, m.Variable("EMPTY", "", Recursive, false))
	require.NoError(t, m.TargetVariable("main.o", "CCFLAGS", "-g", false))
	require.NoError(t, m.Define("_COMPILE_C", []string{"$(CC) $(CCFLAGS) -c $< -o $@"}, false))
	require.NoError(t, m.Rule(Rule{Targets: []string{"all"}, Deps: []string{"main.o"}, Phony: true}, false))
	require.NoError(t, m.Rule(Rule{
		Comment:   "compile main",
		Targets:   []string{"main.o"},
		Deps:      []string{"main.c"},
		OrderOnly: []string{"obj"},
		Define:    "_COMPILE_C",
	}, false))
	m.Include("main.o.d", true)
	m.Include("extra.mk", false)

	sb := &strings.Builder{}
	require.NoError(t, m.WriteTo(sb, "generated"))

	expected := `# generated

.SUFFIXES:
MAKEFLAGS += --no-builtin-rules

, := ,
CC := cc
EMPTY =

main.o: CCFLAGS := -g

define _COMPILE_C
$(CC) $(CCFLAGS) -c $< -o $@
endef

all: main.o

# compile main
main.o: main.c | obj
	$(_COMPILE_C)

.PHONY: all

-include main.o.d
include extra.mk
`
	assert.Equal(t, expected, sb.String())
}
