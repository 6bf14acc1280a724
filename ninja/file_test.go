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

package ninja

import (
	"strings"
	"testing"

	"github.com/Masterminds/semver/v3"
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
		{Output, true, "a b:c$d", "a$ b$:c$$d"},
		{Input, true, "a b:c$d", "a$ b:c$$d"},
		{Input, true, "line\nbreak", "line$\nbreak"},
		{Variable, true, "x$y", "x$$y"},
		{Variable, true, " lead", "$ lead"},
		{Shell, true, "plain", "plain"},
		{Shell, true, "a b$c", "'a b$$c'"},
		{Shell, false, "$HOME", "$$HOME"},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.out, e.escape(tc.in, tc.ctx, tc.quote), "%q in context %d", tc.in, tc.ctx)
	}
}

// TestShellRoundTrip checks that a word survives Ninja unescaping followed
// by shell parsing.
func TestShellRoundTrip(t *testing.T) {
	r := &safestr.Renderer{Escape: escaper{quote: safestr.QuoteShell}.escape}
	unescape := strings.NewReplacer("$$", "$")

	for _, word := range []string{
		"simple", "with space", "dollar$sign", "$(subshell)", "quote'd", `double"quote`,
		"semi;colon", "glob*", "back\\slash", "tab\there",
	} {
		rendered := r.Render(safestr.Raw(word), Shell)
		fields, err := shell.Fields(unescape.Replace(rendered), nil)
		require.NoError(t, err, "word %q rendered as %q", word, rendered)
		assert.Equal(t, []string{word}, fields, "word %q rendered as %q", word, rendered)
	}
}

func TestValidateNinjaName(t *testing.T) {
	assert.NoError(t, validateNinjaName("cc_link-1.x"))
	assert.Error(t, validateNinjaName("a b"))
	assert.Error(t, validateNinjaName("a$b"))
	assert.Error(t, validateNinjaName(""))
}

func TestRequiredVersionIsMonotonic(t *testing.T) {
	f := NewFile()
	assert.Equal(t, "1.1.0", f.RequiredVersion().String())

	require.NoError(t, f.AddRule("cc", RuleParams{Command: "cc", Deps: DepsGCC}))
	assert.Equal(t, "1.3.0", f.RequiredVersion().String())

	require.NoError(t, f.AddBuild(BuildParams{
		Rule:            "cc",
		Outputs:         []string{"a.o"},
		ImplicitOutputs: []string{"a.o.d"},
	}))
	assert.Equal(t, "1.7.0", f.RequiredVersion().String())

	require.NoError(t, f.AddPool("link", 2, ""))
	f.RequireVersion(semver.MustParse("1.2"))
	assert.Equal(t, "1.7.0", f.RequiredVersion().String())
}

func TestDuplicateDefinitions(t *testing.T) {
	f := NewFile()
	require.NoError(t, f.AddVariable("cflags", "-O2"))
	require.NoError(t, f.AddRule("cc", RuleParams{Command: "cc"}))
	require.NoError(t, f.AddPool("link", 1, ""))

	assert.True(t, eris.Is(f.AddVariable("cflags", "-O0"), ErrDuplicate))
	assert.True(t, eris.Is(f.AddRule("cc", RuleParams{Command: "gcc"}), ErrDuplicate))
	assert.True(t, eris.Is(f.AddRule(PhonyRule, RuleParams{Command: "true"}), ErrDuplicate))
	assert.True(t, eris.Is(f.AddPool("link", 2, ""), ErrDuplicate))
	assert.True(t, eris.Is(f.AddPool(ConsolePool, 1, ""), ErrDuplicate))

	// A variable and a rule may share a name.
	assert.NoError(t, f.AddVariable("cc", "gcc"))

	assert.Len(t, f.variables, 2)
	assert.Len(t, f.rules, 1)
	assert.Len(t, f.pools, 1)
}

func TestUnknownRuleAndPool(t *testing.T) {
	f := NewFile()
	err := f.AddBuild(BuildParams{Rule: "cc", Outputs: []string{"a.o"}})
	assert.True(t, eris.Is(err, ErrUnknownRule))

	assert.NoError(t, f.AddBuild(BuildParams{Rule: PhonyRule, Outputs: []string{"all"}}))

	err = f.AddRule("r", RuleParams{Command: "x", Pool: "missing"})
	assert.True(t, eris.Is(err, ErrUnknownPool))
	assert.False(t, f.HasRule("r"))

	assert.NoError(t, f.AddRule("r", RuleParams{Command: "x", Pool: ConsolePool}))
}

func TestDuplicateOutputLeavesNoTrace(t *testing.T) {
	f := NewFile()
	require.NoError(t, f.AddBuild(BuildParams{Rule: PhonyRule, Outputs: []string{"a"}}))

	err := f.AddBuild(BuildParams{Rule: PhonyRule, Outputs: []string{"b", "a"}})
	assert.True(t, eris.Is(err, ErrDuplicate))

	err = f.AddBuild(BuildParams{Rule: PhonyRule, Outputs: []string{"c"}, ImplicitOutputs: []string{"c"}})
	assert.True(t, eris.Is(err, ErrDuplicate))

	// Neither "b" nor "c" was registered by the failed statements.
	assert.NoError(t, f.AddBuild(BuildParams{Rule: PhonyRule, Outputs: []string{"b", "c"}}))
	assert.Len(t, f.builds, 2)
}

func TestFileWriteTo(t *testing.T) {
	f := NewFile()
	require.NoError(t, f.AddVariable("cflags", "-O2"))
	require.NoError(t, f.AddRule("cc", RuleParams{
		Command:     "cc $cflags -c $in -o $out",
		Depfile:     "$out.d",
		Deps:        DepsGCC,
		Description: "cc $out",
	}))
	require.NoError(t, f.AddBuild(BuildParams{
		Rule:      "cc",
		Outputs:   []string{"foo.o"},
		Inputs:    []string{"foo.c"},
		Variables: map[string]string{"flags": "-g", "description": "compiling"},
	}))
	f.AddDefault("foo.o")

	sb := &strings.Builder{}
	require.NoError(t, f.WriteTo(sb, "generated"))

	expected := `# generated

ninja_required_version = 1.3

cflags = -O2

rule cc
    command = cc $cflags -c $in -o $out
    depfile = $out.d
    deps = gcc
    description = cc $out

build foo.o: cc foo.c
    description = compiling
    flags = -g

default foo.o
`
	assert.Equal(t, expected, sb.String())
}
