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
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/Masterminds/semver/v3"
	"github.com/rotisserie/eris"
)

var (
	ErrDuplicate   = eris.New("duplicate definition")
	ErrUnknownRule = eris.New("unknown rule")
	ErrUnknownPool = eris.New("unknown pool")
)

// Rules and pools that Ninja defines itself.
const (
	PhonyRule   = "phony"
	ConsolePool = "console"
)

// Ninja versions that introduced the features this package can emit.
var (
	baseVersion            = semver.MustParse("1.1")
	depsVersion            = semver.MustParse("1.3")
	poolVersion            = semver.MustParse("1.5")
	implicitOutputsVersion = semver.MustParse("1.7")
)

// Deps is the format of the dependency file a rule produces.
type Deps int

const (
	DepsNone Deps = iota
	DepsGCC
	DepsMSVC
)

func (d Deps) String() string {
	switch d {
	case DepsNone:
		return "none"
	case DepsGCC:
		return "gcc"
	case DepsMSVC:
		return "msvc"
	default:
		panic(fmt.Sprintf("unknown deps value: %d", d))
	}
}

// A RuleParams object contains the set of parameters that make up a Ninja rule
// definition.  Every string is written as is and must already be escaped.
type RuleParams struct {
	// These fields correspond to a Ninja variable of the same name.
	Command     string // The command that Ninja will run for the rule.
	Depfile     string // The dependency file name.
	Deps        Deps   // The format of the dependency file.
	Description string // The description that Ninja will print for the rule.
	Generator   bool   // Whether the rule generates the Ninja manifest file.
	Pool        string // The Ninja pool to which the rule belongs.
	Restat      bool   // Whether Ninja should re-stat the rule's outputs.

	Comment string // The comment that will appear above the definition.
}

// A BuildParams object contains the set of parameters that make up a Ninja
// build statement.  Paths must already be escaped for their position and
// Variables for a variable value.
type BuildParams struct {
	Comment         string            // The comment that will appear above the definition.
	Rule            string            // The rule to invoke.
	Outputs         []string          // The list of explicit output targets.
	ImplicitOutputs []string          // The list of implicit output targets.
	Inputs          []string          // The list of explicit input dependencies.
	Implicits       []string          // The list of implicit input dependencies.
	OrderOnly       []string          // The list of order-only dependencies.
	Variables       map[string]string // The variable/value pairs to set.
	Pool            string            // Overrides the pool of the rule.
}

type variable struct {
	name, value string
}

type poolDef struct {
	name    string
	depth   int
	comment string
}

type ruleDef struct {
	name   string
	params RuleParams
}

// A File is an in-memory Ninja manifest.  Definitions are written in the
// order they were added; every Add method leaves the File unchanged when it
// fails.
type File struct {
	version *semver.Version

	variables []variable
	pools     []poolDef
	rules     []ruleDef
	builds    []BuildParams
	defaults  []string

	names   map[string]bool // "kind name" of every variable, pool and rule
	outputs map[string]bool
}

// NewFile returns an empty File.
func NewFile() *File {
	return &File{
		version: baseVersion,
		names:   make(map[string]bool),
		outputs: make(map[string]bool),
	}
}

// RequireVersion raises the ninja_required_version of f to at least v.  The
// version never goes down.
func (f *File) RequireVersion(v *semver.Version) {
	if v.GreaterThan(f.version) {
		f.version = v
	}
}

// RequiredVersion returns the minimum Ninja version that can read f.
func (f *File) RequiredVersion() *semver.Version {
	return f.version
}

func (f *File) define(kind, name string) error {
	if err := validateNinjaName(name); err != nil {
		return err
	}
	key := kind + " " + name
	if f.names[key] {
		return eris.Wrapf(ErrDuplicate, "%s %q", kind, name)
	}
	f.names[key] = true
	return nil
}

// AddVariable adds a global variable binding.  value must already be escaped.
func (f *File) AddVariable(name, value string) error {
	if err := f.define("variable", name); err != nil {
		return err
	}
	f.variables = append(f.variables, variable{name, value})
	return nil
}

// AddPool adds a pool definition.
func (f *File) AddPool(name string, depth int, comment string) error {
	if name == ConsolePool {
		return eris.Wrapf(ErrDuplicate, "pool %q is built in", name)
	}
	if depth <= 0 {
		return eris.Errorf("pool %q: depth must be positive, got %d", name, depth)
	}
	if err := f.define("pool", name); err != nil {
		return err
	}
	f.pools = append(f.pools, poolDef{name, depth, comment})
	f.RequireVersion(poolVersion)
	return nil
}

func (f *File) hasPool(name string) bool {
	return name == ConsolePool || f.names["pool "+name]
}

// HasRule returns true if rule can be used by a build statement.
func (f *File) HasRule(name string) bool {
	return name == PhonyRule || f.names["rule "+name]
}

// AddRule adds a rule definition.
func (f *File) AddRule(name string, params RuleParams) error {
	if name == PhonyRule {
		return eris.Wrapf(ErrDuplicate, "rule %q is built in", name)
	}
	if params.Command == "" {
		return eris.Errorf("rule %q has no command", name)
	}
	if params.Pool != "" && !f.hasPool(params.Pool) {
		return eris.Wrapf(ErrUnknownPool, "rule %q uses pool %q", name, params.Pool)
	}
	if err := f.define("rule", name); err != nil {
		return err
	}
	f.rules = append(f.rules, ruleDef{name, params})
	if params.Deps != DepsNone {
		f.RequireVersion(depsVersion)
	}
	if params.Pool != "" {
		f.RequireVersion(poolVersion)
	}
	return nil
}

// AddBuild adds a build statement.  It fails if the rule is unknown or any
// output is already produced by another statement.
func (f *File) AddBuild(params BuildParams) error {
	if !f.HasRule(params.Rule) {
		return eris.Wrapf(ErrUnknownRule, "%q", params.Rule)
	}
	if params.Pool != "" && !f.hasPool(params.Pool) {
		return eris.Wrapf(ErrUnknownPool, "%q", params.Pool)
	}
	if len(params.Outputs) == 0 {
		return eris.Errorf("build statement for rule %q has no outputs", params.Rule)
	}
	for name := range params.Variables {
		if err := validateNinjaName(name); err != nil {
			return err
		}
	}

	seen := make(map[string]bool)
	for _, out := range append(params.Outputs[:len(params.Outputs):len(params.Outputs)],
		params.ImplicitOutputs...) {
		if f.outputs[out] || seen[out] {
			return eris.Wrapf(ErrDuplicate, "output %q", out)
		}
		seen[out] = true
	}

	for out := range seen {
		f.outputs[out] = true
	}
	f.builds = append(f.builds, params)
	if len(params.ImplicitOutputs) > 0 {
		f.RequireVersion(implicitOutputsVersion)
	}
	if params.Pool != "" {
		f.RequireVersion(poolVersion)
	}
	return nil
}

// AddDefault adds targets to the default statement.
func (f *File) AddDefault(targets ...string) {
	f.defaults = append(f.defaults, targets...)
}

// WriteTo writes f in Ninja syntax.
func (f *File) WriteTo(w io.StringWriter, header string) error {
	nw := newNinjaWriter(w)

	if header != "" {
		nw.Comment(header)
		nw.BlankLine()
	}

	nw.Assign("ninja_required_version",
		fmt.Sprintf("%d.%d", f.version.Major(), f.version.Minor()))
	nw.BlankLine()

	for _, v := range f.variables {
		nw.Assign(v.name, v.value)
	}
	if len(f.variables) > 0 {
		nw.BlankLine()
	}

	for _, p := range f.pools {
		if p.comment != "" {
			nw.Comment(p.comment)
		}
		nw.Pool(p.name)
		nw.ScopedAssign("depth", strconv.Itoa(p.depth))
		nw.BlankLine()
	}

	for _, r := range f.rules {
		r.writeTo(nw)
		nw.BlankLine()
	}

	for i := range f.builds {
		writeBuild(nw, &f.builds[i])
		nw.BlankLine()
	}

	if len(f.defaults) > 0 {
		nw.Default(f.defaults...)
	}

	return nw.err
}

func (r *ruleDef) writeTo(nw *ninjaWriter) {
	p := &r.params
	if p.Comment != "" {
		nw.Comment(p.Comment)
	}
	nw.Rule(r.name)

	nw.ScopedAssign("command", p.Command)
	if p.Depfile != "" {
		nw.ScopedAssign("depfile", p.Depfile)
	}
	if p.Deps != DepsNone {
		nw.ScopedAssign("deps", p.Deps.String())
	}
	if p.Description != "" {
		nw.ScopedAssign("description", p.Description)
	}
	if p.Generator {
		nw.ScopedAssign("generator", "true")
	}
	if p.Pool != "" {
		nw.ScopedAssign("pool", p.Pool)
	}
	if p.Restat {
		nw.ScopedAssign("restat", "true")
	}
}

func writeBuild(nw *ninjaWriter, b *BuildParams) {
	if b.Comment != "" {
		nw.Comment(b.Comment)
	}
	nw.Build(b.Rule, b.Outputs, b.ImplicitOutputs, b.Inputs, b.Implicits, b.OrderOnly)

	var keys []string
	for k := range b.Variables {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, name := range keys {
		nw.ScopedAssign(name, b.Variables[name])
	}
	if b.Pool != "" {
		nw.ScopedAssign("pool", b.Pool)
	}
}
