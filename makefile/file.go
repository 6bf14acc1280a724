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
	"fmt"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

var ErrDuplicate = eris.New("duplicate definition")

// A Flavor is the assignment operator of a variable.
type Flavor int

const (
	// Simple variables are expanded once, when assigned (:=).
	Simple Flavor = iota

	// Recursive variables are expanded on every use (=).
	Recursive
)

func (f Flavor) String() string {
	switch f {
	case Simple:
		return ":="
	case Recursive:
		return "="
	default:
		panic(fmt.Sprintf("unknown variable flavor: %d", int(f)))
	}
}

type variable struct {
	name   string
	value  string
	flavor Flavor
}

type targetVariable struct {
	pattern string
	variable
}

type define struct {
	name  string
	lines []string
}

// A Rule is one Makefile rule.  All fields must already be escaped for their
// position.
type Rule struct {
	Comment   string
	Targets   []string
	Deps      []string
	OrderOnly []string

	// Recipe holds the recipe lines.  When Define is set, the recipe is the
	// named define block instead and Recipe must be empty.
	Recipe []string
	Define string

	Phony bool
}

type include struct {
	path     string
	optional bool
}

// A Makefile is an in-memory Makefile.  Every method that adds a definition
// leaves the Makefile unchanged when it fails.
type Makefile struct {
	globals    []variable
	targetVars []targetVariable
	defines    []define
	rules      []Rule
	includes   []include

	globalNames    map[string]bool
	targetVarNames map[string]bool
	defineNames    map[string]bool
	targets        map[string]bool
}

// NewMakefile returns an empty Makefile.  It always defines a variable
// expanding to a comma, for use in function arguments.
func NewMakefile() *Makefile {
	m := &Makefile{
		globalNames:    make(map[string]bool),
		targetVarNames: make(map[string]bool),
		defineNames:    make(map[string]bool),
		targets:        make(map[string]bool),
	}
	m.Variable(commaVariable, ",", Simple, false)
	return m
}

// Variable adds a global variable.  When existOK is true, redefining a
// variable keeps the first definition instead of failing.
func (m *Makefile) Variable(name, value string, flavor Flavor, existOK bool) error {
	if err := validVariableName(name); err != nil {
		return err
	}
	if m.globalNames[name] {
		if existOK {
			return nil
		}
		return eris.Wrapf(ErrDuplicate, "variable %q", name)
	}
	m.globalNames[name] = true
	m.globals = append(m.globals, variable{name, value, flavor})
	return nil
}

// TargetVariable adds a variable scoped to the targets matching pattern.
func (m *Makefile) TargetVariable(pattern, name, value string, existOK bool) error {
	if err := validVariableName(name); err != nil {
		return err
	}
	key := pattern + "\x00" + name
	if m.targetVarNames[key] {
		if existOK {
			return nil
		}
		return eris.Wrapf(ErrDuplicate, "variable %q for %s", name, pattern)
	}
	m.targetVarNames[key] = true
	m.targetVars = append(m.targetVars, targetVariable{pattern, variable{name, value, Simple}})
	return nil
}

// Define adds a multi-line variable.
func (m *Makefile) Define(name string, lines []string, existOK bool) error {
	if err := validVariableName(name); err != nil {
		return err
	}
	if m.defineNames[name] || m.globalNames[name] {
		if existOK {
			return nil
		}
		return eris.Wrapf(ErrDuplicate, "define %q", name)
	}
	m.defineNames[name] = true
	m.defines = append(m.defines, define{name, lines})
	return nil
}

// HasTarget returns true if a rule already builds target.
func (m *Makefile) HasTarget(target string) bool {
	return m.targets[target]
}

// Rule adds a rule.  A rule naming a target that another rule already builds
// is a duplicate; with existOK it is dropped instead.
func (m *Makefile) Rule(r Rule, existOK bool) error {
	if len(r.Targets) == 0 {
		return eris.New("rule has no targets")
	}
	if r.Define != "" {
		if len(r.Recipe) > 0 {
			return eris.Errorf("rule for %s has both a recipe and a define", r.Targets[0])
		}
		if !m.defineNames[r.Define] {
			return eris.Errorf("rule for %s uses undefined define %q", r.Targets[0], r.Define)
		}
	}

	seen := make(map[string]bool, len(r.Targets))
	for _, t := range r.Targets {
		if m.targets[t] || seen[t] {
			if existOK {
				return nil
			}
			return eris.Wrapf(ErrDuplicate, "target %s", t)
		}
		seen[t] = true
	}

	for t := range seen {
		m.targets[t] = true
	}
	m.rules = append(m.rules, r)
	return nil
}

// Include adds an include directive.  Optional includes are skipped by Make
// when the file does not exist.
func (m *Makefile) Include(path string, optional bool) {
	m.includes = append(m.includes, include{path, optional})
}

type makeWriter struct {
	w   io.Writer
	err error
}

func (mw *makeWriter) printf(format string, args ...interface{}) {
	if mw.err == nil {
		_, mw.err = fmt.Fprintf(mw.w, format, args...)
	}
}

func (mw *makeWriter) assign(v variable) {
	if v.value == "" {
		mw.line(v.name, v.flavor.String())
	} else {
		mw.line(v.name, v.flavor.String(), v.value)
	}
}

func (mw *makeWriter) line(words ...string) {
	mw.printf("%s\n", strings.Join(words, " "))
}

// WriteTo writes m in GNU Make syntax.
func (m *Makefile) WriteTo(w io.Writer, header string) error {
	mw := &makeWriter{w: w}

	if header != "" {
		for _, line := range strings.Split(header, "\n") {
			mw.line(strings.TrimSpace("# " + line))
		}
		mw.line()
	}

	// Built-in implicit rules would otherwise fire for every source file.
	mw.line(".SUFFIXES:")
	mw.line("MAKEFLAGS", "+=", "--no-builtin-rules")
	mw.line()

	for _, v := range m.globals {
		mw.assign(v)
	}
	mw.line()

	for _, v := range m.targetVars {
		mw.printf("%s: ", v.pattern)
		mw.assign(v.variable)
	}
	if len(m.targetVars) > 0 {
		mw.line()
	}

	for _, d := range m.defines {
		mw.line("define", d.name)
		for _, l := range d.lines {
			mw.line(l)
		}
		mw.line("endef")
		mw.line()
	}

	var phony []string
	for _, r := range m.rules {
		if r.Comment != "" {
			mw.line("#", r.Comment)
		}
		head := strings.Join(r.Targets, " ") + ":"
		if len(r.Deps) > 0 {
			head += " " + strings.Join(r.Deps, " ")
		}
		if len(r.OrderOnly) > 0 {
			head += " | " + strings.Join(r.OrderOnly, " ")
		}
		mw.line(head)
		if r.Define != "" {
			mw.printf("\t$(%s)\n", r.Define)
		}
		for _, l := range r.Recipe {
			mw.printf("\t%s\n", l)
		}
		mw.line()

		if r.Phony {
			phony = append(phony, r.Targets...)
		}
	}

	if len(phony) > 0 {
		mw.line(append([]string{".PHONY:"}, phony...)...)
	}

	if len(m.includes) > 0 {
		mw.line()
	}
	for _, inc := range m.includes {
		directive := "include"
		if inc.optional {
			directive = "-include"
		}
		mw.line(directive, inc.path)
	}

	return mw.err
}
