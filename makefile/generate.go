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

// Package makefile renders a build graph as a GNU Makefile.
package makefile

import (
	"context"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/google/buildgen"
	"github.com/google/buildgen/graph"
	"github.com/google/buildgen/safestr"
	"github.com/google/buildgen/toolchain"
)

const (
	MakefileName = "Makefile"

	header = "This file is generated by buildgen.  Do not edit."
)

// Backend writes a Makefile.
type Backend struct{}

// New returns the Make backend.
func New() *Backend {
	return &Backend{}
}

func (*Backend) Name() string { return "make" }

// Write renders g into env.BuildDir/Makefile.
func (b *Backend) Write(ctx context.Context, env *buildgen.Env, g *graph.Graph) error {
	m, err := Generate(ctx, env, g)
	if err != nil {
		return err
	}

	sb := &strings.Builder{}
	err = m.WriteTo(sb, header)
	if err != nil {
		return eris.Wrapf(err, "failed to render %s", MakefileName)
	}

	return buildgen.WriteOutputs(ctx, env, []buildgen.Output{
		{Name: MakefileName, Data: []byte(sb.String())},
	})
}

// RootMap returns how paths are realized in a Makefile written to
// env.BuildDir.  Make runs from the build directory, so build paths are
// written bare.
func RootMap(env *buildgen.Env) safestr.RootMap {
	prefixes := make(map[safestr.Root]safestr.String)
	if rel := env.RelSourceDir(); rel != "." {
		prefixes[safestr.SourceRoot] = safestr.Raw(rel)
	}
	for root, dir := range env.InstallDirs {
		prefixes[root] = safestr.Raw(dir)
	}
	roots := safestr.RootMap{Prefixes: prefixes}
	if env.Platform.HasDestDir() {
		roots.DestDir = safestr.Literal("$(DESTDIR)")
	}
	return roots
}

type generator struct {
	env   *buildgen.Env
	g     *graph.Graph
	m     *Makefile
	roots safestr.RootMap
	r     *safestr.Renderer
	log   *zerolog.Logger

	// Files and directories that clean removes besides the edge outputs.
	depfiles []safestr.Path
	dirs     []safestr.Path
}

// Generate builds the Makefile for g without writing anything.
func Generate(ctx context.Context, env *buildgen.Env, g *graph.Graph) (*Makefile, error) {
	err := g.CheckAcyclic()
	if err != nil {
		return nil, err
	}

	roots := RootMap(env)
	gen := &generator{
		env:   env,
		g:     g,
		m:     NewMakefile(),
		roots: roots,
		r: &safestr.Renderer{
			Escape: escaper{quote: env.Platform.QuoteFunc()}.escape,
			Roots:  roots,
		},
		log: buildgen.Log(ctx),
	}
	err = gen.m.Variable(quoteFunction, quoteDefinition(env.Platform), Recursive, false)
	if err != nil {
		return nil, err
	}

	// "all" comes first so that it is the default goal.
	steps := []func() error{
		gen.addAll,
		gen.addInstall,
		gen.addTest,
		gen.addEdges,
		gen.addClean,
		gen.addRegenerate,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}
	return gen.m, nil
}

func (gen *generator) paths(ids []graph.NodeID, ctx safestr.Context) []string {
	result := make([]string, len(ids))
	for i, id := range ids {
		result[i] = gen.r.Render(gen.g.Node(id).Path, ctx)
	}
	return result
}

func (gen *generator) shell(words []safestr.String) string {
	return strings.Join(gen.r.RenderList(words, Shell), " ")
}

// commandLine renders one command of an edge or target as a recipe line.
func (gen *generator) commandLine(cmd []safestr.String, vars []graph.EnvVar) string {
	return gen.r.Render(gen.env.CommandLine(gen.roots, [][]safestr.String{cmd}, vars), Shell)
}

// dirDeps returns order-only dependencies on the directories of outputs,
// adding a rule that creates each of them.
func (gen *generator) dirDeps(outputs []graph.NodeID) ([]string, error) {
	var deps []string
	seen := make(map[safestr.Path]bool)
	for _, out := range outputs {
		p := gen.g.Node(out).Path
		if p.Root() != safestr.BuildRoot || len(p.Split()) < 2 {
			continue
		}
		dir := p.Parent()
		if seen[dir] {
			continue
		}
		seen[dir] = true

		target := gen.r.Render(dir, Target)
		if !gen.m.HasTarget(target) {
			err := gen.m.Rule(Rule{
				Targets: []string{target},
				Recipe:  []string{"mkdir -p " + quoteCall("$@")},
			}, false)
			if err != nil {
				return nil, err
			}
			gen.dirs = append(gen.dirs, dir)
		}
		deps = append(deps, gen.r.Render(dir, Dependency))
	}
	return deps, nil
}

func (gen *generator) defaultTargets() []string {
	return gen.paths(gen.g.DefaultTargets(), Dependency)
}

func (gen *generator) addAll() error {
	return gen.m.Rule(Rule{
		Targets: []string{"all"},
		Deps:    gen.defaultTargets(),
		Phony:   true,
	}, false)
}

func (gen *generator) addInstall() error {
	if len(gen.g.Installs) == 0 {
		return nil
	}
	deps := gen.defaultTargets()
	seen := make(map[string]bool)
	for _, d := range deps {
		seen[d] = true
	}
	var recipe []string
	for _, in := range gen.g.Installs {
		if src := gen.paths([]graph.NodeID{in.Source}, Dependency)[0]; !seen[src] {
			seen[src] = true
			deps = append(deps, src)
		}
	}
	for _, cmd := range gen.env.InstallCommands(gen.g) {
		recipe = append(recipe, gen.commandLine(cmd, nil))
	}
	return gen.m.Rule(Rule{
		Targets: []string{"install"},
		Deps:    deps,
		Recipe:  recipe,
		Phony:   true,
	}, false)
}

func (gen *generator) addTest() error {
	if len(gen.g.Tests) == 0 {
		return nil
	}
	var recipe []string
	for _, t := range gen.g.Tests {
		recipe = append(recipe, gen.commandLine(t.Command, t.Env))
	}
	return gen.m.Rule(Rule{
		Targets: []string{"test"},
		Deps:    gen.defaultTargets(),
		Recipe:  recipe,
		Phony:   true,
	}, false)
}

func (gen *generator) addEdges() error {
	for _, e := range gen.g.Edges() {
		var err error
		switch e := e.(type) {
		case *graph.Compile:
			err = gen.addCompile(e)
		case *graph.Link:
			err = gen.addLink(e)
		case *graph.Alias:
			err = gen.addAlias(e)
		case *graph.Command:
			err = gen.addCommand(e)
		default:
			panic(eris.Errorf("unknown edge type %T", e))
		}
		if err != nil {
			return eris.Wrapf(err, "%s edge for %s", e.Kind(),
				gen.g.Node(graph.Base(e).Outputs[0]).Path)
		}
	}
	return nil
}

// compileDefine names the define block shared by every compile of lang.
func compileDefine(lang graph.Language) string {
	switch lang {
	case graph.C:
		return "_COMPILE_C"
	case graph.CXX:
		return "_COMPILE_CXX"
	default:
		panic(eris.Errorf("unknown language %q", lang))
	}
}

func (gen *generator) addCompile(e *graph.Compile) error {
	comp, err := gen.env.Toolchain.Compiler(e.Language)
	if err != nil {
		return err
	}

	cmdVar := strings.ToUpper(comp.Name())
	flagsVar := cmdVar + "FLAGS"
	err = gen.m.Variable(cmdVar, gen.shell(comp.Command()), Simple, true)
	if err != nil {
		return err
	}

	obj := gen.g.Node(e.Output()).Path
	depfile, hasDepfile := comp.Depfile(obj)

	defName := compileDefine(e.Language)
	if !gen.m.defineNames[defName] {
		depfileRef := quoteCall("$@.d")
		var depfileArg safestr.String
		if hasDepfile {
			depfileArg = safestr.Literal(depfileRef)
		}
		words := []safestr.String{
			safestr.Literal("$(" + cmdVar + ")"),
			safestr.Literal("$(" + flagsVar + ")"),
		}
		in, out := safestr.Literal(quoteCall("$<")), safestr.Literal(quoteCall("$@"))
		words = append(words, comp.Args(in, out, depfileArg)...)
		lines := []string{gen.shell(words)}
		if hasDepfile && comp.DepsStyle() == toolchain.DepsGCC {
			lines = append(lines, "@"+gen.shell(gen.env.DepfixerCommand())+" < "+depfileRef+" >> "+depfileRef)
		}
		err = gen.m.Define(defName, lines, false)
		if err != nil {
			return err
		}
		gen.log.Debug().Str("define", defName).Msg("Defined compile recipe")
	}

	target := gen.r.Render(obj, Target)
	if flags := comp.Flags(e); len(flags) > 0 {
		err = gen.m.TargetVariable(target, flagsVar, gen.shell(flags), false)
		if err != nil {
			return err
		}
	}

	dirs, err := gen.dirDeps(e.Outputs)
	if err != nil {
		return err
	}
	err = gen.m.Rule(Rule{
		Comment:   e.Description,
		Targets:   []string{target},
		Deps:      gen.paths(append([]graph.NodeID{e.Source}, e.ExtraDeps...), Dependency),
		OrderOnly: dirs,
		Define:    defName,
	}, false)
	if err != nil {
		return err
	}

	if hasDepfile {
		gen.m.Include(gen.r.Render(depfile, Include), true)
		gen.depfiles = append(gen.depfiles, depfile)
	}
	return nil
}

func (gen *generator) linkLanguages(e *graph.Link) []graph.Language {
	var langs []graph.Language
	for _, obj := range e.Objects {
		if c, ok := gen.g.Producer(obj).(*graph.Compile); ok {
			langs = append(langs, c.Language)
		}
	}
	return langs
}

func (gen *generator) addLink(e *graph.Link) error {
	linker := gen.env.Toolchain.Linker(e.LinkKind, gen.linkLanguages(e))

	cmdVar := strings.ToUpper(linker.Name())
	err := gen.m.Variable(cmdVar, gen.shell(linker.Command()), Simple, true)
	if err != nil {
		return err
	}

	var libs []safestr.String
	var built []graph.NodeID
	for _, lib := range e.Libraries {
		node := gen.g.Node(lib)
		if !node.IsSource() {
			libs = append(libs, node.Path)
			built = append(built, lib)
			continue
		}
		flags, err := linker.LibFlags(node.Path)
		if err != nil {
			return err
		}
		libs = append(libs, flags...)
	}

	objects := make([]safestr.String, len(e.Objects))
	for i, obj := range e.Objects {
		objects[i] = gen.g.Node(obj).Path
	}
	out := gen.g.Node(e.Output()).Path

	words := []safestr.String{safestr.Literal("$(" + cmdVar + ")")}
	words = append(words, linker.Flags(e)...)
	words = append(words, linker.Args(objects, out)...)
	words = append(words, libs...)

	deps := append(append(append([]graph.NodeID(nil), e.Objects...), built...), e.ExtraDeps...)
	dirs, err := gen.dirDeps(e.Outputs)
	if err != nil {
		return err
	}
	return gen.m.Rule(Rule{
		Comment:   e.Description,
		Targets:   gen.paths(e.Outputs, Target),
		Deps:      gen.paths(deps, Dependency),
		OrderOnly: dirs,
		Recipe:    []string{gen.shell(words)},
	}, false)
}

func (gen *generator) addAlias(e *graph.Alias) error {
	return gen.m.Rule(Rule{
		Comment: e.Description,
		Targets: gen.paths(e.Outputs, Target),
		Deps:    gen.paths(e.ExtraDeps, Dependency),
		Phony:   true,
	}, false)
}

func (gen *generator) addCommand(e *graph.Command) error {
	var recipe []string
	for _, cmd := range e.Commands {
		if len(cmd) > 0 {
			recipe = append(recipe, gen.commandLine(cmd, e.Env))
		}
	}

	var dirs []string
	if !e.Phony {
		var err error
		dirs, err = gen.dirDeps(e.Outputs)
		if err != nil {
			return err
		}
	}
	return gen.m.Rule(Rule{
		Comment:   e.Description,
		Targets:   gen.paths(e.Outputs, Target),
		Deps:      gen.paths(e.ExtraDeps, Dependency),
		OrderOnly: dirs,
		Recipe:    recipe,
		Phony:     e.Phony,
	}, false)
}

func (gen *generator) addClean() error {
	words := safestr.Raws("rm", "-f")
	for _, e := range gen.g.Edges() {
		switch e := e.(type) {
		case *graph.Alias:
			continue
		case *graph.Command:
			if e.Phony {
				continue
			}
		}
		for _, out := range graph.Base(e).Outputs {
			words = append(words, gen.g.Node(out).Path)
		}
	}
	for _, d := range gen.depfiles {
		words = append(words, d)
	}

	var recipe []string
	if len(words) > 2 {
		recipe = append(recipe, gen.shell(words))
	}
	if dirs := gen.cleanDirs(); len(dirs) > 0 {
		// Directories still holding files the build did not create stay.
		rmdir := append(safestr.Raws("rmdir"), dirs...)
		recipe = append(recipe, "-"+gen.shell(rmdir)+" 2>/dev/null")
	}
	return gen.m.Rule(Rule{
		Targets: []string{"clean"},
		Recipe:  recipe,
		Phony:   true,
	}, false)
}

// cleanDirs returns the directories created for outputs and their parents in
// the build directory, children before parents.
func (gen *generator) cleanDirs() []safestr.String {
	seen := make(map[safestr.Path]bool)
	var dirs []safestr.Path
	for _, dir := range gen.dirs {
		for ; dir.Suffix() != "" && !seen[dir]; dir = dir.Parent() {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	sort.SliceStable(dirs, func(i, j int) bool {
		return len(dirs[i].Split()) > len(dirs[j].Split())
	})
	result := make([]safestr.String, len(dirs))
	for i, dir := range dirs {
		result[i] = dir
	}
	return result
}

// addRegenerate lets Make rebuild the Makefile itself, and restart, when the
// build description changes.
func (gen *generator) addRegenerate() error {
	if gen.env.BuildFile == "" {
		return nil
	}
	var deps []string
	for _, f := range append([]string{gen.env.BuildFile}, gen.env.CacheFiles...) {
		deps = append(deps, gen.r.Render(safestr.NewPath(f, safestr.SourceRoot), Dependency))
	}
	return gen.m.Rule(Rule{
		Targets: []string{MakefileName},
		Deps:    deps,
		Recipe:  []string{gen.shell(gen.env.GeneratorCommand())},
	}, false)
}
