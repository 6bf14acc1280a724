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

// Package ninja renders a build graph as a Ninja manifest.
package ninja

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/google/buildgen"
	"github.com/google/buildgen/deptools"
	"github.com/google/buildgen/graph"
	"github.com/google/buildgen/safestr"
	"github.com/google/buildgen/toolchain"
)

const (
	ManifestName = "build.ninja"
	DepfileName  = ManifestName + ".d"

	commandRule    = "command"
	regenerateRule = "regenerate"

	header = "This file is generated by buildgen.  Do not edit."
)

// Backend writes a Ninja manifest.
type Backend struct{}

// New returns the Ninja backend.
func New() *Backend {
	return &Backend{}
}

func (*Backend) Name() string { return "ninja" }

// Write renders g into build.ninja.  When env names a build description, the
// depfile of the regenerate rule is written next to it.
func (b *Backend) Write(ctx context.Context, env *buildgen.Env, g *graph.Graph) error {
	f, err := Generate(ctx, env, g)
	if err != nil {
		return err
	}

	sb := &strings.Builder{}
	err = f.WriteTo(sb, header)
	if err != nil {
		return eris.Wrapf(err, "failed to render %s", ManifestName)
	}

	err = buildgen.WriteOutputs(ctx, env, []buildgen.Output{
		{Name: ManifestName, Data: []byte(sb.String())},
	})
	if err != nil {
		return err
	}

	if env.BuildFile == "" {
		return nil
	}
	deps := append([]string{env.BuildFile}, env.CacheFiles...)
	err = deptools.WriteDepFile(env.BuildPath(DepfileName), ManifestName, deps)
	if err != nil {
		return eris.Wrapf(err, "failed to write %s", DepfileName)
	}
	return nil
}

// RootMap returns how paths are realized in a manifest written to
// env.BuildDir.  Ninja runs from the build directory, so build paths are
// written bare.
func RootMap(env *buildgen.Env) safestr.RootMap {
	sep := env.Platform.Separator()
	prefixes := make(map[safestr.Root]safestr.String)
	if rel := env.RelSourceDir(); rel != "." {
		prefixes[safestr.SourceRoot] = safestr.Raw(strings.ReplaceAll(rel, "/", sep))
	}
	for root, dir := range env.InstallDirs {
		prefixes[root] = safestr.Raw(dir)
	}
	roots := safestr.RootMap{
		Prefixes:  prefixes,
		Separator: sep,
	}
	if env.Platform.HasDestDir() {
		roots.DestDir = safestr.Literal("$${DESTDIR}")
	}
	return roots
}

type generator struct {
	env   *buildgen.Env
	g     *graph.Graph
	f     *File
	roots safestr.RootMap
	r     *safestr.Renderer
	log   *zerolog.Logger
}

// Generate builds the manifest for g without writing anything.
func Generate(ctx context.Context, env *buildgen.Env, g *graph.Graph) (*File, error) {
	err := g.CheckAcyclic()
	if err != nil {
		return nil, err
	}

	roots := RootMap(env)
	gen := &generator{
		env:   env,
		g:     g,
		f:     NewFile(),
		roots: roots,
		r: &safestr.Renderer{
			Escape: escaper{quote: env.Platform.QuoteFunc()}.escape,
			Roots:  roots,
		},
		log: buildgen.Log(ctx),
	}

	steps := []func() error{
		gen.addCommandRule,
		gen.addAll,
		gen.addInstall,
		gen.addTest,
		gen.addEdges,
		gen.addRegenerate,
		gen.addClean,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}
	return gen.f, nil
}

func (gen *generator) paths(ids []graph.NodeID, ctx safestr.Context) []string {
	result := make([]string, len(ids))
	for i, id := range ids {
		result[i] = gen.r.Render(gen.g.Node(id).Path, ctx)
	}
	return result
}

// shell renders words as one command line.
func (gen *generator) shell(words []safestr.String) string {
	return strings.Join(gen.r.RenderList(words, Shell), " ")
}

func uniq(list []string) []string {
	seen := make(map[string]bool, len(list))
	result := list[:0]
	for _, s := range list {
		if !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	return result
}

func (gen *generator) defaultTargets() []string {
	return gen.paths(gen.g.DefaultTargets(), Input)
}

func (gen *generator) addCommandRule() error {
	return gen.f.AddRule(commandRule, RuleParams{
		Command: "$cmd",
		Comment: "Runs the commands of custom build steps.",
	})
}

func (gen *generator) addAll() error {
	err := gen.f.AddBuild(BuildParams{
		Rule:    PhonyRule,
		Outputs: []string{"all"},
		Inputs:  gen.defaultTargets(),
	})
	if err != nil {
		return err
	}
	gen.f.AddDefault("all")
	return nil
}

func (gen *generator) addInstall() error {
	if len(gen.g.Installs) == 0 {
		return nil
	}
	var sources []graph.NodeID
	for _, in := range gen.g.Installs {
		sources = append(sources, in.Source)
	}
	cmd := gen.env.CommandLine(gen.roots, gen.env.InstallCommands(gen.g), nil)
	return gen.f.AddBuild(BuildParams{
		Rule:      commandRule,
		Outputs:   []string{"install"},
		Implicits: uniq(append(gen.defaultTargets(), gen.paths(sources, Input)...)),
		Variables: map[string]string{
			"cmd":         gen.r.Render(cmd, Shell),
			"description": "Installing",
		},
		Pool: ConsolePool,
	})
}

func (gen *generator) addTest() error {
	if len(gen.g.Tests) == 0 {
		return nil
	}
	cmd := gen.env.TestCommand(gen.roots, gen.g)
	return gen.f.AddBuild(BuildParams{
		Rule:      commandRule,
		Outputs:   []string{"test"},
		Implicits: gen.defaultTargets(),
		Variables: map[string]string{
			"cmd":         gen.r.Render(cmd, Shell),
			"description": "Running tests",
		},
		Pool: ConsolePool,
	})
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

func depsFor(style toolchain.DepsStyle) Deps {
	switch style {
	case toolchain.DepsGCC:
		return DepsGCC
	case toolchain.DepsMSVC:
		return DepsMSVC
	default:
		return DepsNone
	}
}

func (gen *generator) addCompile(e *graph.Compile) error {
	comp, err := gen.env.Toolchain.Compiler(e.Language)
	if err != nil {
		return err
	}

	if !gen.f.HasRule(comp.Name()) {
		words := append(comp.Command(), safestr.Literal("$flags"))
		params := RuleParams{
			Deps:        depsFor(comp.DepsStyle()),
			Description: comp.Name() + " $out",
		}
		var depfile safestr.String
		if _, ok := comp.Depfile(gen.g.Node(e.Output()).Path); ok {
			depfile = safestr.Literal("$out.d")
			params.Depfile = "$out.d"
		}
		words = append(words, comp.Args(safestr.Literal("$in"), safestr.Literal("$out"), depfile)...)
		params.Command = gen.shell(words)

		err = gen.f.AddRule(comp.Name(), params)
		if err != nil {
			return err
		}
		gen.log.Debug().Str("rule", comp.Name()).Msg("Defined compile rule")
	}

	vars := make(map[string]string)
	if flags := comp.Flags(e); len(flags) > 0 {
		vars["flags"] = gen.shell(flags)
	}
	if e.Description != "" {
		vars["description"] = escapeVariable(e.Description)
	}
	return gen.f.AddBuild(BuildParams{
		Rule:      comp.Name(),
		Outputs:   gen.paths(e.Outputs, Output),
		Inputs:    gen.paths([]graph.NodeID{e.Source}, Input),
		Implicits: gen.paths(e.ExtraDeps, Input),
		Variables: vars,
	})
}

// linkLanguages returns the languages of the objects of e, which decide the
// driver that links them.
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

	if !gen.f.HasRule(linker.Name()) {
		words := append(linker.Command(), safestr.Literal("$flags"))
		words = append(words, linker.Args([]safestr.String{safestr.Literal("$in")}, safestr.Literal("$out"))...)
		words = append(words, safestr.Literal("$libs"))
		err := gen.f.AddRule(linker.Name(), RuleParams{
			Command:     gen.shell(words),
			Description: linker.Name() + " $out",
		})
		if err != nil {
			return err
		}
		gen.log.Debug().Str("rule", linker.Name()).Msg("Defined link rule")
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

	vars := make(map[string]string)
	if flags := linker.Flags(e); len(flags) > 0 {
		vars["flags"] = gen.shell(flags)
	}
	if len(libs) > 0 {
		vars["libs"] = gen.shell(libs)
	}
	if e.Description != "" {
		vars["description"] = escapeVariable(e.Description)
	}
	return gen.f.AddBuild(BuildParams{
		Rule:      linker.Name(),
		Outputs:   gen.paths(e.Outputs, Output),
		Inputs:    gen.paths(e.Objects, Input),
		Implicits: gen.paths(append(built, e.ExtraDeps...), Input),
		Variables: vars,
	})
}

func (gen *generator) addAlias(e *graph.Alias) error {
	return gen.f.AddBuild(BuildParams{
		Rule:    PhonyRule,
		Outputs: gen.paths(e.Outputs, Output),
		Inputs:  gen.paths(e.ExtraDeps, Input),
	})
}

func (gen *generator) addCommand(e *graph.Command) error {
	cmd := gen.env.CommandLine(gen.roots, e.Commands, e.Env)
	vars := map[string]string{
		"cmd": gen.r.Render(cmd, Shell),
	}
	if e.Restat {
		vars["restat"] = "1"
	}
	if e.Description != "" {
		vars["description"] = escapeVariable(e.Description)
	}
	params := BuildParams{
		Rule:      commandRule,
		Outputs:   gen.paths(e.Outputs, Output),
		Implicits: gen.paths(e.ExtraDeps, Input),
		Variables: vars,
	}
	if e.Console {
		params.Pool = ConsolePool
	}
	return gen.f.AddBuild(params)
}

func (gen *generator) addRegenerate() error {
	if gen.env.BuildFile == "" {
		return nil
	}
	err := gen.f.AddRule(regenerateRule, RuleParams{
		Command:     gen.shell(gen.env.GeneratorCommand()),
		Depfile:     DepfileName,
		Description: "Regenerating build files",
		Generator:   true,
		Pool:        ConsolePool,
	})
	if err != nil {
		return err
	}
	return gen.f.AddBuild(BuildParams{
		Rule:    regenerateRule,
		Outputs: []string{ManifestName},
	})
}

func (gen *generator) addClean() error {
	return gen.f.AddBuild(BuildParams{
		Rule:    commandRule,
		Outputs: []string{"clean"},
		Variables: map[string]string{
			"cmd": gen.shell(safestr.Raws("ninja", "-t", "clean")),
		},
	})
}
