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

// Package msbuild renders a build graph as a Visual Studio solution, with one
// project per link edge and one utility project per command edge.
package msbuild

import (
	"context"
	"encoding/xml"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/google/buildgen"
	"github.com/google/buildgen/graph"
	"github.com/google/buildgen/safestr"
)

var (
	ErrUnresolvedDependency = eris.New("dependency is not built by any known project")
	ErrDuplicate            = eris.New("duplicate project")
)

const DefaultPlatform = "x64"

// Backend writes a solution and its projects.  Project identities come from
// UUIDs, which the caller loads before Write and saves after it.
type Backend struct {
	UUIDs    *UUIDMap
	Platform string
}

// New returns the MSBuild backend.
func New(uuids *UUIDMap) *Backend {
	return &Backend{
		UUIDs:    uuids,
		Platform: DefaultPlatform,
	}
}

func (*Backend) Name() string { return "msbuild" }

func (b *Backend) Write(ctx context.Context, env *buildgen.Env, g *graph.Graph) error {
	outputs, err := Generate(ctx, env, g, b.UUIDs, b.Platform)
	if err != nil {
		return err
	}
	return buildgen.WriteOutputs(ctx, env, outputs)
}

// RootMap returns how paths are realized in projects written to
// env.BuildDir, next to the solution.
func RootMap(env *buildgen.Env) safestr.RootMap {
	prefixes := make(map[safestr.Root]safestr.String)
	if rel := env.RelSourceDir(); rel != "." {
		prefixes[safestr.SourceRoot] = safestr.Raw(strings.ReplaceAll(rel, "/", `\`))
	}
	for root, dir := range env.InstallDirs {
		prefixes[root] = safestr.Raw(dir)
	}
	return safestr.RootMap{
		Prefixes:  prefixes,
		Separator: `\`,
	}
}

// SolutionName returns the base name of the solution file for env.
func SolutionName(env *buildgen.Env) string {
	if env.ProjectName != "" {
		return env.ProjectName
	}
	return filepath.Base(env.SourceDir)
}

type generator struct {
	env      *buildgen.Env
	g        *graph.Graph
	uuids    *UUIDMap
	platform string
	roots    safestr.RootMap
	r        *safestr.Renderer
	log      *zerolog.Logger

	sln      *solution
	projects map[graph.EdgeID]*solutionProject
	names    map[string]bool
	outputs  []buildgen.Output
}

// Generate renders the solution and project files for g without writing
// anything.  The solution comes first in the result.
func Generate(ctx context.Context, env *buildgen.Env, g *graph.Graph, uuids *UUIDMap,
	platform string) ([]buildgen.Output, error) {

	err := g.CheckAcyclic()
	if err != nil {
		return nil, err
	}

	// Commands run under cmd.exe whatever the host.
	winEnv := *env
	winEnv.Platform = buildgen.Windows

	name := SolutionName(env)
	roots := RootMap(env)
	gen := &generator{
		env:      &winEnv,
		g:        g,
		uuids:    uuids,
		platform: platform,
		roots:    roots,
		r:        &safestr.Renderer{Escape: escape, Roots: roots},
		log:      buildgen.Log(ctx),
		sln: &solution{
			guid:     formatUUID(uuids.Get(name + ".sln")),
			platform: platform,
		},
		projects: make(map[graph.EdgeID]*solutionProject),
		names:    make(map[string]bool),
	}

	// Projects are registered first so that references do not depend on
	// the order edges were added in.
	var owners []graph.Edge
	for _, e := range g.Edges() {
		var name string
		switch e := e.(type) {
		case *graph.Link:
			name = linkName(g, e)
		case *graph.Command:
			name = g.Node(e.Outputs[0]).Path.Base()
		default:
			// Compiles belong to the project of the link that uses them, and
			// aliases have no counterpart in a solution.
			gen.log.Debug().Stringer("kind", e.Kind()).
				Stringer("output", g.Node(graph.Base(e).Outputs[0]).Path).Msg("No project for edge")
			continue
		}
		if err := gen.addProject(graph.Base(e).ID, name); err != nil {
			return nil, err
		}
		owners = append(owners, e)
	}

	for _, e := range owners {
		switch e := e.(type) {
		case *graph.Link:
			err = gen.writeLinkProject(e)
		case *graph.Command:
			err = gen.writeCommandProject(e)
		}
		if err != nil {
			return nil, eris.Wrapf(err, "%s edge for %s", e.Kind(),
				g.Node(graph.Base(e).Outputs[0]).Path)
		}
	}

	sb := &strings.Builder{}
	err = gen.sln.WriteTo(sb)
	if err != nil {
		return nil, eris.Wrap(err, "failed to render solution")
	}
	outputs := []buildgen.Output{{Name: name + ".sln", Data: []byte(sb.String())}}
	return append(outputs, gen.outputs...), nil
}

func linkName(g *graph.Graph, e *graph.Link) string {
	if e.Name != "" {
		return e.Name
	}
	return g.Node(e.Output()).Path.StripExt().Base()
}

func (gen *generator) addProject(id graph.EdgeID, name string) error {
	if gen.names[name] {
		return eris.Wrapf(ErrDuplicate, "%q", name)
	}
	gen.names[name] = true

	p := &solutionProject{
		name: name,
		path: name + ".vcxproj",
		guid: formatUUID(gen.uuids.Get(name)),
	}
	gen.projects[id] = p
	gen.sln.projects = append(gen.sln.projects, p)
	gen.log.Debug().Str("project", name).Str("guid", p.guid).Msg("Added project")
	return nil
}

// reference makes p depend on the project building node, if there is one.
func (gen *generator) reference(p *solutionProject, node graph.NodeID) (item, bool) {
	dep, ok := gen.projects[gen.g.Node(node).Producer]
	if !ok {
		return item{}, false
	}
	p.deps = append(p.deps, dep.guid)
	return item{
		XMLName:  xml.Name{Local: "ProjectReference"},
		Include:  dep.path,
		Metadata: []property{prop("Project", dep.guid)},
	}, true
}

func (gen *generator) finish(p *solutionProject, doc *project) error {
	data, err := doc.marshal()
	if err != nil {
		return err
	}
	gen.outputs = append(gen.outputs, buildgen.Output{Name: p.path, Data: data})
	return nil
}

// A projectWriter renders strings for one project.  Paths of nodes built by
// the project itself, or by one of its compiles, are written relative to the
// project's output and intermediate directories.
type projectWriter struct {
	*generator
	edge graph.EdgeID

	// objDir is the intermediate directory, when the project compiles
	// anything.
	objDir    safestr.Path
	hasObjDir bool
}

// objectDir returns the deepest directory holding every object of e that one
// of its compiles produces.
func (gen *generator) objectDir(e *graph.Link) (safestr.Path, bool) {
	var dir safestr.Path
	found := false
	for _, obj := range e.Objects {
		if _, ok := gen.g.Producer(obj).(*graph.Compile); !ok {
			continue
		}
		parent := gen.g.Node(obj).Path.Parent()
		if parent.Root() == safestr.AbsoluteRoot {
			return safestr.Path{}, false
		}
		if !found {
			dir, found = parent, true
			continue
		}
		if parent.Root() != dir.Root() {
			return safestr.Path{}, false
		}
		for !within(parent, dir) {
			dir = dir.Parent()
		}
	}
	return dir, found
}

// within returns true if p is dir or below it.
func within(p, dir safestr.Path) bool {
	if p.Root() != dir.Root() {
		return false
	}
	pParts, dirParts := p.Split(), dir.Split()
	if len(pParts) < len(dirParts) {
		return false
	}
	for i := range dirParts {
		if pParts[i] != dirParts[i] {
			return false
		}
	}
	return true
}

// intermediate returns p relative to the intermediate directory.
func (pw *projectWriter) intermediate(p safestr.Path) (safestr.Path, bool) {
	if !pw.hasObjDir || !within(p, pw.objDir) {
		return safestr.Path{}, false
	}
	rel := p.Split()[len(pw.objDir.Split()):]
	return safestr.NewPath(strings.Join(rel, "/"), safestr.BuildRoot), true
}

func (pw *projectWriter) layer(s safestr.String) safestr.String {
	switch s := s.(type) {
	case safestr.Path:
		id, ok := pw.g.FindNode(s)
		if !ok {
			return s
		}
		switch pw.g.Producer(id).(type) {
		case nil:
			return s
		case *graph.Compile:
			if rel, ok := pw.intermediate(s); ok {
				return safestr.Join(safestr.Literal("$(IntDir)"), rel)
			}
			return s
		default:
			if pw.g.Node(id).Producer == pw.edge {
				return safestr.Join(safestr.Literal("$(OutDir)"), safestr.Raw(s.Base()))
			}
			return s
		}
	case safestr.Jbos:
		result := make(safestr.Jbos, len(s))
		for i, part := range s {
			result[i] = pw.layer(part)
		}
		return result
	default:
		return s
	}
}

func (pw *projectWriter) render(s safestr.String, ctx safestr.Context) string {
	return pw.r.Render(pw.layer(s), ctx)
}

// dir renders the directory containing p as a directory property, which
// MSBuild expects to end in a backslash.
func (pw *projectWriter) dir(p safestr.Path) string {
	return pw.dirProperty(p.Parent())
}

func (pw *projectWriter) dirProperty(p safestr.Path) string {
	dir := pw.r.Render(p, Property)
	if dir == "." {
		return "$(SolutionDir)"
	}
	if !strings.HasSuffix(dir, `\`) {
		dir += `\`
	}
	return dir
}

type orderedSet struct {
	items []string
	seen  map[string]bool
}

func (s *orderedSet) add(item string) {
	if s.seen == nil {
		s.seen = make(map[string]bool)
	}
	if !s.seen[item] {
		s.seen[item] = true
		s.items = append(s.items, item)
	}
}

var warningFlag = regexp.MustCompile(`^[/-]W([0-4]|all)$`)

// clSettings collects the compiler settings of every compile in a project.
type clSettings struct {
	warningLevel string
	defines      orderedSet
	includes     orderedSet
	pch          string
	pchFile      string
	options      orderedSet
}

func (cs *clSettings) addOption(pw *projectWriter, opt safestr.String) {
	raw, ok := opt.(safestr.Raw)
	if !ok {
		cs.options.add(pw.render(opt, Shell))
		return
	}
	text := string(raw)
	if m := warningFlag.FindStringSubmatch(text); m != nil {
		if m[1] == "all" {
			cs.warningLevel = "EnableAllWarnings"
		} else {
			cs.warningLevel = "Level" + m[1]
		}
		return
	}
	switch {
	case hasFlag(text, "D") && len(text) > 2:
		cs.defines.add(pw.render(safestr.Raw(text[2:]), Property))
	case hasFlag(text, "Yu"):
		cs.pch = "Use"
		cs.pchFile = pw.render(safestr.Raw(text[3:]), Property)
	case hasFlag(text, "Yc"):
		cs.pch = "Create"
		cs.pchFile = pw.render(safestr.Raw(text[3:]), Property)
	default:
		cs.options.add(pw.render(opt, Shell))
	}
}

func hasFlag(text, flag string) bool {
	return strings.HasPrefix(text, "/"+flag) || strings.HasPrefix(text, "-"+flag)
}

func (cs *clSettings) tool() tool {
	warningLevel := cs.warningLevel
	if warningLevel == "" {
		warningLevel = "Level3"
	}
	pch := cs.pch
	if pch == "" {
		pch = "NotUsing"
	}

	props := []property{prop("WarningLevel", warningLevel)}
	if len(cs.defines.items) > 0 {
		props = append(props, prop("PreprocessorDefinitions",
			list(cs.defines.items, "PreprocessorDefinitions")))
	}
	if len(cs.includes.items) > 0 {
		props = append(props, prop("AdditionalIncludeDirectories",
			list(cs.includes.items, "AdditionalIncludeDirectories")))
	}
	props = append(props, prop("PrecompiledHeader", pch))
	if cs.pchFile != "" {
		props = append(props, prop("PrecompiledHeaderFile", cs.pchFile))
	}
	if len(cs.options.items) > 0 {
		props = append(props, prop("AdditionalOptions",
			strings.Join(cs.options.items, " ")+" %(AdditionalOptions)"))
	}
	return tool{XMLName: xml.Name{Local: "ClCompile"}, Properties: props}
}

func configurationType(kind graph.LinkKind) string {
	switch kind {
	case graph.Executable:
		return "Application"
	case graph.SharedLibrary:
		return "DynamicLibrary"
	case graph.StaticLibrary:
		return "StaticLibrary"
	default:
		panic(eris.Errorf("unknown link kind %d", int(kind)))
	}
}

func (gen *generator) writeLinkProject(e *graph.Link) error {
	out := gen.g.Node(e.Output()).Path
	p := gen.projects[e.ID]
	pw := &projectWriter{generator: gen, edge: e.ID}
	pw.objDir, pw.hasObjDir = gen.objectDir(e)

	var (
		cl       clSettings
		sources  []item
		langs    []graph.Language
		linkDeps orderedSet
		linkOpts orderedSet
		refs     []item
	)
	intDir := `$(ProjectName)\`
	if pw.hasObjDir {
		intDir = pw.dirProperty(pw.objDir)
	}

	for _, obj := range e.Objects {
		objPath := gen.g.Node(obj).Path
		c, ok := gen.g.Producer(obj).(*graph.Compile)
		if !ok {
			linkDeps.add(pw.render(objPath, Property))
			continue
		}
		langs = append(langs, c.Language)
		sources = append(sources, item{
			XMLName:  xml.Name{Local: "ClCompile"},
			Include:  pw.render(gen.g.Node(c.Source).Path, Property),
			Metadata: []property{prop("ObjectFileName", pw.render(objPath, Property))},
		})
		for _, inc := range c.Includes {
			cl.includes.add(pw.render(inc, Property))
		}
		for _, opt := range c.Options {
			cl.addOption(pw, opt)
		}
	}
	for _, opt := range e.CompileOptions {
		cl.addOption(pw, opt)
	}

	linker := gen.env.Toolchain.Linker(e.LinkKind, langs)
	for _, lib := range e.Libraries {
		node := gen.g.Node(lib)
		if node.IsSource() {
			flags, err := linker.LibFlags(node.Path)
			if err != nil {
				return err
			}
			for _, f := range flags {
				if raw, ok := f.(safestr.Raw); ok && strings.HasSuffix(strings.ToLower(string(raw)), ".lib") {
					linkDeps.add(pw.render(f, Property))
				} else {
					linkOpts.add(pw.render(f, Shell))
				}
			}
			continue
		}
		ref, ok := gen.reference(p, lib)
		if !ok {
			return eris.Wrapf(ErrUnresolvedDependency, "library %s", node.Path)
		}
		refs = append(refs, ref)
	}
	for _, opt := range e.LinkOptions {
		linkOpts.add(pw.render(opt, Shell))
	}

	doc := newProject(p.guid, p.name, gen.platform, configurationType(e.LinkKind))
	doc.add(propertyGroup{Properties: []property{
		prop("OutDir", pw.dir(out)),
		prop("IntDir", intDir),
		prop("TargetName", pw.render(safestr.Raw(out.StripExt().Base()), Property)),
		prop("TargetExt", pw.render(safestr.Raw(out.Ext()), Property)),
	}})

	linkTool := tool{XMLName: xml.Name{Local: "Link"}}
	if e.LinkKind == graph.StaticLibrary {
		linkTool.XMLName.Local = "Lib"
	}
	if len(linkDeps.items) > 0 {
		linkTool.Properties = append(linkTool.Properties, prop("AdditionalDependencies",
			list(linkDeps.items, "AdditionalDependencies")))
	}
	if len(linkOpts.items) > 0 {
		linkTool.Properties = append(linkTool.Properties, prop("AdditionalOptions",
			strings.Join(linkOpts.items, " ")+" %(AdditionalOptions)"))
	}
	doc.add(itemDefinitionGroup{Tools: []tool{cl.tool(), linkTool}})

	if len(sources) > 0 {
		doc.add(itemGroup{Items: sources})
	}
	if len(refs) > 0 {
		doc.add(itemGroup{Items: refs})
	}
	return gen.finish(p, doc)
}

func (gen *generator) writeCommandProject(e *graph.Command) error {
	out := gen.g.Node(e.Outputs[0]).Path
	p := gen.projects[e.ID]
	pw := &projectWriter{generator: gen, edge: e.ID}

	var lines []string
	for _, cmd := range e.Commands {
		if len(cmd) > 0 {
			line := gen.env.CommandLine(gen.roots, [][]safestr.String{cmd}, e.Env)
			lines = append(lines, pw.render(line, Shell))
		}
	}

	var outputs, inputs []string
	for _, id := range e.Outputs {
		outputs = append(outputs, pw.render(gen.g.Node(id).Path, Property))
	}
	var refs []item
	for _, id := range e.ExtraDeps {
		inputs = append(inputs, pw.render(gen.g.Node(id).Path, Property))
		if ref, ok := gen.reference(p, id); ok {
			refs = append(refs, ref)
		}
	}

	props := []property{prop("Command", strings.Join(lines, "\n"))}
	if e.Description != "" {
		props = append(props, prop("Message", pw.render(safestr.Raw(e.Description), Property)))
	}
	props = append(props, prop("Outputs", strings.Join(outputs, ";")))
	if len(inputs) > 0 {
		props = append(props, prop("Inputs", strings.Join(inputs, ";")))
	}

	doc := newProject(p.guid, p.name, gen.platform, "Utility")
	doc.add(propertyGroup{Properties: []property{
		prop("OutDir", pw.dir(out)),
		prop("IntDir", `$(ProjectName)\`),
	}})
	doc.add(itemDefinitionGroup{Tools: []tool{
		{XMLName: xml.Name{Local: "CustomBuildStep"}, Properties: props},
	}})
	if len(refs) > 0 {
		doc.add(itemGroup{Items: refs})
	}
	return gen.finish(p, doc)
}
