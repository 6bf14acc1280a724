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

// Package buildfile loads the YAML build descriptions buildgen generates
// build files from.
//
// A description declares linked targets, custom commands, aliases, tests
// and installs.  Command words and paths of the form "<root>:<path>", like
// "builddir:gen.h" or "bindir:tool", name a path under that root; other
// words are plain arguments.  Plain paths are relative to the source
// directory.
package buildfile

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/google/buildgen"
	"github.com/google/buildgen/graph"
	"github.com/google/buildgen/safestr"
	"github.com/google/buildgen/toolchain"
)

var (
	ErrDuplicateName = eris.New("duplicate name")
	ErrUnknownName   = eris.New("unknown name")
	ErrBadTarget     = eris.New("invalid target")
)

// DefaultName is the build description looked for in a source directory.
const DefaultName = "buildgen.yaml"

type Description struct {
	Project  string    `yaml:"project"`
	Config   Config    `yaml:"config"`
	Targets  []Target  `yaml:"targets"`
	Commands []Command `yaml:"commands"`
	Aliases  []Alias   `yaml:"aliases"`
	Tests    []Test    `yaml:"tests"`
	Installs []Install `yaml:"installs"`
	Default  []string  `yaml:"default"`
}

// A Target is an executable or library linked from sources.
type Target struct {
	Name        string   `yaml:"name"`
	Kind        string   `yaml:"kind"`
	Sources     []string `yaml:"sources"`
	Includes    []string `yaml:"includes"`
	Options     []string `yaml:"options"`
	LinkOptions []string `yaml:"link_options"`

	// Libraries name other targets or library files.
	Libraries []string `yaml:"libraries"`

	// Install copies the output to bindir or libdir.
	Install bool `yaml:"install"`
}

type Command struct {
	Outputs     []string          `yaml:"outputs"`
	Inputs      []string          `yaml:"inputs"`
	Commands    [][]string        `yaml:"commands"`
	Env         map[string]string `yaml:"env"`
	Description string            `yaml:"description"`
	Console     bool              `yaml:"console"`
	Restat      bool              `yaml:"restat"`
	Phony       bool              `yaml:"phony"`
}

type Alias struct {
	Name string   `yaml:"name"`
	Deps []string `yaml:"deps"`
}

type Test struct {
	Name    string            `yaml:"name"`
	Command []string          `yaml:"command"`
	Env     map[string]string `yaml:"env"`
}

type Install struct {
	Source string `yaml:"source"`
	Dest   string `yaml:"dest"`
}

// Load reads the description at filename.  Unknown keys are errors.
func Load(filename string) (*Description, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to open %s", filename)
	}
	defer f.Close()
	return Parse(f, filename)
}

// Parse reads a description from r.  name is used in error messages.
func Parse(r io.Reader, name string) (*Description, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	d := &Description{}
	err := dec.Decode(d)
	if err != nil && err != io.EOF {
		return nil, eris.Wrapf(err, "failed to parse %s", name)
	}
	return d, nil
}

// Env returns the environment to generate d with.  The config must already
// have its defaults set.
func (d *Description) Env(sourceDir, buildDir string) (*buildgen.Env, error) {
	platform, err := d.Config.PlatformValue()
	if err != nil {
		return nil, err
	}
	tc, err := d.Config.NewToolchain()
	if err != nil {
		return nil, err
	}
	dirs, err := d.Config.InstallPaths()
	if err != nil {
		return nil, err
	}

	name := d.Project
	if name == "" {
		name = filepath.Base(sourceDir)
	}
	return &buildgen.Env{
		SourceDir:   sourceDir,
		BuildDir:    buildDir,
		Platform:    platform,
		Toolchain:   tc,
		InstallDirs: dirs,
		ProjectName: name,
	}, nil
}

// parseWord turns a command word into a String.
func parseWord(word string) safestr.String {
	if p, ok := parseRooted(word); ok {
		return p
	}
	return safestr.Raw(word)
}

func parseRooted(word string) (safestr.Path, bool) {
	i := strings.IndexByte(word, ':')
	if i <= 0 {
		return safestr.Path{}, false
	}
	root := safestr.Root(word[:i])
	if root != safestr.SourceRoot && root != safestr.BuildRoot && !root.IsInstall() {
		return safestr.Path{}, false
	}
	return safestr.NewPath(word[i+1:], root), true
}

// parsePath parses a path that defaults to the given root.
func parsePath(s string, root safestr.Root) safestr.Path {
	if p, ok := parseRooted(s); ok {
		return p
	}
	return safestr.NewPath(s, root)
}

func parseWords(words []string) []safestr.String {
	result := make([]safestr.String, len(words))
	for i, word := range words {
		result[i] = parseWord(word)
	}
	return result
}

// envVars returns env sorted by name.
func envVars(env map[string]string) []graph.EnvVar {
	names := make([]string, 0, len(env))
	for name := range env {
		names = append(names, name)
	}
	sort.Strings(names)

	vars := make([]graph.EnvVar, len(names))
	for i, name := range names {
		vars[i] = graph.EnvVar{Name: name, Value: parseWord(env[name])}
	}
	return vars
}

func parseKind(kind string) (graph.LinkKind, error) {
	for _, k := range []graph.LinkKind{graph.Executable, graph.SharedLibrary, graph.StaticLibrary} {
		if kind == k.String() {
			return k, nil
		}
	}
	return 0, eris.Wrapf(ErrBadTarget, "unknown kind %q", kind)
}

// outputName returns the file a target of the given kind links to.
func outputName(name string, kind graph.LinkKind, tc toolchain.Toolchain) string {
	msvc := tc.Flavor() == "msvc"
	switch kind {
	case graph.SharedLibrary:
		if msvc {
			return name + ".dll"
		}
		return "lib" + name + ".so"
	case graph.StaticLibrary:
		if msvc {
			return name + ".lib"
		}
		return "lib" + name + ".a"
	default:
		if msvc {
			return name + ".exe"
		}
		return name
	}
}

type builder struct {
	d     *Description
	tc    toolchain.Toolchain
	g     *graph.Graph
	names map[string]graph.NodeID
	kinds map[string]graph.LinkKind
}

// Graph builds the graph described by d for the toolchain tc.
func (d *Description) Graph(tc toolchain.Toolchain) (*graph.Graph, error) {
	b := &builder{
		d:     d,
		tc:    tc,
		g:     graph.New(),
		names: make(map[string]graph.NodeID),
		kinds: make(map[string]graph.LinkKind),
	}

	// Names are declared first so that anything can refer to anything.
	err := b.declare()
	if err != nil {
		return nil, err
	}

	for _, t := range d.Targets {
		err = b.addTarget(t)
		if err != nil {
			return nil, eris.Wrapf(err, "target %q", t.Name)
		}
	}
	for _, c := range d.Commands {
		err = b.addCommand(c)
		if err != nil {
			return nil, eris.Wrapf(err, "command for %s", strings.Join(c.Outputs, ", "))
		}
	}
	for _, a := range d.Aliases {
		_, err = b.g.AddEdge(&graph.Alias{EdgeBase: graph.EdgeBase{
			Outputs:   []graph.NodeID{b.names[a.Name]},
			ExtraDeps: b.resolveAll(a.Deps),
		}})
		if err != nil {
			return nil, eris.Wrapf(err, "alias %q", a.Name)
		}
	}

	for _, t := range d.Tests {
		b.g.Tests = append(b.g.Tests, graph.Test{
			Name:    t.Name,
			Command: parseWords(t.Command),
			Env:     envVars(t.Env),
		})
	}
	for _, in := range d.Installs {
		dest, ok := parseRooted(in.Dest)
		if !ok || !dest.Root().IsInstall() {
			return nil, eris.Wrapf(ErrBadTarget, "install destination %q is not under an install root", in.Dest)
		}
		b.g.Installs = append(b.g.Installs, graph.Install{Source: b.resolve(in.Source), Dest: dest})
	}
	for _, name := range d.Default {
		id, ok := b.names[name]
		if !ok {
			return nil, eris.Wrapf(ErrUnknownName, "default %q", name)
		}
		b.g.Defaults = append(b.g.Defaults, id)
	}

	err = b.g.CheckAcyclic()
	if err != nil {
		return nil, err
	}
	return b.g, nil
}

func (b *builder) name(name string, p safestr.Path) error {
	if name == "" {
		return eris.Wrap(ErrBadTarget, "missing name")
	}
	if _, ok := b.names[name]; ok {
		return eris.Wrapf(ErrDuplicateName, "%q", name)
	}
	b.names[name] = b.g.AddFile(p)
	return nil
}

func (b *builder) declare() error {
	for _, t := range b.d.Targets {
		kind, err := parseKind(t.Kind)
		if err != nil {
			return eris.Wrapf(err, "target %q", t.Name)
		}
		err = b.name(t.Name, safestr.NewPath(outputName(t.Name, kind, b.tc), safestr.BuildRoot))
		if err != nil {
			return err
		}
		b.kinds[t.Name] = kind
	}
	for _, c := range b.d.Commands {
		if len(c.Outputs) == 0 {
			return eris.Wrap(ErrBadTarget, "command without outputs")
		}
		for _, out := range c.Outputs {
			err := b.name(out, parsePath(out, safestr.BuildRoot))
			if err != nil {
				return err
			}
		}
	}
	for _, a := range b.d.Aliases {
		err := b.name(a.Name, safestr.NewPath(a.Name, safestr.BuildRoot))
		if err != nil {
			return err
		}
	}
	return nil
}

// resolve returns the node of a declared name, or else of a path.
func (b *builder) resolve(name string) graph.NodeID {
	if id, ok := b.names[name]; ok {
		return id
	}
	return b.g.AddFile(parsePath(name, safestr.SourceRoot))
}

func (b *builder) resolveAll(names []string) []graph.NodeID {
	ids := make([]graph.NodeID, len(names))
	for i, name := range names {
		ids[i] = b.resolve(name)
	}
	return ids
}

// objectName maps a source path to a path inside a target's object
// directory.
func objectName(src safestr.Path) string {
	name := strings.TrimPrefix(src.Suffix(), "/")
	name = strings.ReplaceAll(name, ":", "_")
	return strings.ReplaceAll(name, "../", "__/")
}

func (b *builder) addTarget(t Target) error {
	kind := b.kinds[t.Name]
	out := b.names[t.Name]
	if len(t.Sources) == 0 {
		return eris.Wrap(ErrBadTarget, "no sources")
	}

	var includes []safestr.Path
	for _, inc := range t.Includes {
		includes = append(includes, parsePath(inc, safestr.SourceRoot))
	}
	objDir := safestr.NewPath(t.Name+".dir", safestr.BuildRoot)

	var objs []graph.NodeID
	for _, src := range t.Sources {
		srcPath := parsePath(src, safestr.SourceRoot)
		lang, err := toolchain.LanguageFor(srcPath)
		if err != nil {
			return err
		}
		obj := b.g.AddFile(objDir.Append(objectName(srcPath) + b.tc.ObjectExt()))
		_, err = b.g.AddEdge(&graph.Compile{
			EdgeBase: graph.EdgeBase{Outputs: []graph.NodeID{obj}},
			Source:   b.g.AddFile(srcPath),
			Language: lang,
			Includes: includes,
			Options:  safestr.Raws(t.Options...),
			Shared:   kind == graph.SharedLibrary,
		})
		if err != nil {
			return err
		}
		objs = append(objs, obj)
	}

	var libs []graph.NodeID
	for _, lib := range t.Libraries {
		if libKind, ok := b.kinds[lib]; ok && libKind == graph.Executable {
			return eris.Wrapf(ErrBadTarget, "cannot link against executable %q", lib)
		}
		libs = append(libs, b.resolve(lib))
	}

	_, err := b.g.AddEdge(&graph.Link{
		EdgeBase:    graph.EdgeBase{Outputs: []graph.NodeID{out}},
		LinkKind:    kind,
		Name:        t.Name,
		Objects:     objs,
		Libraries:   libs,
		LinkOptions: safestr.Raws(t.LinkOptions...),
	})
	if err != nil {
		return err
	}

	if t.Install {
		root := safestr.LibDir
		if kind == graph.Executable {
			root = safestr.BinDir
		}
		base := b.g.Node(out).Path.Base()
		b.g.Installs = append(b.g.Installs, graph.Install{
			Source: out,
			Dest:   safestr.NewPath(base, root),
		})
	}
	return nil
}

func (b *builder) addCommand(c Command) error {
	cmds := make([][]safestr.String, len(c.Commands))
	for i, words := range c.Commands {
		cmds[i] = parseWords(words)
	}
	outputs := make([]graph.NodeID, len(c.Outputs))
	for i, out := range c.Outputs {
		outputs[i] = b.names[out]
	}
	_, err := b.g.AddEdge(&graph.Command{
		EdgeBase: graph.EdgeBase{
			Outputs:     outputs,
			ExtraDeps:   b.resolveAll(c.Inputs),
			Description: c.Description,
		},
		Commands: cmds,
		Env:      envVars(c.Env),
		Console:  c.Console,
		Restat:   c.Restat,
		Phony:    c.Phony,
	})
	return err
}
