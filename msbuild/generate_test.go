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

package msbuild

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/buildgen"
	"github.com/google/buildgen/graph"
	"github.com/google/buildgen/graph/graphtest"
	"github.com/google/buildgen/safestr"
	"github.com/google/buildgen/toolchain"
)

func testEnv() *buildgen.Env {
	return &buildgen.Env{
		SourceDir:   "/src",
		BuildDir:    "/src/build",
		Platform:    buildgen.Windows,
		Toolchain:   toolchain.NewMSVC(nil, nil, nil),
		ProjectName: "hello",
	}
}

func generate(t *testing.T, g *graph.Graph, uuids *UUIDMap) map[string]string {
	t.Helper()
	outputs, err := Generate(context.Background(), testEnv(), g, uuids, DefaultPlatform)
	require.NoError(t, err)
	require.NotEmpty(t, outputs)
	assert.Equal(t, "hello.sln", outputs[0].Name)

	result := make(map[string]string, len(outputs))
	for _, out := range outputs {
		result[out.Name] = string(out.Data)
	}
	return result
}

// link adds a link edge named name whose output is out.
func link(t *testing.T, b *graphtest.Builder, kind graph.LinkKind, name, out string,
	objs, libs []graph.NodeID) *graph.Link {

	t.Helper()
	e := &graph.Link{
		EdgeBase:  graph.EdgeBase{Outputs: []graph.NodeID{b.G.AddFile(graphtest.Build(out))}},
		LinkKind:  kind,
		Name:      name,
		Objects:   objs,
		Libraries: libs,
	}
	_, err := b.G.AddEdge(e)
	require.NoError(t, err)
	return e
}

func TestGenerateHelloWorld(t *testing.T) {
	b := graphtest.HelloWorld(t)
	uuids := NewUUIDMap("")

	outputs := generate(t, b.G, uuids)
	require.Len(t, outputs, 2)
	guid := formatUUID(uuids.Get("app"))

	sln := outputs["hello.sln"]
	assert.True(t, strings.HasPrefix(sln, "\ufeff\nMicrosoft Visual Studio Solution File"))
	assert.Contains(t, sln, `Project("{8BC9CEB8-8B4A-11D0-8D11-00A0C91BC942}") = "app", "app.vcxproj", "`+
		guid+"\"\nEndProject\n")
	assert.Contains(t, sln, "\t\t"+guid+".Debug|x64.ActiveCfg = Debug|x64\n")
	assert.Contains(t, sln, "\t\tSolutionGuid = "+formatUUID(uuids.Get("hello.sln"))+"\n")

	proj := outputs["app.vcxproj"]
	assert.True(t, strings.HasPrefix(proj, `<?xml version="1.0" encoding="utf-8"?>`+"\n<Project "))
	assert.Contains(t, proj, "<ProjectGuid>"+guid+"</ProjectGuid>")
	assert.Contains(t, proj, "<ConfigurationType>Application</ConfigurationType>")
	assert.Contains(t, proj, "<OutDir>$(SolutionDir)</OutDir>")
	assert.Contains(t, proj, "<IntDir>$(SolutionDir)</IntDir>")
	assert.Contains(t, proj, "<TargetName>app</TargetName>")
	assert.Contains(t, proj, "    <ClCompile>\n"+
		"      <WarningLevel>Level3</WarningLevel>\n"+
		"      <PrecompiledHeader>NotUsing</PrecompiledHeader>\n"+
		"    </ClCompile>\n"+
		"    <Link></Link>\n")
	assert.Contains(t, proj, "    <ClCompile Include=\"..\\main.c\">\n"+
		"      <ObjectFileName>$(IntDir)main.o</ObjectFileName>\n"+
		"    </ClCompile>\n"+
		"    <ClCompile Include=\"..\\util.c\">\n"+
		"      <ObjectFileName>$(IntDir)util.o</ObjectFileName>\n"+
		"    </ClCompile>\n")
	assert.True(t, strings.HasSuffix(proj,
		"  <Import Project=\"$(VCTargetsPath)\\Microsoft.Cpp.targets\"></Import>\n</Project>\n"))
}

func TestGenerateOutputLocations(t *testing.T) {
	b := graphtest.New(t)
	obj := b.Compile("src/main.c", "obj/main.obj", nil)
	link(t, b, graph.Executable, "", "bin/app.exe", []graph.NodeID{obj}, nil)

	proj := generate(t, b.G, NewUUIDMap(""))["app.vcxproj"]
	assert.Contains(t, proj, `<OutDir>bin\</OutDir>`)
	assert.Contains(t, proj, `<IntDir>obj\</IntDir>`)
	assert.Contains(t, proj, "<TargetName>app</TargetName>")
	assert.Contains(t, proj, "<TargetExt>.exe</TargetExt>")
	assert.Contains(t, proj, `<ClCompile Include="..\src\main.c">`)
	assert.Contains(t, proj, "<ObjectFileName>$(IntDir)main.obj</ObjectFileName>")
}

func TestGenerateObjectsInSubdirectories(t *testing.T) {
	b := graphtest.New(t)
	objs := []graph.NodeID{
		b.Compile("a/util.c", "app.dir/a/util.obj", nil),
		b.Compile("b/util.c", "app.dir/b/util.obj", nil),
		b.Compile("main.c", "app.dir/main.obj", nil),
	}
	link(t, b, graph.Executable, "app", "app.exe", objs, nil)

	proj := generate(t, b.G, NewUUIDMap(""))["app.vcxproj"]
	assert.Contains(t, proj, `<IntDir>app.dir\</IntDir>`)
	assert.Contains(t, proj, `<ClCompile Include="..\a\util.c">`+"\n"+
		`      <ObjectFileName>$(IntDir)a\util.obj</ObjectFileName>`)
	assert.Contains(t, proj, `<ClCompile Include="..\b\util.c">`+"\n"+
		`      <ObjectFileName>$(IntDir)b\util.obj</ObjectFileName>`)
	assert.Contains(t, proj, `<ObjectFileName>$(IntDir)main.obj</ObjectFileName>`)
}

func TestGenerateObjectsInSiblingDirectories(t *testing.T) {
	b := graphtest.New(t)
	objs := []graph.NodeID{
		b.Compile("a.c", "x/a.obj", nil),
		b.Compile("b.c", "y/z/b.obj", nil),
	}
	link(t, b, graph.Executable, "app", "app.exe", objs, nil)

	proj := generate(t, b.G, NewUUIDMap(""))["app.vcxproj"]
	assert.Contains(t, proj, `<IntDir>$(SolutionDir)</IntDir>`)
	assert.Contains(t, proj, `<ObjectFileName>$(IntDir)x\a.obj</ObjectFileName>`)
	assert.Contains(t, proj, `<ObjectFileName>$(IntDir)y\z\b.obj</ObjectFileName>`)
}

func TestGenerateCompileSettings(t *testing.T) {
	b := graphtest.New(t)
	obj := b.Compile("main.cpp", "main.obj", func(c *graph.Compile) {
		c.Includes = []safestr.Path{graphtest.Src("include")}
		c.Options = safestr.Raws("/W4", "/DNDEBUG", "/Yustdafx.h", "/EHsc")
	})
	e := link(t, b, graph.Executable, "app", "app.exe", []graph.NodeID{obj}, nil)
	e.CompileOptions = safestr.Raws("/DUNICODE", "/EHsc")
	e.LinkOptions = safestr.Raws("/DEBUG")

	proj := generate(t, b.G, NewUUIDMap(""))["app.vcxproj"]
	assert.Contains(t, proj, "    <ClCompile>\n"+
		"      <WarningLevel>Level4</WarningLevel>\n"+
		"      <PreprocessorDefinitions>NDEBUG;UNICODE;%(PreprocessorDefinitions)</PreprocessorDefinitions>\n"+
		"      <AdditionalIncludeDirectories>..\\include;%(AdditionalIncludeDirectories)</AdditionalIncludeDirectories>\n"+
		"      <PrecompiledHeader>Use</PrecompiledHeader>\n"+
		"      <PrecompiledHeaderFile>stdafx.h</PrecompiledHeaderFile>\n"+
		"      <AdditionalOptions>/EHsc %(AdditionalOptions)</AdditionalOptions>\n"+
		"    </ClCompile>\n"+
		"    <Link>\n"+
		"      <AdditionalOptions>/DEBUG %(AdditionalOptions)</AdditionalOptions>\n"+
		"    </Link>\n")
}

func TestGenerateLibraries(t *testing.T) {
	b := graphtest.New(t)
	mainObj := b.Compile("main.c", "main.obj", nil)
	utilLib := b.G.AddFile(graphtest.Build("util.lib"))
	zlib := b.Source("lib/z.lib")
	// The library is consumed before its producer is added.
	link(t, b, graph.Executable, "app", "app.exe", []graph.NodeID{mainObj},
		[]graph.NodeID{utilLib, zlib})
	utilObj := b.Compile("util.c", "util.obj", nil)
	_, err := b.G.AddEdge(&graph.Link{
		EdgeBase: graph.EdgeBase{Outputs: []graph.NodeID{utilLib}},
		LinkKind: graph.StaticLibrary,
		Name:     "util",
		Objects:  []graph.NodeID{utilObj},
	})
	require.NoError(t, err)

	uuids := NewUUIDMap("")
	outputs := generate(t, b.G, uuids)
	require.Len(t, outputs, 3)
	utilGUID := formatUUID(uuids.Get("util"))

	app := outputs["app.vcxproj"]
	assert.Contains(t, app, "    <Link>\n"+
		"      <AdditionalDependencies>z.lib;%(AdditionalDependencies)</AdditionalDependencies>\n"+
		"      <AdditionalOptions>/LIBPATH:..\\lib %(AdditionalOptions)</AdditionalOptions>\n"+
		"    </Link>\n")
	assert.Contains(t, app, "    <ProjectReference Include=\"util.vcxproj\">\n"+
		"      <Project>"+utilGUID+"</Project>\n"+
		"    </ProjectReference>\n")

	util := outputs["util.vcxproj"]
	assert.Contains(t, util, "<ConfigurationType>StaticLibrary</ConfigurationType>")
	assert.Contains(t, util, "    <Lib></Lib>\n")
	assert.Contains(t, util, "<TargetExt>.lib</TargetExt>")

	assert.Contains(t, outputs["hello.sln"], "\"app.vcxproj\", \""+formatUUID(uuids.Get("app"))+"\"\n"+
		"\tProjectSection(ProjectDependencies) = postProject\n"+
		"\t\t"+utilGUID+" = "+utilGUID+"\n"+
		"\tEndProjectSection\n"+
		"EndProject\n")
}

func TestGenerateBadLibrary(t *testing.T) {
	b := graphtest.New(t)
	obj := b.Compile("main.c", "main.obj", nil)
	link(t, b, graph.Executable, "app", "app.exe", []graph.NodeID{obj},
		[]graph.NodeID{b.Source("libz.a")})

	_, err := Generate(context.Background(), testEnv(), b.G, NewUUIDMap(""), DefaultPlatform)
	assert.True(t, eris.Is(err, toolchain.ErrBadLibrary), "got %v", err)
}

func TestGenerateUnresolvedDependency(t *testing.T) {
	b := graphtest.New(t)
	obj := b.Compile("main.c", "main.obj", nil)
	stray := b.Compile("stray.c", "stray.obj", nil)
	link(t, b, graph.Executable, "app", "app.exe", []graph.NodeID{obj}, []graph.NodeID{stray})

	_, err := Generate(context.Background(), testEnv(), b.G, NewUUIDMap(""), DefaultPlatform)
	assert.True(t, eris.Is(err, ErrUnresolvedDependency), "got %v", err)
}

func TestGenerateDuplicateProject(t *testing.T) {
	b := graphtest.New(t)
	obj := b.Compile("main.c", "main.obj", nil)
	link(t, b, graph.Executable, "", "app.exe", []graph.NodeID{obj}, nil)
	link(t, b, graph.SharedLibrary, "", "app.dll", []graph.NodeID{obj}, nil)

	_, err := Generate(context.Background(), testEnv(), b.G, NewUUIDMap(""), DefaultPlatform)
	assert.True(t, eris.Is(err, ErrDuplicate), "got %v", err)
}

func TestGenerateCommand(t *testing.T) {
	b := graphtest.HelloWorld(t)
	app, ok := b.G.FindNode(graphtest.Build("app"))
	require.True(t, ok)
	b.Command("gen.h", &graph.Command{
		EdgeBase: graph.EdgeBase{
			ExtraDeps:   []graph.NodeID{app},
			Description: "Generating gen.h (100%)",
		},
		Commands: [][]safestr.String{
			{safestr.Raw("python"), graphtest.Src("gen.py"), graphtest.Build("gen.h")},
			{safestr.Raw("echo"), safestr.Raw("done twice")},
		},
		Env: []graph.EnvVar{{Name: "MODE", Value: safestr.Raw("fast")}},
	})

	uuids := NewUUIDMap("")
	outputs := generate(t, b.G, uuids)
	proj := outputs["gen.h.vcxproj"]
	assert.Contains(t, proj, "<ConfigurationType>Utility</ConfigurationType>")
	assert.Contains(t, proj, "    <CustomBuildStep>\n"+
		"      <Command>cmd /c set MODE=fast &amp;&amp; python ..\\gen.py $(OutDir)gen.h&#xA;"+
		"cmd /c set MODE=fast &amp;&amp; echo &#34;done twice&#34;</Command>\n"+
		"      <Message>Generating gen.h (100%25)</Message>\n"+
		"      <Outputs>$(OutDir)gen.h</Outputs>\n"+
		"      <Inputs>app</Inputs>\n"+
		"    </CustomBuildStep>\n")
	assert.Contains(t, proj, "<ProjectReference Include=\"app.vcxproj\">\n"+
		"      <Project>"+formatUUID(uuids.Get("app"))+"</Project>\n")
}

func TestGenerateSkipsAliases(t *testing.T) {
	b := graphtest.HelloWorld(t)
	app, ok := b.G.FindNode(graphtest.Build("app"))
	require.True(t, ok)
	b.Alias("everything", app)

	outputs := generate(t, b.G, NewUUIDMap(""))
	assert.Len(t, outputs, 2)
	assert.NotContains(t, outputs["hello.sln"], "everything")
}

func TestGenerateStableAcrossRuns(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "uuids.json")

	uuids, err := LoadUUIDMap(ctx, path)
	require.NoError(t, err)
	first := generate(t, graphtest.HelloWorld(t).G, uuids)
	require.NoError(t, uuids.Save())

	uuids, err = LoadUUIDMap(ctx, path)
	require.NoError(t, err)
	second := generate(t, graphtest.HelloWorld(t).G, uuids)
	assert.Equal(t, first, second)
}

func TestGenerateRejectsCycles(t *testing.T) {
	b := graphtest.New(t)
	a := b.G.AddFile(graphtest.Build("a"))
	c := b.G.AddFile(graphtest.Build("c"))
	_, err := b.G.AddEdge(&graph.Alias{EdgeBase: graph.EdgeBase{Outputs: []graph.NodeID{a}, ExtraDeps: []graph.NodeID{c}}})
	require.NoError(t, err)
	_, err = b.G.AddEdge(&graph.Alias{EdgeBase: graph.EdgeBase{Outputs: []graph.NodeID{c}, ExtraDeps: []graph.NodeID{a}}})
	require.NoError(t, err)

	_, err = Generate(context.Background(), testEnv(), b.G, NewUUIDMap(""), DefaultPlatform)
	assert.True(t, eris.Is(err, graph.ErrCycle), "got %v", err)
}

func TestBackendWrite(t *testing.T) {
	dir := t.TempDir()
	env := testEnv()
	env.SourceDir = dir
	env.BuildDir = filepath.Join(dir, "build")

	backend := New(NewUUIDMap(filepath.Join(env.BuildDir, "uuids.json")))
	assert.Equal(t, "msbuild", backend.Name())
	require.NoError(t, backend.Write(context.Background(), env, graphtest.HelloWorld(t).G))

	for _, name := range []string{"hello.sln", "app.vcxproj"} {
		_, err := os.Stat(filepath.Join(env.BuildDir, name))
		assert.NoError(t, err, name)
	}
}

func TestBackendWriteLeavesNothingOnError(t *testing.T) {
	dir := t.TempDir()
	env := testEnv()
	env.BuildDir = dir

	b := graphtest.New(t)
	obj := b.Compile("main.c", "main.obj", nil)
	link(t, b, graph.Executable, "app", "app.exe", []graph.NodeID{obj},
		[]graph.NodeID{b.Source("bogus")})

	require.Error(t, New(NewUUIDMap("")).Write(context.Background(), env, b.G))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
