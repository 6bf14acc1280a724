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

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/buildgen/buildfile"
	"github.com/google/buildgen/compdb"
	"github.com/google/buildgen/makefile"
	"github.com/google/buildgen/ninja"
)

const description = `
project: hello
targets:
  - name: app
    kind: executable
    sources: [main.c]
`

// run executes buildgen with args and returns what it logged.
func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func setup(t *testing.T) (string, string) {
	t.Helper()
	for _, key := range []string{"CC", "CXX", "AR", "LINK", "PREFIX",
		"BUILDGEN_BACKEND", "BUILDGEN_TOOLCHAIN", "BUILDGEN_PLATFORM"} {
		t.Setenv(key, "")
	}
	t.Setenv("BUILDGEN_PLATFORM", "posix")

	srcDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, buildfile.DefaultName), []byte(description), 0666))
	return srcDir, filepath.Join(srcDir, "build")
}

func TestGenerateNinja(t *testing.T) {
	srcDir, buildDir := setup(t)

	_, logged, err := run(t, "", "generate", "--source", srcDir, buildDir)
	require.NoError(t, err)
	assert.Contains(t, logged, "Generated ninja files")

	manifest, err := os.ReadFile(filepath.Join(buildDir, ninja.ManifestName))
	require.NoError(t, err)
	assert.Contains(t, string(manifest), "build app.dir/main.c.o: cc ../main.c\n")

	entries, err := compdb.Read(filepath.Join(buildDir, compdb.FileName))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, filepath.ToSlash(filepath.Join(srcDir, "main.c")), entries[0].File)

	state, err := buildfile.LoadState(buildDir)
	require.NoError(t, err)
	assert.Equal(t, &buildfile.State{
		SourceDir: srcDir,
		BuildFile: filepath.Join(srcDir, buildfile.DefaultName),
		Backend:   "ninja",
	}, state)
}

func TestRegenerateKeepsBackend(t *testing.T) {
	srcDir, buildDir := setup(t)

	_, _, err := run(t, "", "generate", "--source", srcDir, "--backend", "make", buildDir)
	require.NoError(t, err)
	makefilePath := filepath.Join(buildDir, makefile.MakefileName)
	require.NoError(t, os.Remove(makefilePath))

	_, _, err = run(t, "", "regenerate", buildDir)
	require.NoError(t, err)
	_, err = os.Stat(makefilePath)
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(buildDir, ninja.ManifestName))
	assert.True(t, os.IsNotExist(err))
}

func TestGenerateMSBuild(t *testing.T) {
	srcDir, buildDir := setup(t)
	t.Setenv("BUILDGEN_PLATFORM", "windows")

	_, _, err := run(t, "", "generate", "--source", srcDir, "--backend", "msbuild", buildDir)
	require.NoError(t, err)
	for _, name := range []string{"hello.sln", "app.vcxproj", UUIDMapName} {
		_, err := os.Stat(filepath.Join(buildDir, name))
		assert.NoError(t, err, name)
	}
	_, err = os.Stat(filepath.Join(buildDir, compdb.FileName))
	assert.True(t, os.IsNotExist(err))

	first, err := os.ReadFile(filepath.Join(buildDir, "hello.sln"))
	require.NoError(t, err)
	_, _, err = run(t, "", "regenerate", buildDir)
	require.NoError(t, err)
	second, err := os.ReadFile(filepath.Join(buildDir, "hello.sln"))
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestGenerateUnknownBackend(t *testing.T) {
	srcDir, buildDir := setup(t)
	_, _, err := run(t, "", "generate", "--source", srcDir, "--backend", "scons", buildDir)
	assert.True(t, eris.Is(err, ErrUnknownBackend), "got %v", err)
}

func TestGenerateMissingDescription(t *testing.T) {
	dir := t.TempDir()
	_, _, err := run(t, "", "generate", "--source", dir, filepath.Join(dir, "build"))
	assert.Error(t, err)
}

func TestDepfixer(t *testing.T) {
	out, _, err := run(t, "foo.o: foo.c foo.h\n", "depfixer")
	require.NoError(t, err)
	assert.Equal(t, "foo.c:\nfoo.h:\n", out)
}

func TestCompdbMerge(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.json")
	second := filepath.Join(dir, "b.json")
	output := filepath.Join(dir, compdb.FileName)
	require.NoError(t, compdb.Write(first, []compdb.Entry{{Directory: "/a", File: "a.c", Command: "cc -c a.c"}}))
	require.NoError(t, compdb.Write(second, []compdb.Entry{{Directory: "/b", File: "b.c", Command: "cc -c b.c"}}))

	_, _, err := run(t, "", "compdb", "merge", output, first, second)
	require.NoError(t, err)
	merged, err := compdb.Read(output)
	require.NoError(t, err)
	require.Len(t, merged, 2)
	assert.Equal(t, "a.c", merged[0].File)
	assert.Equal(t, "b.c", merged[1].File)

	_, _, err = run(t, "", "compdb", "merge", output)
	assert.Error(t, err)
}

func TestConsoleWriter(t *testing.T) {
	out := &bytes.Buffer{}
	w := &ConsoleWriter{out: out}

	n, err := w.Write([]byte(`{"level":"error","message":"broke","error":"details"}`))
	require.NoError(t, err)
	assert.Equal(t, 53, n)
	assert.Contains(t, out.String(), "Error: broke\ndetails")
	assert.True(t, strings.HasSuffix(out.String(), "\n"))

	_, err = w.Write([]byte("not json"))
	assert.Error(t, err)
}
