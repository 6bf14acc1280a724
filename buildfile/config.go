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

package buildfile

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"mvdan.cc/sh/v3/shell"

	"github.com/google/buildgen"
	"github.com/google/buildgen/safestr"
	"github.com/google/buildgen/toolchain"
)

var ErrBadConfig = eris.New("invalid configuration")

// DotEnvName is the optional file of environment overrides in the source
// directory.
const DotEnvName = ".env"

// Config selects the backend and toolchain.  It is read from the config
// section of a build description and then overridden from the environment.
type Config struct {
	Backend   string `yaml:"backend"`
	Toolchain string `yaml:"toolchain"`
	Platform  string `yaml:"platform"`

	// Commands of the tools.  For MSVC, CC is the compiler for both
	// languages and AR the librarian.
	CC   []string `yaml:"cc"`
	CXX  []string `yaml:"cxx"`
	AR   []string `yaml:"ar"`
	Link []string `yaml:"link"`

	Prefix      string            `yaml:"prefix"`
	InstallDirs map[string]string `yaml:"install_dirs"`

	// CompileCommands writes compile_commands.json next to the build files.
	CompileCommands *bool `yaml:"compile_commands"`
}

// ApplyEnv overrides c from environment variables.  Variables may also be set
// in a .env file in sourceDir; the process environment takes precedence.
// It returns the path of the .env file if one was read.
func (c *Config) ApplyEnv(sourceDir string) (string, error) {
	dotEnvPath := filepath.Join(sourceDir, DotEnvName)
	dotEnv, err := godotenv.Read(dotEnvPath)
	if os.IsNotExist(err) {
		dotEnvPath = ""
	} else if err != nil {
		return "", eris.Wrapf(err, "failed to read %s", dotEnvPath)
	}

	// Empty values count as unset.
	lookup := func(key string) string {
		if value := os.Getenv(key); value != "" {
			return value
		}
		return dotEnv[key]
	}

	for key, field := range map[string]*string{
		"BUILDGEN_BACKEND":   &c.Backend,
		"BUILDGEN_TOOLCHAIN": &c.Toolchain,
		"BUILDGEN_PLATFORM":  &c.Platform,
		"PREFIX":             &c.Prefix,
	} {
		if value := lookup(key); value != "" {
			*field = value
		}
	}

	for key, field := range map[string]*[]string{
		"CC":   &c.CC,
		"CXX":  &c.CXX,
		"AR":   &c.AR,
		"LINK": &c.Link,
	} {
		value := lookup(key)
		if value == "" {
			continue
		}
		words, err := shell.Fields(value, nil)
		if err != nil {
			return "", eris.Wrapf(err, "failed to parse $%s", key)
		}
		*field = words
	}
	return dotEnvPath, nil
}

// SetDefaults fills in everything left unset for the host system.
func (c *Config) SetDefaults() {
	if c.Platform == "" {
		c.Platform = string(buildgen.Posix)
		if runtime.GOOS == "windows" {
			c.Platform = string(buildgen.Windows)
		}
	}
	if c.Toolchain == "" {
		c.Toolchain = "gcc"
		if c.Platform == string(buildgen.Windows) {
			c.Toolchain = "msvc"
		}
	}
	if c.Backend == "" {
		c.Backend = "ninja"
	}
	if c.Prefix == "" {
		c.Prefix = "/usr/local"
		if c.Platform == string(buildgen.Windows) {
			c.Prefix = "C:/Program Files"
		}
	}
	if c.CompileCommands == nil {
		enabled := c.Backend != "msbuild"
		c.CompileCommands = &enabled
	}
}

// PlatformValue returns the configured platform.
func (c *Config) PlatformValue() (buildgen.Platform, error) {
	switch p := buildgen.Platform(c.Platform); p {
	case buildgen.Posix, buildgen.Windows:
		return p, nil
	default:
		return "", eris.Wrapf(ErrBadConfig, "unknown platform %q", c.Platform)
	}
}

// NewToolchain returns the configured toolchain.
func (c *Config) NewToolchain() (toolchain.Toolchain, error) {
	switch c.Toolchain {
	case "gcc":
		return toolchain.NewGCC(c.CC, c.CXX, c.AR), nil
	case "msvc":
		return toolchain.NewMSVC(c.CC, c.Link, c.AR), nil
	default:
		return nil, eris.Wrapf(ErrBadConfig, "unknown toolchain %q", c.Toolchain)
	}
}

// InstallPaths returns the directory of every install root.  Roots not set
// explicitly are derived from the prefix the usual way.
func (c *Config) InstallPaths() (map[safestr.Root]string, error) {
	prefix := strings.TrimSuffix(filepath.ToSlash(c.Prefix), "/")
	dirs := map[safestr.Root]string{
		safestr.Prefix:     prefix,
		safestr.ExecPrefix: prefix,
		safestr.BinDir:     prefix + "/bin",
		safestr.LibDir:     prefix + "/lib",
		safestr.IncludeDir: prefix + "/include",
		safestr.DataDir:    prefix + "/share",
		safestr.ManDir:     prefix + "/share/man",
	}
	for name, dir := range c.InstallDirs {
		root := safestr.Root(name)
		if !root.IsInstall() {
			return nil, eris.Wrapf(ErrBadConfig, "unknown install directory %q", name)
		}
		dirs[root] = filepath.ToSlash(dir)
	}
	return dirs, nil
}
