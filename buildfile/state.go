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

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/google/buildgen"
)

// StateName is the file in a build directory that remembers how the build
// files were generated.
const StateName = ".buildgen.yaml"

// State is what regenerating a build directory needs to know.
type State struct {
	SourceDir string `yaml:"source_dir"`
	BuildFile string `yaml:"build_file"`
	Backend   string `yaml:"backend"`
}

// LoadState reads the state of buildDir.
func LoadState(buildDir string) (*State, error) {
	filename := filepath.Join(buildDir, StateName)
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to read %s", filename)
	}
	s := &State{}
	err = yaml.Unmarshal(data, s)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to parse %s", filename)
	}
	return s, nil
}

// Save writes s into buildDir.
func (s *State) Save(buildDir string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return eris.Wrap(err, "failed to encode state")
	}
	return buildgen.WriteFileAtomic(filepath.Join(buildDir, StateName), data)
}
