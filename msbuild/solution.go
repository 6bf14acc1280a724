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
	"fmt"
	"io"
)

// cppProjectType identifies Visual C++ projects in a solution.
const cppProjectType = "{8BC9CEB8-8B4A-11D0-8D11-00A0C91BC942}"

type solutionProject struct {
	name string
	path string // relative to the solution, with backslashes
	guid string
	deps []string // GUIDs of projects that must build first
}

// A solution is a .sln document listing every project.
type solution struct {
	guid     string
	platform string
	projects []*solutionProject
}

type slnWriter struct {
	w   io.Writer
	err error
}

func (sw *slnWriter) printf(format string, args ...interface{}) {
	if sw.err == nil {
		_, sw.err = fmt.Fprintf(sw.w, format, args...)
	}
}

func (s *solution) WriteTo(w io.Writer) error {
	sw := &slnWriter{w: w}
	config := configuration + "|" + s.platform

	// Visual Studio checks for the byte order mark.
	sw.printf("\ufeff\n")
	sw.printf("Microsoft Visual Studio Solution File, Format Version 12.00\n")
	sw.printf("# Visual Studio 14\n")
	sw.printf("VisualStudioVersion = 14.0.25420.1\n")
	sw.printf("MinimumVisualStudioVersion = 10.0.40219.1\n")

	for _, p := range s.projects {
		sw.printf("Project(\"%s\") = \"%s\", \"%s\", \"%s\"\n", cppProjectType, p.name, p.path, p.guid)
		if len(p.deps) > 0 {
			sw.printf("\tProjectSection(ProjectDependencies) = postProject\n")
			for _, dep := range p.deps {
				sw.printf("\t\t%s = %s\n", dep, dep)
			}
			sw.printf("\tEndProjectSection\n")
		}
		sw.printf("EndProject\n")
	}

	sw.printf("Global\n")
	sw.printf("\tGlobalSection(SolutionConfigurationPlatforms) = preSolution\n")
	sw.printf("\t\t%s = %s\n", config, config)
	sw.printf("\tEndGlobalSection\n")
	sw.printf("\tGlobalSection(ProjectConfigurationPlatforms) = postSolution\n")
	for _, p := range s.projects {
		sw.printf("\t\t%s.%s.ActiveCfg = %s\n", p.guid, config, config)
		sw.printf("\t\t%s.%s.Build.0 = %s\n", p.guid, config, config)
	}
	sw.printf("\tEndGlobalSection\n")
	sw.printf("\tGlobalSection(SolutionProperties) = preSolution\n")
	sw.printf("\t\tHideSolutionNode = FALSE\n")
	sw.printf("\tEndGlobalSection\n")
	sw.printf("\tGlobalSection(ExtensibilityGlobals) = postSolution\n")
	sw.printf("\t\tSolutionGuid = %s\n", s.guid)
	sw.printf("\tEndGlobalSection\n")
	sw.printf("EndGlobal\n")

	return sw.err
}
