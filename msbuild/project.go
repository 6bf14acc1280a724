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
	"encoding/xml"
	"strings"

	"github.com/rotisserie/eris"
)

const (
	msbuildNamespace = "http://schemas.microsoft.com/developer/msbuild/2003"
	toolsVersion     = "14.0"
	platformToolset  = "v140"
	configuration    = "Debug"
)

// A property is a single element with text content, used both for
// properties and for item metadata.
type property struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

func prop(name, value string) property {
	return property{XMLName: xml.Name{Local: name}, Value: value}
}

type propertyGroup struct {
	XMLName    xml.Name `xml:"PropertyGroup"`
	Label      string   `xml:"Label,attr,omitempty"`
	Properties []property
}

type importProject struct {
	XMLName xml.Name `xml:"Import"`
	Project string   `xml:"Project,attr"`
}

type item struct {
	XMLName  xml.Name
	Include  string `xml:"Include,attr"`
	Metadata []property
}

type itemGroup struct {
	XMLName xml.Name `xml:"ItemGroup"`
	Label   string   `xml:"Label,attr,omitempty"`
	Items   []item
}

// A tool is the default metadata of one item type, like ClCompile or Link.
type tool struct {
	XMLName    xml.Name
	Properties []property
}

type itemDefinitionGroup struct {
	XMLName xml.Name `xml:"ItemDefinitionGroup"`
	Tools   []tool
}

// A project is a .vcxproj document.  Elements are written in the order they
// were added.
type project struct {
	XMLName        xml.Name `xml:"Project"`
	DefaultTargets string   `xml:"DefaultTargets,attr"`
	ToolsVersion   string   `xml:"ToolsVersion,attr"`
	Xmlns          string   `xml:"xmlns,attr"`
	Elements       []interface{}
}

func newProject(guid, name, platform, configType string) *project {
	config := configuration + "|" + platform
	p := &project{
		DefaultTargets: "Build",
		ToolsVersion:   toolsVersion,
		Xmlns:          msbuildNamespace,
	}
	p.add(itemGroup{
		Label: "ProjectConfigurations",
		Items: []item{{
			XMLName: xml.Name{Local: "ProjectConfiguration"},
			Include: config,
			Metadata: []property{
				prop("Configuration", configuration),
				prop("Platform", platform),
			},
		}},
	})
	p.add(propertyGroup{
		Label: "Globals",
		Properties: []property{
			prop("ProjectGuid", guid),
			prop("RootNamespace", name),
		},
	})
	p.add(importProject{Project: `$(VCTargetsPath)\Microsoft.Cpp.Default.props`})
	p.add(propertyGroup{
		Label: "Configuration",
		Properties: []property{
			prop("ConfigurationType", configType),
			prop("UseDebugLibraries", "true"),
			prop("PlatformToolset", platformToolset),
			prop("CharacterSet", "MultiByte"),
		},
	})
	p.add(importProject{Project: `$(VCTargetsPath)\Microsoft.Cpp.props`})
	return p
}

func (p *project) add(elem interface{}) {
	p.Elements = append(p.Elements, elem)
}

// marshal finishes the project and returns its XML text.
func (p *project) marshal() ([]byte, error) {
	p.add(importProject{Project: `$(VCTargetsPath)\Microsoft.Cpp.targets`})

	data, err := xml.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, eris.Wrap(err, "failed to encode project")
	}
	sb := &strings.Builder{}
	sb.WriteString(`<?xml version="1.0" encoding="utf-8"?>` + "\n")
	sb.Write(data)
	sb.WriteString("\n")
	return []byte(sb.String()), nil
}

// list joins rendered values into an MSBuild list, keeping the values
// inherited from imported defaults.
func list(values []string, inherit string) string {
	if len(values) == 0 {
		return ""
	}
	return strings.Join(append(values, "%("+inherit+")"), ";")
}
