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
	"strings"

	"github.com/rotisserie/eris"

	"github.com/google/buildgen/safestr"
)

// The positions in a project file with distinct escaping rules.
const (
	// Property is the value of a property, item or metadata.
	Property safestr.Context = iota

	// Shell is a word of a command run by a build step.
	Shell
)

// propertyEscaper hides the characters MSBuild would otherwise treat as
// property, item or metadata syntax.
var propertyEscaper = strings.NewReplacer(
	"%", "%25",
	"$", "%24",
	"@", "%40",
	"'", "%27",
	";", "%3B",
	"?", "%3F",
	"*", "%2A")

func escape(text string, ctx safestr.Context, quote bool) string {
	switch ctx {
	case Property:
		return propertyEscaper.Replace(text)
	case Shell:
		if quote {
			text = safestr.QuoteWindows(text)
		}
		return propertyEscaper.Replace(text)
	default:
		panic(eris.Errorf("unknown msbuild context %d", int(ctx)))
	}
}
