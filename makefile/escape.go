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

package makefile

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/google/buildgen"
	"github.com/google/buildgen/safestr"
)

// The positions in a Makefile with distinct escaping rules.
const (
	// Target is a rule target.
	Target safestr.Context = iota

	// Dependency is a normal or order-only prerequisite.
	Dependency

	// Function is an argument of a Make function call.
	Function

	// Shell is a word of a recipe or of a variable holding one.
	Shell

	// Clean is text that only needs variable references escaped.
	Clean

	// Include is a file name of an include directive.
	Include
)

var (
	targetEscaper = strings.NewReplacer(
		"$", "$$",
		" ", `\ `,
		"\t", "\\\t",
		"#", `\#`,
		"?", `\?`,
		"*", `\*`,
		"[", `\[`,
		"]", `\]`,
		"~", `\~`,
		":", `\:`,
		"%", `\%`)
	dependencyEscaper = strings.NewReplacer(
		"$", "$$",
		" ", `\ `,
		"\t", "\\\t",
		"#", `\#`,
		"?", `\?`,
		"*", `\*`,
		"[", `\[`,
		"]", `\]`,
		"~", `\~`,
		":", `\:`,
		"%", `\%`,
		"|", `\|`)
	functionEscaper = strings.NewReplacer(
		"$", "$$",
		",", "$(,)")
	dollarEscaper = strings.NewReplacer(
		"$", "$$")
	includeEscaper = strings.NewReplacer(
		"$", "$$",
		" ", `\ `,
		"\t", "\\\t",
		"#", `\#`)
)

// commaVariable is the name of a variable expanding to a comma, which lets
// function arguments contain one.
const commaVariable = ","

// quoteFunction is the name of a function that quotes its argument as one
// shell word.  Recipes shared between targets pass automatic variables
// through it.
const quoteFunction = "_quote"

// quoteDefinition returns the body of quoteFunction for the recipe shell of
// platform.
func quoteDefinition(platform buildgen.Platform) string {
	if platform == buildgen.Windows {
		return `"$1"`
	}
	return `'$(subst ','\'',$1)'`
}

// quoteCall returns a reference that expands to the quoted value of ref.
func quoteCall(ref string) string {
	return "$(call " + quoteFunction + "," + ref + ")"
}

type escaper struct {
	quote func(string) string
}

func (e escaper) escape(text string, ctx safestr.Context, quote bool) string {
	switch ctx {
	case Target:
		return targetEscaper.Replace(text)
	case Dependency:
		return dependencyEscaper.Replace(text)
	case Function:
		if quote {
			text = e.quote(text)
		}
		return functionEscaper.Replace(text)
	case Shell:
		if quote {
			text = e.quote(text)
		}
		return dollarEscaper.Replace(text)
	case Clean:
		return dollarEscaper.Replace(text)
	case Include:
		return includeEscaper.Replace(text)
	default:
		panic(eris.Errorf("unknown make context %d", int(ctx)))
	}
}

// validVariableName returns an error if name cannot be assigned to.
func validVariableName(name string) error {
	if name == "" {
		return eris.New("empty variable name")
	}
	if strings.ContainsAny(name, " \t\n:#=$") {
		return eris.Errorf("invalid variable name %q", name)
	}
	return nil
}
