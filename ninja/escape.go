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

package ninja

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/google/buildgen/safestr"
)

// The positions in a Ninja file with distinct escaping rules.
const (
	// Output is a build statement output.
	Output safestr.Context = iota

	// Input is a build statement input, implicit or order-only dependency.
	Input

	// Variable is the value of a variable binding.
	Variable

	// Shell is a word of a command that Ninja hands to the shell.
	Shell
)

var (
	variableEscaper = strings.NewReplacer(
		"$", "$$",
		"\n", "$\n")
	inputEscaper = strings.NewReplacer(
		"$", "$$",
		"\n", "$\n",
		" ", "$ ")
	outputEscaper = strings.NewReplacer(
		"$", "$$",
		"\n", "$\n",
		" ", "$ ",
		":", "$:")
	shellEscaper = strings.NewReplacer(
		"$", "$$",
		"\n", "$\n")
)

type escaper struct {
	quote func(string) string
}

func (e escaper) escape(text string, ctx safestr.Context, quote bool) string {
	switch ctx {
	case Output:
		return outputEscaper.Replace(text)
	case Input:
		return inputEscaper.Replace(text)
	case Variable:
		return escapeVariable(text)
	case Shell:
		if quote {
			text = e.quote(text)
		}
		return shellEscaper.Replace(text)
	default:
		panic(eris.Errorf("unknown ninja context %d", int(ctx)))
	}
}

// escapeVariable escapes a variable value.  Ninja strips leading whitespace
// from values, so a leading space is escaped too.
func escapeVariable(text string) string {
	text = variableEscaper.Replace(text)
	if strings.HasPrefix(text, " ") {
		text = "$" + text
	}
	return text
}

func validateNinjaName(name string) error {
	if name == "" {
		return eris.New("empty Ninja name")
	}
	for i, r := range name {
		valid := (r >= 'a' && r <= 'z') ||
			(r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') ||
			(r == '_') ||
			(r == '-') ||
			(r == '.')
		if !valid {
			return eris.Errorf("%q contains an invalid Ninja name character "+
				"%q at byte offset %d", name, r, i)
		}
	}
	return nil
}
