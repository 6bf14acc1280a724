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

package safestr

import (
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// QuoteShell quotes s so that a POSIX shell reads it back as a single word.
// Strings that need no quoting are returned unchanged.
func QuoteShell(s string) string {
	quoted, err := syntax.Quote(s, syntax.LangPOSIX)
	if err != nil {
		// The POSIX printer refuses non-printable bytes; single quotes still
		// preserve them.
		return `'` + singleQuoteReplacer.Replace(s) + `'`
	}
	return quoted
}

// QuoteShellList quotes each element of list with QuoteShell.
func QuoteShellList(list []string) []string {
	result := make([]string, len(list))
	for i, s := range list {
		result[i] = QuoteShell(s)
	}
	return result
}

var singleQuoteReplacer = strings.NewReplacer(`'`, `'\''`)

func windowsUnsafeChar(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\v', '"':
		return true
	default:
		return false
	}
}

// QuoteWindows quotes s following the rules of CommandLineToArgvW, so that a
// Windows program reads it back as a single argument.
func QuoteWindows(s string) string {
	if s == "" {
		return `""`
	}
	if strings.IndexFunc(s, windowsUnsafeChar) == -1 {
		return s
	}

	sb := &strings.Builder{}
	sb.WriteByte('"')
	slashes := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\\':
			slashes++
		case '"':
			// Backslashes before a quote are doubled, plus one for the quote.
			sb.WriteString(strings.Repeat(`\`, slashes+1))
			slashes = 0
		default:
			slashes = 0
		}
		sb.WriteByte(c)
	}
	// Trailing backslashes would escape the closing quote.
	sb.WriteString(strings.Repeat(`\`, slashes))
	sb.WriteByte('"')
	return sb.String()
}
