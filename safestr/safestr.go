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

// Package safestr models command-line fragments symbolically so that escaping
// can be deferred until the target build syntax is known.
//
// A String is one of Raw, Literal, ShellLiteral, Jbos or Path. Composing
// strings never escapes anything; a Renderer escapes each leaf exactly once, for
// exactly one syntax context, when the build file is written.
package safestr

import "strings"

// A String is a symbolic command-line fragment.  The set of implementations is
// closed; see Renderer.Render.
type String interface {
	safeString()
}

// Raw is plain text that still needs escaping for whatever syntax it is
// rendered into.
type Raw string

// Literal is text that is already escaped for every syntax.  It is always
// rendered verbatim.
type Literal string

// ShellLiteral is text that is already escaped for the shell, but still needs
// escaping for the metacharacters of the enclosing build file.
type ShellLiteral string

// Jbos ("just a bunch of strings") is an ordered concatenation of Strings.
type Jbos []String

func (Raw) safeString()          {}
func (Literal) safeString()      {}
func (ShellLiteral) safeString() {}
func (Jbos) safeString()         {}

// Join concatenates parts into a Jbos.  Nested Jbos values are flattened,
// adjacent text fragments of the same kind are merged and empty text
// fragments are dropped.  The order of the parts is preserved.
func Join(parts ...String) Jbos {
	result := make(Jbos, 0, len(parts))
	for _, part := range parts {
		result = appendPart(result, part)
	}
	return result
}

func appendPart(result Jbos, part String) Jbos {
	switch part := part.(type) {
	case nil:
		return result
	case Jbos:
		for _, p := range part {
			result = appendPart(result, p)
		}
		return result
	case Raw:
		if part == "" {
			return result
		}
		if n := len(result); n > 0 {
			if last, ok := result[n-1].(Raw); ok {
				result[n-1] = last + part
				return result
			}
		}
	case Literal:
		if part == "" {
			return result
		}
		if n := len(result); n > 0 {
			if last, ok := result[n-1].(Literal); ok {
				result[n-1] = last + part
				return result
			}
		}
	case ShellLiteral:
		if part == "" {
			return result
		}
		if n := len(result); n > 0 {
			if last, ok := result[n-1].(ShellLiteral); ok {
				result[n-1] = last + part
				return result
			}
		}
	}
	return append(result, part)
}

// JoinWith joins items with sep between each pair.
func JoinWith(items []String, sep String) Jbos {
	parts := make([]String, 0, 2*len(items))
	for i, item := range items {
		if i > 0 {
			parts = append(parts, sep)
		}
		parts = append(parts, item)
	}
	return Join(parts...)
}

// Raws converts a list of plain strings into Raw values.
func Raws(strs ...string) []String {
	result := make([]String, len(strs))
	for i, s := range strs {
		result[i] = Raw(s)
	}
	return result
}

// Text returns the unescaped text of s, realizing paths against roots.  It is
// meant for diagnostics and for formats, like JSON, that do their own quoting.
func Text(s String, roots RootMap) string {
	sb := &strings.Builder{}
	writeText(sb, s, roots)
	return sb.String()
}

func writeText(sb *strings.Builder, s String, roots RootMap) {
	switch s := s.(type) {
	case Raw:
		sb.WriteString(string(s))
	case Literal:
		sb.WriteString(string(s))
	case ShellLiteral:
		sb.WriteString(string(s))
	case Jbos:
		for _, part := range s {
			writeText(sb, part, roots)
		}
	case Path:
		writeText(sb, Realize(s, roots, false), roots)
	default:
		panic(unknownVariant(s))
	}
}
