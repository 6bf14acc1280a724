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
	"fmt"
	"strings"
)

// A Context identifies a position in a build file that has its own escaping
// rules, e.g. a rule target or a shell word.  Each backend defines its own
// finite set of contexts.
type Context int

// An EscapeFunc escapes text for ctx.  When quote is false the text is already
// shell-safe and must only be escaped for the build syntax itself.
type EscapeFunc func(text string, ctx Context, quote bool) string

// A Renderer turns Strings into the text of one build syntax.
type Renderer struct {
	Escape EscapeFunc
	Roots  RootMap
}

// Render renders s for ctx.
func (r *Renderer) Render(s String, ctx Context) string {
	sb := &strings.Builder{}
	r.render(sb, s, ctx)
	return sb.String()
}

// RenderList renders each element of list for ctx.
func (r *Renderer) RenderList(list []String, ctx Context) []string {
	result := make([]string, len(list))
	for i, s := range list {
		result[i] = r.Render(s, ctx)
	}
	return result
}

func (r *Renderer) render(sb *strings.Builder, s String, ctx Context) {
	switch s := s.(type) {
	case Raw:
		sb.WriteString(r.Escape(string(s), ctx, true))
	case Literal:
		sb.WriteString(string(s))
	case ShellLiteral:
		sb.WriteString(r.Escape(string(s), ctx, false))
	case Jbos:
		for _, part := range s {
			r.render(sb, part, ctx)
		}
	case Path:
		r.render(sb, Realize(s, r.Roots, false), ctx)
	default:
		panic(unknownVariant(s))
	}
}

func unknownVariant(s String) string {
	return fmt.Sprintf("unknown safe string variant %T", s)
}
