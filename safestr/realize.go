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

import "strings"

// A RootMap tells Realize what each root turns into for one backend and output
// location.
type RootMap struct {
	// Prefixes maps a root to the text it realizes to.  A missing or nil entry
	// means paths under that root are written relative to the output location.
	Prefixes map[Root]String

	// DestDir is prepended to install paths that carry the destdir flag.  It is
	// nil on platforms without a destdir concept.
	DestDir String

	// Separator joins the prefix and the path.  Defaults to "/".
	Separator string
}

func (m RootMap) separator() string {
	if m.Separator == "" {
		return "/"
	}
	return m.Separator
}

// Realize resolves p against roots.  When executable is true and the result
// would be a bare file name, a "./" prefix is added so that a shell does not
// search PATH for it.
func Realize(p Path, roots RootMap, executable bool) String {
	sep := roots.separator()
	suffix := p.suffix
	if sep != "/" {
		suffix = strings.ReplaceAll(suffix, "/", sep)
	}

	if p.root == AbsoluteRoot {
		return Raw(suffix)
	}

	prefix := roots.Prefixes[p.root]
	if prefix == nil {
		switch {
		case suffix == "":
			return Raw(".")
		case executable && !strings.Contains(suffix, sep):
			return Join(Literal("."+sep), Raw(suffix))
		default:
			return Raw(suffix)
		}
	}

	if p.destdir && roots.DestDir != nil {
		prefix = Join(roots.DestDir, prefix)
	}
	if suffix == "" {
		return Join(prefix)
	}
	return Join(prefix, Literal(sep), Raw(suffix))
}
