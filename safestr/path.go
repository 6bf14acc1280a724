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
	"path"
	"strings"
)

// A Root names the directory a Path is relative to.
type Root string

const (
	SourceRoot   Root = "srcdir"
	BuildRoot    Root = "builddir"
	AbsoluteRoot Root = "absolute"

	// Install roots.  Where they point is decided by the install layout policy,
	// not by this package.
	Prefix     Root = "prefix"
	ExecPrefix Root = "exec_prefix"
	BinDir     Root = "bindir"
	LibDir     Root = "libdir"
	IncludeDir Root = "includedir"
	DataDir    Root = "datadir"
	ManDir     Root = "mandir"
)

// InstallRoots lists every install root in a fixed order.
var InstallRoots = []Root{Prefix, ExecPrefix, BinDir, LibDir, IncludeDir, DataDir, ManDir}

// IsInstall returns true if r is an install root.
func (r Root) IsInstall() bool {
	for _, ir := range InstallRoots {
		if r == ir {
			return true
		}
	}
	return false
}

// A Path is a symbolic path relative to a Root.  Paths are immutable and are
// compared with ==.
type Path struct {
	root    Root
	destdir bool
	suffix  string
}

func (Path) safeString() {}

// NewPath returns a normalized path.  An absolute p always yields an
// AbsoluteRoot path.
func NewPath(p string, root Root) Path {
	p = strings.ReplaceAll(p, `\`, "/")
	if isAbs(p) {
		root = AbsoluteRoot
	} else if root == AbsoluteRoot {
		panic(fmt.Sprintf("absolute root requires an absolute path, got %q", p))
	}
	return Path{root: root, suffix: normalize(p)}
}

// isAbs recognizes both POSIX and Windows absolute paths.
func isAbs(p string) bool {
	if strings.HasPrefix(p, "/") {
		return true
	}
	return len(p) >= 3 && p[1] == ':' && p[2] == '/' &&
		(('a' <= p[0] && p[0] <= 'z') || ('A' <= p[0] && p[0] <= 'Z'))
}

func normalize(p string) string {
	if p == "" {
		return ""
	}
	clean := path.Clean(p)
	if clean == "." {
		return ""
	}
	return clean
}

// Root returns the root of p.
func (p Path) Root() Root { return p.root }

// Suffix returns the normalized, slash-separated path relative to the root.
func (p Path) Suffix() string { return p.suffix }

// DestDir reports whether p should be prefixed by the destdir when realized.
func (p Path) DestDir() bool { return p.destdir }

// WithDestDir returns a copy of p with the destdir flag set to destdir.  The
// flag only applies to install roots and is ignored for all others.
func (p Path) WithDestDir(destdir bool) Path {
	p.destdir = destdir && p.root.IsInstall()
	return p
}

// Append returns p joined with the relative path elem.
func (p Path) Append(elem string) Path {
	elem = strings.ReplaceAll(elem, `\`, "/")
	if isAbs(elem) {
		return NewPath(elem, AbsoluteRoot)
	}
	if p.root == AbsoluteRoot {
		p.suffix = path.Clean(p.suffix + "/" + elem)
	} else {
		p.suffix = normalize(path.Join(p.suffix, elem))
	}
	return p
}

// Parent returns the directory containing p.
func (p Path) Parent() Path {
	if p.suffix == "" {
		panic(fmt.Sprintf("%s has no parent", p))
	}
	if p.root == AbsoluteRoot {
		p.suffix = path.Dir(p.suffix)
	} else {
		p.suffix = normalize(path.Dir(p.suffix))
	}
	return p
}

// Base returns the last element of p.
func (p Path) Base() string {
	if p.suffix == "" {
		return ""
	}
	return path.Base(p.suffix)
}

// Ext returns the extension of p, including the dot.
func (p Path) Ext() string {
	return path.Ext(p.Base())
}

// StripExt returns p without its extension.
func (p Path) StripExt() Path {
	p.suffix = strings.TrimSuffix(p.suffix, p.Ext())
	return p
}

// AddExt returns p with ext appended.
func (p Path) AddExt(ext string) Path {
	p.suffix += ext
	return p
}

// ReplaceExt returns p with its extension replaced by ext.  If p has no
// extension ext is appended.
func (p Path) ReplaceExt(ext string) Path {
	return p.StripExt().AddExt(ext)
}

// Reroot returns a path with the same suffix under a different root.
func (p Path) Reroot(root Root) Path {
	if p.root == AbsoluteRoot || root == AbsoluteRoot {
		panic(fmt.Sprintf("cannot reroot %s to %s", p, root))
	}
	return Path{root: root, suffix: p.suffix}
}

// Split returns the elements of the suffix.
func (p Path) Split() []string {
	if p.suffix == "" {
		return nil
	}
	return strings.Split(strings.TrimPrefix(p.suffix, "/"), "/")
}

func (p Path) String() string {
	if p.root == AbsoluteRoot {
		return p.suffix
	}
	destdir := ""
	if p.destdir {
		destdir = "$(DESTDIR)"
	}
	return fmt.Sprintf("%s$(%s)/%s", destdir, p.root, p.suffix)
}
