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
	"io"
	"strings"
	"unicode"
)

const (
	indentWidth    = 4
	maxIndentDepth = 2
	lineWidth      = 80
)

var indentString = strings.Repeat(" ", indentWidth*maxIndentDepth)

// ninjaWriter writes Ninja statements, wrapping long build lines.  The first
// write error is sticky and returned by every later call.
type ninjaWriter struct {
	writer io.StringWriter
	err    error

	justDidBlankLine bool // true if the last operation was a BlankLine
}

func newNinjaWriter(writer io.StringWriter) *ninjaWriter {
	return &ninjaWriter{
		writer: writer,
	}
}

func (n *ninjaWriter) write(strs ...string) error {
	for _, s := range strs {
		if n.err != nil {
			break
		}
		_, n.err = n.writer.WriteString(s)
	}
	return n.err
}

func (n *ninjaWriter) Comment(comment string) error {
	n.justDidBlankLine = false

	const lineHeaderLen = len("# ")
	const maxLineLen = lineWidth - lineHeaderLen

	var lineStart, lastSplitPoint int
	for i, r := range comment {
		if unicode.IsSpace(r) {
			// We know we can safely split the line here.
			lastSplitPoint = i + 1
		}

		var line string
		var writeLine bool
		switch {
		case r == '\n':
			// Output the line without trimming the left so as to allow comments
			// to contain their own indentation.
			line = strings.TrimRightFunc(comment[lineStart:i], unicode.IsSpace)
			writeLine = true

		case (i-lineStart > maxLineLen) && (lastSplitPoint > lineStart):
			// The line has grown too long and is splittable.  Split it at the
			// last split point.
			line = strings.TrimSpace(comment[lineStart:lastSplitPoint])
			writeLine = true
		}

		if writeLine {
			if err := n.write(strings.TrimSpace("# "+line), "\n"); err != nil {
				return err
			}
			lineStart = lastSplitPoint
		}
	}

	if lineStart != len(comment) {
		return n.write("# ", strings.TrimSpace(comment[lineStart:]), "\n")
	}
	return n.err
}

func (n *ninjaWriter) Pool(name string) error {
	n.justDidBlankLine = false
	return n.write("pool ", name, "\n")
}

func (n *ninjaWriter) Rule(name string) error {
	n.justDidBlankLine = false
	return n.write("rule ", name, "\n")
}

// Build writes a build line.  All names must already be escaped for their
// position.
func (n *ninjaWriter) Build(rule string, outputs, implicitOuts,
	explicitDeps, implicitDeps, orderOnlyDeps []string) error {

	n.justDidBlankLine = false

	wrapper := n.wrapper()
	wrapper.WriteString("build")

	for _, output := range outputs {
		wrapper.WriteStringWithSpace(output)
	}

	if len(implicitOuts) > 0 {
		wrapper.WriteStringWithSpace("|")

		for _, out := range implicitOuts {
			wrapper.WriteStringWithSpace(out)
		}
	}

	wrapper.WriteString(":")

	wrapper.WriteStringWithSpace(rule)

	for _, dep := range explicitDeps {
		wrapper.WriteStringWithSpace(dep)
	}

	if len(implicitDeps) > 0 {
		wrapper.WriteStringWithSpace("|")

		for _, dep := range implicitDeps {
			wrapper.WriteStringWithSpace(dep)
		}
	}

	if len(orderOnlyDeps) > 0 {
		wrapper.WriteStringWithSpace("||")

		for _, dep := range orderOnlyDeps {
			wrapper.WriteStringWithSpace(dep)
		}
	}

	return wrapper.Flush()
}

func (n *ninjaWriter) Assign(name, value string) error {
	n.justDidBlankLine = false
	return n.write(name, " = ", value, "\n")
}

func (n *ninjaWriter) ScopedAssign(name, value string) error {
	n.justDidBlankLine = false
	return n.write(indentString[:indentWidth], name, " = ", value, "\n")
}

func (n *ninjaWriter) Default(targets ...string) error {
	n.justDidBlankLine = false

	wrapper := n.wrapper()
	wrapper.WriteString("default")

	for _, target := range targets {
		wrapper.WriteStringWithSpace(target)
	}

	return wrapper.Flush()
}

func (n *ninjaWriter) BlankLine() error {
	// We don't output multiple blank lines in a row.
	if !n.justDidBlankLine {
		n.justDidBlankLine = true
		return n.write("\n")
	}
	return n.err
}

func (n *ninjaWriter) wrapper() *ninjaWriterWithWrap {
	const lineWrapLen = len(" $")
	const maxLineLen = lineWidth - lineWrapLen

	return &ninjaWriterWithWrap{
		ninjaWriter: n,
		maxLineLen:  maxLineLen,
	}
}

type ninjaWriterWithWrap struct {
	*ninjaWriter
	maxLineLen int
	writtenLen int
}

func (n *ninjaWriterWithWrap) writeString(s string, space bool) {
	spaceLen := 0
	if space {
		spaceLen = 1
	}

	if n.writtenLen+len(s)+spaceLen > n.maxLineLen && n.writtenLen > 0 {
		n.write(" $\n", indentString[:indentWidth*2])
		n.writtenLen = indentWidth * 2
		s = strings.TrimLeftFunc(s, unicode.IsSpace)
	} else if space {
		n.write(" ")
		n.writtenLen++
	}

	n.write(s)
	n.writtenLen += len(s)
}

func (n *ninjaWriterWithWrap) WriteString(s string) {
	n.writeString(s, false)
}

func (n *ninjaWriterWithWrap) WriteStringWithSpace(s string) {
	n.writeString(s, true)
}

func (n *ninjaWriterWithWrap) Flush() error {
	return n.write("\n")
}
