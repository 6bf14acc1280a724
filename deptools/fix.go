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

package deptools

import (
	"fmt"
	"io"

	"github.com/rotisserie/eris"
)

// A SyntaxError reports a token that FixDepfile did not expect.
type SyntaxError struct {
	Token  string
	Offset int
}

func (e *SyntaxError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("depfile: unexpected end of input at byte offset %d", e.Offset)
	}
	return fmt.Sprintf("depfile: unexpected token %q at byte offset %d", e.Token, e.Offset)
}

type tokenKind int

const (
	tokenWord tokenKind = iota
	tokenColon
	tokenNewline
	tokenEOF
)

type token struct {
	kind   tokenKind
	text   string
	offset int
}

type depLexer struct {
	data []byte
	pos  int
}

func (l *depLexer) next() token {
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\r':
			l.pos++
		case c == '\\' && l.pos+1 < len(l.data) && l.data[l.pos+1] == '\n':
			// Line continuation.
			l.pos += 2
		case c == '\n':
			l.pos++
			return token{kind: tokenNewline, text: "\n", offset: l.pos - 1}
		case c == ':':
			l.pos++
			return token{kind: tokenColon, text: ":", offset: l.pos - 1}
		default:
			return l.word()
		}
	}
	return token{kind: tokenEOF, offset: l.pos}
}

func (l *depLexer) word() token {
	start := l.pos
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == ':':
			return token{kind: tokenWord, text: string(l.data[start:l.pos]), offset: start}
		case c == '\\' && l.pos+1 < len(l.data):
			if l.data[l.pos+1] == '\n' {
				return token{kind: tokenWord, text: string(l.data[start:l.pos]), offset: start}
			}
			// An escaped colon or space stays part of the word, escape
			// included.  Any other escaped character passes through as is.
			l.pos += 2
		default:
			l.pos++
		}
	}
	return token{kind: tokenWord, text: string(l.data[start:l.pos]), offset: start}
}

// FixDepfile reads a gcc-style depfile from r and writes to w an empty rule
// for every dependency it lists.  Appending the result to the depfile keeps
// make from failing when one of those dependencies is deleted.
func FixDepfile(r io.Reader, w io.Writer) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return eris.Wrap(err, "failed to read depfile")
	}

	const (
		inTarget = iota
		inDeps
	)
	state := inTarget
	sawTarget := false

	lexer := &depLexer{data: data}
	for {
		tok := lexer.next()
		switch state {
		case inTarget:
			switch tok.kind {
			case tokenWord:
				sawTarget = true
			case tokenColon:
				if !sawTarget {
					return &SyntaxError{Token: tok.text, Offset: tok.offset}
				}
				state = inDeps
			case tokenNewline:
				if sawTarget {
					return &SyntaxError{Token: tok.text, Offset: tok.offset}
				}
			case tokenEOF:
				if sawTarget {
					return &SyntaxError{Offset: tok.offset}
				}
				return nil
			}
		case inDeps:
			switch tok.kind {
			case tokenWord:
				if _, err := io.WriteString(w, tok.text+":\n"); err != nil {
					return eris.Wrap(err, "failed to write depfile")
				}
			case tokenColon:
				return &SyntaxError{Token: tok.text, Offset: tok.offset}
			case tokenNewline:
				state = inTarget
				sawTarget = false
			case tokenEOF:
				return nil
			}
		}
	}
}
