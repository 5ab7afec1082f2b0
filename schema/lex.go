// Copyright 2024-present The erd-pets Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package schema

import (
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Stmt represents a scanned statement text along
// with its byte position in the file.
type Stmt struct {
	Pos  int
	Text string
}

// stmts extracts SQL statements from the given file contents.
// Statements are delimited by top-level semicolons; quoted text and
// comments never terminate a statement. The layout block is a regular
// block comment from the lexer's point of view and is skipped here.
func stmts(input string) ([]*Stmt, error) {
	var all []*Stmt
	l := &lex{input: input}
	for {
		s, err := l.stmt()
		if err == io.EOF {
			return all, nil
		}
		if err != nil {
			return nil, err
		}
		all = append(all, s)
	}
}

type lex struct {
	input string
	pos   int // current position within input
	total int // total bytes scanned so far
	width int // size of latest rune
	depth int // depth of parentheses
}

const (
	eos       = -1
	delimiter = ";"
)

func (l *lex) stmt() (*Stmt, error) {
	var text string
	l.skipSpaces()
Scan:
	for {
		switch r := l.next(); {
		case r == eos:
			if l.depth > 0 {
				return nil, fmt.Errorf("unclosed parentheses at position %d", l.total)
			}
			if l.pos > 0 {
				text = l.input
				break Scan
			}
			return nil, io.EOF
		case r == '(':
			l.depth++
		case r == ')':
			if l.depth == 0 {
				return nil, fmt.Errorf("unexpected ')' at position %d", l.total)
			}
			l.depth--
		case r == '\'', r == '"':
			if err := l.skipQuote(r); err != nil {
				return nil, err
			}
		case r == ';' && l.depth == 0:
			text = l.input[:l.pos]
			break Scan
		case r == '-' && l.next() == '-':
			l.comment("--", "\n")
		case r == '/' && l.next() == '*':
			l.comment("/*", "*/")
		}
	}
	return l.emit(text), nil
}

func (l *lex) next() rune {
	if l.pos >= len(l.input) {
		return eos
	}
	r, w := utf8.DecodeRuneInString(l.input[l.pos:])
	l.width = w
	l.addPos(w)
	return r
}

func (l *lex) addPos(p int) {
	l.pos += p
	l.total += p
}

func (l *lex) skipQuote(quote rune) error {
	for {
		switch r := l.next(); {
		case r == eos:
			return fmt.Errorf("unclosed quote %q", quote)
		case r == '\\':
			l.next()
		case r == quote:
			return nil
		}
	}
}

// comment splices a comment out of the pending input so that it never
// reaches the statement tokenizer. Line comments keep their newline to
// avoid joining the surrounding lines.
func (l *lex) comment(left, right string) {
	i := strings.Index(l.input[l.pos:], right)
	// Unterminated comment, scanned to the end.
	if i == -1 {
		l.total += len(l.input) - l.pos
		l.input = l.input[:l.pos-len(left)]
		l.pos -= len(left)
		return
	}
	start := l.pos - len(left)
	end := l.pos + i + len(right)
	if right == "\n" {
		end = l.pos + i
	}
	l.total += end - l.pos
	l.input = l.input[:start] + l.input[end:]
	l.pos = start
	if l.pos == 0 {
		l.skipSpaces()
	}
}

func (l *lex) skipSpaces() {
	n := len(l.input)
	l.input = strings.TrimLeftFunc(l.input, unicode.IsSpace)
	l.total += n - len(l.input)
}

func (l *lex) emit(text string) *Stmt {
	s := &Stmt{Pos: l.total - len(text), Text: text}
	l.input = l.input[l.pos:]
	l.pos = 0
	s.Text = strings.TrimSuffix(strings.TrimSpace(s.Text), delimiter)
	s.Text = strings.TrimSpace(s.Text)
	return s
}
