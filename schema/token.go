// Copyright 2024-present The erd-pets Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package schema

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind uint8

const (
	identTok tokenKind = iota
	punctTok           // ( ) , .
	otherTok           // numbers, literals, operators
)

type token struct {
	kind   tokenKind
	text   string // raw text, quotes stripped for quoted identifiers
	quoted bool
}

// name returns the token text as an identifier. Unquoted identifiers
// fold to lower case; quoted ones are taken literally.
func (t token) name() string {
	if t.quoted {
		return t.text
	}
	return strings.ToLower(t.text)
}

// scanTokens splits one statement into identifier, punctuation and
// literal tokens. Comments were already removed by the statement lexer.
func scanTokens(text string) ([]token, error) {
	var toks []token
	for i := 0; i < len(text); {
		r, w := utf8.DecodeRuneInString(text[i:])
		switch {
		case unicode.IsSpace(r):
			i += w
		case r == '"':
			j := strings.IndexByte(text[i+1:], '"')
			if j == -1 {
				return nil, fmt.Errorf("unclosed quoted identifier at %d", i)
			}
			toks = append(toks, token{kind: identTok, text: text[i+1 : i+1+j], quoted: true})
			i += j + 2
		case r == '\'':
			j := strings.IndexByte(text[i+1:], '\'')
			if j == -1 {
				return nil, fmt.Errorf("unclosed string literal at %d", i)
			}
			toks = append(toks, token{kind: otherTok, text: text[i : i+j+2]})
			i += j + 2
		case r == '(' || r == ')' || r == ',' || r == '.':
			toks = append(toks, token{kind: punctTok, text: string(r)})
			i += w
		case unicode.IsLetter(r) || r == '_':
			j := i
			for j < len(text) {
				r, w := utf8.DecodeRuneInString(text[j:])
				if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '$' {
					break
				}
				j += w
			}
			toks = append(toks, token{kind: identTok, text: text[i:j]})
			i = j
		default:
			j := i
			for j < len(text) {
				r, w := utf8.DecodeRuneInString(text[j:])
				if unicode.IsSpace(r) || r == '(' || r == ')' || r == ',' || r == '"' || r == '\'' {
					break
				}
				j += w
			}
			toks = append(toks, token{kind: otherTok, text: text[i:j]})
			i = j
		}
	}
	return toks, nil
}

// rawText reassembles tokens into display text, keeping parenthesized
// arguments tight (e.g. "numeric(10, 2)").
func rawText(toks []token) string {
	var b strings.Builder
	for i, t := range toks {
		if i > 0 && !tight(toks[i-1], t) {
			b.WriteByte(' ')
		}
		if t.quoted {
			b.WriteByte('"')
			b.WriteString(t.text)
			b.WriteByte('"')
			continue
		}
		b.WriteString(t.text)
	}
	return b.String()
}

func tight(prev, cur token) bool {
	if cur.kind == punctTok {
		return true
	}
	return prev.kind == punctTok && (prev.text == "(" || prev.text == ".")
}

// keywordPrefix reports whether text starts with the given keywords,
// separated by whitespace and compared case-insensitively.
func keywordPrefix(text string, kws ...string) bool {
	fields := strings.Fields(text)
	if len(fields) < len(kws) {
		return false
	}
	for i, kw := range kws {
		if !strings.EqualFold(fields[i], kw) {
			return false
		}
	}
	return true
}

// cursor walks a token stream with single-token lookahead.
type cursor struct {
	toks []token
	i    int
}

// keywords consumes the given keyword sequence if it comes next.
func (c *cursor) keywords(ks ...string) bool {
	if c.i+len(ks) > len(c.toks) {
		return false
	}
	for j, k := range ks {
		t := c.toks[c.i+j]
		if t.kind != identTok || t.quoted || !strings.EqualFold(t.text, k) {
			return false
		}
	}
	c.i += len(ks)
	return true
}

// ident consumes and returns the next identifier.
func (c *cursor) ident() (string, bool) {
	if c.i >= len(c.toks) || c.toks[c.i].kind != identTok {
		return "", false
	}
	t := c.toks[c.i]
	c.i++
	return t.name(), true
}

// punct consumes the next token if it is the given punctuation.
func (c *cursor) punct(r byte) bool {
	if c.i >= len(c.toks) || c.toks[c.i].kind != punctTok || c.toks[c.i].text != string(r) {
		return false
	}
	c.i++
	return true
}

// groups splits the remaining tokens of a parenthesized body on
// top-level commas. The opening parenthesis was already consumed. A
// trailing comma yields an empty group, which the caller discards.
func (c *cursor) groups() [][]token {
	var (
		all   [][]token
		cur   []token
		depth int
	)
	flush := func() {
		if len(cur) > 0 {
			all = append(all, cur)
			cur = nil
		}
	}
	for ; c.i < len(c.toks); c.i++ {
		t := c.toks[c.i]
		if t.kind == punctTok {
			switch t.text {
			case "(":
				depth++
			case ")":
				if depth == 0 {
					c.i++
					flush()
					return all
				}
				depth--
			case ",":
				if depth == 0 {
					flush()
					continue
				}
			}
		}
		cur = append(cur, t)
	}
	flush()
	return all
}
