// Copyright 2024-present The erd-pets Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package schema

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrNoTables is returned by Parse when the input contains no usable
// CREATE TABLE statement. There is nothing to render in that case.
var ErrNoTables = errors.New("schema: no table declarations found")

// WarnKind describes the severity class of a parse warning.
type WarnKind uint8

const (
	// WarnSyntax marks a statement that looked like a table or alter
	// declaration but could not be parsed. The statement is skipped.
	WarnSyntax WarnKind = iota
	// WarnResolution marks a key that references an undeclared table
	// or column. The single key is dropped, not the table.
	WarnResolution
)

// A Warning reports a statement or key the parser had to skip.
// Warnings are data, not errors: the rest of the file still parses.
type Warning struct {
	Kind WarnKind
	Pos  int // byte offset of the statement in the input
	Msg  string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s (at %d)", w.Msg, w.Pos)
}

// Parse extracts the schema from the given SQL text. Malformed
// statements are skipped and reported as warnings; only an input with
// no table declarations at all fails with ErrNoTables.
func Parse(text string) (*Schema, []Warning, error) {
	p := &fileParser{schema: &Schema{}}
	l := &lex{input: text}
	for {
		s, err := l.stmt()
		if err == io.EOF {
			break
		}
		if err != nil {
			// The remainder of the file cannot be split into
			// statements. Keep what was scanned so far.
			p.warnf(WarnSyntax, l.total, "unreadable input: %v", err)
			break
		}
		p.stmt(s)
	}
	p.resolve()
	if len(p.schema.Tables) == 0 {
		return nil, p.warns, ErrNoTables
	}
	return p.schema, p.warns, nil
}

type (
	fileParser struct {
		schema *Schema
		warns  []Warning
		pks    []pendingKey
		fks    []pendingKey
	}

	// pendingKey is an ALTER TABLE clause collected during the first
	// pass. Keys resolve only after all tables are known, so forward
	// references are not order-dependent.
	pendingKey struct {
		pos      int
		table    string // qualified owner
		columns  []string
		refTable string // foreign keys only
		refCol   string // optional
	}
)

func (p *fileParser) warnf(k WarnKind, pos int, format string, args ...any) {
	p.warns = append(p.warns, Warning{Kind: k, Pos: pos, Msg: fmt.Sprintf(format, args...)})
}

// stmt dispatches one scanned statement. Statements that are neither
// CREATE TABLE nor a recognized ALTER TABLE clause are skipped without
// a warning. They are simply outside this dialect.
func (p *fileParser) stmt(s *Stmt) {
	ts, err := scanTokens(s.Text)
	if err != nil {
		if keywordPrefix(s.Text, "CREATE", "TABLE") || keywordPrefix(s.Text, "ALTER", "TABLE") {
			p.warnf(WarnSyntax, s.Pos, "skipped statement: %v", err)
		}
		return
	}
	c := &cursor{toks: ts}
	switch {
	case c.keywords("CREATE", "TABLE"):
		if err := p.createTable(c); err != nil {
			p.warnf(WarnSyntax, s.Pos, "skipped CREATE TABLE: %v", err)
		}
	case c.keywords("ALTER", "TABLE"):
		if err := p.alterTable(c, s.Pos); err != nil {
			p.warnf(WarnSyntax, s.Pos, "skipped ALTER TABLE: %v", err)
		}
	}
}

func (p *fileParser) createTable(c *cursor) error {
	sc, tb, err := qualified(c)
	if err != nil {
		return err
	}
	t := &Table{Schema: sc, Name: tb}
	if !c.punct('(') {
		return fmt.Errorf("expected column list for table %q", t.Qualified())
	}
	for _, def := range c.groups() {
		col, ok := columnDef(def)
		if ok {
			t.Columns = append(t.Columns, col)
		}
	}
	if p.schema.put(t) {
		p.warnf(WarnSyntax, 0, "table %q declared twice, later declaration wins", t.Qualified())
	}
	return nil
}

func (p *fileParser) alterTable(c *cursor, pos int) error {
	sc, tb, err := qualified(c)
	if err != nil {
		return err
	}
	owner := sc + "." + tb
	if !c.keywords("ADD") {
		return nil // not a clause this dialect interprets
	}
	switch {
	case c.keywords("PRIMARY", "KEY"):
		cols, err := nameList(c)
		if err != nil {
			return err
		}
		p.pks = append(p.pks, pendingKey{pos: pos, table: owner, columns: cols})
	case c.keywords("FOREIGN", "KEY"):
		cols, err := nameList(c)
		if err != nil {
			return err
		}
		if len(cols) != 1 {
			return fmt.Errorf("foreign key on %q must reference exactly one column", owner)
		}
		if !c.keywords("REFERENCES") {
			return fmt.Errorf("foreign key on %q missing REFERENCES clause", owner)
		}
		rsc, rtb, err := qualified(c)
		if err != nil {
			return err
		}
		fk := pendingKey{pos: pos, table: owner, columns: cols, refTable: rsc + "." + rtb}
		if c.punct('(') {
			refs, err := nameListOpen(c)
			if err != nil {
				return err
			}
			if len(refs) != 1 {
				return fmt.Errorf("foreign key on %q must target exactly one column", owner)
			}
			fk.refCol = refs[0]
		}
		p.fks = append(p.fks, fk)
	}
	// Other ADD clauses (constraints, checks, indexes) are skipped.
	return nil
}

// resolve is the second pass: primary and foreign keys collected from
// ALTER statements are attached once every table is known.
func (p *fileParser) resolve() {
	for _, k := range p.pks {
		t, ok := p.schema.Table(k.table)
		if !ok {
			p.warnf(WarnResolution, k.pos, "primary key on undeclared table %q", k.table)
			continue
		}
		t.PrimaryKey = k.columns
	}
	for _, k := range p.fks {
		fk, err := p.resolveFK(k)
		if err != nil {
			p.warnf(WarnResolution, k.pos, "dropped foreign key on %q: %v", k.table, err)
			continue
		}
		t, _ := p.schema.Table(k.table)
		t.ForeignKeys = append(t.ForeignKeys, fk)
	}
}

func (p *fileParser) resolveFK(k pendingKey) (*ForeignKey, error) {
	src, ok := p.schema.Table(k.table)
	if !ok {
		return nil, fmt.Errorf("undeclared table %q", k.table)
	}
	if _, ok := src.Column(k.columns[0]); !ok {
		return nil, fmt.Errorf("unknown column %q", k.columns[0])
	}
	ref, ok := p.schema.Table(k.refTable)
	if !ok {
		return nil, fmt.Errorf("undeclared target table %q", k.refTable)
	}
	refCol := k.refCol
	if refCol == "" {
		// Default the target column from the primary key, which must
		// name exactly one column for the reference to be unambiguous.
		switch len(ref.PrimaryKey) {
		case 1:
			refCol = ref.PrimaryKey[0]
		case 0:
			return nil, fmt.Errorf("target table %q has no primary key", k.refTable)
		default:
			return nil, fmt.Errorf("target table %q has a composite primary key", k.refTable)
		}
	}
	if _, ok := ref.Column(refCol); !ok {
		return nil, fmt.Errorf("unknown target column %q", refCol)
	}
	return &ForeignKey{Table: k.table, Column: k.columns[0], RefTable: k.refTable, RefColumn: refCol}, nil
}

// columnDef parses one parenthesized group of a CREATE TABLE body into
// a column. Groups that open with a constraint keyword and empty groups
// (a tolerated trailing comma) report ok == false.
func columnDef(toks []token) (*Column, bool) {
	if len(toks) == 0 || toks[0].kind != identTok {
		return nil, false
	}
	if !toks[0].quoted {
		switch strings.ToUpper(toks[0].text) {
		case "PRIMARY", "FOREIGN", "CONSTRAINT", "UNIQUE", "CHECK", "KEY", "INDEX", "EXCLUDE", "LIKE":
			return nil, false
		}
	}
	col := &Column{Name: toks[0].name(), Null: true}
	rest := toks[1:]
	i := 0
Type:
	for ; i < len(rest); i++ {
		t := rest[i]
		if t.kind == identTok && !t.quoted {
			switch strings.ToUpper(t.text) {
			case "NOT", "NULL", "DEFAULT":
				break Type
			}
		}
	}
	col.Type = rawText(rest[:i])
	for ; i < len(rest); i++ {
		t := rest[i]
		if t.kind != identTok || t.quoted {
			continue
		}
		switch strings.ToUpper(t.text) {
		case "NOT":
			if i+1 < len(rest) && strings.EqualFold(rest[i+1].text, "NULL") {
				col.Null = false
				i++
			}
		case "DEFAULT":
			col.Default = true
			// The default expression itself is not interpreted.
			return col, true
		}
	}
	return col, true
}

// qualified reads a schema.table reference. Bare names are a parse
// error for the statement; only fully qualified references are valid.
func qualified(c *cursor) (sc, tb string, err error) {
	first, ok := c.ident()
	if !ok {
		return "", "", errors.New("expected table name")
	}
	if !c.punct('.') {
		return "", "", fmt.Errorf("unqualified table name %q", first)
	}
	second, ok := c.ident()
	if !ok {
		return "", "", fmt.Errorf("expected table name after %q.", first)
	}
	return first, second, nil
}

// nameList reads a parenthesized, comma-separated list of identifiers.
func nameList(c *cursor) ([]string, error) {
	if !c.punct('(') {
		return nil, errors.New("expected column list")
	}
	return nameListOpen(c)
}

// nameListOpen reads the remainder of a list whose opening parenthesis
// was already consumed.
func nameListOpen(c *cursor) ([]string, error) {
	var names []string
	for {
		n, ok := c.ident()
		if !ok {
			return nil, errors.New("expected column name")
		}
		names = append(names, n)
		switch {
		case c.punct(','):
		case c.punct(')'):
			return names, nil
		default:
			return nil, errors.New("malformed column list")
		}
	}
}
