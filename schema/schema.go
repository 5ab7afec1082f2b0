// Copyright 2024-present The erd-pets Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

// Package schema defines the model for the SQL dialect understood by
// erd-pets and the parser that extracts it from a schema file.
package schema

import "strings"

type (
	// A Schema describes the set of tables extracted from one schema file.
	// It is immutable once produced by a parse pass.
	Schema struct {
		// Tables in declaration order. Qualified names are unique;
		// a table declared twice keeps only its last declaration.
		Tables []*Table

		byName map[string]*Table
	}

	// A Table represents one CREATE TABLE statement.
	Table struct {
		// Schema and Name hold the two segments of the qualified name.
		Schema string
		Name   string
		// Columns in declaration order. The order drives rendering.
		Columns []*Column
		// PrimaryKey holds the column names of the primary key, empty
		// if none was declared.
		PrimaryKey []string
		// ForeignKeys owned by this table.
		ForeignKeys []*ForeignKey
	}

	// A Column represents a single column definition. The type is kept
	// as raw text and not interpreted further.
	Column struct {
		Name    string
		Type    string
		Null    bool
		Default bool
	}

	// A ForeignKey represents one resolved foreign key. RefColumn is
	// always concrete: when the source statement omits it, the parser
	// fills it from the referenced table's primary key.
	ForeignKey struct {
		Table     string // qualified owner
		Column    string
		RefTable  string // qualified target
		RefColumn string
	}
)

// New returns a schema holding the given tables in order. Callers
// building a schema from a source other than SQL text (e.g. live
// database introspection) use this instead of Parse.
func New(tables ...*Table) *Schema {
	s := &Schema{}
	for _, t := range tables {
		s.put(t)
	}
	return s
}

// Qualified returns the schema-qualified name of the table.
func (t *Table) Qualified() string {
	return t.Schema + "." + t.Name
}

// Column returns the first column that matched the given name.
func (t *Table) Column(name string) (*Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Table returns the table with the given qualified name.
func (s *Schema) Table(qualified string) (*Table, bool) {
	t, ok := s.byName[qualified]
	return t, ok
}

// TablesOf returns, in declaration order, all tables whose schema
// segment equals name.
func (s *Schema) TablesOf(name string) []*Table {
	var ts []*Table
	for _, t := range s.Tables {
		if t.Schema == name {
			ts = append(ts, t)
		}
	}
	return ts
}

// put adds or replaces a table, keeping declaration order stable on
// replacement (the later declaration takes the earlier slot).
func (s *Schema) put(t *Table) (replaced bool) {
	if s.byName == nil {
		s.byName = make(map[string]*Table)
	}
	q := t.Qualified()
	if old, ok := s.byName[q]; ok {
		for i := range s.Tables {
			if s.Tables[i] == old {
				s.Tables[i] = t
				break
			}
		}
		s.byName[q] = t
		return true
	}
	s.byName[q] = t
	s.Tables = append(s.Tables, t)
	return false
}

// SplitQualified splits a qualified name into its schema and table
// segments. The second return value reports whether the name had
// exactly two non-empty segments.
func SplitQualified(qualified string) (sc, tb string, ok bool) {
	i := strings.IndexByte(qualified, '.')
	if i <= 0 || i == len(qualified)-1 || strings.IndexByte(qualified[i+1:], '.') != -1 {
		return "", "", false
	}
	return qualified[:i], qualified[i+1:], true
}
