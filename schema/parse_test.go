// Copyright 2024-present The erd-pets Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package schema

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse_CreateTable(t *testing.T) {
	s, warns, err := Parse(`
CREATE TABLE app.users (
	id INT NOT NULL,
	email VARCHAR(255) NOT NULL,
	bio TEXT,
	score NUMERIC(10, 2) DEFAULT 0,
);
`)
	require.NoError(t, err)
	require.Empty(t, warns)
	require.Len(t, s.Tables, 1)
	u, ok := s.Table("app.users")
	require.True(t, ok)
	require.Equal(t, "app.users", u.Qualified())
	require.Len(t, u.Columns, 4)
	require.Equal(t, &Column{Name: "id", Type: "INT"}, u.Columns[0])
	require.Equal(t, &Column{Name: "email", Type: "VARCHAR(255)"}, u.Columns[1])
	require.Equal(t, &Column{Name: "bio", Type: "TEXT", Null: true}, u.Columns[2])
	require.Equal(t, &Column{Name: "score", Type: "NUMERIC(10, 2)", Null: true, Default: true}, u.Columns[3])
}

func TestParse_Keys(t *testing.T) {
	s, warns, err := Parse(`
CREATE TABLE app.users (id INT NOT NULL);
CREATE TABLE app.posts (id INT NOT NULL, author_id INT);
ALTER TABLE app.users ADD PRIMARY KEY (id);
ALTER TABLE app.posts ADD PRIMARY KEY (id);
ALTER TABLE app.posts ADD FOREIGN KEY (author_id) REFERENCES app.users (id);
`)
	require.NoError(t, err)
	require.Empty(t, warns)
	u, _ := s.Table("app.users")
	require.Equal(t, []string{"id"}, u.PrimaryKey)
	p, _ := s.Table("app.posts")
	require.Len(t, p.ForeignKeys, 1)
	require.Equal(t, &ForeignKey{
		Table: "app.posts", Column: "author_id",
		RefTable: "app.users", RefColumn: "id",
	}, p.ForeignKeys[0])
}

// A foreign key without an explicit target column defaults to the
// referenced table's primary key.
func TestParse_ForeignKeyDefaultTarget(t *testing.T) {
	s, warns, err := Parse(`
CREATE TABLE a.parent (id INT NOT NULL);
ALTER TABLE a.parent ADD PRIMARY KEY (id);
CREATE TABLE a.child (id INT, parent_id INT);
ALTER TABLE a.child ADD FOREIGN KEY (parent_id) REFERENCES a.parent;
`)
	require.NoError(t, err)
	require.Empty(t, warns)
	c, _ := s.Table("a.child")
	require.Len(t, c.ForeignKeys, 1)
	require.Equal(t, "id", c.ForeignKeys[0].RefColumn)
}

func TestParse_ForeignKeyAmbiguousTarget(t *testing.T) {
	for _, tt := range []struct {
		name, pk string
	}{
		{"no primary key", ""},
		{"composite primary key", "ALTER TABLE a.parent ADD PRIMARY KEY (a, b);"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			s, warns, err := Parse(`
CREATE TABLE a.parent (a INT, b INT);
CREATE TABLE a.child (parent_a INT);
ALTER TABLE a.child ADD FOREIGN KEY (parent_a) REFERENCES a.parent;
` + tt.pk)
			require.NoError(t, err)
			require.Len(t, warns, 1)
			require.Equal(t, WarnResolution, warns[0].Kind)
			// Only the key is dropped, the tables remain.
			require.Len(t, s.Tables, 2)
			c, _ := s.Table("a.child")
			require.Empty(t, c.ForeignKeys)
		})
	}
}

// ALTER statements may reference tables declared later in the file.
func TestParse_ForwardReference(t *testing.T) {
	s, warns, err := Parse(`
ALTER TABLE a.child ADD FOREIGN KEY (parent_id) REFERENCES a.parent (id);
CREATE TABLE a.child (parent_id INT);
CREATE TABLE a.parent (id INT);
`)
	require.NoError(t, err)
	require.Empty(t, warns)
	c, _ := s.Table("a.child")
	require.Len(t, c.ForeignKeys, 1)
}

func TestParse_SelfReference(t *testing.T) {
	s, warns, err := Parse(`
CREATE TABLE a.node (id INT NOT NULL, parent_id INT);
ALTER TABLE a.node ADD PRIMARY KEY (id);
ALTER TABLE a.node ADD FOREIGN KEY (parent_id) REFERENCES a.node;
`)
	require.NoError(t, err)
	require.Empty(t, warns)
	n, _ := s.Table("a.node")
	require.Len(t, n.ForeignKeys, 1)
	require.Equal(t, n.ForeignKeys[0].Table, n.ForeignKeys[0].RefTable)
}

func TestParse_DuplicateTable(t *testing.T) {
	s, warns, err := Parse(`
CREATE TABLE a.t (old INT);
CREATE TABLE a.t (fresh INT);
`)
	require.NoError(t, err)
	require.Len(t, warns, 1)
	require.Len(t, s.Tables, 1)
	tb, _ := s.Table("a.t")
	require.Equal(t, "fresh", tb.Columns[0].Name)
}

func TestParse_QuotedIdentifiers(t *testing.T) {
	s, warns, err := Parse(`CREATE TABLE app."Order" ("User" INT, plain INT);`)
	require.NoError(t, err)
	require.Empty(t, warns)
	tb, ok := s.Table("app.Order")
	require.True(t, ok)
	require.Equal(t, "User", tb.Columns[0].Name)
	require.Equal(t, "plain", tb.Columns[1].Name)
}

func TestParse_CaseFolding(t *testing.T) {
	s, _, err := Parse(`CREATE TABLE App.Users (ID INT);`)
	require.NoError(t, err)
	_, ok := s.Table("app.users")
	require.True(t, ok)
}

// A malformed statement is skipped with a warning; everything else in
// the file still parses.
func TestParse_PartialFailure(t *testing.T) {
	s, warns, err := Parse(`
CREATE TABLE a.good (id INT);
CREATE TABLE bare (id INT);
CREATE TABLE a.fine (id INT);
`)
	require.NoError(t, err)
	require.Len(t, warns, 1)
	require.Equal(t, WarnSyntax, warns[0].Kind)
	require.Contains(t, warns[0].Msg, "unqualified")
	require.Len(t, s.Tables, 2)
}

// Statements outside the dialect are skipped silently.
func TestParse_SkipsForeignStatements(t *testing.T) {
	s, warns, err := Parse(`
CREATE SCHEMA a;
CREATE TABLE a.t (id INT);
CREATE INDEX t_idx ON a.t (id);
ALTER TABLE a.t ADD CONSTRAINT t_chk CHECK (id > 0);
COMMENT ON TABLE a.t IS 'hello; world';
`)
	require.NoError(t, err)
	require.Empty(t, warns)
	require.Len(t, s.Tables, 1)
}

func TestParse_NoTables(t *testing.T) {
	_, _, err := Parse("SELECT 1;")
	require.ErrorIs(t, err, ErrNoTables)
}

func TestParse_TableConstraintsInBody(t *testing.T) {
	s, _, err := Parse(`
CREATE TABLE a.t (
	id INT NOT NULL,
	PRIMARY KEY (id),
	UNIQUE (id)
);
`)
	require.NoError(t, err)
	tb, _ := s.Table("a.t")
	require.Len(t, tb.Columns, 1)
}
