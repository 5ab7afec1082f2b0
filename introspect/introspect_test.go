// Copyright 2024-present The erd-pets Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package introspect

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/erdpets/erdpets/schema"
)

func TestDatabase(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(columnsQuery).WithArgs("app").WillReturnRows(
		sqlmock.NewRows([]string{"table_name", "column_name", "data_type", "nullable", "has_default"}).
			AddRow("posts", "id", "integer", false, true).
			AddRow("posts", "author_id", "integer", true, false).
			AddRow("users", "id", "integer", false, true).
			AddRow("users", "email", "character varying", false, false),
	)
	mock.ExpectQuery(primaryKeysQuery).WithArgs("app").WillReturnRows(
		sqlmock.NewRows([]string{"table_name", "column_name"}).
			AddRow("posts", "id").
			AddRow("users", "id"),
	)
	mock.ExpectQuery(foreignKeysQuery).WithArgs("app").WillReturnRows(
		sqlmock.NewRows([]string{"table_name", "column_name", "ref_schema", "ref_table", "ref_column"}).
			AddRow("posts", "author_id", "app", "users", "id").
			AddRow("posts", "topic_id", "archive", "topics", "id"), // outside the set, skipped
	)

	s, err := Database(context.Background(), db, "app")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	require.Len(t, s.Tables, 2)
	posts, ok := s.Table("app.posts")
	require.True(t, ok)
	require.Equal(t, []string{"id"}, posts.PrimaryKey)
	require.Len(t, posts.ForeignKeys, 1)
	require.Equal(t, "app.users", posts.ForeignKeys[0].RefTable)
	users, _ := s.Table("app.users")
	require.Equal(t, &schema.Column{Name: "email", Type: "character varying"}, users.Columns[1])
}

func TestDatabase_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(columnsQuery).WithArgs("app").WillReturnError(context.DeadlineExceeded)
	_, err = Database(context.Background(), db, "app")
	require.ErrorContains(t, err, "columns of \"app\"")
}

// Emitted DDL parses straight back into an equal schema.
func TestDDL_RoundTrip(t *testing.T) {
	in := schema.New(
		&schema.Table{
			Schema: "app", Name: "users",
			Columns: []*schema.Column{
				{Name: "id", Type: "integer"},
				{Name: "email", Type: "character varying", Null: true, Default: true},
			},
			PrimaryKey: []string{"id"},
		},
		&schema.Table{
			Schema: "app", Name: "posts",
			Columns: []*schema.Column{
				{Name: "id", Type: "integer"},
				{Name: "author_id", Type: "integer", Null: true},
			},
			PrimaryKey: []string{"id"},
			ForeignKeys: []*schema.ForeignKey{
				{Table: "app.posts", Column: "author_id", RefTable: "app.users", RefColumn: "id"},
			},
		},
	)
	out, warns, err := schema.Parse(DDL(in))
	require.NoError(t, err)
	require.Empty(t, warns)
	require.Equal(t, in, out)
}

func TestDDL_QuotesMixedCase(t *testing.T) {
	in := schema.New(&schema.Table{
		Schema:  "app",
		Name:    "Order",
		Columns: []*schema.Column{{Name: "User", Type: "integer", Null: true}},
	})
	ddl := DDL(in)
	require.Contains(t, ddl, `CREATE TABLE app."Order"`)
	require.Contains(t, ddl, `"User" integer`)
	out, _, err := schema.Parse(ddl)
	require.NoError(t, err)
	_, ok := out.Table("app.Order")
	require.True(t, ok)
}
