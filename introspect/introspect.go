// Copyright 2024-present The erd-pets Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

// Package introspect reads table metadata from a live PostgreSQL
// database and emits it as DDL in the dialect the schema parser
// understands, so an existing database can bootstrap a diagram file.
package introspect

import (
	"context"
	"database/sql"
	"fmt"

	// Registers the "pgx" driver for database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/erdpets/erdpets/schema"
)

// Open connects to the database behind the given DSN.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("introspect: open: %w", err)
	}
	return db, nil
}

const (
	columnsQuery = `
SELECT table_name, column_name, data_type, is_nullable = 'YES', column_default IS NOT NULL
FROM information_schema.columns
WHERE table_schema = $1
ORDER BY table_name, ordinal_position`

	primaryKeysQuery = `
SELECT tc.table_name, kcu.column_name
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kcu
  ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
WHERE tc.constraint_type = 'PRIMARY KEY' AND tc.table_schema = $1
ORDER BY tc.table_name, kcu.ordinal_position`

	foreignKeysQuery = `
SELECT tc.table_name, kcu.column_name, ccu.table_schema, ccu.table_name, ccu.column_name
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kcu
  ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
JOIN information_schema.constraint_column_usage ccu
  ON tc.constraint_name = ccu.constraint_name AND tc.table_schema = ccu.table_schema
WHERE tc.constraint_type = 'FOREIGN KEY' AND tc.table_schema = $1
ORDER BY tc.table_name, kcu.column_name`
)

// Database reads tables, columns, primary keys and foreign keys for
// the given schemas, in the given order.
func Database(ctx context.Context, db *sql.DB, schemas ...string) (*schema.Schema, error) {
	var tables []*schema.Table
	byName := make(map[string]*schema.Table)
	for _, sc := range schemas {
		ts, err := columns(ctx, db, sc)
		if err != nil {
			return nil, err
		}
		for _, t := range ts {
			tables = append(tables, t)
			byName[t.Qualified()] = t
		}
		if err := primaryKeys(ctx, db, sc, byName); err != nil {
			return nil, err
		}
	}
	// Keys may cross schemas, so they attach only after every
	// requested schema was read.
	for _, sc := range schemas {
		if err := foreignKeys(ctx, db, sc, byName); err != nil {
			return nil, err
		}
	}
	return schema.New(tables...), nil
}

func columns(ctx context.Context, db *sql.DB, sc string) ([]*schema.Table, error) {
	rows, err := db.QueryContext(ctx, columnsQuery, sc)
	if err != nil {
		return nil, fmt.Errorf("introspect: columns of %q: %w", sc, err)
	}
	defer rows.Close()
	var (
		tables []*schema.Table
		cur    *schema.Table
	)
	for rows.Next() {
		var (
			table string
			col   schema.Column
		)
		if err := rows.Scan(&table, &col.Name, &col.Type, &col.Null, &col.Default); err != nil {
			return nil, err
		}
		if cur == nil || cur.Name != table {
			cur = &schema.Table{Schema: sc, Name: table}
			tables = append(tables, cur)
		}
		c := col
		cur.Columns = append(cur.Columns, &c)
	}
	return tables, rows.Err()
}

func primaryKeys(ctx context.Context, db *sql.DB, sc string, byName map[string]*schema.Table) error {
	rows, err := db.QueryContext(ctx, primaryKeysQuery, sc)
	if err != nil {
		return fmt.Errorf("introspect: primary keys of %q: %w", sc, err)
	}
	defer rows.Close()
	for rows.Next() {
		var table, col string
		if err := rows.Scan(&table, &col); err != nil {
			return err
		}
		if t, ok := byName[sc+"."+table]; ok {
			t.PrimaryKey = append(t.PrimaryKey, col)
		}
	}
	return rows.Err()
}

func foreignKeys(ctx context.Context, db *sql.DB, sc string, byName map[string]*schema.Table) error {
	rows, err := db.QueryContext(ctx, foreignKeysQuery, sc)
	if err != nil {
		return fmt.Errorf("introspect: foreign keys of %q: %w", sc, err)
	}
	defer rows.Close()
	for rows.Next() {
		var table, col, refSchema, refTable, refCol string
		if err := rows.Scan(&table, &col, &refSchema, &refTable, &refCol); err != nil {
			return err
		}
		t, ok := byName[sc+"."+table]
		if !ok {
			continue
		}
		// Keys into schemas outside the requested set would not
		// resolve after a reparse, so they are skipped here too.
		if _, ok := byName[refSchema+"."+refTable]; !ok {
			continue
		}
		t.ForeignKeys = append(t.ForeignKeys, &schema.ForeignKey{
			Table:     t.Qualified(),
			Column:    col,
			RefTable:  refSchema + "." + refTable,
			RefColumn: refCol,
		})
	}
	return rows.Err()
}
