// Copyright 2024-present The erd-pets Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/erdpets/erdpets/diagram"
	"github.com/erdpets/erdpets/reconcile"
	"github.com/erdpets/erdpets/schema"
)

func model(t *testing.T) *reconcile.Model {
	t.Helper()
	s, _, err := schema.Parse(`
CREATE TABLE app.users (id INT NOT NULL, email VARCHAR(255));
ALTER TABLE app.users ADD PRIMARY KEY (id);
CREATE TABLE app.posts (id INT, author_id INT);
ALTER TABLE app.posts ADD FOREIGN KEY (author_id) REFERENCES app.users;
`)
	require.NoError(t, err)
	gen := reconcile.GenerateFunc(func(_ []*reconcile.Node, names []string) map[string]diagram.Point {
		ps := make(map[string]diagram.Point)
		for _, n := range names {
			ps[n] = diagram.Point{}
		}
		return ps
	})
	m, _, err := reconcile.Resolve("main", s, reconcile.DefaultSet("main", s), gen)
	require.NoError(t, err)
	return m
}

func TestMermaid(t *testing.T) {
	out := Mermaid(model(t))
	require.True(t, strings.HasPrefix(out, "erDiagram\n"))
	require.Contains(t, out, "app_users {")
	require.Contains(t, out, "INT id PK")
	require.Contains(t, out, "VARCHAR(255) email")
	require.Contains(t, out, "INT author_id FK")
	require.Contains(t, out, "app_users ||--o{ app_posts : author_id")
}

func TestMarkdown(t *testing.T) {
	out := Markdown(model(t))
	require.Contains(t, out, "2 tables, 1 relationship")
	require.Contains(t, out, "## Users (`app.users`)")
	require.Contains(t, out, "| id | INT | no | no | PK |")
	require.Contains(t, out, "- `app.posts.author_id` → `app.users.id`")
}
