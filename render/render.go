// Copyright 2024-present The erd-pets Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

// Package render exports a resolved diagram as text: a mermaid
// erDiagram for embedding in docs, or a markdown data dictionary.
// Both are pure functions of the render model.
package render

import (
	"fmt"
	"strings"

	"github.com/go-openapi/inflect"

	"github.com/erdpets/erdpets/reconcile"
)

// Mermaid renders the model as a mermaid erDiagram. Qualified names
// are flattened with an underscore; mermaid identifiers cannot carry
// a dot.
func Mermaid(m *reconcile.Model) string {
	var b strings.Builder
	b.WriteString("erDiagram\n")
	for _, n := range m.Nodes {
		fmt.Fprintf(&b, "    %s {\n", ident(n.Name))
		for _, c := range n.Table.Columns {
			typ := strings.ReplaceAll(c.Type, " ", "_")
			if typ == "" {
				typ = "untyped"
			}
			fmt.Fprintf(&b, "        %s %s%s\n", typ, c.Name, columnMarks(n, c.Name))
		}
		b.WriteString("    }\n")
	}
	if len(m.Edges) > 0 {
		b.WriteByte('\n')
	}
	for _, e := range m.Edges {
		fmt.Fprintf(&b, "    %s ||--o{ %s : %s\n", ident(e.To), ident(e.From), e.FK.Column)
	}
	return b.String()
}

// Markdown renders the model as a data dictionary, one section per
// table in node order.
func Markdown(m *reconcile.Model) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Data dictionary\n\n%s, %s\n",
		counted(len(m.Nodes), "table"), counted(len(m.Edges), "relationship"))
	for _, n := range m.Nodes {
		fmt.Fprintf(&b, "\n## %s (`%s`)\n\n", inflect.Humanize(n.Table.Name), n.Name)
		b.WriteString("| Column | Type | Nullable | Default | Key |\n")
		b.WriteString("|--------|------|----------|---------|-----|\n")
		for _, c := range n.Table.Columns {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
				c.Name, c.Type, yesNo(c.Null), yesNo(c.Default), strings.TrimLeft(columnMarks(n, c.Name), " "))
		}
	}
	if len(m.Edges) > 0 {
		b.WriteString("\n## Relationships\n\n")
		for _, e := range m.Edges {
			fmt.Fprintf(&b, "- `%s.%s` → `%s.%s`\n", e.From, e.FK.Column, e.To, e.FK.RefColumn)
		}
	}
	return b.String()
}

func ident(qualified string) string {
	return strings.ReplaceAll(qualified, ".", "_")
}

// columnMarks annotates a column with PK/FK membership.
func columnMarks(n *reconcile.Node, column string) string {
	var marks string
	for _, pk := range n.Table.PrimaryKey {
		if pk == column {
			marks += " PK"
			break
		}
	}
	for _, fk := range n.Table.ForeignKeys {
		if fk.Column == column {
			marks += " FK"
			break
		}
	}
	return marks
}

func counted(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", word)
	}
	return fmt.Sprintf("%d %s", n, inflect.Pluralize(word))
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
