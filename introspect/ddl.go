// Copyright 2024-present The erd-pets Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package introspect

import (
	"regexp"
	"strings"

	"github.com/erdpets/erdpets/schema"
)

var plainIdent = regexp.MustCompile(`^[a-z_][a-z0-9_$]*$`)

// DDL prints the schema as statements in the dialect the parser
// reads back: CREATE TABLE plus ALTER TABLE ADD PRIMARY/FOREIGN KEY.
// Default expressions are not retained by the model, so a column with
// a default is emitted as DEFAULT NULL; the diagram only cares that a
// default exists.
func DDL(s *schema.Schema) string {
	var b strings.Builder
	for i, t := range s.Tables {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("CREATE TABLE ")
		writeQualified(&b, t)
		b.WriteString(" (\n")
		for j, c := range t.Columns {
			if j > 0 {
				b.WriteString(",\n")
			}
			b.WriteString("\t")
			b.WriteString(quote(c.Name))
			b.WriteByte(' ')
			b.WriteString(c.Type)
			if !c.Null {
				b.WriteString(" NOT NULL")
			}
			if c.Default {
				b.WriteString(" DEFAULT NULL")
			}
		}
		b.WriteString("\n);\n")
	}
	for _, t := range s.Tables {
		if len(t.PrimaryKey) == 0 {
			continue
		}
		b.WriteString("\nALTER TABLE ")
		writeQualified(&b, t)
		b.WriteString(" ADD PRIMARY KEY (")
		for i, c := range t.PrimaryKey {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(quote(c))
		}
		b.WriteString(");\n")
	}
	for _, t := range s.Tables {
		for _, fk := range t.ForeignKeys {
			ref, ok := s.Table(fk.RefTable)
			if !ok {
				continue
			}
			b.WriteString("\nALTER TABLE ")
			writeQualified(&b, t)
			b.WriteString(" ADD FOREIGN KEY (")
			b.WriteString(quote(fk.Column))
			b.WriteString(") REFERENCES ")
			writeQualified(&b, ref)
			b.WriteString(" (")
			b.WriteString(quote(fk.RefColumn))
			b.WriteString(");\n")
		}
	}
	return b.String()
}

func writeQualified(b *strings.Builder, t *schema.Table) {
	b.WriteString(quote(t.Schema))
	b.WriteByte('.')
	b.WriteString(quote(t.Name))
}

// quote wraps identifiers the parser would otherwise fold or reject.
func quote(ident string) string {
	if plainIdent.MatchString(ident) {
		return ident
	}
	return `"` + ident + `"`
}
