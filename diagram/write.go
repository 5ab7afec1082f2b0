// Copyright 2024-present The erd-pets Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package diagram

import (
	"fmt"
	"strconv"
	"strings"
)

// MarshalText renders the set as a complete layout block, delimiters
// included. Diagram order, entry order and wildcard entries are
// written exactly as held. Every position entry must carry concrete
// coordinates by this point; reconciliation's placement step
// guarantees that before a save.
func (s *Set) MarshalText() ([]byte, error) {
	var b strings.Builder
	b.WriteString(openMarker)
	b.WriteByte('\n')
	for _, d := range s.Diagrams {
		b.WriteString("\n[")
		b.WriteString(d.Name)
		b.WriteString("]\n")
		for _, e := range d.Entries {
			switch e := e.(type) {
			case *Position:
				if !e.Placed {
					return nil, fmt.Errorf("diagram %q: entry %q has no position", d.Name, e.Table)
				}
				b.WriteString(e.Table)
				b.WriteByte(' ')
				b.WriteString(strconv.Itoa(e.X))
				b.WriteByte(' ')
				b.WriteString(strconv.Itoa(e.Y))
				b.WriteByte('\n')
			case *Wildcard:
				b.WriteString(e.Schema)
				b.WriteString(".*\n")
			}
		}
	}
	b.WriteString(closeMarker)
	return []byte(b.String()), nil
}

// Splice writes the block into the file text. When a block already
// exists, the span from the first open marker through its closing
// marker is replaced; otherwise the block is prepended, separated by a
// blank line. Every byte outside the block passes through unchanged.
func Splice(fileText, block string) string {
	if i := strings.Index(fileText, openMarker); i != -1 {
		if j := strings.Index(fileText[i:], closeMarker); j != -1 {
			return fileText[:i] + block + fileText[i+j+len(closeMarker):]
		}
	}
	return block + "\n\n" + fileText
}
