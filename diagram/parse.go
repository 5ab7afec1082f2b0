// Copyright 2024-present The erd-pets Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package diagram

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/erdpets/erdpets/schema"
)

// Block delimiters. The layout block is an ordinary SQL block comment,
// so the schema file stays valid for any SQL tooling.
const (
	openMarker  = "/* @erd-pets"
	closeMarker = "*/"
)

// ErrNameCollision is returned when two diagrams in one block share a
// name. There is no way to tell which layout the user meant.
var ErrNameCollision = errors.New("diagram: duplicate diagram name")

// Parse extracts the first layout block from the given file text. A
// file without a block yields (nil, nil): absence is a normal state,
// not an error. Unrecognized lines inside the block are ignored so
// that future syntax additions do not corrupt older readers.
func Parse(fileText string) (*Set, error) {
	body, ok := blockBody(fileText)
	if !ok {
		return nil, nil
	}
	var (
		set = &Set{}
		cur *Diagram
	)
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
		case strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]"):
			name := strings.TrimSpace(line[1 : len(line)-1])
			if name == "" {
				continue
			}
			if _, ok := set.Diagram(name); ok {
				return nil, fmt.Errorf("%w: %q", ErrNameCollision, name)
			}
			cur = &Diagram{Name: name}
			set.Diagrams = append(set.Diagrams, cur)
		case cur != nil:
			if e := parseEntry(line); e != nil {
				cur.Entries = append(cur.Entries, e)
			}
		}
	}
	return set, nil
}

// parseEntry parses one entry line, returning nil for lines this
// version does not understand.
func parseEntry(line string) Entry {
	fields := strings.Fields(line)
	name := fields[0]
	if sc, ok := strings.CutSuffix(name, ".*"); ok {
		if len(fields) == 1 && sc != "" && !strings.Contains(sc, ".") {
			return &Wildcard{Schema: sc}
		}
		return nil
	}
	if _, _, ok := schema.SplitQualified(name); !ok {
		return nil
	}
	switch len(fields) {
	case 1:
		return &Position{Table: name}
	case 3:
		x, errX := strconv.Atoi(fields[1])
		y, errY := strconv.Atoi(fields[2])
		if errX != nil || errY != nil {
			return nil
		}
		return &Position{Table: name, X: x, Y: y, Placed: true}
	default:
		return nil
	}
}

// blockBody returns the text between the first delimiter pair.
func blockBody(fileText string) (string, bool) {
	i := strings.Index(fileText, openMarker)
	if i == -1 {
		return "", false
	}
	rest := fileText[i+len(openMarker):]
	j := strings.Index(rest, closeMarker)
	if j == -1 {
		return "", false
	}
	return rest[:j], true
}
