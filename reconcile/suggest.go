// Copyright 2024-present The erd-pets Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package reconcile

import (
	"github.com/texttheater/golang-levenshtein/levenshtein"

	"github.com/erdpets/erdpets/schema"
)

// maxSuggestDistance caps how far a table name may be from an unknown
// entry and still be offered as a suggestion.
const maxSuggestDistance = 2

// closest returns the schema table whose qualified name is nearest to
// the given one, or "" when nothing is close enough. Ties keep the
// earlier declaration.
func closest(name string, s *schema.Schema) string {
	var (
		best     string
		bestDist = maxSuggestDistance + 1
	)
	for _, t := range s.Tables {
		q := t.Qualified()
		d := levenshtein.DistanceForStrings([]rune(name), []rune(q), levenshtein.DefaultOptions)
		if d < bestDist {
			best, bestDist = q, d
		}
	}
	return best
}
