// Copyright 2024-present The erd-pets Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package schema

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStmts(t *testing.T) {
	all, err := stmts(`
-- leading comment
CREATE TABLE a.t (id INT);

/* @erd-pets
[main]
a.t 10 20
*/

ALTER TABLE a.t ADD PRIMARY KEY (id);
INSERT INTO a.t VALUES ('semi;colon');
`)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "CREATE TABLE a.t (id INT)", all[0].Text)
	require.Equal(t, "ALTER TABLE a.t ADD PRIMARY KEY (id)", all[1].Text)
	require.Equal(t, "INSERT INTO a.t VALUES ('semi;colon')", all[2].Text)
}

func TestStmts_MissingTrailingSemicolon(t *testing.T) {
	all, err := stmts("CREATE TABLE a.t (id INT)")
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, "CREATE TABLE a.t (id INT)", all[0].Text)
}

func TestStmts_UnclosedParen(t *testing.T) {
	_, err := stmts("CREATE TABLE a.t (id INT")
	require.Error(t, err)
}

func TestStmts_Empty(t *testing.T) {
	all, err := stmts("  \n\t")
	require.NoError(t, err)
	require.Empty(t, all)
}
