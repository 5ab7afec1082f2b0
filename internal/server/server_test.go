// Copyright 2024-present The erd-pets Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/erdpets/erdpets/layout"
	"github.com/erdpets/erdpets/session"
)

type memFile struct{ text string }

func (f *memFile) ReadFile(context.Context) (string, error) { return f.text, nil }
func (f *memFile) WriteFile(_ context.Context, text string) error {
	f.text = text
	return nil
}

const testFile = `/* @erd-pets

[main]
app.*
*/

CREATE TABLE app.users (id INT NOT NULL);
ALTER TABLE app.users ADD PRIMARY KEY (id);
CREATE TABLE app.posts (id INT, author_id INT);
ALTER TABLE app.posts ADD FOREIGN KEY (author_id) REFERENCES app.users;
`

func testServer(t *testing.T, f *memFile) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	sess := session.New(f, layout.Grid{}, nil)
	_, err := sess.Load(context.Background())
	require.NoError(t, err)
	return New(&Config{Addr: "127.0.0.1:0", Env: "test", AllowOrigins: "*"}, sess, nil)
}

func do(t *testing.T, r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd *strings.Reader
	if body == "" {
		rd = strings.NewReader("")
	} else {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestServer_Diagrams(t *testing.T) {
	s := testServer(t, &memFile{text: testFile})
	w := do(t, s.Router(), http.MethodGet, "/api/diagrams", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"diagrams":["main"]}`, w.Body.String())
}

func TestServer_Model(t *testing.T) {
	s := testServer(t, &memFile{text: testFile})
	w := do(t, s.Router(), http.MethodGet, "/api/model?diagram=main", "")
	require.Equal(t, http.StatusOK, w.Code)

	var out modelJSON
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Equal(t, "main", out.Diagram)
	require.Len(t, out.Nodes, 2)
	require.Len(t, out.Edges, 1)
	require.Equal(t, "app.posts", out.Edges[0].From)
	require.True(t, out.Nodes[0].Columns[0].PK)
}

func TestServer_ModelUnknownDiagram(t *testing.T) {
	s := testServer(t, &memFile{text: testFile})
	w := do(t, s.Router(), http.MethodGet, "/api/model?diagram=nope", "")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_PositionsAndSave(t *testing.T) {
	f := &memFile{text: testFile}
	s := testServer(t, f)
	w := do(t, s.Router(), http.MethodPost, "/api/positions",
		`{"diagram":"main","positions":{"app.users":{"x":33,"y":44}},"save":true}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"state":"loaded"`)
	require.Contains(t, f.text, "app.users 33 44")
	// SQL below the block is untouched by the save.
	require.Contains(t, f.text, "CREATE TABLE app.users (id INT NOT NULL);")
}

func TestServer_PositionsBadRequest(t *testing.T) {
	s := testServer(t, &memFile{text: testFile})
	w := do(t, s.Router(), http.MethodPost, "/api/positions", `{"positions":{}}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_Refresh(t *testing.T) {
	f := &memFile{text: testFile}
	s := testServer(t, f)
	f.text += "CREATE TABLE app.tags (id INT);\n"
	w := do(t, s.Router(), http.MethodPost, "/api/refresh?diagram=main", "")
	require.Equal(t, http.StatusOK, w.Code)

	var out modelJSON
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Len(t, out.Nodes, 3)
}
