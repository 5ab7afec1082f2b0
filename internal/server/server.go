// Copyright 2024-present The erd-pets Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

// Package server is the live preview: it serves the resolved render
// model as JSON and pushes refresh notifications over a websocket.
// The browser client that draws the canvas is not part of this
// repository.
package server

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"

	"github.com/erdpets/erdpets/diagram"
	"github.com/erdpets/erdpets/reconcile"
	"github.com/erdpets/erdpets/session"
)

// Server exposes one session over HTTP. The session core is
// synchronous and single-threaded; the mutex serializes handlers so
// at most one load, refresh or save is ever in flight.
type Server struct {
	cfg *Config
	log *zap.Logger
	hub *hub

	mu   sync.Mutex
	sess *session.Session
}

// New wires a server around an already-loaded session.
func New(cfg *Config, sess *session.Session, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{cfg: cfg, log: log, hub: newHub(log), sess: sess}
}

// Router builds the gin engine with all routes attached.
func (s *Server) Router() *gin.Engine {
	if s.cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLog())
	r.Use(cors.New(cors.Config{
		AllowOrigins: []string{s.cfg.AllowOrigins},
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{"Content-Type"},
	}))
	api := r.Group("/api")
	api.GET("/diagrams", s.handleDiagrams)
	api.GET("/model", s.handleModel)
	api.POST("/refresh", s.handleRefresh)
	api.POST("/positions", s.handlePositions)
	api.GET("/ws", s.handleWS)
	return r
}

// Run serves until the listener fails.
func (s *Server) Run() error {
	s.log.Info("preview server listening", zap.String("addr", s.cfg.Addr))
	return s.Router().Run(s.cfg.Addr)
}

type (
	columnJSON struct {
		Name     string `json:"name"`
		Type     string `json:"type"`
		Nullable bool   `json:"nullable"`
		PK       bool   `json:"pk"`
	}
	nodeJSON struct {
		Name    string       `json:"name"`
		X       int          `json:"x"`
		Y       int          `json:"y"`
		Columns []columnJSON `json:"columns"`
	}
	edgeJSON struct {
		From       string `json:"from"`
		FromColumn string `json:"from_column"`
		To         string `json:"to"`
		ToColumn   string `json:"to_column"`
	}
	modelJSON struct {
		Diagram  string     `json:"diagram"`
		Seq      uint64     `json:"seq"`
		State    string     `json:"state"`
		Nodes    []nodeJSON `json:"nodes"`
		Edges    []edgeJSON `json:"edges"`
		Warnings []string   `json:"warnings"`
	}

	positionsJSON struct {
		Diagram   string                   `json:"diagram" binding:"required"`
		Positions map[string]diagram.Point `json:"positions" binding:"required"`
		Save      bool                     `json:"save"`
	}
)

func (s *Server) handleDiagrams(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"diagrams": s.sess.Diagrams()})
}

func (s *Server) handleModel(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name := c.Query("diagram")
	m, warns, err := s.sess.Resolve(name)
	if err != nil {
		status(c, err)
		return
	}
	c.JSON(http.StatusOK, s.modelJSON(name, m, warns))
}

// handleRefresh re-reads the file, re-resolves the named diagram and
// tells every connected preview to re-fetch.
func (s *Server) handleRefresh(c *gin.Context) {
	s.mu.Lock()
	name := c.Query("diagram")
	res, err := s.sess.Refresh(c.Request.Context(), name)
	if err != nil {
		s.mu.Unlock()
		status(c, err)
		return
	}
	body := s.modelJSON(name, res.Model, res.Warns)
	for _, w := range res.SchemaWarns {
		body.Warnings = append(body.Warnings, w.String())
	}
	s.mu.Unlock()
	s.hub.broadcast("refresh")
	c.JSON(http.StatusOK, body)
}

// handlePositions records drag-end coordinates and, when asked to,
// saves the file.
func (s *Server) handlePositions(c *gin.Context) {
	var req positionsJSON
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for table, p := range req.Positions {
		if err := s.sess.SetPosition(req.Diagram, table, p); err != nil {
			status(c, err)
			return
		}
	}
	if req.Save {
		if err := s.sess.Save(c.Request.Context()); err != nil {
			status(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"state": s.sess.State().String(), "seq": s.sess.Seq()})
}

func (s *Server) handleWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	s.hub.add(conn)
	go func() {
		// The socket is push-only; reading surfaces the close.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.hub.remove(conn)
				return
			}
		}
	}()
}

func (s *Server) modelJSON(name string, m *reconcile.Model, warns []reconcile.Warning) *modelJSON {
	out := &modelJSON{
		Diagram:  name,
		Seq:      s.sess.Seq(),
		State:    s.sess.State().String(),
		Nodes:    make([]nodeJSON, 0, len(m.Nodes)),
		Edges:    make([]edgeJSON, 0, len(m.Edges)),
		Warnings: make([]string, 0, len(warns)),
	}
	for _, n := range m.Nodes {
		nj := nodeJSON{Name: n.Name, X: n.X, Y: n.Y}
		for _, col := range n.Table.Columns {
			cj := columnJSON{Name: col.Name, Type: col.Type, Nullable: col.Null}
			for _, pk := range n.Table.PrimaryKey {
				if pk == col.Name {
					cj.PK = true
					break
				}
			}
			nj.Columns = append(nj.Columns, cj)
		}
		out.Nodes = append(out.Nodes, nj)
	}
	for _, e := range m.Edges {
		out.Edges = append(out.Edges, edgeJSON{
			From: e.From, FromColumn: e.FK.Column,
			To: e.To, ToColumn: e.FK.RefColumn,
		})
	}
	for _, w := range warns {
		out.Warnings = append(out.Warnings, w.String())
	}
	return out
}

// status maps core errors onto HTTP codes.
func status(c *gin.Context, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, reconcile.ErrDiagramNotFound):
		code = http.StatusNotFound
	case errors.Is(err, session.ErrBusy):
		code = http.StatusConflict
	case errors.Is(err, session.ErrUnloaded):
		code = http.StatusPreconditionFailed
	}
	c.JSON(code, gin.H{"error": err.Error()})
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)),
		)
	}
}
