// Copyright 2024-present The erd-pets Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package server

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	// The preview is a local tool; the HTTP layer already applies a
	// CORS policy, so any origin may open the socket.
	CheckOrigin: func(*http.Request) bool { return true },
}

// hub tracks the open preview sockets and pushes one-way
// notifications, e.g. "refresh" after the schema file changed.
type hub struct {
	log *zap.Logger

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

func newHub(log *zap.Logger) *hub {
	return &hub{log: log, conns: make(map[*websocket.Conn]struct{})}
}

func (h *hub) add(c *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c] = struct{}{}
}

func (h *hub) remove(c *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, c)
	c.Close()
}

// broadcast sends the message to every open socket, dropping the ones
// that fail.
func (h *hub) broadcast(msg string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.conns {
		if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
			h.log.Debug("dropping preview socket", zap.Error(err))
			delete(h.conns, c)
			c.Close()
		}
	}
}
