// Copyright (C) 2025 flashchat.io <dev@flashchat.io>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/flashchat/flashchat/backend/middleware"
	"github.com/flashchat/flashchat/backend/realtime"
	"github.com/flashchat/flashchat/backend/storage"
)

// WSHandler authenticates the session cookie, upgrades the connection and
// registers the client with the hub. The handler goroutine runs the read
// pump; a second goroutine runs the write pump.
type WSHandler struct {
	users     storage.UserStore
	hub       *realtime.Hub
	jwtSecret string
	upgrader  websocket.Upgrader
	log       *zap.Logger
}

func NewWSHandler(users storage.UserStore, hub *realtime.Hub, jwtSecret string, allowedOrigins []string, log *zap.Logger) *WSHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if origin != "" {
			allowed[origin] = true
		}
	}
	return &WSHandler{
		users:     users,
		hub:       hub,
		jwtSecret: jwtSecret,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed[origin]
			},
		},
		log: log,
	}
}

func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(middleware.CookieName)
	if err != nil || cookie.Value == "" {
		writeError(w, http.StatusUnauthorized, "Unauthorized - No token provided")
		return
	}
	claims, err := middleware.ParseToken(h.jwtSecret, cookie.Value)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized - Invalid token")
		return
	}

	user, err := h.users.GetUserByID(r.Context(), claims.UserID)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusUnauthorized, "Unauthorized - User not found")
		return
	}
	if err != nil {
		h.log.Error("ws auth lookup", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Server Error")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		h.log.Debug("ws upgrade failed", zap.Error(err))
		return
	}

	client := realtime.NewClient(user.ID.Hex(), user.FullName, conn)
	h.hub.Register(client)
	go client.WritePump()
	client.ReadPump(h.hub)
}
