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

package realtime

import (
	"sync"

	"github.com/gorilla/websocket"
)

// sendBufferSize bounds per-connection backlog. A slow consumer loses frames
// rather than blocking the dispatcher; delivery is best-effort by contract.
const sendBufferSize = 64

// Conn is the subset of *websocket.Conn the client needs. Narrowed for tests.
type Conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client is one authenticated websocket connection. Exactly one live client
// is registered per user id; a reconnect displaces the previous one.
type Client struct {
	UserID   string
	FullName string

	conn      Conn
	send      chan []byte
	closeOnce sync.Once
}

func NewClient(userID, fullName string, conn Conn) *Client {
	return &Client{
		UserID:   userID,
		FullName: fullName,
		conn:     conn,
		send:     make(chan []byte, sendBufferSize),
	}
}

// enqueue hands a frame to the write pump without blocking. Reports false if
// the frame was dropped because the client is closed or its buffer is full.
func (c *Client) enqueue(data []byte) (ok bool) {
	defer func() {
		// enqueue races with close; a send on a closed channel means the
		// client is gone and the frame is dropped like any other.
		if recover() != nil {
			ok = false
		}
	}()
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// close shuts the send channel, ending the write pump. Safe to call more than
// once (register-displacement and disconnect can both reach it).
func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.send) })
}

// ReadPump consumes inbound frames until the connection errors, forwarding
// call-signaling envelopes to the hub. Blocks; run on the connection's
// handler goroutine. Unregisters the client on exit.
func (c *Client) ReadPump(h *Hub) {
	defer func() {
		h.Unregister(c)
		c.close()
		c.conn.Close()
	}()
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		h.handleInbound(c, data)
	}
}

// WritePump drains the send buffer onto the connection. Run on its own
// goroutine; exits when the client is closed.
func (c *Client) WritePump() {
	for data := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
	c.conn.Close()
}
