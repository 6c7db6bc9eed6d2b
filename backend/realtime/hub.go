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
	"encoding/json"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Hub fans out domain events to connected recipients through the registry.
// Delivery is at-most-once per currently-connected target: absent targets are
// dropped with no queue, no retry and no acknowledgment. Offline clients
// reconcile by re-fetching state over REST; every mutation is observable via a
// subsequent read independent of the push.
type Hub struct {
	registry *Registry
	log      *zap.Logger
	metrics  *hubMetrics
}

func NewHub(registry *Registry, log *zap.Logger, reg prometheus.Registerer) *Hub {
	return &Hub{
		registry: registry,
		log:      log,
		metrics:  newHubMetrics(reg),
	}
}

// Register installs the client, closes any connection it displaced, and
// broadcasts the updated presence snapshot to everyone.
func (h *Hub) Register(c *Client) {
	if displaced := h.registry.Register(c); displaced != nil {
		h.log.Info("connection displaced by reconnect", zap.String("userId", c.UserID))
		displaced.close()
	}
	h.metrics.connections.Set(float64(h.registry.size()))
	h.log.Info("user connected", zap.String("userId", c.UserID), zap.String("name", c.FullName))
	h.broadcastPresence()
}

// Unregister removes the client (no-op for a stale handle) and rebroadcasts
// presence.
func (h *Hub) Unregister(c *Client) {
	if !h.registry.Unregister(c) {
		return
	}
	h.metrics.connections.Set(float64(h.registry.size()))
	h.log.Info("user disconnected", zap.String("userId", c.UserID))
	h.broadcastPresence()
}

// Dispatch pushes (event, payload) to every connected target except
// excludeID, in targetIDs order. Disconnected targets are skipped silently.
func (h *Hub) Dispatch(event string, payload any, targetIDs []string, excludeID string) {
	frame, err := marshalEnvelope(event, payload)
	if err != nil {
		h.log.Error("marshal event", zap.String("event", event), zap.Error(err))
		return
	}
	for _, id := range targetIDs {
		if id == excludeID {
			continue
		}
		h.push(event, id, frame)
	}
}

// Broadcast pushes (event, payload) to every connected client.
func (h *Hub) Broadcast(event string, payload any) {
	frame, err := marshalEnvelope(event, payload)
	if err != nil {
		h.log.Error("marshal event", zap.String("event", event), zap.Error(err))
		return
	}
	for _, c := range h.registry.snapshot() {
		h.deliver(event, c, frame)
	}
}

func (h *Hub) push(event, userID string, frame []byte) {
	c, ok := h.registry.Lookup(userID)
	if !ok {
		return
	}
	h.deliver(event, c, frame)
}

func (h *Hub) deliver(event string, c *Client, frame []byte) {
	if !c.enqueue(frame) {
		h.metrics.dropped.Inc()
		h.log.Debug("send buffer full, frame dropped",
			zap.String("event", event), zap.String("userId", c.UserID))
		return
	}
	h.metrics.dispatched.WithLabelValues(event).Inc()
}

func (h *Hub) broadcastPresence() {
	h.Broadcast(EventOnlineUsers, h.registry.OnlineUserIDs())
}

func marshalEnvelope(event string, payload any) ([]byte, error) {
	var data json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		data = b
	}
	return json.Marshal(Envelope{Event: event, Data: data})
}
