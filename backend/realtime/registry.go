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
	"sort"
	"sync"
)

// Registry is the process-local map from user id to live connection. Not
// durable: a restart drops all presence state and clients re-register on
// reconnect. Scoped to a single process; horizontal scaling would need a
// shared pub/sub fabric in front of it.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]*Client)}
}

// Register installs c as the sole connection for its user id and returns the
// displaced client, if any. Never fails.
func (r *Registry) Register(c *Client) (displaced *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	displaced = r.clients[c.UserID]
	r.clients[c.UserID] = c
	return displaced
}

// Unregister removes c if it is still the registered connection for its user
// id. A stale handle (already displaced by a reconnect) is left alone, so a
// late disconnect cannot evict a newer connection. Reports whether the entry
// was removed.
func (r *Registry) Unregister(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.clients[c.UserID] != c {
		return false
	}
	delete(r.clients, c.UserID)
	return true
}

// Lookup returns the live connection for userID. Absence means "not currently
// reachable", never an error.
func (r *Registry) Lookup(userID string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[userID]
	return c, ok
}

// OnlineUserIDs returns the sorted set of connected user ids — the presence
// snapshot broadcast on every register/unregister.
func (r *Registry) OnlineUserIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.clients))
	for id := range r.clients {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// snapshot returns all live clients for a broadcast.
func (r *Registry) snapshot() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, c)
	}
	return out
}

func (r *Registry) size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}
