// Copyright (C) 2025 flashchat.io <dev@flashchat.io>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package realtime

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testHub(t *testing.T) *Hub {
	t.Helper()
	return NewHub(NewRegistry(), zap.NewNop(), prometheus.NewRegistry())
}

// recvEnvelope pops the next frame off a client's send buffer.
func recvEnvelope(t *testing.T, c *Client) Envelope {
	t.Helper()
	select {
	case data, ok := <-c.send:
		require.True(t, ok, "send channel closed")
		var env Envelope
		require.NoError(t, json.Unmarshal(data, &env))
		return env
	case <-time.After(time.Second):
		t.Fatal("no frame delivered")
		return Envelope{}
	}
}

func assertNoFrame(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data := <-c.send:
		t.Fatalf("unexpected frame: %s", data)
	default:
	}
}

func TestDispatchReachesConnectedTargetsOnly(t *testing.T) {
	h := testHub(t)
	a := testClient("a", "A")
	b := testClient("b", "B")
	h.registry.Register(a)
	h.registry.Register(b)

	h.Dispatch("newMessage", map[string]string{"text": "hi"}, []string{"a", "b", "ghost"}, "")

	for _, c := range []*Client{a, b} {
		env := recvEnvelope(t, c)
		assert.Equal(t, "newMessage", env.Event)
		assert.JSONEq(t, `{"text":"hi"}`, string(env.Data))
	}
}

func TestDispatchToAbsentTargetIsSilent(t *testing.T) {
	h := testHub(t)
	// No registered clients at all: must not panic, must not error.
	h.Dispatch("newMessage", "x", []string{"ghost"}, "")
}

func TestDispatchExcludesAuthor(t *testing.T) {
	h := testHub(t)
	author := testClient("author", "A")
	peer := testClient("peer", "P")
	h.registry.Register(author)
	h.registry.Register(peer)

	h.Dispatch("groupUpdated", "payload", []string{"author", "peer"}, "author")

	recvEnvelope(t, peer)
	assertNoFrame(t, author)
}

func TestDispatchDropsWhenSendBufferFull(t *testing.T) {
	h := testHub(t)
	c := testClient("slow", "S")
	h.registry.Register(c)

	for i := 0; i < sendBufferSize; i++ {
		require.True(t, c.enqueue([]byte("x")))
	}

	// Frame is dropped, not queued and not blocking.
	h.Dispatch("newMessage", "overflow", []string{"slow"}, "")
	assert.Len(t, c.send, sendBufferSize)
}

func TestRegisterBroadcastsPresenceSnapshot(t *testing.T) {
	h := testHub(t)

	a := testClient("a", "A")
	h.Register(a)
	env := recvEnvelope(t, a)
	assert.Equal(t, EventOnlineUsers, env.Event)
	assert.JSONEq(t, `["a"]`, string(env.Data))

	b := testClient("b", "B")
	h.Register(b)
	for _, c := range []*Client{a, b} {
		env := recvEnvelope(t, c)
		assert.Equal(t, EventOnlineUsers, env.Event)
		assert.JSONEq(t, `["a","b"]`, string(env.Data))
	}

	h.Unregister(b)
	env = recvEnvelope(t, a)
	assert.Equal(t, EventOnlineUsers, env.Event)
	assert.JSONEq(t, `["a"]`, string(env.Data))
}

func TestRegisterDisplacesPriorConnection(t *testing.T) {
	h := testHub(t)
	c1 := testClient("u", "U")
	c2 := testClient("u", "U")

	h.Register(c1)
	recvEnvelope(t, c1) // presence

	h.Register(c2)

	// The displaced client's channel is closed once drained.
	for {
		if _, ok := <-c1.send; !ok {
			break
		}
	}

	h.Dispatch("newMessage", "x", []string{"u"}, "")
	env := recvEnvelope(t, c2) // presence from second register
	assert.Equal(t, EventOnlineUsers, env.Event)
	env = recvEnvelope(t, c2)
	assert.Equal(t, "newMessage", env.Event)

	// Unregistering the stale handle must not disturb the replacement.
	h.Unregister(c1)
	_, ok := h.registry.Lookup("u")
	assert.True(t, ok)
}
