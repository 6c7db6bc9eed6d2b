// Copyright (C) 2025 flashchat.io <dev@flashchat.io>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// nopConn satisfies Conn for tests that never run the pumps.
type nopConn struct{}

func (nopConn) ReadMessage() (int, []byte, error) { return 0, nil, nil }
func (nopConn) WriteMessage(int, []byte) error    { return nil }
func (nopConn) Close() error                      { return nil }

func testClient(userID, name string) *Client {
	return NewClient(userID, name, nopConn{})
}

func TestRegistryLookupReturnsMostRecentHandle(t *testing.T) {
	r := NewRegistry()

	_, ok := r.Lookup("u1")
	assert.False(t, ok)

	c1 := testClient("u1", "one")
	assert.Nil(t, r.Register(c1))

	got, ok := r.Lookup("u1")
	require.True(t, ok)
	assert.Same(t, c1, got)

	// A reconnect overwrites and reports the displaced handle.
	c2 := testClient("u1", "one")
	assert.Same(t, c1, r.Register(c2))

	got, ok = r.Lookup("u1")
	require.True(t, ok)
	assert.Same(t, c2, got)
}

func TestRegistryUnregisterIsIdempotent(t *testing.T) {
	r := NewRegistry()
	c := testClient("u1", "one")

	r.Register(c)
	assert.True(t, r.Unregister(c))
	assert.False(t, r.Unregister(c))

	_, ok := r.Lookup("u1")
	assert.False(t, ok)
}

func TestRegistryStaleHandleCannotEvictReplacement(t *testing.T) {
	r := NewRegistry()
	c1 := testClient("u1", "one")
	c2 := testClient("u1", "one")

	r.Register(c1)
	r.Register(c2)

	// The displaced connection disconnects late; the new one must survive.
	assert.False(t, r.Unregister(c1))
	got, ok := r.Lookup("u1")
	require.True(t, ok)
	assert.Same(t, c2, got)
}

func TestRegistryOnlineUserIDsSorted(t *testing.T) {
	r := NewRegistry()
	r.Register(testClient("charlie", "c"))
	r.Register(testClient("alice", "a"))
	r.Register(testClient("bob", "b"))

	assert.Equal(t, []string{"alice", "bob", "charlie"}, r.OnlineUserIDs())
}
