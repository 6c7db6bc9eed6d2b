// Copyright (C) 2025 flashchat.io <dev@flashchat.io>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/flashchat/flashchat/backend/middleware"
	"github.com/flashchat/flashchat/backend/models"
	"github.com/flashchat/flashchat/backend/storage"
)

// fakeStore is an in-memory storage.Store for handler tests.
type fakeStore struct {
	mu       sync.Mutex
	users    map[string]*models.User
	messages map[string]*models.Message
	groups   map[string]*models.Group
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    map[string]*models.User{},
		messages: map[string]*models.Message{},
		groups:   map[string]*models.Group{},
	}
}

func (s *fakeStore) addUser(name string) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &models.User{
		ID:       primitive.NewObjectID(),
		FullName: name,
		Email:    strings.ToLower(name) + "@example.com",
	}
	s.users[u.ID.Hex()] = u
	return u
}

func (s *fakeStore) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user.ID = primitive.NewObjectID()
	s.users[user.ID.Hex()] = user
	return nil
}

func (s *fakeStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, storage.ErrNotFound
}

func (s *fakeStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *fakeStore) ListContacts(ctx context.Context, exceptID string) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.User{}
	for id, u := range s.users {
		if id != exceptID {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (s *fakeStore) GetProfiles(ctx context.Context, ids []string) ([]models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Profile{}
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out = append(out, u.Profile())
		}
	}
	return out, nil
}

func (s *fakeStore) UpdateProfilePic(ctx context.Context, id, url string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	u.ProfilePic = url
	return u, nil
}

func (s *fakeStore) UserExists(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.users[id]
	return ok, nil
}

func (s *fakeStore) SaveMessage(ctx context.Context, msg *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg.ID = primitive.NewObjectID()
	s.messages[msg.ID.Hex()] = msg
	return nil
}

func (s *fakeStore) GetMessageByID(ctx context.Context, id string) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.messages[id]; ok {
		return m, nil
	}
	return nil, storage.ErrNotFound
}

func (s *fakeStore) DeleteMessage(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.messages[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.messages, id)
	return nil
}

func (s *fakeStore) GetPrivateMessages(ctx context.Context, userID, peerID string) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Message{}
	for _, m := range s.messages {
		if m.ReceiverID == nil {
			continue
		}
		sender, receiver := m.SenderID.Hex(), m.ReceiverID.Hex()
		if (sender == userID && receiver == peerID) || (sender == peerID && receiver == userID) {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (s *fakeStore) GetGroupMessages(ctx context.Context, groupID string) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Message{}
	for _, m := range s.messages {
		if m.GroupID != nil && m.GroupID.Hex() == groupID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (s *fakeStore) GetChatPartnerIDs(ctx context.Context, userID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[string]bool{}
	out := []string{}
	for _, m := range s.messages {
		if m.ReceiverID == nil {
			continue
		}
		partner := ""
		if m.SenderID.Hex() == userID {
			partner = m.ReceiverID.Hex()
		} else if m.ReceiverID.Hex() == userID {
			partner = m.SenderID.Hex()
		}
		if partner != "" && !seen[partner] {
			seen[partner] = true
			out = append(out, partner)
		}
	}
	return out, nil
}

func (s *fakeStore) CreateGroup(ctx context.Context, group *models.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	group.ID = primitive.NewObjectID()
	s.groups[group.ID.Hex()] = group
	return nil
}

func (s *fakeStore) GetGroupByID(ctx context.Context, id string) (*models.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g, ok := s.groups[id]; ok {
		copied := *g
		copied.Admin = append([]primitive.ObjectID{}, g.Admin...)
		copied.Members = append([]primitive.ObjectID{}, g.Members...)
		return &copied, nil
	}
	return nil, storage.ErrNotFound
}

func (s *fakeStore) SaveGroup(ctx context.Context, group *models.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[group.ID.Hex()]; !ok {
		return storage.ErrNotFound
	}
	copied := *group
	s.groups[group.ID.Hex()] = &copied
	return nil
}

func (s *fakeStore) DeleteGroup(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.groups, id)
	return nil
}

func (s *fakeStore) GetGroupsForUser(ctx context.Context, userID string) ([]models.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Group{}
	for _, g := range s.groups {
		for _, m := range g.Members {
			if m.Hex() == userID {
				out = append(out, *g)
				break
			}
		}
	}
	return out, nil
}

// fakeCache is an in-memory storage.HistoryCache recording invalidations.
type fakeCache struct {
	mu           sync.Mutex
	entries      map[string][]byte
	invalidated  []string
	getErr       error
	setCallCount int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string][]byte{}}
}

func (c *fakeCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, c.getErr
	}
	return c.entries[key], nil
}

func (c *fakeCache) Set(ctx context.Context, key string, snapshot []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setCallCount++
	c.entries[key] = snapshot
	return nil
}

func (c *fakeCache) Invalidate(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, key)
	delete(c.entries, key)
	return nil
}

// fakeDispatcher records every fan-out call.
type dispatched struct {
	event   string
	payload any
	targets []string
	exclude string
}

type fakeDispatcher struct {
	mu     sync.Mutex
	events []dispatched
}

func (d *fakeDispatcher) Dispatch(event string, payload any, targetIDs []string, excludeID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, dispatched{event: event, payload: payload, targets: targetIDs, exclude: excludeID})
}

func (d *fakeDispatcher) byEvent(event string) []dispatched {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := []dispatched{}
	for _, e := range d.events {
		if e.event == event {
			out = append(out, e)
		}
	}
	return out
}

// authedRequest builds a request carrying an authenticated user id, with
// optional mux path vars.
func authedRequest(method, target, body, userID string, vars map[string]string) *http.Request {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req = req.WithContext(middleware.WithUserID(req.Context(), userID))
	if vars != nil {
		req = mux.SetURLVars(req, vars)
	}
	return req
}
