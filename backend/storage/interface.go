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

package storage

import (
	"context"
	"errors"

	"github.com/flashchat/flashchat/backend/models"
)

// ErrNotFound is returned when a requested record does not exist. Handlers
// map it to 404; everything else is a server error.
var ErrNotFound = errors.New("not found")

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// ListContacts returns every user except the given one, for the contact
	// picker. Password hashes are stripped by the model's json tags.
	ListContacts(ctx context.Context, exceptID string) ([]models.User, error)
	GetProfiles(ctx context.Context, ids []string) ([]models.Profile, error)
	UpdateProfilePic(ctx context.Context, id, url string) (*models.User, error)
	UserExists(ctx context.Context, id string) (bool, error)
}

type MessageStore interface {
	SaveMessage(ctx context.Context, msg *models.Message) error
	GetMessageByID(ctx context.Context, id string) (*models.Message, error)
	DeleteMessage(ctx context.Context, id string) error
	GetPrivateMessages(ctx context.Context, userID, peerID string) ([]models.Message, error)
	GetGroupMessages(ctx context.Context, groupID string) ([]models.Message, error)
	// GetChatPartnerIDs returns the distinct user ids the given user has
	// exchanged private messages with.
	GetChatPartnerIDs(ctx context.Context, userID string) ([]string, error)
}

type GroupStore interface {
	CreateGroup(ctx context.Context, group *models.Group) error
	GetGroupByID(ctx context.Context, id string) (*models.Group, error)
	// SaveGroup persists the current member/admin sets of an existing group.
	SaveGroup(ctx context.Context, group *models.Group) error
	DeleteGroup(ctx context.Context, id string) error
	GetGroupsForUser(ctx context.Context, userID string) ([]models.Group, error)
}

// HistoryCache fronts conversation history reads with a TTL-bounded snapshot
// keyed by conversation key. Get returns (nil, nil) on a miss. The cache is an
// accelerator: callers must treat any error as a miss and fall through to the
// database.
type HistoryCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, snapshot []byte) error
	Invalidate(ctx context.Context, key string) error
}

type Store interface {
	UserStore
	MessageStore
	GroupStore
}
