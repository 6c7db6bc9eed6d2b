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

package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Group is the stored form of a group chat: member and admin sets as user id
// arrays. Invariant: admins are a non-empty subset of members; a group whose
// member set becomes empty is deleted rather than saved.
type Group struct {
	ID         primitive.ObjectID   `json:"_id" bson:"_id,omitempty"`
	Name       string               `json:"name" bson:"name"`
	Admin      []primitive.ObjectID `json:"admin" bson:"admin"`
	Members    []primitive.ObjectID `json:"members" bson:"members"`
	GroupImage string               `json:"groupImage" bson:"groupImage"`
	CreatedAt  time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time            `json:"updatedAt" bson:"updatedAt"`
}

// GroupDetail is a group with member and admin ids resolved to public
// profiles. This is the shape returned by the REST API and pushed in
// newGroup/groupUpdated events.
type GroupDetail struct {
	ID         primitive.ObjectID `json:"_id"`
	Name       string             `json:"name"`
	Admin      []Profile          `json:"admin"`
	Members    []Profile          `json:"members"`
	GroupImage string             `json:"groupImage"`
	CreatedAt  time.Time          `json:"createdAt"`
	UpdatedAt  time.Time          `json:"updatedAt"`
}

// IsAdmin reports whether userID is in the admin set.
func (g *Group) IsAdmin(userID primitive.ObjectID) bool {
	for _, id := range g.Admin {
		if id == userID {
			return true
		}
	}
	return false
}

// IsMember reports whether userID is in the member set.
func (g *Group) IsMember(userID primitive.ObjectID) bool {
	for _, id := range g.Members {
		if id == userID {
			return true
		}
	}
	return false
}

// MemberIDs returns the member set as hex strings, in stored order.
func (g *Group) MemberIDs() []string {
	ids := make([]string, 0, len(g.Members))
	for _, id := range g.Members {
		ids = append(ids, id.Hex())
	}
	return ids
}

// RemoveUser drops userID from both the member and admin sets.
func (g *Group) RemoveUser(userID primitive.ObjectID) {
	g.Members = removeID(g.Members, userID)
	g.Admin = removeID(g.Admin, userID)
}

func removeID(ids []primitive.ObjectID, target primitive.ObjectID) []primitive.ObjectID {
	out := ids[:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}
