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

// User is the account record. The password hash never leaves the server;
// json marshalling strips it.
type User struct {
	ID         primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	FullName   string             `json:"fullName" bson:"fullName"`
	Email      string             `json:"email" bson:"email"`
	Password   string             `json:"-" bson:"password"`
	ProfilePic string             `json:"profilePic" bson:"profilePic"`
	CreatedAt  time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// Profile is the public projection of a user embedded in group records and
// push payloads.
type Profile struct {
	ID         primitive.ObjectID `json:"_id" bson:"_id"`
	FullName   string             `json:"fullName" bson:"fullName"`
	ProfilePic string             `json:"profilePic" bson:"profilePic"`
}

// Profile returns the public projection of u.
func (u *User) Profile() Profile {
	return Profile{ID: u.ID, FullName: u.FullName, ProfilePic: u.ProfilePic}
}
