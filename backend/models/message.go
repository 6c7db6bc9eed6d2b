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

// Message is a single chat message. Exactly one of ReceiverID (private chat)
// or GroupID (group chat) is set. System messages are server-synthesized
// membership narration ("X added Y") and carry the acting user as sender.
type Message struct {
	ID              primitive.ObjectID  `json:"_id" bson:"_id,omitempty"`
	SenderID        primitive.ObjectID  `json:"senderId" bson:"senderId"`
	ReceiverID      *primitive.ObjectID `json:"receiverId,omitempty" bson:"receiverId,omitempty"`
	GroupID         *primitive.ObjectID `json:"groupId,omitempty" bson:"groupId,omitempty"`
	Text            string              `json:"text,omitempty" bson:"text,omitempty"`
	Image           string              `json:"image,omitempty" bson:"image,omitempty"`
	IsSystemMessage bool                `json:"isSystemMessage" bson:"isSystemMessage,omitempty"`
	CreatedAt       time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// ConversationKey derives the cache key of the conversation the message
// belongs to. Must be computed from pre-mutation state when deleting, since
// it depends on fields the delete removes.
func (m *Message) ConversationKey() string {
	if m.GroupID != nil {
		return GroupConversationKey(m.GroupID.Hex())
	}
	if m.ReceiverID != nil {
		return PrivateConversationKey(m.SenderID.Hex(), m.ReceiverID.Hex())
	}
	return ""
}
