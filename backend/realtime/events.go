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

	"github.com/flashchat/flashchat/backend/models"
)

// Server-to-client event names.
const (
	EventOnlineUsers    = "getOnlineUsers"
	EventNewMessage     = "newMessage"
	EventMessageDeleted = "messageDeleted"
	EventNewGroup       = "newGroup"
	EventGroupUpdated   = "groupUpdated"
	EventCallOffer      = "call-user"
	EventCallAccepted   = "call-accepted"
	EventICECandidate   = "receive-ice-candidate"
	EventCallEnded      = "call-ended"
)

// Client-to-server event names (call signaling only; everything else goes
// through the REST API).
const (
	inboundCallUser     = "call-user"
	inboundAnswerCall   = "answer-call"
	inboundICECandidate = "send-ice-candidate"
	inboundEndCall      = "end-call"
)

// Envelope is the wire frame in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewMessagePayload is a message, optionally annotated with the sender's
// profile so a private-chat receiver can update their chat list without a
// second fetch.
type NewMessagePayload struct {
	models.Message
	SenderProfile *models.Profile `json:"senderProfile,omitempty"`
}

// MessageDeletedPayload identifies a deleted message to its original audience.
type MessageDeletedPayload struct {
	MessageID string `json:"messageId"`
}

// GroupRemovedPayload is the groupUpdated variant pushed to a user who was
// removed from a group, so their client can clear local state.
type GroupRemovedPayload struct {
	ID         string `json:"_id"`
	WasRemoved bool   `json:"wasRemoved"`
	Name       string `json:"name"`
}

// CallOfferPayload carries the caller's SDP offer to the callee. From and
// Name are taken from the authenticated connection, never from the client
// payload.
type CallOfferPayload struct {
	Signal json.RawMessage `json:"signal"`
	From   string          `json:"from"`
	Name   string          `json:"name"`
}

type callUserRequest struct {
	UserToCall string          `json:"userToCall"`
	SignalData json.RawMessage `json:"signalData"`
}

type answerCallRequest struct {
	To     string          `json:"to"`
	Signal json.RawMessage `json:"signal"`
}

type iceCandidateRequest struct {
	To        string          `json:"to"`
	Candidate json.RawMessage `json:"candidate"`
}

type endCallRequest struct {
	To string `json:"to"`
}
