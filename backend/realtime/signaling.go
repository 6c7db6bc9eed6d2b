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

	"go.uber.org/zap"
)

// handleInbound routes a client frame. Only call signaling arrives over the
// socket; the relay is a stateless pass-through keyed by target user id. The
// server never inspects SDP or ICE payloads, and an unreachable target is a
// silent drop — caller-side timeouts own the no-answer case.
func (h *Hub) handleInbound(c *Client, data []byte) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		h.log.Debug("malformed frame", zap.String("userId", c.UserID), zap.Error(err))
		return
	}

	switch env.Event {
	case inboundCallUser:
		var req callUserRequest
		if err := json.Unmarshal(env.Data, &req); err != nil || req.UserToCall == "" {
			return
		}
		h.Dispatch(EventCallOffer, CallOfferPayload{
			Signal: req.SignalData,
			From:   c.UserID,
			Name:   c.FullName,
		}, []string{req.UserToCall}, "")

	case inboundAnswerCall:
		var req answerCallRequest
		if err := json.Unmarshal(env.Data, &req); err != nil || req.To == "" {
			return
		}
		h.Dispatch(EventCallAccepted, req.Signal, []string{req.To}, "")

	case inboundICECandidate:
		var req iceCandidateRequest
		if err := json.Unmarshal(env.Data, &req); err != nil || req.To == "" {
			return
		}
		h.Dispatch(EventICECandidate, req.Candidate, []string{req.To}, "")

	case inboundEndCall:
		var req endCallRequest
		if err := json.Unmarshal(env.Data, &req); err != nil || req.To == "" {
			return
		}
		h.Dispatch(EventCallEnded, nil, []string{req.To}, "")

	default:
		h.log.Debug("unknown inbound event",
			zap.String("event", env.Event), zap.String("userId", c.UserID))
	}
}
