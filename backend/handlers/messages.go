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

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/flashchat/flashchat/backend/integration"
	"github.com/flashchat/flashchat/backend/middleware"
	"github.com/flashchat/flashchat/backend/models"
	"github.com/flashchat/flashchat/backend/realtime"
	"github.com/flashchat/flashchat/backend/storage"
)

type MessageHandler struct {
	store    storage.Store
	cache    storage.HistoryCache
	hub      Dispatcher
	uploader integration.Uploader
	log      *zap.Logger
}

func NewMessageHandler(store storage.Store, cache storage.HistoryCache, hub Dispatcher, uploader integration.Uploader, log *zap.Logger) *MessageHandler {
	return &MessageHandler{store: store, cache: cache, hub: hub, uploader: uploader, log: log}
}

// GetAllContacts lists every other user for the contact picker.
func (h *MessageHandler) GetAllContacts(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r)

	users, err := h.store.ListContacts(r.Context(), userID)
	if err != nil {
		h.serverError(w, "list contacts", err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// GetChatPartners lists the users the requester has private history with.
func (h *MessageHandler) GetChatPartners(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r)

	partnerIDs, err := h.store.GetChatPartnerIDs(r.Context(), userID)
	if err != nil {
		h.serverError(w, "chat partners", err)
		return
	}
	profiles, err := h.store.GetProfiles(r.Context(), partnerIDs)
	if err != nil {
		h.serverError(w, "chat partner profiles", err)
		return
	}
	writeJSON(w, http.StatusOK, profiles)
}

// GetMessages returns the conversation history with {id}, which is either a
// group id or a peer user id, disambiguated by a group existence check. Reads
// go through the history cache; a cache error is treated as a miss so an
// unreachable cache degrades to plain database reads.
func (h *MessageHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r)
	targetID := mux.Vars(r)["id"]

	group, err := h.store.GetGroupByID(r.Context(), targetID)
	isGroup := err == nil
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		h.serverError(w, "resolve conversation", err)
		return
	}

	var key string
	if isGroup {
		key = models.GroupConversationKey(group.ID.Hex())
	} else {
		key = models.PrivateConversationKey(userID, targetID)
	}

	if cached, err := h.cache.Get(r.Context(), key); err != nil {
		h.log.Warn("history cache unavailable, falling through", zap.Error(err))
	} else if cached != nil {
		writeRawJSON(w, http.StatusOK, cached)
		return
	}

	var messages []models.Message
	if isGroup {
		messages, err = h.store.GetGroupMessages(r.Context(), targetID)
	} else {
		messages, err = h.store.GetPrivateMessages(r.Context(), userID, targetID)
	}
	if err != nil {
		h.serverError(w, "load history", err)
		return
	}

	body, err := json.Marshal(messages)
	if err != nil {
		h.serverError(w, "encode history", err)
		return
	}
	// Concurrent writers to the same key can interleave here with a stale
	// repopulation; the TTL bounds how long a lost race can persist.
	if err := h.cache.Set(r.Context(), key, body); err != nil {
		h.log.Warn("history cache populate failed", zap.Error(err))
	}
	writeRawJSON(w, http.StatusOK, body)
}

// SendMessage persists a message to {id} (group or peer), invalidates the
// conversation snapshot, then fans out newMessage to connected recipients.
func (h *MessageHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r)
	targetID := mux.Vars(r)["id"]

	var req struct {
		Text  string `json:"text"`
		Image string `json:"image"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Text == "" && req.Image == "" {
		writeError(w, http.StatusBadRequest, "Text or image is required.")
		return
	}

	senderID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid session")
		return
	}

	var imageURL string
	if req.Image != "" {
		if h.uploader == nil {
			writeError(w, http.StatusServiceUnavailable, "Image uploads are not configured")
			return
		}
		imageURL, err = h.uploader.UploadImage(r.Context(), req.Image)
		if err != nil {
			h.serverError(w, "upload image", err)
			return
		}
	}

	group, err := h.store.GetGroupByID(r.Context(), targetID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		h.serverError(w, "resolve conversation", err)
		return
	}

	if group != nil {
		h.sendGroupMessage(w, r, senderID, group, req.Text, imageURL)
		return
	}
	h.sendPrivateMessage(w, r, senderID, targetID, req.Text, imageURL)
}

func (h *MessageHandler) sendGroupMessage(w http.ResponseWriter, r *http.Request, senderID primitive.ObjectID, group *models.Group, text, imageURL string) {
	groupID := group.ID
	msg := &models.Message{
		SenderID: senderID,
		GroupID:  &groupID,
		Text:     text,
		Image:    imageURL,
	}
	if err := h.store.SaveMessage(r.Context(), msg); err != nil {
		h.serverError(w, "save message", err)
		return
	}

	h.invalidate(r, models.GroupConversationKey(groupID.Hex()))
	// The sender appends locally from the HTTP response, so it is excluded
	// from the fan-out.
	h.hub.Dispatch(realtime.EventNewMessage, realtime.NewMessagePayload{Message: *msg},
		group.MemberIDs(), senderID.Hex())

	writeJSON(w, http.StatusCreated, msg)
}

func (h *MessageHandler) sendPrivateMessage(w http.ResponseWriter, r *http.Request, senderID primitive.ObjectID, receiverID, text, imageURL string) {
	if senderID.Hex() == receiverID {
		writeError(w, http.StatusBadRequest, "Cannot send messages to yourself.")
		return
	}
	exists, err := h.store.UserExists(r.Context(), receiverID)
	if err != nil {
		h.serverError(w, "check receiver", err)
		return
	}
	if !exists {
		writeError(w, http.StatusNotFound, "Receiver not found.")
		return
	}

	receiverOID, err := primitive.ObjectIDFromHex(receiverID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Receiver not found.")
		return
	}

	msg := &models.Message{
		SenderID:   senderID,
		ReceiverID: &receiverOID,
		Text:       text,
		Image:      imageURL,
	}
	if err := h.store.SaveMessage(r.Context(), msg); err != nil {
		h.serverError(w, "save message", err)
		return
	}

	h.invalidate(r, models.PrivateConversationKey(senderID.Hex(), receiverID))

	payload := realtime.NewMessagePayload{Message: *msg}
	// Attach the sender profile so the receiver can update their chat list
	// without another fetch.
	if sender, err := h.store.GetUserByID(r.Context(), senderID.Hex()); err == nil {
		profile := sender.Profile()
		payload.SenderProfile = &profile
	}
	h.hub.Dispatch(realtime.EventNewMessage, payload, []string{receiverID}, "")

	writeJSON(w, http.StatusCreated, msg)
}

// DeleteMessage removes one of the requester's own messages. The conversation
// key and the push audience are derived from the message before it is
// deleted, since both depend on fields the deletion removes.
func (h *MessageHandler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r)
	messageID := mux.Vars(r)["id"]

	msg, err := h.store.GetMessageByID(r.Context(), messageID)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Message not found")
		return
	}
	if err != nil {
		h.serverError(w, "load message", err)
		return
	}
	if msg.SenderID.Hex() != userID {
		writeError(w, http.StatusForbidden, "You can only delete your own messages")
		return
	}

	var audience []string
	if msg.GroupID != nil {
		if group, err := h.store.GetGroupByID(r.Context(), msg.GroupID.Hex()); err == nil {
			audience = group.MemberIDs()
		}
	} else if msg.ReceiverID != nil {
		audience = []string{msg.ReceiverID.Hex()}
	}

	if err := h.store.DeleteMessage(r.Context(), messageID); err != nil {
		h.serverError(w, "delete message", err)
		return
	}

	h.invalidate(r, msg.ConversationKey())
	h.hub.Dispatch(realtime.EventMessageDeleted,
		realtime.MessageDeletedPayload{MessageID: messageID}, audience, userID)

	writeJSON(w, http.StatusOK, map[string]string{"message": "Message deleted"})
}

// invalidate drops a conversation snapshot. Must run before the mutation
// response is written; a failure is logged but does not fail the request (the
// TTL bounds the resulting staleness).
func (h *MessageHandler) invalidate(r *http.Request, key string) {
	if key == "" {
		return
	}
	if err := h.cache.Invalidate(r.Context(), key); err != nil {
		h.log.Warn("history cache invalidate failed", zap.String("key", key), zap.Error(err))
	}
}

func (h *MessageHandler) serverError(w http.ResponseWriter, op string, err error) {
	h.log.Error(op, zap.Error(err))
	writeError(w, http.StatusInternalServerError, "Server Error")
}
