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
	"fmt"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/flashchat/flashchat/backend/middleware"
	"github.com/flashchat/flashchat/backend/models"
	"github.com/flashchat/flashchat/backend/realtime"
	"github.com/flashchat/flashchat/backend/storage"
)

type GroupHandler struct {
	store storage.Store
	cache storage.HistoryCache
	hub   Dispatcher
	log   *zap.Logger
}

func NewGroupHandler(store storage.Store, cache storage.HistoryCache, hub Dispatcher, log *zap.Logger) *GroupHandler {
	return &GroupHandler{store: store, cache: cache, hub: hub, log: log}
}

// CreateGroup creates a group with the requester as sole admin and fans out
// newGroup to the other members.
func (h *GroupHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r)

	var req struct {
		Name    string   `json:"name"`
		Members []string `json:"members"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Group name is required")
		return
	}
	if len(req.Members) < 2 {
		writeError(w, http.StatusBadRequest, "A group must have at least 2 other members")
		return
	}

	creatorID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid session")
		return
	}

	// Creator joins the member set; duplicates in the request are collapsed.
	seen := map[primitive.ObjectID]bool{creatorID: true}
	members := []primitive.ObjectID{creatorID}
	for _, id := range req.Members {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid member id")
			return
		}
		if !seen[oid] {
			seen[oid] = true
			members = append(members, oid)
		}
	}

	group := &models.Group{
		Name:    req.Name,
		Admin:   []primitive.ObjectID{creatorID},
		Members: members,
	}
	if err := h.store.CreateGroup(r.Context(), group); err != nil {
		h.serverError(w, "create group", err)
		return
	}

	detail, err := h.populate(r, group)
	if err != nil {
		h.serverError(w, "populate group", err)
		return
	}

	h.hub.Dispatch(realtime.EventNewGroup, detail, group.MemberIDs(), userID)
	writeJSON(w, http.StatusCreated, detail)
}

// GetMyGroups lists the groups the requester belongs to.
func (h *GroupHandler) GetMyGroups(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r)

	groups, err := h.store.GetGroupsForUser(r.Context(), userID)
	if err != nil {
		h.serverError(w, "list groups", err)
		return
	}

	details := []*models.GroupDetail{}
	for i := range groups {
		detail, err := h.populate(r, &groups[i])
		if err != nil {
			h.serverError(w, "populate group", err)
			return
		}
		details = append(details, detail)
	}
	writeJSON(w, http.StatusOK, details)
}

// ToggleAdmin grants or revokes admin on a member. Only admins may call it,
// and the last admin can never be toggled off.
func (h *GroupHandler) ToggleAdmin(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r)

	var req struct {
		GroupID string `json:"groupId"`
		UserID  string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	group, _, ok := h.loadGroupAsAdmin(w, r, req.GroupID, userID, "Only admins can change roles")
	if !ok {
		return
	}

	targetID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}

	if group.IsAdmin(targetID) {
		if len(group.Admin) == 1 {
			writeError(w, http.StatusBadRequest, "Group must have at least one admin")
			return
		}
		group.Admin = removeObjectID(group.Admin, targetID)
	} else {
		group.Admin = append(group.Admin, targetID)
	}

	if err := h.store.SaveGroup(r.Context(), group); err != nil {
		h.serverError(w, "save group", err)
		return
	}

	h.broadcastGroupUpdate(r, group)

	detail, err := h.populate(r, group)
	if err != nil {
		h.serverError(w, "populate group", err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// AddMembers adds new users to the group and records a system message.
func (h *GroupHandler) AddMembers(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r)

	var req struct {
		GroupID    string   `json:"groupId"`
		NewMembers []string `json:"newMembers"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	group, requesterID, ok := h.loadGroupAsAdmin(w, r, req.GroupID, userID, "Only admins can add members")
	if !ok {
		return
	}

	added := []primitive.ObjectID{}
	for _, id := range req.NewMembers {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			continue
		}
		if !group.IsMember(oid) {
			group.Members = append(group.Members, oid)
			added = append(added, oid)
		}
	}
	if len(added) == 0 {
		writeError(w, http.StatusBadRequest, "Users are already members of this group")
		return
	}

	if err := h.store.SaveGroup(r.Context(), group); err != nil {
		h.serverError(w, "save group", err)
		return
	}

	// Fan out to the updated membership, newly added users included.
	h.broadcastGroupUpdate(r, group)

	addedIDs := make([]string, 0, len(added))
	for _, oid := range added {
		addedIDs = append(addedIDs, oid.Hex())
	}
	if names, err := h.profileNames(r, addedIDs); err == nil {
		requesterName := h.userName(r, userID)
		h.sendSystemMessage(r, group, requesterID,
			fmt.Sprintf("%s added %s", requesterName, strings.Join(names, ", ")))
	}

	detail, err := h.populate(r, group)
	if err != nil {
		h.serverError(w, "populate group", err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// RemoveMember evicts a user from the group. The evicted user gets a
// dedicated groupUpdated{wasRemoved:true} push so their client clears state.
func (h *GroupHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r)

	var req struct {
		GroupID string `json:"groupId"`
		UserID  string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	group, requesterID, ok := h.loadGroupAsAdmin(w, r, req.GroupID, userID, "Unauthorized")
	if !ok {
		return
	}

	targetID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}

	// Admins remove themselves through leave, not remove-member; this keeps
	// the at-least-one-admin invariant enforceable in one place.
	if group.IsAdmin(targetID) && len(group.Admin) == 1 {
		writeError(w, http.StatusBadRequest, "Group must have at least one admin")
		return
	}

	targetName := h.userName(r, req.UserID)
	group.RemoveUser(targetID)

	if err := h.store.SaveGroup(r.Context(), group); err != nil {
		h.serverError(w, "save group", err)
		return
	}

	h.broadcastGroupUpdate(r, group)
	h.hub.Dispatch(realtime.EventGroupUpdated, realtime.GroupRemovedPayload{
		ID:         group.ID.Hex(),
		WasRemoved: true,
		Name:       group.Name,
	}, []string{req.UserID}, "")

	requesterName := h.userName(r, userID)
	h.sendSystemMessage(r, group, requesterID,
		fmt.Sprintf("%s removed %s from the group", requesterName, targetName))

	detail, err := h.populate(r, group)
	if err != nil {
		h.serverError(w, "populate group", err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// LeaveGroup removes the requester. The sole admin must hand off admin first
// unless they are the last member, in which case the group is deleted.
func (h *GroupHandler) LeaveGroup(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r)

	var req struct {
		GroupID string `json:"groupId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	group, err := h.store.GetGroupByID(r.Context(), req.GroupID)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Group not found")
		return
	}
	if err != nil {
		h.serverError(w, "load group", err)
		return
	}

	leaverID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid session")
		return
	}

	if group.IsAdmin(leaverID) && len(group.Admin) == 1 && len(group.Members) > 1 {
		writeError(w, http.StatusBadRequest,
			"You are the only admin. Assign someone else as admin before leaving.")
		return
	}

	// Recorded before removal so the departure message reaches the leaver too.
	leaverName := h.userName(r, userID)
	h.sendSystemMessage(r, group, leaverID, fmt.Sprintf("%s has left the group", leaverName))

	group.RemoveUser(leaverID)

	if len(group.Members) == 0 {
		if err := h.store.DeleteGroup(r.Context(), req.GroupID); err != nil {
			h.serverError(w, "delete group", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Group deleted as no members left"})
		return
	}

	if err := h.store.SaveGroup(r.Context(), group); err != nil {
		h.serverError(w, "save group", err)
		return
	}

	h.broadcastGroupUpdate(r, group)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Left group successfully"})
}

// loadGroupAsAdmin fetches a group and verifies the requester is an admin,
// writing the error response itself when not.
func (h *GroupHandler) loadGroupAsAdmin(w http.ResponseWriter, r *http.Request, groupID, userID, denial string) (*models.Group, primitive.ObjectID, bool) {
	group, err := h.store.GetGroupByID(r.Context(), groupID)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Group not found")
		return nil, primitive.NilObjectID, false
	}
	if err != nil {
		h.serverError(w, "load group", err)
		return nil, primitive.NilObjectID, false
	}

	requesterID, err := primitive.ObjectIDFromHex(userID)
	if err != nil || !group.IsAdmin(requesterID) {
		writeError(w, http.StatusForbidden, denial)
		return nil, primitive.NilObjectID, false
	}
	return group, requesterID, true
}

// broadcastGroupUpdate pushes the populated group to all current members.
func (h *GroupHandler) broadcastGroupUpdate(r *http.Request, group *models.Group) {
	detail, err := h.populate(r, group)
	if err != nil {
		h.log.Warn("populate for group update push failed", zap.Error(err))
		return
	}
	h.hub.Dispatch(realtime.EventGroupUpdated, detail, group.MemberIDs(), "")
}

// sendSystemMessage records a membership-narration message in the group
// conversation and fans it out to all members. Failures are logged only; the
// triggering mutation has already succeeded.
func (h *GroupHandler) sendSystemMessage(r *http.Request, group *models.Group, senderID primitive.ObjectID, text string) {
	groupID := group.ID
	msg := &models.Message{
		SenderID:        senderID,
		GroupID:         &groupID,
		Text:            text,
		IsSystemMessage: true,
	}
	if err := h.store.SaveMessage(r.Context(), msg); err != nil {
		h.log.Error("save system message", zap.Error(err))
		return
	}

	key := models.GroupConversationKey(groupID.Hex())
	if err := h.cache.Invalidate(r.Context(), key); err != nil {
		h.log.Warn("history cache invalidate failed", zap.String("key", key), zap.Error(err))
	}
	h.hub.Dispatch(realtime.EventNewMessage, realtime.NewMessagePayload{Message: *msg},
		group.MemberIDs(), "")
}

func (h *GroupHandler) populate(r *http.Request, group *models.Group) (*models.GroupDetail, error) {
	profiles, err := h.store.GetProfiles(r.Context(), group.MemberIDs())
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]models.Profile, len(profiles))
	for _, p := range profiles {
		byID[p.ID] = p
	}

	detail := &models.GroupDetail{
		ID:         group.ID,
		Name:       group.Name,
		GroupImage: group.GroupImage,
		CreatedAt:  group.CreatedAt,
		UpdatedAt:  group.UpdatedAt,
		Admin:      []models.Profile{},
		Members:    []models.Profile{},
	}
	for _, id := range group.Members {
		if p, ok := byID[id]; ok {
			detail.Members = append(detail.Members, p)
		}
	}
	for _, id := range group.Admin {
		if p, ok := byID[id]; ok {
			detail.Admin = append(detail.Admin, p)
		}
	}
	return detail, nil
}

func (h *GroupHandler) profileNames(r *http.Request, ids []string) ([]string, error) {
	profiles, err := h.store.GetProfiles(r.Context(), ids)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(profiles))
	for _, p := range profiles {
		names = append(names, p.FullName)
	}
	return names, nil
}

func (h *GroupHandler) userName(r *http.Request, id string) string {
	user, err := h.store.GetUserByID(r.Context(), id)
	if err != nil {
		return "A member"
	}
	return user.FullName
}

func (h *GroupHandler) serverError(w http.ResponseWriter, op string, err error) {
	h.log.Error(op, zap.Error(err))
	writeError(w, http.StatusInternalServerError, "Server Error")
}

func removeObjectID(ids []primitive.ObjectID, target primitive.ObjectID) []primitive.ObjectID {
	out := ids[:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}
