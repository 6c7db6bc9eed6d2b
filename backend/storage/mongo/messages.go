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

package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/flashchat/flashchat/backend/models"
	"github.com/flashchat/flashchat/backend/storage"
)

var byCreatedAt = options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})

func (s *Store) SaveMessage(ctx context.Context, msg *models.Message) error {
	now := time.Now().UTC()
	msg.CreatedAt = now
	msg.UpdatedAt = now

	res, err := s.messages.InsertOne(ctx, msg)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	msg.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (s *Store) GetMessageByID(ctx context.Context, id string) (*models.Message, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	var msg models.Message
	err = s.messages.FindOne(ctx, bson.M{"_id": oid}).Decode(&msg)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find message: %w", err)
	}
	return &msg, nil
}

func (s *Store) DeleteMessage(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}

	res, err := s.messages.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	if res.DeletedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) GetPrivateMessages(ctx context.Context, userID, peerID string) ([]models.Message, error) {
	uid, err := parseID(userID)
	if err != nil {
		return nil, err
	}
	pid, err := parseID(peerID)
	if err != nil {
		return nil, err
	}

	filter := bson.M{"$or": bson.A{
		bson.M{"senderId": uid, "receiverId": pid},
		bson.M{"senderId": pid, "receiverId": uid},
	}}
	cursor, err := s.messages.Find(ctx, filter, byCreatedAt)
	if err != nil {
		return nil, fmt.Errorf("find private messages: %w", err)
	}

	msgs := []models.Message{}
	if err := cursor.All(ctx, &msgs); err != nil {
		return nil, fmt.Errorf("decode private messages: %w", err)
	}
	return msgs, nil
}

func (s *Store) GetGroupMessages(ctx context.Context, groupID string) ([]models.Message, error) {
	gid, err := parseID(groupID)
	if err != nil {
		return nil, err
	}

	cursor, err := s.messages.Find(ctx, bson.M{"groupId": gid}, byCreatedAt)
	if err != nil {
		return nil, fmt.Errorf("find group messages: %w", err)
	}

	msgs := []models.Message{}
	if err := cursor.All(ctx, &msgs); err != nil {
		return nil, fmt.Errorf("decode group messages: %w", err)
	}
	return msgs, nil
}

func (s *Store) GetChatPartnerIDs(ctx context.Context, userID string) ([]string, error) {
	uid, err := parseID(userID)
	if err != nil {
		return nil, err
	}

	filter := bson.M{"$or": bson.A{
		bson.M{"senderId": uid},
		bson.M{"receiverId": uid},
	}}
	cursor, err := s.messages.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find chat partners: %w", err)
	}

	var msgs []models.Message
	if err := cursor.All(ctx, &msgs); err != nil {
		return nil, fmt.Errorf("decode chat partners: %w", err)
	}

	seen := map[string]bool{}
	partners := []string{}
	for _, msg := range msgs {
		// Group messages have no receiver and do not create a chat partner.
		if msg.ReceiverID == nil {
			continue
		}
		partner := msg.SenderID.Hex()
		if msg.SenderID == uid {
			partner = msg.ReceiverID.Hex()
		}
		if !seen[partner] {
			seen[partner] = true
			partners = append(partners, partner)
		}
	}
	return partners, nil
}
