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

	"github.com/flashchat/flashchat/backend/models"
	"github.com/flashchat/flashchat/backend/storage"
)

func (s *Store) CreateGroup(ctx context.Context, group *models.Group) error {
	now := time.Now().UTC()
	group.CreatedAt = now
	group.UpdatedAt = now

	res, err := s.groups.InsertOne(ctx, group)
	if err != nil {
		return fmt.Errorf("insert group: %w", err)
	}
	group.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (s *Store) GetGroupByID(ctx context.Context, id string) (*models.Group, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	var group models.Group
	err = s.groups.FindOne(ctx, bson.M{"_id": oid}).Decode(&group)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find group: %w", err)
	}
	return &group, nil
}

func (s *Store) SaveGroup(ctx context.Context, group *models.Group) error {
	group.UpdatedAt = time.Now().UTC()

	update := bson.M{"$set": bson.M{
		"name":       group.Name,
		"admin":      group.Admin,
		"members":    group.Members,
		"groupImage": group.GroupImage,
		"updatedAt":  group.UpdatedAt,
	}}
	res, err := s.groups.UpdateByID(ctx, group.ID, update)
	if err != nil {
		return fmt.Errorf("update group: %w", err)
	}
	if res.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteGroup(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}

	res, err := s.groups.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	if res.DeletedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) GetGroupsForUser(ctx context.Context, userID string) ([]models.Group, error) {
	oid, err := parseID(userID)
	if err != nil {
		return nil, err
	}

	cursor, err := s.groups.Find(ctx, bson.M{"members": oid})
	if err != nil {
		return nil, fmt.Errorf("find groups for user: %w", err)
	}

	groups := []models.Group{}
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, fmt.Errorf("decode groups: %w", err)
	}
	return groups, nil
}
