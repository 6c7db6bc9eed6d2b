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

const (
	privateKeyPrefix = "chat:private:"
	groupKeyPrefix   = "chat:group:"
)

// PrivateConversationKey derives the canonical cache key for a 1:1
// conversation. The pair is sorted so both parties derive the same key.
func PrivateConversationKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return privateKeyPrefix + a + ":" + b
}

// GroupConversationKey derives the cache key for a group conversation.
func GroupConversationKey(groupID string) string {
	return groupKeyPrefix + groupID
}
