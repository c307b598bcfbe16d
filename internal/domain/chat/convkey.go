// Package chat implements direct messaging between patients and doctors:
// a persistent message log, a conversation directory for the inbox view,
// and the read/unread bookkeeping behind the badge count.
package chat

import "github.com/google/uuid"

// ConversationKey derives the canonical key for a pair of users: both ids
// rendered as strings, sorted lexicographically, joined by "_". Every code
// path that needs the key derives it through here so the same pair always
// lands in the same conversation regardless of who writes first.
func ConversationKey(a, b uuid.UUID) string {
	as, bs := a.String(), b.String()
	if as > bs {
		as, bs = bs, as
	}
	return as + "_" + bs
}

// sortedPair returns the two ids ordered the same way ConversationKey orders
// them. The directory stores participants in this order so the pair is a
// stable unique key.
func sortedPair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if a.String() > b.String() {
		return b, a
	}
	return a, b
}
