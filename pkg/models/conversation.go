package models

import (
	"sort"
	"strings"
)

// Conversation is the unit of persistence: a participant set and its ordered
// message sequence, stored and mutated as one document. Identity is the exact
// participant set; no two live conversations share one.
type Conversation struct {
	ID string `json:"id"`
	// Participants is kept canonical: sorted, deduplicated, never empty
	// while the conversation exists.
	Participants []string  `json:"participants"`
	Messages     []Message `json:"messages"`
	// Created/Updated timestamps (ns)
	CreatedTS int64 `json:"created_ts"`
	UpdatedTS int64 `json:"updated_ts"`
}

// CanonicalSet sorts and deduplicates a participant list. The result is the
// conversation's identity key; an empty input yields an empty result.
func CanonicalSet(participants []string) []string {
	seen := make(map[string]struct{}, len(participants))
	out := make([]string, 0, len(participants))
	for _, p := range participants {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// HasParticipant reports whether user is a member of the conversation.
func (c *Conversation) HasParticipant(user string) bool {
	for _, p := range c.Participants {
		if p == user {
			return true
		}
	}
	return false
}

// FindMessage returns the message with the given id and its position, or
// (nil, -1). The sequence is small enough that a linear scan is fine; an
// id->index map would be rebuilt on load if that ever changes.
func (c *Conversation) FindMessage(id string) (*Message, int) {
	for i := range c.Messages {
		if c.Messages[i].ID == id {
			return &c.Messages[i], i
		}
	}
	return nil, -1
}

// Clone returns a deep copy so callers can hand out snapshots without
// exposing the store's working copy to later mutation.
func (c *Conversation) Clone() *Conversation {
	if c == nil {
		return nil
	}
	out := *c
	out.Participants = append([]string(nil), c.Participants...)
	out.Messages = make([]Message, len(c.Messages))
	for i := range c.Messages {
		out.Messages[i] = *c.Messages[i].Clone()
	}
	return &out
}
