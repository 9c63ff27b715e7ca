package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"chatstore/pkg/errs"
	"chatstore/pkg/logger"
	"chatstore/pkg/models"
)

// Send appends a message to the conversation. The sender must be a
// participant; content must be non-empty. The new message always lands at
// the end of the sequence, even under concurrent sends.
func (s *Service) Send(ctx context.Context, sender, conversationID, content string) (*models.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: empty message content", errs.ErrInvalidRequest)
	}
	msg := models.Message{
		ID:        uuid.NewString(),
		Sender:    sender,
		Content:   content,
		TS:        time.Now().UTC().UnixNano(),
		Reactions: []models.Reaction{},
	}
	_, err := s.store.Update(ctx, conversationID, func(c *models.Conversation) error {
		if !c.HasParticipant(sender) {
			return errs.ErrNotFound
		}
		c.Messages = append(c.Messages, msg)
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("message_sent", "conversation", conversationID, "message", msg.ID, "sender", sender)
	return msg.Clone(), nil
}

// Edit replaces the message content and marks it edited. Any participant
// may edit any message; the edited flag never reverts.
func (s *Service) Edit(ctx context.Context, actor, conversationID, messageID, content string) (*models.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: empty message content", errs.ErrInvalidRequest)
	}
	var out *models.Message
	_, err := s.store.Update(ctx, conversationID, func(c *models.Conversation) error {
		if !c.HasParticipant(actor) {
			return errs.ErrNotFound
		}
		msg, _ := c.FindMessage(messageID)
		if msg == nil {
			return errs.ErrNotFound
		}
		msg.Content = content
		msg.Edited = true
		out = msg.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteMessage removes the message from the sequence (no tombstone; the
// sequence compacts) and frees its attachment blob if one is bound.
func (s *Service) DeleteMessage(ctx context.Context, actor, conversationID, messageID string) error {
	var orphan string
	_, err := s.store.Update(ctx, conversationID, func(c *models.Conversation) error {
		if !c.HasParticipant(actor) {
			return errs.ErrNotFound
		}
		msg, idx := c.FindMessage(messageID)
		if msg == nil {
			return errs.ErrNotFound
		}
		if msg.Attachment != nil {
			orphan = msg.Attachment.Filename
		}
		c.Messages = append(c.Messages[:idx], c.Messages[idx+1:]...)
		return nil
	})
	if err != nil {
		return err
	}
	if orphan != "" {
		if derr := s.blobs.Delete(ctx, orphan); derr != nil {
			logger.Warn("message_blob_delete_failed", "conversation", conversationID, "message", messageID, "blob", orphan, "error", derr)
		}
	}
	return nil
}

// React records an emoji reaction by the actor. A user reacts with a given
// emoji at most once; there is no un-react. The returned snapshot carries
// the updated reaction counts.
func (s *Service) React(ctx context.Context, actor, conversationID, messageID, emoji string) (*models.Message, error) {
	if strings.TrimSpace(emoji) == "" {
		return nil, fmt.Errorf("%w: empty emoji", errs.ErrInvalidRequest)
	}
	var out *models.Message
	_, err := s.store.Update(ctx, conversationID, func(c *models.Conversation) error {
		if !c.HasParticipant(actor) {
			return errs.ErrNotFound
		}
		msg, _ := c.FindMessage(messageID)
		if msg == nil {
			return errs.ErrNotFound
		}
		r := msg.FindReaction(emoji)
		switch {
		case r == nil:
			msg.Reactions = append(msg.Reactions, models.Reaction{Emoji: emoji, Users: []string{actor}, Count: 1})
		case r.HasReacted(actor):
			return errs.ErrAlreadyReacted
		default:
			r.Users = append(r.Users, actor)
			r.Count = len(r.Users)
		}
		out = msg.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
