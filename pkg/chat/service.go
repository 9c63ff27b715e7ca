// Package chat implements the conversation engine: participant membership,
// message lifecycle and attachment binding. All mutations go through the
// store's per-conversation gate; this package adds the domain rules on top.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"chatstore/pkg/blob"
	"chatstore/pkg/errs"
	"chatstore/pkg/logger"
	"chatstore/pkg/models"
	"chatstore/pkg/store"
)

// Service exposes the engine operations. Actors are authenticated user ids;
// membership checks deliberately fail with errs.ErrNotFound rather than
// errs.ErrForbidden so non-participants cannot probe for a conversation's
// existence.
type Service struct {
	store *store.Store
	blobs blob.Store
	dir   Directory
	// maxAttachment caps upload size in bytes; zero means unlimited.
	maxAttachment int64
}

// New builds a Service over the given store and collaborators.
func New(st *store.Store, blobs blob.Store, dir Directory, maxAttachment int64) *Service {
	return &Service{store: st, blobs: blobs, dir: dir, maxAttachment: maxAttachment}
}

// ResolveOrCreate returns the conversation for the exact participant set,
// creating an empty one if none exists. Calling it twice with the same set
// yields the same conversation.
func (s *Service) ResolveOrCreate(ctx context.Context, participants []string) (*models.Conversation, error) {
	c, err := s.store.FindBySet(ctx, participants)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, errs.ErrNotFound) {
		return nil, err
	}
	c, err = s.store.Create(ctx, participants)
	if errors.Is(err, errs.ErrAlreadyExists) {
		// lost a creation race; the existing conversation is the answer
		return c, nil
	}
	return c, err
}

// Create creates a conversation for the participant set. If one already
// exists for the identical set it is returned alongside
// errs.ErrAlreadyExists.
func (s *Service) Create(ctx context.Context, participants []string) (*models.Conversation, error) {
	return s.store.Create(ctx, participants)
}

// Get returns the conversation by id, provided actor participates in it.
func (s *Service) Get(ctx context.Context, actor, conversationID string) (*models.Conversation, error) {
	c, err := s.store.Get(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !c.HasParticipant(actor) {
		return nil, errs.ErrNotFound
	}
	return c, nil
}

// GetByParticipants returns the conversation for the exact participant set.
func (s *Service) GetByParticipants(ctx context.Context, participants []string) (*models.Conversation, error) {
	return s.store.FindBySet(ctx, participants)
}

// ListFor returns all conversations the user participates in.
func (s *Service) ListFor(ctx context.Context, user string) ([]*models.Conversation, error) {
	return s.store.ListFor(ctx, user)
}

// Invite adds invitee to the conversation. The actor must be a participant,
// the invitee must be known to the user directory, and no other
// conversation may already exist for the combined set.
func (s *Service) Invite(ctx context.Context, conversationID, actor, invitee string) (*models.Conversation, error) {
	invitee = strings.TrimSpace(invitee)
	if invitee == "" {
		return nil, fmt.Errorf("%w: empty invitee", errs.ErrInvalidRequest)
	}
	// directory I/O stays outside the conversation gate
	known, err := s.dir.Exists(ctx, invitee)
	if err != nil {
		return nil, fmt.Errorf("directory lookup for %s: %w", invitee, err)
	}
	if !known {
		return nil, fmt.Errorf("%w: unknown invitee", errs.ErrNotFound)
	}

	c, err := s.store.Update(ctx, conversationID, func(c *models.Conversation) error {
		if !c.HasParticipant(actor) {
			return errs.ErrNotFound
		}
		if c.HasParticipant(invitee) {
			return errs.ErrAlreadyExists
		}
		c.Participants = append(c.Participants, invitee)
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info("participant_invited", "conversation", c.ID, "actor", actor, "invitee", invitee)
	return c, nil
}

// Leave removes the actor from the conversation. Removing the last
// participant deletes the conversation and frees its attachment blobs.
func (s *Service) Leave(ctx context.Context, conversationID, actor string) error {
	c, err := s.store.Update(ctx, conversationID, func(c *models.Conversation) error {
		if !c.HasParticipant(actor) {
			return errs.ErrNotFound
		}
		kept := c.Participants[:0]
		for _, p := range c.Participants {
			if p != actor {
				kept = append(kept, p)
			}
		}
		c.Participants = kept
		return nil
	})
	if err != nil {
		return err
	}
	if len(c.Participants) == 0 {
		logger.Info("conversation_emptied", "conversation", c.ID, "actor", actor)
		s.cascadeBlobs(ctx, c)
	}
	return nil
}

// Delete removes the conversation outright. Actor must be a participant.
// Attachment blob cleanup is best-effort and never blocks the delete.
func (s *Service) Delete(ctx context.Context, conversationID, actor string) error {
	c, err := s.store.Remove(ctx, conversationID, func(c *models.Conversation) error {
		if !c.HasParticipant(actor) {
			return errs.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.cascadeBlobs(ctx, c)
	return nil
}
