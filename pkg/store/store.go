// Package store persists conversation documents in pebble and serializes
// all mutations per conversation. Every read-modify-write runs under the
// conversation's gate and commits atomically as one batch, so a mutation is
// observable only after it has fully succeeded.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/google/uuid"
	"github.com/valyala/bytebufferpool"

	"chatstore/pkg/errs"
	"chatstore/pkg/logger"
	"chatstore/pkg/models"
)

// Store owns the pebble handle and the per-conversation gates.
type Store struct {
	db    *pebble.DB
	path  string
	gates *gates
}

// Open opens (or creates) a pebble database at the given path.
func Open(path string) (*Store, error) {
	logger.Info("opening_store", "path", path)
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		logger.Error("store_open_failed", "path", path, "error", err)
		return nil, err
	}
	return &Store{db: db, path: path, gates: newGates()}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	logger.Info("store_closed", "path", s.path)
	return err
}

// Path returns the on-disk location of the store.
func (s *Store) Path() string { return s.path }

// Get returns a snapshot of the conversation with the given id.
func (s *Store) Get(ctx context.Context, id string) (*models.Conversation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.load(id)
}

// FindBySet returns the conversation whose participant set exactly matches
// the given one, or errs.ErrNotFound.
func (s *Store) FindBySet(ctx context.Context, participants []string) (*models.Conversation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	set := models.CanonicalSet(participants)
	if len(set) == 0 {
		return nil, errs.ErrInvalidRequest
	}
	id, err := s.lookupSet(setKey(set))
	if err != nil {
		return nil, err
	}
	return s.load(id)
}

// ListFor returns every conversation the user participates in, in index
// order.
func (s *Store) ListFor(ctx context.Context, user string) ([]*models.Conversation, error) {
	if user == "" {
		return nil, errs.ErrInvalidRequest
	}
	prefix := memberScanPrefix(user)
	iter, err := s.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []*models.Conversation
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		id := string(iter.Value())
		c, err := s.load(id)
		if err != nil {
			if errors.Is(err, errs.ErrNotFound) {
				// index straggler from a torn shutdown; skip it
				logger.Warn("member_index_dangling", "user", user, "conversation", id)
				continue
			}
			return nil, err
		}
		out = append(out, c)
	}
	return out, iter.Error()
}

// Create creates a conversation for the exact participant set. Creation is
// serialized on the set key, so two concurrent creates for the same set
// cannot both succeed: the loser receives the existing conversation together
// with errs.ErrAlreadyExists.
func (s *Store) Create(ctx context.Context, participants []string) (*models.Conversation, error) {
	set := models.CanonicalSet(participants)
	if len(set) == 0 {
		return nil, errs.ErrInvalidRequest
	}
	sk := setKey(set)

	release, err := s.gates.acquire(ctx, string(sk))
	if err != nil {
		return nil, err
	}
	defer release()

	if id, err := s.lookupSet(sk); err == nil {
		existing, lerr := s.load(id)
		if lerr != nil {
			return nil, lerr
		}
		return existing, errs.ErrAlreadyExists
	} else if !errors.Is(err, errs.ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC().UnixNano()
	c := &models.Conversation{
		ID:           uuid.NewString(),
		Participants: set,
		Messages:     []models.Message{},
		CreatedTS:    now,
		UpdatedTS:    now,
	}

	b := s.db.NewBatch()
	defer b.Close()
	if err := encodeConversation(b, c); err != nil {
		return nil, err
	}
	if err := b.Set(sk, []byte(c.ID), nil); err != nil {
		return nil, err
	}
	for _, p := range set {
		if err := b.Set(memberKey(p, c.ID), []byte(c.ID), nil); err != nil {
			return nil, err
		}
	}
	if err := s.commit(b, "create"); err != nil {
		return nil, err
	}
	logger.Info("conversation_created", "conversation", c.ID, "participants", len(set))
	return c, nil
}

// Update runs fn against the conversation's document under its gate and
// commits the result atomically. fn returning an error aborts the commit
// and the error is surfaced unchanged. If fn leaves the participant set
// empty the conversation is deleted rather than committed — a live
// conversation never has zero participants. The returned snapshot reflects
// the final state; callers detect deletion by an empty participant set.
func (s *Store) Update(ctx context.Context, id string, fn func(*models.Conversation) error) (*models.Conversation, error) {
	release, err := s.gates.acquire(ctx, convGateKey(id))
	if err != nil {
		return nil, err
	}
	defer release()

	c, err := s.load(id)
	if err != nil {
		return nil, err
	}
	prevSet := append([]string(nil), c.Participants...)

	if err := fn(c); err != nil {
		return nil, err
	}
	c.Participants = models.CanonicalSet(c.Participants)

	if len(c.Participants) == 0 {
		if err := s.deleteLocked(c.ID, prevSet, "update"); err != nil {
			return nil, err
		}
		logger.Info("conversation_deleted_empty", "conversation", c.ID)
		return c, nil
	}

	c.UpdatedTS = time.Now().UTC().UnixNano()

	b := s.db.NewBatch()
	defer b.Close()
	if err := encodeConversation(b, c); err != nil {
		return nil, err
	}

	if !equalSets(prevSet, c.Participants) {
		newKey := setKey(c.Participants)
		// The new set identity must stay unique; serialize against creates
		// for the same set. Gate order is always conversation then set, so
		// this cannot deadlock with Create, which takes only the set gate.
		setRelease, err := s.gates.acquire(ctx, string(newKey))
		if err != nil {
			return nil, err
		}
		defer setRelease()
		if other, err := s.lookupSet(newKey); err == nil && other != c.ID {
			return nil, errs.ErrAlreadyExists
		} else if err != nil && !errors.Is(err, errs.ErrNotFound) {
			return nil, err
		}
		if err := b.Delete(setKey(prevSet), nil); err != nil {
			return nil, err
		}
		if err := b.Set(newKey, []byte(c.ID), nil); err != nil {
			return nil, err
		}
		for _, p := range diffSets(prevSet, c.Participants) {
			if err := b.Delete(memberKey(p, c.ID), nil); err != nil {
				return nil, err
			}
		}
		for _, p := range diffSets(c.Participants, prevSet) {
			if err := b.Set(memberKey(p, c.ID), []byte(c.ID), nil); err != nil {
				return nil, err
			}
		}
	}

	if err := s.commit(b, "update"); err != nil {
		return nil, err
	}
	return c, nil
}

// Remove deletes the conversation after guard approves the current
// document. The pre-delete snapshot is returned so callers can cascade
// cleanup of attachment blobs.
func (s *Store) Remove(ctx context.Context, id string, guard func(*models.Conversation) error) (*models.Conversation, error) {
	release, err := s.gates.acquire(ctx, convGateKey(id))
	if err != nil {
		return nil, err
	}
	defer release()

	c, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if guard != nil {
		if err := guard(c); err != nil {
			return nil, err
		}
	}
	if err := s.deleteLocked(c.ID, c.Participants, "remove"); err != nil {
		return nil, err
	}
	logger.Info("conversation_deleted", "conversation", c.ID)
	return c, nil
}

// ReferencedAttachments returns the set of blob filenames referenced by any
// message in any live conversation. Used by the reconciliation sweep.
func (s *Store) ReferencedAttachments(ctx context.Context) (map[string]struct{}, error) {
	prefix := []byte(convPrefix)
	iter, err := s.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	out := make(map[string]struct{})
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		var c models.Conversation
		if err := json.Unmarshal(iter.Value(), &c); err != nil {
			logger.Warn("conversation_doc_unreadable", "key", string(iter.Key()), "error", err)
			continue
		}
		for i := range c.Messages {
			if a := c.Messages[i].Attachment; a != nil && a.Filename != "" {
				out[a.Filename] = struct{}{}
			}
		}
	}
	return out, iter.Error()
}

func convGateKey(id string) string { return convPrefix + id }

// load fetches and decodes a conversation document.
func (s *Store) load(id string) (*models.Conversation, error) {
	v, closer, err := s.db.Get(convKey(id))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, fmt.Errorf("load conversation %s: %w", id, err)
	}
	defer closer.Close()
	var c models.Conversation
	if err := json.Unmarshal(v, &c); err != nil {
		return nil, fmt.Errorf("decode conversation %s: %w", id, err)
	}
	return &c, nil
}

func (s *Store) lookupSet(sk []byte) (string, error) {
	v, closer, err := s.db.Get(sk)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return "", errs.ErrNotFound
		}
		return "", err
	}
	defer closer.Close()
	return string(v), nil
}

// deleteLocked removes the document and all its index entries in one batch.
// Caller must hold the conversation gate.
func (s *Store) deleteLocked(id string, participants []string, op string) error {
	b := s.db.NewBatch()
	defer b.Close()
	if err := b.Delete(convKey(id), nil); err != nil {
		return err
	}
	if err := b.Delete(setKey(participants), nil); err != nil {
		return err
	}
	for _, p := range participants {
		if err := b.Delete(memberKey(p, id), nil); err != nil {
			return err
		}
	}
	return s.commit(b, op)
}

// commit applies the batch synchronously and records metrics.
func (s *Store) commit(b *pebble.Batch, op string) error {
	if err := s.db.Apply(b, pebble.Sync); err != nil {
		commitErrorsTotal.WithLabelValues(op).Inc()
		logger.Error("store_commit_failed", "op", op, "error", err)
		return fmt.Errorf("commit %s: %w", op, err)
	}
	commitsTotal.WithLabelValues(op).Inc()
	return nil
}

// encodeConversation marshals the document through a pooled buffer; the
// batch copies the bytes, so the buffer can be recycled immediately.
func encodeConversation(b *pebble.Batch, c *models.Conversation) error {
	bb := bytebufferpool.Get()
	defer bytebufferpool.Put(bb)
	if err := json.NewEncoder(bb).Encode(c); err != nil {
		return fmt.Errorf("encode conversation %s: %w", c.ID, err)
	}
	return b.Set(convKey(c.ID), bb.B, nil)
}

func equalSets(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// diffSets returns the members of a that are not in b. Both inputs are
// canonical (sorted).
func diffSets(a, b []string) []string {
	var out []string
	i, j := 0, 0
	for i < len(a) {
		switch {
		case j >= len(b) || a[i] < b[j]:
			out = append(out, a[i])
			i++
		case a[i] == b[j]:
			i++
			j++
		default:
			j++
		}
	}
	return out
}
