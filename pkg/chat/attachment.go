package chat

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"chatstore/pkg/blob"
	"chatstore/pkg/errs"
	"chatstore/pkg/logger"
	"chatstore/pkg/models"
)

// UploadAttachment binds a file to the message, replacing any existing
// attachment. The blob is written before the conversation gate is taken;
// the gate is held only to commit the metadata reference, and the previous
// blob is deleted after the commit succeeds. A commit failure therefore
// leaves the new blob unreferenced (swept later by the reconciler), never
// the message pointing at missing bytes.
func (s *Service) UploadAttachment(ctx context.Context, uploader, conversationID, messageID string, data []byte, originalName, contentType string) (*models.Attachment, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty upload", errs.ErrInvalidRequest)
	}
	originalName = strings.TrimSpace(filepath.Base(originalName))
	if originalName == "" || originalName == "." {
		return nil, fmt.Errorf("%w: missing file name", errs.ErrInvalidRequest)
	}
	if s.maxAttachment > 0 && int64(len(data)) > s.maxAttachment {
		return nil, fmt.Errorf("%w: upload exceeds %d bytes", errs.ErrInvalidRequest, s.maxAttachment)
	}
	if contentType == "" {
		contentType = blob.DetectContentType(data)
	}

	// uploader-scoped name: a re-upload of the same file by the same
	// uploader overwrites its own blob in place
	filename := uploader + "-" + originalName
	if _, err := s.blobs.Put(ctx, filename, data); err != nil {
		return nil, err
	}

	att := models.Attachment{Filename: filename, ContentType: contentType, Size: int64(len(data))}
	var previous *models.Attachment
	_, err := s.store.Update(ctx, conversationID, func(c *models.Conversation) error {
		if !c.HasParticipant(uploader) {
			return errs.ErrNotFound
		}
		msg, _ := c.FindMessage(messageID)
		if msg == nil {
			return errs.ErrNotFound
		}
		previous = msg.Attachment
		a := att
		msg.Attachment = &a
		return nil
	})
	if err != nil {
		// The staged blob may be unreferenced now; the reconciler owns its
		// cleanup. Deleting it here could destroy bytes a same-named live
		// attachment still references.
		return nil, err
	}
	if previous != nil && previous.Filename != filename {
		if derr := s.blobs.Delete(ctx, previous.Filename); derr != nil {
			logger.Warn("replaced_blob_delete_failed", "conversation", conversationID, "message", messageID, "blob", previous.Filename, "error", derr)
		}
	}
	logger.Info("attachment_uploaded", "conversation", conversationID, "message", messageID, "blob", filename, "bytes", att.Size)
	out := att
	return &out, nil
}

// RemoveAttachment unbinds the message's attachment and deletes the backing
// blob. The metadata commit comes first; if the blob delete then fails the
// error is surfaced as a storage failure while the reference is already
// gone, and the blob is left for the reconciler.
func (s *Service) RemoveAttachment(ctx context.Context, actor, conversationID, messageID string) error {
	var filename string
	_, err := s.store.Update(ctx, conversationID, func(c *models.Conversation) error {
		if !c.HasParticipant(actor) {
			return errs.ErrNotFound
		}
		msg, _ := c.FindMessage(messageID)
		if msg == nil {
			return errs.ErrNotFound
		}
		if msg.Attachment == nil {
			return fmt.Errorf("%w: no attachment", errs.ErrNotFound)
		}
		filename = msg.Attachment.Filename
		msg.Attachment = nil
		return nil
	})
	if err != nil {
		return err
	}
	if derr := s.blobs.Delete(ctx, filename); derr != nil {
		logger.Error("attachment_blob_delete_failed", "conversation", conversationID, "message", messageID, "blob", filename, "error", derr)
		return derr
	}
	return nil
}

// cascadeBlobs frees every attachment blob of a deleted conversation,
// best-effort: a blob-store failure is logged and never blocks the parent
// deletion. Whatever is left behind is reconciled later.
func (s *Service) cascadeBlobs(ctx context.Context, c *models.Conversation) {
	for i := range c.Messages {
		a := c.Messages[i].Attachment
		if a == nil {
			continue
		}
		if err := s.blobs.Delete(ctx, a.Filename); err != nil {
			logger.Warn("cascade_blob_delete_failed", "conversation", c.ID, "message", c.Messages[i].ID, "blob", a.Filename, "error", err)
		}
	}
}
