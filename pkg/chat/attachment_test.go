package chat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"chatstore/pkg/errs"
)

func TestUploadAttachmentBindsAndScopesName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := seedConversation(t, f, "alice", "bob")
	m, err := f.svc.Send(ctx, "alice", c.ID, "here you go")
	require.NoError(t, err)

	att, err := f.svc.UploadAttachment(ctx, "alice", c.ID, m.ID, []byte("hello world"), "notes.txt", "text/plain")
	require.NoError(t, err)
	require.Equal(t, "alice-notes.txt", att.Filename)
	require.Equal(t, "text/plain", att.ContentType)
	require.EqualValues(t, 11, att.Size)
	require.True(t, f.blobExists(att.Filename))

	got, err := f.svc.Get(ctx, "alice", c.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Messages[0].Attachment)
	require.Equal(t, att.Filename, got.Messages[0].Attachment.Filename)
}

func TestUploadAttachmentSniffsContentType(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := seedConversation(t, f, "alice", "bob")
	m, err := f.svc.Send(ctx, "alice", c.ID, "pic")
	require.NoError(t, err)

	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	att, err := f.svc.UploadAttachment(ctx, "alice", c.ID, m.ID, png, "pic.png", "")
	require.NoError(t, err)
	require.Equal(t, "image/png", att.ContentType)
}

func TestUploadAttachmentReplacementLeavesOneBlob(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := seedConversation(t, f, "alice", "bob")
	m, err := f.svc.Send(ctx, "alice", c.ID, "v1")
	require.NoError(t, err)

	first, err := f.svc.UploadAttachment(ctx, "alice", c.ID, m.ID, []byte("v1"), "draft.txt", "text/plain")
	require.NoError(t, err)
	second, err := f.svc.UploadAttachment(ctx, "alice", c.ID, m.ID, []byte("v2"), "final.txt", "text/plain")
	require.NoError(t, err)

	// exactly one blob remains reachable from the message
	require.False(t, f.blobExists(first.Filename))
	require.True(t, f.blobExists(second.Filename))

	got, err := f.svc.Get(ctx, "alice", c.ID)
	require.NoError(t, err)
	require.Equal(t, second.Filename, got.Messages[0].Attachment.Filename)
}

func TestUploadAttachmentValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := seedConversation(t, f, "alice", "bob")
	m, err := f.svc.Send(ctx, "alice", c.ID, "msg")
	require.NoError(t, err)

	_, err = f.svc.UploadAttachment(ctx, "alice", c.ID, m.ID, nil, "f.txt", "")
	require.ErrorIs(t, err, errs.ErrInvalidRequest)

	_, err = f.svc.UploadAttachment(ctx, "alice", c.ID, m.ID, []byte("x"), "  ", "")
	require.ErrorIs(t, err, errs.ErrInvalidRequest)

	big := make([]byte, (1<<20)+1)
	_, err = f.svc.UploadAttachment(ctx, "alice", c.ID, m.ID, big, "big.bin", "")
	require.ErrorIs(t, err, errs.ErrInvalidRequest)

	_, err = f.svc.UploadAttachment(ctx, "carol", c.ID, m.ID, []byte("x"), "f.txt", "")
	require.ErrorIs(t, err, errs.ErrNotFound)

	_, err = f.svc.UploadAttachment(ctx, "alice", c.ID, "missing", []byte("x"), "f.txt", "")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestRemoveAttachment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := seedConversation(t, f, "alice", "bob")
	m, err := f.svc.Send(ctx, "alice", c.ID, "msg")
	require.NoError(t, err)
	att, err := f.svc.UploadAttachment(ctx, "alice", c.ID, m.ID, []byte("x"), "f.txt", "text/plain")
	require.NoError(t, err)

	require.NoError(t, f.svc.RemoveAttachment(ctx, "bob", c.ID, m.ID))
	require.False(t, f.blobExists(att.Filename))

	got, err := f.svc.Get(ctx, "alice", c.ID)
	require.NoError(t, err)
	require.Nil(t, got.Messages[0].Attachment)

	// nothing left to remove
	require.ErrorIs(t, f.svc.RemoveAttachment(ctx, "alice", c.ID, m.ID), errs.ErrNotFound)
}
