package chat

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"chatstore/pkg/blob"
	"chatstore/pkg/errs"
	"chatstore/pkg/store"
)

// testDirectory knows a fixed set of users.
type testDirectory map[string]bool

func (d testDirectory) Exists(_ context.Context, userID string) (bool, error) {
	return d[userID], nil
}

type fixture struct {
	svc     *Service
	store   *store.Store
	blobDir string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, err := store.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	blobDir := t.TempDir()
	disk, err := blob.NewDisk(blobDir)
	require.NoError(t, err)

	dir := testDirectory{"alice": true, "bob": true, "carol": true, "dave": true}
	return &fixture{
		svc:     New(st, disk, dir, 1<<20),
		store:   st,
		blobDir: blobDir,
	}
}

func (f *fixture) blobExists(name string) bool {
	_, err := os.Stat(filepath.Join(f.blobDir, name))
	return err == nil
}

func TestResolveOrCreateIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.ResolveOrCreate(ctx, []string{"alice", "bob"})
	require.NoError(t, err)
	second, err := f.svc.ResolveOrCreate(ctx, []string{"bob", "alice"})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
}

func TestCreateDuplicateReportsExisting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, []string{"alice", "bob"})
	require.NoError(t, err)

	dup, err := f.svc.Create(ctx, []string{"bob", "alice"})
	require.ErrorIs(t, err, errs.ErrAlreadyExists)
	require.Equal(t, first.ID, dup.ID)
}

func TestGetHidesExistenceFromOutsiders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.svc.Create(ctx, []string{"alice", "bob"})
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, "carol", c.ID)
	require.ErrorIs(t, err, errs.ErrNotFound)

	got, err := f.svc.Get(ctx, "alice", c.ID)
	require.NoError(t, err)
	require.Equal(t, c.ID, got.ID)
}

func TestInvite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.svc.Create(ctx, []string{"alice", "bob"})
	require.NoError(t, err)

	t.Run("unknown invitee", func(t *testing.T) {
		_, err := f.svc.Invite(ctx, c.ID, "alice", "mallory")
		require.ErrorIs(t, err, errs.ErrNotFound)
	})

	t.Run("actor not a participant", func(t *testing.T) {
		_, err := f.svc.Invite(ctx, c.ID, "carol", "dave")
		require.ErrorIs(t, err, errs.ErrNotFound)
	})

	t.Run("success", func(t *testing.T) {
		got, err := f.svc.Invite(ctx, c.ID, "alice", "carol")
		require.NoError(t, err)
		require.Equal(t, []string{"alice", "bob", "carol"}, got.Participants)
	})

	t.Run("invitee already present", func(t *testing.T) {
		_, err := f.svc.Invite(ctx, c.ID, "alice", "carol")
		require.ErrorIs(t, err, errs.ErrAlreadyExists)
	})

	t.Run("combined set collides with another conversation", func(t *testing.T) {
		// a separate {alice,bob} conversation cannot grow into
		// {alice,bob,carol} while this one holds that identity
		small, err := f.svc.Create(ctx, []string{"alice", "dave"})
		require.NoError(t, err)
		_, err = f.svc.Create(ctx, []string{"alice", "dave", "carol"})
		require.NoError(t, err)
		_, err = f.svc.Invite(ctx, small.ID, "alice", "carol")
		require.ErrorIs(t, err, errs.ErrAlreadyExists)
	})
}

func TestLeaveKeepsConversationWhileMembersRemain(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.svc.Create(ctx, []string{"alice", "bob"})
	require.NoError(t, err)

	require.NoError(t, f.svc.Leave(ctx, c.ID, "alice"))

	got, err := f.svc.Get(ctx, "bob", c.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"bob"}, got.Participants)

	require.ErrorIs(t, f.svc.Leave(ctx, c.ID, "alice"), errs.ErrNotFound)
}

func TestLeaveLastParticipantDeletesAndCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.svc.Create(ctx, []string{"alice"})
	require.NoError(t, err)
	m, err := f.svc.Send(ctx, "alice", c.ID, "bye")
	require.NoError(t, err)
	att, err := f.svc.UploadAttachment(ctx, "alice", c.ID, m.ID, []byte("data"), "note.txt", "text/plain")
	require.NoError(t, err)
	require.True(t, f.blobExists(att.Filename))

	require.NoError(t, f.svc.Leave(ctx, c.ID, "alice"))

	_, err = f.store.Get(ctx, c.ID)
	require.ErrorIs(t, err, errs.ErrNotFound)
	require.False(t, f.blobExists(att.Filename))
}

func TestDeleteConversationCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.svc.Create(ctx, []string{"alice", "bob"})
	require.NoError(t, err)
	m, err := f.svc.Send(ctx, "bob", c.ID, "with file")
	require.NoError(t, err)
	att, err := f.svc.UploadAttachment(ctx, "bob", c.ID, m.ID, []byte("bytes"), "pic.png", "image/png")
	require.NoError(t, err)

	require.ErrorIs(t, f.svc.Delete(ctx, c.ID, "carol"), errs.ErrNotFound)

	require.NoError(t, f.svc.Delete(ctx, c.ID, "alice"))
	_, err = f.store.Get(ctx, c.ID)
	require.ErrorIs(t, err, errs.ErrNotFound)
	require.False(t, f.blobExists(att.Filename))
}

func TestListFor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, []string{"alice", "bob"})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, []string{"alice", "carol"})
	require.NoError(t, err)

	convs, err := f.svc.ListFor(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, convs, 2)

	convs, err = f.svc.ListFor(ctx, "dave")
	require.NoError(t, err)
	require.Empty(t, convs)
}
