package store

import (
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"

	"chatstore/pkg/logger"
)

const (
	systemVersionKey    = "system:version"
	systemInProgressKey = "system:migration_in_progress"

	// SchemaVersion is the on-disk layout version this build writes.
	SchemaVersion = "1"
)

// Migrate stamps a fresh store with the current schema version and runs
// upgrade work when opening a store written by an older build. Safe to run
// on every open; a matching version is a no-op.
func (s *Store) Migrate() error {
	cur, closer, err := s.db.Get([]byte(systemVersionKey))
	if err != nil {
		if !errors.Is(err, pebble.ErrNotFound) {
			return fmt.Errorf("read schema version: %w", err)
		}
		// fresh store
		if err := s.db.Set([]byte(systemVersionKey), []byte(SchemaVersion), pebble.Sync); err != nil {
			return fmt.Errorf("stamp schema version: %w", err)
		}
		logger.Info("schema_initialized", "version", SchemaVersion)
		return nil
	}
	from := string(cur)
	closer.Close()

	if from == SchemaVersion {
		return nil
	}

	// An interrupted earlier migration leaves the in-progress marker behind;
	// rerunning from the start is safe because every step is idempotent.
	if _, c, err := s.db.Get([]byte(systemInProgressKey)); err == nil {
		c.Close()
		logger.Warn("migration_resuming_after_interrupt", "from", from)
	} else if err := s.db.Set([]byte(systemInProgressKey), []byte(from), pebble.Sync); err != nil {
		return fmt.Errorf("mark migration in progress: %w", err)
	}

	logger.Info("migration_start", "from", from, "to", SchemaVersion)
	// Per-version upgrade steps go here as the layout evolves.

	b := s.db.NewBatch()
	if err := b.Set([]byte(systemVersionKey), []byte(SchemaVersion), nil); err != nil {
		return err
	}
	if err := b.Delete([]byte(systemInProgressKey), nil); err != nil {
		return err
	}
	if err := s.db.Apply(b, pebble.Sync); err != nil {
		return fmt.Errorf("finalize migration: %w", err)
	}
	logger.Info("migration_complete", "version", SchemaVersion)
	return nil
}
