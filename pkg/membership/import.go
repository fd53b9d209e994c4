package membership

import (
	"context"
	"fmt"

	"github.com/platinummonkey/roster/pkg/audit"
	"github.com/platinummonkey/roster/pkg/repository"
)

// SystemActor is recorded as the actor of changes made by the process itself
const SystemActor = "system"

// Import replaces every collection with snap after checking it against the
// full invariant verifier. It is meant for seeding and restores and is not
// subject to permission checks.
func (s *Service) Import(ctx context.Context, snap *repository.Snapshot) error {
	if snap == nil {
		return NewError(KindInvalidInput, "Import", "snapshot is required")
	}
	staged := snap.Clone()
	if err := Verify(staged); err != nil {
		return err
	}

	return s.Transact(ctx, "Import", writeAll, func(tx *Tx) error {
		current := tx.Snapshot()
		*current = *staged
		tx.MarkDirty(writeAll...)

		event := audit.NewEvent(audit.EventTypeSnapshotImport, SystemActor, audit.ResourceTypePlatform, "", "imported snapshot")
		event.Metadata["users"] = len(staged.Users)
		event.Metadata["groups"] = len(staged.Groups)
		event.Metadata["channels"] = len(staged.Channels)
		event.Metadata["join_requests"] = len(staged.JoinRequests)
		tx.Audit(event)
		return nil
	})
}

// ImportSeedFile loads a YAML fixture and imports it
func (s *Service) ImportSeedFile(ctx context.Context, path string) error {
	snap, err := repository.LoadSeedFile(path)
	if err != nil {
		return err
	}
	if err := s.Import(ctx, snap); err != nil {
		return fmt.Errorf("failed to import %s: %w", path, err)
	}
	return nil
}
