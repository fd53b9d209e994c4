package repository

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/roster/pkg/model"
)

// seedTime is the creation time reported for the demo accounts
var seedTime = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// Ids of the demo accounts returned when no users have been stored
const (
	SeedSuperAdminID = "user-superadmin"
	SeedGroupAdminID = "user-groupadmin"
	SeedMemberID     = "user-member"
)

// DefaultUsers returns the three demo accounts
func DefaultUsers() []*model.User {
	mk := func(id, username string, role model.Role) *model.User {
		return &model.User{
			ID:        id,
			Username:  username,
			Email:     username + "@example.com",
			Roles:     []model.Role{role},
			Groups:    []string{},
			IsActive:  true,
			CreatedAt: seedTime,
			UpdatedAt: seedTime,
		}
	}
	return []*model.User{
		mk(SeedSuperAdminID, "superadmin", model.RoleSuperAdmin),
		mk(SeedGroupAdminID, "groupadmin", model.RoleGroupAdmin),
		mk(SeedMemberID, "member", model.RoleMember),
	}
}

// LoadSeedFile reads a YAML fixture describing a full snapshot. The result is
// not validated; pass it to the membership service's Import.
func LoadSeedFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed decodes a YAML snapshot
func ParseSeed(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	snap.Users = normalizeUsers(snap.Users)
	snap.Groups = normalizeGroups(snap.Groups)
	snap.Channels = normalizeChannels(snap.Channels)
	if snap.JoinRequests == nil {
		snap.JoinRequests = []*model.JoinRequest{}
	}
	return &snap, nil
}
