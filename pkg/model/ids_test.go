package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddID(t *testing.T) {
	ids := AddID(nil, "a")
	ids = AddID(ids, "b")
	ids = AddID(ids, "a")
	assert.Equal(t, []string{"a", "b"}, ids)
}

func TestRemoveID(t *testing.T) {
	t.Run("preserves order", func(t *testing.T) {
		assert.Equal(t, []string{"a", "c"}, RemoveID([]string{"a", "b", "c"}, "b"))
	})

	t.Run("does not alias input", func(t *testing.T) {
		in := []string{"a", "b", "c"}
		out := RemoveID(in, "a")
		out[0] = "z"
		assert.Equal(t, []string{"a", "b", "c"}, in)
	})

	t.Run("missing id", func(t *testing.T) {
		assert.Equal(t, []string{"a"}, RemoveID([]string{"a"}, "x"))
	})
}

func TestCloneIDs(t *testing.T) {
	assert.NotNil(t, CloneIDs(nil))
	assert.Empty(t, CloneIDs(nil))
}

func TestHasDuplicates(t *testing.T) {
	assert.False(t, HasDuplicates([]string{"a", "b"}))
	assert.True(t, HasDuplicates([]string{"a", "b", "a"}))
}

func TestSameIDSet(t *testing.T) {
	assert.True(t, SameIDSet([]string{"a", "b"}, []string{"b", "a"}))
	assert.False(t, SameIDSet([]string{"a", "b"}, []string{"a", "a"}))
	assert.False(t, SameIDSet([]string{"a"}, []string{"a", "b"}))
}

func TestCloneIsDeep(t *testing.T) {
	g := &Group{ID: "g", Members: []string{"u1"}, Admins: []string{"u1"}}
	c := g.Clone()
	c.Members = append(c.Members, "u2")
	c.Admins[0] = "x"
	assert.Equal(t, []string{"u1"}, g.Members)
	assert.Equal(t, []string{"u1"}, g.Admins)
}

func TestCapacity(t *testing.T) {
	g := &Group{Members: []string{"a", "b"}}
	assert.False(t, g.IsFull(), "zero max means unlimited")
	g.MaxMembers = 2
	assert.True(t, g.IsFull())

	c := &Channel{Members: []string{"a"}, MaxMembers: 2}
	assert.False(t, c.IsFull())
}

func TestUserHasRole(t *testing.T) {
	u := &User{Roles: []Role{RoleGroupAdmin, RoleMember}}
	assert.True(t, u.HasRole(RoleGroupAdmin))
	assert.False(t, u.HasRole(RoleSuperAdmin))
}
