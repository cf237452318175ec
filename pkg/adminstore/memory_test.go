package adminstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursedesk/coursedesk/pkg/admin"
)

func TestMemoryStore_PutGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, &admin.Record{
		Email:  "admin@example.com",
		Active: true,
		Permissions: map[string]bool{
			admin.PermManageCourses: true,
		},
	}))

	got, err := store.Get(ctx, "ADMIN@example.com")
	require.NoError(t, err)
	assert.Equal(t, "admin_example_com", got.Key)
	assert.True(t, got.HasPermission(admin.PermManageCourses))
}

func TestMemoryStore_GetMissing(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.Get(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, &admin.Record{
		Email:       "admin@example.com",
		Active:      true,
		Permissions: map[string]bool{admin.PermManageCourses: true},
	}))

	got, err := store.Get(ctx, "admin@example.com")
	require.NoError(t, err)

	// Mutating the returned record must not affect the stored one.
	got.Active = false
	got.Permissions[admin.PermManageCourses] = false

	again, err := store.Get(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.True(t, again.Active)
	assert.True(t, again.Permissions[admin.PermManageCourses])
}

func TestMemoryStore_SetActiveAndPermission(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, &admin.Record{Email: "admin@example.com", Active: true}))

	require.NoError(t, store.SetActive(ctx, "admin@example.com", false))
	require.NoError(t, store.SetPermission(ctx, "admin@example.com", admin.PermManageBlog, true))

	got, err := store.Get(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.False(t, got.Active)
	assert.True(t, got.Permissions[admin.PermManageBlog])

	assert.ErrorIs(t, store.SetActive(ctx, "nobody@example.com", true), ErrNotFound)
	assert.ErrorIs(t, store.SetPermission(ctx, "nobody@example.com", admin.PermManageBlog, true), ErrNotFound)
}
