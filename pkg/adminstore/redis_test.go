package adminstore

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursedesk/coursedesk/pkg/admin"
)

// setupRedisStore creates a miniredis instance and a store backed by it.
func setupRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	store, err := NewRedisStore(RedisConfig{URL: "redis://" + mr.Addr()})
	if err != nil {
		t.Fatalf("Failed to create redis store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store, mr
}

func TestRedisStore_PutGet(t *testing.T) {
	store, _ := setupRedisStore(t)
	ctx := context.Background()

	record := &admin.Record{
		Email:  "Admin@Example.com",
		Active: true,
		Role:   admin.RoleOwner,
		Permissions: map[string]bool{
			admin.PermManageCourses: true,
		},
	}
	require.NoError(t, store.Put(ctx, record))

	// Key is re-derived on write.
	assert.Equal(t, "admin_example_com", record.Key)

	// Lookup is by derived key, so any casing of the email resolves.
	got, err := store.Get(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, "admin_example_com", got.Key)
	assert.Equal(t, "Admin@Example.com", got.Email)
	assert.True(t, got.Active)
	assert.True(t, got.Permissions[admin.PermManageCourses])
}

func TestRedisStore_GetMissing(t *testing.T) {
	store, _ := setupRedisStore(t)

	_, err := store.Get(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_SetActive(t *testing.T) {
	store, _ := setupRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, &admin.Record{
		Email:  "admin@example.com",
		Active: true,
	}))

	require.NoError(t, store.SetActive(ctx, "admin@example.com", false))

	got, err := store.Get(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.False(t, got.Active)
}

func TestRedisStore_SetActive_Missing(t *testing.T) {
	store, _ := setupRedisStore(t)

	err := store.SetActive(context.Background(), "nobody@example.com", true)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_SetPermission(t *testing.T) {
	store, _ := setupRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, &admin.Record{
		Email:  "admin@example.com",
		Active: true,
	}))

	require.NoError(t, store.SetPermission(ctx, "admin@example.com", admin.PermManageBlog, true))

	got, err := store.Get(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.True(t, got.Permissions[admin.PermManageBlog])

	require.NoError(t, store.SetPermission(ctx, "admin@example.com", admin.PermManageBlog, false))

	got, err = store.Get(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.False(t, got.Permissions[admin.PermManageBlog])
}

func TestRedisStore_List(t *testing.T) {
	store, _ := setupRedisStore(t)
	ctx := context.Background()

	emails := []string{"a@example.com", "b@example.com", "c@example.com"}
	for _, email := range emails {
		require.NoError(t, store.Put(ctx, &admin.Record{Email: email, Active: true}))
	}

	records, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, records, len(emails))
}

func TestRedisStore_Unavailable(t *testing.T) {
	store, mr := setupRedisStore(t)

	mr.Close()

	_, err := store.Get(context.Background(), "admin@example.com")
	assert.True(t, IsUnavailable(err), "expected store-unavailable error, got %v", err)
	assert.ErrorIs(t, err, admin.ErrStoreUnavailable)
}

func TestRedisStore_CorruptRecord(t *testing.T) {
	store, mr := setupRedisStore(t)

	require.NoError(t, mr.Set("admins:admin_example_com", "{not json"))

	_, err := store.Get(context.Background(), "admin@example.com")
	assert.Error(t, err)
	assert.False(t, IsUnavailable(err), "corrupt data is not a transient failure")
}
