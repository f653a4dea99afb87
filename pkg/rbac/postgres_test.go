package rbac

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresIntegration(t *testing.T) {
	db := RequireDatabase(t)
	ctx := context.Background()
	store := NewStore(db, WithStoreLogger(quietLogger()), WithLegacyNameFallback(true))

	_, err := Seed(ctx, store, SeedOptions{AdminUsername: "admin"})
	require.NoError(t, err)

	engine := newTestEngine(store)
	allowed, err := engine.Composite(ctx, "admin", MenuPermissionManagement, CompositeFull)
	require.NoError(t, err)
	assert.True(t, allowed)

	err = store.CreateRole(ctx, &Role{Name: AdminRoleName, IsActive: true})
	assert.ErrorIs(t, err, ErrConflict)

	menus, err := engine.AccessibleMenus(ctx, "admin")
	require.NoError(t, err)
	assert.Len(t, menus, len(Catalog()))

	svc := NewService(store, nil, quietLogger())
	admin, err := store.GetUserByUsername(ctx, "admin")
	require.NoError(t, err)
	tree, err := svc.UserMenuTree(ctx, admin.ID)
	require.NoError(t, err)
	assert.Len(t, tree, 5)
}
