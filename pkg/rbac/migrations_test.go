package rbac

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db, dialect, err := OpenDB(ctx, "sqlite3", ":memory:", PoolConfig{})
	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, DialectSQLite, dialect)

	applied, err := Migrate(ctx, db, dialect)
	require.NoError(t, err)
	assert.Len(t, applied, len(GetMigrations()))

	applied, err = Migrate(ctx, db, dialect)
	require.NoError(t, err)
	assert.Empty(t, applied)

	var fk int
	require.NoError(t, db.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)
}

func TestMigrationVersionsAscend(t *testing.T) {
	prev := 0
	for _, m := range GetMigrations() {
		assert.Greater(t, m.Version, prev)
		assert.NotEmpty(t, m.Description)
		prev = m.Version
	}
}

func TestDialectRewrite(t *testing.T) {
	ddl := "CREATE TABLE t (id BIGSERIAL PRIMARY KEY)"
	assert.Equal(t, ddl, DialectPostgres.rewrite(ddl))
	assert.Equal(t, "CREATE TABLE t (id INTEGER PRIMARY KEY AUTOINCREMENT)", DialectSQLite.rewrite(ddl))
}

func TestOpenDBRejectsUnknownDriver(t *testing.T) {
	_, _, err := OpenDB(context.Background(), "mysql", "dsn", PoolConfig{})
	assert.Error(t, err)
}

func TestSeed(t *testing.T) {
	f := newFixture(t)

	result, err := Seed(f.ctx, f.store, SeedOptions{AdminUsername: "admin"})
	require.NoError(t, err)
	assert.Equal(t, len(Catalog()), result.Menus)
	assert.Equal(t, 2, result.Roles)
	assert.Equal(t, len(Catalog())+2, result.Grants)
	assert.Equal(t, 1, result.Users)

	again, err := Seed(f.ctx, f.store, SeedOptions{AdminUsername: "admin"})
	require.NoError(t, err)
	assert.Equal(t, SeedResult{}, again)

	admin, err := f.store.GetUserByUsername(f.ctx, "admin")
	require.NoError(t, err)
	assert.True(t, admin.PasswordChangeRequired)

	engine := newTestEngine(f.store)
	for _, code := range Catalog() {
		allowed, err := engine.Composite(f.ctx, "admin", code, CompositeFull)
		require.NoError(t, err)
		assert.True(t, allowed, "admin has full access to %s", code)
	}

	system, err := f.store.GetMenuByCode(f.ctx, MenuSystemManagement)
	require.NoError(t, err)
	children, err := f.store.ListChildMenus(f.ctx, system.ID)
	require.NoError(t, err)
	assert.Len(t, children, 5)

	tree := BuildTree(mustListMenus(t, f))
	assert.Empty(t, OrphanMenus(mustListMenus(t, f)))
	assert.Len(t, tree, 5)
}

func TestSeedUserRole(t *testing.T) {
	f := newFixture(t)
	_, err := Seed(f.ctx, f.store, SeedOptions{})
	require.NoError(t, err)

	bob := f.user("bob")
	role, err := f.store.GetRoleByName(f.ctx, UserRoleName)
	require.NoError(t, err)
	f.assign(bob, role)

	engine := newTestEngine(f.store)
	menus, err := engine.AccessibleMenus(f.ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, []string{"DASHBOARD", "MY_PROFILE"}, menus)

	allowed, err := engine.Resolve(f.ctx, "bob", MenuMyProfile, ActionWrite)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = engine.Resolve(f.ctx, "bob", MenuUserManagement, ActionRead)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func mustListMenus(t *testing.T, f *fixture) []*Menu {
	t.Helper()
	menus, err := f.store.ListMenus(f.ctx)
	require.NoError(t, err)
	return menus
}
