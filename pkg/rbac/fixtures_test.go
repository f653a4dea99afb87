package rbac

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/menuguard/pkg/observability"
)

func quietLogger() *observability.Logger {
	return observability.NewLogger(observability.ErrorLevel, io.Discard)
}

func int64Ptr(v int64) *int64 { return &v }
func intPtr(v int) *int       { return &v }
func boolPtr(v bool) *bool    { return &v }
func strPtr(v string) *string { return &v }

// fixture wraps a migrated in-memory store with terse builders
type fixture struct {
	t     *testing.T
	ctx   context.Context
	store *Store
}

func newFixture(t *testing.T, opts ...StoreOption) *fixture {
	t.Helper()
	opts = append([]StoreOption{WithStoreLogger(quietLogger())}, opts...)
	return &fixture{
		t:     t,
		ctx:   context.Background(),
		store: NewStore(NewTestDB(t), opts...),
	}
}

func (f *fixture) user(name string) *User {
	f.t.Helper()
	u := &User{Username: name, IsActive: true}
	require.NoError(f.t, f.store.CreateUser(f.ctx, u))
	return u
}

func (f *fixture) role(name string) *Role {
	f.t.Helper()
	r := &Role{Name: name, IsActive: true}
	require.NoError(f.t, f.store.CreateRole(f.ctx, r))
	return r
}

func (f *fixture) menu(code MenuCode, name string, parent *Menu) *Menu {
	f.t.Helper()
	m := &Menu{Code: code, Name: name, IsVisible: true, IsActive: true}
	if parent != nil {
		m.ParentID = int64Ptr(parent.ID)
	}
	next, err := f.store.NextOrderNum(f.ctx, m.ParentID)
	require.NoError(f.t, err)
	m.OrderNum = next
	require.NoError(f.t, f.store.CreateMenu(f.ctx, m))
	return m
}

func (f *fixture) grant(r *Role, m *Menu, read, write, del bool) *Grant {
	f.t.Helper()
	g := &Grant{RoleID: r.ID, MenuID: m.ID, CanRead: read, CanWrite: write, CanDelete: del}
	require.NoError(f.t, f.store.CreateGrant(f.ctx, g))
	return g
}

func (f *fixture) assign(u *User, r *Role) {
	f.t.Helper()
	require.NoError(f.t, f.store.AssignRole(f.ctx, u.ID, r.ID))
}
