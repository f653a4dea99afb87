// Package rbac decides whether a user may read, write or delete within a
// console menu, and manages the menus, roles and grants behind that decision.
//
// # Model
//
// Users hold roles. Roles hold at most one grant per menu, and a grant carries
// three independent bits:
//
//	can_read    - view the menu and its data
//	can_write   - create and update
//	can_delete  - remove
//
// Menus form a forest through parent_id. Menu codes such as MENU_MANAGEMENT
// are the stable identifiers the rest of the system refers to.
//
// # Resolution
//
// A check succeeds when the union of the grants of the user's active roles
// covers every requested bit. Bits may come from different roles:
//
//	engine := rbac.NewEngine(store, logger, metrics)
//	ok, err := engine.Resolve(ctx, "alice", rbac.MenuMenuManagement, rbac.ActionWrite)
//	ok, err = engine.Composite(ctx, "alice", rbac.MenuMenuManagement, rbac.CompositeManage)
//
// Unknown users, menus and grants deny. Storage failures are returned as
// errors so callers can tell them apart from a denial.
//
// # HTTP
//
// Guard maps each request onto a menu through a RouteTable and asks the
// Authorizer for the bit implied by the method (GET read, POST/PUT/PATCH
// write, DELETE delete). Unmapped API paths are denied. Denials are written
// to the system log through an audit.Recorder.
//
// Handlers exposes the menu, role and grant administration endpoints along
// with /api/permissions/check and /api/auth/me/menus.
//
// # Storage
//
// Store runs on database/sql against PostgreSQL or SQLite with the same SQL.
// Migrate applies the schema and Seed creates the default catalog with the
// ADMIN and USER roles.
package rbac
