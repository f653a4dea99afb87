// Package cli implements menuguard-admin, the operator tool for the
// permission database.
//
// # Commands
//
// migrate: apply pending schema migrations
//
//	menuguard-admin migrate --driver postgres --dsn "$MENUGUARD_DB_DSN"
//
// seed: create the menu catalog, the ADMIN and USER roles and optionally an
// administrator account
//
//	menuguard-admin seed --admin admin
//
// check: resolve one permission decision
//
//	menuguard-admin check --user alice --menu MENU_MANAGEMENT --action manage
//
// menus: print the read, write and delete bits a user holds on each menu
//
//	menuguard-admin menus --user alice
//
// purge-logs: delete system log rows past retention, archiving them first
// when a bucket is given
//
//	menuguard-admin purge-logs --days 30 --bucket audit-archive
//
// Database flags default to MENUGUARD_DB_DRIVER and MENUGUARD_DB_DSN.
package cli
