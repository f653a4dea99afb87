package audit

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

const systemLogsSQLite = `
CREATE TABLE system_logs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	level VARCHAR(10) NOT NULL,
	username VARCHAR(50),
	action VARCHAR(100) NOT NULL,
	message TEXT NOT NULL,
	ip_address VARCHAR(45),
	user_agent TEXT,
	details TEXT,
	created_at TIMESTAMP NOT NULL
)`

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(systemLogsSQLite)
	require.NoError(t, err)
	return db
}
