// Package audit keeps the system log: who did what, from where, and whether
// it was allowed.
//
// # Writing
//
// Recorder writes entries from background goroutines; request handlers never
// wait on the database. Close waits for pending writes.
//
//	recorder := audit.NewRecorder(audit.NewDBLogger(db), logger, metrics, 5*time.Second)
//	defer recorder.Close()
//
// Middleware records an entry for each completed user, role, menu and
// permission change.
//
// # Reading and retention
//
// DBStore searches, counts, exports (JSON, CSV, NDJSON) and purges entries.
// PurgeScheduler runs the purge on a cron schedule; with an S3Archiver the
// expired rows are uploaded before they are deleted.
package audit
