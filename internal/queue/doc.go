// Package queue persists processed-clip history in SQLite.
//
// The Store owns the schema (processed_clips plus the job_runs audit table),
// enforces the monotonic status state machine, and retries on SQLITE_BUSY.
// Rows are inserted with status processing before pipeline work begins so a
// crash never loses track of an attempt, and existing rows are how the
// dispatcher avoids reprocessing a clip.
package queue
