// Package history records every extraction the Primary runs in a SQLite
// database so `q7z history` can list past jobs and their outcomes.
package history
