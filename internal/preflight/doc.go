// Package preflight provides readiness checks for the directories, binaries,
// and services q7z depends on.
//
// The CLI "q7z check" command runs RunAll and prints one row per check. Each
// check is gated by its configuration: notifications are only checked when a
// topic is set. The endpoint check never fails; it reports whether a Primary
// currently owns the endpoint.
package preflight
