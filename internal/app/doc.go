// Package app wires q7z together for one process invocation.
//
// Run asks the instance coordinator for a role. A forwarding process prints a
// notice and returns. The Primary opens job history, starts the IPC listener,
// the console, and a single job worker, then serves until its context ends.
// Dispatcher serialises extractions: requests from the listener are queued in
// arrival order and run one at a time.
package app
