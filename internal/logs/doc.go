// Package logs reads the Primary's log files for the CLI.
//
// Current finds the log of the latest Primary through the q7z.log pointer,
// Last returns its final lines with bounded memory, and Follow streams lines
// appended afterwards until the caller's context ends.
package logs
