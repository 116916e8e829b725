// Package archiver runs the external 7-Zip binary for one extraction request.
//
// Runner builds the "x <input> -o<output> -aou -bsp1 [<filter>]" command,
// feeds the archiver's standard output through a progress.Extractor, and
// publishes percent, file, and log events to an events.Sink. Standard error is
// drained into the log on its own goroutine. Process execution sits behind the
// Executor interface so tests can replay canned output.
package archiver
