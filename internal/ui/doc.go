// Package ui is the console surface of the Primary.
//
// Console shows one progress bar per job when attached to a terminal and
// falls back to plain "job NN%" lines otherwise. It consumes events from an
// events.Hub subscription, so a slow terminal never stalls the archiver.
package ui
