// Package main hosts the q7z CLI entrypoint and command graph.
//
// The root command takes an optional extraction request and hands it to the
// instance coordinator: the first process becomes the Primary and runs jobs,
// later ones forward their request and exit. Subcommands scaffold the
// configuration, list job history, and send a test notification.
package main
