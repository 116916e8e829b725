// Package ipc implements the local message channel between q7z instances.
//
// A message is a single extraction request framed as
// "input\x00output\x00filter\n"; each connection carries exactly one message
// and is closed by the sender afterwards. Server runs the Primary's accept
// loop and hands decoded requests to a Handler, discarding malformed frames
// without disturbing the loop.
package ipc
