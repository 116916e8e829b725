// Package events fans extraction progress out to UI subscribers.
//
// Hub keeps a bounded ring of recent events and delivers each one to every
// subscriber channel. A slow subscriber never stalls the archiver pipeline
// under the default drop-oldest policy; the block policy trades that for
// lossless delivery.
package events
