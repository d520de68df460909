// Package console connects the logger, the log buffer and the exporter to a
// UI loop.
//
// A Console is inert until Configure or Launch attaches a Dispatcher. From
// then on every line the logger emits is appended to the buffer on the
// dispatcher's loop, so the buffer only ever changes where the UI reads it.
// Queue is the dispatcher used with Bubble Tea: work is collected from any
// goroutine and drained by the program when it receives a wake-up message.
package console
