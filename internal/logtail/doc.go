// Package logtail reads log files into the console.
//
// # Reading
//
// Read returns the last N lines of a file using a ring buffer of size N, so
// memory stays O(N) regardless of file size. Missing files yield no lines
// and no error.
//
// # Parsing
//
// Parse recognises JSON records (as written by most structured loggers) and
// maps their fields onto a console line:
//
//   - time, ts, timestamp: RFC 3339 string or Unix seconds
//   - msg, message: the message; level or lvl is prefixed in upper case
//   - file, caller, source: the file, with an optional ":line" suffix
//   - line, func, function
//   - thread, goroutine: the thread label
//
// Anything else is kept as raw text.
//
// # Following
//
// Follower watches the file's directory with fsnotify and streams appended
// lines. It starts at the end of the file unless FromStart is set, in which
// case it starts at Offset. ReadParsed reports that offset for the lines it
// loaded, so the two can be chained without a gap. It restarts from zero
// when the file shrinks or is recreated, and buffers partial lines until
// their newline arrives. A failed watch is retried with exponential backoff
// capped at 30 seconds.
package logtail
