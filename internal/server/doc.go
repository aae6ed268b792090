// Package server implements the moded collector daemon.
//
// The collector accepts raw Mode D byte streams from metering devices over
// plain TCP, one decoder per connection, and fans decoded telegrams out to
// three sinks:
//
//   - structured logs (internal/logging)
//   - an optional JSONL capture directory for offline analysis
//   - an optional websocket feed (/stream) for live consumers such as
//     moded-watch
//
// Decode errors on a stream are logged and the stream keeps being consumed;
// the decoder resynchronizes at the next start marker. Transport errors
// close the connection. The server shuts down gracefully on SIGINT/SIGTERM,
// draining connection handlers with a timeout.
package server
