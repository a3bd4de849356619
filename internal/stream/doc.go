// Package stream decodes the line-delimited JSON event stream emitted by the
// driven agent and classifies top-level events into typed shapes.
//
// Decoding is deliberately tolerant: the agent interleaves diagnostic text
// with structured events, so blank lines and lines that are not valid JSON
// are dropped without error. Classification is equally tolerant: a
// well-formed event that is missing expected fields becomes UnknownEvent (or
// a zero-valued field) rather than an error.
//
// Two independent consumers read the decoded values:
//
//   - invocation.Extract walks every value at any depth.
//   - transcript.Build uses Classify on top-level events only.
package stream
