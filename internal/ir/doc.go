// Package ir provides the minimal abstract JSON value used by the event
// pipeline.
//
// Decoded agent events are arbitrary, deeply nested JSON. Rather than
// unmarshalling into map[string]any (which loses member order), the parser
// builds a small sealed value tree: Null, Bool, Number, String, Array and
// Object. Object keeps its members in source order so that any traversal of
// the same input visits values in the same sequence.
//
// This package imports nothing internal. Every other package that inspects
// raw events imports ir.
package ir
