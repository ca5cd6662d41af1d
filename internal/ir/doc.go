// Package ir defines the value model and core records shared by every
// layer of the choreography core: the tagged Value union, canonical
// JSON serialization for content-addressed identity, ActionRecord and
// Edge (the Action Log substrate), and the compiled Sync form
// (when/where/then clauses).
//
// Everything in this package is plain data. Matching, evaluation, and
// storage live in the engine, query, and store packages.
package ir
