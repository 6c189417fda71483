// Package hierarchy turns a flat, possibly inconsistent list of upstream nodes into a
// leveled tree with deterministic sibling ordering. Everything here is pure and in-memory;
// malformed input degrades to root placement and never to an error.
package hierarchy
