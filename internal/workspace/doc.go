// Package workspace models the on-disk migration workspace.
//
// A Context carries the session id, the workspace root and the log sink
// through every evaluation. The Catalog names every artifact category with
// its canonical location, the glob used to recognise misplaced copies, its
// schema and its prerequisites. Artifacts are always read fresh; nothing in
// this package caches file content.
package workspace
