// Package snapshot reads and writes RescueTime export snapshots on local disk
//
// Design choices:
// - One snapshot is one JSON document {notes, row_headers, rows}; .json.gz is read transparently.
// - Numbers stay json.Number so row identity compares literal text, not float values.
// - Writes go to a .part file and are renamed into place, so a reader never sees half a snapshot.
// - Fake produces deterministic documents from a seed for tests and manual runs
package snapshot
