// Package vssdb owns the repository-wide state a VSS item file cannot see
// on its own: the shared name file, the open-item-file cache that
// deduplicates shared physical files, and the srcsafe.ini-derived data path.
package vssdb

import "errors"

// ErrVssFileNotFound is returned when an item file's sibling data file (or
// the item file itself) is missing on disk. Item construction (package
// vsstree) catches this and marks the item orphaned rather than failing the
// whole load.
var ErrVssFileNotFound = errors.New("vssdb: data file not found")
