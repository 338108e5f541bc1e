// Package vsshandler declares the narrow vocabulary a changeset replay
// (package vsschangeset) drives a concrete destination through: a handful
// of path-level operations, independent of whatever format or transport
// the destination actually writes (a Perforce journal, a git fast-import
// stream, a plain checkout tree). Exactly one implementation, package
// journal's Handler, ships with this module.
package vsshandler

// Handler receives the forward-emitted effect of each replayed revision.
// Every method may be called multiple times for the same path across the
// life of a Handler (a file can be deleted and later recreated); it is the
// Handler's job to make that legal for its destination.
type Handler interface {
	// CreateFile introduces path with the given content. copyFrom, when
	// non-empty, names a path this content should be attributed to as an
	// integration source (a Share or a Branch whose target already exists
	// at the destination) rather than a fresh add.
	CreateFile(path string, data []byte, copyFrom string) error

	// ChangeFile records a new revision of an existing path.
	ChangeFile(path string, data []byte) error

	// DeleteFile removes path.
	DeleteFile(path string) error

	// RenameFile moves oldPath to newPath, preserving history.
	RenameFile(oldPath, newPath string) error

	// CreateDirectory introduces a directory at path.
	CreateDirectory(path string) error

	// DeleteDirectory removes the directory at path and everything under
	// it that has not already been independently deleted.
	DeleteDirectory(path string) error

	// RenameDirectory moves a directory and its live contents.
	RenameDirectory(oldPath, newPath string) error

	// CreateFileLabel records label against path's current revision.
	CreateFileLabel(path, label string) error

	// CreateDirLabel records label against the directory at path (and,
	// implicitly, the revisions of everything currently live under it).
	CreateDirLabel(path, label string) error
}
