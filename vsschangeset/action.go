// Package vsschangeset turns the per-item Revision histories built by
// package vssrevision into a chronological sequence of changesets, each a
// small batch of Actions replayable through a vsshandler.Handler.
//
// History is reconstructed backward: a directory-cursor pending heap
// (cursor.go) performs a lazy k-way merge across every item's own
// revision stream, newest first, mutating a live mirror of the
// items_array as each revision's backward-apply runs — so an item a later
// DestroyFile/DestroyProject removed, or a later BranchFile replaced, is
// reopened from disk and still replays its earlier history. The merged,
// still-descending stream of Actions is then sorted ascending by
// (timestamp, author) and folded into Changesets. Grounded on the
// original implementation's vss_changeset.py/vss_action.py.
package vsschangeset

import (
	"strings"

	"github.com/alegrigoriev/py-vss/vssdb"
	"github.com/alegrigoriev/py-vss/vssrevision"
)

// ActionKind is the forward-emission vocabulary a vsshandler.Handler
// implements, per spec §4.6's RevisionActionHandler.
type ActionKind int

const (
	CreateFile ActionKind = iota
	ChangeFile
	DeleteFile
	RenameFile
	CreateDirectory
	DeleteDirectory
	RenameDirectory
	CreateFileLabel
	CreateDirLabel
)

// Action is one replayable effect of a single source Revision.
type Action struct {
	Kind     ActionKind
	Path     string
	OldPath  string
	Data     []byte
	CopyFrom string
	Label    string

	Source *vssrevision.Revision
}

// pathOf joins names VSS-style, rooted at the repository's "$" project.
func pathOf(names []string) string {
	return strings.Join(append([]string{vssdb.RootProjectName}, names...), "/")
}
