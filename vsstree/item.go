// Package vsstree reconstructs the live (present-state) project tree: the
// recursive walk of Project items_array entries into real File/Project
// nodes, skipping physically missing items rather than failing the whole
// load (spec §4.4's "orphaned item" rule). This is the snapshot
// cmd/vssgraph renders; the full changeset replay across history lives in
// package vsschangeset, which walks each item's own Revisions instead of
// this tree.
package vsstree

import (
	"errors"
	"fmt"

	"github.com/alegrigoriev/py-vss/vssdb"
	"github.com/alegrigoriev/py-vss/vssitemfile"
	"github.com/alegrigoriev/py-vss/vssrevision"
)

// Item is either a File or a Project, addressable by the logical name its
// parent's items_array entry carries.
type Item interface {
	FullName() vssrevision.FullName
	IsProject() bool
	// Orphaned reports whether the item's backing file was missing on disk
	// (spec §4.4): the entry is kept so the tree shape survives, but it
	// carries no history or content.
	Orphaned() bool
}

// File is a live leaf: its full revision history plus the File item file
// backing it.
type File struct {
	Name       vssrevision.FullName
	ItemFile   *vssitemfile.FileItemFile
	Revisions  *vssrevision.FileRevisions
	orphaned   bool
	// PinnedRevision is >0 when this file entry was inserted by a pinning
	// ShareFile revision: the tree should present this revision's content
	// rather than the item's latest.
	PinnedRevision int
}

func (f *File) FullName() vssrevision.FullName { return f.Name }
func (f *File) IsProject() bool                { return false }
func (f *File) Orphaned() bool                 { return f.orphaned }

// Data returns this file's current content: the pinned revision's payload
// if PinnedRevision is set, otherwise the latest.
func (f *File) Data() []byte {
	if f.orphaned || f.Revisions == nil {
		return nil
	}
	if f.PinnedRevision > 0 {
		if rev := f.Revisions.Get(f.PinnedRevision); rev != nil {
			return rev.RevisionData
		}
	}
	if rev := f.Revisions.Last(); rev != nil {
		return rev.RevisionData
	}
	return nil
}

// Project is a live directory: its own revision history (including its
// items_array reconstruction) plus the resolved children.
type Project struct {
	Name      vssrevision.FullName
	ItemFile  *vssitemfile.ProjectItemFile
	Revisions []*vssrevision.Revision
	Index     *vssrevision.ProjectIndex
	Items     []Item
	orphaned  bool

	// Annotations is a slot for notes on JP (project-entry) records whose
	// on-disk order disagrees with the items_array reconstructed from the
	// revision chain. BuildTree does not read the project's JP records and
	// never appends to it, so it is always empty; Items follow the
	// revision chain's order.
	Annotations []string
}

func (p *Project) FullName() vssrevision.FullName { return p.Name }
func (p *Project) IsProject() bool                { return true }
func (p *Project) Orphaned() bool                 { return p.orphaned }

// BuildTree recursively resolves physical's Project item file into a live
// Project node, walking its items_array into child File/Project nodes.
// Items whose backing file is missing on disk are kept as orphaned leaves
// rather than failing the whole load.
func BuildTree(db *vssdb.Database, name vssrevision.FullName) (*Project, error) {
	pf, err := db.OpenProjectItemFile(name.PhysicalName)
	if err != nil {
		if errors.Is(err, vssdb.ErrVssFileNotFound) {
			return &Project{Name: name, orphaned: true}, nil
		}
		return nil, err
	}

	revisions, idx, err := vssrevision.BuildProjectRevisions(db, pf)
	if err != nil {
		return nil, fmt.Errorf("vsstree: %s: %w", name, err)
	}

	p := &Project{Name: name, ItemFile: pf, Revisions: revisions, Index: idx}
	for i := 0; i < idx.Len(); i++ {
		childName, _ := idx.Get(i)
		child, err := buildItem(db, childName)
		if err != nil {
			return nil, err
		}
		p.Items = append(p.Items, child)
	}

	pinned := computePinnedRevisions(revisions)
	for _, it := range p.Items {
		f, ok := it.(*File)
		if !ok {
			continue
		}
		if rev, ok := pinned[f.Name.PhysicalName]; ok {
			f.PinnedRevision = rev
		}
	}
	return p, nil
}

// computePinnedRevisions scans a project's own revision stream for
// ShareFile events and reports, per physical name, the revision number a
// still-pinned child is frozen at (spec's pin/unpin polarity:
// UnpinnedRevision == 0 pins at PinnedRevision, UnpinnedRevision > 0
// unpins). Duplicated from package vsschangeset's own pinnedRevisions,
// which serves the same definition for the backward-walking engine's
// pending queue — vsstree sits below vsschangeset and cannot import it.
func computePinnedRevisions(revs []*vssrevision.Revision) map[string]int {
	pinned := map[string]int{}
	for _, rev := range revs {
		if rev == nil || rev.Action != vssitemfile.ActionShareFile {
			continue
		}
		switch {
		case rev.UnpinnedRevision == 0:
			pinned[rev.FullName.PhysicalName] = rev.PinnedRevision
		case rev.UnpinnedRevision > 0:
			delete(pinned, rev.FullName.PhysicalName)
		}
	}
	return pinned
}

func buildItem(db *vssdb.Database, name vssrevision.FullName) (Item, error) {
	if name.IsProject {
		return BuildTree(db, name)
	}
	ff, err := db.OpenFileItemFile(name.PhysicalName)
	if err != nil {
		if errors.Is(err, vssdb.ErrVssFileNotFound) {
			return &File{Name: name, orphaned: true}, nil
		}
		return nil, err
	}
	revisions, err := vssrevision.BuildFileRevisions(db, ff)
	if err != nil {
		return nil, fmt.Errorf("vsstree: %s: %w", name, err)
	}
	return &File{Name: name, ItemFile: ff, Revisions: revisions}, nil
}

// Root builds the tree rooted at the repository's well-known "$" project.
func Root(db *vssdb.Database) (*Project, error) {
	name := vssrevision.FullName{
		IsProject:    true,
		Name:         vssdb.RootProjectName,
		PhysicalName: vssdb.RootProjectFile,
		IndexName:    vssdb.RootProjectName,
	}
	return BuildTree(db, name)
}

// FindFile locates a child File directly under p by logical short name.
func (p *Project) FindFile(name string) (*File, bool) {
	for _, it := range p.Items {
		if !it.IsProject() && it.FullName().Name == name {
			return it.(*File), true
		}
	}
	return nil, false
}

// FindProject locates a child Project directly under p by logical short
// name.
func (p *Project) FindProject(name string) (*Project, bool) {
	for _, it := range p.Items {
		if it.IsProject() && it.FullName().Name == name {
			return it.(*Project), true
		}
	}
	return nil, false
}
