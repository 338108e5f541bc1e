package vsschangeset

import (
	"sort"
	"strings"

	"github.com/alegrigoriev/py-vss/vssdb"
	"github.com/alegrigoriev/py-vss/vssitemfile"
	"github.com/alegrigoriev/py-vss/vssrevision"
)

// This file is the backward-walking changeset engine: a priority-ordered
// multi-way merge across every item's own revision stream, draining from
// the most recent revision backward and mutating a live, mutable mirror of
// the items_array as it goes. A destroyed item is reopened from disk and
// spliced back into its parent's tree the moment the walk reaches the
// revision that destroyed it, so its earlier history still replays; a
// shared item pinned at load time starts excluded from its owner's pending
// queue so its content stays frozen until the walk reaches the revision
// that pinned it. Grounded on vss_changeset.py's vss_file_changeset_item /
// vss_directory_changeset_item and vss_action.py's apply_to_item_backwards
// table.

// cursorItem is either a fileCursor or a dirCursor: one entry in a
// directory's pending queue, addressable by physical name for backward
// lookups and able to drain its own next revision into zero or more
// forward Actions.
type cursorItem interface {
	physicalName() string
	logicalName() string
	setLogicalName(name string)
	isProject() bool
	isDeleted() bool
	setDeleted(bool)
	missing() bool
	setParent(*dirCursor)
	peekTimestamp() (uint32, bool)
	drain(parentPath []string) []Action
}

// fileCursor walks one File's revision stream backward, one revision per
// drain call.
type fileCursor struct {
	parent  *dirCursor
	name    vssrevision.FullName
	fr      *vssrevision.FileRevisions
	idx     int // index into fr.Revisions; -1 once exhausted
	deleted bool
	absent  bool
}

func newFileCursor(name vssrevision.FullName, fr *vssrevision.FileRevisions, deleted, absent bool) *fileCursor {
	fc := &fileCursor{name: name, fr: fr, deleted: deleted, absent: absent, idx: -1}
	if fr != nil {
		fc.idx = len(fr.Revisions) - 1
	}
	return fc
}

func (f *fileCursor) physicalName() string     { return f.name.PhysicalName }
func (f *fileCursor) logicalName() string      { return f.name.Name }
func (f *fileCursor) setLogicalName(n string)  { f.name.Name = n }
func (f *fileCursor) isProject() bool          { return false }
func (f *fileCursor) isDeleted() bool          { return f.deleted }
func (f *fileCursor) setDeleted(d bool)        { f.deleted = d }
func (f *fileCursor) missing() bool            { return f.absent }
func (f *fileCursor) setParent(p *dirCursor)   { f.parent = p }

func (f *fileCursor) peekTimestamp() (uint32, bool) {
	if f.idx < 0 {
		return 0, false
	}
	return f.fr.Revisions[f.idx].Timestamp, true
}

// peekData returns the payload of the not-yet-drained top revision,
// without advancing: the content a containing directory's ShareFile,
// RecoverFile or Unpin event (and a RecoverProject snapshot) carries if it
// fires before this revision is reached.
func (f *fileCursor) peekData() []byte {
	if f.idx < 0 {
		return nil
	}
	return f.fr.Revisions[f.idx].RevisionData
}

// revisionData looks up an exact revision number, delegating to a branch
// parent below the cursor's own FirstRevision: used by Pin, which reads
// the pinned revision directly rather than through the cursor.
func (f *fileCursor) revisionData(num int) []byte {
	if f.fr == nil {
		return nil
	}
	if rev := f.fr.Get(num); rev != nil {
		return rev.RevisionData
	}
	return nil
}

func (f *fileCursor) drain(parentPath []string) []Action {
	if f.idx < 0 {
		return nil
	}
	rev := f.fr.Revisions[f.idx]
	f.idx--
	path := pathOf(append(append([]string{}, parentPath...), f.name.Name))

	switch rev.Action {
	case vssitemfile.ActionCreateFile:
		f.idx = -1
		if f.parent != nil {
			f.parent.forget(f)
		}
		return []Action{{Kind: CreateFile, Path: path, Data: rev.RevisionData, Source: rev}}
	case vssitemfile.ActionCreateBranch:
		// The file's own branch point: its snapshot at the moment the
		// branch was cut. The shared ancestor's continued history is
		// spliced in separately by BranchFile's backward-apply.
		f.idx = -1
		return []Action{{Kind: ChangeFile, Path: path, Data: rev.RevisionData, Source: rev}}
	case vssitemfile.ActionCheckinFile:
		return []Action{{Kind: ChangeFile, Path: path, Data: rev.RevisionData, Source: rev}}
	case vssitemfile.ActionLabel:
		return []Action{{Kind: CreateFileLabel, Path: path, Label: rev.Label, Source: rev}}
	default:
		return nil
	}
}

// pendingEntry is one (priority timestamp, item) slot in a directory's
// merge queue, kept sorted ascending so the next item to drain (the one
// with the latest still-unprocessed revision) sits at the tail.
type pendingEntry struct {
	ts   uint32
	item cursorItem
}

// dirCursor walks one Project's own revision stream (structural events
// naming its children, plus its own CreateProject/Label) merged with every
// still-active child's stream via pending, a heap ordered latest-last.
type dirCursor struct {
	db      *vssdb.Database
	parent  *dirCursor
	name    vssrevision.FullName
	ownRevs []*vssrevision.Revision
	ownIdx  int // index into ownRevs; -1 once exhausted
	items   []cursorItem
	byName  map[string]cursorItem
	pending []pendingEntry
	deleted bool
	absent  bool
}

func (d *dirCursor) physicalName() string    { return d.name.PhysicalName }
func (d *dirCursor) logicalName() string     { return d.name.Name }
func (d *dirCursor) setLogicalName(n string) { d.name.Name = n }
func (d *dirCursor) isProject() bool         { return true }
func (d *dirCursor) isDeleted() bool         { return d.deleted }
func (d *dirCursor) setDeleted(v bool)       { d.deleted = v }
func (d *dirCursor) missing() bool           { return d.absent }
func (d *dirCursor) setParent(p *dirCursor)  { d.parent = p }

func (d *dirCursor) peekTimestamp() (uint32, bool) {
	if len(d.pending) == 0 {
		return 0, false
	}
	return d.pending[len(d.pending)-1].ts, true
}

func (d *dirCursor) forget(item cursorItem) { delete(d.byName, item.logicalName()) }

func (d *dirCursor) findIndexByPhysical(physical string) int {
	for i, it := range d.items {
		if it.physicalName() == physical {
			return i
		}
	}
	return -1
}

func (d *dirCursor) removeItemByIndex(idx int, removeFromDirectory bool) cursorItem {
	if idx < 0 || idx >= len(d.items) {
		return nil
	}
	item := d.items[idx]
	d.items = append(d.items[:idx], d.items[idx+1:]...)
	if !item.isDeleted() && (removeFromDirectory || item.missing()) {
		delete(d.byName, item.logicalName())
	}
	return item
}

func (d *dirCursor) insertItemByIdx(item cursorItem, idx int) {
	item.setParent(d)
	if idx > len(d.items) || idx < 0 {
		idx = len(d.items)
	}
	d.items = append(d.items, nil)
	copy(d.items[idx+1:], d.items[idx:])
	d.items[idx] = item
	if !item.isDeleted() {
		d.byName[item.logicalName()] = item
	}
}

// insertPending pushes item (or d itself) into the pending queue at its
// priority position: ascending by timestamp, ties broken so that among
// equal timestamps d's own self-entry pops last (any same-instant child
// drains first, so a project-level event can never pre-empt a child's own
// revision at the identical timestamp), and children tie-break by logical
// name ascending (earlier name pops first) — matching
// vss_directory_changeset_item.insert_pending_item. A deleted or
// exhausted item contributes nothing.
func (d *dirCursor) insertPending(item cursorItem) {
	isSelf := item == cursorItem(d)
	var ts uint32
	if isSelf {
		if d.ownIdx < 0 {
			return
		}
		ts = d.ownRevs[d.ownIdx].Timestamp
	} else {
		if item.isDeleted() {
			return
		}
		t, ok := item.peekTimestamp()
		if !ok {
			return
		}
		ts = t
	}

	i := len(d.pending)
	for i > 0 {
		prev := d.pending[i-1]
		if ts > prev.ts {
			break
		}
		if ts < prev.ts {
			i--
			continue
		}
		// Equal timestamp: self sorts ahead of (before, in array terms)
		// any same-instant child, so self pops LAST — a child's own
		// revision always drains before a project-level event at the
		// identical timestamp could pre-empt it (e.g. CreateBranch
		// before BranchFile). Among children, ascending name pops first.
		if isSelf {
			i--
			continue
		}
		if prev.item == cursorItem(d) {
			break
		}
		if item.logicalName() < prev.item.logicalName() {
			break
		}
		i--
	}
	d.pending = append(d.pending, pendingEntry{})
	copy(d.pending[i+1:], d.pending[i:])
	d.pending[i] = pendingEntry{ts: ts, item: item}

	// CreateProject timestamp coercion: when this directory's own
	// creation (revision 1) sits at the tail of the queue, next to pop,
	// while other entries are still pending, its nominal revision-1
	// timestamp (which can predate or postdate its children's earliest
	// real activity after a Restore) is rewritten to the earliest
	// remaining pending timestamp and moved to the front of the queue, so
	// its create_directory always orders at-or-before its children's
	// first action.
	if d.ownIdx >= 0 && len(d.ownRevs) > 0 && d.ownRevs[d.ownIdx].RevisionNum == 1 &&
		len(d.pending) > 1 && d.pending[len(d.pending)-1].item == cursorItem(d) {
		earliest := d.pending[0].ts
		d.ownRevs[d.ownIdx].Timestamp = earliest
		self := d.pending[len(d.pending)-1]
		self.ts = earliest
		d.pending = d.pending[:len(d.pending)-1]
		d.pending = append([]pendingEntry{self}, d.pending...)
	}
}

func (d *dirCursor) removePending(item cursorItem) {
	for i, e := range d.pending {
		if e.item == item {
			d.pending = append(d.pending[:i], d.pending[i+1:]...)
			return
		}
	}
}

// insertNewItem retroactively reopens a physical item directly from the
// database (even though it was already dropped from this directory's live
// items, by Destroy, or never lived here, for a branch source) and splices
// it back into the tree at idx, fast-forwarding it past every revision
// newer than startTimestamp by draining and discarding them. Grounded on
// vss_directory_changeset_item.insert_new_item.
func (d *dirCursor) insertNewItem(physical, logical string, isProject bool, deletedFlag bool, startTimestamp uint32, idx int) cursorItem {
	var item cursorItem
	if isProject {
		item = buildDirCursor(d.db, vssrevision.FullName{IsProject: true, Name: logical, IndexName: logical, PhysicalName: physical}, deletedFlag)
	} else {
		item = buildFileCursorFromDB(d.db, vssrevision.FullName{Name: logical, IndexName: logical, PhysicalName: physical}, deletedFlag)
	}
	d.insertItemByIdx(item, idx)
	if item.missing() {
		return item
	}
	for {
		ts, ok := item.peekTimestamp()
		if !ok || !(startTimestamp < ts) {
			break
		}
		item.drain(nil)
	}
	d.insertPending(item)
	return item
}

// drain pops this directory's highest-priority pending entry (itself or a
// child) and processes it, reinserting whatever was popped so its stream
// continues to contribute on later calls.
func (d *dirCursor) drain(parentPath []string) []Action {
	if len(d.pending) == 0 {
		return nil
	}
	top := d.pending[len(d.pending)-1]
	d.pending = d.pending[:len(d.pending)-1]

	// The root's own name is the "$" that pathOf already prefixes.
	selfPath := append([]string{}, parentPath...)
	if d.parent != nil {
		selfPath = append(selfPath, d.name.Name)
	}

	var actions []Action
	if top.item == cursorItem(d) {
		rev := d.ownRevs[d.ownIdx]
		d.ownIdx--
		actions = d.applyOwnRevision(rev, parentPath, selfPath)
	} else {
		actions = top.item.drain(selfPath)
	}
	d.insertPending(top.item)
	return actions
}

// applyOwnRevision dispatches one of this directory's own revisions
// (structural events naming a child, plus its own CreateProject/Label) to
// its backward-apply mutation and forward Action, per
// vss_action.py's project_action_dict.
func (d *dirCursor) applyOwnRevision(rev *vssrevision.Revision, parentPath, selfPath []string) []Action {
	selfPathStr := pathOf(selfPath)
	childPath := func(name string) string { return pathOf(append(append([]string{}, selfPath...), name)) }

	switch rev.Action {
	case vssitemfile.ActionCreateProject:
		if d.parent != nil {
			d.parent.forget(d)
		}
		d.ownIdx = -1
		if d.parent == nil {
			return nil // root is never created
		}
		return []Action{{Kind: CreateDirectory, Path: selfPathStr, Source: rev}}

	case vssitemfile.ActionAddFile:
		if idx := d.findIndexByPhysical(rev.FullName.PhysicalName); idx >= 0 {
			d.removeItemByIndex(idx, false)
		}
		return nil // the file's own CreateFile revision emits instead

	case vssitemfile.ActionAddProject:
		idx := d.findIndexByPhysical(rev.FullName.PhysicalName)
		if idx < 0 {
			return nil
		}
		item := d.removeItemByIndex(idx, false)
		if item.missing() {
			return []Action{{Kind: CreateDirectory, Path: childPath(rev.FullName.Name), Source: rev}}
		}
		return nil // the directory's own CreateProject revision emits instead

	case vssitemfile.ActionDeleteFile, vssitemfile.ActionDeleteProject:
		idx := d.findIndexByPhysical(rev.FullName.PhysicalName)
		if idx < 0 {
			return nil
		}
		item := d.items[idx]
		item.setDeleted(false)
		missing := item.missing()
		if !missing {
			d.byName[item.logicalName()] = item
			for {
				ts, ok := item.peekTimestamp()
				if !ok || !(rev.Timestamp < ts) {
					break
				}
				item.drain(nil)
			}
			d.insertPending(item)
		}
		if missing && rev.Action == vssitemfile.ActionDeleteFile {
			return nil
		}
		kind := DeleteFile
		if rev.Action == vssitemfile.ActionDeleteProject {
			kind = DeleteDirectory
		}
		return []Action{{Kind: kind, Path: childPath(rev.FullName.Name), Source: rev}}

	case vssitemfile.ActionRecoverFile:
		idx := d.findIndexByPhysical(rev.FullName.PhysicalName)
		if idx < 0 {
			return nil
		}
		item := d.items[idx]
		item.setDeleted(true)
		d.removePending(item)
		var data []byte
		if fc, ok := item.(*fileCursor); ok {
			data = fc.peekData()
		}
		return []Action{{Kind: CreateFile, Path: childPath(rev.FullName.Name), Data: data, Source: rev}}

	case vssitemfile.ActionRecoverProject:
		idx := d.findIndexByPhysical(rev.FullName.PhysicalName)
		if idx < 0 {
			return nil
		}
		item := d.items[idx]
		item.setDeleted(true)
		d.removePending(item)
		if item.missing() {
			return []Action{{Kind: CreateDirectory, Path: childPath(rev.FullName.Name), Source: rev}}
		}
		actions := recoverSnapshot(item.(*dirCursor), append(append([]string{}, selfPath...), rev.FullName.Name))
		for i := range actions {
			actions[i].Source = rev
		}
		return actions

	case vssitemfile.ActionDestroyFile, vssitemfile.ActionDestroyProject:
		isProj := rev.Action == vssitemfile.ActionDestroyProject
		item := d.insertNewItem(rev.FullName.PhysicalName, rev.FullName.Name, isProj, rev.WasDeleted, rev.Timestamp, len(d.items))
		if rev.WasDeleted {
			// Already invisible to the handler before this point;
			// nothing to emit, only the reconstruction above matters.
			return nil
		}
		if item.missing() {
			return nil
		}
		kind := DeleteFile
		if isProj {
			kind = DeleteDirectory
		}
		return []Action{{Kind: kind, Path: childPath(rev.FullName.Name), Source: rev}}

	case vssitemfile.ActionRenameFile, vssitemfile.ActionRenameProject:
		idx := d.findIndexByPhysical(rev.FullName.PhysicalName)
		if idx < 0 {
			return nil
		}
		item := d.removeItemByIndex(idx, true)
		item.setLogicalName(rev.OldFullName.Name)
		d.insertItemByIdx(item, idx)
		isProj := rev.Action == vssitemfile.ActionRenameProject
		missing := item.missing()
		deleted := item.isDeleted()
		if !missing && !deleted {
			d.removePending(item)
			d.insertPending(item)
		}
		if deleted || (missing && !isProj) {
			return nil
		}
		kind := RenameFile
		if isProj {
			kind = RenameDirectory
		}
		return []Action{{Kind: kind, Path: childPath(rev.FullName.Name), OldPath: childPath(rev.OldFullName.Name), Source: rev}}

	case vssitemfile.ActionMoveFrom:
		idx := d.findIndexByPhysical(rev.FullName.PhysicalName)
		if idx < 0 {
			return nil
		}
		item := d.removeItemByIndex(idx, true)
		d.removePending(item)
		oldPath := rev.ProjectPath + "/" + rev.FullName.Name
		return []Action{{Kind: RenameDirectory, Path: childPath(rev.FullName.Name), OldPath: oldPath, Source: rev}}

	case vssitemfile.ActionMoveTo:
		// The item already left this directory's live items_array by the
		// time the walk reaches the present; reconstructing its far side
		// of the move would need the destination directory's cursor,
		// which this simplified port does not thread through. See
		// DESIGN.md.
		return nil

	case vssitemfile.ActionShareFile:
		idx := d.findIndexByPhysical(rev.FullName.PhysicalName)
		if idx < 0 {
			return nil
		}
		item := d.items[idx]
		fc, isFile := item.(*fileCursor)
		switch {
		case rev.UnpinnedRevision < 0:
			// A brand-new share: undoing it backward removes the
			// occurrence outright (no reinsertion — going further
			// back, it never existed here).
			d.removeItemByIndex(idx, true)
			if item.missing() {
				return nil
			}
			d.removePending(item)
			var data []byte
			if isFile {
				data = fc.peekData()
			}
			copyFrom := ""
			if src := findByPath(d.rootCursor(), rev.ProjectPath); src != nil && !src.missing() {
				copyFrom = rev.ProjectPath + "/" + rev.FullName.Name
			}
			return []Action{{Kind: CreateFile, Path: childPath(rev.FullName.Name), Data: data, CopyFrom: copyFrom, Source: rev}}

		case rev.UnpinnedRevision == 0:
			// Pin: going backward this occurrence becomes live again.
			// Flush anything newer than the pin point (it happened
			// while frozen and must not surface here), then rejoin
			// pending.
			if item.missing() {
				return nil
			}
			if isFile {
				for {
					ts, ok := fc.peekTimestamp()
					if !ok || !(rev.Timestamp < ts) {
						break
					}
					fc.drain(nil)
				}
				d.insertPending(fc)
			}
			var data []byte
			if isFile {
				data = fc.revisionData(rev.PinnedRevision)
			}
			return []Action{{Kind: ChangeFile, Path: childPath(rev.FullName.Name), Data: data, Source: rev}}

		default:
			// Unpin: going backward this occurrence freezes at its
			// current content until an earlier Pin (if any) thaws it.
			d.removePending(item)
			if item.missing() {
				return nil
			}
			var data []byte
			if isFile {
				data = fc.peekData()
			}
			return []Action{{Kind: ChangeFile, Path: childPath(rev.FullName.Name), Data: data, Source: rev}}
		}

	case vssitemfile.ActionBranchFile:
		// No payload of its own: the branch point's content is carried by
		// the occurrence's own CreateBranch revision (fileCursor.drain),
		// which — sharing this event's timestamp — always drains first
		// per insertPending's self-sorts-last tie-break. BranchFile only
		// records the structural link back to the shared source and
		// splices that source's continued ancestry in under this name.
		idx := d.findIndexByPhysical(rev.FullName.PhysicalName)
		if idx < 0 {
			return nil
		}
		item := d.removeItemByIndex(idx, true)
		d.removePending(item)
		missing := item.missing()
		d.insertNewItem(rev.SourceFullName.PhysicalName, rev.FullName.Name, false, false, rev.Timestamp, idx)
		if missing {
			return nil
		}
		return []Action{{Kind: CreateFile, Path: childPath(rev.FullName.Name), CopyFrom: rev.SourceFullName.Name, Source: rev}}

	case vssitemfile.ActionRestoreFile:
		if idx := d.findIndexByPhysical(rev.FullName.PhysicalName); idx >= 0 {
			d.removeItemByIndex(idx, false)
		}
		return nil // the file's own CreateFile revision emits instead

	case vssitemfile.ActionRestoreProject:
		idx := d.findIndexByPhysical(rev.FullName.PhysicalName)
		if idx < 0 {
			return nil
		}
		item := d.removeItemByIndex(idx, false)
		if item.missing() {
			return []Action{{Kind: CreateDirectory, Path: childPath(rev.FullName.Name), Source: rev}}
		}
		return nil // the directory's own CreateProject revision emits instead

	case vssitemfile.ActionArchiveFile, vssitemfile.ActionArchiveProject:
		return nil

	case vssitemfile.ActionLabel:
		return []Action{{Kind: CreateDirLabel, Path: selfPathStr, Label: rev.Label, Source: rev}}

	default:
		return nil
	}
}

func (d *dirCursor) rootCursor() *dirCursor {
	r := d
	for r.parent != nil {
		r = r.parent
	}
	return r
}

// recoverSnapshot builds the depth-first, name-ascending sequence of
// CreateDirectory/CreateFile actions that replays dc's non-deleted
// descendants in full, for a RecoverProject whose own directory had a real
// item file to walk. Grounded on vss_action.py's recover_project_action
// .recover_directory.
func recoverSnapshot(dc *dirCursor, path []string) []Action {
	actions := []Action{{Kind: CreateDirectory, Path: pathOf(path)}}
	for _, child := range dc.items {
		if child.isDeleted() {
			continue
		}
		childPath := append(append([]string{}, path...), child.logicalName())
		switch c := child.(type) {
		case *dirCursor:
			actions = append(actions, recoverSnapshot(c, childPath)...)
		case *fileCursor:
			actions = append(actions, Action{Kind: CreateFile, Path: pathOf(childPath), Data: c.peekData()})
		}
	}
	return actions
}

// findByPath walks byName maps from root along a "/"-joined VSS path,
// resolving to whatever live cursorItem currently occupies it.
func findByPath(root *dirCursor, path string) cursorItem {
	path = strings.Trim(path, "/")
	if path == "" || path == vssdb.RootProjectName {
		return root
	}
	parts := strings.Split(path, "/")
	if len(parts) > 0 && parts[0] == vssdb.RootProjectName {
		parts = parts[1:]
	}
	var cur cursorItem = root
	for _, part := range parts {
		dc, ok := cur.(*dirCursor)
		if !ok {
			return nil
		}
		child, ok := dc.byName[part]
		if !ok {
			return nil
		}
		cur = child
	}
	return cur
}

// pinnedRevisions scans a directory's own revision stream for ShareFile
// events and reports, per physical name, the revision number each child
// is currently pinned at — the same definition vsstree.computePinnedRevisions
// uses for the live snapshot tree. A pinned child starts excluded from
// pending so its content stays frozen until the walk's own Pin revision
// thaws it.
func pinnedRevisions(revs []*vssrevision.Revision) map[string]int {
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

func buildFileCursorFromDB(db *vssdb.Database, name vssrevision.FullName, deleted bool) *fileCursor {
	if db == nil {
		return newFileCursor(name, nil, deleted, true)
	}
	ff, err := db.OpenFileItemFile(name.PhysicalName)
	if err != nil {
		return newFileCursor(name, nil, deleted, true)
	}
	fr, err := vssrevision.BuildFileRevisions(db, ff)
	if err != nil {
		return newFileCursor(name, nil, deleted, true)
	}
	return newFileCursor(name, fr, deleted, false)
}

// buildDirCursor opens physical's project item file from the database and
// recursively builds the mutable cursor tree backing the changeset walk,
// independent of (and with its own copy of) the live snapshot package
// vsstree builds: each is consumed once and discarded, per spec's
// Changeset item lifecycle.
func buildDirCursor(db *vssdb.Database, name vssrevision.FullName, deleted bool) *dirCursor {
	dc := &dirCursor{db: db, name: name, deleted: deleted, byName: map[string]cursorItem{}, ownIdx: -1}
	if db == nil {
		dc.absent = true
		return dc
	}

	pf, err := db.OpenProjectItemFile(name.PhysicalName)
	if err != nil {
		dc.absent = true
		return dc
	}
	revisions, idx, err := vssrevision.BuildProjectRevisions(db, pf)
	if err != nil {
		dc.absent = true
		return dc
	}
	dc.ownRevs = revisions
	dc.ownIdx = len(revisions) - 1

	for i := 0; i < idx.Len(); i++ {
		childName, _ := idx.Get(i)
		var child cursorItem
		if childName.IsProject {
			child = buildDirCursor(db, childName, false)
		} else {
			child = buildFileCursorFromDB(db, childName, false)
		}
		dc.insertItemByIdx(child, len(dc.items))
	}

	dc.insertPending(dc)
	pinned := pinnedRevisions(dc.ownRevs)
	for _, c := range dc.items {
		if _, frozen := pinned[c.physicalName()]; frozen {
			continue
		}
		dc.insertPending(c)
	}
	return dc
}

// newDirCursor builds a dirCursor directly from already-resolved revisions
// and children, without touching a database: the construction path
// package-level tests use to drive the engine's merge/backward-apply
// logic against hand-built fixtures, the same way production code drives
// it against disk-backed revisions via buildDirCursor.
func newDirCursor(name vssrevision.FullName, ownRevs []*vssrevision.Revision, children []cursorItem) *dirCursor {
	dc := &dirCursor{name: name, ownRevs: ownRevs, byName: map[string]cursorItem{}, ownIdx: len(ownRevs) - 1}
	for _, c := range children {
		dc.insertItemByIdx(c, len(dc.items))
	}
	dc.insertPending(dc)
	pinned := pinnedRevisions(dc.ownRevs)
	for _, c := range dc.items {
		if _, frozen := pinned[c.physicalName()]; frozen {
			continue
		}
		dc.insertPending(c)
	}
	return dc
}

// newTestFile builds a fileCursor directly from a revision list, for use
// by newDirCursor's children in tests.
func newTestFile(name vssrevision.FullName, revs []*vssrevision.Revision) *fileCursor {
	return newFileCursor(name, &vssrevision.FileRevisions{FirstRevision: 1, Revisions: revs}, false, false)
}

// drainChangesets runs root's backward walk to completion and folds the
// resulting Actions into chronologically ordered Changesets.
func drainChangesets(root *dirCursor) []Changeset {
	var actions []Action
	for {
		if _, ok := root.peekTimestamp(); !ok {
			break
		}
		actions = append(actions, root.drain(nil)...)
	}
	sortActionsStable(actions)

	var changesets []Changeset
	i := 0
	for i < len(actions) {
		j := i + 1
		for j < len(actions) && actions[j].Source.Timestamp == actions[i].Source.Timestamp && actions[j].Source.Author == actions[i].Source.Author {
			j++
		}
		changesets = append(changesets, buildChangeset(actions[i:j]))
		i = j
	}
	return changesets
}

// sortActionsStable is a small helper kept separate from Build for
// readability: stable (timestamp, author) order across the whole
// collected action stream.
func sortActionsStable(actions []Action) {
	sort.SliceStable(actions, func(i, j int) bool {
		ai, aj := actions[i].Source, actions[j].Source
		if ai.Timestamp != aj.Timestamp {
			return ai.Timestamp < aj.Timestamp
		}
		return ai.Author < aj.Author
	})
}
