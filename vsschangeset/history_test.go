package vsschangeset

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alegrigoriev/py-vss/vssitemfile"
	"github.com/alegrigoriev/py-vss/vssrevision"
)

func fileName(name, physical string) vssrevision.FullName {
	return vssrevision.FullName{Name: name, IndexName: name, PhysicalName: physical}
}

func projName(name, physical string) vssrevision.FullName {
	return vssrevision.FullName{IsProject: true, Name: name, IndexName: name, PhysicalName: physical}
}

// changesetAt returns the changeset at the given timestamp, for tests whose
// engine trace has more than one plausible tie-break order among equal
// timestamps but a single, well-defined group per timestamp.
func changesetAt(t *testing.T, changesets []Changeset, ts uint32) *Changeset {
	t.Helper()
	for i := range changesets {
		if changesets[i].Timestamp == ts {
			return &changesets[i]
		}
	}
	return nil
}

func findAction(cs *Changeset, kind ActionKind, path string) *Action {
	if cs == nil {
		return nil
	}
	for i := range cs.Actions {
		if cs.Actions[i].Kind == kind && cs.Actions[i].Path == path {
			return &cs.Actions[i]
		}
	}
	return nil
}

// TestBuildTrivialFile is spec scenario S1: one file, created then checked
// in, must emit CreateFile with the revision-1 payload followed by a
// ChangeFile with the later content (never the other way around).
func TestBuildTrivialFile(t *testing.T) {
	root := newDirCursor(projName("$", "AAAAAAAA"), []*vssrevision.Revision{
		{Action: vssitemfile.ActionAddFile, Timestamp: 100, Author: "alice", FullName: fileName("foo.txt", "BBBBBBBB")},
	}, []cursorItem{
		newTestFile(fileName("foo.txt", "BBBBBBBB"), []*vssrevision.Revision{
			{RevisionNum: 1, Action: vssitemfile.ActionCreateFile, Timestamp: 100, Author: "alice", RevisionData: []byte("hello")},
			{RevisionNum: 2, Action: vssitemfile.ActionCheckinFile, Timestamp: 200, Author: "alice", RevisionData: []byte("hello world")},
		}),
	})

	changesets := drainChangesets(root)
	if !assert.Len(t, changesets, 2) {
		return
	}

	assert.Equal(t, uint32(100), changesets[0].Timestamp)
	assert.Equal(t, "alice", changesets[0].Author)
	if assert.Len(t, changesets[0].Actions, 1) {
		a := changesets[0].Actions[0]
		assert.Equal(t, CreateFile, a.Kind)
		assert.Equal(t, "$/foo.txt", a.Path)
		assert.Equal(t, []byte("hello"), a.Data)
	}

	assert.Equal(t, uint32(200), changesets[1].Timestamp)
	if assert.Len(t, changesets[1].Actions, 1) {
		a := changesets[1].Actions[0]
		assert.Equal(t, ChangeFile, a.Kind)
		assert.Equal(t, "$/foo.txt", a.Path)
		assert.Equal(t, []byte("hello world"), a.Data)
	}
}

// TestBuildRename is spec scenario S2: a rename must surface as one
// RenameFile action carrying both the old and new path.
func TestBuildRename(t *testing.T) {
	root := newDirCursor(projName("$", "AAAAAAAA"), []*vssrevision.Revision{
		{Action: vssitemfile.ActionAddFile, Timestamp: 100, Author: "bob", FullName: fileName("a.txt", "CCCCCCCC")},
		{Action: vssitemfile.ActionRenameFile, Timestamp: 200, Author: "bob",
			FullName: fileName("b.txt", "CCCCCCCC"), OldFullName: fileName("a.txt", "CCCCCCCC")},
	}, []cursorItem{
		newTestFile(fileName("b.txt", "CCCCCCCC"), []*vssrevision.Revision{
			{RevisionNum: 1, Action: vssitemfile.ActionCreateFile, Timestamp: 100, Author: "bob", RevisionData: []byte("x")},
		}),
	})

	changesets := drainChangesets(root)
	if !assert.Len(t, changesets, 2) {
		return
	}
	rename := changesets[1].Actions[0]
	assert.Equal(t, RenameFile, rename.Kind)
	assert.Equal(t, "$/a.txt", rename.OldPath)
	assert.Equal(t, "$/b.txt", rename.Path)
}

// TestBuildSharePin is spec scenario S3: a file created under $/src, shared
// into $/pub, then pinned at revision 1. A later checkin under $/src must
// still surface normally, while $/pub/x never shows anything beyond its
// pinned payload.
func TestBuildSharePin(t *testing.T) {
	src := newDirCursor(projName("src", "SRCPHYS"), []*vssrevision.Revision{
		{Action: vssitemfile.ActionCreateProject, RevisionNum: 1, Timestamp: 50, Author: "alice"},
		{Action: vssitemfile.ActionAddFile, Timestamp: 100, Author: "alice", FullName: fileName("x", "XPHYS")},
	}, []cursorItem{
		newTestFile(fileName("x", "XPHYS"), []*vssrevision.Revision{
			{RevisionNum: 1, Action: vssitemfile.ActionCreateFile, Timestamp: 100, Author: "alice", RevisionData: []byte("hello")},
			{RevisionNum: 2, Action: vssitemfile.ActionCheckinFile, Timestamp: 400, Author: "alice", RevisionData: []byte("hello world")},
		}),
	})

	pub := newDirCursor(projName("pub", "PUBPHYS"), []*vssrevision.Revision{
		{Action: vssitemfile.ActionCreateProject, RevisionNum: 1, Timestamp: 60, Author: "alice"},
		{Action: vssitemfile.ActionShareFile, Timestamp: 200, Author: "alice",
			FullName: fileName("x", "XPHYS"), ProjectPath: "$/src", UnpinnedRevision: -1},
		{Action: vssitemfile.ActionShareFile, Timestamp: 300, Author: "alice",
			FullName: fileName("x", "XPHYS"), UnpinnedRevision: 0, PinnedRevision: 1},
	}, []cursorItem{
		newTestFile(fileName("x", "XPHYS"), []*vssrevision.Revision{
			{RevisionNum: 1, Action: vssitemfile.ActionCreateFile, Timestamp: 100, Author: "alice", RevisionData: []byte("hello")},
			{RevisionNum: 2, Action: vssitemfile.ActionCheckinFile, Timestamp: 400, Author: "alice", RevisionData: []byte("hello world")},
		}),
	})

	root := newDirCursor(projName("$", "AAAAAAAA"), []*vssrevision.Revision{
		{Action: vssitemfile.ActionAddProject, Timestamp: 50, Author: "alice", FullName: projName("src", "SRCPHYS")},
		{Action: vssitemfile.ActionAddProject, Timestamp: 60, Author: "alice", FullName: projName("pub", "PUBPHYS")},
	}, []cursorItem{src, pub})

	changesets := drainChangesets(root)

	checkin := findAction(changesetAt(t, changesets, 400), ChangeFile, "$/src/x")
	if assert.NotNil(t, checkin) {
		assert.Equal(t, []byte("hello world"), checkin.Data)
	}
	assert.Nil(t, findAction(changesetAt(t, changesets, 400), ChangeFile, "$/pub/x"))

	pin := findAction(changesetAt(t, changesets, 300), ChangeFile, "$/pub/x")
	if assert.NotNil(t, pin) {
		assert.Equal(t, []byte("hello"), pin.Data)
	}

	for _, cs := range changesets {
		for _, a := range cs.Actions {
			if a.Path == "$/pub/x" {
				assert.NotEqual(t, []byte("hello world"), a.Data, "pinned $/pub/x must never show the later checkin")
			}
		}
	}
}

// TestBuildBranch is spec scenario S4: a shared file branched must emit
// both BranchFile (the structural CreateFile linking back to its source)
// and CreateBranch (the ChangeFile carrying the branch-point snapshot), in
// the same changeset.
func TestBuildBranch(t *testing.T) {
	dst := newDirCursor(projName("dst", "DSTPHYS"), []*vssrevision.Revision{
		{Action: vssitemfile.ActionCreateProject, RevisionNum: 1, Timestamp: 150, Author: "alice"},
		{Action: vssitemfile.ActionShareFile, Timestamp: 200, Author: "alice",
			FullName: fileName("y", "YPHYS2"), ProjectPath: "$/orig", UnpinnedRevision: -1},
		{Action: vssitemfile.ActionBranchFile, Timestamp: 300, Author: "alice",
			FullName: fileName("y", "YPHYS2"), SourceFullName: fileName("y", "YPHYS1")},
	}, []cursorItem{
		newTestFile(fileName("y", "YPHYS2"), []*vssrevision.Revision{
			{RevisionNum: 1, Action: vssitemfile.ActionCreateBranch, Timestamp: 300, Author: "alice", RevisionData: []byte("snapshot-at-300")},
		}),
	})

	root := newDirCursor(projName("$", "AAAAAAAA"), []*vssrevision.Revision{
		{Action: vssitemfile.ActionAddProject, Timestamp: 150, Author: "alice", FullName: projName("dst", "DSTPHYS")},
	}, []cursorItem{dst})

	changesets := drainChangesets(root)

	cs := changesetAt(t, changesets, 300)
	if !assert.NotNil(t, cs) {
		return
	}
	branch := findAction(cs, CreateFile, "$/dst/y")
	if assert.NotNil(t, branch) {
		assert.Equal(t, "y", branch.CopyFrom)
	}
	created := findAction(cs, ChangeFile, "$/dst/y")
	if assert.NotNil(t, created) {
		assert.Equal(t, []byte("snapshot-at-300"), created.Data)
	}
}

// TestBuildDeleteRecover is spec scenario S5: a project with two files,
// deleted then recovered, must replay the recover as a CreateDirectory
// followed by a CreateFile for each non-deleted descendant, depth-first and
// name-ascending.
func TestBuildDeleteRecover(t *testing.T) {
	dir := newDirCursor(projName("dir", "DIRPHYS"), []*vssrevision.Revision{
		{Action: vssitemfile.ActionCreateProject, RevisionNum: 1, Timestamp: 50, Author: "alice"},
		{Action: vssitemfile.ActionAddFile, Timestamp: 60, Author: "alice", FullName: fileName("a.txt", "APHYS")},
		{Action: vssitemfile.ActionAddFile, Timestamp: 70, Author: "alice", FullName: fileName("b.txt", "BPHYS")},
	}, []cursorItem{
		newTestFile(fileName("a.txt", "APHYS"), []*vssrevision.Revision{
			{RevisionNum: 1, Action: vssitemfile.ActionCreateFile, Timestamp: 60, Author: "alice", RevisionData: []byte("a")},
		}),
		newTestFile(fileName("b.txt", "BPHYS"), []*vssrevision.Revision{
			{RevisionNum: 1, Action: vssitemfile.ActionCreateFile, Timestamp: 70, Author: "alice", RevisionData: []byte("b")},
		}),
	})

	root := newDirCursor(projName("$", "AAAAAAAA"), []*vssrevision.Revision{
		{Action: vssitemfile.ActionAddProject, Timestamp: 50, Author: "alice", FullName: projName("dir", "DIRPHYS")},
		{Action: vssitemfile.ActionDeleteProject, Timestamp: 200, Author: "alice", FullName: projName("dir", "DIRPHYS")},
		{Action: vssitemfile.ActionRecoverProject, Timestamp: 300, Author: "alice", FullName: projName("dir", "DIRPHYS")},
	}, []cursorItem{dir})

	changesets := drainChangesets(root)

	cs := changesetAt(t, changesets, 300)
	if !assert.NotNil(t, cs) {
		return
	}
	if !assert.Len(t, cs.Actions, 3) {
		return
	}
	assert.Equal(t, CreateDirectory, cs.Actions[0].Kind)
	assert.Equal(t, "$/dir", cs.Actions[0].Path)
	assert.Equal(t, CreateFile, cs.Actions[1].Kind)
	assert.Equal(t, "$/dir/a.txt", cs.Actions[1].Path)
	assert.Equal(t, []byte("a"), cs.Actions[1].Data)
	assert.Equal(t, CreateFile, cs.Actions[2].Kind)
	assert.Equal(t, "$/dir/b.txt", cs.Actions[2].Path)
	assert.Equal(t, []byte("b"), cs.Actions[2].Data)
}

// TestBuildCommentMerging is spec scenario S6: two actions sharing a
// (timestamp, author) key whose revisions carry the same comment modulo
// CRLF/CR normalization collapse into one comment.
func TestBuildCommentMerging(t *testing.T) {
	root := newDirCursor(projName("$", "AAAAAAAA"), []*vssrevision.Revision{
		{Action: vssitemfile.ActionAddFile, Timestamp: 100, Author: "carl", FullName: fileName("a.txt", "DDDDDDDD"), Comment: "fix\r\nbug"},
		{Action: vssitemfile.ActionAddFile, Timestamp: 100, Author: "carl", FullName: fileName("b.txt", "EEEEEEEE"), Comment: "fix\nbug"},
	}, []cursorItem{
		newTestFile(fileName("a.txt", "DDDDDDDD"), []*vssrevision.Revision{
			{RevisionNum: 1, Action: vssitemfile.ActionCreateFile, Timestamp: 100, Author: "carl", Comment: "fix\r\nbug", RevisionData: []byte("a")},
		}),
		newTestFile(fileName("b.txt", "EEEEEEEE"), []*vssrevision.Revision{
			{RevisionNum: 1, Action: vssitemfile.ActionCreateFile, Timestamp: 100, Author: "carl", Comment: "fix\nbug", RevisionData: []byte("b")},
		}),
	})

	changesets := drainChangesets(root)
	if !assert.Len(t, changesets, 1) {
		return
	}
	assert.Equal(t, "fix\nbug", changesets[0].Comment)
	assert.Len(t, changesets[0].Actions, 2)
}

// TestBuildOrdersByTimestampThenAuthor checks the non-decreasing
// (timestamp, author) ordering invariant across changesets whose authors
// differ at the same timestamp.
func TestBuildOrdersByTimestampThenAuthor(t *testing.T) {
	root := newDirCursor(projName("$", "AAAAAAAA"), []*vssrevision.Revision{
		{Action: vssitemfile.ActionAddFile, Timestamp: 100, Author: "zed", FullName: fileName("z.txt", "FFFFFFFF")},
		{Action: vssitemfile.ActionAddFile, Timestamp: 100, Author: "amy", FullName: fileName("a.txt", "GGGGGGGG")},
	}, []cursorItem{
		newTestFile(fileName("z.txt", "FFFFFFFF"), []*vssrevision.Revision{
			{RevisionNum: 1, Action: vssitemfile.ActionCreateFile, Timestamp: 100, Author: "zed", RevisionData: []byte("z")},
		}),
		newTestFile(fileName("a.txt", "GGGGGGGG"), []*vssrevision.Revision{
			{RevisionNum: 1, Action: vssitemfile.ActionCreateFile, Timestamp: 100, Author: "amy", RevisionData: []byte("a")},
		}),
	})

	changesets := drainChangesets(root)
	if !assert.Len(t, changesets, 2) {
		return
	}
	assert.Equal(t, "amy", changesets[0].Author)
	assert.Equal(t, "zed", changesets[1].Author)
}
