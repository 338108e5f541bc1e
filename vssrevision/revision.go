package vssrevision

import (
	"fmt"

	"github.com/alegrigoriev/py-vss/vssdb"
	"github.com/alegrigoriev/py-vss/vssitemfile"
	"github.com/alegrigoriev/py-vss/vssrecord"
)

// commentSource is the subset of ItemFile (package vssitemfile) that
// resolving a revision's comment/label-comment needs. Both ProjectItemFile
// and FileItemFile satisfy it through their embedded ItemFile.
type commentSource interface {
	GetCommentRecord(offset int) (*vssrecord.CommentRecord, error)
}

// Revision is one logical entry of an item's history: a RevisionRecord
// (package vssitemfile) enriched with database-resolved names and decoded
// text. It is kept as a single flat struct tagged by Action — the same
// tagged-union shape as the record it is built from — rather than one Go
// type per action, so ApplyToProjectItems can switch on Action instead of
// dispatching through an interface method per variant.
type Revision struct {
	RevisionNum int
	Action      vssitemfile.VssRevisionAction
	Timestamp   uint32
	Author      string
	Comment     string
	Label       string
	LabelComment string

	// Named-revision fields: populated for every action except Label,
	// CheckinFile, ArchiveVersionFile and RestoreVersionFile (see
	// actionHasFullName), from the record's Name/Physical pair.
	FullName FullName

	// Rename only: the name/physical pair being replaced.
	OldFullName FullName

	// Move/Share/Checkin: the project path the action references, as a
	// decoded string (not yet resolved to a live item — package vsstree
	// does that walk).
	ProjectPath string

	// Share only.
	PinnedRevision   int
	UnpinnedRevision int
	ProjectIdx       int

	// Destroy only: whether the destroyed item was already deleted.
	WasDeleted bool

	// Branch/CreateBranch only: the branch source, as a FullName resolved
	// against the *pre-branch* physical name (same logical name, old
	// physical identity).
	SourceFullName FullName

	// Archive/Restore only.
	ArchivePath string

	// File revisions only: the payload as of this revision, reconstructed
	// by BuildFileRevisions walking the reverse delta chain.
	RevisionData []byte
}

func buildRevision(db *vssdb.Database, src commentSource, rec *vssitemfile.RevisionRecord) (*Revision, error) {
	rev := &Revision{
		RevisionNum: int(rec.RevisionNum),
		Action:      rec.Action,
		Timestamp:   rec.Timestamp,
		Author:      db.Decode(rec.User),
		Label:       db.Decode(rec.Label),
	}

	if rec.HasComment() {
		c, err := src.GetCommentRecord(int(rec.CommentOffset))
		if err != nil {
			return nil, fmt.Errorf("vssrevision: revision %d comment: %w", rec.RevisionNum, err)
		}
		rev.Comment = db.Decode(c.Text)
	}
	if rec.HasLabelComment() {
		c, err := src.GetCommentRecord(int(rec.LabelCommentOffset))
		if err != nil {
			return nil, fmt.Errorf("vssrevision: revision %d label comment: %w", rec.RevisionNum, err)
		}
		rev.LabelComment = db.Decode(c.Text)
	}

	var err error
	if actionHasFullName(rec.Action) {
		rev.FullName, err = NewFullName(db, rec.Name, rec.Physical)
		if err != nil {
			return nil, fmt.Errorf("vssrevision: revision %d: %w", rec.RevisionNum, err)
		}
	}

	switch rec.Action {
	case vssitemfile.ActionRenameProject, vssitemfile.ActionRenameFile:
		rev.OldFullName, err = NewFullName(db, rec.OldName, rec.Physical)
		if err != nil {
			return nil, fmt.Errorf("vssrevision: revision %d old name: %w", rec.RevisionNum, err)
		}
	case vssitemfile.ActionMoveFrom, vssitemfile.ActionMoveTo:
		rev.ProjectPath = db.Decode(rec.ProjectPath)
	case vssitemfile.ActionShareFile:
		rev.ProjectPath = db.Decode(rec.ProjectPath)
		rev.PinnedRevision = int(rec.PinnedRevision)
		rev.UnpinnedRevision = int(rec.UnpinnedRevision)
		rev.ProjectIdx = int(rec.ProjectIdx)
	case vssitemfile.ActionDestroyProject, vssitemfile.ActionDestroyFile:
		rev.WasDeleted = rec.WasDeleted != 0
	case vssitemfile.ActionBranchFile, vssitemfile.ActionCreateBranch:
		rev.SourceFullName, err = NewFullName(db, rec.Name, rec.BranchFile)
		if err != nil {
			return nil, fmt.Errorf("vssrevision: revision %d branch source: %w", rec.RevisionNum, err)
		}
	case vssitemfile.ActionArchiveFile, vssitemfile.ActionArchiveProject, vssitemfile.ActionArchiveVersionFile,
		vssitemfile.ActionRestoreFile, vssitemfile.ActionRestoreProject, vssitemfile.ActionRestoreVersionFile:
		rev.ArchivePath = db.Decode(rec.ArchivePath)
	}

	return rev, nil
}

func actionHasFullName(a vssitemfile.VssRevisionAction) bool {
	switch a {
	case vssitemfile.ActionLabel, vssitemfile.ActionCheckinFile,
		vssitemfile.ActionArchiveVersionFile, vssitemfile.ActionRestoreVersionFile:
		return false
	default:
		return true
	}
}

// ApplyToProjectItems threads this revision's forward effect through idx,
// per the action table in spec §4.5. Actions with no structural effect
// (Label, Archive, Checkin, CreateBranch, and the bare Create of an item's
// own existence) leave idx untouched.
func (rev *Revision) ApplyToProjectItems(idx *ProjectIndex) error {
	switch rev.Action {
	case vssitemfile.ActionAddProject, vssitemfile.ActionAddFile, vssitemfile.ActionMoveFrom:
		idx.AddItem(rev.FullName)

	case vssitemfile.ActionDeleteProject, vssitemfile.ActionDeleteFile,
		vssitemfile.ActionRecoverProject, vssitemfile.ActionRecoverFile:
		if idx.FindItem(rev.FullName) < 0 {
			return fmt.Errorf("vssrevision: %v on %s: %w", rev.Action, rev.FullName, ErrItemNotFound)
		}

	case vssitemfile.ActionDestroyProject, vssitemfile.ActionDestroyFile, vssitemfile.ActionMoveTo:
		if _, ok := idx.RemoveItem(rev.FullName); !ok {
			return fmt.Errorf("vssrevision: %v on %s: %w", rev.Action, rev.FullName, ErrItemNotFound)
		}

	case vssitemfile.ActionRenameProject, vssitemfile.ActionRenameFile:
		if _, ok := idx.RemoveItem(rev.OldFullName); !ok {
			return fmt.Errorf("vssrevision: %v: old name %s: %w", rev.Action, rev.OldFullName, ErrItemNotFound)
		}
		idx.AddItem(rev.FullName)

	case vssitemfile.ActionShareFile:
		if rev.UnpinnedRevision < 0 {
			idx.InsertItem(rev.ProjectIdx, rev.FullName)
		} else if got, ok := idx.Get(rev.ProjectIdx); !ok || got.PhysicalName != rev.FullName.PhysicalName {
			return fmt.Errorf("vssrevision: pin/unpin at %d: %w", rev.ProjectIdx, ErrItemNotFound)
		}

	case vssitemfile.ActionBranchFile:
		oldIdx := idx.FindItem(rev.SourceFullName)
		if oldIdx < 0 {
			return fmt.Errorf("vssrevision: branch source %s: %w", rev.SourceFullName, ErrItemNotFound)
		}
		idx.RemoveItemByIdx(oldIdx)
		idx.InsertItem(oldIdx, rev.FullName)

	case vssitemfile.ActionRestoreProject, vssitemfile.ActionRestoreFile:
		idx.AddItem(rev.FullName)
	}
	return nil
}

// BuildProjectRevisions walks p's reverse revision chain and replays it
// forward through a fresh ProjectIndex, returning both the ordered
// (ascending revision number) history and the resulting items_array.
func BuildProjectRevisions(db *vssdb.Database, p *vssitemfile.ProjectItemFile) ([]*Revision, *ProjectIndex, error) {
	first := int(p.Header.FirstRevision)
	count := int(p.Header.NumRevisions) - (first - 1)
	revisions := make([]*Revision, count)

	offset := int(p.Header.LastRevisionOffset)
	for offset > 0 {
		rec, err := p.GetRevisionRecord(offset)
		if err != nil {
			return nil, nil, fmt.Errorf("vssrevision: %s: %w", p.Filename, err)
		}
		rev, err := buildRevision(db, p, rec)
		if err != nil {
			return nil, nil, err
		}
		i := int(rec.RevisionNum) - first
		if i < 0 || i >= len(revisions) {
			return nil, nil, fmt.Errorf("vssrevision: %s: revision %d: %w", p.Filename, rec.RevisionNum, vssitemfile.ErrArgumentOutOfRange)
		}
		revisions[i] = rev
		offset = int(rec.PrevRevOffset)
	}

	idx := &ProjectIndex{}
	for _, rev := range revisions {
		if rev == nil {
			continue
		}
		if err := rev.ApplyToProjectItems(idx); err != nil {
			return nil, nil, err
		}
	}
	return revisions, idx, nil
}

// FileRevisions is a File item's history: its own revisions, plus (if it
// was created by BranchFile) the branch source's own FileRevisions, so
// Get can resolve a revision number older than this file's own
// FirstRevision by delegating up the branch chain.
type FileRevisions struct {
	Revisions     []*Revision
	FirstRevision int
	BranchParent  *FileRevisions
}

// Get returns the revision at version, delegating to the branch parent if
// version predates this file's own first revision. It returns nil if no
// such revision exists (including when a branch-parent cycle made the
// parent unresolvable).
func (fr *FileRevisions) Get(version int) *Revision {
	if version >= fr.FirstRevision {
		i := version - fr.FirstRevision
		if i < 0 || i >= len(fr.Revisions) {
			return nil
		}
		return fr.Revisions[i]
	}
	if fr.BranchParent == nil {
		return nil
	}
	return fr.BranchParent.Get(version)
}

// Last returns the most recent revision, or nil if there are none.
func (fr *FileRevisions) Last() *Revision {
	if len(fr.Revisions) == 0 {
		return nil
	}
	return fr.Revisions[len(fr.Revisions)-1]
}

// BuildFileRevisions walks f's reverse revision chain, reconstructing each
// revision's payload by unwinding the forward delta chain backward from
// f.LastData, and resolves the branch-parent history (if any) so older
// revisions inherited from a branch source can still be looked up.
func BuildFileRevisions(db *vssdb.Database, f *vssitemfile.FileItemFile) (*FileRevisions, error) {
	first := int(f.Header.FirstRevision)
	count := int(f.Header.NumRevisions) - (first - 1)
	revisions := make([]*Revision, count)

	data := f.LastData
	prevData := data
	offset := int(f.Header.LastRevisionOffset)
	for offset > 0 {
		rec, err := f.GetRevisionRecord(offset)
		if err != nil {
			return nil, fmt.Errorf("vssrevision: %s: %w", f.Filename, err)
		}
		rev, err := buildRevision(db, f, rec)
		if err != nil {
			return nil, err
		}
		i := int(rec.RevisionNum) - first
		if i < 0 || i >= len(revisions) {
			return nil, fmt.Errorf("vssrevision: %s: revision %d: %w", f.Filename, rec.RevisionNum, vssitemfile.ErrArgumentOutOfRange)
		}
		revisions[i] = rev

		if rev.RevisionNum == 1 && len(data) == 0 {
			data = prevData
		} else if rec.Action == vssitemfile.ActionCheckinFile {
			prevData = data
		}

		rev.RevisionData = data
		if rec.Action == vssitemfile.ActionCheckinFile && rec.PrevDeltaOffset > 0 {
			delta, derr := f.GetDeltaRecord(int(rec.PrevDeltaOffset))
			if derr != nil {
				return nil, fmt.Errorf("vssrevision: %s: revision %d delta: %w", f.Filename, rec.RevisionNum, derr)
			}
			data = delta.ApplyDelta(data)
		}

		offset = int(rec.PrevRevOffset)
	}

	fr := &FileRevisions{Revisions: revisions, FirstRevision: first}
	if f.FileItemHeader.BranchFile != "" {
		parent, err := db.OpenFileItemFile(f.FileItemHeader.BranchFile)
		if err != nil {
			return nil, fmt.Errorf("vssrevision: %s: branch source: %w", f.Filename, err)
		}
		if parent != nil {
			parentRevisions, err := BuildFileRevisions(db, parent)
			if err != nil {
				return nil, err
			}
			fr.BranchParent = parentRevisions
		}
	}
	return fr, nil
}
