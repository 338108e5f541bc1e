package vssitemfile

import (
	"fmt"

	"github.com/alegrigoriev/py-vss/vssrecord"
)

// VssRevisionAction is the action code stored in every revision record's
// common header. There are 26 codes; not all are legal for both Project and
// File item files, though ReadRevisionRecord accepts any code in either.
type VssRevisionAction uint16

const (
	ActionLabel              VssRevisionAction = 0
	ActionCreateProject      VssRevisionAction = 1
	ActionAddProject         VssRevisionAction = 2
	ActionAddFile            VssRevisionAction = 3
	ActionDestroyProject     VssRevisionAction = 4
	ActionDestroyFile        VssRevisionAction = 5
	ActionDeleteProject      VssRevisionAction = 6
	ActionDeleteFile         VssRevisionAction = 7
	ActionRecoverProject     VssRevisionAction = 8
	ActionRecoverFile        VssRevisionAction = 9
	ActionRenameProject      VssRevisionAction = 10
	ActionRenameFile         VssRevisionAction = 11
	ActionMoveFrom           VssRevisionAction = 12
	ActionMoveTo             VssRevisionAction = 13
	ActionShareFile          VssRevisionAction = 14
	ActionBranchFile         VssRevisionAction = 15
	ActionCreateFile         VssRevisionAction = 16
	ActionCheckinFile        VssRevisionAction = 17
	ActionCheckInProject     VssRevisionAction = 18
	ActionCreateBranch       VssRevisionAction = 19
	ActionArchiveVersionFile VssRevisionAction = 20
	ActionRestoreVersionFile VssRevisionAction = 21
	ActionArchiveFile        VssRevisionAction = 22
	ActionArchiveProject     VssRevisionAction = 23
	ActionRestoreFile        VssRevisionAction = 24
	ActionRestoreProject     VssRevisionAction = 25
)

var actionNames = map[VssRevisionAction]string{
	ActionLabel: "Label", ActionCreateProject: "CreateProject", ActionAddProject: "AddProject",
	ActionAddFile: "AddFile", ActionDestroyProject: "DestroyProject", ActionDestroyFile: "DestroyFile",
	ActionDeleteProject: "DeleteProject", ActionDeleteFile: "DeleteFile", ActionRecoverProject: "RecoverProject",
	ActionRecoverFile: "RecoverFile", ActionRenameProject: "RenameProject", ActionRenameFile: "RenameFile",
	ActionMoveFrom: "MoveFrom", ActionMoveTo: "MoveTo", ActionShareFile: "ShareFile",
	ActionBranchFile: "BranchFile", ActionCreateFile: "CreateFile", ActionCheckinFile: "CheckinFile",
	ActionCheckInProject: "CheckInProject", ActionCreateBranch: "CreateBranch",
	ActionArchiveVersionFile: "ArchiveVersionFile", ActionRestoreVersionFile: "RestoreVersionFile",
	ActionArchiveFile: "ArchiveFile", ActionArchiveProject: "ArchiveProject",
	ActionRestoreFile: "RestoreFile", ActionRestoreProject: "RestoreProject",
}

func (a VssRevisionAction) String() string {
	if s, ok := actionNames[a]; ok {
		return s
	}
	return fmt.Sprintf("VssRevisionAction(%d)", uint16(a))
}

// RevisionRecord ("EL") is the raw decode of one revision chain entry: the
// common 88-byte header every action carries, plus whichever of the
// variant-specific fields its action code uses. Kept as one flat struct
// (a tagged union keyed by Action) rather than a class per action, per the
// "redundant deep class hierarchies" design note: callers switch on Action
// and read only the fields that action populates.
type RevisionRecord struct {
	Header *vssrecord.RecordHeader
	Offset int

	PrevRevOffset int32
	Action        VssRevisionAction
	RevisionNum   uint16
	Timestamp     uint32
	User          string
	Label         string

	CommentOffset      int32
	LabelCommentOffset int32
	CommentLength      uint16
	LabelCommentLength uint16

	// Named-revision fields (Create/Add/Delete/Recover/Destroy/Rename/
	// MoveFrom/MoveTo/Share/Branch/Archive/Restore): the item's current
	// logical name and physical name.
	Name     vssrecord.Name
	Physical string

	// Rename only.
	OldName vssrecord.Name

	// Move/Share/Checkin: the project path the action references.
	ProjectPath string

	// Share only.
	PinnedRevision   int16
	UnpinnedRevision int16
	ProjectIdx       int16

	// Destroy only.
	WasDeleted int16

	// Branch/CreateBranch only: physical name of the branch source.
	BranchFile string

	// Archive/Restore only.
	ArchivePath string

	// Checkin only: offset of the FD record that reconstructs the
	// previous (older) payload from this revision's content.
	PrevDeltaOffset int32
}

func (r *RevisionRecord) HasComment() bool      { return r.CommentOffset > 0 && r.CommentLength > 0 }
func (r *RevisionRecord) HasLabelComment() bool { return r.LabelCommentOffset > 0 && r.LabelCommentLength > 0 }

// actionUsesName reports whether action carries a Name/Physical pair (the
// vss_named_revision family in the original implementation).
func actionUsesName(a VssRevisionAction) bool {
	switch a {
	case ActionCreateProject, ActionCreateFile, ActionAddProject, ActionAddFile,
		ActionDeleteProject, ActionDeleteFile, ActionRecoverProject, ActionRecoverFile,
		ActionDestroyProject, ActionDestroyFile, ActionRenameProject, ActionRenameFile,
		ActionMoveFrom, ActionMoveTo, ActionShareFile, ActionBranchFile, ActionCreateBranch,
		ActionArchiveFile, ActionArchiveProject, ActionArchiveVersionFile,
		ActionRestoreFile, ActionRestoreProject, ActionRestoreVersionFile:
		return true
	default:
		return false
	}
}

// ReadRevisionRecord decodes one "EL" record, including whichever
// variant-specific fields its action code carries.
func ReadRevisionRecord(h *vssrecord.RecordHeader) (*RevisionRecord, error) {
	if err := h.CheckSignature(vssrecord.SigRevision); err != nil {
		return nil, err
	}
	r := h.Payload
	rec := &RevisionRecord{Header: h, Offset: h.Offset}

	var err error
	if rec.PrevRevOffset, err = r.ReadInt32(true); err != nil {
		return nil, err
	}
	action, err := r.ReadUint16(true)
	if err != nil {
		return nil, err
	}
	rec.Action = VssRevisionAction(action)
	revNum, err := r.ReadUint16(true)
	if err != nil {
		return nil, err
	}
	rec.RevisionNum = revNum
	if rec.Timestamp, err = r.ReadUint32(true); err != nil {
		return nil, err
	}
	if rec.User, err = r.ReadByteString(32); err != nil {
		return nil, err
	}
	if rec.Label, err = r.ReadByteString(32); err != nil {
		return nil, err
	}
	if rec.CommentOffset, err = r.ReadInt32(true); err != nil {
		return nil, err
	}
	if rec.LabelCommentOffset, err = r.ReadInt32(true); err != nil {
		return nil, err
	}
	if rec.CommentLength, err = r.ReadUint16(true); err != nil {
		return nil, err
	}
	if rec.LabelCommentLength, err = r.ReadUint16(true); err != nil {
		return nil, err
	}

	if actionUsesName(rec.Action) {
		if rec.Name, err = r.ReadName(); err != nil {
			return nil, err
		}
		if rec.Physical, err = r.ReadByteString(10); err != nil {
			return nil, err
		}
	}

	switch rec.Action {
	case ActionDestroyProject, ActionDestroyFile:
		if rec.WasDeleted, err = r.ReadInt16(true); err != nil {
			return nil, err
		}
	case ActionRenameProject, ActionRenameFile:
		if rec.OldName, err = r.ReadName(); err != nil {
			return nil, err
		}
	case ActionMoveFrom, ActionMoveTo:
		if rec.ProjectPath, err = r.ReadByteString(260); err != nil {
			return nil, err
		}
	case ActionShareFile:
		if rec.ProjectPath, err = r.ReadByteString(260); err != nil {
			return nil, err
		}
		if rec.PinnedRevision, err = r.ReadInt16(true); err != nil {
			return nil, err
		}
		if rec.UnpinnedRevision, err = r.ReadInt16(true); err != nil {
			return nil, err
		}
		if rec.ProjectIdx, err = r.ReadInt16(true); err != nil {
			return nil, err
		}
	case ActionBranchFile, ActionCreateBranch:
		if rec.BranchFile, err = r.ReadByteString(10); err != nil {
			return nil, err
		}
	case ActionArchiveFile, ActionArchiveProject, ActionArchiveVersionFile,
		ActionRestoreFile, ActionRestoreProject, ActionRestoreVersionFile:
		if rec.ArchivePath, err = r.ReadByteString(260); err != nil {
			return nil, err
		}
	case ActionCheckinFile:
		if rec.ProjectPath, err = r.ReadByteString(260); err != nil {
			return nil, err
		}
		if rec.PrevDeltaOffset, err = r.ReadInt32(true); err != nil {
			return nil, err
		}
	}

	return rec, nil
}
