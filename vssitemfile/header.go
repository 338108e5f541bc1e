package vssitemfile

import (
	"fmt"

	"github.com/alegrigoriev/py-vss/vssrecord"
)

// ItemFileType distinguishes a Project item file from a File item file.
type ItemFileType int16

const (
	ItemFileTypeProject ItemFileType = 1
	ItemFileTypeFile    ItemFileType = 2
)

const fileSignature = "SourceSafe@Microsoft\x00"
const fileVersion = 6

// FileHeader is the 52-byte header every item file begins with.
type FileHeader struct {
	FileType    ItemFileType
	FileVersion int16
}

func readFileHeader(r *vssrecord.Reader) (FileHeader, error) {
	sig, err := r.ReadBytes(len(fileSignature))
	if err != nil {
		return FileHeader{}, err
	}
	if string(sig) != fileSignature {
		return FileHeader{}, fmt.Errorf("vssitemfile: bad item file signature %q: %w", sig, ErrBadHeader)
	}
	// pad signature field to 32 bytes total before the typed fields
	if err := r.Skip(32 - len(fileSignature)); err != nil {
		return FileHeader{}, err
	}
	ftype, err := r.ReadInt16(true)
	if err != nil {
		return FileHeader{}, err
	}
	fver, err := r.ReadInt16(true)
	if err != nil {
		return FileHeader{}, err
	}
	if fver != fileVersion {
		return FileHeader{}, fmt.Errorf("vssitemfile: unsupported item file version %d: %w", fver, ErrBadHeader)
	}
	for i := 0; i < 4; i++ {
		if _, err := r.ReadUint32(true); err != nil {
			return FileHeader{}, err
		}
	}
	return FileHeader{FileType: ItemFileType(ftype), FileVersion: fver}, nil
}

// FileHeaderFlags are the bits stored in a File item's directory-header
// record.
type FileHeaderFlags int16

const (
	FlagLocked     FileHeaderFlags = 1
	FlagBinary     FileHeaderFlags = 2
	FlagLatestOnly FileHeaderFlags = 4
	FlagShared     FileHeaderFlags = 0x20
	FlagCheckedOut FileHeaderFlags = 0x40
)

// ItemHeaderRecord ("DH") is the common directory-header record shared by
// Project and File item files.
type ItemHeaderRecord struct {
	Header             *vssrecord.RecordHeader
	ItemType           ItemFileType
	NumRevisions       uint16
	Name               vssrecord.Name
	FirstRevision      uint16
	DataExt            string
	FirstRevisionOffset int32
	LastRevisionOffset  int32
	EOFOffset           int32
	RightsOffset        int32
}

func readItemHeaderFields(h *vssrecord.RecordHeader) (*ItemHeaderRecord, error) {
	if err := h.CheckSignature(vssrecord.SigItemHeader); err != nil {
		return nil, err
	}
	r := h.Payload
	rec := &ItemHeaderRecord{Header: h}
	itype, err := r.ReadInt16(true)
	if err != nil {
		return nil, err
	}
	rec.ItemType = ItemFileType(itype)
	numRev, err := r.ReadUint16(true)
	if err != nil {
		return nil, err
	}
	rec.NumRevisions = numRev
	name, err := r.ReadName()
	if err != nil {
		return nil, err
	}
	rec.Name = name
	firstRev, err := r.ReadUint16(true)
	if err != nil {
		return nil, err
	}
	rec.FirstRevision = firstRev
	ext, err := r.ReadBytes(2)
	if err != nil {
		return nil, err
	}
	rec.DataExt = string(ext)
	if rec.FirstRevisionOffset, err = r.ReadInt32(true); err != nil {
		return nil, err
	}
	if rec.LastRevisionOffset, err = r.ReadInt32(true); err != nil {
		return nil, err
	}
	if rec.EOFOffset, err = r.ReadInt32(true); err != nil {
		return nil, err
	}
	if rec.RightsOffset, err = r.ReadInt32(true); err != nil {
		return nil, err
	}
	for i := 0; i < 4; i++ {
		if _, err := r.ReadUint32(true); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

// FileHeaderRecord extends ItemHeaderRecord with the fields specific to a
// File item.
type FileHeaderRecord struct {
	*ItemHeaderRecord
	Flags                 FileHeaderFlags
	BranchFile            string
	BranchOffset          int32
	ProjectOffset         int32
	BranchCount           uint16
	ProjectCount          uint16
	FirstCheckoutOffset   int32
	LastCheckoutOffset    int32
	DataCRC               uint32
	LastRevTimestamp      uint32
	ModificationTimestamp uint32
	CreationTimestamp     uint32
}

func readFileHeaderRecord(h *vssrecord.RecordHeader) (*FileHeaderRecord, error) {
	base, err := readItemHeaderFields(h)
	if err != nil {
		return nil, err
	}
	if base.ItemType != ItemFileTypeFile {
		return nil, fmt.Errorf("vssitemfile: DH record item type %d, want File: %w", base.ItemType, ErrBadHeader)
	}
	r := h.Payload
	rec := &FileHeaderRecord{ItemHeaderRecord: base}
	flags, err := r.ReadInt16(true)
	if err != nil {
		return nil, err
	}
	rec.Flags = FileHeaderFlags(flags)
	if rec.BranchFile, err = r.ReadByteString(10); err != nil {
		return nil, err
	}
	if rec.BranchOffset, err = r.ReadInt32(true); err != nil {
		return nil, err
	}
	if rec.ProjectOffset, err = r.ReadInt32(true); err != nil {
		return nil, err
	}
	if rec.BranchCount, err = r.ReadUint16(true); err != nil {
		return nil, err
	}
	if rec.ProjectCount, err = r.ReadUint16(true); err != nil {
		return nil, err
	}
	if rec.FirstCheckoutOffset, err = r.ReadInt32(true); err != nil {
		return nil, err
	}
	if rec.LastCheckoutOffset, err = r.ReadInt32(true); err != nil {
		return nil, err
	}
	if rec.DataCRC, err = r.ReadUint32(true); err != nil {
		return nil, err
	}
	for i := 0; i < 2; i++ {
		if _, err := r.ReadUint32(true); err != nil {
			return nil, err
		}
	}
	if rec.LastRevTimestamp, err = r.ReadUint32(true); err != nil {
		return nil, err
	}
	if rec.ModificationTimestamp, err = r.ReadUint32(true); err != nil {
		return nil, err
	}
	if rec.CreationTimestamp, err = r.ReadUint32(true); err != nil {
		return nil, err
	}
	return rec, nil
}

func (f *FileHeaderRecord) IsLocked() bool     { return f.Flags&FlagLocked != 0 }
func (f *FileHeaderRecord) IsBinary() bool     { return f.Flags&FlagBinary != 0 }
func (f *FileHeaderRecord) IsLatestOnly() bool { return f.Flags&FlagLatestOnly != 0 }
func (f *FileHeaderRecord) IsShared() bool     { return f.Flags&FlagShared != 0 }
func (f *FileHeaderRecord) IsCheckedOut() bool { return f.Flags&FlagCheckedOut != 0 }

// ProjectHeaderRecord extends ItemHeaderRecord with the fields specific to a
// Project item.
type ProjectHeaderRecord struct {
	*ItemHeaderRecord
	ParentProject string
	ParentFile    string
	TotalItems    int16
	Subprojects   int16
}

func readProjectHeaderRecord(h *vssrecord.RecordHeader) (*ProjectHeaderRecord, error) {
	base, err := readItemHeaderFields(h)
	if err != nil {
		return nil, err
	}
	if base.ItemType != ItemFileTypeProject {
		return nil, fmt.Errorf("vssitemfile: DH record item type %d, want Project: %w", base.ItemType, ErrBadHeader)
	}
	r := h.Payload
	rec := &ProjectHeaderRecord{ItemHeaderRecord: base}
	if rec.ParentProject, err = r.ReadByteString(260); err != nil {
		return nil, err
	}
	if rec.ParentFile, err = r.ReadByteString(12); err != nil {
		return nil, err
	}
	if rec.TotalItems, err = r.ReadInt16(true); err != nil {
		return nil, err
	}
	if rec.Subprojects, err = r.ReadInt16(true); err != nil {
		return nil, err
	}
	return rec, nil
}

// ProjectEntryRecord ("JP") is one entry in a project's sibling data file,
// the authoritative on-disk child-order list that items_array reconstruction
// cross-checks against.
type ProjectEntryRecord struct {
	Header        *vssrecord.RecordHeader
	ItemType      ItemFileType
	Flags         int16
	Name          vssrecord.Name
	PinnedVersion int16
	Physical      string
}

func (e *ProjectEntryRecord) IsProjectEntry() bool { return e.ItemType == ItemFileTypeProject }
func (e *ProjectEntryRecord) IsFileEntry() bool    { return e.ItemType == ItemFileTypeFile }

func readProjectEntry(h *vssrecord.RecordHeader) (*ProjectEntryRecord, error) {
	if err := h.CheckSignature(vssrecord.SigProjectEntry); err != nil {
		return nil, err
	}
	r := h.Payload
	e := &ProjectEntryRecord{Header: h}
	itype, err := r.ReadInt16(true)
	if err != nil {
		return nil, err
	}
	e.ItemType = ItemFileType(itype)
	if e.Flags, err = r.ReadInt16(true); err != nil {
		return nil, err
	}
	if e.Name, err = r.ReadName(); err != nil {
		return nil, err
	}
	if e.PinnedVersion, err = r.ReadInt16(true); err != nil {
		return nil, err
	}
	if e.Physical, err = r.ReadByteString(10); err != nil {
		return nil, err
	}
	return e, nil
}
