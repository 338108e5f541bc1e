package vssitemfile

import (
	"fmt"

	"github.com/alegrigoriev/py-vss/vssrecord"
)

// ItemFile is the common base of a Project or File item file: the 52-byte
// file header, the DH directory-header record, and the offset-indexed
// record cache inherited from RecordFile. It exposes only the raw on-disk
// model; resolving revisions into the logical Revision objects (package
// vssrevision) and replaying them against a live tree (package vsstree)
// happen one layer up, to keep this package free of any dependency on the
// Database that those layers need for name/branch-parent resolution.
type ItemFile struct {
	*RecordFile
	FileHeader FileHeader
	Header     *ItemHeaderRecord
}

// openItemFile reads the 52-byte file-wide signature/version header and
// returns the record file positioned so the caller can decode the
// variant-specific DH record (readProjectHeaderRecord / readFileHeaderRecord)
// at the returned offset. Those functions embed readItemHeaderFields
// themselves; decoding a plain ItemHeaderRecord here first would populate
// the offset cache with the wrong type and collide with the variant decode.
func openItemFile(filename string, buf []byte) (rf *RecordFile, dhOffset int, fh FileHeader, err error) {
	rf = NewRecordFile(filename, buf)
	fh, err = readFileHeader(rf.reader)
	if err != nil {
		return nil, 0, FileHeader{}, fmt.Errorf("vssitemfile: %s: %w", filename, err)
	}
	return rf, rf.reader.Offset(), fh, nil
}

// DataFileName returns the name of the sibling data file holding this
// item's payload (for a File) or its project-entry stream (for a Project).
func (f *ItemFile) DataFileName() string {
	return f.Filename + f.Header.DataExt
}

// GetRevisionRecord returns the cached (or newly decoded) revision record
// at offset.
func (f *ItemFile) GetRevisionRecord(offset int) (*RevisionRecord, error) {
	return decodeAt(f.RecordFile, offset, ReadRevisionRecord)
}

// GetCommentRecord returns the cached (or newly decoded) comment record at
// offset.
func (f *ItemFile) GetCommentRecord(offset int) (*vssrecord.CommentRecord, error) {
	return decodeAt(f.RecordFile, offset, vssrecord.ReadComment)
}

// GetDeltaRecord returns the cached (or newly decoded) delta record at
// offset.
func (f *ItemFile) GetDeltaRecord(offset int) (*vssrecord.DeltaRecord, error) {
	return decodeAt(f.RecordFile, offset, vssrecord.ReadDelta)
}

// GetBranchRecord returns the cached (or newly decoded) branch record at
// offset.
func (f *ItemFile) GetBranchRecord(offset int) (*vssrecord.BranchRecord, error) {
	return decodeAt(f.RecordFile, offset, vssrecord.ReadBranch)
}

// GetProjectRecord returns the cached (or newly decoded) project-reference
// record at offset.
func (f *ItemFile) GetProjectRecord(offset int) (*vssrecord.ProjectRecord, error) {
	return decodeAt(f.RecordFile, offset, vssrecord.ReadProject)
}

// GetCheckoutRecord returns the cached (or newly decoded) checkout record
// at offset.
func (f *ItemFile) GetCheckoutRecord(offset int) (*vssrecord.CheckoutRecord, error) {
	return decodeAt(f.RecordFile, offset, vssrecord.ReadCheckout)
}

// ProjectItemFile is the Project-variant item file: adds the
// parent-project path and item counts from the PF-shaped DH record.
type ProjectItemFile struct {
	ItemFile
	ProjectHeader *ProjectHeaderRecord
}

// OpenProjectItemFile parses an already-read Project item file buffer.
func OpenProjectItemFile(filename string, buf []byte) (*ProjectItemFile, error) {
	rf, dhOffset, fh, err := openItemFile(filename, buf)
	if err != nil {
		return nil, err
	}
	if fh.FileType != ItemFileTypeProject {
		return nil, fmt.Errorf("vssitemfile: %s: not a project item file: %w", filename, ErrBadHeader)
	}
	ph, err := decodeAt(rf, dhOffset, readProjectHeaderRecord)
	if err != nil {
		return nil, fmt.Errorf("vssitemfile: %s: project header: %w", filename, err)
	}
	return &ProjectItemFile{
		ItemFile:      ItemFile{RecordFile: rf, FileHeader: fh, Header: ph.ItemHeaderRecord},
		ProjectHeader: ph,
	}, nil
}

// FileItemFile is the File-variant item file: adds the flags, branch
// source, checkout chain, and data CRC from the file-shaped DH record.
type FileItemFile struct {
	ItemFile
	FileItemHeader *FileHeaderRecord
	// LastData is the file's current (latest) payload, read from its
	// sibling data file. Populated by the caller (package vssdb) after
	// OpenFileItemFile returns, since the data file lives one layer up.
	LastData []byte
}

// OpenFileItemFile parses an already-read File item file buffer.
func OpenFileItemFile(filename string, buf []byte) (*FileItemFile, error) {
	rf, dhOffset, fh, err := openItemFile(filename, buf)
	if err != nil {
		return nil, err
	}
	if fh.FileType != ItemFileTypeFile {
		return nil, fmt.Errorf("vssitemfile: %s: not a file item file: %w", filename, ErrBadHeader)
	}
	frec, err := decodeAt(rf, dhOffset, readFileHeaderRecord)
	if err != nil {
		return nil, fmt.Errorf("vssitemfile: %s: file header: %w", filename, err)
	}
	return &FileItemFile{
		ItemFile:       ItemFile{RecordFile: rf, FileHeader: fh, Header: frec.ItemHeaderRecord},
		FileItemHeader: frec,
	}, nil
}

func (f *FileItemFile) IsLocked() bool     { return f.FileItemHeader.IsLocked() }
func (f *FileItemFile) IsBinary() bool     { return f.FileItemHeader.IsBinary() }
func (f *FileItemFile) IsLatestOnly() bool { return f.FileItemHeader.IsLatestOnly() }
func (f *FileItemFile) IsShared() bool     { return f.FileItemHeader.IsShared() }
func (f *FileItemFile) IsCheckedOut() bool { return f.FileItemHeader.IsCheckedOut() }
