package vssrecord

import "fmt"

// CommentRecord ("MC") holds a free-form comment string, referenced by
// offset from a revision record. Its on-disk CRC is always zero, so
// RecordHeader.CheckCRC skips it.
type CommentRecord struct {
	Header *RecordHeader
	Text   string
}

func ReadComment(h *RecordHeader) (*CommentRecord, error) {
	if err := h.CheckSignature("MC"); err != nil {
		return nil, err
	}
	s, err := h.Payload.ReadByteString(h.Payload.Remaining())
	if err != nil {
		return nil, err
	}
	return &CommentRecord{Header: h, Text: s}, nil
}

// CheckoutRecord ("CF") describes one outstanding or historical checkout.
// The core does not implement VSS checkout semantics (spec Non-goals); this
// type only decodes the record's fields, and nothing acts on them.
type CheckoutRecord struct {
	Header             *RecordHeader
	User               string
	Timestamp          uint32
	WorkingDir         string
	Machine            string
	Project            string
	Comment            string
	Revision           int16
	Flags              int16
	PrevCheckoutOffset int32
	ThisCheckoutOffset int32
	Checkouts          int32
}

func ReadCheckout(h *RecordHeader) (*CheckoutRecord, error) {
	if err := h.CheckSignature("CF"); err != nil {
		return nil, err
	}
	r := h.Payload
	c := &CheckoutRecord{Header: h}
	var err error
	if c.User, err = r.ReadByteString(32); err != nil {
		return nil, err
	}
	if c.Timestamp, err = r.ReadUint32(true); err != nil {
		return nil, err
	}
	if c.WorkingDir, err = r.ReadByteString(260); err != nil {
		return nil, err
	}
	if c.Machine, err = r.ReadByteString(32); err != nil {
		return nil, err
	}
	if c.Project, err = r.ReadByteString(260); err != nil {
		return nil, err
	}
	if c.Comment, err = r.ReadByteString(64); err != nil {
		return nil, err
	}
	if c.Revision, err = r.ReadInt16(true); err != nil {
		return nil, err
	}
	if c.Flags, err = r.ReadInt16(true); err != nil {
		return nil, err
	}
	if c.PrevCheckoutOffset, err = r.ReadInt32(true); err != nil {
		return nil, err
	}
	if c.ThisCheckoutOffset, err = r.ReadInt32(true); err != nil {
		return nil, err
	}
	if c.Checkouts, err = r.ReadInt32(true); err != nil {
		return nil, err
	}
	return c, nil
}

// BranchRecord ("BF") links a branched file to its previous branch entry.
type BranchRecord struct {
	Header           *RecordHeader
	PrevBranchOffset int32
	BranchFile       string
}

func ReadBranch(h *RecordHeader) (*BranchRecord, error) {
	if err := h.CheckSignature("BF"); err != nil {
		return nil, err
	}
	r := h.Payload
	b := &BranchRecord{Header: h}
	var err error
	if b.PrevBranchOffset, err = r.ReadInt32(true); err != nil {
		return nil, err
	}
	if b.BranchFile, err = r.ReadByteString(12); err != nil {
		return nil, err
	}
	return b, nil
}

// ProjectRecord ("PF") links a shared file to one more project referencing
// it, forming a side chain of "this file is also visible under project X".
type ProjectRecord struct {
	Header            *RecordHeader
	PrevProjectOffset int32
	ProjectFile       string
}

func ReadProject(h *RecordHeader) (*ProjectRecord, error) {
	if err := h.CheckSignature("PF"); err != nil {
		return nil, err
	}
	r := h.Payload
	p := &ProjectRecord{Header: h}
	var err error
	if p.PrevProjectOffset, err = r.ReadInt32(true); err != nil {
		return nil, err
	}
	if p.ProjectFile, err = r.ReadByteString(12); err != nil {
		return nil, err
	}
	return p, nil
}

// Delta opcodes, per spec §6: each op is command(u16), skip(u16),
// offset(u32), length(u32), with `length` inline bytes following when
// command is WriteLog.
const (
	DeltaWriteLog       = 0
	DeltaWriteSuccessor = 1
	DeltaStop           = 2
)

// DeltaOp is one operation of a DeltaRecord's forward-apply program.
type DeltaOp struct {
	Command uint16
	Offset  uint32
	Length  uint32
	Data    []byte // only set for DeltaWriteLog
}

// Apply returns this op's contribution to the reconstructed buffer, given
// the base payload the delta is applied to (in BuildFileRevisions, the
// newer content).
func (op DeltaOp) Apply(base []byte) []byte {
	switch op.Command {
	case DeltaWriteLog:
		return op.Data
	case DeltaWriteSuccessor:
		end := op.Offset + op.Length
		if end > uint32(len(base)) {
			end = uint32(len(base))
		}
		if op.Offset > end {
			return nil
		}
		return base[op.Offset:end]
	default:
		return nil
	}
}

// DeltaRecord ("FD") encodes the difference between two successive file
// payloads. BuildFileRevisions (package vssrevision) applies it to a
// checkin revision's content, which is always the *newer* payload, and gets
// the previous (older) revision's content, one step further back.
type DeltaRecord struct {
	Header *RecordHeader
	Ops    []DeltaOp
}

func ReadDelta(h *RecordHeader) (*DeltaRecord, error) {
	if err := h.CheckSignature("FD"); err != nil {
		return nil, err
	}
	r := h.Payload
	d := &DeltaRecord{Header: h}
	for {
		cmd, err := r.ReadUint16(true)
		if err != nil {
			return nil, err
		}
		if _, err := r.ReadUint16(true); err != nil { // skip field, unused
			return nil, err
		}
		offset, err := r.ReadUint32(true)
		if err != nil {
			return nil, err
		}
		length, err := r.ReadUint32(true)
		if err != nil {
			return nil, err
		}
		op := DeltaOp{Command: cmd, Offset: offset, Length: length}
		if cmd == DeltaStop {
			d.Ops = append(d.Ops, op)
			break
		}
		if cmd == DeltaWriteLog {
			data, err := r.ReadBytes(int(length))
			if err != nil {
				return nil, err
			}
			op.Data = data
		}
		d.Ops = append(d.Ops, op)
	}
	return d, nil
}

// ApplyDelta applies all operations to base and returns the join of every
// op's Apply result: given a revision's content, the content of the
// revision before it.
func (d *DeltaRecord) ApplyDelta(base []byte) []byte {
	var out []byte
	for _, op := range d.Ops {
		if op.Command == DeltaStop {
			continue
		}
		out = append(out, op.Apply(base)...)
	}
	return out
}

// Known record signatures, per spec §4.2.
const (
	SigItemHeader    = "DH"
	SigRevision      = "EL"
	SigComment       = "MC"
	SigCheckout      = "CF"
	SigProject       = "PF"
	SigBranch        = "BF"
	SigDelta         = "FD"
	SigProjectEntry  = "JP"
	SigNameHeader    = "HN"
	SigNameEntry     = "SN"
)

// ErrUnrecognizedRecord is the error kind for a record signature no reader
// handles. No function in this module returns it: each Read* function
// checks for its one expected signature and fails with ErrBadSignature.
var ErrUnrecognizedRecord = fmt.Errorf("vssrecord: unrecognized record signature")
