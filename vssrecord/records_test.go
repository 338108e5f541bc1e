package vssrecord

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeltaOpApplyWriteLog(t *testing.T) {
	op := DeltaOp{Command: DeltaWriteLog, Data: []byte("hello")}
	assert.Equal(t, []byte("hello"), op.Apply(nil))
}

func TestDeltaOpApplyWriteSuccessorClampsToBase(t *testing.T) {
	base := []byte("0123456789")
	op := DeltaOp{Command: DeltaWriteSuccessor, Offset: 5, Length: 100}
	assert.Equal(t, []byte("56789"), op.Apply(base))
}

func TestApplyDeltaJoinsOps(t *testing.T) {
	base := []byte("0123456789")
	d := &DeltaRecord{Ops: []DeltaOp{
		{Command: DeltaWriteLog, Data: []byte("AA")},
		{Command: DeltaWriteSuccessor, Offset: 2, Length: 3},
		{Command: DeltaStop},
	}}
	got := d.ApplyDelta(base)
	assert.Equal(t, []byte("AA234"), got)
}
