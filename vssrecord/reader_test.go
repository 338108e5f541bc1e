package vssrecord

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadUint16Alignment(t *testing.T) {
	buf := []byte{0x01, 0x00, 0x02, 0x00}
	r := NewReader(buf)
	if err := r.Skip(1); err != nil {
		t.Fatal(err)
	}
	_, err := r.ReadUint16(false)
	assert.ErrorIs(t, err, ErrUnalignedRead)

	r2 := NewReader(buf)
	if err := r2.Skip(1); err != nil {
		t.Fatal(err)
	}
	v, err := r2.ReadUint16(true)
	assert.NoError(t, err)
	assert.EqualValues(t, 0x0200, v)
}

func TestReadByteStringTruncatesAtNul(t *testing.T) {
	buf := append([]byte("abc"), 0, 'x', 'y')
	r := NewReader(buf)
	s, err := r.ReadByteString(len(buf))
	assert.NoError(t, err)
	assert.Equal(t, "abc", s)
	assert.Equal(t, len(buf), r.Offset())
}

func TestNameIndexName(t *testing.T) {
	n := Name{ShortName: "MixedCase.TXT"}
	assert.Equal(t, "mixedcase.txt", n.IndexName())
}

func TestNameIsProject(t *testing.T) {
	assert.True(t, Name{Flags: 1}.IsProject())
	assert.False(t, Name{Flags: 0}.IsProject())
}

func TestCRC16Deterministic(t *testing.T) {
	buf := []byte("a revision record payload, for CRC testing")
	r := NewReader(buf)
	c1, err := r.CRC16(len(buf))
	assert.NoError(t, err)
	c2, err := r.CRC16(len(buf))
	assert.NoError(t, err)
	assert.Equal(t, c1, c2)

	other := NewReader(append(append([]byte{}, buf...), 'X'))
	c3, err := other.CRC16(len(buf) + 1)
	assert.NoError(t, err)
	assert.NotEqual(t, c1, c3)
}

// TestCrc32MatchesRawReflectedChecksum pins Crc32 to the VSS checksum's
// exact definition (vss_record.py's crc32.calculate(initial=0, final=0)):
// a raw CRC-32/IEEE update with no initial complement and no final XOR,
// distinct from stdlib's zlib-style crc32.ChecksumIEEE.
func TestCrc32MatchesRawReflectedChecksum(t *testing.T) {
	data := []byte("hello world test data 12345")
	assert.EqualValues(t, 0x506501b6, Crc32(data))
}

func TestCloneBounds(t *testing.T) {
	r := NewReader(make([]byte, 16))
	_, err := r.Clone(0, 20)
	assert.ErrorIs(t, err, ErrEndOfBuffer)

	sub, err := r.Clone(4, 4)
	assert.NoError(t, err)
	assert.Equal(t, 4, sub.Length())
}
