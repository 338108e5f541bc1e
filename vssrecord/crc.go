package vssrecord

import "hash/crc32"

// Crc32 computes the reflected CRC-32 (polynomial 0xEDB88320, the IEEE
// polynomial) over data with initial register 0 and no final XOR, matching
// vss_record.py's hand-rolled table (vss_record.py's crc32.calculate is
// called with initial=0, final=0). crc32.Update complements the register on
// entry and on return, so it is seeded with ^0 and its result complemented
// to get the raw register; crc32.Update(0, ...) would equal the zlib-style
// crc32.ChecksumIEEE, a different value.
func Crc32(data []byte) uint32 {
	return ^crc32.Update(^uint32(0), crc32.IEEETable, data)
}

// Crc16 folds a CRC-32 into the 16-bit checksum VSS stores in record
// headers: the low 16 bits XORed with the high 16 bits.
func Crc16(data []byte) uint16 {
	crc := Crc32(data)
	return uint16(crc) ^ uint16(crc>>16)
}
