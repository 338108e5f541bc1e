package main

import "hash/crc32"

// crc32Of is the plain (unfolded) CRC-32 a File item's DataCRC header
// field is checked against, per spec: every revision's reconstructed
// payload has a CRC-32 equal to the file header's data_crc for the latest
// revision.
func crc32Of(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}
