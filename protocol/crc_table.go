package protocol

import "github.com/snksoft/crc"

// LinkCRC describes the link checksum for the table-driven implementation
var LinkCRC = &crc.Parameters{
	Width:      16,
	Polynomial: 0x1021,
	ReflectIn:  true,
	ReflectOut: true,
	Init:       0xFFFF,
	FinalXor:   0,
}

var linkTable = crc.NewTable(LinkCRC)

// TableCRC16 computes the same checksum as CRC16 from a precomputed table
func TableCRC16(data []byte) uint16 {
	h := crc.NewHashWithTable(linkTable)
	h.Update(data)
	return h.CRC16()
}
