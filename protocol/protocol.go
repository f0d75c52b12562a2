// Package protocol implements the serial link between the host and the
// interface firmware: VLQ-encoded commands carried in sequenced,
// CRC-checked message blocks.
//
// Block layout: len, seq, payload..., crc_hi, crc_lo, 0x7E.
package protocol

// Version is the link protocol version reported in the identify dictionary
const Version = "0.1.0"

// Message block layout
const (
	MessageHeaderSize  = 2
	MessageTrailerSize = 3
	MessageLengthMin   = MessageHeaderSize + MessageTrailerSize
	MessageLengthMax   = 64
	MessagePayloadMax  = MessageLengthMax - MessageLengthMin
	MessagePositionLen = 0
	MessagePositionSeq = 1
	MessageValueSync   = 0x7E

	// Sequence byte: high nibble fixed to MessageDest, low nibble counts
	MessageDest    = 0x10
	MessageSeqMask = 0x0F
)

// OutputBufferSize is the capacity of a ScratchOutput
const OutputBufferSize = 512

// nextSequence returns the sequence byte that follows seq
func nextSequence(seq uint8) uint8 {
	return ((seq + 1) & MessageSeqMask) | MessageDest
}
