// Package protocol implements the framed serial protocol spoken with an
// output bridge MCU. A frame is a length byte, a sequence byte, a payload
// of VLQ-encoded commands, a CRC16 and a sync byte.
package protocol

// Version is the bridge protocol version reported in the dictionary
const Version = "plasmacut-bridge-1"

// Frame layout
const (
	HeaderSize  = 2
	TrailerSize = 3
	FrameMin    = HeaderSize + TrailerSize
	FrameMax    = 64
	PayloadMax  = FrameMax - FrameMin

	posLen = 0
	posSeq = 1

	SyncByte = 0x7E
	DestBit  = 0x10 // Always set in the sequence byte
	SeqMask  = 0x0F
)

// Well-known command ids. identify_response and identify are fixed so the
// dictionary can be fetched before anything else is known.
const (
	IdentifyResponseID = 0
	IdentifyID         = 1
)

// NextSeq returns the sequence byte following seq
func NextSeq(seq uint8) uint8 {
	return ((seq + 1) & SeqMask) | DestBit
}
