package protocol

import (
	"encoding"
	"errors"
	"fmt"
	"math"

	"github.com/aion-proxy/aion-data-parser/internal/byteorder"
	"github.com/aion-proxy/aion-data-parser/internal/debug"
)

const (
	HeaderSize   = 7             // uint16 length (2) + uint16 opcode (2) + reserved (3) = 7
	MaxFrameSize = math.MaxUint16 // the length field covers header + payload
)

var (
	ErrShortHeader   = errors.New("protocol: short header")
	ErrFrameTooLarge = errors.New("protocol: frame too large")
)

// Header is the fixed frame header. Length counts the whole frame, header
// included. The three reserved bytes are written as zero and carried through
// unchanged on read; nothing here assigns them a meaning.
type Header struct {
	Length   uint16
	Opcode   uint16
	Reserved [3]byte
}

var (
	_ encoding.BinaryMarshaler   = (*Header)(nil)
	_ encoding.BinaryUnmarshaler = (*Header)(nil)
)

func (h *Header) MarshalBinary() ([]byte, error) {
	data := make([]byte, HeaderSize)
	h.put(data)
	return data, nil
}

func (h *Header) UnmarshalBinary(data []byte) error {
	if len(data) < HeaderSize {
		return ErrShortHeader
	}

	h.Length = byteorder.Uint16(data[0:2])
	h.Opcode = byteorder.Uint16(data[2:4])
	copy(h.Reserved[:], data[4:HeaderSize])

	return nil
}

func (h *Header) put(data []byte) {
	debug.Assert(len(data) >= HeaderSize)

	byteorder.PutUint16(data[0:2], h.Length)
	byteorder.PutUint16(data[2:4], h.Opcode)
	copy(data[4:HeaderSize], h.Reserved[:])
}

// Frame fills in the header of frame, whose payload already starts at
// HeaderSize.
func Frame(frame []byte, opcode uint16) error {
	if len(frame) < HeaderSize {
		return ErrShortHeader
	}
	if len(frame) > MaxFrameSize {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(frame))
	}

	h := Header{Length: uint16(len(frame)), Opcode: opcode}
	h.put(frame)
	return nil
}

// PeekOpcode returns the opcode of a frame without validating the rest of it.
func PeekOpcode(frame []byte) (uint16, bool) {
	if len(frame) < 4 {
		return 0, false
	}
	return byteorder.Uint16(frame[2:4]), true
}
