package modbus

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// MinFrameSize is the smallest viable RTU response: unit id, function
	// code, byte count and two CRC bytes around zero data bytes.
	MinFrameSize = 5

	headerSize = 3
	crcSize    = 2
)

var (
	ErrFrameTooShort = errors.New("modbus: frame too short")
	ErrOddByteCount  = errors.New("modbus: odd byte count")
	ErrCRCMismatch   = errors.New("modbus: crc mismatch")
)

// RawFrame is a decoded Modbus RTU response.
type RawFrame struct {
	UnitID       uint8
	FunctionCode uint8
	// Registers holds the data bytes as big-endian 16-bit words, in wire
	// order. Index 0 is the first register after the byte-count field.
	Registers []uint16
	// CRC is the checksum carried in the last two payload bytes.
	CRC   uint16
	CRCOK bool
	// LengthMismatch is set when the payload length disagrees with the
	// declared byte count. Some field gateways append or drop trailing
	// bytes on frames that are otherwise usable, so the frame is still
	// decoded and the discrepancy left to the caller to report.
	LengthMismatch bool
}

// Decoder parses raw RTU response payloads.
type Decoder struct {
	// ValidateCRC enables CRC-16/Modbus verification. The upstream bridge
	// never checked the CRC, so this is off by default; while off, CRCOK
	// is reported true for every frame.
	ValidateCRC bool
}

// Decode parses one RTU response payload into a RawFrame.
//
// Layout: byte 0 unit id, byte 1 function code, byte 2 byte count N,
// bytes [3, 3+N) register data, final two bytes CRC (low byte first).
func (d Decoder) Decode(payload []byte) (*RawFrame, error) {
	if len(payload) < MinFrameSize {
		return nil, fmt.Errorf("%w: got %d bytes, need at least %d", ErrFrameTooShort, len(payload), MinFrameSize)
	}

	byteCount := int(payload[2])
	if byteCount%2 != 0 {
		return nil, fmt.Errorf("%w: byte count %d", ErrOddByteCount, byteCount)
	}
	if len(payload) < headerSize+byteCount {
		return nil, fmt.Errorf("%w: byte count %d but only %d data bytes present",
			ErrFrameTooShort, byteCount, len(payload)-headerSize)
	}

	frame := &RawFrame{
		UnitID:       payload[0],
		FunctionCode: payload[1],
		CRCOK:        true,
	}

	// Register data is always taken from [3, 3+N); anything between the
	// declared data and the trailing CRC is ignored.
	data := payload[headerSize : headerSize+byteCount]
	frame.Registers = make([]uint16, 0, byteCount/2)
	for i := 0; i < len(data); i += 2 {
		frame.Registers = append(frame.Registers, binary.BigEndian.Uint16(data[i:]))
	}

	frame.CRC = binary.LittleEndian.Uint16(payload[len(payload)-crcSize:])
	frame.LengthMismatch = len(payload) != headerSize+byteCount+crcSize

	if d.ValidateCRC {
		if sum := CRC16(payload[:len(payload)-crcSize]); sum != frame.CRC {
			return nil, fmt.Errorf("%w: calculated %#04x, frame carries %#04x", ErrCRCMismatch, sum, frame.CRC)
		}
	}

	return frame, nil
}
