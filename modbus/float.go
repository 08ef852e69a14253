package modbus

import (
	"encoding/binary"
	"math"
	"strings"
)

// WordOrder describes how the four bytes of two consecutive registers
// interleave into one 32-bit value.
type WordOrder int

const (
	ABCD WordOrder = iota // high word first, big-endian bytes
	DCBA                  // full byte reversal
	BADC                  // bytes swapped within each word
	CDAB                  // words swapped, bytes intact
)

var wordOrderNames = map[WordOrder]string{
	ABCD: "ABCD",
	DCBA: "DCBA",
	BADC: "BADC",
	CDAB: "CDAB",
}

func (o WordOrder) String() string {
	if name, ok := wordOrderNames[o]; ok {
		return name
	}
	return "ABCD"
}

// ParseWordOrder maps a configuration string to a WordOrder. Unknown
// strings fall back to ABCD rather than erroring.
func ParseWordOrder(s string) WordOrder {
	switch strings.ToUpper(s) {
	case "DCBA":
		return DCBA
	case "BADC":
		return BADC
	case "CDAB":
		return CDAB
	default:
		return ABCD
	}
}

// Float32FromWords reassembles two 16-bit registers into an IEEE-754
// single-precision float. hi is the register at the definition's index,
// lo the one after it. The resulting bit pattern is returned as-is; NaN
// and Inf are not special-cased.
func Float32FromWords(hi, lo uint16, order WordOrder) float32 {
	a, b := byte(hi>>8), byte(hi)
	c, d := byte(lo>>8), byte(lo)

	var buf [4]byte
	switch order {
	case DCBA:
		buf = [4]byte{d, c, b, a}
	case BADC:
		buf = [4]byte{b, a, d, c}
	case CDAB:
		buf = [4]byte{c, d, a, b}
	default:
		buf = [4]byte{a, b, c, d}
	}

	return math.Float32frombits(binary.BigEndian.Uint32(buf[:]))
}
