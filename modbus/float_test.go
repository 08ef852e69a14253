package modbus

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFloat32FromWords_WordOrders(t *testing.T) {
	// IEEE-754 1.0 is 0x3F800000; each case carries the words as a device
	// using that ordering would transmit them.
	tests := []struct {
		order  WordOrder
		hi, lo uint16
	}{
		{ABCD, 0x3F80, 0x0000},
		{CDAB, 0x0000, 0x3F80},
		{BADC, 0x803F, 0x0000},
		{DCBA, 0x0000, 0x803F},
	}

	for _, tt := range tests {
		t.Run(tt.order.String(), func(t *testing.T) {
			assert.Equal(t, float32(1.0), Float32FromWords(tt.hi, tt.lo, tt.order))
		})
	}
}

func TestFloat32FromWords_NaNPassesThrough(t *testing.T) {
	// 0x7FC00000 is a quiet NaN; the bit pattern must survive unchanged.
	got := Float32FromWords(0x7FC0, 0x0000, ABCD)
	assert.True(t, math.IsNaN(float64(got)))
}

func TestParseWordOrder(t *testing.T) {
	assert.Equal(t, DCBA, ParseWordOrder("DCBA"))
	assert.Equal(t, BADC, ParseWordOrder("badc"))
	assert.Equal(t, CDAB, ParseWordOrder("CDAB"))
	assert.Equal(t, ABCD, ParseWordOrder("ABCD"))
	assert.Equal(t, ABCD, ParseWordOrder(""), "unknown orders fall back to ABCD")
	assert.Equal(t, ABCD, ParseWordOrder("ABCDEFGH"))
}
