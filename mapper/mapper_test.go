package mapper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artgasca/protolink-modbus-bridge/config"
	"github.com/artgasca/protolink-modbus-bridge/modbus"
)

func unitTable(registers ...config.RegisterDefinition) map[string]config.UnitConfig {
	return map[string]config.UnitConfig{
		"1": {
			Name: "inverter",
			Functions: map[string]config.FunctionConfig{
				"3": {Registers: registers},
			},
		},
	}
}

func frame(unitID, fc uint8, registers ...uint16) *modbus.RawFrame {
	return &modbus.RawFrame{UnitID: unitID, FunctionCode: fc, Registers: registers, CRCOK: true}
}

func TestMap_Uint16Scale(t *testing.T) {
	m := New(unitTable(config.RegisterDefinition{Index: 0, Name: "voltage", DataType: "uint16", Scale: 0.1}))

	values, device := m.Map(frame(1, 3, 250))

	assert.Equal(t, "inverter", device)
	require.Contains(t, values, "voltage")
	assert.InDelta(t, 25.0, values["voltage"], 1e-9)
}

func TestMap_Float32(t *testing.T) {
	m := New(unitTable(config.RegisterDefinition{Index: 1, Name: "power", DataType: "float32", Scale: 2.0, WordOrder: "CDAB"}))

	// Registers 1 and 2 carry 1.0 in CDAB order.
	values, _ := m.Map(frame(1, 3, 0xDEAD, 0x0000, 0x3F80))

	require.Contains(t, values, "power")
	assert.InDelta(t, 2.0, values["power"], 1e-9)
}

func TestMap_UnknownUnitPassesThrough(t *testing.T) {
	m := New(unitTable(config.RegisterDefinition{Index: 0, Name: "voltage", DataType: "uint16", Scale: 1}))

	values, device := m.Map(frame(99, 3, 250))

	assert.Empty(t, values)
	assert.Empty(t, device)
}

func TestMap_UnknownFunctionKeepsDeviceName(t *testing.T) {
	m := New(unitTable(config.RegisterDefinition{Index: 0, Name: "voltage", DataType: "uint16", Scale: 1}))

	values, device := m.Map(frame(1, 4, 250))

	assert.Empty(t, values)
	assert.Equal(t, "inverter", device)
}

func TestMap_OutOfRangeIndexSkipped(t *testing.T) {
	m := New(unitTable(
		config.RegisterDefinition{Index: 5, Name: "missing", DataType: "uint16", Scale: 1},
		config.RegisterDefinition{Index: 1, Name: "current", DataType: "uint16", Scale: 0.01},
	))

	values, _ := m.Map(frame(1, 3, 0, 1550))

	assert.NotContains(t, values, "missing")
	require.Contains(t, values, "current")
	assert.InDelta(t, 15.5, values["current"], 1e-9)
}

func TestMap_Float32NeedsTwoRegisters(t *testing.T) {
	m := New(unitTable(config.RegisterDefinition{Index: 1, Name: "power", DataType: "float32", Scale: 1}))

	// Index 1 exists but index 2 does not.
	values, _ := m.Map(frame(1, 3, 0x3F80, 0x0000))

	assert.NotContains(t, values, "power")
}

func TestMap_DuplicateNameLastWins(t *testing.T) {
	m := New(unitTable(
		config.RegisterDefinition{Index: 0, Name: "temp", DataType: "uint16", Scale: 1},
		config.RegisterDefinition{Index: 1, Name: "temp", DataType: "uint16", Scale: 10},
	))

	values, _ := m.Map(frame(1, 3, 100, 7))

	assert.InDelta(t, 70.0, values["temp"], 1e-9)
}

func TestMap_UnrecognizedDataTypeFallsBackToRaw(t *testing.T) {
	m := New(unitTable(config.RegisterDefinition{Index: 0, Name: "counter", DataType: "uint64", Scale: 0.5}))

	values, _ := m.Map(frame(1, 3, 40))

	require.Contains(t, values, "counter")
	assert.InDelta(t, 20.0, values["counter"], 1e-9)
}

func TestParseDataType(t *testing.T) {
	assert.Equal(t, Uint16, ParseDataType("uint16"))
	assert.Equal(t, Float32, ParseDataType("Float32"))
	assert.Equal(t, Raw, ParseDataType("int32"))
	assert.Equal(t, Raw, ParseDataType(""))
}
