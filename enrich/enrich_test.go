package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artgasca/protolink-modbus-bridge/config"
	"github.com/artgasca/protolink-modbus-bridge/modbus"
)

func testFrame() *modbus.RawFrame {
	return &modbus.RawFrame{UnitID: 1, FunctionCode: 3, Registers: []uint16{250}, CRCOK: true}
}

func TestApply_NoHookPassesThrough(t *testing.T) {
	m, err := NewManager(nil)
	require.NoError(t, err)

	values := map[string]float64{"voltage": 25}
	assert.Equal(t, values, m.Apply("inverter", values, testFrame()))
}

func TestApply_DerivedValue(t *testing.T) {
	m, err := NewManager(map[string]config.EnrichConfig{
		"inverter": {ScriptCode: `
			function enrich(values, frame) {
				values.voltage_kv = round(values.voltage / 1000, 3);
				return values;
			}
		`},
	})
	require.NoError(t, err)

	values := m.Apply("inverter", map[string]float64{"voltage": 230}, testFrame())

	assert.InDelta(t, 230, values["voltage"], 1e-9)
	assert.InDelta(t, 0.23, values["voltage_kv"], 1e-9)
}

func TestApply_FrameVisibleToScript(t *testing.T) {
	m, err := NewManager(map[string]config.EnrichConfig{
		"inverter": {ScriptCode: `
			function enrich(values, frame) {
				return { unit: frame.unit_id, first: frame.registers[0] };
			}
		`},
	})
	require.NoError(t, err)

	values := m.Apply("inverter", map[string]float64{}, testFrame())

	assert.InDelta(t, 1, values["unit"], 1e-9)
	assert.InDelta(t, 250, values["first"], 1e-9)
}

func TestApply_ScriptErrorKeepsOriginalValues(t *testing.T) {
	m, err := NewManager(map[string]config.EnrichConfig{
		"inverter": {ScriptCode: `
			function enrich(values, frame) {
				throw new Error("boom");
			}
		`},
	})
	require.NoError(t, err)

	original := map[string]float64{"voltage": 230}
	assert.Equal(t, original, m.Apply("inverter", original, testFrame()))
}

func TestNewManager_MissingEnrichFunction(t *testing.T) {
	_, err := NewManager(map[string]config.EnrichConfig{
		"inverter": {ScriptCode: `var x = 1;`},
	})
	require.Error(t, err)
}

func TestNewManager_MissingScript(t *testing.T) {
	_, err := NewManager(map[string]config.EnrichConfig{
		"inverter": {},
	})
	require.Error(t, err)
}

func TestReload(t *testing.T) {
	m, err := NewManager(nil)
	require.NoError(t, err)

	err = m.Reload("inverter", config.EnrichConfig{ScriptCode: `
		function enrich(values, frame) {
			values.reloaded = 1;
			return values;
		}
	`})
	require.NoError(t, err)

	values := m.Apply("inverter", map[string]float64{}, testFrame())
	assert.InDelta(t, 1, values["reloaded"], 1e-9)
}
