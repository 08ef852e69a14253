package mapper

import (
	"strconv"

	"github.com/artgasca/protolink-modbus-bridge/config"
	"github.com/artgasca/protolink-modbus-bridge/modbus"
)

// Mapper resolves raw register frames into named, scaled values using the
// per-unit register tables from configuration. It holds no mutable state
// and may be shared across concurrent decode paths.
type Mapper struct {
	units map[string]config.UnitConfig
}

// New creates a mapper over a validated unit table.
func New(units map[string]config.UnitConfig) *Mapper {
	return &Mapper{units: units}
}

// Map converts a frame into name→value pairs plus the configured device
// name. Misses are not errors: an unknown unit yields an empty mapping and
// an empty device name, a known unit with an unknown function code yields
// an empty mapping with the device name, and a definition whose index does
// not fit the frame is skipped.
func (m *Mapper) Map(frame *modbus.RawFrame) (map[string]float64, string) {
	values := make(map[string]float64)

	unit, ok := m.units[strconv.Itoa(int(frame.UnitID))]
	if !ok {
		return values, ""
	}

	fn, ok := unit.Functions[strconv.Itoa(int(frame.FunctionCode))]
	if !ok {
		return values, unit.Name
	}

	for _, def := range fn.Registers {
		if def.Index < 0 || def.Index >= len(frame.Registers) {
			continue
		}

		switch ParseDataType(def.DataType) {
		case Float32:
			if def.Index+1 >= len(frame.Registers) {
				continue
			}
			f := modbus.Float32FromWords(
				frame.Registers[def.Index],
				frame.Registers[def.Index+1],
				modbus.ParseWordOrder(def.WordOrder),
			)
			values[def.Name] = float64(f) * def.Scale
		default:
			// Uint16 and unrecognized datatypes both read one raw word.
			values[def.Name] = float64(frame.Registers[def.Index]) * def.Scale
		}
	}

	return values, unit.Name
}
