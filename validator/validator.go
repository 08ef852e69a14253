package validator

import (
	"github.com/artgasca/protolink-modbus-bridge/config"
)

// Violation reports one mapped value outside its configured bounds.
type Violation struct {
	Name  string
	Value float64
	Min   float64
	Max   float64
}

type bounds struct {
	min, max float64
}

// RangeValidator checks mapped values against the optional min/max bounds
// from the register tables. It never rejects a reading; field telemetry is
// published as-is and violations are only surfaced for logging.
type RangeValidator struct {
	// device name -> value name -> bounds
	devices map[string]map[string]bounds
}

// NewRangeValidator collects every register definition that declares
// bounds. Definitions with min == max == 0 are unbounded.
func NewRangeValidator(units map[string]config.UnitConfig) *RangeValidator {
	devices := make(map[string]map[string]bounds)

	for _, unit := range units {
		for _, fn := range unit.Functions {
			for _, def := range fn.Registers {
				if def.Min == 0 && def.Max == 0 {
					continue
				}
				if devices[unit.Name] == nil {
					devices[unit.Name] = make(map[string]bounds)
				}
				devices[unit.Name][def.Name] = bounds{def.Min, def.Max}
			}
		}
	}

	return &RangeValidator{devices: devices}
}

// Check returns the out-of-range values for one device's mapping. Values
// without configured bounds pass.
func (rv *RangeValidator) Check(device string, values map[string]float64) []Violation {
	defs, ok := rv.devices[device]
	if !ok {
		return nil
	}

	var violations []Violation
	for name, value := range values {
		b, ok := defs[name]
		if !ok {
			continue
		}
		if value < b.min || value > b.max {
			violations = append(violations, Violation{Name: name, Value: value, Min: b.min, Max: b.max})
		}
	}
	return violations
}
