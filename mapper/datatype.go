package mapper

import "strings"

// DataType selects how raw registers become a numeric value.
type DataType int

const (
	// Uint16 reads one register as an unsigned integer.
	Uint16 DataType = iota
	// Float32 reads two consecutive registers as an IEEE-754 float.
	Float32
	// Raw covers datatype strings this build does not recognize: the
	// register is read as an unsigned integer and scaled, so configs
	// written for newer builds still produce usable output.
	Raw
)

// ParseDataType maps the configured datatype string to a DataType.
// Unrecognized strings become Raw, not an error.
func ParseDataType(s string) DataType {
	switch strings.ToLower(s) {
	case "uint16":
		return Uint16
	case "float32":
		return Float32
	default:
		return Raw
	}
}
