package mapper

// Reading is the bridge's outbound record: one decoded and mapped frame,
// ready to be serialized, published and stored.
type Reading struct {
	// Timestamp is in milliseconds since the Unix epoch.
	Timestamp    int64              `json:"timestamp"`
	UnitID       uint8              `json:"unit_id"`
	FunctionCode uint8              `json:"function_code"`
	Device       string             `json:"device"`
	Registers    []uint16           `json:"registers"`
	Values       map[string]float64 `json:"values,omitempty"`
	CRCOK        bool               `json:"crc_ok"`
}
