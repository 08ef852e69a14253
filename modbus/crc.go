package modbus

// CRC16 computes the CRC-16/Modbus checksum (polynomial 0xA001, initial
// value 0xFFFF). The result compares directly against the little-endian
// CRC carried in the last two bytes of an RTU frame.
func CRC16(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		crc ^= uint16(b)
		for i := 0; i < 8; i++ {
			if crc&0x0001 != 0 {
				crc = crc>>1 ^ 0xA001
			} else {
				crc >>= 1
			}
		}
	}
	return crc
}
