package smbus

import "fmt"

const (
	write = 0x00
	read  = 0x01
)

// CRC8 is the SMBus PEC polynomial x^8+x^2+x+1 over data.
func CRC8(data []byte) uint8 {
	var crc uint8
	for _, b := range data {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&0x80 != 0 {
				crc = (crc << 1) ^ 0x07
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

// WritePEC returns the PEC byte for a write of frame (command and data).
func WritePEC(addr uint8, frame []byte) uint8 {
	return CRC8(append([]byte{addr<<1 | write}, frame...))
}

// CheckReadPEC verifies the trailing PEC byte of a read reply to cmd.
func CheckReadPEC(addr, cmd uint8, reply []byte) error {
	if len(reply) < 2 {
		return fmt.Errorf("smbus: reply too short for PEC")
	}
	n := len(reply) - 1
	frame := append([]byte{addr<<1 | write, cmd, addr<<1 | read}, reply[:n]...)
	if pec := CRC8(frame); pec != reply[n] {
		return fmt.Errorf("smbus: PEC mismatch: %02x != %02x", pec, reply[n])
	}
	return nil
}
