//go:build linux

package tempsensor

import (
	"encoding/binary"
	"fmt"

	"periph.io/x/conn/v3/driver/driverreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
)

// tempRegister is the sensor's temperature register address; readTempReg
// returns a big-endian signed 16-bit value in 1/256 °C, the common layout
// for small I2C temperature ICs.
const tempRegister = 0x00

// I2CSensor reads the ambient temperature off an I2C-attached sensor.
type I2CSensor struct {
	dev *i2c.Dev
}

// OpenI2CSensor opens busName and addresses the sensor at addr.
func OpenI2CSensor(busName string, addr uint16) (*I2CSensor, error) {
	if _, err := driverreg.Init(); err != nil {
		return nil, fmt.Errorf("tempsensor: driver init: %w", err)
	}
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("tempsensor: open %s: %w", busName, err)
	}
	return &I2CSensor{dev: &i2c.Dev{Addr: addr, Bus: bus}}, nil
}

// ReadCelsius implements Sensor.
func (s *I2CSensor) ReadCelsius() (float64, error) {
	readBuf := make([]byte, 2)
	if err := s.dev.Tx([]byte{tempRegister}, readBuf); err != nil {
		return 0, fmt.Errorf("tempsensor: read: %w", err)
	}
	raw := int16(binary.BigEndian.Uint16(readBuf))
	return float64(raw) / 256.0, nil
}
