package adc

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/driver/driverreg"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
)

// bytesPerChannel is the transfer width for a 24-bit delta-sigma
// conversion result.
const bytesPerChannel = 3

// SPIConverter talks to a delta-sigma ADC over SPI, polling a DRDY GPIO
// line for each conversion's readiness.
type SPIConverter struct {
	port spi.PortCloser
	conn spi.Conn
	drdy gpio.PinIn

	timeout time.Duration
}

// OpenSPIConverter opens busName (e.g. "/dev/spidev0.0") and configures
// drdyPin as the data-ready input. A nil drdyPin disables the readiness
// wait, treating every conversion as immediately ready.
func OpenSPIConverter(busName string, maxHz physic.Frequency, drdyPin gpio.PinIn) (*SPIConverter, error) {
	if _, err := driverreg.Init(); err != nil {
		return nil, fmt.Errorf("adc: periph driverreg.Init: %w", err)
	}
	port, err := spireg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("adc: spireg.Open %s: %w", busName, err)
	}
	conn, err := port.Connect(maxHz, spi.Mode1, 8)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("adc: spi.Connect: %w", err)
	}
	if drdyPin != nil {
		if err := drdyPin.In(gpio.PullUp, gpio.FallingEdge); err != nil {
			port.Close()
			return nil, fmt.Errorf("adc: drdy pin setup: %w", err)
		}
	}
	return &SPIConverter{port: port, conn: conn, drdy: drdyPin, timeout: DeadlineTimeout}, nil
}

// Close releases the underlying SPI port.
func (c *SPIConverter) Close() error {
	return c.port.Close()
}

// Read implements Converter.
func (c *SPIConverter) Read(channels int) (Sample, bool, error) {
	if !c.waitDataReady() {
		return zeroSample(channels), true, nil
	}

	tx := make([]byte, channels*bytesPerChannel)
	rx := make([]byte, len(tx))
	if err := c.conn.Tx(tx, rx); err != nil {
		return Sample{}, false, fmt.Errorf("adc: spi transfer: %w", err)
	}

	vals := make([]int32, channels)
	for i := 0; i < channels; i++ {
		b := rx[i*bytesPerChannel : i*bytesPerChannel+bytesPerChannel]
		v := int32(b[0])<<16 | int32(b[1])<<8 | int32(b[2])
		if v&0x800000 != 0 {
			v -= 1 << 24 // sign-extend the 24-bit two's complement result
		}
		vals[i] = v
	}
	return Sample{Values: vals}, false, nil
}

// waitDataReady polls drdy for a falling edge within the deadline. A nil
// drdy pin means the bus has no readiness signal and every read proceeds
// immediately.
func (c *SPIConverter) waitDataReady() bool {
	if c.drdy == nil {
		return true
	}
	deadline := time.Now().Add(c.timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false
		}
		if c.drdy.WaitForEdge(remaining) {
			return true
		}
	}
}
