package transport

import (
	"fmt"

	"go.bug.st/serial"
)

// defaultBufferBytes approximates a typical USB-UART bridge's combined
// driver and hardware FIFO capacity, used as the RingSink's simulated
// buffer size when none is given.
const defaultBufferBytes = 2048

// OpenSerial opens portName at baud and wraps it in a RingSink so the
// pipeline can observe simulated back-pressure against it.
func OpenSerial(portName string, baud int) (*RingSink, error) {
	port, err := serial.Open(portName, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("transport: open %s: %w", portName, err)
	}
	return NewRingSink(port, defaultBufferBytes, baud), nil
}
