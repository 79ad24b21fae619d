package playback

import (
	"fmt"

	"go.bug.st/serial"
)

// DefaultBaudRate matches the actuator controller firmware.
const DefaultBaudRate = 1000000

// Bus writes motion tramas to the actuator hardware.
type Bus interface {
	WriteFrame(trama []byte) error
	Close() error
}

// SerialBus is the production Bus over a local serial port.
type SerialBus struct {
	port serial.Port
	name string
}

// OpenSerialBus opens the actuator port. A baud of 0 uses the default.
func OpenSerialBus(portName string, baud int) (*SerialBus, error) {
	if baud <= 0 {
		baud = DefaultBaudRate
	}
	port, err := serial.Open(portName, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", portName, err)
	}
	return &SerialBus{port: port, name: portName}, nil
}

func (b *SerialBus) WriteFrame(trama []byte) error {
	n, err := b.port.Write(trama)
	if err != nil {
		return fmt.Errorf("write trama to %s: %w", b.name, err)
	}
	if n != len(trama) {
		return fmt.Errorf("short trama write to %s: %d of %d bytes", b.name, n, len(trama))
	}
	return nil
}

func (b *SerialBus) Close() error {
	return b.port.Close()
}
