// Package tempsensor supplies the ambient temperature reading the
// oscillator calibrator's optional temperature-compensation term is
// learned against.
package tempsensor

// Sensor is the node's view of the temperature reference: one blocking
// read in degrees Celsius.
type Sensor interface {
	ReadCelsius() (float64, error)
}

// ConstantSensor reports a fixed temperature, for bench runs with no
// sensor attached.
type ConstantSensor struct {
	Celsius float64
}

// ReadCelsius implements Sensor.
func (s ConstantSensor) ReadCelsius() (float64, error) { return s.Celsius, nil }
