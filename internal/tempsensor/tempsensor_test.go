package tempsensor

import "testing"

func TestConstantSensor_ReturnsFixedReading(t *testing.T) {
	s := ConstantSensor{Celsius: 21.5}
	v, err := s.ReadCelsius()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 21.5 {
		t.Fatalf("got %v", v)
	}
}
