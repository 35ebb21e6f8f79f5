package adc

// SyntheticConverter generates band-limited pseudo-random noise in place
// of a real ADC, for bench testing without hardware. Each channel keeps
// its own low-pass state so consecutive samples stay correlated the way a
// real seismic sensor's output would.
type SyntheticConverter struct {
	rng       uint64
	amplitude int32
	state     []float64
}

// NewSyntheticConverter seeds a generator producing values with the given
// peak-ish amplitude in raw counts.
func NewSyntheticConverter(seed uint64, amplitude int32) *SyntheticConverter {
	if seed == 0 {
		seed = 0x9e3779b97f4a7c15
	}
	return &SyntheticConverter{rng: seed, amplitude: amplitude}
}

// Read implements Converter. It never misses a deadline.
func (c *SyntheticConverter) Read(channels int) (Sample, bool, error) {
	for len(c.state) < channels {
		c.state = append(c.state, 0)
	}
	vals := make([]int32, channels)
	for i := 0; i < channels; i++ {
		noise := c.next()
		c.state[i] = 0.98*c.state[i] + 0.02*noise*float64(c.amplitude)
		vals[i] = int32(c.state[i])
	}
	return Sample{Values: vals}, false, nil
}

// next steps a splitmix64 generator and maps it to [-1, 1).
func (c *SyntheticConverter) next() float64 {
	c.rng += 0x9e3779b97f4a7c15
	z := c.rng
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	z = z ^ (z >> 31)
	return float64(int64(z>>11))/float64(int64(1)<<52) - 1
}
