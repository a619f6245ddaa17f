package noise

import "math"

// Field is a dense row-major grid of noise samples.
type Field []float64

// Stats summarises a field.
type Stats struct {
	Min  float64
	Max  float64
	Mean float64
}

// Stats computes min, max and mean. An empty field yields zero Stats.
func (f Field) Stats() Stats {
	if len(f) == 0 {
		return Stats{}
	}
	s := Stats{Min: math.Inf(1), Max: math.Inf(-1)}
	var sum float64
	for _, v := range f {
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
		sum += v
	}
	s.Mean = sum / float64(len(f))
	return s
}
