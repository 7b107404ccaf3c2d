package units

import (
	"fmt"
	"math"
)

// CircleClock is the NanoTrack circle oscillator reference; the circle frequency
// in Hz is CircleClock divided by the raw divider.
const CircleClock = 7000.0

// RelativeFullScale is the raw value of a 100% relative TIA reading.
const RelativeFullScale = 32767.0

// CircleFrequency converts a raw circle oscillator divider to Hz.
// A zero divider yields 0.
func CircleFrequency(raw uint16) float64 {
	if raw == 0 {
		return 0
	}

	return CircleClock / float64(raw)
}

// CircleFrequencyToRaw converts a circle frequency in Hz to the nearest raw divider.
func CircleFrequencyToRaw(hz float64) (uint16, error) {
	if hz <= 0 || math.IsNaN(hz) || math.IsInf(hz, 0) {
		return 0, fmt.Errorf("%w: circle frequency %v", ErrValueOutOfRange, hz)
	}

	raw := math.Round(CircleClock / hz)
	if raw < 1 || raw > math.MaxUint16 {
		return 0, fmt.Errorf("%w: circle frequency %v Hz gives divider %.0f", ErrValueOutOfRange, hz, raw)
	}

	return uint16(raw), nil
}

// RelativeReading converts a raw relative TIA reading to a fraction of full scale.
func RelativeReading(raw uint16) float64 {
	return float64(raw) / RelativeFullScale
}
