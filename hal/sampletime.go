package hal

import "fmt"

// sampleTimes are the ADC sample times in cycles, indexed by SMPRx code.
var sampleTimes = [...]uint16{3, 15, 28, 56, 84, 112, 144, 480}

// SampleTimeCode returns the 3-bit SMPRx field for a channel sample time.
// Zero selects the reset default of 3 cycles.
func SampleTimeCode(cycles uint16) (uint32, error) {
	if cycles == 0 {
		return 0, nil
	}
	for code, c := range sampleTimes {
		if c == cycles {
			return uint32(code), nil
		}
	}
	return 0, fmt.Errorf("adc: unsupported sample time %d cycles", cycles)
}

func checkSampleTimes(seq []AnalogChannel) error {
	for _, ch := range seq {
		if _, err := SampleTimeCode(ch.SampleCycles); err != nil {
			return fmt.Errorf("%s: %w", ch.Name, err)
		}
	}
	return nil
}
