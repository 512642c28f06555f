//go:build tinygo && baremetal

package hal

import (
	"device/stm32"
	"fmt"
	"machine"
)

type uartSerial struct {
	uart *machine.UART
}

func (s *uartSerial) Write(p []byte) (int, error) {
	if s.uart == nil {
		return 0, ErrNotImplemented
	}
	return s.uart.Write(p)
}

type pinLED struct {
	pin machine.Pin
	on  bool
}

func (l *pinLED) High() { l.on = true; l.pin.High() }
func (l *pinLED) Low()  { l.on = false; l.pin.Low() }

func (l *pinLED) Toggle() {
	if l.on {
		l.Low()
		return
	}
	l.High()
}

// machineADC scans its sequence one channel at a time with ADC1.
type machineADC struct {
	bits uint8
	seq  []machine.ADC
}

func newMachineADC(bits uint8) *machineADC {
	machine.InitADC()
	return &machineADC{bits: bits}
}

func (a *machineADC) Configure(seq []AnalogChannel) error {
	if len(seq) == 0 {
		return ErrNotConfigured
	}
	if err := checkSampleTimes(seq); err != nil {
		return err
	}
	a.seq = a.seq[:0]
	for _, ch := range seq {
		pin, ok := BoardPins[ch.Name]
		if !ok {
			return fmt.Errorf("adc: unknown input %q", ch.Name)
		}
		// ADCConfig.Samples is an averaging count, so the sample time goes
		// straight into SMPRx after Configure.
		adc := machine.ADC{Pin: pin}
		adc.Configure(machine.ADCConfig{Resolution: uint32(a.bits)})
		code, _ := SampleTimeCode(ch.SampleCycles)
		setSampleTime(ch.Pin, code)
		a.seq = append(a.seq, adc)
	}
	return nil
}

func setSampleTime(channel uint8, code uint32) {
	if channel < 10 {
		stm32.ADC1.SMPR2.ReplaceBits(code, 0x7, channel*3)
		return
	}
	stm32.ADC1.SMPR1.ReplaceBits(code, 0x7, (channel-10)*3)
}

func (a *machineADC) Resolution() uint8 { return a.bits }

// Convert reads every channel; machine.ADC.Get scales to 16 bits.
func (a *machineADC) Convert(dst []uint16) error {
	if len(a.seq) == 0 {
		return ErrNotConfigured
	}
	if len(dst) != len(a.seq) {
		return fmt.Errorf("adc: destination holds %d samples, sequence has %d", len(dst), len(a.seq))
	}
	shift := 16 - a.bits
	for i := range a.seq {
		dst[i] = a.seq[i].Get() >> shift
	}
	return nil
}

// pinButton is B1; it reads high while pressed.
type pinButton struct {
	pin machine.Pin
}

func (b *pinButton) Pressed() bool { return b.pin.Get() }

func (b *pinButton) OnEdge(fn func()) {
	_ = b.pin.SetInterrupt(machine.PinToggle, func(machine.Pin) { fn() })
}
