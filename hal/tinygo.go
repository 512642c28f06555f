//go:build tinygo && baremetal

package hal

import (
	"io"
	"machine"
)

type boardHAL struct {
	serial *uartSerial
	led    *pinLED
	ind    *pinLED
	btn    *pinButton
	adc    *machineADC
	dma    TransferEngine
	timers [timerCount]PeriodicTimer
}

// New returns the STM32F4DISCOVERY HAL implementation.
//
// UART: the board default UART (USART2, PA2 TX / PA3 RX), 115200 8N1.
// ADC1 inputs on PA1 and PA4, orange LED on PD13, blue LED on PD15,
// user button B1 on PA0 (EXTI0).
func New() HAL {
	uart := machine.DefaultUART
	uart.Configure(machine.UARTConfig{
		BaudRate: 115200,
		TX:       machine.UART_TX_PIN,
		RX:       machine.UART_RX_PIN,
	})

	ledPin := machine.LED_ORANGE
	ledPin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	indPin := machine.LED_BLUE
	indPin.Configure(machine.PinConfig{Mode: machine.PinOutput})

	btnPin := machine.PA0
	btnPin.Configure(machine.PinConfig{Mode: machine.PinInput})

	adc := newMachineADC(10)
	h := &boardHAL{
		serial: &uartSerial{uart: uart},
		led:    &pinLED{pin: ledPin},
		ind:    &pinLED{pin: indPin},
		btn:    &pinButton{pin: btnPin},
		adc:    adc,
		dma:    NewSoftDMA(adc, 0),
	}
	for id := TimerID(0); id < timerCount; id++ {
		h.timers[id] = NewTimer(id.String())
	}
	return h
}

// BoardPins maps channel names used in configuration to ADC inputs.
var BoardPins = map[string]machine.Pin{
	"PA1": machine.PA1,
	"PA4": machine.PA4,
}

func (h *boardHAL) Console() io.Writer   { return h.serial }
func (h *boardHAL) LED() LED             { return h.led }
func (h *boardHAL) Indicator() LED       { return h.ind }
func (h *boardHAL) Button() Button       { return h.btn }
func (h *boardHAL) Display() Display     { return boardDisplay{} }
func (h *boardHAL) Serial() Serial       { return h.serial }
func (h *boardHAL) Analog() AnalogSource { return h.adc }
func (h *boardHAL) DMA() TransferEngine  { return h.dma }

func (h *boardHAL) Timer(id TimerID) PeriodicTimer {
	if id >= timerCount {
		return nil
	}
	return h.timers[id]
}

// boardDisplay reports no framebuffer; the discovery board has no panel.
type boardDisplay struct{}

func (boardDisplay) Framebuffer() Framebuffer { return nil }
