package config

// Default returns the configuration the board boots with when no file is
// given.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info", Format: "console"},
		Sampling: SamplingConfig{
			Interval:   "1ms",
			Resolution: 10,
			Channels: []ChannelConfig{
				{Name: "PA1", Pin: 1, SampleCycles: 480},
				{Name: "PA4", Pin: 4, SampleCycles: 480},
			},
		},
		Adaptive: AdaptiveConfig{
			Intervals: []string{"50ms", "500ms"},
			Threshold: "5000ms",
		},
		Status: StatusConfig{Interval: "250ms", Title: "rtsampler"},
		Button: ButtonConfig{Enabled: true, Debounce: "20ms", Limit: 5},
		Sink: SinkConfig{
			LineEnding: "\r\n",
			Baud:       115200,
			QueueLen:   256,
		},
		Priorities: PriorityConfig{Status: 1, ADCStart: 2, Ticker: 2, Drain: 3, Button: 1},
		Host: HostConfig{
			Signal:     SignalConfig{Wave: "ramp", Base: []uint16{100, 200}, Step: 1, Amplitude: 400, Period: 64},
			DMALatency: "0s",
			Width:      240,
			Height:     96,
		},
		Stats: StatsConfig{Schedule: "@every 10s"},
	}
}
