package config

// Config is the firmware configuration file. Durations are strings parsed
// with time.ParseDuration.
type Config struct {
	Logging    LoggingConfig  `json:"logging"`
	Sampling   SamplingConfig `json:"sampling"`
	Adaptive   AdaptiveConfig `json:"adaptive"`
	Status     StatusConfig   `json:"status"`
	Button     ButtonConfig   `json:"button"`
	Sink       SinkConfig     `json:"sink"`
	Priorities PriorityConfig `json:"priorities"`
	Host       HostConfig     `json:"host"`
	Stats      StatsConfig    `json:"stats"`
}

type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"` // console|json
}

type ChannelConfig struct {
	Name         string `json:"name"`
	Pin          uint8  `json:"pin"`
	SampleCycles uint16 `json:"sample_cycles"`
}

type SamplingConfig struct {
	Interval   string          `json:"interval"`
	Resolution uint8           `json:"resolution"`
	Channels   []ChannelConfig `json:"channels"`
}

type AdaptiveConfig struct {
	Intervals []string `json:"intervals"`
	Threshold string   `json:"threshold"`
}

type StatusConfig struct {
	Interval string `json:"interval"`
	Title    string `json:"title"`
}

// ButtonConfig drives the user button task: a debounced press counter that
// stops answering after Limit presses (0 = never).
type ButtonConfig struct {
	Enabled  bool   `json:"enabled"`
	Debounce string `json:"debounce"`
	Limit    int    `json:"limit"`
}

type SinkConfig struct {
	LineEnding string `json:"line_ending"`
	// Baud paces the serial queue at Baud/10 bytes per second; 0 disables
	// pacing.
	Baud     int    `json:"baud"`
	QueueLen int    `json:"queue_len"`
	// Capture is a sqlite file that also records every line (host only).
	// The -capture flag overrides it.
	Capture string `json:"capture"`
}

type PriorityConfig struct {
	Status   uint8 `json:"status"`
	ADCStart uint8 `json:"adc_start"`
	Ticker   uint8 `json:"ticker"`
	Drain    uint8 `json:"drain"`
	Button   uint8 `json:"button"`
}

type SignalConfig struct {
	Wave      string   `json:"wave"` // ramp|sine
	Base      []uint16 `json:"base"`
	Step      uint16   `json:"step"`
	Amplitude uint16   `json:"amplitude"`
	Period    uint32   `json:"period"`
}

type HostConfig struct {
	Signal     SignalConfig `json:"signal"`
	DMALatency string       `json:"dma_latency"`
	Width      int          `json:"width"`
	Height     int          `json:"height"`
}

type StatsConfig struct {
	// Schedule is a cron spec for the host stats report; empty disables it.
	Schedule string `json:"schedule"`
}
