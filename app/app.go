// Package app assembles the sampling firmware: it partitions the shared
// state, registers the tasks with their vectors and connects peripheral
// interrupts to the dispatcher.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"rtsampler/hal"
	"rtsampler/internal/buildinfo"
	"rtsampler/internal/config"
	"rtsampler/internal/logx"
	"rtsampler/kernel"
	"rtsampler/sampler/buffer"
	"rtsampler/sampler/display"
	"rtsampler/sampler/sink"
	"rtsampler/sampler/tasks/adcstart"
	"rtsampler/sampler/tasks/button"
	"rtsampler/sampler/tasks/drain"
	"rtsampler/sampler/tasks/status"
	"rtsampler/sampler/tasks/ticker"
	"rtsampler/sampler/transfer"
)

// Interrupt vectors, named after the STM32F4 sources they stand for.
const (
	VecSample   kernel.Vector = 28 // TIM2
	VecAdaptive kernel.Vector = 29 // TIM3
	VecTransfer kernel.Vector = 56 // DMA2_STREAM0
	VecStatus   kernel.Vector = 50 // TIM5
	VecButton   kernel.Vector = 6  // EXTI0
)

type Options struct {
	Config *config.Config
	Log    logx.Logger

	// Sink replaces the serial line sink; lines reach it from task context.
	Sink sink.Sink
	// Extra sinks each get their own unpaced queue.
	Extra []sink.Sink
	// OnPanic runs after the fatal screen is drawn.
	OnPanic func(kernel.PanicInfo)
}

// System is the assembled firmware.
type System struct {
	h   hal.HAL
	cfg *config.Config
	res config.Resolved
	log logx.Logger

	d          *kernel.Dispatcher
	xfer       *kernel.Shared[*transfer.Transfer]
	timerState *kernel.Shared[ticker.State]
	sched      ticker.Schedule

	adc    *adcstart.Task
	drain  *drain.Task
	tick   *ticker.Task
	status *status.Task
	button *button.Task

	serial *sink.Queued
	queues []*sink.Queued

	fatalOnce sync.Once
	onPanic   func(kernel.PanicInfo)
}

// New configures the peripherals and registers every task. Nothing runs
// until Run.
func New(h hal.HAL, opts Options) (*System, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	res, err := cfg.Resolve()
	if err != nil {
		return nil, fmt.Errorf("app: config: %w", err)
	}

	s := &System{
		h:       h,
		cfg:     cfg,
		res:     res,
		log:     opts.Log,
		onPanic: opts.OnPanic,
		sched:   ticker.Schedule{Intervals: res.Intervals, Threshold: res.Threshold},
	}
	s.bootStep("dispatcher")
	s.d = kernel.New(
		kernel.WithLogger(s.log.With(logx.String("component", "kernel"))),
		kernel.WithPanicHandler(s.fatal),
	)

	s.bootStep("adc")
	seq := make([]hal.AnalogChannel, len(cfg.Sampling.Channels))
	for i, ch := range cfg.Sampling.Channels {
		seq[i] = hal.AnalogChannel{Name: ch.Name, Pin: ch.Pin, SampleCycles: ch.SampleCycles}
	}
	if err := h.Analog().Configure(seq); err != nil {
		return nil, fmt.Errorf("app: adc: %w", err)
	}
	s.log.Debug("adc configured",
		logx.Int("channels", len(seq)),
		logx.Uint("resolution", uint(h.Analog().Resolution())),
	)

	s.bootStep("transfer")
	pool, err := buffer.NewPool(len(seq))
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	tr, err := transfer.New(h.DMA(), pool)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	tlog := s.log.With(logx.String("component", "transfer"))
	tr.SetObserver(func(from, to transfer.State) {
		tlog.Trace("transition", logx.Stringer("from", from), logx.Stringer("to", to))
	})
	s.xfer = kernel.NewShared("transfer", tr)
	s.timerState = kernel.NewShared("timer state", ticker.State{})

	s.bootStep("sinks")
	out := s.buildSinks(opts)

	s.bootStep("tasks")
	if err := s.buildTasks(out); err != nil {
		return nil, err
	}
	if err := s.register(); err != nil {
		return nil, err
	}
	s.wireInterrupts()
	s.bootStep("ready")
	return s, nil
}

func (s *System) buildSinks(opts Options) sink.Sink {
	primary := opts.Sink
	if primary == nil {
		lw := sink.NewLineWriter(s.h.Serial(), s.cfg.Sink.LineEnding)
		s.serial = sink.NewQueued("serial", lw, max(s.cfg.Sink.QueueLen, 1), s.log)
		s.serial.SetByteRate(s.res.SinkBytesPerSec, 4096)
		s.queues = append(s.queues, s.serial)
		primary = s.serial
	}
	if len(opts.Extra) == 0 {
		return primary
	}
	fan := sink.Fanout{primary}
	for i, x := range opts.Extra {
		q := sink.NewQueued(fmt.Sprintf("extra%d", i), x, max(s.cfg.Sink.QueueLen, 1), s.log)
		s.queues = append(s.queues, q)
		fan = append(fan, q)
	}
	return fan
}

func (s *System) buildTasks(out sink.Sink) error {
	var err error
	if s.adc, err = adcstart.New(adcstart.Config{
		LED:      s.h.LED(),
		Timer:    s.h.Timer(hal.TimerSample),
		Transfer: s.xfer,
	}); err != nil {
		return err
	}
	if s.drain, err = drain.New(drain.Config{Transfer: s.xfer, Sink: out}); err != nil {
		return err
	}
	if s.tick, err = ticker.New(ticker.Config{
		Schedule:  s.sched,
		Timer:     s.h.Timer(hal.TimerAdaptive),
		Indicator: s.h.Indicator(),
		State:     s.timerState,
	}); err != nil {
		return err
	}

	if s.cfg.Button.Enabled {
		if s.button, err = button.New(button.Config{
			Button:   s.h.Button(),
			Sink:     out,
			Debounce: s.res.ButtonDebounce,
			Limit:    s.cfg.Button.Limit,
		}); err != nil {
			return err
		}
	}

	var fb hal.Framebuffer
	if disp := s.h.Display(); disp != nil {
		fb = disp.Framebuffer()
	}
	s.status, err = status.New(status.Config{
		Title:      s.cfg.Status.Title + " " + buildinfo.Short(),
		Timer:      s.h.Timer(hal.TimerStatus),
		Schedule:   s.sched,
		TimerState: s.timerState,
		Transfer:   s.xfer,
		Display:    display.New(fb),
		Collect:    s.collect,
	})
	return err
}

func (s *System) collect(snap *status.Snapshot) {
	snap.Line = s.drain.LastLine()
	snap.Lines = s.drain.Lines()
	snap.SinkErrors = s.drain.SinkErrors()
	snap.Overruns = s.adc.Overruns()
	snap.Resolution = s.h.Analog().Resolution()
	if s.button != nil {
		snap.Presses = s.button.Presses()
	}
	for _, q := range s.queues {
		st := q.Stats()
		snap.Dropped += st.Dropped
		snap.SinkErrors += st.Errors
	}
}

func (s *System) register() error {
	p := s.cfg.Priorities
	specs := []kernel.TaskSpec{
		{Name: "adc_start", Priority: kernel.Priority(p.ADCStart), Binds: VecSample, Shares: []kernel.Resource{s.xfer}, Task: s.adc},
		{Name: "drain", Priority: kernel.Priority(p.Drain), Binds: VecTransfer, Shares: []kernel.Resource{s.xfer}, Task: s.drain},
		{Name: "ticker", Priority: kernel.Priority(p.Ticker), Binds: VecAdaptive, Shares: []kernel.Resource{s.timerState}, Task: s.tick},
		{Name: "status", Priority: kernel.Priority(p.Status), Binds: VecStatus, Shares: []kernel.Resource{s.timerState, s.xfer}, Task: s.status},
	}
	if s.button != nil {
		specs = append(specs, kernel.TaskSpec{Name: "button", Priority: kernel.Priority(p.Button), Binds: VecButton, Task: s.button})
	}
	for _, spec := range specs {
		if _, err := s.d.Register(spec); err != nil {
			return fmt.Errorf("app: %w", err)
		}
	}
	s.log.Debug("resources partitioned",
		logx.Uint("transfer_ceiling", uint(s.xfer.Ceiling())),
		logx.Uint("timer_state_ceiling", uint(s.timerState.Ceiling())),
	)
	return nil
}

// wireInterrupts makes every peripheral interrupt pend its task's vector.
func (s *System) wireInterrupts() {
	pend := func(v kernel.Vector) func() {
		return func() { s.d.Pend(v) }
	}
	s.h.Timer(hal.TimerSample).OnExpire(pend(VecSample))
	s.h.Timer(hal.TimerAdaptive).OnExpire(pend(VecAdaptive))
	s.h.Timer(hal.TimerStatus).OnExpire(pend(VecStatus))
	s.h.DMA().OnComplete(pend(VecTransfer))
	if s.button != nil {
		s.h.Button().OnEdge(pend(VecButton))
	}
}

// Start arms the timers. Interrupts raised before the dispatcher runs stay
// pending.
func (s *System) Start() error {
	if err := s.h.Timer(hal.TimerSample).Start(s.res.SampleInterval); err != nil {
		return fmt.Errorf("app: sample timer: %w", err)
	}
	if err := s.tick.Start(ticker.State{}); err != nil {
		return fmt.Errorf("app: adaptive timer: %w", err)
	}
	if err := s.h.Timer(hal.TimerStatus).Start(s.res.StatusInterval); err != nil {
		return fmt.Errorf("app: status timer: %w", err)
	}
	s.log.Info("sampling started",
		logx.Duration("sample_interval", s.res.SampleInterval),
		logx.Int("channels", len(s.cfg.Sampling.Channels)),
		logx.String("build", buildinfo.Short()),
	)
	return nil
}

func (s *System) stop() {
	for _, id := range []hal.TimerID{hal.TimerSample, hal.TimerAdaptive, hal.TimerStatus} {
		s.h.Timer(id).Stop()
	}
}

// Run starts the timers and acts as the core until ctx is done or a task
// fails. Sink queues are drained on their own goroutines.
func (s *System) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	for _, q := range s.queues {
		wg.Add(1)
		go func(q *sink.Queued) {
			defer wg.Done()
			if err := q.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				s.log.Warn("sink queue stopped", logx.Err(err))
			}
		}(q)
	}

	err := s.Start()
	if err == nil {
		err = s.d.Run(ctx)
	}
	s.stop()
	cancel()
	wg.Wait()
	return err
}

// ApplyConfig applies the fields that may change at runtime.
func (s *System) ApplyConfig(cfg *config.Config) error {
	res, err := cfg.Resolve()
	if err != nil {
		return err
	}
	if s.serial != nil {
		s.serial.SetByteRate(res.SinkBytesPerSec, 4096)
	}
	s.log.Info("sink rate applied", logx.Int("bytes_per_sec", res.SinkBytesPerSec))
	return nil
}

func (s *System) Dispatcher() *kernel.Dispatcher { return s.d }

// Snapshot returns the last status snapshot, or nil before the first one.
func (s *System) Snapshot() *status.Snapshot { return s.status.Latest() }

// QueueStats returns the stats of every sink queue, serial first.
func (s *System) QueueStats() []sink.QueueStats {
	out := make([]sink.QueueStats, len(s.queues))
	for i, q := range s.queues {
		out[i] = q.Stats()
	}
	return out
}
