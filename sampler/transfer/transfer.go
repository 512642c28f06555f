// Package transfer drives the conversion engine through the double-buffer
// pool: the sampling side starts transfers, the completion side collects the
// filled slot and re-arms the engine with the other one.
package transfer

import (
	"errors"
	"fmt"

	"rtsampler/hal"
	"rtsampler/sampler/buffer"
)

var (
	ErrTransferOverrun   = errors.New("transfer: previous transfer not yet consumed")
	ErrNotComplete       = errors.New("transfer: no completed transfer")
	ErrInvalidTransition = errors.New("transfer: invalid transition")
)

// Observer sees every state change.
type Observer func(from, to State)

type Stats struct {
	Started      uint64
	Completed    uint64
	Overruns     uint64
	Spurious     uint64
	EngineErrors uint64
}

// Transfer is not synchronized; it lives in a kernel.Shared cell.
type Transfer struct {
	engine  hal.TransferEngine
	pool    *buffer.Pool
	state   State
	stats   Stats
	observe Observer
	last    []uint16
}

// New returns an idle transfer whose first destination is the pool's slot 0.
func New(engine hal.TransferEngine, pool *buffer.Pool) (*Transfer, error) {
	if engine == nil || pool == nil {
		return nil, errors.New("transfer: engine and pool are required")
	}
	return &Transfer{
		engine: engine,
		pool:   pool,
		last:   make([]uint16, pool.SlotLen()),
	}, nil
}

func (t *Transfer) SetObserver(fn Observer) { t.observe = fn }

func (t *Transfer) State() State       { return t.state }
func (t *Transfer) Stats() Stats       { return t.stats }
func (t *Transfer) Pool() *buffer.Pool { return t.pool }

// Last returns the samples of the most recently collected transfer.
func (t *Transfer) Last() []uint16 { return t.last }

func (t *Transfer) transition(to State) error {
	from := t.state
	if !isAllowedTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	t.state = to
	if t.observe != nil {
		t.observe(from, to)
	}
	return nil
}

// StartNext triggers a conversion into the active slot. A transfer that is
// still in flight or not yet collected is left alone and the call fails with
// ErrTransferOverrun. An engine that went idle without completing (a failed
// conversion) is re-triggered into the same slot.
func (t *Transfer) StartNext() error {
	switch t.state {
	case StateComplete:
		t.stats.Overruns++
		return ErrTransferOverrun
	case StateInFlight:
		if t.engine.Complete() {
			t.stats.Overruns++
			return ErrTransferOverrun
		}
		err := t.engine.Arm(t.pool.Active().Samples())
		if errors.Is(err, hal.ErrEngineBusy) {
			t.stats.Overruns++
			return ErrTransferOverrun
		}
		t.stats.EngineErrors++
		if err != nil {
			return fmt.Errorf("transfer: re-arm stalled: %w", err)
		}
		if err := t.engine.Trigger(); err != nil {
			return fmt.Errorf("transfer: trigger: %w", err)
		}
		t.stats.Started++
		return nil
	case StateIdle:
		if err := t.engine.Arm(t.pool.Active().Samples()); err != nil {
			t.stats.EngineErrors++
			return fmt.Errorf("transfer: arm: %w", err)
		}
		if err := t.transition(StateArmed); err != nil {
			return err
		}
	}

	// Completion can only be taken after the caller releases its lock, so
	// the state may follow the trigger.
	if err := t.engine.Trigger(); err != nil {
		t.stats.EngineErrors++
		return fmt.Errorf("transfer: trigger: %w", err)
	}
	if err := t.transition(StateInFlight); err != nil {
		return err
	}
	t.stats.Started++
	return nil
}

// NextTransfer collects the filled slot, swaps the pool and re-arms the
// engine with the fresh slot. The returned slot is on loan until Release.
func (t *Transfer) NextTransfer() (*buffer.Slot, error) {
	switch t.state {
	case StateInFlight:
		if !t.engine.Complete() {
			t.stats.Spurious++
			return nil, ErrNotComplete
		}
		if err := t.transition(StateComplete); err != nil {
			return nil, err
		}
		t.stats.Completed++
	case StateComplete:
		// A previous swap or re-arm failed; retry it.
	default:
		t.stats.Spurious++
		return nil, fmt.Errorf("%w: state %s", ErrNotComplete, t.state)
	}

	// The engine is pointed at the spare slot before the swap, so a failed
	// re-arm leaves the filled slot active for the retry.
	spare, err := t.pool.Spare()
	if err != nil {
		return nil, err
	}
	if err := t.engine.Arm(spare.Samples()); err != nil {
		t.stats.EngineErrors++
		return nil, fmt.Errorf("transfer: re-arm: %w", err)
	}
	filled, err := t.pool.Swap()
	if err != nil {
		return nil, err
	}
	if err := t.transition(StateArmed); err != nil {
		return nil, err
	}
	copy(t.last, filled.Samples())
	return filled, nil
}

// Release returns a slot obtained from NextTransfer.
func (t *Transfer) Release(s *buffer.Slot) error {
	return t.pool.Release(s)
}
