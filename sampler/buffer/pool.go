package buffer

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidLength = errors.New("buffer: slot length must be positive")
	ErrSlotOnLoan    = errors.New("buffer: previous slot still on loan")
	ErrNotOnLoan     = errors.New("buffer: slot is not on loan")
	ErrForeignSlot   = errors.New("buffer: slot belongs to another pool")
)

type Pool struct {
	slots  [2]Slot
	owners [2]Owner
	active SlotID
	swaps  uint64
}

// NewPool returns a pool whose slot 0 is the engine's first destination.
func NewPool(slotLen int) (*Pool, error) {
	if slotLen <= 0 {
		return nil, ErrInvalidLength
	}
	p := &Pool{}
	for i := range p.slots {
		p.slots[i] = Slot{id: SlotID(i), pool: p, data: make([]uint16, slotLen)}
	}
	p.owners[0] = OwnerEngine
	p.owners[1] = OwnerPool
	return p, nil
}

// Active returns the slot the engine is filling.
func (p *Pool) Active() *Slot { return &p.slots[p.active] }

func (p *Pool) SlotLen() int { return len(p.slots[0].data) }

// Spare returns the slot the next Swap gives the engine. It fails while
// that slot is still on loan.
func (p *Pool) Spare() (*Slot, error) {
	spare := 1 - p.active
	if p.owners[spare] != OwnerPool {
		return nil, ErrSlotOnLoan
	}
	return &p.slots[spare], nil
}

// Swap hands the filled active slot to the consumer and gives the engine
// the spare one. It fails while the previous loan is outstanding.
func (p *Pool) Swap() (*Slot, error) {
	spare := 1 - p.active
	if p.owners[spare] != OwnerPool {
		return nil, ErrSlotOnLoan
	}
	filled := p.active
	p.owners[filled] = OwnerConsumer
	p.owners[spare] = OwnerEngine
	p.active = spare
	p.swaps++
	return &p.slots[filled], nil
}

// Release returns a loaned slot to the pool.
func (p *Pool) Release(s *Slot) error {
	if s == nil || s.pool != p {
		return ErrForeignSlot
	}
	if p.owners[s.id] != OwnerConsumer {
		return fmt.Errorf("%w: slot %d held by %s", ErrNotOnLoan, s.id, p.owners[s.id])
	}
	p.owners[s.id] = OwnerPool
	return nil
}

func (p *Pool) Owner(id SlotID) Owner {
	if int(id) >= len(p.owners) {
		return OwnerPool
	}
	return p.owners[id]
}

// Loaned reports whether the consumer currently holds a slot.
func (p *Pool) Loaned() bool {
	return p.owners[0] == OwnerConsumer || p.owners[1] == OwnerConsumer
}

func (p *Pool) Swaps() uint64 { return p.swaps }

// CheckInvariant verifies that exactly one slot is engine-owned and that it
// is the active one.
func (p *Pool) CheckInvariant() error {
	engine := 0
	for i, o := range p.owners {
		if o == OwnerEngine {
			engine++
			if SlotID(i) != p.active {
				return fmt.Errorf("buffer: engine owns slot %d, active is %d", i, p.active)
			}
		}
	}
	if engine != 1 {
		return fmt.Errorf("buffer: %d engine-owned slots", engine)
	}
	return nil
}
