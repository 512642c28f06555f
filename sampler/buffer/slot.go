package buffer

// SlotID names one of the two slots.
type SlotID uint8

// Owner is the party currently holding a slot.
type Owner uint8

const (
	OwnerPool Owner = iota
	OwnerEngine
	OwnerConsumer
)

func (o Owner) String() string {
	switch o {
	case OwnerPool:
		return "pool"
	case OwnerEngine:
		return "engine"
	case OwnerConsumer:
		return "consumer"
	default:
		return "unknown"
	}
}

// Slot is a fixed-size sample buffer, one sample per channel.
type Slot struct {
	id   SlotID
	pool *Pool
	data []uint16
}

func (s *Slot) ID() SlotID { return s.id }

// Samples returns the slot storage. It must not be retained after the slot
// is released.
func (s *Slot) Samples() []uint16 { return s.data }

func (s *Slot) Len() int { return len(s.data) }
