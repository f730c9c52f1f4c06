package rnn

// A ProcessorPool amortizes processor construction across usage cycles, e.g.
// one processor per node of a tree. Items keep a stable integer id equal to
// their slot in the pool, so consumers can index by it.
type ProcessorPool struct {
	net   *Network
	items []*Processor
	free  []int
}

func NewProcessorPool(net *Network) *ProcessorPool {
	return &ProcessorPool{net: net}
}

// Size reports how many processors the pool has ever constructed.
func (pp *ProcessorPool) Size() int {
	return len(pp.items)
}

// GetItem returns a free processor, constructing one lazily if none is
// available. Reused items come back with an empty sequence and accumulator.
func (pp *ProcessorPool) GetItem() *Processor {
	if n := len(pp.free); n > 0 {
		id := pp.free[n-1]
		pp.free = pp.free[:n-1]
		return pp.items[id]
	}
	p := NewProcessor(pp.net)
	p.id = len(pp.items)
	pp.items = append(pp.items, p)
	return p
}

// ReleaseAll returns every constructed processor to the free list, resetting
// each one's internal state first.
func (pp *ProcessorPool) ReleaseAll() {
	pp.free = pp.free[:0]
	for id := len(pp.items) - 1; id >= 0; id-- {
		pp.items[id].reset()
		pp.free = append(pp.free, id)
	}
}
