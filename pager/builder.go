package pager

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/sarchlab/akita/v3/tracing"
)

// ErrInvalidConfig is returned by Build when a parameter is out of range.
var ErrInvalidConfig = errors.New("invalid pager configuration")

// Default sizing of the simulated machine.
const (
	DefaultPageSize     = 1024
	DefaultNumPages     = 32
	DefaultNumFrames    = 256
	DefaultNumSlots     = 18
	DefaultOpQuantum    = 100
	DefaultDirtyPenalty = 14_000_000
)

// A Builder can build a Resolver.
type Builder struct {
	pageSize     uint64
	numPages     int
	numFrames    int
	numSlots     int
	slotFunc     SlotFunc
	opQuantum    int64
	dirtyPenalty int64
	victimFinder VictimFinder
	tracer       tracing.Tracer
	logger       *slog.Logger
}

// MakeBuilder returns a Builder with the default sizing.
func MakeBuilder() Builder {
	return Builder{
		pageSize:     DefaultPageSize,
		numPages:     DefaultNumPages,
		numFrames:    DefaultNumFrames,
		numSlots:     DefaultNumSlots,
		slotFunc:     ModuloSlot,
		opQuantum:    DefaultOpQuantum,
		dirtyPenalty: DefaultDirtyPenalty,
	}
}

// WithPageSize sets the number of bytes in a page.
func (b Builder) WithPageSize(n uint64) Builder {
	b.pageSize = n
	return b
}

// WithNumPages sets the number of pages in every process address space.
func (b Builder) WithNumPages(n int) Builder {
	b.numPages = n
	return b
}

// WithNumFrames sets the number of physical frames.
func (b Builder) WithNumFrames(n int) Builder {
	b.numFrames = n
	return b
}

// WithNumSlots sets the number of page tables. Process IDs are folded onto
// the slots by the slot function.
func (b Builder) WithNumSlots(n int) Builder {
	b.numSlots = n
	return b
}

// WithSlotFunc replaces the PID-to-slot mapping.
func (b Builder) WithSlotFunc(f SlotFunc) Builder {
	b.slotFunc = f
	return b
}

// WithOpQuantum sets the nanoseconds charged to every resolved request.
func (b Builder) WithOpQuantum(ns int64) Builder {
	b.opQuantum = ns
	return b
}

// WithDirtyPenalty sets the nanoseconds charged for writing back a dirty
// victim.
func (b Builder) WithDirtyPenalty(ns int64) Builder {
	b.dirtyPenalty = ns
	return b
}

// WithVictimFinder replaces the LRU victim finder.
func (b Builder) WithVictimFinder(f VictimFinder) Builder {
	b.victimFinder = f
	return b
}

// WithTracer attaches a tracer that receives one task per request.
func (b Builder) WithTracer(t tracing.Tracer) Builder {
	b.tracer = t
	return b
}

// WithLogger sets the logger. slog.Default() is used otherwise.
func (b Builder) WithLogger(l *slog.Logger) Builder {
	b.logger = l
	return b
}

func (b Builder) validate() error {
	if b.pageSize == 0 {
		return fmt.Errorf("%w: page size must be > 0", ErrInvalidConfig)
	}
	if b.numPages <= 0 {
		return fmt.Errorf("%w: number of pages must be > 0", ErrInvalidConfig)
	}
	if b.pageSize > math.MaxUint64/uint64(b.numPages) {
		return fmt.Errorf("%w: %d pages of %d bytes overflow the address space",
			ErrInvalidConfig, b.numPages, b.pageSize)
	}
	if b.numFrames <= 0 {
		return fmt.Errorf("%w: number of frames must be > 0", ErrInvalidConfig)
	}
	if b.numSlots <= 0 {
		return fmt.Errorf("%w: number of slots must be > 0", ErrInvalidConfig)
	}
	if b.opQuantum < 0 || b.dirtyPenalty < 0 {
		return fmt.Errorf("%w: latencies must be >= 0", ErrInvalidConfig)
	}
	return nil
}

// Build returns a newly created Resolver with every frame free and every page
// unmapped.
func (b Builder) Build(name string) (*Resolver, error) {
	if err := b.validate(); err != nil {
		return nil, err
	}

	r := &Resolver{
		name:         name,
		pageSize:     b.pageSize,
		numPages:     b.numPages,
		opQuantum:    b.opQuantum,
		dirtyPenalty: b.dirtyPenalty,
		frames:       NewFrameTable(b.numFrames),
		pageTables:   NewPageTableSet(b.numSlots, b.numPages, b.slotFunc),
		victimFinder: b.victimFinder,
		tracer:       b.tracer,
		logger:       b.logger,
	}

	if r.victimFinder == nil {
		r.victimFinder = NewLRUVictimFinder()
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	r.logger = r.logger.With("component", name)

	return r, nil
}
