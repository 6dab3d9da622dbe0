package coherence

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/mesisim/cache"
)

// ErrUnsupportedOp is returned by Apply for operations that are not cache
// accesses or external coherence events, such as reset and print.
var ErrUnsupportedOp = errors.New("operation not handled by the controller")

// HookPosAccess triggers after every applied operation. The hook item is the
// Outcome.
var HookPosAccess = &sim.HookPos{Name: "Access"}

// HookPosEvict triggers when a fill discards an occupied line. The hook item
// is the Outcome and the detail is the replaced cache.Line.
var HookPosEvict = &sim.HookPos{Name: "Evict"}

// HookPosReset triggers after the caches and statistics are cleared.
var HookPosReset = &sim.HookPos{Name: "Reset"}

// Outcome describes the effect of one applied operation.
type Outcome struct {
	Op      Op
	Address uint32
	Tag     uint32
	// Target is the cache that was probed.
	Target cache.Kind
	// Hit is true if an occupied line with the tag was found.
	Hit bool
	// Slot is the line that was hit or filled, -1 if none.
	Slot      int
	PrevState cache.State
	State     cache.State
	// Victim is only meaningful on a miss.
	Victim         cache.VictimReason
	Evicted        bool
	EvictedTag     uint32
	EvictedAddress uint32
	EvictedState   cache.State
}

// Snapshot is a copy of both caches and the statistics.
type Snapshot struct {
	Instruction []cache.Line
	Data        []cache.Line
	Stats       Statistics
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithAddressLayout sets how addresses are split into tag, set and offset.
func WithAddressLayout(layout cache.AddressLayout) ControllerOption {
	return func(c *Controller) {
		c.layout = layout
	}
}

// WithInstructionCache sets the instruction cache configuration.
func WithInstructionCache(config cache.Config) ControllerOption {
	return func(c *Controller) {
		config.Kind = cache.Instruction
		c.instructionConfig = config
	}
}

// WithDataCache sets the data cache configuration.
func WithDataCache(config cache.Config) ControllerOption {
	return func(c *Controller) {
		config.Kind = cache.Data
		c.dataConfig = config
	}
}

// WithVictimFinder sets the replacement policy shared by both caches.
func WithVictimFinder(finder cache.VictimFinder) ControllerOption {
	return func(c *Controller) {
		c.victimFinder = finder
	}
}

// Controller owns the instruction cache, the data cache and the statistics,
// and applies trace operations to them one at a time.
type Controller struct {
	*sim.HookableBase

	// hookMu keeps each mutation and its hook calls together, so hooks see
	// events in apply order. Hooks may read the controller but must not call
	// Apply or Reset.
	hookMu sync.Mutex
	mu     sync.Mutex

	layout            cache.AddressLayout
	instructionConfig cache.Config
	dataConfig        cache.Config
	victimFinder      cache.VictimFinder

	instruction *cache.Cache
	data        *cache.Cache
	stats       Statistics
}

// NewController creates a controller with empty caches.
func NewController(opts ...ControllerOption) *Controller {
	c := &Controller{
		HookableBase:      sim.NewHookableBase(),
		layout:            cache.DefaultAddressLayout(),
		instructionConfig: cache.DefaultL1IConfig(),
		dataConfig:        cache.DefaultL1DConfig(),
		victimFinder:      cache.NewLRUVictimFinder(),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.instruction = cache.New(c.instructionConfig, c.victimFinder)
	c.data = cache.New(c.dataConfig, c.victimFinder)

	return c
}

// Layout returns the address layout in use.
func (c *Controller) Layout() cache.AddressLayout {
	return c.layout
}

// Apply performs one read, write, fetch, snoop or invalidate.
func (c *Controller) Apply(op Op, addr uint32) (Outcome, error) {
	c.hookMu.Lock()
	defer c.hookMu.Unlock()

	c.mu.Lock()
	outcome, replaced, err := c.apply(op, addr)
	c.mu.Unlock()

	if err != nil {
		return Outcome{}, err
	}

	if outcome.Evicted {
		c.InvokeHook(sim.HookCtx{
			Domain: c,
			Pos:    HookPosEvict,
			Item:   outcome,
			Detail: replaced,
		})
	}

	c.InvokeHook(sim.HookCtx{
		Domain: c,
		Pos:    HookPosAccess,
		Item:   outcome,
	})

	return outcome, nil
}

func (c *Controller) apply(
	op Op,
	addr uint32,
) (Outcome, cache.Line, error) {
	switch op {
	case OpRead, OpWrite:
		return c.access(c.data, op, addr)
	case OpFetch:
		return c.access(c.instruction, op, addr)
	case OpSnoop, OpInvalidate:
		return c.external(op, addr), cache.Line{}, nil
	default:
		return Outcome{}, cache.Line{}, fmt.Errorf("%w: %s", ErrUnsupportedOp, op)
	}
}

func (c *Controller) access(
	target *cache.Cache,
	op Op,
	addr uint32,
) (Outcome, cache.Line, error) {
	tag := c.layout.Decompose(addr).Tag
	outcome := Outcome{
		Op:      op,
		Address: addr,
		Tag:     tag,
		Target:  target.Kind(),
	}

	if slot, found := target.Lookup(tag); found {
		outcome.Hit = true
		outcome.Slot = slot
		outcome.PrevState = target.Line(slot).State
		outcome.State = NextState(op, outcome.PrevState)

		target.Hit(slot, addr, outcome.State)
		c.stats.Hits++

		return outcome, cache.Line{}, nil
	}

	state := FillState(op)

	victim, replaced, err := target.Fill(tag, addr, state)
	if err != nil {
		return Outcome{}, cache.Line{}, fmt.Errorf("%s 0x%08x: %w", op, addr, err)
	}

	c.stats.Misses++

	outcome.Slot = victim.Slot
	outcome.PrevState = cache.Invalid
	outcome.State = state
	outcome.Victim = victim.Reason

	if victim.Evicts() {
		outcome.Evicted = true
		outcome.EvictedTag = replaced.Tag
		outcome.EvictedAddress = replaced.Address
		outcome.EvictedState = replaced.State
	}

	return outcome, replaced, nil
}

// external handles snoops and invalidates. Only the data cache is probed.
func (c *Controller) external(op Op, addr uint32) Outcome {
	tag := c.layout.Decompose(addr).Tag
	outcome := Outcome{
		Op:      op,
		Address: addr,
		Tag:     tag,
		Target:  cache.Data,
		Slot:    -1,
	}

	slot, found := c.data.Lookup(tag)
	if !found {
		return outcome
	}

	outcome.Hit = true
	outcome.Slot = slot
	outcome.PrevState = c.data.Line(slot).State

	next, changed := SnoopState(outcome.PrevState)
	if changed {
		c.data.Downgrade(slot, next)
	}

	outcome.State = next

	return outcome
}

// Reset empties both caches and clears the statistics.
func (c *Controller) Reset() {
	c.hookMu.Lock()
	defer c.hookMu.Unlock()

	c.mu.Lock()
	c.instruction.Reset()
	c.data.Reset()
	c.stats = Statistics{}
	c.mu.Unlock()

	c.InvokeHook(sim.HookCtx{
		Domain: c,
		Pos:    HookPosReset,
	})
}

// Stats returns a copy of the statistics.
func (c *Controller) Stats() Statistics {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.stats
}

// Snapshot returns copies of both caches and the statistics.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		Instruction: c.instruction.Snapshot(),
		Data:        c.data.Snapshot(),
		Stats:       c.stats,
	}
}

// CheckRanks verifies the LRU rank invariant of both caches.
func (c *Controller) CheckRanks() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.instruction.Set().CheckRanks(); err != nil {
		return fmt.Errorf("%s cache: %w", cache.Instruction, err)
	}

	if err := c.data.Set().CheckRanks(); err != nil {
		return fmt.Errorf("%s cache: %w", cache.Data, err)
	}

	return nil
}
