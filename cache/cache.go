package cache

import (
	"fmt"
)

// Kind identifies which of the split L1 caches a Cache models.
type Kind int

const (
	// Instruction is the L1 instruction cache, probed by fetches.
	Instruction Kind = iota
	// Data is the L1 data cache, probed by reads, writes and snoops.
	Data
)

func (k Kind) String() string {
	switch k {
	case Instruction:
		return "instruction"
	case Data:
		return "data"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Config holds cache configuration parameters.
type Config struct {
	// Kind selects the instruction or data cache.
	Kind Kind
	// Associativity (number of ways in the single set)
	Associativity int
}

// DefaultL1IConfig returns the 4-way instruction cache configuration.
func DefaultL1IConfig() Config {
	return Config{
		Kind:          Instruction,
		Associativity: 4,
	}
}

// DefaultL1DConfig returns the 8-way data cache configuration.
func DefaultL1DConfig() Config {
	return Config{
		Kind:          Data,
		Associativity: 8,
	}
}

// Cache is one single-set L1 cache. Only the tag and coherence metadata of
// each line is modeled; no data is stored.
type Cache struct {
	config       Config
	set          *Set
	victimFinder VictimFinder
}

// New creates an empty cache.
func New(config Config, victimFinder VictimFinder) *Cache {
	if victimFinder == nil {
		victimFinder = NewLRUVictimFinder()
	}

	return &Cache{
		config:       config,
		set:          NewSet(config.Associativity),
		victimFinder: victimFinder,
	}
}

// Config returns the cache configuration.
func (c *Cache) Config() Config {
	return c.config
}

// Kind returns which cache this is.
func (c *Cache) Kind() Kind {
	return c.config.Kind
}

// Set returns the set backing the cache.
func (c *Cache) Set() *Set {
	return c.set
}

// Lookup finds the occupied line holding tag.
func (c *Cache) Lookup(tag uint32) (slot int, found bool) {
	return c.set.Lookup(tag)
}

// Line returns a copy of the line in slot.
func (c *Cache) Line(slot int) Line {
	return c.set.Lines[slot]
}

// Hit moves the line in slot to the given state and marks it most recently
// used.
func (c *Cache) Hit(slot int, addr uint32, state State) {
	line := &c.set.Lines[slot]
	line.State = state
	line.Address = addr

	c.set.Touch(slot)
}

// Fill installs tag into a victim slot. It returns the victim and a copy of
// the line that was there before the fill.
func (c *Cache) Fill(
	tag uint32,
	addr uint32,
	state State,
) (victim Victim, replaced Line, err error) {
	victim, err = c.victimFinder.FindVictim(c.set)
	if err != nil {
		return Victim{}, Line{}, fmt.Errorf("%s cache: %w", c.config.Kind, err)
	}

	line := &c.set.Lines[victim.Slot]
	replaced = *line

	line.Occupied = true
	line.Tag = tag
	line.State = state
	line.Address = addr

	c.set.Touch(victim.Slot)

	return victim, replaced, nil
}

// Downgrade sets the state of the line in slot without changing its rank.
func (c *Cache) Downgrade(slot int, state State) {
	c.set.Lines[slot].State = state
}

// Reset invalidates and empties every line.
func (c *Cache) Reset() {
	c.set.Reset()
}

// Snapshot returns a copy of the lines in slot order.
func (c *Cache) Snapshot() []Line {
	return c.set.Snapshot()
}
