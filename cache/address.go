// Package cache models the single-set L1 caches of the controller: address
// decomposition, cache lines, LRU ranks and victim selection.
package cache

// AddressBits is the width of every address handled by the caches.
const AddressBits = 32

// AddressLayout describes how an address is split into tag, set index and
// block offset.
type AddressLayout struct {
	// OffsetBits is the number of block-offset bits (64B lines use 6).
	OffsetBits uint
	// SetBits is the number of set-index bits.
	SetBits uint
}

// DefaultAddressLayout returns the 12/14/6 tag/set/offset split.
func DefaultAddressLayout() AddressLayout {
	return AddressLayout{
		OffsetBits: 6,
		SetBits:    14,
	}
}

// Address is a decomposed address.
type Address struct {
	Tag      uint32
	SetIndex uint32
	Offset   uint32
}

// TagBits returns the number of bits left for the tag.
func (l AddressLayout) TagBits() uint {
	return AddressBits - l.SetBits - l.OffsetBits
}

// Decompose splits addr into its tag, set index and block offset.
//
// Only the tag is used for lookup. Both caches hold a single set, so the set
// index is informational.
func (l AddressLayout) Decompose(addr uint32) Address {
	offsetMask := uint32(1)<<l.OffsetBits - 1
	setMask := uint32(1)<<l.SetBits - 1

	return Address{
		Tag:      addr >> (l.OffsetBits + l.SetBits),
		SetIndex: (addr >> l.OffsetBits) & setMask,
		Offset:   addr & offsetMask,
	}
}
