package cache_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mesisim/cache"
)

var _ = Describe("AddressLayout", func() {
	var layout cache.AddressLayout

	BeforeEach(func() {
		layout = cache.DefaultAddressLayout()
	})

	It("should leave 12 bits for the tag", func() {
		Expect(layout.TagBits()).To(Equal(uint(12)))
	})

	It("should decompose address 0x40 into set 1 with tag 0", func() {
		addr := layout.Decompose(0x00000040)
		Expect(addr.Tag).To(Equal(uint32(0)))
		Expect(addr.SetIndex).To(Equal(uint32(1)))
		Expect(addr.Offset).To(Equal(uint32(0)))
	})

	It("should take the tag from the top 12 bits", func() {
		addr := layout.Decompose(0xABCDEF12)
		Expect(addr.Tag).To(Equal(uint32(0xABC)))
		Expect(addr.SetIndex).To(Equal(uint32(0xDEF12>>6) & 0x3FFF))
		Expect(addr.Offset).To(Equal(uint32(0x12)))
	})

	It("should map the highest address to all-ones fields", func() {
		addr := layout.Decompose(0xFFFFFFFF)
		Expect(addr.Tag).To(Equal(uint32(0xFFF)))
		Expect(addr.SetIndex).To(Equal(uint32(0x3FFF)))
		Expect(addr.Offset).To(Equal(uint32(0x3F)))
	})

	It("should support custom layouts", func() {
		layout = cache.AddressLayout{OffsetBits: 4, SetBits: 4}
		addr := layout.Decompose(0x12345678)
		Expect(layout.TagBits()).To(Equal(uint(24)))
		Expect(addr.Tag).To(Equal(uint32(0x123456)))
		Expect(addr.SetIndex).To(Equal(uint32(0x7)))
		Expect(addr.Offset).To(Equal(uint32(0x8)))
	})
})
