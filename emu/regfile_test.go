package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/r2lab/r2sim/emu"
)

var _ = Describe("RegFile", func() {
	var rf *emu.RegFile

	BeforeEach(func() {
		rf = emu.NewRegFile()
	})

	It("should keep r0 hardwired to zero", func() {
		rf.Write(0, 0, 0xDEADBEEF)
		Expect(rf.Read(0, 0)).To(Equal(uint32(0)))

		rf.Write(5, 0, 0xDEADBEEF)
		Expect(rf.Read(5, 0)).To(Equal(uint32(0)))
	})

	It("should share globals across all windows", func() {
		rf.Write(0, 5, 42)

		for w := uint8(0); w < emu.NumWindows; w++ {
			Expect(rf.Read(w, 5)).To(Equal(uint32(42)))
		}
	})

	It("should keep locals private to their window", func() {
		rf.Write(0, 16, 100)

		Expect(rf.Read(0, 16)).To(Equal(uint32(100)))
		Expect(rf.Read(1, 16)).To(Equal(uint32(0)))
		Expect(rf.Read(7, 16)).To(Equal(uint32(0)))
	})

	It("should alias the caller's outs with the callee's ins", func() {
		// A call moves the window pointer down by one, so values
		// written to r10-r15 in window w appear as r26-r31 in w-1.
		for i := uint8(0); i < 6; i++ {
			rf.Write(1, 10+i, uint32(0xA0+i))
		}

		for i := uint8(0); i < 6; i++ {
			Expect(rf.Read(0, 26+i)).To(Equal(uint32(0xA0 + i)))
		}
	})

	It("should wrap the window bank circularly", func() {
		// Window 0's outs overlap window 7's ins.
		rf.Write(0, 10, 0x1234)
		Expect(rf.Read(7, 26)).To(Equal(uint32(0x1234)))
	})

	It("should round-trip every visible register in every window", func() {
		for w := uint8(0); w < emu.NumWindows; w++ {
			for reg := uint8(1); reg < emu.NumVisible; reg++ {
				rf.Write(w, reg, uint32(w)<<8|uint32(reg))
				Expect(rf.Read(w, reg)).To(Equal(uint32(w)<<8 | uint32(reg)))
			}
		}
	})

	It("should discard writes beyond r31", func() {
		rf.Write(0, 32, 99)
		Expect(rf.Read(0, 32)).To(Equal(uint32(0)))
	})

	It("should expose the visible window as a flat view", func() {
		rf.Write(2, 7, 70)
		rf.Write(2, 20, 200)

		view := rf.VisibleWindow(2)
		Expect(view[0]).To(Equal(uint32(0)))
		Expect(view[7]).To(Equal(uint32(70)))
		Expect(view[20]).To(Equal(uint32(200)))
	})
})
