package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/r2lab/r2sim/emu"
)

var _ = Describe("ALU", func() {
	var (
		psw *emu.PSW
		alu *emu.ALU
	)

	BeforeEach(func() {
		psw = &emu.PSW{}
		alu = emu.NewALU(psw)
	})

	Describe("Add", func() {
		It("should set overflow and negative on 0x7FFFFFFF + 1", func() {
			result := alu.Add(0x7FFFFFFF, 1, false, true)

			Expect(result).To(Equal(uint32(0x80000000)))
			Expect(psw.V).To(BeTrue())
			Expect(psw.N).To(BeTrue())
			Expect(psw.Z).To(BeFalse())
			Expect(psw.C).To(BeFalse())
		})

		It("should set carry and zero on 0xFFFFFFFF + 1", func() {
			result := alu.Add(0xFFFFFFFF, 1, false, true)

			Expect(result).To(Equal(uint32(0)))
			Expect(psw.C).To(BeTrue())
			Expect(psw.Z).To(BeTrue())
			Expect(psw.V).To(BeFalse())
			Expect(psw.N).To(BeFalse())
		})

		It("should add the carry in", func() {
			Expect(alu.Add(1, 2, true, false)).To(Equal(uint32(4)))
		})

		It("should leave flags alone without scc", func() {
			psw.Z = true
			psw.C = true

			alu.Add(0x7FFFFFFF, 1, false, false)

			Expect(psw.Z).To(BeTrue())
			Expect(psw.C).To(BeTrue())
			Expect(psw.V).To(BeFalse())
		})
	})

	Describe("Sub", func() {
		It("should set zero and no-borrow carry when operands are equal", func() {
			result := alu.Sub(42, 42, false, true)

			Expect(result).To(Equal(uint32(0)))
			Expect(psw.Z).To(BeTrue())
			Expect(psw.C).To(BeTrue())
			Expect(psw.V).To(BeFalse())
			Expect(psw.N).To(BeFalse())
		})

		It("should clear carry on borrow", func() {
			result := alu.Sub(0, 1, false, true)

			Expect(result).To(Equal(uint32(0xFFFFFFFF)))
			Expect(psw.C).To(BeFalse())
			Expect(psw.N).To(BeTrue())
			Expect(psw.Z).To(BeFalse())
		})

		It("should set overflow on 0x80000000 - 1", func() {
			result := alu.Sub(0x80000000, 1, false, true)

			Expect(result).To(Equal(uint32(0x7FFFFFFF)))
			Expect(psw.V).To(BeTrue())
			Expect(psw.N).To(BeFalse())
		})

		It("should subtract the borrow in", func() {
			Expect(alu.Sub(10, 3, true, false)).To(Equal(uint32(6)))
		})
	})

	Describe("Logical operations", func() {
		It("should clear carry and overflow", func() {
			psw.C = true
			psw.V = true

			alu.And(0xF0, 0x0F, true)

			Expect(psw.C).To(BeFalse())
			Expect(psw.V).To(BeFalse())
			Expect(psw.Z).To(BeTrue())
		})

		It("should compute or and xor", func() {
			Expect(alu.Or(0xF0, 0x0F, false)).To(Equal(uint32(0xFF)))
			Expect(alu.Xor(0xFF, 0x0F, false)).To(Equal(uint32(0xF0)))
		})

		It("should set negative from the result high bit", func() {
			alu.Or(0x80000000, 1, true)

			Expect(psw.N).To(BeTrue())
			Expect(psw.Z).To(BeFalse())
		})
	})

	Describe("Shifts", func() {
		It("should shift left logically", func() {
			Expect(alu.Sll(1, 4, false)).To(Equal(uint32(16)))
		})

		It("should shift right logically without sign", func() {
			Expect(alu.Srl(0x80000000, 31, false)).To(Equal(uint32(1)))
		})

		It("should replicate the sign bit arithmetically", func() {
			Expect(alu.Sra(0x80000000, 31, false)).To(Equal(uint32(0xFFFFFFFF)))
		})

		It("should mask the shift amount to five bits", func() {
			Expect(alu.Sll(1, 33, false)).To(Equal(uint32(2)))
		})
	})

	Describe("Memory flag rules", func() {
		It("should latch load results like logical results", func() {
			psw.C = true
			psw.V = true

			Expect(alu.LoadResult(0, true)).To(Equal(uint32(0)))
			Expect(psw.Z).To(BeTrue())
			Expect(psw.C).To(BeFalse())
			Expect(psw.V).To(BeFalse())
		})

		It("should only clear carry and overflow on stores", func() {
			psw.Z = true
			psw.N = true
			psw.C = true
			psw.V = true

			alu.StoreFlags(true)

			Expect(psw.Z).To(BeTrue())
			Expect(psw.N).To(BeTrue())
			Expect(psw.C).To(BeFalse())
			Expect(psw.V).To(BeFalse())
		})
	})
})
