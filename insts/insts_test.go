package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/r2lab/r2sim/insts"
)

var _ = Describe("Insts Package", func() {
	Describe("Opcode properties", func() {
		It("should classify loads and stores", func() {
			ld := &insts.Instruction{Op: insts.OpLdxhs}
			Expect(ld.IsMemory()).To(BeTrue())
			Expect(ld.IsStore()).To(BeFalse())
			Expect(ld.IsSignedLoad()).To(BeTrue())
			Expect(ld.MemWidth()).To(Equal(insts.WidthHalf))

			st := &insts.Instruction{Op: insts.OpStxb}
			Expect(st.IsMemory()).To(BeTrue())
			Expect(st.IsStore()).To(BeTrue())
			Expect(st.MemWidth()).To(Equal(insts.WidthByte))
		})

		It("should mark the call and return classes with window deltas", func() {
			Expect((&insts.Instruction{Op: insts.OpCallx}).WindowDelta()).To(Equal(-1))
			Expect((&insts.Instruction{Op: insts.OpCallr}).WindowDelta()).To(Equal(-1))
			Expect((&insts.Instruction{Op: insts.OpCalli}).WindowDelta()).To(Equal(-1))
			Expect((&insts.Instruction{Op: insts.OpRet}).WindowDelta()).To(Equal(1))
			Expect((&insts.Instruction{Op: insts.OpReti}).WindowDelta()).To(Equal(1))
			Expect((&insts.Instruction{Op: insts.OpAdd}).WindowDelta()).To(Equal(0))
		})

		It("should mark privileged instructions", func() {
			Expect((&insts.Instruction{Op: insts.OpPutPSW}).IsPrivileged()).To(BeTrue())
			Expect((&insts.Instruction{Op: insts.OpGetLPC}).IsPrivileged()).To(BeTrue())
			Expect((&insts.Instruction{Op: insts.OpReti}).IsPrivileged()).To(BeTrue())
			Expect((&insts.Instruction{Op: insts.OpGetPSW}).IsPrivileged()).To(BeFalse())
		})

		It("should report validity of raw opcodes", func() {
			Expect(insts.OpAdd.Valid()).To(BeTrue())
			Expect(insts.Op(0x00).Valid()).To(BeFalse())
			Expect(insts.Op(0x20).Valid()).To(BeFalse())
		})
	})

	Describe("Encoding round trip", func() {
		var decoder *insts.Decoder

		BeforeEach(func() {
			decoder = insts.NewDecoder()
		})

		It("should round-trip a short register instruction", func() {
			word := insts.Short(insts.OpSub, true, 12, 30, 11)
			inst, err := decoder.Decode(word)

			Expect(err).ToNot(HaveOccurred())
			Expect(inst.Encode()).To(Equal(word))
			Expect(inst.Rd).To(Equal(uint8(12)))
			Expect(inst.Rs1).To(Equal(uint8(30)))
			Expect(inst.Rs2).To(Equal(uint8(11)))
		})

		It("should round-trip a negative short immediate", func() {
			word := insts.ShortImm(insts.OpAdd, false, 1, 2, -100)
			inst, err := decoder.Decode(word)

			Expect(err).ToNot(HaveOccurred())
			Expect(inst.Imm).To(Equal(int32(-100)))
			Expect(inst.Encode()).To(Equal(word))
		})

		It("should round-trip a conditional long branch", func() {
			word := insts.CondLong(insts.OpJmpr, insts.CondNe, -256)
			inst, err := decoder.Decode(word)

			Expect(err).ToNot(HaveOccurred())
			Expect(inst.Cond).To(Equal(insts.CondNe))
			Expect(inst.Imm).To(Equal(int32(-256)))
			Expect(inst.Encode()).To(Equal(word))
		})

		It("should panic on an out-of-range short immediate", func() {
			Expect(func() {
				insts.ShortImm(insts.OpAdd, false, 1, 2, 4096)
			}).To(Panic())
		})
	})

	Describe("Disassembly", func() {
		It("should render a three-register instruction", func() {
			inst := &insts.Instruction{
				Op: insts.OpAdd, Format: insts.FormatShort,
				Rd: 1, Rs1: 2, Rs2: 3,
			}
			Expect(inst.String()).To(Equal("add r1, r2, r3"))
		})

		It("should mark condition-code updates", func() {
			inst := &insts.Instruction{
				Op: insts.OpSub, Format: insts.FormatShort,
				SCC: true, Rd: 5, Rs1: 6, SrcImm: true, Imm: -1,
			}
			Expect(inst.String()).To(Equal("sub{c} r5, r6, -1"))
		})

		It("should render conditional transfers with the condition name", func() {
			inst := &insts.Instruction{
				Op: insts.OpJmpr, Format: insts.FormatLong,
				Cond: insts.CondEq, Imm: -8,
			}
			Expect(inst.String()).To(Equal("jmpr eq, -8"))
		})

		It("should render long-format immediates", func() {
			inst := &insts.Instruction{
				Op: insts.OpLdhi, Format: insts.FormatLong,
				Rd: 3, Imm: 0x1F,
			}
			Expect(inst.String()).To(Equal("ldhi r3, 31"))
		})
	})
})
