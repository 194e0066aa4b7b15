package loader_test

import (
	"bytes"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/r2lab/r2sim/emu"
	"github.com/r2lab/r2sim/insts"
	"github.com/r2lab/r2sim/loader"
)

var _ = Describe("Program images", func() {
	It("should install words big-endian and set the entry point", func() {
		m := emu.NewMachine()
		word := insts.ShortImm(insts.OpAdd, false, 1, 0, 42)
		prog := loader.FromWords(0x80, word)

		Expect(prog.InstallTo(m)).To(Succeed())

		Expect(m.PC()).To(Equal(uint32(0x80)))
		Expect(m.Bus().ReadWord(0x80)).To(Equal(word))

		m.Step()
		Expect(m.RegFile().Read(0, 1)).To(Equal(uint32(42)))
	})

	It("should read a raw image file", func() {
		path := filepath.Join(GinkgoT().TempDir(), "prog.bin")
		Expect(os.WriteFile(path, []byte{0x30, 0x08, 0x80, 0x03}, 0o644)).To(Succeed())

		prog, err := loader.ReadProgram(path, 0x100)

		Expect(err).ToNot(HaveOccurred())
		Expect(prog.Base).To(Equal(uint32(0x100)))
		Expect(prog.Entry).To(Equal(uint32(0x100)))
		Expect(prog.Data).To(HaveLen(4))
	})

	It("should reject images that are not word-aligned", func() {
		path := filepath.Join(GinkgoT().TempDir(), "bad.bin")
		Expect(os.WriteFile(path, []byte{1, 2, 3}, 0o644)).To(Succeed())

		_, err := loader.ReadProgram(path, 0)

		Expect(err).To(HaveOccurred())
	})

	It("should refuse an image that does not fit in memory", func() {
		m := emu.NewMachine(emu.WithMemSize(16))
		prog := loader.FromWords(8, 1, 2, 3, 4)

		Expect(prog.InstallTo(m)).ToNot(Succeed())
	})
})

var _ = Describe("Save states", func() {
	It("should round-trip machine state through an archive", func() {
		src := emu.NewMachine(emu.WithMemSize(4096))
		src.RegFile().Write(0, 5, 0xAABBCCDD)
		src.RegFile().Write(3, 17, 0x11223344)
		Expect(src.Bus().RAM().WriteWord(0x400, 0xFEEDFACE)).To(Succeed())
		src.SetPSW(emu.PSW{Z: true, Sys: true, CWP: 3, SWP: 1})
		src.SetPCChain(0x20, 0x100, 0x1C)

		var archive bytes.Buffer
		Expect(loader.SaveState(&archive, src)).To(Succeed())

		dst := emu.NewMachine(emu.WithMemSize(4096))
		Expect(loader.LoadState(&archive, dst)).To(Succeed())

		Expect(dst.RegFile().Read(0, 5)).To(Equal(uint32(0xAABBCCDD)))
		Expect(dst.RegFile().Read(3, 17)).To(Equal(uint32(0x11223344)))
		Expect(dst.Bus().ReadWord(0x400)).To(Equal(uint32(0xFEEDFACE)))
		Expect(dst.PSW()).To(Equal(src.PSW()))

		snap := dst.Snapshot()
		Expect(snap.PC).To(Equal(uint32(0x20)))
		Expect(snap.NextPC).To(Equal(uint32(0x100)))
		Expect(snap.LastPC).To(Equal(uint32(0x1C)))
		Expect(snap.InDelaySlot).To(BeTrue())
	})

	It("should preserve the window overlap across a round trip", func() {
		src := emu.NewMachine()
		src.RegFile().Write(1, 12, 0xCAFE)

		var archive bytes.Buffer
		Expect(loader.SaveState(&archive, src)).To(Succeed())

		dst := emu.NewMachine()
		Expect(loader.LoadState(&archive, dst)).To(Succeed())

		Expect(dst.RegFile().Read(1, 12)).To(Equal(uint32(0xCAFE)))
		Expect(dst.RegFile().Read(0, 28)).To(Equal(uint32(0xCAFE)))
	})

	It("should reject a truncated or foreign archive", func() {
		m := emu.NewMachine()

		Expect(loader.LoadState(bytes.NewReader(nil), m)).ToNot(Succeed())
		Expect(loader.LoadState(bytes.NewReader(make([]byte, 64)), m)).ToNot(Succeed())
	})

	It("should reject an image larger than the target memory", func() {
		src := emu.NewMachine(emu.WithMemSize(8192))
		var archive bytes.Buffer
		Expect(loader.SaveState(&archive, src)).To(Succeed())

		dst := emu.NewMachine(emu.WithMemSize(4096))
		Expect(loader.LoadState(&archive, dst)).ToNot(Succeed())
	})
})
