package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/r2lab/r2sim/config"
)

var _ = Describe("Config", func() {
	It("should fall back to defaults when the file is missing", func() {
		cfg, err := config.Load(filepath.Join(GinkgoT().TempDir(), "none.toml"))

		Expect(err).ToNot(HaveOccurred())
		Expect(cfg.MemSize).To(Equal(uint32(1 << 20)))
		Expect(cfg.InterruptVector).To(Equal(uint32(0x10)))
	})

	It("should apply values from the file over the defaults", func() {
		path := filepath.Join(GinkgoT().TempDir(), "config.toml")
		Expect(os.WriteFile(path, []byte(
			"mem_size = 65536\ntrace = true\nmax_instructions = 1000\n",
		), 0o644)).To(Succeed())

		cfg, err := config.Load(path)

		Expect(err).ToNot(HaveOccurred())
		Expect(cfg.MemSize).To(Equal(uint32(65536)))
		Expect(cfg.Trace).To(BeTrue())
		Expect(cfg.MaxInstructions).To(Equal(uint64(1000)))
		Expect(cfg.ResetVector).To(Equal(uint32(0)))
	})

	It("should reject malformed TOML", func() {
		path := filepath.Join(GinkgoT().TempDir(), "config.toml")
		Expect(os.WriteFile(path, []byte("mem_size = ["), 0o644)).To(Succeed())

		_, err := config.Load(path)

		Expect(err).To(HaveOccurred())
	})

	Describe("Validate", func() {
		It("should reject a zero memory size", func() {
			cfg := config.Default()
			cfg.MemSize = 0
			Expect(cfg.Validate()).ToNot(Succeed())
		})

		It("should reject misaligned vectors", func() {
			cfg := config.Default()
			cfg.ResetVector = 2
			Expect(cfg.Validate()).ToNot(Succeed())

			cfg = config.Default()
			cfg.InterruptVector = 6
			Expect(cfg.Validate()).ToNot(Succeed())
		})

		It("should reject a reset vector outside memory", func() {
			cfg := config.Default()
			cfg.MemSize = 4096
			cfg.ResetVector = 4096
			Expect(cfg.Validate()).ToNot(Succeed())
		})

		It("should accept the defaults", func() {
			Expect(config.Default().Validate()).To(Succeed())
		})
	})
})
