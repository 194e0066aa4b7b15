package emu

import (
	"encoding/binary"
	"fmt"

	"github.com/sarchlab/akita/v4/mem/mem"
)

// AccessError reports a failed memory access. The core converts it
// into a bus fault trap.
type AccessError struct {
	Addr  uint32
	Write bool
}

func (e *AccessError) Error() string {
	dir := "read"
	if e.Write {
		dir = "write"
	}
	return fmt.Sprintf("memory %s fault at 0x%08X", dir, e.Addr)
}

// Port is the memory interface the core consumes. All multi-byte
// accesses are big-endian. Implementations check their own address
// validity and alignment and report an *AccessError on failure;
// they must not block.
type Port interface {
	ReadWord(addr uint32) (uint32, error)
	WriteWord(addr uint32, value uint32) error
	ReadHalf(addr uint32) (uint16, error)
	WriteHalf(addr uint32, value uint16) error
	ReadByte(addr uint32) (uint8, error)
	WriteByte(addr uint32, value uint8) error
}

// RAM is a flat big-endian memory implementing Port.
type RAM struct {
	size    uint32
	storage *mem.Storage
}

// NewRAM creates a RAM of the given size in bytes.
func NewRAM(size uint32) *RAM {
	return &RAM{
		size:    size,
		storage: mem.NewStorage(uint64(size)),
	}
}

// Size returns the RAM capacity in bytes.
func (r *RAM) Size() uint32 {
	return r.size
}

func (r *RAM) read(addr, n uint32) ([]byte, error) {
	if addr%n != 0 || r.size < n || addr > r.size-n {
		return nil, &AccessError{Addr: addr}
	}
	data, err := r.storage.Read(uint64(addr), uint64(n))
	if err != nil {
		return nil, &AccessError{Addr: addr}
	}
	return data, nil
}

func (r *RAM) write(addr uint32, data []byte) error {
	n := uint32(len(data))
	if addr%n != 0 || r.size < n || addr > r.size-n {
		return &AccessError{Addr: addr, Write: true}
	}
	if err := r.storage.Write(uint64(addr), data); err != nil {
		return &AccessError{Addr: addr, Write: true}
	}
	return nil
}

// ReadWord reads a 32-bit value from a word-aligned address.
func (r *RAM) ReadWord(addr uint32) (uint32, error) {
	data, err := r.read(addr, 4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(data), nil
}

// WriteWord writes a 32-bit value to a word-aligned address.
func (r *RAM) WriteWord(addr uint32, value uint32) error {
	var data [4]byte
	binary.BigEndian.PutUint32(data[:], value)
	return r.write(addr, data[:])
}

// ReadHalf reads a 16-bit value from a half-aligned address.
func (r *RAM) ReadHalf(addr uint32) (uint16, error) {
	data, err := r.read(addr, 2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(data), nil
}

// WriteHalf writes a 16-bit value to a half-aligned address.
func (r *RAM) WriteHalf(addr uint32, value uint16) error {
	var data [2]byte
	binary.BigEndian.PutUint16(data[:], value)
	return r.write(addr, data[:])
}

// ReadByte reads a single byte.
func (r *RAM) ReadByte(addr uint32) (uint8, error) {
	data, err := r.read(addr, 1)
	if err != nil {
		return 0, err
	}
	return data[0], nil
}

// WriteByte writes a single byte.
func (r *RAM) WriteByte(addr uint32, value uint8) error {
	return r.write(addr, []byte{value})
}

// LoadImage copies raw bytes into RAM starting at base.
func (r *RAM) LoadImage(base uint32, image []byte) error {
	if uint64(base)+uint64(len(image)) > uint64(r.size) {
		return &AccessError{Addr: base, Write: true}
	}
	if len(image) == 0 {
		return nil
	}
	if err := r.storage.Write(uint64(base), image); err != nil {
		return &AccessError{Addr: base, Write: true}
	}
	return nil
}

// DumpImage copies n bytes out of RAM starting at base.
func (r *RAM) DumpImage(base, n uint32) ([]byte, error) {
	if uint64(base)+uint64(n) > uint64(r.size) {
		return nil, &AccessError{Addr: base}
	}
	if n == 0 {
		return nil, nil
	}
	data, err := r.storage.Read(uint64(base), uint64(n))
	if err != nil {
		return nil, &AccessError{Addr: base}
	}
	return data, nil
}

// busRegion binds an address range to a device port. Offsets inside
// the region are passed through unchanged.
type busRegion struct {
	base uint32
	size uint32
	port Port
}

func (r busRegion) contains(addr uint32) bool {
	return addr >= r.base && addr-r.base < r.size
}

// Bus routes core accesses to RAM or to mapped device ports. Device
// regions take precedence over RAM; accesses that hit no region and
// fall outside RAM fault.
type Bus struct {
	ram     *RAM
	regions []busRegion
}

// NewBus creates a bus fronting the given RAM.
func NewBus(ram *RAM) *Bus {
	return &Bus{ram: ram}
}

// Map binds [base, base+size) to a device port.
func (b *Bus) Map(base, size uint32, port Port) {
	b.regions = append(b.regions, busRegion{base: base, size: size, port: port})
}

// RAM returns the bus's backing memory.
func (b *Bus) RAM() *RAM {
	return b.ram
}

func (b *Bus) target(addr uint32) Port {
	for _, r := range b.regions {
		if r.contains(addr) {
			return r.port
		}
	}
	return b.ram
}

// ReadWord implements Port.
func (b *Bus) ReadWord(addr uint32) (uint32, error) {
	return b.target(addr).ReadWord(addr)
}

// WriteWord implements Port.
func (b *Bus) WriteWord(addr uint32, value uint32) error {
	return b.target(addr).WriteWord(addr, value)
}

// ReadHalf implements Port.
func (b *Bus) ReadHalf(addr uint32) (uint16, error) {
	return b.target(addr).ReadHalf(addr)
}

// WriteHalf implements Port.
func (b *Bus) WriteHalf(addr uint32, value uint16) error {
	return b.target(addr).WriteHalf(addr, value)
}

// ReadByte implements Port.
func (b *Bus) ReadByte(addr uint32) (uint8, error) {
	return b.target(addr).ReadByte(addr)
}

// WriteByte implements Port.
func (b *Bus) WriteByte(addr uint32, value uint8) error {
	return b.target(addr).WriteByte(addr, value)
}
