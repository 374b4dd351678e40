// Package mmio is the access path to memory-mapped device registers.
//
// Drivers never hold raw register pointers; they hold a Region and address
// registers by byte offset. On target a Region is backed by the device's
// physical window; off target the same driver code runs against a RAM-backed
// region or a behavioral device model.
package mmio

// Region is a window of 32-bit device registers. Offsets are in bytes from
// the base of the window and must be word aligned.
type Region interface {
	Read32(offset uintptr) uint32
	Write32(offset uintptr, value uint32)
}

// RAMRegion is a Region backed by ordinary memory. Registers simply hold
// whatever was last written, which is enough for drivers whose tests only
// care about the values they program.
type RAMRegion struct {
	words []uint32
}

// NewRAMRegion returns a zeroed region covering size bytes.
func NewRAMRegion(size uintptr) *RAMRegion {
	return &RAMRegion{words: make([]uint32, (size+3)/4)}
}

func (r *RAMRegion) Read32(offset uintptr) uint32 {
	return r.words[wordIndex(offset)]
}

func (r *RAMRegion) Write32(offset uintptr, value uint32) {
	r.words[wordIndex(offset)] = value
}

func wordIndex(offset uintptr) uintptr {
	if offset%4 != 0 {
		panic("mmio: unaligned register access")
	}
	return offset / 4
}
