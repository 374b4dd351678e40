package gicv2

import (
	"sync"

	"github.com/CodeTheEagle/PhotonX-OS/hardware/mmio"
)

// Sim is a behavioral model of the GIC-400 good enough to run the driver
// against: per-line enable/priority/target/group state with real register
// packing, a pending set, priority arbitration against the priority mask,
// and the spurious-1023 protocol on the acknowledge register.
//
// Pending lines are latched: a claim clears the pending bit, so a source
// that wants to fire again must assert again.
type Sim struct {
	mu sync.Mutex

	lines    uint32
	distCtlr uint32
	coreCtlr uint32
	pmr      uint32
	bpr      uint32

	group    [maxSimLines / 32]uint32
	enable   [maxSimLines / 32]uint32
	pending  [maxSimLines / 32]uint32
	priority [maxSimLines]uint8
	target   [maxSimLines]uint8

	active int32 // line claimed but not yet completed, -1 when none

	ackCount [maxSimLines]int
	eoiCount [maxSimLines]int
}

// maxSimLines sizes the register file. The distributor register map spans
// 1024 line slots even though only 1020 are usable interrupt numbers.
const maxSimLines = 1024

// NewSim returns a model implementing lines interrupt lines (rounded up to a
// multiple of 32, capped at the register file size).
func NewSim(lines uint32) *Sim {
	if lines%32 != 0 {
		lines += 32 - lines%32
	}
	if lines > maxSimLines {
		lines = maxSimLines
	}
	return &Sim{lines: lines, active: -1}
}

// Dist returns the distributor register window.
func (s *Sim) Dist() mmio.Region { return (*simDist)(s) }

// Core returns the per-core interface register window.
func (s *Sim) Core() mmio.Region { return (*simCore)(s) }

// SetPending asserts one line, as the wired peripheral would.
func (s *Sim) SetPending(id uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id < s.lines {
		s.pending[id/32] |= 1 << (id % 32)
	}
}

// Pending reports whether a line is asserted and unclaimed.
func (s *Sim) Pending(id uint32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending[id/32]&(1<<(id%32)) != 0
}

// Enabled reports the enable bit of a line.
func (s *Sim) Enabled(id uint32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enable[id/32]&(1<<(id%32)) != 0
}

// Priority reports the programmed priority of a line.
func (s *Sim) Priority(id uint32) uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.priority[id]
}

// Target reports the programmed target core mask of a line.
func (s *Sim) Target(id uint32) uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target[id]
}

// AckCount reports how many times a line has been claimed.
func (s *Sim) AckCount(id uint32) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ackCount[id]
}

// EOICount reports how many completion writes a line has received. Test
// harnesses use this to verify the one-EOI-per-acknowledge contract.
func (s *Sim) EOICount(id uint32) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eoiCount[id]
}

// claim implements an acknowledge-register read: the pending, enabled line
// with the most urgent priority admitted by the mask, lowest number first on
// ties.
func (s *Sim) claim() uint32 {
	if s.distCtlr&ctlrEnable == 0 || s.coreCtlr&ctlrEnable == 0 {
		return SpuriousID
	}
	best := uint32(SpuriousID)
	bestPrio := uint32(0x100)
	for id := uint32(0); id < s.lines; id++ {
		bit := uint32(1) << (id % 32)
		if s.pending[id/32]&bit == 0 || s.enable[id/32]&bit == 0 {
			continue
		}
		p := uint32(s.priority[id])
		if p >= s.pmr {
			continue // masked out by the priority mask
		}
		if p < bestPrio {
			bestPrio = p
			best = id
		}
	}
	if best == SpuriousID {
		return SpuriousID
	}
	s.pending[best/32] &^= 1 << (best % 32)
	s.active = int32(best)
	s.ackCount[best]++
	return best
}

type simDist Sim

func (d *simDist) Read32(offset uintptr) uint32 {
	s := (*Sim)(d)
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case offset == gicdCTLR:
		return s.distCtlr
	case offset == gicdTYPER:
		return (s.lines/32 - 1) & 0x1F
	case offset >= gicdIGROUPR && offset < gicdISENABLER:
		return s.group[(offset-gicdIGROUPR)/4]
	case offset >= gicdISENABLER && offset < gicdICENABLER:
		return s.enable[(offset-gicdISENABLER)/4]
	case offset >= gicdICENABLER && offset < gicdICENABLER+0x80:
		return s.enable[(offset-gicdICENABLER)/4]
	case offset >= gicdICPENDR && offset < gicdICPENDR+0x80:
		return s.pending[(offset-gicdICPENDR)/4]
	case offset >= gicdIPRIORITY && offset < gicdIPRIORITY+maxSimLines:
		return packBytes(s.priority[:], (offset-gicdIPRIORITY)/4)
	case offset >= gicdITARGETSR && offset < gicdITARGETSR+maxSimLines:
		return packBytes(s.target[:], (offset-gicdITARGETSR)/4)
	}
	return 0
}

func (d *simDist) Write32(offset uintptr, value uint32) {
	s := (*Sim)(d)
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case offset == gicdCTLR:
		s.distCtlr = value
	case offset >= gicdIGROUPR && offset < gicdISENABLER:
		s.group[(offset-gicdIGROUPR)/4] = value
	case offset >= gicdISENABLER && offset < gicdICENABLER:
		// Write-one-to-set.
		s.enable[(offset-gicdISENABLER)/4] |= value
	case offset >= gicdICENABLER && offset < gicdICENABLER+0x80:
		// Write-one-to-clear.
		s.enable[(offset-gicdICENABLER)/4] &^= value
	case offset >= gicdICPENDR && offset < gicdICPENDR+0x80:
		s.pending[(offset-gicdICPENDR)/4] &^= value
	case offset >= gicdIPRIORITY && offset < gicdIPRIORITY+maxSimLines:
		unpackBytes(s.priority[:], (offset-gicdIPRIORITY)/4, value)
	case offset >= gicdITARGETSR && offset < gicdITARGETSR+maxSimLines:
		unpackBytes(s.target[:], (offset-gicdITARGETSR)/4, value)
	}
}

type simCore Sim

func (c *simCore) Read32(offset uintptr) uint32 {
	s := (*Sim)(c)
	s.mu.Lock()
	defer s.mu.Unlock()
	switch offset {
	case giccCTLR:
		return s.coreCtlr
	case giccPMR:
		return s.pmr
	case giccBPR:
		return s.bpr
	case giccIAR:
		return s.claim()
	}
	return 0
}

func (c *simCore) Write32(offset uintptr, value uint32) {
	s := (*Sim)(c)
	s.mu.Lock()
	defer s.mu.Unlock()
	switch offset {
	case giccCTLR:
		s.coreCtlr = value
	case giccPMR:
		s.pmr = value & 0xFF
	case giccBPR:
		s.bpr = value & 0x7
	case giccEOIR:
		id := value & 0x3FF
		if id < s.lines {
			s.eoiCount[id]++
			if s.active == int32(id) {
				s.active = -1
			}
		}
	}
}

func packBytes(bytes []uint8, word uintptr) uint32 {
	base := word * 4
	return uint32(bytes[base]) | uint32(bytes[base+1])<<8 |
		uint32(bytes[base+2])<<16 | uint32(bytes[base+3])<<24
}

func unpackBytes(bytes []uint8, word uintptr, value uint32) {
	base := word * 4
	bytes[base] = uint8(value)
	bytes[base+1] = uint8(value >> 8)
	bytes[base+2] = uint8(value >> 16)
	bytes[base+3] = uint8(value >> 24)
}
