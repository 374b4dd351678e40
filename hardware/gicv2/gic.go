// Package gicv2 drives the two-stage GIC-400 interrupt controller: a global
// distributor that routes, prioritizes and enables lines for every core, and
// a per-core interface that masks and acknowledges them for one core.
package gicv2

import (
	"github.com/CodeTheEagle/PhotonX-OS/hardware/mmio"
	"github.com/CodeTheEagle/PhotonX-OS/lib/trust"
)

// Distributor register offsets.
const (
	gicdCTLR      = 0x000 // distributor control
	gicdTYPER     = 0x004 // controller type (implemented line count)
	gicdIGROUPR   = 0x080 // group, 32 lines per word
	gicdISENABLER = 0x100 // set-enable, 32 lines per word
	gicdICENABLER = 0x180 // clear-enable, 32 lines per word
	gicdICPENDR   = 0x280 // clear-pending, 32 lines per word
	gicdIPRIORITY = 0x400 // priority, 4 lines per word
	gicdITARGETSR = 0x800 // target core mask, 4 lines per word
)

// Per-core interface register offsets.
const (
	giccCTLR = 0x000 // interface control
	giccPMR  = 0x004 // priority mask
	giccBPR  = 0x008 // binary point (sub-priority split)
	giccIAR  = 0x00C // acknowledge
	giccEOIR = 0x010 // end of interrupt
)

const (
	// Line number ranges. SGIs are software generated, PPIs are private to
	// one core, SPIs are routable to any core.
	SGIBase = 0
	PPIBase = 16
	SPIBase = 32

	// MaxLines is the architectural ceiling on line numbers.
	MaxLines = 1020

	// SpuriousID is what the acknowledge register reports when no line is
	// actually pending. Callers treat it as a no-op, not an error.
	SpuriousID = 1023

	// DefaultPriority is programmed on every line at init. 0 is the most
	// urgent priority, 255 the least.
	DefaultPriority = 0x80

	// priorityMaskAllButLowest admits every priority band except the
	// lowest when written to the per-core priority mask register.
	priorityMaskAllButLowest = 0xF0

	ctlrEnable = 0x1
)

// Handler runs in interrupt context when its line is dispatched. Keep it
// short.
type Handler func()

// Driver owns the distributor and one core's interface. All operations are
// unconditional register writes; there is no recoverable error path in this
// hardware.
type Driver struct {
	dist     mmio.Region
	core     mmio.Region
	lines    uint32
	handlers [MaxLines]Handler
}

// New returns a driver over the distributor and per-core register windows.
// Nothing is touched until Init.
func New(dist, core mmio.Region) *Driver {
	return &Driver{dist: dist, core: core}
}

// Init brings up the distributor and then this core's interface. Intended to
// run exactly once per core at boot, before any line-specific configuration;
// running it again before that point just repeats the same writes.
func (g *Driver) Init() {
	// Global dispatch off while we reconfigure.
	g.dist.Write32(gicdCTLR, 0)

	// The type register reports (lines/32)-1 in its low five bits.
	typer := g.dist.Read32(gicdTYPER)
	g.lines = 32 * ((typer & 0x1F) + 1)
	if g.lines > MaxLines {
		g.lines = MaxLines
	}

	for i := uint32(0); i < g.lines; i += 32 {
		// Every line disabled, nothing left pending from before us.
		g.dist.Write32(gicdICENABLER+uintptr(i/32)*4, 0xFFFFFFFF)
		g.dist.Write32(gicdICPENDR+uintptr(i/32)*4, 0xFFFFFFFF)
		// One security group for everything.
		g.dist.Write32(gicdIGROUPR+uintptr(i/32)*4, 0)
	}
	for i := uint32(0); i < g.lines; i += 4 {
		g.dist.Write32(gicdIPRIORITY+uintptr(i/4)*4,
			DefaultPriority<<24|DefaultPriority<<16|DefaultPriority<<8|DefaultPriority)
	}
	// SPIs routed to this core. SGIs and PPIs are core-local already.
	for i := uint32(SPIBase); i < g.lines; i += 4 {
		g.dist.Write32(gicdITARGETSR+uintptr(i/4)*4, 0x01010101)
	}

	g.dist.Write32(gicdCTLR, ctlrEnable)

	// Per-core interface: admit all but the lowest priority band, no
	// sub-priority split, then switch it on.
	g.core.Write32(giccPMR, priorityMaskAllButLowest)
	g.core.Write32(giccBPR, 0)
	g.core.Write32(giccCTLR, ctlrEnable)

	trust.Infof("gicv2: %d lines, routed to this core", g.lines)
}

// Lines reports the implemented line count discovered at Init.
func (g *Driver) Lines() uint32 {
	return g.lines
}

// Enable turns on delivery of one line.
func (g *Driver) Enable(id uint32) {
	if id >= g.lines {
		return
	}
	g.dist.Write32(gicdISENABLER+uintptr(id/32)*4, 1<<(id%32))
}

// Disable turns off delivery of one line. The clear-enable register is
// write-one-to-clear, so this never read-modify-writes and cannot race a
// concurrently firing line.
func (g *Driver) Disable(id uint32) {
	if id >= g.lines {
		return
	}
	g.dist.Write32(gicdICENABLER+uintptr(id/32)*4, 1<<(id%32))
}

// SetPriority programs one line's 8-bit priority (0 most urgent). Priorities
// pack four lines per word, so this is a read-modify-write that must leave
// the other three lines' bytes alone.
func (g *Driver) SetPriority(id uint32, priority uint8) {
	if id >= g.lines {
		return
	}
	off := gicdIPRIORITY + uintptr(id/4)*4
	shift := (id % 4) * 8
	v := g.dist.Read32(off)
	v &^= 0xFF << shift
	v |= uint32(priority) << shift
	g.dist.Write32(off, v)
}

// SetTarget routes one shared line to the cores in coreMask. SGIs and PPIs
// are implicitly core-local and are left untouched. Same byte-packing
// discipline as SetPriority.
func (g *Driver) SetTarget(id uint32, coreMask uint8) {
	if id < SPIBase || id >= g.lines {
		return
	}
	off := gicdITARGETSR + uintptr(id/4)*4
	shift := (id % 4) * 8
	v := g.dist.Read32(off)
	v &^= 0xFF << shift
	v |= uint32(coreMask) << shift
	g.dist.Write32(off, v)
}

// Acknowledge claims the highest-priority pending line for this core and
// returns its number, or SpuriousID when nothing is really pending.
func (g *Driver) Acknowledge() uint32 {
	return g.core.Read32(giccIAR) & 0x3FF
}

// EndOfInterrupt tells the controller we are done with a line it delivered.
// Call it exactly once per Acknowledge that returned a real line, and only
// after the handler's hardware-visible work is finished, or the controller
// will withhold everything at or below that priority.
func (g *Driver) EndOfInterrupt(id uint32) {
	g.core.Write32(giccEOIR, id)
}

// RegisterHandler binds a handler to a line. Passing nil unbinds.
func (g *Driver) RegisterHandler(id uint32, h Handler) {
	if id >= MaxLines {
		return
	}
	g.handlers[id] = h
}

// DispatchIRQ is the single entry point for the low-level vector code: it
// acknowledges one interrupt, runs the matching handler, and completes the
// line. A spurious acknowledge is a no-op.
func (g *Driver) DispatchIRQ() {
	id := g.Acknowledge()
	if id >= MaxLines {
		return
	}
	if h := g.handlers[id]; h != nil {
		h()
	} else {
		trust.Warnf("gicv2: no handler for line %d", id)
	}
	g.EndOfInterrupt(id)
}
