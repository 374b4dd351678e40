// Package virt assembles the simulated board: the GIC model, the counter
// model, the console, and the kernel core on top, wired together the same
// way the boot sequence wires the real hardware. Tests and the CLI drive
// time through it tick by tick.
package virt

import (
	"github.com/CodeTheEagle/PhotonX-OS/hardware/armtimer"
	"github.com/CodeTheEagle/PhotonX-OS/hardware/gicv2"
	"github.com/CodeTheEagle/PhotonX-OS/kernel/hocs"
	"github.com/CodeTheEagle/PhotonX-OS/lib/console"
	"github.com/CodeTheEagle/PhotonX-OS/lib/trust"
)

// SimCPU models the core-local interrupt mask with nesting, and remembers
// whether anything ever ran unmasked that should not have.
type SimCPU struct {
	depth int
}

func (c *SimCPU) MaskInterrupts() {
	c.depth++
}

func (c *SimCPU) UnmaskInterrupts() {
	if c.depth == 0 {
		trust.Fatalf(2, "virt: unbalanced interrupt unmask")
	}
	c.depth--
}

// Masked reports whether interrupts are masked right now.
func (c *SimCPU) Masked() bool { return c.depth > 0 }

// Options sizes a board. Zero fields take the scheduler and timer defaults.
type Options struct {
	CounterHz uint64 // reported counter frequency; 0 exercises the fallback
	GICLines  uint32
	TickNanos uint64 // timer period between scheduler ticks
	Sched     hocs.Config
}

// Board is one simulated machine instance.
type Board struct {
	GIC     *gicv2.Sim
	Counter *armtimer.SimCounter
	CPU     *SimCPU
	Trace   *hocs.TraceSwitcher

	IC    *gicv2.Driver
	Timer *armtimer.Driver
	Sched *hocs.Scheduler

	Con *console.Console
	Out *console.Buffer

	tickNS uint64
}

// NewBoard builds the device models and drivers. Nothing is initialized
// until Boot.
func NewBoard(opt Options) *Board {
	if opt.GICLines == 0 {
		opt.GICLines = 64
	}
	if opt.TickNanos == 0 {
		opt.TickNanos = 1_000_000 // 1ms scheduler tick
	}
	b := &Board{
		GIC:     gicv2.NewSim(opt.GICLines),
		Counter: armtimer.NewSimCounter(opt.CounterHz),
		CPU:     &SimCPU{},
		Trace:   &hocs.TraceSwitcher{},
		Out:     &console.Buffer{},
		tickNS:  opt.TickNanos,
	}
	b.Con = console.New(b.Out, 1024)
	b.IC = gicv2.New(b.GIC.Dist(), b.GIC.Core())
	b.Timer = armtimer.New(b.Counter, b.IC)
	b.Sched = hocs.New(opt.Sched, b.CPU, b.Trace)
	return b
}

// Boot runs the bring-up order the kernel depends on: interrupt controller
// first, then the timer, then the scheduler hook, and only then an armed
// deadline. Task creation belongs to the caller, between Boot and the first
// Step.
func (b *Board) Boot() {
	b.IC.Init()
	b.Timer.Init()
	b.Timer.SetTickCallback(b.Sched.Tick)
	b.Timer.ArmTimeout(b.tickNS)
}

// TickNanos returns the timer period the board re-arms after every tick.
func (b *Board) TickNanos() uint64 {
	return b.tickNS
}

// Step advances the counter and delivers the timer interrupt if it fired:
// the line goes pending in the GIC, the vector path acknowledges and
// dispatches it, and the timer is re-armed for the next quantum boundary.
func (b *Board) Step(ticks uint64) {
	b.Counter.Advance(ticks)
	if !b.Counter.Fired() {
		return
	}
	b.GIC.SetPending(armtimer.IRQLine)
	b.IC.DispatchIRQ()
	b.Timer.ArmTimeout(b.tickNS)
}

// StepTick advances far enough to take exactly one timer interrupt.
func (b *Board) StepTick() {
	b.Step(b.Timer.NanosecondsToTicks(b.tickNS) + 1)
}

// RunTicks takes n timer interrupts.
func (b *Board) RunTicks(n int) {
	for i := 0; i < n; i++ {
		b.StepTick()
	}
}

// RunQuantum takes one full scheduler quantum's worth of timer interrupts.
func (b *Board) RunQuantum() {
	b.RunTicks(int(b.Sched.QuantumTicks()))
}
