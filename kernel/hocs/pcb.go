package hocs

import "unsafe"

// TaskID indexes the process table. ID 0 is the idle task, always.
type TaskID uint16

// IdleID is the reserved slot of the idle task. It is never in a ready
// queue and runs only when nothing else can.
const IdleID TaskID = 0

// noTask marks an empty queue link.
const noTask int16 = -1

// TaskState is the lifecycle state of one task.
type TaskState uint8

const (
	Unused TaskState = iota
	Created
	Ready
	Running
	Blocked
	Zombie
)

func (s TaskState) String() string {
	switch s {
	case Unused:
		return "unused"
	case Created:
		return "created"
	case Ready:
		return "ready"
	case Running:
		return "running"
	case Blocked:
		return "blocked"
	case Zombie:
		return "zombie"
	}
	return "invalid"
}

// Context is the saved processor state of a task that is not currently
// executing: the callee-saved registers, frame pointer, link register,
// stack pointer, resume address and processor state. Only the switcher ever
// interprets these fields; the scheduler treats the whole struct as opaque.
type Context struct {
	X19, X20, X21, X22, X23 uint64
	X24, X25, X26, X27, X28 uint64
	FP                      uint64
	LR                      uint64
	SP                      uint64
	PC                      uint64
	PState                  uint64
}

// spawnPState is the initial saved processor state of a fresh task: EL1h
// with interrupts masked. The task unmasks once it is actually running and
// the kernel has enabled interrupts globally.
const spawnPState = 0x3C5

// PCB is the kernel's record of one task. The scheduler owns every PCB
// exclusively; tasks reach their own only through scheduler calls.
type PCB struct {
	id       TaskID
	name     string
	state    TaskState
	priority int

	// ticksLeft is what remains of the current quantum; runtime is the
	// cumulative tick count this task has been charged.
	ticksLeft uint64
	runtime   uint64

	// The stack region is fixed at creation, drawn from the static
	// per-slot pool, and never resized or freed independently.
	stack []byte

	// entry is the start routine, retained so a switcher implementation
	// can launch a first-run task. ctx.PC carries the same address.
	entry func()

	// next links this PCB into its priority's ready queue. inQueue makes
	// "member of exactly one queue" mechanically checkable.
	next    int16
	inQueue bool

	ctx Context
}

func (p *PCB) ID() TaskID       { return p.id }
func (p *PCB) Name() string     { return p.name }
func (p *PCB) State() TaskState { return p.state }
func (p *PCB) Priority() int    { return p.priority }

// Runtime returns the cumulative ticks this task has been charged for.
func (p *PCB) Runtime() uint64 { return p.runtime }

// StackTop returns the initial stack pointer: the high end of the task's
// region, 16-byte aligned.
func (p *PCB) StackTop() uint64 {
	top := uintptr(unsafe.Pointer(&p.stack[0])) + uintptr(len(p.stack))
	return uint64(top &^ 0xF)
}

// Entry returns the start routine fixed at creation.
func (p *PCB) Entry() func() { return p.entry }

// Context returns the saved processor state. Its contents are only
// meaningful while the task is not the one executing.
func (p *PCB) Context() *Context { return &p.ctx }

// codeAddr extracts the machine address of a start routine. fn must be a
// plain function, not a closure: the first word of a func value points at
// the code.
func codeAddr(fn func()) uint64 {
	return uint64(**(**uintptr)(unsafe.Pointer(&fn)))
}
