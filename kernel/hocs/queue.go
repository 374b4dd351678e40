package hocs

import "github.com/CodeTheEagle/PhotonX-OS/lib/trust"

// readyQueue is one priority level's FIFO of runnable tasks. It holds only
// indices; the links live in the PCBs themselves, so a task can be in at
// most one queue and that fact is checkable.
//
// Callers hold interrupts masked around every operation here.
type readyQueue struct {
	head int16
	tail int16
}

func (q *readyQueue) init() {
	q.head = noTask
	q.tail = noTask
}

func (q *readyQueue) empty() bool {
	return q.head == noTask
}

// append places id at the tail. A task already in a queue is a corrupted
// scheduler, not a recoverable condition.
func (q *readyQueue) append(table []PCB, id TaskID) {
	p := &table[id]
	if p.inQueue {
		trust.Fatalf(2, "hocs: task %d (%s) queued twice", id, p.name)
	}
	p.next = noTask
	p.inQueue = true
	if q.tail == noTask {
		q.head = int16(id)
	} else {
		table[q.tail].next = int16(id)
	}
	q.tail = int16(id)
}

// removeHead pops and returns the first task. Must not be called on an
// empty queue.
func (q *readyQueue) removeHead(table []PCB) TaskID {
	id := TaskID(q.head)
	p := &table[id]
	if !p.inQueue {
		trust.Fatalf(2, "hocs: task %d (%s) at queue head but not marked queued", id, p.name)
	}
	q.head = p.next
	if q.head == noTask {
		q.tail = noTask
	}
	p.next = noTask
	p.inQueue = false
	return id
}
