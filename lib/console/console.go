// Package console is the character-oriented console boundary. The kernel
// core only ever sees the ByteWriter primitive; everything else here is the
// ring-buffered plumbing between that primitive and whatever is on the other
// end of the line (a UART on target, a terminal or a buffer on a host).
package console

// ByteWriter is the byte-output primitive consumed by the kernel for
// initialization diagnostics. It is not on the scheduling hot path.
type ByteWriter interface {
	PutByte(b byte)
}

// ByteReader is the matching input primitive.
type ByteReader interface {
	// GetByte returns the next received byte, or ok=false when the
	// receive side is empty.
	GetByte() (b byte, ok bool)
}

// Ring is a fixed-size byte ring. Size is rounded up to a power of two so
// the head/tail wrap is a mask, not a divide.
//
// A ring shared with interrupt context must only be touched with the
// interrupt line masked.
type Ring struct {
	buf  []byte
	head int
	tail int
	mask int
}

// NewRing returns a ring holding at least size bytes.
func NewRing(size int) *Ring {
	n := 1
	for n < size {
		n <<= 1
	}
	return &Ring{buf: make([]byte, n), mask: n - 1}
}

// Put appends one byte. When the ring is full the byte is dropped and Put
// reports false; the console never blocks the writer.
func (r *Ring) Put(b byte) bool {
	if r.Full() {
		return false
	}
	r.buf[r.head&r.mask] = b
	r.head++
	return true
}

// Get removes and returns the oldest byte.
func (r *Ring) Get() (byte, bool) {
	if r.Empty() {
		return 0, false
	}
	b := r.buf[r.tail&r.mask]
	r.tail++
	return b, true
}

func (r *Ring) Empty() bool { return r.head == r.tail }
func (r *Ring) Full() bool  { return r.head-r.tail == len(r.buf) }
func (r *Ring) Len() int    { return r.head - r.tail }

// Console couples a transmit ring and a receive ring to the byte
// primitives. Write is an io.Writer so the logging facade can be pointed
// straight at it.
type Console struct {
	out ByteWriter
	tx  *Ring
	rx  *Ring
}

// New returns a console transmitting through out with ring capacity size in
// each direction.
func New(out ByteWriter, size int) *Console {
	return &Console{out: out, tx: NewRing(size), rx: NewRing(size)}
}

// Write queues p for transmission and drains the transmit ring. Bytes that
// do not fit are dropped, not blocked on; Write always reports the full
// length so a logger above it never errors out.
func (c *Console) Write(p []byte) (int, error) {
	for _, b := range p {
		if b == '\n' {
			c.tx.Put('\r')
		}
		c.tx.Put(b)
	}
	c.Flush()
	return len(p), nil
}

// Flush pushes everything queued in the transmit ring out the byte
// primitive.
func (c *Console) Flush() {
	for {
		b, ok := c.tx.Get()
		if !ok {
			return
		}
		c.out.PutByte(b)
	}
}

// Push places one received byte in the receive ring. Called from the receive
// side (interrupt context on target).
func (c *Console) Push(b byte) {
	c.rx.Put(b)
}

// GetByte implements ByteReader over the receive ring.
func (c *Console) GetByte() (byte, bool) {
	return c.rx.Get()
}

// Buffer is a ByteWriter that collects output in memory, for tests and for
// capturing boot diagnostics.
type Buffer struct {
	b []byte
}

func (w *Buffer) PutByte(b byte) { w.b = append(w.b, b) }

func (w *Buffer) String() string { return string(w.b) }

func (w *Buffer) Reset() { w.b = w.b[:0] }
