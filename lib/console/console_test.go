package console

import "testing"

func TestRingFIFO(t *testing.T) {
	r := NewRing(8)
	if !r.Empty() {
		t.Errorf("fresh ring not empty")
	}
	for i := byte(0); i < 8; i++ {
		if !r.Put('a' + i) {
			t.Errorf("put %d refused on a non-full ring", i)
		}
	}
	if !r.Full() {
		t.Errorf("ring not full after filling")
	}
	if r.Put('z') {
		t.Errorf("put accepted on a full ring")
	}
	for i := byte(0); i < 8; i++ {
		b, ok := r.Get()
		if !ok || b != 'a'+i {
			t.Errorf("get %d returned %q, want %q", i, b, 'a'+i)
		}
	}
	if _, ok := r.Get(); ok {
		t.Errorf("get on an empty ring succeeded")
	}
}

func TestRingWrap(t *testing.T) {
	r := NewRing(4)
	// Run the indices well past the buffer size.
	for i := 0; i < 100; i++ {
		if !r.Put(byte(i)) {
			t.Fatalf("put %d refused", i)
		}
		b, ok := r.Get()
		if !ok || b != byte(i) {
			t.Fatalf("get %d returned %d", i, b)
		}
	}
	if 0 != r.Len() {
		t.Errorf("ring length %d after draining, want 0", r.Len())
	}
}

func TestRingRoundsToPowerOfTwo(t *testing.T) {
	r := NewRing(5)
	for i := 0; i < 8; i++ {
		if !r.Put(byte(i)) {
			t.Errorf("put %d refused; capacity not rounded up", i)
		}
	}
}

func TestConsoleWriteTranslatesNewlines(t *testing.T) {
	out := &Buffer{}
	c := New(out, 64)
	n, err := c.Write([]byte("ok\n"))
	if err != nil || n != 3 {
		t.Errorf("write returned (%d, %v)", n, err)
	}
	if "ok\r\n" != out.String() {
		t.Errorf("transmitted %q, want %q", out.String(), "ok\r\n")
	}
}

func TestConsoleReceivePath(t *testing.T) {
	c := New(&Buffer{}, 64)
	c.Push('x')
	c.Push('y')
	if b, ok := c.GetByte(); !ok || b != 'x' {
		t.Errorf("first received byte %q", b)
	}
	if b, ok := c.GetByte(); !ok || b != 'y' {
		t.Errorf("second received byte %q", b)
	}
	if _, ok := c.GetByte(); ok {
		t.Errorf("read from an empty receive ring succeeded")
	}
}

func TestBufferReset(t *testing.T) {
	w := &Buffer{}
	w.PutByte('a')
	w.Reset()
	w.PutByte('b')
	if "b" != w.String() {
		t.Errorf("buffer holds %q after reset, want %q", w.String(), "b")
	}
}
