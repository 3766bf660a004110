package statsd

/*

Copyright (c) 2017 Andrey Smirnov

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.

*/

import "github.com/pkg/errors"

// bufferPool recycles frame buffers between the frame and the send loop
type bufferPool struct {
	pool chan []byte
	size int
}

func newBufferPool(capacity, size int) *bufferPool {
	return &bufferPool{
		pool: make(chan []byte, capacity),
		size: size,
	}
}

func (p *bufferPool) get() []byte {
	select {
	case buf := <-p.pool:
		return buf[0:0]
	default:
		return make([]byte, 0, p.size)
	}
}

func (p *bufferPool) put(buf []byte) {
	select {
	case p.pool <- buf:
	default:
		// pool is full, let GC handle the buf
	}
}

// frame accumulates formatted records until they are handed off to the wire
//
// frame is owned by one transport and guarded by its lock.
type frame interface {
	// append adds a line to the frame
	//
	// If the line doesn't fit next to the current content, current content is
	// returned to be flushed first and the line starts a fresh frame.
	append(line string) (flushed []byte, err error)

	// full reports whether frame has to be flushed now
	full() bool

	// empty reports whether there's nothing to flush
	empty() bool

	// take hands off current content and resets the frame
	take() []byte
}

// byteFrame is a newline-joined datagram payload bounded by MTU
type byteFrame struct {
	pool     *bufferPool
	buf      []byte
	capacity int
}

func newByteFrame(capacity int, pool *bufferPool) *byteFrame {
	return &byteFrame{
		pool:     pool,
		buf:      pool.get(),
		capacity: capacity,
	}
}

func (f *byteFrame) append(line string) ([]byte, error) {
	if len(line) > f.capacity {
		return nil, errors.Wrapf(ErrTooLarge, "%d byte record exceeds %d byte frame", len(line), f.capacity)
	}

	var flushed []byte

	if len(f.buf) > 0 && len(f.buf)+1+len(line) > f.capacity {
		flushed = f.take()
	}

	if len(f.buf) > 0 {
		f.buf = append(f.buf, '\n')
	}
	f.buf = append(f.buf, line...)

	return flushed, nil
}

// full is true when not even a one-byte record fits anymore
func (f *byteFrame) full() bool {
	return len(f.buf)+2 > f.capacity
}

func (f *byteFrame) empty() bool {
	return len(f.buf) == 0
}

func (f *byteFrame) take() []byte {
	buf := f.buf
	f.buf = f.pool.get()

	return buf
}

// countFrame is a batch of newline-terminated stream records bounded by record count
type countFrame struct {
	pool     *bufferPool
	buf      []byte
	records  int
	maxQueue int
}

func newCountFrame(maxQueue int, pool *bufferPool) *countFrame {
	return &countFrame{
		pool:     pool,
		buf:      pool.get(),
		maxQueue: maxQueue,
	}
}

func (f *countFrame) append(line string) ([]byte, error) {
	f.buf = append(f.buf, line...)
	f.buf = append(f.buf, '\n')
	f.records++

	return nil, nil
}

func (f *countFrame) full() bool {
	return f.records >= f.maxQueue
}

func (f *countFrame) empty() bool {
	return f.records == 0
}

func (f *countFrame) take() []byte {
	buf := f.buf
	f.buf = f.pool.get()
	f.records = 0

	return buf
}
