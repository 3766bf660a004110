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

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Transport delivers formatted records to the server
//
// Enqueue never blocks on the network: it fails only on caller mistakes
// (record can never fit into a frame, transport is closed). Close flushes
// everything queued and releases the connection; second Close returns ErrClosed.
type Transport interface {
	Enqueue(line string) error
	Close() error
}

// Default transport settings
const (
	DefaultMTU               = 1500
	DefaultMaxQueue          = 100
	DefaultMaxDelay          = time.Second
	DefaultSendQueueCapacity = 10
	DefaultBufPoolCapacity   = 20
	DefaultReportInterval    = time.Minute
)

// TransportOptions are settings shared by batching transports
//
// Zero values are replaced with defaults, nil Logger discards logs.
type TransportOptions struct {
	// MaxDelay is the longest time record waits in partially filled frame
	MaxDelay time.Duration
	// SendQueueCapacity is the number of full frames waiting for the network,
	// frames over the limit are dropped and counted as lost
	SendQueueCapacity int
	// BufPoolCapacity is the number of frame buffers kept for reuse
	BufPoolCapacity int
	// ReportInterval is the period of lost frames reports, negative disables reports
	ReportInterval time.Duration
	// ReconnectInterval makes datagram transport re-dial periodically (to pick up DNS changes)
	ReconnectInterval time.Duration
	Logger            Logger
}

func (o TransportOptions) withDefaults() TransportOptions {
	if o.MaxDelay <= 0 {
		o.MaxDelay = DefaultMaxDelay
	}
	if o.SendQueueCapacity <= 0 {
		o.SendQueueCapacity = DefaultSendQueueCapacity
	}
	if o.BufPoolCapacity <= 0 {
		o.BufPoolCapacity = DefaultBufPoolCapacity
	}
	if o.ReportInterval == 0 {
		o.ReportInterval = DefaultReportInterval
	}
	o.Logger = loggerOrNop(o.Logger)

	return o
}

// batcher is the frame + flush scheduling core shared by datagram and stream transports
//
// Records are appended to the frame under the lock. Full frames are queued
// for the send loop right away, partially filled frame is queued when the flush
// timer fires. Single send loop goroutine writes frames one by one, so at most
// one write is in flight and frames leave in queue order.
type batcher struct {
	options TransportOptions
	desc    string

	pool  *bufferPool
	frame frame
	send  func(buf []byte)

	lock     sync.Mutex
	timer    *time.Timer
	timerGen uint64
	inFlight bool
	closing  bool
	residue  []byte

	sendQueue chan []byte

	shutdown   chan struct{}
	sendDone   chan struct{}
	shutdownWg sync.WaitGroup

	lostPacketsPeriod, lostPacketsOverall int64
}

func newBatcher(desc string, f frame, pool *bufferPool, options TransportOptions, send func(buf []byte)) *batcher {
	b := &batcher{
		options:   options,
		desc:      desc,
		pool:      pool,
		frame:     f,
		send:      send,
		sendQueue: make(chan []byte, options.SendQueueCapacity),
		shutdown:  make(chan struct{}),
		sendDone:  make(chan struct{}),
	}

	b.shutdownWg.Add(1)
	go b.sendLoop()

	if options.ReportInterval > 0 {
		b.shutdownWg.Add(1)
		go b.reportLoop()
	}

	return b
}

func (b *batcher) enqueue(line string) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	if b.closing {
		return ErrClosed
	}

	flushed, err := b.frame.append(line)
	if err != nil {
		return err
	}

	if flushed != nil {
		b.queueFrame(flushed)
	}

	if b.frame.full() {
		b.stopTimer()
		b.queueFrame(b.frame.take())

		return nil
	}

	if b.timer == nil && !b.inFlight {
		b.armTimer()
	}

	return nil
}

// queueFrame passes frame to the send loop, called with lock held
func (b *batcher) queueFrame(buf []byte) {
	select {
	case b.sendQueue <- buf:
	default:
		// flush failed, we lost some data
		atomic.AddInt64(&b.lostPacketsPeriod, 1)
		atomic.AddInt64(&b.lostPacketsOverall, 1)
	}
}

func (b *batcher) armTimer() {
	b.timerGen++
	gen := b.timerGen
	b.timer = time.AfterFunc(b.options.MaxDelay, func() { b.flushTimer(gen) })
}

func (b *batcher) stopTimer() {
	if b.timer == nil {
		return
	}

	b.timer.Stop()
	b.timer = nil
	b.timerGen++
}

// flushTimer queues partially filled frame once flush delay elapses
func (b *batcher) flushTimer(gen uint64) {
	b.lock.Lock()
	defer b.lock.Unlock()

	if gen != b.timerGen {
		// timer was stopped or replaced while we were waiting for the lock
		return
	}

	b.timer = nil

	if b.closing || b.frame.empty() {
		return
	}

	b.queueFrame(b.frame.take())
}

// startSend marks write as in flight
func (b *batcher) startSend() {
	b.lock.Lock()
	b.inFlight = true
	b.lock.Unlock()
}

// finishSend re-arms the timer for records queued during the write, so that
// nothing is left waiting for a threshold which might never be reached
func (b *batcher) finishSend() {
	b.lock.Lock()
	b.inFlight = false

	if !b.closing && b.timer == nil && !b.frame.empty() {
		b.armTimer()
	}
	b.lock.Unlock()
}

// close stops accepting records, flushes everything and waits for the send loop
//
// If ctx expires before everything is written, abort is called to give up on the
// rest of the data.
func (b *batcher) close(ctx context.Context, abort func()) error {
	b.lock.Lock()
	if b.closing {
		b.lock.Unlock()
		return ErrClosed
	}

	b.closing = true
	b.stopTimer()

	if !b.frame.empty() {
		b.residue = b.frame.take()
	}

	// nobody sends to the queue once closing is set
	close(b.sendQueue)
	b.lock.Unlock()

	close(b.shutdown)

	var err error

	select {
	case <-b.sendDone:
	case <-ctx.Done():
		err = ctx.Err()
		abort()
		<-b.sendDone
	}

	b.shutdownWg.Wait()

	return err
}

// lostFrames returns number of frames dropped because send queue was full
func (b *batcher) lostFrames() int64 {
	return atomic.LoadInt64(&b.lostPacketsOverall)
}

// describeAddr formats address for logging: "host:port (udp)" or "/path (unix)"
func describeAddr(network, addr string) string {
	return addr + " (" + network + ")"
}
