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
	"bytes"
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

// ConnState is the state of stream transport connection
type ConnState int32

// Connection states
const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateClosed:
		return "closed"
	}

	return "unknown"
}

// StreamTransport sends newline-terminated records over TCP or Unix stream socket
//
// Records are batched up to maxQueue per write. Failed write drops the connection,
// the transport reconnects with exponential backoff and writes again, forever: the only
// way to give up is Shutdown with a context which expires.
type StreamTransport struct {
	*batcher

	network string
	addr    string
	logger  Logger

	dialer  net.Dialer
	backoff *Backoff
	sleep   func(ctx context.Context, d time.Duration) bool

	ctx    context.Context
	cancel context.CancelFunc

	state int32

	connLock sync.Mutex
	conn     net.Conn
}

// NewStreamTransport creates stream transport, network is "tcp" or "unix"
//
// Connection is established lazily on the first flush.
func NewStreamTransport(network, addr string, maxQueue int, options TransportOptions) (*StreamTransport, error) {
	switch network {
	case "tcp", "tcp4", "tcp6", "unix":
	default:
		return nil, errors.Errorf("statsd: %q is not a stream network", network)
	}

	if maxQueue <= 0 {
		return nil, errors.Errorf("statsd: invalid max queue %d", maxQueue)
	}

	options = options.withDefaults()

	t := &StreamTransport{
		network: network,
		addr:    addr,
		logger:  options.Logger,
		backoff: NewBackoff(),
		sleep:   sleepContext,
	}
	t.ctx, t.cancel = context.WithCancel(context.Background())

	pool := newBufferPool(options.BufPoolCapacity, 256*maxQueue)
	t.batcher = newBatcher(describeAddr(network, addr), newCountFrame(maxQueue, pool), pool, options, t.write)

	return t, nil
}

// Enqueue adds record to the current batch
func (t *StreamTransport) Enqueue(line string) error {
	return t.enqueue(line)
}

// Close flushes queued records, waiting for the connection if needed, and closes it
func (t *StreamTransport) Close() error {
	return t.Shutdown(context.Background())
}

// Shutdown is Close which gives up on unsent data once ctx is done
func (t *StreamTransport) Shutdown(ctx context.Context) error {
	err := t.close(ctx, t.abort)

	t.cancel()
	t.dropConn()
	t.setState(StateClosed)

	return err
}

// State returns current connection state
func (t *StreamTransport) State() ConnState {
	return ConnState(atomic.LoadInt32(&t.state))
}

// LostFrames returns number of batches lost during transport lifecycle
func (t *StreamTransport) LostFrames() int64 {
	return t.lostFrames()
}

func (t *StreamTransport) setState(s ConnState) {
	atomic.StoreInt32(&t.state, int32(s))
}

// abort interrupts reconnects and pending write
func (t *StreamTransport) abort() {
	t.cancel()
	t.dropConn()
}

// write delivers the whole batch, reconnecting as many times as needed
func (t *StreamTransport) write(buf []byte) {
	for offset := 0; offset < len(buf); {
		conn := t.connect()
		if conn == nil {
			// aborted
			atomic.AddInt64(&t.lostPacketsPeriod, 1)
			atomic.AddInt64(&t.lostPacketsOverall, 1)
			return
		}

		n, err := conn.Write(buf[offset:])
		offset += n

		if err != nil {
			t.logger.Warning(fmt.Sprintf("[STATSD] Error writing to socket %s: %s, reconnecting", t.desc, err))
			t.dropConn()

			// partially written record is sent again in full on the new connection
			offset = bytes.LastIndexByte(buf[:offset], '\n') + 1
		}
	}
}

// connect returns live connection, dialing with backoff until it succeeds
//
// nil is returned if transport was aborted.
func (t *StreamTransport) connect() net.Conn {
	t.connLock.Lock()
	conn := t.conn
	t.connLock.Unlock()

	if conn != nil {
		return conn
	}

	t.setState(StateConnecting)
	t.backoff.Reset()

	for {
		if t.ctx.Err() != nil {
			t.setState(StateDisconnected)
			return nil
		}

		conn, err := t.dialer.DialContext(t.ctx, t.network, t.addr)
		if err == nil {
			t.connLock.Lock()
			t.conn = conn
			t.connLock.Unlock()

			t.setState(StateConnected)
			t.logger.Info(fmt.Sprintf("[STATSD] Connected to %s", t.desc))

			go t.checkEOF(conn)

			return conn
		}

		delay := t.backoff.Next()
		t.logger.Warning(fmt.Sprintf("[STATSD] Error connecting to server %s: %s, retrying in %s", t.desc, err, delay))

		if !t.sleep(t.ctx, delay) {
			t.setState(StateDisconnected)
			return nil
		}
	}
}

// checkEOF watches for the server closing the connection
//
// statsd server never writes anything back, but without reading we would happily
// keep writing into a connection the peer has already closed.
func (t *StreamTransport) checkEOF(conn net.Conn) {
	b := make([]byte, 512)

	for {
		n, err := conn.Read(b)
		if n > 0 {
			t.logger.Debug(fmt.Sprintf("[STATSD] Unexpected data from %s: %q", t.desc, b[:n]))
		}

		if err != nil {
			t.connLock.Lock()
			current := t.conn == conn
			t.connLock.Unlock()

			if current {
				t.logger.Info(fmt.Sprintf("[STATSD] Connection to %s closed: %s", t.desc, err))
				t.forgetConn(conn)
			}

			return
		}
	}
}

// forgetConn drops conn if it is still the current connection
func (t *StreamTransport) forgetConn(conn net.Conn) {
	t.connLock.Lock()
	dropped := t.conn == conn
	if dropped {
		_ = t.conn.Close()
		t.conn = nil
	}
	t.connLock.Unlock()

	if dropped && t.State() != StateClosed {
		t.setState(StateDisconnected)
	}
}

func (t *StreamTransport) dropConn() {
	t.connLock.Lock()
	if t.conn != nil {
		_ = t.conn.Close()
		t.conn = nil
	}
	t.connLock.Unlock()

	if t.State() != StateClosed {
		t.setState(StateDisconnected)
	}
}

// sleepContext waits for d, returns false if ctx is done first
func sleepContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
