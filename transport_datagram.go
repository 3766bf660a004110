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
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

// DatagramTransport sends MTU-sized frames over UDP or unixgram socket
//
// Delivery is fire-and-forget: failed write is logged and the frame is lost, socket is
// dialed again on the next frame.
type DatagramTransport struct {
	*batcher

	network string
	addr    string
	logger  Logger

	// socket state is confined to the send loop goroutine
	sock   net.Conn
	dialed time.Time
}

// NewDatagramTransport creates datagram transport, mtu is the maximum size of one packet payload
//
// Socket is dialed lazily on the first flush.
func NewDatagramTransport(network, addr string, mtu int, options TransportOptions) (*DatagramTransport, error) {
	switch network {
	case "udp", "udp4", "udp6", "unixgram":
	default:
		return nil, errors.Errorf("statsd: %q is not a datagram network", network)
	}

	if mtu <= 0 {
		return nil, errors.Errorf("statsd: invalid MTU %d", mtu)
	}

	options = options.withDefaults()

	t := &DatagramTransport{
		network: network,
		addr:    addr,
		logger:  options.Logger,
	}

	pool := newBufferPool(options.BufPoolCapacity, mtu)
	t.batcher = newBatcher(describeAddr(network, addr), newByteFrame(mtu, pool), pool, options, t.write)

	return t, nil
}

// Enqueue adds record to the current datagram
//
// Record longer than MTU returns ErrTooLarge.
func (t *DatagramTransport) Enqueue(line string) error {
	return t.enqueue(line)
}

// Close flushes queued records and closes the socket
func (t *DatagramTransport) Close() error {
	return t.Shutdown(context.Background())
}

// Shutdown is Close which gives up on unsent data once ctx is done
func (t *DatagramTransport) Shutdown(ctx context.Context) error {
	err := t.close(ctx, func() {})

	if t.sock != nil {
		_ = t.sock.Close()
		t.sock = nil
	}

	return err
}

// LostFrames returns number of datagrams lost during transport lifecycle
func (t *DatagramTransport) LostFrames() int64 {
	return t.lostFrames()
}

func (t *DatagramTransport) write(buf []byte) {
	if t.sock != nil && t.options.ReconnectInterval > 0 && time.Since(t.dialed) >= t.options.ReconnectInterval {
		_ = t.sock.Close()
		t.sock = nil
	}

	if t.sock == nil {
		sock, err := net.Dial(t.network, t.addr)
		if err != nil {
			t.logger.Error(fmt.Sprintf("[STATSD] Error connecting to server %s: %s", t.desc, err))
			t.lost()
			return
		}

		t.sock = sock
		t.dialed = time.Now()
	}

	if _, err := t.sock.Write(buf); err != nil {
		t.logger.Warning(fmt.Sprintf("[STATSD] Error writing to socket %s: %s", t.desc, err))
		t.lost()

		_ = t.sock.Close()
		t.sock = nil
	}
}

func (t *DatagramTransport) lost() {
	atomic.AddInt64(&t.lostPacketsPeriod, 1)
	atomic.AddInt64(&t.lostPacketsOverall, 1)
}
