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

import "sync"

// SinkTransport delivers every record straight to the logger, nothing is sent over the network
//
// Useful in development and tests, records are logged at info level.
type SinkTransport struct {
	logger Logger

	lock   sync.Mutex
	closed bool
}

// NewSinkTransport creates logger transport, nil logger discards records
func NewSinkTransport(logger Logger) *SinkTransport {
	return &SinkTransport{logger: loggerOrNop(logger)}
}

// Enqueue logs the record
func (t *SinkTransport) Enqueue(line string) error {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.closed {
		return ErrClosed
	}

	t.logger.Info("StatsD.Logger: " + line)

	return nil
}

// Close marks transport closed
func (t *SinkTransport) Close() error {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.closed {
		return ErrClosed
	}

	t.closed = true

	return nil
}
