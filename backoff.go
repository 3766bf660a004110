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
	"math/rand"
	"time"

	"github.com/jpillora/backoff"
)

const (
	backoffMin    = time.Second
	backoffMax    = 64 * time.Second // 2^6 seconds
	backoffJitter = time.Second
)

// Backoff produces reconnect delays: 1s, 2s, 4s, ... 64s, 64s, ..., each one
// with random jitter in [0, 1s) added to spread reconnect swarms
//
// Backoff is not safe for concurrent use.
type Backoff struct {
	b      backoff.Backoff
	jitter func() time.Duration
}

// NewBackoff creates fresh delay sequence
func NewBackoff() *Backoff {
	return &Backoff{
		b: backoff.Backoff{
			Min:    backoffMin,
			Max:    backoffMax,
			Factor: 2,
		},
		jitter: randomJitter,
	}
}

// Next returns next delay in the sequence
func (b *Backoff) Next() time.Duration {
	return b.b.Duration() + b.jitter()
}

// Attempt returns number of delays produced since last Reset
func (b *Backoff) Attempt() int {
	return int(b.b.Attempt())
}

// Reset restarts the sequence from 1s
func (b *Backoff) Reset() {
	b.b.Reset()
}

func randomJitter() time.Duration {
	return time.Duration(rand.Int63n(int64(backoffJitter/time.Millisecond))) * time.Millisecond
}
