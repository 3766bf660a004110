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
	"fmt"
	"sync/atomic"
	"time"
)

// sendLoop hands frames to the transport one at a time
func (b *batcher) sendLoop() {
	defer b.shutdownWg.Done()
	defer close(b.sendDone)

	for buf := range b.sendQueue {
		b.startSend()
		b.send(buf)
		b.finishSend()

		// return buffer to the pool
		b.pool.put(buf)
	}

	// queue is closed, write what was left in the frame
	b.lock.Lock()
	residue := b.residue
	b.residue = nil
	b.lock.Unlock()

	if len(residue) > 0 {
		b.send(residue)
	}
}

// reportLoop reports periodically number of frames lost
func (b *batcher) reportLoop() {
	defer b.shutdownWg.Done()

	reportTicker := time.NewTicker(b.options.ReportInterval)
	defer reportTicker.Stop()

	for {
		select {
		case <-b.shutdown:
			b.reportLost()
			return
		case <-reportTicker.C:
			b.reportLost()
		}
	}
}

func (b *batcher) reportLost() {
	lostPeriod := atomic.SwapInt64(&b.lostPacketsPeriod, 0)
	if lostPeriod > 0 {
		b.options.Logger.Warning(fmt.Sprintf("[STATSD] %d packets lost (overflow) for %s", lostPeriod, b.desc))
	}
}
