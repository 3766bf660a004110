/*
Package statsd implements a dialect-aware statsd client with batching and automatic reconnects.

Metrics, events and service checks are rendered into the statsd line protocol by one of two
dialects: the reference (Etsy statsd) dialect, which only knows counters, timers, gauges and
sets, and the vendor (DogStatsD) dialect, which adds histograms, distributions, events,
service checks and tags. Each dialect validates keys, tags and values before anything is
queued, so a bad metric name is reported to the caller instead of being silently mangled
on the wire.

Architecture is the following:

 * every record is validated and formatted by the dialect on the caller goroutine
 * formatted lines are appended to the current frame: a byte-bounded datagram (MTU) for
   UDP, a record-count bounded batch for TCP and Unix sockets
 * frame is flushed either when it is full or when the flush delay elapses after the first
   record landed in it
 * single goroutine per transport is handling network operations: it owns the socket, so at
   most one write is in flight and records leave in the order they were queued
 * UDP writes are fire-and-forget; stream transports reconnect with exponential backoff and
   retry until the data is written

Ideas were borrowed from the following stastd clients:

 * https://github.com/quipo/statsd
 * https://github.com/Unix4ever/statsd
 * https://github.com/alexcesaro/statsd/
 * https://github.com/DataDog/datadog-go

*/
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
