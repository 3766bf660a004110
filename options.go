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

import "time"

// Transport modes
const (
	ModeUDP      = "udp"
	ModeTCP      = "tcp"
	ModeUnix     = "unix"
	ModeUnixgram = "unixgram"
	ModeLogger   = "logger"
)

// Default settings
const (
	DefaultAddr           = "localhost:8125"
	DefaultMode           = ModeUDP
	DefaultMetricPrefix   = ""
	DefaultSampleRate     = 1.0
	DefaultLogPrefix      = "[STATSD] "
	DefaultSafeSampleRate = true
)

// ClientOptions are statsd client settings
type ClientOptions struct {
	// Addr is statsd server address in "host:port" format, or socket path for unix modes
	Addr string

	// Mode is the transport: "udp", "tcp", "unix", "unixgram" or "logger"
	Mode string

	// Dialect is the protocol flavor: DialectStatsD or DialectDatadog
	Dialect string

	// MetricPrefix is metrics name prefix, prepended to every metric key
	MetricPrefix string

	// MTU is maximum datagram payload size (datagram modes)
	MTU int

	// MaxQueue is number of records batched into one write (stream modes)
	MaxQueue int

	// MaxDelay is the longest time record waits before it is sent
	MaxDelay time.Duration

	// SampleRate is default sample rate applied to every metric
	SampleRate float64

	// SafeSampleRate disables sampling for gauge deltas and sets, which can't be
	// restored on the server side
	SafeSampleRate bool

	// GlobalTags are attached to every metric, event and service check
	GlobalTags Tags

	// Hostname is the default host of events and service checks
	Hostname string

	// ReconnectInterval makes datagram transport re-dial periodically,
	// useful to pick up DNS changes; 0 disables it
	ReconnectInterval time.Duration

	// ReportInterval is the interval to report lost frames; negative disables it
	ReportInterval time.Duration

	// SendQueueCapacity is the number of frames waiting for the network
	SendQueueCapacity int

	// BufPoolCapacity is the number of frame buffers kept for reuse
	BufPoolCapacity int

	// Logger is used to report network errors and lost packets
	Logger Logger
}

// Option is type for option transport
type Option func(c *ClientOptions)

// Mode selects transport: ModeUDP (default), ModeTCP, ModeUnix, ModeUnixgram or ModeLogger
func Mode(mode string) Option {
	return func(c *ClientOptions) {
		c.Mode = mode
	}
}

// UseDialect selects protocol flavor: DialectStatsD (default) or DialectDatadog
func UseDialect(dialect string) Option {
	return func(c *ClientOptions) {
		c.Dialect = dialect
	}
}

// MetricPrefix is metrics name prefix
//
// Default is empty
func MetricPrefix(prefix string) Option {
	return func(c *ClientOptions) {
		c.MetricPrefix = prefix
	}
}

// MTU control maximum datagram payload size
//
// Default value is 1500 bytes, which is usually safe for server networks.
// Jumbo frames allow up to 8932, routing over the internet might need as little as 512.
func MTU(mtu int) Option {
	return func(c *ClientOptions) {
		c.MTU = mtu
	}
}

// MaxQueue controls number of records batched into one stream write
//
// Default value is 100
func MaxQueue(n int) Option {
	return func(c *ClientOptions) {
		c.MaxQueue = n
	}
}

// MaxDelay controls the longest time record waits for a frame to be flushed
//
// Frame might be sent sooner, when it is full. Default value is 1 second.
func MaxDelay(delay time.Duration) Option {
	return func(c *ClientOptions) {
		c.MaxDelay = delay
	}
}

// SampleRate sets default sample rate, in (0, 1]
//
// With 0.1 only one of ten metrics is sent, and server scales it up ten times.
func SampleRate(rate float64) Option {
	return func(c *ClientOptions) {
		c.SampleRate = rate
	}
}

// SafeSampleRate controls whether gauge deltas and set metrics are exempt from sampling
//
// Default is true
func SafeSampleRate(safe bool) Option {
	return func(c *ClientOptions) {
		c.SafeSampleRate = safe
	}
}

// GlobalTags sets tags attached to every metric
func GlobalTags(tags Tags) Option {
	return func(c *ClientOptions) {
		c.GlobalTags = tags
	}
}

// Hostname sets default host for events and service checks
func Hostname(host string) Option {
	return func(c *ClientOptions) {
		c.Hostname = host
	}
}

// ReconnectInterval controls UDP socket reconnects
//
// Reconnecting is important to follow DNS changes, e.g. in
// dynamic container environments like K8s where statsd server
// instance might be relocated leading to new IP address.
//
// By default reconnects are disabled
func ReconnectInterval(interval time.Duration) Option {
	return func(c *ClientOptions) {
		c.ReconnectInterval = interval
	}
}

// ReportInterval instructs client to report number of packets lost
// each interval via Logger
//
// By default lost packets are reported every minute, negative value disables reporting
func ReportInterval(interval time.Duration) Option {
	return func(c *ClientOptions) {
		c.ReportInterval = interval
	}
}

// SendQueueCapacity controls length of the queue of frames waiting for the network
//
// When the queue is full (server is slow or disconnected), frames are dropped.
//
// Default value is 10
func SendQueueCapacity(capacity int) Option {
	return func(c *ClientOptions) {
		c.SendQueueCapacity = capacity
	}
}

// BufPoolCapacity controls size of pre-allocated buffer cache
//
// Default value is 20
func BufPoolCapacity(capacity int) Option {
	return func(c *ClientOptions) {
		c.BufPoolCapacity = capacity
	}
}

// WithLogger sets logger for network errors, lost packets and the logger transport
//
// By default logrus standard logger is used, nil disables logging
func WithLogger(logger Logger) Option {
	return func(c *ClientOptions) {
		c.Logger = loggerOrNop(logger)
	}
}

// MetricOption customizes single metric call
type MetricOption func(m *metricOptions)

type metricOptions struct {
	sampleRate    float64
	hasSampleRate bool
	tags          Tags
}

// WithSampleRate overrides client sample rate for one call
func WithSampleRate(rate float64) MetricOption {
	return func(m *metricOptions) {
		m.sampleRate = rate
		m.hasSampleRate = true
	}
}

// WithTags adds tags to one call, on top of global tags
func WithTags(tags Tags) MetricOption {
	return func(m *metricOptions) {
		m.tags = m.tags.Merge(tags)
	}
}
