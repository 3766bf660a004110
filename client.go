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
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// EntityIDEnv is the environment variable read by the datadog dialect, its value
// becomes the "dd.internal.entity_id" global tag
const EntityIDEnv = "DD_ENTITY_ID"

const entityIDTag = "dd.internal.entity_id"

// Client implements statsd client
//
// Client validates and formats every metric synchronously, so caller mistakes are
// returned immediately. Formatted records are batched by the transport and sent
// in background.
type Client struct {
	options ClientOptions
	dialect Dialect
	trans   Transport

	randLock sync.Mutex
	rand     func() float64
	now      func() time.Time
}

// NewClient creates new statsd client and starts background processing
//
// Client connects to statsd server at addr ("host:port" or socket path)
//
// Client settings could be controlled via functions of type Option
func NewClient(addr string, options ...Option) (*Client, error) {
	c := &Client{
		options: ClientOptions{
			Addr:           addr,
			Mode:           DefaultMode,
			Dialect:        DialectStatsD,
			MetricPrefix:   DefaultMetricPrefix,
			MTU:            DefaultMTU,
			MaxQueue:       DefaultMaxQueue,
			MaxDelay:       DefaultMaxDelay,
			SampleRate:     DefaultSampleRate,
			SafeSampleRate: DefaultSafeSampleRate,
			ReportInterval: DefaultReportInterval,

			SendQueueCapacity: DefaultSendQueueCapacity,
			BufPoolCapacity:   DefaultBufPoolCapacity,

			Logger: defaultLogger(),
		},
		rand: rand.New(rand.NewSource(time.Now().UnixNano())).Float64,
		now:  time.Now,
	}

	for _, option := range options {
		option(&c.options)
	}

	if c.options.Addr == "" && c.options.Mode != ModeLogger {
		c.options.Addr = DefaultAddr
	}

	if c.options.SampleRate <= 0 || c.options.SampleRate > 1 {
		return nil, invalidFloat("Sample rate must be in (0, 1]", c.options.SampleRate)
	}

	var err error

	c.dialect, err = ParseDialect(c.options.Dialect, c.options.Mode == ModeUDP || c.options.Mode == ModeUnixgram || c.options.Mode == ModeLogger)
	if err != nil {
		return nil, err
	}

	if c.dialect.kind == dialectVendor {
		if entityID := os.Getenv(EntityIDEnv); entityID != "" {
			if _, ok := c.options.GlobalTags[entityIDTag]; !ok {
				c.options.GlobalTags = c.options.GlobalTags.Merge(Tags{entityIDTag: entityID})
			}
		}
	}

	if err = c.dialect.ValidateTags(c.options.GlobalTags); err != nil {
		return nil, errors.Wrap(err, "statsd: invalid global tags")
	}

	c.trans, err = newTransport(c.options)
	if err != nil {
		return nil, err
	}

	return c, nil
}

func newTransport(options ClientOptions) (Transport, error) {
	transportOptions := TransportOptions{
		MaxDelay:          options.MaxDelay,
		SendQueueCapacity: options.SendQueueCapacity,
		BufPoolCapacity:   options.BufPoolCapacity,
		ReportInterval:    options.ReportInterval,
		ReconnectInterval: options.ReconnectInterval,
		Logger:            options.Logger,
	}

	switch options.Mode {
	case ModeUDP, ModeUnixgram:
		return NewDatagramTransport(options.Mode, options.Addr, options.MTU, transportOptions)
	case ModeTCP, ModeUnix:
		return NewStreamTransport(options.Mode, options.Addr, options.MaxQueue, transportOptions)
	case ModeLogger:
		return NewSinkTransport(options.Logger), nil
	}

	return nil, errors.Errorf("statsd: unknown mode %q", options.Mode)
}

// Dialect returns protocol flavor used by the client
func (c *Client) Dialect() Dialect {
	return c.dialect
}

// Close stops the client, flushing all queued metrics
//
// Any use of the client after Close returns ErrClosed.
func (c *Client) Close() error {
	return c.trans.Close()
}

// Shutdown is Close which gives up on unsent metrics once ctx is done
//
// Stream transport retries writes until the server is reachable again, so Close
// might wait for a long time while the server is down.
func (c *Client) Shutdown(ctx context.Context) error {
	if s, ok := c.trans.(interface {
		Shutdown(ctx context.Context) error
	}); ok {
		return s.Shutdown(ctx)
	}

	return c.trans.Close()
}

// LostFrames returns number of frames lost because of network errors or overflow
func (c *Client) LostFrames() int64 {
	if l, ok := c.trans.(interface{ LostFrames() int64 }); ok {
		return l.LostFrames()
	}

	return 0
}

// Incr increments a counter metric
//
// Often used to note a particular event, for example incoming web request.
func (c *Client) Incr(stat string, count int64, opts ...MetricOption) error {
	return c.Count(stat, float64(count), opts...)
}

// Decr decrements a counter metric
//
// This is just Incr(stat, -count)
func (c *Client) Decr(stat string, count int64, opts ...MetricOption) error {
	return c.Count(stat, -float64(count), opts...)
}

// Count adds value to a counter metric
func (c *Client) Count(stat string, value float64, opts ...MetricOption) error {
	return c.Send(Measurement{Key: stat, Kind: KindCount, Value: value}, opts...)
}

// Timing tracks a duration event, the time delta must be given in milliseconds
func (c *Client) Timing(stat string, delta int64, opts ...MetricOption) error {
	return c.Send(Measurement{Key: stat, Kind: KindTiming, Value: float64(delta)}, opts...)
}

// PrecisionTiming track a duration event, the time delta has to be a duration
//
// Usually request processing time,  time to run database query, etc. are used with
// this metric type.
func (c *Client) PrecisionTiming(stat string, delta time.Duration, opts ...MetricOption) error {
	return c.Send(Measurement{Key: stat, Kind: KindTiming, Value: float64(delta) / float64(time.Millisecond)}, opts...)
}

// Gauge sets or updates constant value for the interval
//
// Gauges are a constant data type. They are not subject to averaging,
// and they don’t change unless you change them. That is, once you set a gauge value,
// it will be a flat line on the graph until you change it again. Absolute gauge
// can't be negative, use GaugeDelta to go below zero.
func (c *Client) Gauge(stat string, value float64, opts ...MetricOption) error {
	return c.Send(Measurement{Key: stat, Kind: KindGauge, Value: value}, opts...)
}

// GaugeDelta sends a change for a gauge
func (c *Client) GaugeDelta(stat string, delta float64, opts ...MetricOption) error {
	return c.Send(Measurement{Key: stat, Kind: KindGaugeDelta, Value: delta}, opts...)
}

// SetAdd adds unique element to a set
//
// Statsd server will provide cardinality of the set over aggregation period.
func (c *Client) SetAdd(stat string, value string, opts ...MetricOption) error {
	return c.Send(Measurement{Key: stat, Kind: KindSet, Member: value}, opts...)
}

// SetAddNumber adds unique numeric element to a set
func (c *Client) SetAddNumber(stat string, value float64, opts ...MetricOption) error {
	o, err := c.metricOptions(KindSet, opts)
	if err != nil {
		return err
	}

	line, err := FormatSetNumber(c.dialect, c.options.MetricPrefix+stat, value, o.sampleRate, o.tags)
	if err != nil {
		return err
	}

	return c.enqueue(line, o.sampleRate)
}

// Histogram sends value to be aggregated into percentiles by the agent (datadog only)
func (c *Client) Histogram(stat string, value float64, opts ...MetricOption) error {
	return c.Send(Measurement{Key: stat, Kind: KindHistogram, Value: value}, opts...)
}

// Distribution sends value to be aggregated globally by the server (datadog only)
func (c *Client) Distribution(stat string, value float64, opts ...MetricOption) error {
	return c.Send(Measurement{Key: stat, Kind: KindDistribution, Value: value}, opts...)
}

// Send formats and queues arbitrary measurement
//
// Measurement sample rate is replaced with client default or WithSampleRate,
// measurement tags are merged on top of global and per-call tags. Metric prefix
// is prepended to the key.
func (c *Client) Send(m Measurement, opts ...MetricOption) error {
	o, err := c.metricOptions(m.Kind, opts)
	if err != nil {
		return err
	}

	m.Key = c.options.MetricPrefix + m.Key
	m.SampleRate = o.sampleRate
	m.Tags = o.tags.Merge(m.Tags)

	line, err := Format(c.dialect, m)
	if err != nil {
		return err
	}

	return c.enqueue(line, m.SampleRate)
}

// Event sends an event (datadog only)
//
// Zero timestamp is replaced with current time, empty host with client hostname.
func (c *Client) Event(e Event) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = c.now()
	}
	if e.Host == "" {
		e.Host = c.options.Hostname
	}
	e.Tags = c.options.GlobalTags.Merge(e.Tags)

	line, err := FormatEvent(c.dialect, e)
	if err != nil {
		return err
	}

	return c.trans.Enqueue(line)
}

// ServiceCheck sends a service check status (datadog only)
//
// Zero timestamp is replaced with current time, empty host with client hostname.
func (c *Client) ServiceCheck(sc ServiceCheck) error {
	if sc.Timestamp.IsZero() {
		sc.Timestamp = c.now()
	}
	if sc.Host == "" {
		sc.Host = c.options.Hostname
	}
	sc.Tags = c.options.GlobalTags.Merge(sc.Tags)

	line, err := FormatServiceCheck(c.dialect, sc)
	if err != nil {
		return err
	}

	return c.trans.Enqueue(line)
}

// metricOptions resolves effective sample rate and tags of a call
func (c *Client) metricOptions(kind Kind, opts []MetricOption) (metricOptions, error) {
	o := metricOptions{
		sampleRate: c.options.SampleRate,
		tags:       c.options.GlobalTags,
	}

	for _, opt := range opts {
		opt(&o)
	}

	if o.hasSampleRate && (o.sampleRate <= 0 || o.sampleRate > 1) {
		return o, invalidFloat("Sample rate must be in (0, 1]", o.sampleRate)
	}

	// server can't scale relative gauges and sets back up
	if c.options.SafeSampleRate && (kind == KindGaugeDelta || kind == KindSet) {
		o.sampleRate = 1
	}

	return o, nil
}

func (c *Client) enqueue(line string, sampleRate float64) error {
	if sampleRate < 1 && !c.sample(sampleRate) {
		return nil
	}

	return c.trans.Enqueue(line)
}

func (c *Client) sample(rate float64) bool {
	c.randLock.Lock()
	r := c.rand()
	c.randLock.Unlock()

	return r < rate
}
