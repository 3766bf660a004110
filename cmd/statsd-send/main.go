// Command statsd-send sends single metric, event or service check to statsd server
//
//   statsd-send [flags] <kind> <key> [value]
//
// kind is one of count, timing, gauge, gauge-delta, set, histogram, distribution,
// event (key is the title, value is the text) or check (key is the name, value is the status).
package main

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
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	statsd "github.com/smira/statsd-client"
)

var (
	configPath = flag.String("config", "", "path to YAML config file")
	mode       = flag.String("mode", "", "transport: udp, tcp, unix, unixgram or logger")
	addr       = flag.String("addr", "", "server address, host:port or socket path")
	dialect    = flag.String("dialect", "", "protocol dialect: statsd or datadog")
	mtu        = flag.Int("mtu", 0, "maximum datagram size")
	rate       = flag.Float64("rate", 0, "sample rate, in (0, 1]")
	tags       = flag.StringArrayP("tag", "t", nil, "tag in key:value form, repeatable")
	timeout    = flag.Duration("timeout", 5*time.Second, "how long to wait for metric to be sent")
	verbose    = flag.BoolP("verbose", "v", false, "log debug messages")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <kind> <key> [value]\n\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	if err := run(flag.Args()); err != nil {
		logrus.WithError(err).Error("statsd-send failed")
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) < 2 {
		flag.Usage()
		return errors.New("kind and key are required")
	}

	kind, key := args[0], args[1]
	value := ""
	if len(args) > 2 {
		value = args[2]
	}

	cfg := &statsd.Config{}
	if *configPath != "" {
		var err error
		if cfg, err = statsd.LoadConfig(*configPath); err != nil {
			return err
		}
	}

	options := cfg.Options()
	options = append(options, statsd.WithLogger(logrus.WithField("component", "statsd")))

	if *mode != "" {
		options = append(options, statsd.Mode(*mode))
	}
	if *dialect != "" {
		options = append(options, statsd.UseDialect(*dialect))
	}
	if *mtu > 0 {
		options = append(options, statsd.MTU(*mtu))
	}
	if *rate != 0 {
		options = append(options, statsd.SampleRate(*rate))
	}

	extraTags, err := parseTags(*tags)
	if err != nil {
		return err
	}

	if len(extraTags) > 0 {
		options = append(options, statsd.GlobalTags(statsd.StringTags(cfg.GlobalTags).Merge(extraTags)))
	}

	serverAddr := cfg.Addr
	if *addr != "" {
		serverAddr = *addr
	}

	client, err := statsd.NewClient(serverAddr, options...)
	if err != nil {
		return err
	}

	sendErr := send(client, kind, key, value)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	closeErr := client.Shutdown(ctx)

	if sendErr != nil {
		return sendErr
	}

	return errors.Wrap(closeErr, "error flushing metrics")
}

func send(client *statsd.Client, kind, key, value string) error {
	switch kind {
	case "event":
		return client.Event(statsd.Event{Title: key, Text: value})
	case "check":
		return client.ServiceCheck(statsd.ServiceCheck{Name: key, Status: statsd.ServiceCheckStatus(value)})
	case "set":
		return client.SetAdd(key, value)
	}

	if value == "" {
		value = "1"
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return errors.Wrapf(err, "invalid value %q", value)
	}

	m := statsd.Measurement{Key: key, Value: val}

	switch kind {
	case "count":
		m.Kind = statsd.KindCount
	case "timing":
		m.Kind = statsd.KindTiming
	case "gauge":
		m.Kind = statsd.KindGauge
	case "gauge-delta":
		m.Kind = statsd.KindGaugeDelta
	case "histogram":
		m.Kind = statsd.KindHistogram
	case "distribution":
		m.Kind = statsd.KindDistribution
	default:
		return errors.Errorf("unknown kind %q", kind)
	}

	return client.Send(m)
}

// parseTags parses "key:value" pairs, "key" alone is a boolean tag
func parseTags(pairs []string) (statsd.Tags, error) {
	tags := statsd.Tags{}

	for _, pair := range pairs {
		k, v, found := strings.Cut(pair, ":")
		if k == "" {
			return nil, errors.Errorf("invalid tag %q", pair)
		}

		if found {
			tags[k] = v
		} else {
			tags[k] = true
		}
	}

	return tags, nil
}
