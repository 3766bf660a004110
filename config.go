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
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is client configuration as stored in YAML file
//
//   mode: tcp
//   addr: statsd.local:8125
//   dialect: datadog
//   max_delay: 500ms
//   global_tags:
//     env: prod
//
// Empty fields keep client defaults.
type Config struct {
	Mode              string            `yaml:"mode"`
	Addr              string            `yaml:"addr"`
	Dialect           string            `yaml:"dialect"`
	Prefix            string            `yaml:"prefix"`
	MTU               int               `yaml:"mtu"`
	MaxQueue          int               `yaml:"max_queue"`
	MaxDelay          time.Duration     `yaml:"max_delay"`
	SampleRate        float64           `yaml:"sample_rate"`
	SafeSampleRate    *bool             `yaml:"safe_sample_rate"`
	GlobalTags        map[string]string `yaml:"global_tags"`
	Hostname          string            `yaml:"hostname"`
	ReconnectInterval time.Duration     `yaml:"reconnect_interval"`
	ReportInterval    time.Duration     `yaml:"report_interval"`
	SendQueueCapacity int               `yaml:"send_queue_capacity"`
}

// LoadConfig reads YAML configuration from path
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "statsd: reading config")
	}

	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, errors.Wrapf(err, "statsd: parsing config %s", path)
	}

	return cfg, nil
}

// ParseConfig decodes YAML configuration, unknown fields are rejected
func ParseConfig(data []byte) (*Config, error) {
	cfg := &Config{}

	if len(data) == 0 {
		return cfg, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Options converts configuration to client options, address is passed to NewClient separately
func (cfg *Config) Options() []Option {
	var options []Option

	if cfg.Mode != "" {
		options = append(options, Mode(cfg.Mode))
	}
	if cfg.Dialect != "" {
		options = append(options, UseDialect(cfg.Dialect))
	}
	if cfg.Prefix != "" {
		options = append(options, MetricPrefix(cfg.Prefix))
	}
	if cfg.MTU > 0 {
		options = append(options, MTU(cfg.MTU))
	}
	if cfg.MaxQueue > 0 {
		options = append(options, MaxQueue(cfg.MaxQueue))
	}
	if cfg.MaxDelay > 0 {
		options = append(options, MaxDelay(cfg.MaxDelay))
	}
	if cfg.SampleRate != 0 {
		options = append(options, SampleRate(cfg.SampleRate))
	}
	if cfg.SafeSampleRate != nil {
		options = append(options, SafeSampleRate(*cfg.SafeSampleRate))
	}
	if len(cfg.GlobalTags) > 0 {
		options = append(options, GlobalTags(StringTags(cfg.GlobalTags)))
	}
	if cfg.Hostname != "" {
		options = append(options, Hostname(cfg.Hostname))
	}
	if cfg.ReconnectInterval > 0 {
		options = append(options, ReconnectInterval(cfg.ReconnectInterval))
	}
	if cfg.ReportInterval != 0 {
		options = append(options, ReportInterval(cfg.ReportInterval))
	}
	if cfg.SendQueueCapacity > 0 {
		options = append(options, SendQueueCapacity(cfg.SendQueueCapacity))
	}

	return options
}
