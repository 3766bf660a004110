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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
mode: tcp
addr: statsd.local:8125
dialect: datadog
prefix: app.
max_queue: 50
max_delay: 500ms
sample_rate: 0.5
safe_sample_rate: false
global_tags:
  env: prod
hostname: web-1
report_interval: -1s
`

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "tcp", cfg.Mode)
	assert.Equal(t, "statsd.local:8125", cfg.Addr)
	assert.Equal(t, "datadog", cfg.Dialect)
	assert.Equal(t, 50, cfg.MaxQueue)
	assert.Equal(t, 500*time.Millisecond, cfg.MaxDelay)
	assert.Equal(t, 0.5, cfg.SampleRate)
	require.NotNil(t, cfg.SafeSampleRate)
	assert.False(t, *cfg.SafeSampleRate)
	assert.Equal(t, map[string]string{"env": "prod"}, cfg.GlobalTags)
	assert.Equal(t, -time.Second, cfg.ReportInterval)

	var options ClientOptions
	for _, option := range cfg.Options() {
		option(&options)
	}

	assert.Equal(t, ClientOptions{
		Mode:           ModeTCP,
		Dialect:        DialectDatadog,
		MetricPrefix:   "app.",
		MaxQueue:       50,
		MaxDelay:       500 * time.Millisecond,
		SampleRate:     0.5,
		SafeSampleRate: false,
		GlobalTags:     Tags{"env": "prod"},
		Hostname:       "web-1",
		ReportInterval: -time.Second,
	}, options)
}

func TestParseConfigEmpty(t *testing.T) {
	cfg, err := ParseConfig(nil)
	require.NoError(t, err)
	assert.Empty(t, cfg.Options())
}

func TestParseConfigUnknownField(t *testing.T) {
	_, err := ParseConfig([]byte("mdoe: tcp\n"))
	assert.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "statsd.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mode: logger\nprefix: test.\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	client, err := NewClient(cfg.Addr, append(cfg.Options(), WithLogger(nil))...)
	require.NoError(t, err)

	assert.Equal(t, DialectStatsD, client.Dialect().String())
	assert.Equal(t, "test.", client.options.MetricPrefix)
	require.NoError(t, client.Close())

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
