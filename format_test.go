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
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatMetrics(t *testing.T) {
	d := ReferenceDialect(true)

	fooBar := Tags{"foo": "bar"}
	withHost := Tags{"foo": "bar", "host": "localhost"}
	withEmpty := Tags{"foo": "bar", "empty": ""}

	for _, tt := range []struct {
		name     string
		m        Measurement
		expected string
	}{
		{"Count", Measurement{Key: "a.b", Kind: KindCount, Value: 1, SampleRate: 1}, "a.b:1|c"},
		{"CountSampled", Measurement{Key: "a.b", Kind: KindCount, Value: 1, SampleRate: 0.5}, "a.b:1|c|@0.5"},
		{"CountTagged", Measurement{Key: "a.b", Kind: KindCount, Value: 1, SampleRate: 1, Tags: fooBar}, "a.b:1|c|#foo:bar"},
		{"CountSampledTagged", Measurement{Key: "a.b", Kind: KindCount, Value: 1, SampleRate: 0.25, Tags: withHost}, "a.b:1|c|@0.25|#foo:bar,host:localhost"},
		{"CountEmptyTag", Measurement{Key: "a.b", Kind: KindCount, Value: 12, SampleRate: 0.25, Tags: withEmpty}, "a.b:12|c|@0.25|#foo:bar"},
		{"CountNegativeZeroRate", Measurement{Key: "a.b", Kind: KindCount, Value: -12, SampleRate: 0}, "a.b:-12|c|@0"},

		{"Timing", Measurement{Key: "a.b", Kind: KindTiming, Value: 10, SampleRate: 1}, "a.b:10|ms"},
		{"TimingSampled", Measurement{Key: "a.b", Kind: KindTiming, Value: 15, SampleRate: 0.5}, "a.b:15|ms|@0.5"},
		{"TimingZero", Measurement{Key: "a.b", Kind: KindTiming, Value: 0, SampleRate: 1, Tags: fooBar}, "a.b:0|ms|#foo:bar"},
		{"TimingSampledTagged", Measurement{Key: "a.b", Kind: KindTiming, Value: 1001, SampleRate: 0.25, Tags: withHost}, "a.b:1001|ms|@0.25|#foo:bar,host:localhost"},
		{"TimingEmptyTag", Measurement{Key: "a.b", Kind: KindTiming, Value: 12, SampleRate: 0.25, Tags: withEmpty}, "a.b:12|ms|@0.25|#foo:bar"},

		{"Gauge", Measurement{Key: "a.b", Kind: KindGauge, Value: 10.2, SampleRate: 1}, "a.b:10.2|g"},
		{"GaugeSampled", Measurement{Key: "a.b", Kind: KindGauge, Value: 15, SampleRate: 0.5}, "a.b:15|g|@0.5"},
		{"GaugeSmall", Measurement{Key: "a.b", Kind: KindGauge, Value: 0.001, SampleRate: 1, Tags: fooBar}, "a.b:0.001|g|#foo:bar"},
		{"GaugeSampledTagged", Measurement{Key: "a.b", Kind: KindGauge, Value: 222, SampleRate: 0.25, Tags: withHost}, "a.b:222|g|@0.25|#foo:bar,host:localhost"},
		{"GaugeEmptyTag", Measurement{Key: "a.b", Kind: KindGauge, Value: 12, SampleRate: 0.25, Tags: withEmpty}, "a.b:12|g|@0.25|#foo:bar"},

		{"GaugeDelta", Measurement{Key: "a.b", Kind: KindGaugeDelta, Value: 10.2, SampleRate: 1}, "a.b:+10.2|g"},
		{"GaugeDeltaZero", Measurement{Key: "a.b", Kind: KindGaugeDelta, Value: 0, SampleRate: 1}, "a.b:+0|g"},
		{"GaugeDeltaNegative", Measurement{Key: "a.b", Kind: KindGaugeDelta, Value: -15, SampleRate: 0.5}, "a.b:-15|g|@0.5"},
		{"GaugeDeltaSmall", Measurement{Key: "a.b", Kind: KindGaugeDelta, Value: 0.001, SampleRate: 1, Tags: fooBar}, "a.b:+0.001|g|#foo:bar"},
		{"GaugeDeltaSampledTagged", Measurement{Key: "a.b", Kind: KindGaugeDelta, Value: -222, SampleRate: 0.25, Tags: withHost}, "a.b:-222|g|@0.25|#foo:bar,host:localhost"},
		{"GaugeDeltaEmptyTag", Measurement{Key: "a.b", Kind: KindGaugeDelta, Value: 12, SampleRate: 0.25, Tags: withEmpty}, "a.b:+12|g|@0.25|#foo:bar"},

		{"Set", Measurement{Key: "a.b", Kind: KindSet, Member: "foobar", SampleRate: 0.5}, "a.b:foobar|s|@0.5"},
		{"SetEmpty", Measurement{Key: "a.b", Kind: KindSet, Member: "", SampleRate: 1, Tags: fooBar}, "a.b:|s|#foo:bar"},
		{"SetDashes", Measurement{Key: "a.b", Kind: KindSet, Member: "---", SampleRate: 0.25, Tags: withHost}, "a.b:---|s|@0.25|#foo:bar,host:localhost"},
		{"SetUUID", Measurement{Key: "a.b", Kind: KindSet, Member: "1bc0e4ef-8100-499a-a47d-593969a44250", SampleRate: 0.25, Tags: withEmpty}, "a.b:1bc0e4ef-8100-499a-a47d-593969a44250|s|@0.25|#foo:bar"},

		{"BoolTags", Measurement{Key: "a.b", Kind: KindCount, Value: 1, SampleRate: 1, Tags: Tags{"debug": true, "trace": false}}, "a.b:1|c|#debug"},
	} {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			line, err := Format(d, tt.m)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, line)
		})
	}
}

func TestFormatSetNumber(t *testing.T) {
	d := ReferenceDialect(true)

	line, err := FormatSetNumber(d, "a.b", 10.2, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, "a.b:10.2|s", line)

	line, err = FormatSetNumber(d, "a.b", 0, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, "a.b:0|s", line)
}

func TestFormatVendorOnly(t *testing.T) {
	vendor := VendorDialect()

	line, err := FormatHistogram(vendor, "a.b", 10, 1, Tags{"foo": "bar"})
	require.NoError(t, err)
	assert.Equal(t, "a.b:10|h|#foo:bar", line)

	line, err = FormatDistribution(vendor, "a.b", 0.5, 0.25, nil)
	require.NoError(t, err)
	assert.Equal(t, "a.b:0.5|d|@0.25", line)

	reference := ReferenceDialect(true)

	// capability is reported before any other problem
	_, err = FormatHistogram(reference, "", -1, 1, nil)
	assert.EqualError(t, err, "Histograms are only supported in clients with the Datadog dialect. Consider using a timer")

	_, err = FormatDistribution(reference, "a.b", 1, 1, nil)
	assert.EqualError(t, err, "Distributions are only supported in clients with the Datadog dialect. Consider using a timer")
}

func TestFormatErrors(t *testing.T) {
	d := ReferenceDialect(true)

	var verr *ValidationError

	// key is checked first, then value, then tags
	_, err := FormatCount(d, "a:b", -1, 1, Tags{"a|b": "c"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Key cannot include ';' ':' '#' '|' or '\\n'", verr.Message)

	_, err = FormatTiming(d, "a.b", -1, 1, Tags{"a|b": "c"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Value must be 0 or greater", verr.Message)

	_, err = FormatGauge(d, "a.b", 1, 1, Tags{"a|b": "c"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, `{"a|b": "c"}`, verr.Value)

	_, err = FormatSet(d, "a.b", "x|y", 1, nil)
	assert.ErrorAs(t, err, &verr)

	_, err = Format(d, Measurement{Key: "a.b", Kind: Kind(42)})
	assert.EqualError(t, err, "statsd: unknown measurement kind 42")
}

func TestFormatPure(t *testing.T) {
	d := VendorDialect()
	tags := Tags{"z": "1", "a": "2", "m": true}

	first, err := FormatCount(d, "a.b", 1, 0.5, tags)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		line, err := FormatCount(d, "a.b", 1, 0.5, tags)
		require.NoError(t, err)
		assert.Equal(t, first, line)
	}

	assert.Equal(t, "a.b:1|c|@0.5|#a:2,m,z:1", first)
}

func TestFormatEvent(t *testing.T) {
	d := VendorDialect()
	ts := time.Unix(1617000000, 999*int64(time.Millisecond))

	for _, tt := range []struct {
		name     string
		e        Event
		expected string
	}{
		{"Minimal", Event{Title: "title", Text: "text"}, "_e{5,4}:title|text"},
		{"Timestamp", Event{Title: "title", Text: "text", Timestamp: ts}, "_e{5,4}:title|text|d:1617000000"},
		{
			"AllFields",
			Event{
				Title:          "Deploy",
				Text:           "Deployed v2",
				Timestamp:      ts,
				Host:           "web-1",
				AggregationKey: "deploys",
				Priority:       PriorityLow,
				SourceType:     "jenkins",
				AlertType:      AlertInfo,
				Tags:           Tags{"env": "prod", "canary": true},
			},
			"_e{6,11}:Deploy|Deployed v2|d:1617000000|h:web-1|k:deploys|p:low|s:jenkins|t:info|#canary,env:prod",
		},
		{"NoHost", Event{Title: "t", Text: "x", Host: "web-1", NoHost: true}, "_e{1,1}:t|x"},
		{"Newlines", Event{Title: "two\nlines", Text: "a\nb\nc"}, "_e{10,7}:two\\nlines|a\\nb\\nc"},
		{"Unicode", Event{Title: "ünï", Text: "ok"}, "_e{5,2}:ünï|ok"},
	} {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			line, err := FormatEvent(d, tt.e)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, line)
		})
	}
}

func TestFormatEventErrors(t *testing.T) {
	d := VendorDialect()

	for _, tt := range []struct {
		name string
		e    Event
		err  string
	}{
		{"TitlePipe", Event{Title: "a|b"}, "Event's title field can't have any '|' characters in it"},
		{"TextPipe", Event{Title: "a", Text: "b|c"}, "Event's text field can't have any '|' characters in it"},
		{"HostPipe", Event{Title: "a", Host: "b|c"}, "Event's host field can't have any '|' or '\\n' characters in it"},
		{"AggregationNewline", Event{Title: "a", AggregationKey: "b\nc"}, "Event's aggregation key field can't have any '|' or '\\n' characters in it"},
		{"SourceNotUTF8", Event{Title: "a", SourceType: "\xff"}, "Event's source field must be valid UTF-8"},
		{"Priority", Event{Title: "a", Priority: "urgent"}, "Event's priority must be 'normal' or 'low'"},
		{"AlertType", Event{Title: "a", AlertType: "panic"}, "Event's type must be 'error', 'warning', 'info' or 'success'"},
		{"TagsFirst", Event{Title: "a|b", Tags: Tags{"a|b": "c"}}, "Tag key cannot have ',', '|', ':', or '\\n'"},
	} {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			_, err := FormatEvent(d, tt.e)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.err, verr.Message)
		})
	}

	_, err := FormatEvent(ReferenceDialect(true), Event{Title: "a|b"})
	assert.EqualError(t, err, "Events are only supported in clients with the Datadog dialect")
}

func TestFormatServiceCheck(t *testing.T) {
	d := VendorDialect()
	ts := time.Unix(1617000000, 0)

	for _, tt := range []struct {
		name     string
		sc       ServiceCheck
		expected string
	}{
		{"Minimal", ServiceCheck{Name: "db.up", Status: StatusOK}, "_sc|db.up|0"},
		{"Warn", ServiceCheck{Name: "db.up", Status: "WARN"}, "_sc|db.up|1"},
		{"Warning", ServiceCheck{Name: "db.up", Status: StatusWarning}, "_sc|db.up|1"},
		{"Crit", ServiceCheck{Name: "db.up", Status: "crit"}, "_sc|db.up|2"},
		{"Critical", ServiceCheck{Name: "db.up", Status: StatusCritical}, "_sc|db.up|2"},
		{"Unknown", ServiceCheck{Name: "db.up", Status: "whatever"}, "_sc|db.up|3"},
		{"Empty", ServiceCheck{Name: "db.up"}, "_sc|db.up|3"},
		{
			"AllFields",
			ServiceCheck{Name: "db.up", Status: StatusOK, Timestamp: ts, Host: "db-1", Tags: Tags{"env": "prod"}, Message: "all good"},
			"_sc|db.up|0|d:1617000000|h:db-1|#env:prod|m:all good",
		},
		{"NoHost", ServiceCheck{Name: "db.up", Host: "db-1", NoHost: true, Status: StatusOK}, "_sc|db.up|0"},
	} {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			line, err := FormatServiceCheck(d, tt.sc)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, line)
		})
	}

	var verr *ValidationError

	_, err := FormatServiceCheck(d, ServiceCheck{})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Service check's name is required", verr.Message)

	_, err = FormatServiceCheck(d, ServiceCheck{Name: "db.up", Message: "line\nbreak"})
	require.ErrorAs(t, err, &verr)
	assert.True(t, strings.HasPrefix(verr.Message, "Service check's message field"))

	_, err = FormatServiceCheck(ReferenceDialect(false), ServiceCheck{Name: "db.up"})
	assert.EqualError(t, err, "Service checks are only supported in clients with the Datadog dialect")
}

func TestUnixSeconds(t *testing.T) {
	assert.EqualValues(t, 1617000000, unixSeconds(time.Unix(1617000000, 999999999)))
	assert.EqualValues(t, -1, unixSeconds(time.Unix(0, -500*int64(time.Millisecond))))
	assert.EqualValues(t, -1, unixSeconds(time.Unix(-1, 0)))
}
