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

import "github.com/pkg/errors"

// Kind is the type of the measurement
type Kind int

// Measurement kinds
const (
	KindCount Kind = iota
	KindTiming
	KindGauge
	KindGaugeDelta
	KindSet
	KindHistogram
	KindDistribution
)

func (k Kind) String() string {
	switch k {
	case KindCount:
		return "count"
	case KindTiming:
		return "timing"
	case KindGauge:
		return "gauge"
	case KindGaugeDelta:
		return "gauge-delta"
	case KindSet:
		return "set"
	case KindHistogram:
		return "histogram"
	case KindDistribution:
		return "distribution"
	}

	return "unknown"
}

// Measurement is a single metric value ready to be formatted
//
// Member is used instead of Value for KindSet.
type Measurement struct {
	Key        string
	Kind       Kind
	Value      float64
	Member     string
	SampleRate float64
	Tags       Tags
}

// Format renders measurement into the wire format of the dialect
func Format(d Dialect, m Measurement) (string, error) {
	switch m.Kind {
	case KindCount:
		return FormatCount(d, m.Key, m.Value, m.SampleRate, m.Tags)
	case KindTiming:
		return FormatTiming(d, m.Key, m.Value, m.SampleRate, m.Tags)
	case KindGauge:
		return FormatGauge(d, m.Key, m.Value, m.SampleRate, m.Tags)
	case KindGaugeDelta:
		return FormatGaugeDelta(d, m.Key, m.Value, m.SampleRate, m.Tags)
	case KindSet:
		return FormatSet(d, m.Key, m.Member, m.SampleRate, m.Tags)
	case KindHistogram:
		return FormatHistogram(d, m.Key, m.Value, m.SampleRate, m.Tags)
	case KindDistribution:
		return FormatDistribution(d, m.Key, m.Value, m.SampleRate, m.Tags)
	}

	return "", errors.Errorf("statsd: unknown measurement kind %d", m.Kind)
}

// FormatCount renders counter: "key:value|c"
func FormatCount(d Dialect, key string, val, sampleRate float64, tags Tags) (string, error) {
	if err := d.ValidateKey(key); err != nil {
		return "", err
	}
	if err := d.ValidateSignedFloat(val); err != nil {
		return "", err
	}
	if err := d.ValidateTags(tags); err != nil {
		return "", err
	}

	return renderNumber(key, "", val, "c", sampleRate, tags), nil
}

// FormatTiming renders timer in milliseconds: "key:value|ms"
func FormatTiming(d Dialect, key string, val, sampleRate float64, tags Tags) (string, error) {
	if err := d.ValidateKey(key); err != nil {
		return "", err
	}
	if err := d.ValidatePositiveFloat(val); err != nil {
		return "", err
	}
	if err := d.ValidateTags(tags); err != nil {
		return "", err
	}

	return renderNumber(key, "", val, "ms", sampleRate, tags), nil
}

// FormatGauge renders absolute gauge value: "key:value|g"
//
// Absolute gauges can't be negative: "key:-5|g" would be read by the server as a delta.
func FormatGauge(d Dialect, key string, val, sampleRate float64, tags Tags) (string, error) {
	if err := d.ValidateKey(key); err != nil {
		return "", err
	}
	if err := d.ValidatePositiveFloat(val); err != nil {
		return "", err
	}
	if err := d.ValidateTags(tags); err != nil {
		return "", err
	}

	return renderNumber(key, "", val, "g", sampleRate, tags), nil
}

// FormatGaugeDelta renders relative gauge change with explicit sign: "key:+value|g"
func FormatGaugeDelta(d Dialect, key string, delta, sampleRate float64, tags Tags) (string, error) {
	if err := d.ValidateKey(key); err != nil {
		return "", err
	}
	if err := d.ValidateSignedFloat(delta); err != nil {
		return "", err
	}
	if err := d.ValidateTags(tags); err != nil {
		return "", err
	}

	// Gauge deltas are always sent with a leading '+' or '-'. The '-' takes care of itself but the '+' must added by hand
	sign := ""
	if delta >= 0 {
		sign = "+"
	}
	if delta == 0 {
		// drop the sign of -0
		delta = 0
	}

	return renderNumber(key, sign, delta, "g", sampleRate, tags), nil
}

// FormatSet renders string member of a set: "key:member|s"
func FormatSet(d Dialect, key string, member string, sampleRate float64, tags Tags) (string, error) {
	if err := d.ValidateKey(key); err != nil {
		return "", err
	}
	if err := d.ValidateSetMember(member); err != nil {
		return "", err
	}
	if err := d.ValidateTags(tags); err != nil {
		return "", err
	}

	buf := make([]byte, 0, len(key)+len(member)+16)
	buf = append(buf, key...)
	buf = append(buf, ':')
	buf = append(buf, member...)
	buf = appendSuffix(buf, "s", sampleRate, tags)

	return string(buf), nil
}

// FormatSetNumber renders numeric member of a set: "key:42|s"
func FormatSetNumber(d Dialect, key string, member, sampleRate float64, tags Tags) (string, error) {
	if err := d.ValidateKey(key); err != nil {
		return "", err
	}
	if err := d.ValidateSetNumber(member); err != nil {
		return "", err
	}
	if err := d.ValidateTags(tags); err != nil {
		return "", err
	}

	return renderNumber(key, "", member, "s", sampleRate, tags), nil
}

// FormatHistogram renders histogram value: "key:value|h"
func FormatHistogram(d Dialect, key string, val, sampleRate float64, tags Tags) (string, error) {
	if err := d.SupportsHistogram(); err != nil {
		return "", err
	}
	if err := d.ValidateKey(key); err != nil {
		return "", err
	}
	if err := d.ValidatePositiveFloat(val); err != nil {
		return "", err
	}
	if err := d.ValidateTags(tags); err != nil {
		return "", err
	}

	return renderNumber(key, "", val, "h", sampleRate, tags), nil
}

// FormatDistribution renders distribution value: "key:value|d"
func FormatDistribution(d Dialect, key string, val, sampleRate float64, tags Tags) (string, error) {
	if err := d.SupportsDistribution(); err != nil {
		return "", err
	}
	if err := d.ValidateKey(key); err != nil {
		return "", err
	}
	if err := d.ValidatePositiveFloat(val); err != nil {
		return "", err
	}
	if err := d.ValidateTags(tags); err != nil {
		return "", err
	}

	return renderNumber(key, "", val, "d", sampleRate, tags), nil
}

func renderNumber(key, sign string, val float64, typ string, sampleRate float64, tags Tags) string {
	buf := make([]byte, 0, len(key)+32)
	buf = append(buf, key...)
	buf = append(buf, ':')
	buf = append(buf, sign...)
	buf = appendFloat(buf, val)
	buf = appendSuffix(buf, typ, sampleRate, tags)

	return string(buf)
}

// appendSuffix appends "|type[|@rate][|#tags]"
func appendSuffix(buf []byte, typ string, sampleRate float64, tags Tags) []byte {
	buf = append(buf, '|')
	buf = append(buf, typ...)

	if sampleRate < 1 {
		buf = append(buf, "|@"...)
		buf = appendFloat(buf, sampleRate)
	}

	return appendTags(buf, "|#", tags)
}
