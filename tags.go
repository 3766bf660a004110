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
	"sort"
	"strconv"
)

// Tags are key-value annotations attached to metrics, events and service checks
//
// Value is either a string (sent as "key:value") or a bool: true is sent as bare
// "key". Tags with "" or false value are not sent at all.
//
//   statsd.Tags{"debug": true, "region": "us-east-1"} // => "debug,region:us-east-1"
//
// Tags are rendered in key order, so the same set always produces the same line.
type Tags map[string]interface{}

func (t Tags) keys() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return keys
}

// Merge returns union of both tag sets, other takes precedence
func (t Tags) Merge(other Tags) Tags {
	if len(other) == 0 {
		return t
	}
	if len(t) == 0 {
		return other
	}

	merged := make(Tags, len(t)+len(other))
	for k, v := range t {
		merged[k] = v
	}
	for k, v := range other {
		merged[k] = v
	}

	return merged
}

// StringTags converts plain string map (e.g. from configuration) to Tags
func StringTags(m map[string]string) Tags {
	if len(m) == 0 {
		return nil
	}

	tags := make(Tags, len(m))
	for k, v := range m {
		tags[k] = v
	}

	return tags
}

// appendTags formats tags as "#k:v,k" with the given prefix, nothing is appended
// if no tag survives filtering
func appendTags(buf []byte, prefix string, tags Tags) []byte {
	first := true

	for _, key := range tags.keys() {
		var value string

		switch v := tags[key].(type) {
		case string:
			if v == "" {
				continue
			}
			value = v
		case bool:
			if !v {
				continue
			}
		default:
			continue
		}

		if first {
			buf = append(buf, prefix...)
			first = false
		} else {
			buf = append(buf, ',')
		}

		buf = append(buf, key...)
		if value != "" {
			buf = append(buf, ':')
			buf = append(buf, value...)
		}
	}

	return buf
}

func appendFloat(buf []byte, val float64) []byte {
	return strconv.AppendFloat(buf, val, 'f', -1, 64)
}
