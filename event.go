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
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Priority of an event
type Priority string

// Event priorities
const (
	PriorityNormal Priority = "normal"
	PriorityLow    Priority = "low"
)

// AlertType of an event
type AlertType string

// Event alert types
const (
	AlertError   AlertType = "error"
	AlertWarning AlertType = "warning"
	AlertInfo    AlertType = "info"
	AlertSuccess AlertType = "success"
)

// Event is a DogStatsD event
//
// Empty optional fields are not sent. NoHost suppresses the host field even
// when client has default hostname configured.
type Event struct {
	Title          string
	Text           string
	Timestamp      time.Time
	Host           string
	NoHost         bool
	AggregationKey string
	Priority       Priority
	SourceType     string
	AlertType      AlertType
	Tags           Tags
}

// ServiceCheckStatus is the status of a service check
//
// Status is matched case-insensitively, unrecognized status is sent as unknown.
type ServiceCheckStatus string

// Service check statuses
const (
	StatusOK       ServiceCheckStatus = "ok"
	StatusWarning  ServiceCheckStatus = "warning"
	StatusCritical ServiceCheckStatus = "critical"
	StatusUnknown  ServiceCheckStatus = "unknown"
)

// Code returns numeric status as sent on the wire
func (s ServiceCheckStatus) Code() int {
	switch strings.ToLower(string(s)) {
	case "ok":
		return 0
	case "warn", "warning":
		return 1
	case "crit", "critical":
		return 2
	}

	return 3
}

// ServiceCheck is a DogStatsD service check
type ServiceCheck struct {
	Name      string
	Status    ServiceCheckStatus
	Timestamp time.Time
	Host      string
	NoHost    bool
	Tags      Tags
	Message   string
}

// FormatEvent renders event:
//
//   _e{titleLen,textLen}:title|text|d:timestamp|h:host|k:aggregation|p:priority|s:source|t:type|#tags
func FormatEvent(d Dialect, e Event) (string, error) {
	if err := d.SupportsEvents(); err != nil {
		return "", err
	}

	if err := d.ValidateTags(e.Tags); err != nil {
		return "", err
	}

	title := escapeNewlines(e.Title)
	text := escapeNewlines(e.Text)

	if strings.ContainsRune(title, '|') {
		return "", invalidString("Event's title field can't have any '|' characters in it", e.Title)
	}
	if strings.ContainsRune(text, '|') {
		return "", invalidString("Event's text field can't have any '|' characters in it", e.Text)
	}

	fields := []struct {
		name, prefix, value string
	}{
		{"host", "h:", e.host()},
		{"aggregation key", "k:", e.AggregationKey},
		{"priority", "p:", string(e.Priority)},
		{"source", "s:", e.SourceType},
		{"type", "t:", string(e.AlertType)},
	}

	for _, f := range fields {
		if err := checkEventField("Event's", f.name, f.value); err != nil {
			return "", err
		}
	}

	switch e.Priority {
	case "", PriorityNormal, PriorityLow:
	default:
		return "", invalidString("Event's priority must be 'normal' or 'low'", string(e.Priority))
	}

	switch e.AlertType {
	case "", AlertError, AlertWarning, AlertInfo, AlertSuccess:
	default:
		return "", invalidString("Event's type must be 'error', 'warning', 'info' or 'success'", string(e.AlertType))
	}

	buf := make([]byte, 0, len(title)+len(text)+64)
	buf = append(buf, "_e{"...)
	buf = strconv.AppendInt(buf, int64(len(title)), 10)
	buf = append(buf, ',')
	buf = strconv.AppendInt(buf, int64(len(text)), 10)
	buf = append(buf, "}:"...)
	buf = append(buf, title...)
	buf = append(buf, '|')
	buf = append(buf, text...)
	buf = appendTimestamp(buf, e.Timestamp)

	for _, f := range fields {
		if f.value != "" {
			buf = append(buf, '|')
			buf = append(buf, f.prefix...)
			buf = append(buf, f.value...)
		}
	}

	buf = appendTags(buf, "|#", e.Tags)

	return string(buf), nil
}

func (e Event) host() string {
	if e.NoHost {
		return ""
	}

	return e.Host
}

// FormatServiceCheck renders service check:
//
//   _sc|name|status|d:timestamp|h:host|#tags|m:message
func FormatServiceCheck(d Dialect, sc ServiceCheck) (string, error) {
	if err := d.SupportsServiceChecks(); err != nil {
		return "", err
	}

	if err := d.ValidateTags(sc.Tags); err != nil {
		return "", err
	}

	host := sc.Host
	if sc.NoHost {
		host = ""
	}

	if sc.Name == "" {
		return "", invalidString("Service check's name is required", sc.Name)
	}
	if err := checkEventField("Service check's", "name", sc.Name); err != nil {
		return "", err
	}
	if err := checkEventField("Service check's", "host", host); err != nil {
		return "", err
	}
	if err := checkEventField("Service check's", "message", sc.Message); err != nil {
		return "", err
	}

	buf := make([]byte, 0, len(sc.Name)+len(sc.Message)+64)
	buf = append(buf, "_sc|"...)
	buf = append(buf, sc.Name...)
	buf = append(buf, '|')
	buf = strconv.AppendInt(buf, int64(sc.Status.Code()), 10)
	buf = appendTimestamp(buf, sc.Timestamp)

	if host != "" {
		buf = append(buf, "|h:"...)
		buf = append(buf, host...)
	}

	buf = appendTags(buf, "|#", sc.Tags)

	if sc.Message != "" {
		buf = append(buf, "|m:"...)
		buf = append(buf, sc.Message...)
	}

	return string(buf), nil
}

// checkEventField rejects '|' and '\n': fields support unicode, but these would break agent parsing
func checkEventField(record, name, value string) error {
	if strings.ContainsAny(value, "|\n") {
		return invalidString(record+" "+name+" field can't have any '|' or '\\n' characters in it", value)
	}
	if !utf8.ValidString(value) {
		return invalidString(record+" "+name+" field must be valid UTF-8", value)
	}

	return nil
}

func appendTimestamp(buf []byte, ts time.Time) []byte {
	if ts.IsZero() {
		return buf
	}

	buf = append(buf, "|d:"...)

	return strconv.AppendInt(buf, unixSeconds(ts), 10)
}

// unixSeconds truncates timestamp to whole seconds, rounding down
func unixSeconds(ts time.Time) int64 {
	ms := ts.UnixNano() / int64(time.Millisecond)
	if ms < 0 && ms%1000 != 0 {
		return ms/1000 - 1
	}

	return ms / 1000
}

// escapeNewlines replaces newlines with two-character "\n" escape, as expected by DogStatsD
func escapeNewlines(s string) string {
	return strings.ReplaceAll(s, "\n", "\\n")
}
