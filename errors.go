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
	"fmt"
	"strconv"

	"github.com/pkg/errors"
)

var (
	// ErrClosed is returned when a client or transport is used after Close
	ErrClosed = errors.New("statsd: transport is closed")

	// ErrTooLarge is returned when a single record can never fit into a frame
	ErrTooLarge = errors.New("statsd: record doesn't fit into a frame")
)

// ValidationError reports a caller mistake: bad key, tag or value, or a record
// type which is not supported by the dialect
type ValidationError struct {
	Message string
	Value   string
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return e.Message
	}

	return e.Message + ": " + e.Value
}

func invalidString(msg, val string) error {
	return &ValidationError{Message: msg, Value: strconv.Quote(val)}
}

func invalidFloat(msg string, val float64) error {
	return &ValidationError{Message: msg, Value: strconv.FormatFloat(val, 'g', -1, 64)}
}

func invalidTag(msg, key string, val interface{}) error {
	var v string

	switch val := val.(type) {
	case string:
		v = strconv.Quote(val)
	default:
		v = fmt.Sprintf("%v", val)
	}

	return &ValidationError{Message: msg, Value: fmt.Sprintf("{%q: %s}", key, v)}
}

func unsupported(msg string) error {
	return &ValidationError{Message: msg}
}
