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
	"github.com/sirupsen/logrus"
)

// Logger is used to report network errors and lost packets, and by the logger transport
//
// *logrus.Logger and *logrus.Entry implement Logger.
type Logger interface {
	Debug(args ...interface{})
	Info(args ...interface{})
	Warning(args ...interface{})
	Error(args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debug(args ...interface{})   {}
func (nopLogger) Info(args ...interface{})    {}
func (nopLogger) Warning(args ...interface{}) {}
func (nopLogger) Error(args ...interface{})   {}

func defaultLogger() Logger {
	return logrus.StandardLogger().WithField("component", "statsd")
}

func loggerOrNop(l Logger) Logger {
	if l == nil {
		return nopLogger{}
	}

	return l
}
