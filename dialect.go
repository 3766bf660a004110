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
	"math"
	"strings"

	"github.com/pkg/errors"
)

type dialectKind int

const (
	dialectReference dialectKind = iota
	dialectVendor
)

// Dialect names accepted by ParseDialect
const (
	DialectStatsD  = "statsd"
	DialectDatadog = "datadog"
)

const (
	referenceKeyChars   = ";:#|\n"
	referenceTagChars   = "#:=|,\n"
	vendorKeyChars      = ":|\n"
	vendorTagKeyChars   = ",|:\n"
	vendorTagValueChars = ",|\n"

	vendorMaxLength = 200
)

// Dialect is the flavor of the statsd protocol spoken by the server
//
// Reference dialect follows the Etsy statsd server: counters, timers, gauges and sets
// only. Vendor dialect follows DogStatsD and adds histograms, distributions,
// events and service checks with stricter key rules.
//
// Dialect is stateless and safe to share between goroutines.
type Dialect struct {
	kind     dialectKind
	datagram bool
}

// ReferenceDialect returns the Etsy statsd dialect
//
// statsd only requires ASCII for connection-oriented sockets, so non-ASCII keys
// are let through when datagram is true.
func ReferenceDialect(datagram bool) Dialect {
	return Dialect{kind: dialectReference, datagram: datagram}
}

// VendorDialect returns the DogStatsD dialect
func VendorDialect() Dialect {
	return Dialect{kind: dialectVendor}
}

// ParseDialect maps dialect name onto Dialect
func ParseDialect(name string, datagram bool) (Dialect, error) {
	switch strings.ToLower(name) {
	case "", DialectStatsD, "reference", "etsy":
		return ReferenceDialect(datagram), nil
	case DialectDatadog, "vendor", "dogstatsd":
		return VendorDialect(), nil
	}

	return Dialect{}, errors.Errorf("statsd: unknown dialect %q", name)
}

func (d Dialect) String() string {
	switch d.kind {
	case dialectReference:
		return DialectStatsD
	case dialectVendor:
		return DialectDatadog
	}

	return "unknown"
}

// ValidateKey checks metric key
func (d Dialect) ValidateKey(key string) error {
	if key == "" {
		return invalidString("Key is required", key)
	}

	switch d.kind {
	case dialectReference:
		if strings.ContainsAny(key, referenceKeyChars) {
			return invalidString("Key cannot include ';' ':' '#' '|' or '\\n'", key)
		}
		if !d.datagram && !isPrintableASCII(key) {
			return invalidString("Key must be all printable ASCII characters", key)
		}
	case dialectVendor:
		if !isASCIILetter(key[0]) {
			return invalidString("Key must start with a letter", key)
		}
		if !isPrintableASCII(key) {
			return invalidString("Key can only contain ASCII characters", key)
		}
		if strings.ContainsAny(key, vendorKeyChars) {
			return invalidString("Key can't have ':', '|', or '\\n' characters", key)
		}
		if len(key) >= vendorMaxLength {
			return invalidString("Key must be under 200 chars", key)
		}
	}

	return nil
}

// ValidateSignedFloat checks that value is a finite number
func (d Dialect) ValidateSignedFloat(val float64) error {
	if math.IsNaN(val) {
		return invalidFloat("Value must be a number", val)
	}
	if math.IsInf(val, 0) {
		return invalidFloat("Value must be finite", val)
	}

	return nil
}

// ValidatePositiveFloat checks that value is a finite number, 0 or greater
func (d Dialect) ValidatePositiveFloat(val float64) error {
	if err := d.ValidateSignedFloat(val); err != nil {
		return err
	}
	if val < 0 {
		return invalidFloat("Value must be 0 or greater", val)
	}

	return nil
}

// ValidateSetMember checks string member of a set
func (d Dialect) ValidateSetMember(val string) error {
	switch d.kind {
	case dialectReference:
		if strings.ContainsAny(val, referenceKeyChars) {
			return invalidString("Set value cannot include ';', ':', '#', '|', or '\\n'", val)
		}
		if !d.datagram && !isPrintableASCII(val) {
			return invalidString("Set value must be all printable ASCII characters", val)
		}
	case dialectVendor:
		if strings.ContainsAny(val, vendorKeyChars) {
			return invalidString("Set value cannot include ':', '|', or '\\n'", val)
		}
		if !isPrintableASCII(val) {
			return invalidString("Set value can only contain ASCII characters", val)
		}
	}

	return nil
}

// ValidateSetNumber checks numeric member of a set
func (d Dialect) ValidateSetNumber(val float64) error {
	if math.IsNaN(val) {
		return invalidFloat("Set value can't be NaN", val)
	}
	if math.IsInf(val, 0) {
		return invalidFloat("Set value must be finite", val)
	}

	return nil
}

// ValidateTags checks every tag key and value
//
// Tags with empty string or false values are not checked: they are never sent.
func (d Dialect) ValidateTags(tags Tags) error {
	for _, key := range tags.keys() {
		val := tags[key]

		var str string

		switch v := val.(type) {
		case string:
			str = v
		case bool:
		default:
			return invalidTag("Tag value must be a string or a boolean", key, val)
		}

		if err := d.validateTagKey(key, val); err != nil {
			return err
		}

		if str != "" {
			if err := d.validateTagValue(key, str); err != nil {
				return err
			}
		}
	}

	return nil
}

func (d Dialect) validateTagKey(key string, val interface{}) error {
	switch d.kind {
	case dialectReference:
		if key == "" {
			return invalidTag("Tag key cannot be empty", key, val)
		}
		if strings.ContainsAny(key, referenceTagChars) {
			return invalidTag("Tag key cannot include '#' ':' '=' '|' ',' or '\\n'", key, val)
		}
		if !d.datagram && !isPrintableASCII(key) {
			return invalidTag("Tag key must be all printable ASCII characters", key, val)
		}
	case dialectVendor:
		if key == "" {
			return invalidTag("Tag key is required", key, val)
		}
		if strings.ContainsAny(key, vendorTagKeyChars) {
			return invalidTag("Tag key cannot have ',', '|', ':', or '\\n'", key, val)
		}
		if len(key) >= vendorMaxLength {
			return invalidTag("Tag key must be under 200 chars", key, val)
		}
	}

	return nil
}

func (d Dialect) validateTagValue(key, val string) error {
	switch d.kind {
	case dialectReference:
		if strings.ContainsAny(val, referenceTagChars) {
			return invalidTag("Tag value cannot include '#' ':' '=' '|' ',' or '\\n'", key, val)
		}
		if !d.datagram && !isPrintableASCII(val) {
			return invalidTag("Tag value must be all printable ASCII characters", key, val)
		}
	case dialectVendor:
		if strings.ContainsAny(val, vendorTagValueChars) {
			return invalidTag("Tag value cannot have ',', '|', or '\\n'", key, val)
		}
		if len(val) >= vendorMaxLength {
			return invalidTag("Tag value must be under 200 chars", key, val)
		}
	}

	return nil
}

// SupportsHistogram reports whether histograms can be sent
func (d Dialect) SupportsHistogram() error {
	if d.kind == dialectReference {
		return unsupported("Histograms are only supported in clients with the Datadog dialect. Consider using a timer")
	}

	return nil
}

// SupportsDistribution reports whether distributions can be sent
func (d Dialect) SupportsDistribution() error {
	if d.kind == dialectReference {
		return unsupported("Distributions are only supported in clients with the Datadog dialect. Consider using a timer")
	}

	return nil
}

// SupportsEvents reports whether events can be sent
func (d Dialect) SupportsEvents() error {
	if d.kind == dialectReference {
		return unsupported("Events are only supported in clients with the Datadog dialect")
	}

	return nil
}

// SupportsServiceChecks reports whether service checks can be sent
func (d Dialect) SupportsServiceChecks() error {
	if d.kind == dialectReference {
		return unsupported("Service checks are only supported in clients with the Datadog dialect")
	}

	return nil
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isPrintableASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] > 0x7e {
			return false
		}
	}

	return true
}
