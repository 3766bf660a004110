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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatTags(t *testing.T) {
	compare := func(tags Tags, expected string) func(*testing.T) {
		return func(t *testing.T) {
			buf := appendTags([]byte{}, "|#", tags)

			if string(buf) != expected {
				t.Errorf("unexpected tag format: %#v != %#v", string(buf), expected)
			}
		}
	}

	t.Run("Empty",
		compare(nil, ""))
	t.Run("String",
		compare(Tags{"name": "value"}, "|#name:value"))
	t.Run("Sorted",
		compare(Tags{"type": "web", "status": "200", "host": "foo"}, "|#host:foo,status:200,type:web"))
	t.Run("True",
		compare(Tags{"canary": true, "host": "foo"}, "|#canary,host:foo"))
	t.Run("FalseAndEmptyDropped",
		compare(Tags{"canary": false, "host": "", "type": "web"}, "|#type:web"))
	t.Run("AllDropped",
		compare(Tags{"canary": false, "host": ""}, ""))
	t.Run("OtherTypesDropped",
		compare(Tags{"port": 80, "type": "web"}, "|#type:web"))
}

func TestMergeTags(t *testing.T) {
	global := Tags{"host": "foo", "env": "prod"}

	assert.Equal(t, global, global.Merge(nil))
	assert.Equal(t, Tags{"env": "dev"}, Tags(nil).Merge(Tags{"env": "dev"}))

	merged := global.Merge(Tags{"env": "dev", "canary": true})
	assert.Equal(t, Tags{"host": "foo", "env": "dev", "canary": true}, merged)

	// original is never modified
	assert.Equal(t, Tags{"host": "foo", "env": "prod"}, global)
}

func TestStringTags(t *testing.T) {
	assert.Nil(t, StringTags(nil))
	assert.Equal(t, Tags{"env": "prod"}, StringTags(map[string]string{"env": "prod"}))
}
