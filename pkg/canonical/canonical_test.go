package canonical

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCanonicalizeKeyOrder verifies that key order never affects the output
func TestCanonicalizeKeyOrder(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
	}{
		{
			name: "flat object",
			a:    `{"b": 1, "a": 2}`,
			b:    `{"a": 2, "b": 1}`,
		},
		{
			name: "nested objects",
			a:    `{"outer": {"y": "v", "x": "w"}, "alpha": true}`,
			b:    `{"alpha": true, "outer": {"x": "w", "y": "v"}}`,
		},
		{
			name: "objects inside arrays",
			a:    `{"specs": [{"purpose": "p", "vision": "v"}, {"vision": "v2", "purpose": "p2"}]}`,
			b:    `{"specs": [{"vision": "v", "purpose": "p"}, {"purpose": "p2", "vision": "v2"}]}`,
		},
		{
			name: "whitespace differences",
			a:    "{\n  \"a\": [1, 2, 3]\n}",
			b:    `{"a":[1,2,3]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ca, err := Canonicalize([]byte(tt.a))
			require.NoError(t, err)
			cb, err := Canonicalize([]byte(tt.b))
			require.NoError(t, err)
			assert.Equal(t, string(ca), string(cb))
		})
	}
}

// TestCanonicalizeDistinguishesValues verifies that real differences change the bytes
func TestCanonicalizeDistinguishesValues(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
	}{
		{
			name: "different value",
			a:    `{"a": 1}`,
			b:    `{"a": 2}`,
		},
		{
			name: "different array order",
			a:    `{"a": [1, 2]}`,
			b:    `{"a": [2, 1]}`,
		},
		{
			name: "different membership",
			a:    `{"a": 1}`,
			b:    `{"a": 1, "b": 2}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ca, err := Canonicalize([]byte(tt.a))
			require.NoError(t, err)
			cb, err := Canonicalize([]byte(tt.b))
			require.NoError(t, err)
			assert.NotEqual(t, string(ca), string(cb))
		})
	}
}

// TestCanonicalizeStability verifies canonicalize(canonicalize(p)) == canonicalize(p)
func TestCanonicalizeStability(t *testing.T) {
	payload := `{"id": "abc", "specs": [{"vision": "v", "purpose": "p", "must": ["x", "y"]}], "n": 1.5}`

	once, err := Canonicalize([]byte(payload))
	require.NoError(t, err)
	twice, err := Canonicalize(once)
	require.NoError(t, err)
	assert.Equal(t, string(once), string(twice))

	d1, err := Digest([]byte(payload))
	require.NoError(t, err)
	d2, err := Digest(once)
	require.NoError(t, err)
	assert.Equal(t, d1, d2)
}

// TestCanonicalizeForm pins down the exact canonical encoding
func TestCanonicalizeForm(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{
			name:     "sorted keys no whitespace",
			in:       `{"b": null, "a": true, "c": false}`,
			expected: `{"a":true,"b":null,"c":false}`,
		},
		{
			name:     "integer preserved",
			in:       `{"n": 42}`,
			expected: `{"n":42}`,
		},
		{
			name:     "float shortest form",
			in:       `{"n": 1.50}`,
			expected: `{"n":1.5}`,
		},
		{
			name:     "no html escaping",
			in:       `{"s": "a<b>&c"}`,
			expected: `{"s":"a<b>&c"}`,
		},
		{
			name:     "empty containers",
			in:       `{"a": [], "b": {}}`,
			expected: `{"a":[],"b":{}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Canonicalize([]byte(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(out))
		})
	}
}

// TestCanonicalizeErrors verifies malformed payloads are rejected
func TestCanonicalizeErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{name: "empty input", in: ""},
		{name: "malformed json", in: `{"a":`},
		{name: "trailing data", in: `{} {}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Canonicalize([]byte(tt.in))
			assert.Error(t, err)
		})
	}
}

// TestDigestLength verifies the digest is hex-encoded SHA-256
func TestDigestLength(t *testing.T) {
	d, err := Digest([]byte(`{"a":1}`))
	require.NoError(t, err)
	assert.Len(t, d, 64)
}
