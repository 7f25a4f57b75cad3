package cbor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeterministicEncoding(t *testing.T) {
	value := map[string]string{"b": "2", "a": "1", "c": "3"}
	first, err := Marshal(value)
	require.NoError(t, err)
	second, err := Marshal(value)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	var decoded map[string]string
	require.NoError(t, Unmarshal(first, &decoded))
	assert.Equal(t, value, decoded)
}

func TestDuplicateMapKeysRejected(t *testing.T) {
	// {"a": 1, "a": 2} with a duplicated key.
	data := []byte{0xa2, 0x61, 0x61, 0x01, 0x61, 0x61, 0x02}
	var decoded map[string]int
	assert.Error(t, Unmarshal(data, &decoded))
}

func TestUnknownFieldsTolerated(t *testing.T) {
	type record struct {
		Name string `cbor:"name"`
	}
	data, err := Marshal(map[string]string{"name": "x", "extra": "y"})
	require.NoError(t, err)
	var decoded record
	require.NoError(t, Unmarshal(data, &decoded))
	assert.Equal(t, "x", decoded.Name)
}
