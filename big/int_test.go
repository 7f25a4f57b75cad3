package big

import (
	"crypto/rand"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func testHex(t *testing.T, bigint *Int) *Int {
	bts, err := json.Marshal(bigint)
	require.NoError(t, err)
	unmarshaled := new(Int)
	err = json.Unmarshal(bts, unmarshaled)
	require.NoError(t, err)
	require.Zero(t, bigint.Cmp(unmarshaled))
	return unmarshaled
}

func TestInt(t *testing.T) {
	var i int64 = 42
	bigint := NewInt(i)
	unmarshaled := testHex(t, bigint)
	require.Equal(t, i, unmarshaled.Int64())

	bts, err := json.Marshal(bigint)
	require.NoError(t, err)
	require.Equal(t, `"2a"`, string(bts))
}

func TestZero(t *testing.T) {
	var i int64 = 0
	bigint := NewInt(i)
	unmarshaled := testHex(t, bigint)
	require.Equal(t, i, unmarshaled.Int64())
}

func TestBigInt(t *testing.T) {
	s := "8931748931759284679376938475395713602744853768923750102"
	bigint, ok := new(Int).SetString(s, 10)
	require.True(t, ok)
	unmarshaled := testHex(t, bigint)
	require.Equal(t, s, unmarshaled.String())
}

func TestPrefixed(t *testing.T) {
	unmarshaled := new(Int)
	err := json.Unmarshal([]byte(`"0x2a"`), unmarshaled)
	require.NoError(t, err)
	require.Equal(t, int64(42), unmarshaled.Int64())
}

func TestRandom(t *testing.T) {
	max := new(Int).Lsh(NewInt(1), 100)
	bigint, err := RandInt(rand.Reader, max)
	require.NoError(t, err)
	testHex(t, bigint)
}

func TestNegative(t *testing.T) {
	bigint := NewInt(-42)
	_, err := json.Marshal(bigint)
	require.Error(t, err)
}

func TestMalformed(t *testing.T) {
	for _, input := range []string{`"xyz"`, `""`, `"12 34"`, `"-2a"`} {
		err := json.Unmarshal([]byte(input), new(Int))
		require.Error(t, err, "input %s should not unmarshal", input)
	}
}
