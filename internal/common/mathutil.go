package common

import (
	"crypto/rand"

	"github.com/sealbound/zkauth/big"
)

var bigONE = big.NewInt(1)

// RandomBigInt returns a random big integer value in the range
// [0,(2^numBits)-1], inclusive.
func RandomBigInt(numBits uint) (*big.Int, error) {
	t := new(big.Int).Lsh(bigONE, numBits)
	return big.RandInt(rand.Reader, t)
}

// MinimalBytes returns the minimal big-endian encoding of i, encoding zero as
// a single zero byte.
func MinimalBytes(i *big.Int) []byte {
	if i.Sign() == 0 {
		return []byte{0}
	}
	return i.Bytes()
}
