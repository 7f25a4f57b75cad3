package common

import (
	"io"

	"github.com/go-errors/errors"

	"github.com/sealbound/zkauth/big"
)

// smallPrimes lets us discard most composite candidates with a single uint64
// reduction before paying for a Miller-Rabin test. The list stops where the
// running product would overflow a uint64; two is absent because candidates
// are made odd by construction.
var smallPrimes = []uint8{
	3, 5, 7, 11, 13, 17, 19, 23, 29, 31, 37, 41, 43, 47, 53,
}

// smallPrimesProduct is the product of smallPrimes.
var smallPrimesProduct = new(big.Int).SetUint64(16294579238595022365)

// RandomPrimeInRange returns a random probable prime in
// [2^start, 2^start + 2^length], reading randomness from rand. It adapts the
// candidate-sieving approach of crypto/rand.Prime to an interval that does
// not start at zero, which is what subgroup-order generation needs.
func RandomPrimeInRange(rand io.Reader, start, length uint) (*big.Int, error) {
	if start < 2 {
		return nil, errors.New("prime size must be at least 2 bits")
	}

	topBits := length % 8
	if topBits == 0 {
		topBits = 8
	}

	startVal := new(big.Int).Lsh(big.NewInt(1), start)

	bytes := make([]byte, (length+7)/8)
	offset := new(big.Int)
	p := new(big.Int)
	reduced := new(big.Int)

NextCandidate:
	for {
		if _, err := io.ReadFull(rand, bytes); err != nil {
			return nil, errors.Wrap(err, 0)
		}

		// Trim the leading byte so the offset stays within length bits, and
		// force the candidate odd.
		bytes[0] &= uint8(int(1<<topBits) - 1)
		bytes[len(bytes)-1] |= 1

		offset.SetBytes(bytes)
		p.Add(startVal, offset)

		reduced.Mod(p, smallPrimesProduct)
		mod := reduced.Uint64()
		for _, prime := range smallPrimes {
			if mod%uint64(prime) == 0 && (start > 6 || mod != uint64(prime)) {
				continue NextCandidate
			}
		}

		if p.ProbablyPrime(20) {
			return p, nil
		}
	}
}
