package group

import (
	"crypto/rand"

	"github.com/go-errors/errors"

	"github.com/sealbound/zkauth/big"
	"github.com/sealbound/zkauth/internal/common"
)

// Generate produces a fresh Schnorr group with a pBits-bit prime modulus and a
// qBits-bit prime subgroup order: Q is drawn as a random prime, P is searched
// as k*Q+1 until prime, and G is obtained by raising a random element to the
// cofactor (P-1)/Q. Generation of large moduli can take a while; prefer the
// built-in parameter sets unless fresh parameters are a requirement.
func Generate(pBits, qBits uint, challengeBits uint, rounds int) (*Group, error) {
	if qBits < 160 || pBits < qBits+64 {
		return nil, errors.New("group: generation parameters too small")
	}

	q, err := common.RandomPrimeInRange(rand.Reader, qBits-1, qBits-1)
	if err != nil {
		return nil, err
	}

	one := big.NewInt(1)
	p := new(big.Int)
	kBits := pBits - qBits
	for {
		k, err := common.RandomBigInt(kBits)
		if err != nil {
			return nil, err
		}
		k.SetBit(k, int(kBits-1), 1) // force the product to pBits bits
		k.SetBit(k, 0, 0)            // keep k even so P is odd
		p.Mul(k, q)
		p.Add(p, one)
		if uint(p.BitLen()) != pBits {
			continue
		}
		if p.ProbablyPrime(primeChecks) {
			break
		}
	}

	cofactor := new(big.Int).Div(new(big.Int).Sub(p, one), q)
	g := new(big.Int)
	for {
		h, err := big.RandInt(rand.Reader, new(big.Int).Sub(p, big.NewInt(3)))
		if err != nil {
			return nil, err
		}
		h.Add(h, big.NewInt(2)) // h in [2, P-1)
		g.Exp(h, cofactor, p)
		if g.Cmp(one) != 0 {
			break
		}
	}

	return NewGroup(p, g, q, challengeBits, rounds)
}
