package common

import (
	"github.com/sealbound/zkauth/big"
)

// FastMod reduces modulo a fixed p, with a shortcut for moduli of the shape
// 2^b - c for small c. Schnorr group primes are close to a power of two, so
// the shortcut applies to the hot reductions in proof generation. For any
// other modulus it falls back to big.Int.Mod.
type FastMod struct {
	enabled bool
	modulus big.Int
	offset  big.Int // 2^bits - modulus
	bits    uint
	mask    big.Int // 2^bits - 1
}

// Set fixes the modulus. It may be called again to re-target the reducer.
func (m *FastMod) Set(p *big.Int) {
	var pow, one big.Int
	one.SetUint64(1)
	m.modulus.Set(p)
	m.bits = uint(p.BitLen())
	pow.SetUint64(1)
	pow.Lsh(&pow, m.bits)
	m.offset.Sub(&pow, &m.modulus)
	m.enabled = m.offset.BitLen() < 60
	if m.enabled {
		m.mask.Sub(&pow, &one)
	}
}

// Mod sets ret to x mod p and returns ret. Negative x takes the slow path.
func (m *FastMod) Mod(ret, x *big.Int) *big.Int {
	if !m.enabled || x.Sign() == -1 {
		return ret.Mod(x, &m.modulus)
	}

	if x.Cmp(&m.modulus) < 0 {
		return ret.Set(x)
	}

	// Repeatedly fold the bits above position b back in: with p = 2^b - c,
	// x = lo + 2^b*hi is congruent to lo + c*hi.
	cur := x
	var tmp, carry big.Int
	folded := false
	for {
		carry.Rsh(cur, m.bits)
		if carry.Sign() == 0 {
			break
		}
		folded = true
		ret.And(cur, &m.mask)
		tmp.Mul(&carry, &m.offset)
		ret.Add(ret, &tmp)
		cur = ret
	}

	if !folded {
		return ret.Sub(x, &m.modulus)
	}
	if ret.Cmp(&m.modulus) >= 0 {
		ret.Sub(ret, &m.modulus)
	}
	return ret
}
