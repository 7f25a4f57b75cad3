// Package group holds the discrete-log group parameters shared by the Schnorr
// and Richens identification protocols, and the modular exponentiation they
// are built on.
package group

import (
	"github.com/bwesterb/go-exptable"
	"github.com/go-errors/errors"

	"github.com/sealbound/zkauth/big"
	"github.com/sealbound/zkauth/internal/common"
)

// Group describes a prime-order subgroup of the multiplicative group modulo P,
// generated by G of order Q, together with the protocol configuration that
// depends on it. A Group is immutable after construction and safe for
// concurrent use.
type Group struct {
	P *big.Int // prime modulus
	G *big.Int // generator of the subgroup of order Q
	Q *big.Int // prime subgroup order

	// ChallengeBits is the bit width of Schnorr verifier challenges; a single
	// round convinces the verifier up to a cheating probability of
	// 2^-ChallengeBits.
	ChallengeBits uint

	// Rounds is the number of independent Schnorr rounds run per
	// authentication attempt.
	Rounds int

	gTable exptable.Table
	pMod   common.FastMod
	qMod   common.FastMod
}

const primeChecks = 40

// NewGroup validates the given parameters and assembles a Group from them.
// P and Q must be (probable) primes, G must generate a subgroup of order Q:
// 1 < G < P and G^Q = 1 mod P. A parameter set failing any check yields an
// error; this is a configuration fault, not a runtime condition.
func NewGroup(p, g, q *big.Int, challengeBits uint, rounds int) (*Group, error) {
	if !p.ProbablyPrime(primeChecks) {
		return nil, errors.New("group: modulus is not prime")
	}
	if !q.ProbablyPrime(primeChecks) {
		return nil, errors.New("group: subgroup order is not prime")
	}
	if g.Cmp(big.NewInt(1)) <= 0 || g.Cmp(p) >= 0 {
		return nil, errors.New("group: generator outside (1, P)")
	}
	if new(big.Int).Exp(g, q, p).Cmp(big.NewInt(1)) != 0 {
		return nil, errors.New("group: generator order does not divide Q")
	}
	if new(big.Int).Mod(new(big.Int).Sub(p, big.NewInt(1)), q).Sign() != 0 {
		return nil, errors.New("group: Q does not divide P-1")
	}
	if challengeBits == 0 {
		return nil, errors.New("group: challenge width must be positive")
	}
	if rounds <= 0 {
		return nil, errors.New("group: round count must be positive")
	}

	grp := &Group{
		P:             new(big.Int).Set(p),
		G:             new(big.Int).Set(g),
		Q:             new(big.Int).Set(q),
		ChallengeBits: challengeBits,
		Rounds:        rounds,
	}
	grp.gTable.Compute(grp.G.Go(), grp.P.Go(), 7)
	grp.pMod.Set(grp.P)
	grp.qMod.Set(grp.Q)
	return grp, nil
}

// Exp sets ret to G^exp mod P using the precomputed fixed-base table.
// The exponent must lie in [0, Q).
func (g *Group) Exp(ret, exp *big.Int) *big.Int {
	if exp.Sign() == -1 || exp.Cmp(g.Q) >= 0 {
		panic("group: fixed-base exponent out of bounds")
	}
	g.gTable.Exp(ret.Go(), exp.Go())
	return ret
}

// ExpG returns a fresh G^exp mod P.
func (g *Group) ExpG(exp *big.Int) *big.Int {
	return g.Exp(new(big.Int), exp)
}

// ModP sets ret to x mod P.
func (g *Group) ModP(ret, x *big.Int) *big.Int {
	return g.pMod.Mod(ret, x)
}

// ModQ sets ret to x mod Q.
func (g *Group) ModQ(ret, x *big.Int) *big.Int {
	return g.qMod.Mod(ret, x)
}
