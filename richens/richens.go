// Package richens implements the experimental Richens attestation method: a
// stateless capsule scheme that derives a reusable public identity record
// from a secret essence and a context label, and later proves knowledge of
// that essence against arbitrary single-use challenges.
//
// The anchor checksum and parity digest are ad hoc tamper detection, not part
// of a published zero-knowledge proof system. This package preserves the
// scheme's algebraic behavior exactly as designed.
package richens

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"

	"github.com/go-errors/errors"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"

	"github.com/sealbound/zkauth/big"
	"github.com/sealbound/zkauth/group"
	"github.com/sealbound/zkauth/internal/common"
)

// DefaultContext is the context label used when the caller does not supply
// one.
const DefaultContext = "richens-global"

// DefaultChallengeBits is the requested bit size for freshly issued
// challenges; the effective size is capped at the bit length of Q.
const DefaultChallengeBits = 192

var (
	// ErrEmptyEssence signals an attempt to use a zero-length essence.
	ErrEmptyEssence = errors.New("essence must not be empty")
)

var (
	bigTWO   = big.NewInt(2)
	bigTHREE = big.NewInt(3)
	bigFIVE  = big.NewInt(5)
)

// deriveCoefficients expands essence and context into the three polynomial
// coefficients a, b, c in [0, Q) through a SHAKE-256 stream, reducing three
// independent 32-byte blocks modulo Q.
func deriveCoefficients(grp *group.Group, essence []byte, context string) (a, b, c *big.Int) {
	shake := sha3.NewShake256()
	shake.Write(essence)
	shake.Write([]byte(context))
	stream := make([]byte, 96)
	shake.Read(stream)

	a = new(big.Int).SetBytes(stream[0:32])
	b = new(big.Int).SetBytes(stream[32:64])
	c = new(big.Int).SetBytes(stream[64:96])
	grp.ModQ(a, a)
	grp.ModQ(b, b)
	grp.ModQ(c, c)
	return a, b, c
}

// deriveAnchor combines the three vector entries into the consistency
// checksum v0^2 * v1^3 * v2^5 mod P. A checksum, not a proof of knowledge.
func deriveAnchor(grp *group.Group, vector [3]*big.Int) *big.Int {
	anchor := new(big.Int).Exp(vector[0], bigTWO, grp.P)
	tmp := new(big.Int).Exp(vector[1], bigTHREE, grp.P)
	anchor.Mul(anchor, tmp)
	grp.ModP(anchor, anchor)
	tmp.Exp(vector[2], bigFIVE, grp.P)
	anchor.Mul(anchor, tmp)
	grp.ModP(anchor, anchor)
	return anchor
}

// computeFingerprint digests the minimal big-endian encoding of each vector
// entry followed by the context into a 32-byte BLAKE2b digest, rendered hex.
func computeFingerprint(vector [3]*big.Int, context string) string {
	hasher, err := blake2b.New256(nil)
	if err != nil {
		panic(err) // New256 only fails on oversized keys
	}
	for _, v := range vector {
		hasher.Write(common.MinimalBytes(v))
	}
	hasher.Write([]byte(context))
	return hex.EncodeToString(hasher.Sum(nil))
}

// computeParity digests the challenge, orbital and context into the proof
// binding digest, tying a proof to this exact challenge/context pair.
func computeParity(challengeMod, orbital *big.Int, context string) string {
	hasher, err := blake2b.New256(nil)
	if err != nil {
		panic(err)
	}
	hasher.Write(common.MinimalBytes(challengeMod))
	hasher.Write(common.MinimalBytes(orbital))
	hasher.Write([]byte(context))
	return hex.EncodeToString(hasher.Sum(nil))
}

// GenerateEssence returns a fresh 32-byte random essence.
func GenerateEssence() ([]byte, error) {
	essence := make([]byte, 32)
	if _, err := rand.Read(essence); err != nil {
		return nil, errors.Wrap(err, 0)
	}
	return essence, nil
}

// MintCapsule derives the public capsule belonging to an essence and context.
// Minting is deterministic: the same essence and context always yield the
// same capsule, so a capsule can be re-derived instead of stored.
func MintCapsule(grp *group.Group, essence []byte, context string) (*Capsule, error) {
	if len(essence) == 0 {
		return nil, ErrEmptyEssence
	}
	a, b, c := deriveCoefficients(grp, essence, context)
	vector := [3]*big.Int{grp.ExpG(a), grp.ExpG(b), grp.ExpG(c)}
	return &Capsule{
		Vector:      vector,
		Context:     context,
		Anchor:      deriveAnchor(grp, vector),
		Fingerprint: computeFingerprint(vector, context),
	}, nil
}

// IssueChallenge samples a fresh attestation challenge in (0, Q). The
// effective bit size is the smaller of bits and the bit length of Q;
// rejection sampling guarantees the result is never zero.
func IssueChallenge(grp *group.Group, bits uint) *big.Int {
	size := bits
	if qBits := uint(grp.Q.BitLen()); size > qBits {
		size = qBits
	}
	limit := new(big.Int).Lsh(big.NewInt(1), size)
	for {
		candidate := common.FastRandomBigInt(limit)
		if candidate.Sign() > 0 && candidate.Cmp(grp.Q) < 0 {
			return candidate
		}
	}
}

// RespondToChallenge proves knowledge of the essence for a single challenge
// under a context. The coefficients are re-derived statelessly; the response
// is the polynomial a + b*t + c*t^2 evaluated mod Q at t = challenge mod Q.
func RespondToChallenge(grp *group.Group, essence []byte, challenge *big.Int, context string) (*Proof, error) {
	if len(essence) == 0 {
		return nil, ErrEmptyEssence
	}
	a, b, c := deriveCoefficients(grp, essence, context)

	challengeMod := new(big.Int).Mod(challenge, grp.Q)
	challengeSq := new(big.Int).Mul(challengeMod, challengeMod)
	grp.ModQ(challengeSq, challengeSq)

	response := new(big.Int).Mul(b, challengeMod)
	tmp := new(big.Int).Mul(c, challengeSq)
	response.Add(response, tmp)
	response.Add(response, a)
	grp.ModQ(response, response)

	orbital := grp.ExpG(response)
	return &Proof{
		Response: response,
		Orbital:  orbital,
		Parity:   computeParity(challengeMod, orbital, context),
	}, nil
}

// VerifyAttestation reports whether proof demonstrates knowledge of the
// essence behind capsule for the given challenge. It first recomputes the
// capsule's anchor and fingerprint (cheap rejection before the expensive
// exponentiations), then checks that the orbital matches both G^response and
// the commitment vector evaluated at the challenge point, and finally
// compares the parity digest in constant time. All-or-nothing: any failing
// condition yields false, and a mismatch is never an error.
func VerifyAttestation(grp *group.Group, capsule *Capsule, challenge *big.Int, proof *Proof) bool {
	if capsule == nil || capsule.Anchor == nil || challenge == nil || proof == nil ||
		proof.Response == nil || proof.Orbital == nil {
		return false
	}
	for _, v := range capsule.Vector {
		if v == nil {
			return false
		}
	}

	if deriveAnchor(grp, capsule.Vector).Cmp(capsule.Anchor) != 0 {
		return false
	}
	if computeFingerprint(capsule.Vector, capsule.Context) != capsule.Fingerprint {
		return false
	}

	challengeMod := new(big.Int).Mod(challenge, grp.Q)
	challengeSq := new(big.Int).Mul(challengeMod, challengeMod)
	grp.ModQ(challengeSq, challengeSq)

	// G^(a+b*t+c*t^2) = G^a * (G^b)^t * (G^c)^(t^2)
	expected := new(big.Int).Set(capsule.Vector[0])
	tmp := new(big.Int).Exp(capsule.Vector[1], challengeMod, grp.P)
	expected.Mul(expected, tmp)
	grp.ModP(expected, expected)
	tmp.Exp(capsule.Vector[2], challengeSq, grp.P)
	expected.Mul(expected, tmp)
	grp.ModP(expected, expected)

	if new(big.Int).Exp(grp.G, proof.Response, grp.P).Cmp(proof.Orbital) != 0 {
		return false
	}
	if proof.Orbital.Cmp(expected) != 0 {
		return false
	}

	expectedParity := computeParity(challengeMod, proof.Orbital, capsule.Context)
	return subtle.ConstantTimeCompare([]byte(proof.Parity), []byte(expectedParity)) == 1
}
