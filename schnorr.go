package zkauth

import (
	"github.com/go-errors/errors"

	"github.com/sealbound/zkauth/big"
	"github.com/sealbound/zkauth/group"
	"github.com/sealbound/zkauth/internal/common"
)

// Commitment is the first-flow message of a Schnorr round. The nonce is
// ephemeral: it is owned by the prover for the duration of a single round and
// must never be reused or persisted, hence it is excluded from serialization.
type Commitment struct {
	Commitment *big.Int `json:"commitment"`
	Nonce      *big.Int `json:"-"`
}

// Proof is the challenge/response pair concluding a Schnorr round. It is
// produced once per round and consumed once by the verifier.
type Proof struct {
	Challenge *big.Int `json:"challenge"`
	Response  *big.Int `json:"response"`
}

// Prover holds the long-lived secret and produces commitments and responses.
type Prover struct {
	grp    *group.Group
	secret *big.Int
}

// NewProver constructs a prover around a secret in (0, Q).
func NewProver(grp *group.Group, secret *big.Int) (*Prover, error) {
	if secret == nil || secret.Sign() <= 0 || secret.Cmp(grp.Q) >= 0 {
		return nil, errors.WrapPrefix(ErrInvalidInput, "secret must lie in the multiplicative subgroup", 0)
	}
	return &Prover{grp: grp, secret: new(big.Int).Set(secret)}, nil
}

func randomNonce(grp *group.Group) *big.Int {
	// Uniform in [1, Q-1].
	nonce := common.FastRandomBigInt(new(big.Int).Sub(grp.Q, big.NewInt(1)))
	return nonce.Add(nonce, big.NewInt(1))
}

// Commit samples a fresh nonce and returns the corresponding commitment
// G^nonce mod P. Every call draws independent randomness.
func (p *Prover) Commit() *Commitment {
	nonce := randomNonce(p.grp)
	return &Commitment{Commitment: p.grp.ExpG(nonce), Nonce: nonce}
}

// Prove computes the response (nonce + challenge*secret) mod Q for the given
// challenge and commitment. The challenge must lie in [0, 2^ChallengeBits).
func (p *Prover) Prove(challenge *big.Int, commitment *Commitment) (*Proof, error) {
	if challenge == nil || challenge.Sign() < 0 || uint(challenge.BitLen()) > p.grp.ChallengeBits {
		return nil, errors.WrapPrefix(ErrInvalidInput, "challenge outside of configured range", 0)
	}
	response := new(big.Int).Mul(challenge, p.secret)
	response.Add(response, commitment.Nonce)
	p.grp.ModQ(response, response)
	return &Proof{Challenge: new(big.Int).Set(challenge), Response: response}, nil
}

// Verifier checks Schnorr proofs against a public key.
type Verifier struct {
	grp       *group.Group
	publicKey *big.Int
}

// NewVerifier constructs a verifier around a public key in (0, P).
func NewVerifier(grp *group.Group, publicKey *big.Int) (*Verifier, error) {
	if publicKey == nil || publicKey.Sign() <= 0 || publicKey.Cmp(grp.P) >= 0 {
		return nil, errors.WrapPrefix(ErrInvalidInput, "invalid public key", 0)
	}
	return &Verifier{grp: grp, publicKey: new(big.Int).Set(publicKey)}, nil
}

// RandomChallenge samples uniformly from [0, 2^ChallengeBits). Zero is a
// permitted Schnorr challenge.
func (v *Verifier) RandomChallenge() *big.Int {
	limit := new(big.Int).Lsh(big.NewInt(1), v.grp.ChallengeBits)
	return common.FastRandomBigInt(limit)
}

// Verify reports whether G^response = commitment * publicKey^challenge mod P.
// A mismatch is a normal outcome, not an error.
func (v *Verifier) Verify(commitment *big.Int, proof *Proof) bool {
	if commitment == nil || proof == nil || proof.Challenge == nil || proof.Response == nil {
		return false
	}
	left := new(big.Int).Exp(v.grp.G, proof.Response, v.grp.P)
	right := new(big.Int).Exp(v.publicKey, proof.Challenge, v.grp.P)
	right.Mul(right, commitment)
	v.grp.ModP(right, right)
	return left.Cmp(right) == 0
}

// GenerateSecret returns a fresh secret suitable for Schnorr identification,
// uniform in [1, Q-1].
func GenerateSecret(grp *group.Group) *big.Int {
	return randomNonce(grp)
}

// DerivePublicKey computes the public key G^secret mod P belonging to a
// Schnorr secret.
func DerivePublicKey(grp *group.Group, secret *big.Int) (*big.Int, error) {
	if secret == nil || secret.Sign() <= 0 || secret.Cmp(grp.Q) >= 0 {
		return nil, errors.WrapPrefix(ErrInvalidInput, "secret must lie in the multiplicative subgroup", 0)
	}
	return grp.ExpG(secret), nil
}

// RoundTranscript records the public messages of one completed Schnorr round.
type RoundTranscript struct {
	Commitment *big.Int `json:"commitment"`
	Challenge  *big.Int `json:"challenge"`
	Response   *big.Int `json:"response"`
}

// RunRound performs a single commit/challenge/response/verify cycle between a
// secret and a public key, returning the verification outcome and the round
// transcript.
func RunRound(grp *group.Group, secret, publicKey *big.Int) (bool, *RoundTranscript, error) {
	prover, err := NewProver(grp, secret)
	if err != nil {
		return false, nil, err
	}
	verifier, err := NewVerifier(grp, publicKey)
	if err != nil {
		return false, nil, err
	}
	commitment := prover.Commit()
	challenge := verifier.RandomChallenge()
	proof, err := prover.Prove(challenge, commitment)
	if err != nil {
		return false, nil, err
	}
	transcript := &RoundTranscript{
		Commitment: commitment.Commitment,
		Challenge:  proof.Challenge,
		Response:   proof.Response,
	}
	return verifier.Verify(commitment.Commitment, proof), transcript, nil
}
