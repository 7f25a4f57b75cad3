package richens

import (
	"encoding/json"

	"github.com/go-errors/errors"

	"github.com/sealbound/zkauth/big"
	"github.com/sealbound/zkauth/group"
)

var (
	// ErrEncoding signals malformed hex or malformed structured capsule or
	// proof data encountered during deserialization.
	ErrEncoding = errors.New("malformed capsule or proof data")

	// ErrCapsuleIntegrity signals that a deserialized capsule's anchor or
	// fingerprint does not match the values recomputed from its vector and
	// context. Distinct from a verification failure at attestation time.
	ErrCapsuleIntegrity = errors.New("capsule integrity check failed")
)

// Capsule is the public, reusable identity record minted from an essence and
// a context. Its anchor and fingerprint are redundant: they must always equal
// the values recomputed from the vector and context, which ParseCapsule
// enforces before a capsule can exist as a live value.
type Capsule struct {
	Vector      [3]*big.Int `json:"vector"`
	Context     string      `json:"context"`
	Anchor      *big.Int    `json:"anchor"`
	Fingerprint string      `json:"fingerprint"`
}

// Persona is the short display prefix of the fingerprint. Non-authoritative;
// never use it for verification.
func (c *Capsule) Persona() string {
	if len(c.Fingerprint) < 24 {
		return c.Fingerprint
	}
	return c.Fingerprint[:24]
}

// ParseCapsule deserializes a capsule from its JSON wire form and verifies
// its integrity: the anchor and fingerprint are recomputed from the supplied
// vector and context and any mismatch is rejected with ErrCapsuleIntegrity
// before the capsule is returned. Structurally malformed input yields
// ErrEncoding.
func ParseCapsule(grp *group.Group, data []byte) (*Capsule, error) {
	var capsule Capsule
	if err := json.Unmarshal(data, &capsule); err != nil {
		return nil, errors.WrapPrefix(ErrEncoding, err.Error(), 0)
	}
	for _, v := range capsule.Vector {
		if v == nil {
			return nil, errors.WrapPrefix(ErrEncoding, "capsule vector entry missing", 0)
		}
	}
	if capsule.Anchor == nil {
		return nil, errors.WrapPrefix(ErrEncoding, "capsule anchor missing", 0)
	}
	if deriveAnchor(grp, capsule.Vector).Cmp(capsule.Anchor) != 0 {
		return nil, errors.WrapPrefix(ErrCapsuleIntegrity, "anchor mismatch", 0)
	}
	if computeFingerprint(capsule.Vector, capsule.Context) != capsule.Fingerprint {
		return nil, errors.WrapPrefix(ErrCapsuleIntegrity, "fingerprint mismatch", 0)
	}
	return &capsule, nil
}

// Proof is the ephemeral result of responding to a single challenge. It is
// bound to exactly one challenge/context pair through its parity digest.
type Proof struct {
	Response *big.Int `json:"response"`
	Orbital  *big.Int `json:"orbital"`
	Parity   string   `json:"parity"`
}

// ParseProof deserializes a proof from its JSON wire form, rejecting
// structurally incomplete data with ErrEncoding. Whether the proof actually
// verifies is decided by VerifyAttestation, not here.
func ParseProof(data []byte) (*Proof, error) {
	var proof Proof
	if err := json.Unmarshal(data, &proof); err != nil {
		return nil, errors.WrapPrefix(ErrEncoding, err.Error(), 0)
	}
	if proof.Response == nil || proof.Orbital == nil || proof.Parity == "" {
		return nil, errors.WrapPrefix(ErrEncoding, "proof field missing", 0)
	}
	return &proof, nil
}
