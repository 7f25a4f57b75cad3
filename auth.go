package zkauth

import (
	"github.com/go-errors/errors"

	"github.com/sealbound/zkauth/big"
	"github.com/sealbound/zkauth/group"
	"github.com/sealbound/zkauth/store"
)

// RegistrationResult reports a completed registration. The secret is included
// so that a caller who let it be generated can hand it to the identity
// holder; it is never stored.
type RegistrationResult struct {
	CredentialID string   `json:"credential_id"`
	Alias        string   `json:"alias,omitempty"`
	PublicKey    *big.Int `json:"public_key"`
	Secret       *big.Int `json:"secret"`
}

// Register derives a public key from the given secret (generating a fresh
// secret when nil) and stores it under the optional alias.
func Register(grp *group.Group, st *store.Store, alias string, secret *big.Int) (*RegistrationResult, error) {
	if secret == nil {
		secret = GenerateSecret(grp)
	}
	publicKey, err := DerivePublicKey(grp, secret)
	if err != nil {
		return nil, err
	}
	record, err := st.Add(alias, publicKey)
	if err != nil {
		return nil, err
	}
	return &RegistrationResult{
		CredentialID: record.CredentialID,
		Alias:        record.Alias,
		PublicKey:    record.PublicKey,
		Secret:       secret,
	}, nil
}

// AuthenticationResult reports the outcome of a full multi-round login
// attempt, including the per-round transcripts in order.
type AuthenticationResult struct {
	CredentialID string             `json:"credential_id"`
	Alias        string             `json:"alias,omitempty"`
	Rounds       []*RoundTranscript `json:"rounds"`
	Success      bool               `json:"success"`
}

// Authenticate resolves the identifier (alias or credential id) against the
// store and runs grp.Rounds independent Schnorr rounds. Success is true iff
// every round verified. Each round draws fresh randomness; nothing is reused
// across rounds.
func Authenticate(grp *group.Group, st *store.Store, identifier string, secret *big.Int, byAlias bool) (*AuthenticationResult, error) {
	var record *store.Record
	var err error
	if byAlias {
		record, err = st.ByAlias(identifier)
	} else {
		record, err = st.ByCredential(identifier)
	}
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, errors.WrapPrefix(ErrUnknownCredential, identifier, 0)
	}

	transcripts := make([]*RoundTranscript, 0, grp.Rounds)
	success := true
	for i := 0; i < grp.Rounds; i++ {
		ok, transcript, err := RunRound(grp, secret, record.PublicKey)
		if err != nil {
			return nil, err
		}
		transcripts = append(transcripts, transcript)
		if !ok {
			success = false
		}
	}

	return &AuthenticationResult{
		CredentialID: record.CredentialID,
		Alias:        record.Alias,
		Rounds:       transcripts,
		Success:      success,
	}, nil
}
