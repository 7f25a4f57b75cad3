// Package store persists credential records, mapping human-readable aliases
// and derived credential identifiers to Schnorr public keys. Registrations
// run inside a single database transaction so that uniqueness of aliases and
// credential identifiers holds under concurrent use.
package store

import (
	"time"

	"github.com/go-errors/errors"
	"github.com/multiformats/go-multihash"
	"github.com/sirupsen/logrus"
	"github.com/timshannon/bolthold"
	bolt "go.etcd.io/bbolt"

	"github.com/sealbound/zkauth/big"
	"github.com/sealbound/zkauth/cbor"
)

// Logger is set by the root package to share its logger.
var Logger *logrus.Logger

var (
	// ErrAliasExists signals a registration under an alias that is already
	// taken.
	ErrAliasExists = errors.New("alias already registered")

	// ErrCredentialExists signals a registration of a public key whose
	// credential identifier is already present.
	ErrCredentialExists = errors.New("credential already registered")
)

// Record is a stored credential: a public key under a stable identifier, with
// an optional alias.
type Record struct {
	CredentialID string
	PublicKey    *big.Int
	Alias        string
}

// storedRecord is the database shape of a Record; the public key is kept in
// its hex wire encoding.
type storedRecord struct {
	CredentialID string `cbor:"credential_id"`
	PublicKey    string `cbor:"public_key"`
	Alias        string `cbor:"alias,omitempty"`
}

// Store is a bolthold database of credential records, keyed by credential
// identifier.
type Store struct {
	bolt *bolthold.Store
}

// CredentialID derives the stable identifier of a public key: the hex
// rendering of its SHA-256 multihash over the minimal big-endian encoding.
func CredentialID(publicKey *big.Int) (string, error) {
	mh, err := multihash.Sum(publicKey.Bytes(), multihash.SHA2_256, -1)
	if err != nil {
		return "", errors.Wrap(err, 0)
	}
	return mh.HexString(), nil
}

// Open opens or creates the credential database at path. Records are encoded
// with deterministic CBOR.
func Open(path string) (*Store, error) {
	b, err := bolthold.Open(path, 0600, &bolthold.Options{
		Encoder: cbor.Marshal,
		Decoder: cbor.Unmarshal,
		Options: &bolt.Options{Timeout: 1 * time.Second},
	})
	if err != nil {
		return nil, errors.Wrap(err, 0)
	}
	return &Store{bolt: b}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.bolt.Close()
}

// Add registers a public key under an optional alias, deriving its credential
// identifier. The alias check and the insert run in one transaction; a
// duplicate alias yields ErrAliasExists and a duplicate credential identifier
// yields ErrCredentialExists.
func (s *Store) Add(alias string, publicKey *big.Int) (*Record, error) {
	id, err := CredentialID(publicKey)
	if err != nil {
		return nil, err
	}
	pkHex, err := publicKey.MarshalText()
	if err != nil {
		return nil, errors.Wrap(err, 0)
	}
	rec := storedRecord{CredentialID: id, PublicKey: string(pkHex), Alias: alias}

	err = s.bolt.Bolt().Update(func(tx *bolt.Tx) error {
		if alias != "" {
			var existing storedRecord
			err := s.bolt.TxFindOne(tx, &existing, bolthold.Where("Alias").Eq(alias))
			if err == nil {
				return ErrAliasExists
			}
			if err != bolthold.ErrNotFound {
				return err
			}
		}
		if err := s.bolt.TxInsert(tx, id, rec); err != nil {
			if err == bolthold.ErrKeyExists {
				return ErrCredentialExists
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if Logger != nil {
		Logger.WithFields(logrus.Fields{"credential": id, "alias": alias}).Debug("registered credential")
	}
	return &Record{CredentialID: id, PublicKey: new(big.Int).Set(publicKey), Alias: alias}, nil
}

// ByAlias returns the record registered under alias, or nil when absent.
func (s *Store) ByAlias(alias string) (*Record, error) {
	var rec storedRecord
	err := s.bolt.FindOne(&rec, bolthold.Where("Alias").Eq(alias))
	if err == bolthold.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, 0)
	}
	return rec.toRecord()
}

// ByCredential returns the record with the given credential identifier, or
// nil when absent.
func (s *Store) ByCredential(id string) (*Record, error) {
	var rec storedRecord
	err := s.bolt.Get(id, &rec)
	if err == bolthold.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, 0)
	}
	return rec.toRecord()
}

func (r *storedRecord) toRecord() (*Record, error) {
	pk := new(big.Int)
	if err := pk.UnmarshalText([]byte(r.PublicKey)); err != nil {
		return nil, errors.WrapPrefix(err, "corrupt stored public key", 0)
	}
	return &Record{CredentialID: r.CredentialID, PublicKey: pk, Alias: r.Alias}, nil
}
