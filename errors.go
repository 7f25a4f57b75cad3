package zkauth

import "github.com/go-errors/errors"

var (
	// ErrInvalidInput signals a secret, public key or challenge outside its
	// declared numeric range. It is returned at construction or use time,
	// never as the outcome of a verification.
	ErrInvalidInput = errors.New("input outside valid range")

	// ErrUnknownCredential signals that no stored record matches the
	// identifier offered during authentication.
	ErrUnknownCredential = errors.New("unknown credential")
)
