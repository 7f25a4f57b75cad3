package server

import (
	"crypto/rand"
	"encoding/base64"
	"sync"

	"github.com/go-errors/errors"

	"github.com/sealbound/zkauth/big"
)

// session holds the verifier-side state between login start and finish.
type session struct {
	credentialID string
	commitment   *big.Int
	challenge    *big.Int
}

// sessionManager keeps pending login sessions in memory. A session token is
// single-use: pop removes it, so a replayed finish request finds nothing.
type sessionManager struct {
	mu       sync.Mutex
	sessions map[string]session
}

func newSessionManager() *sessionManager {
	return &sessionManager{sessions: make(map[string]session)}
}

func (m *sessionManager) create(credentialID string, commitment, challenge *big.Int) (string, error) {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", errors.Wrap(err, 0)
	}
	token := base64.RawURLEncoding.EncodeToString(buf[:])

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[token] = session{
		credentialID: credentialID,
		commitment:   commitment,
		challenge:    challenge,
	}
	return token, nil
}

func (m *sessionManager) pop(token string) (session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.sessions[token]
	if ok {
		delete(m.sessions, token)
	}
	return state, ok
}
