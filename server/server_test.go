package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sealbound/zkauth"
	"github.com/sealbound/zkauth/big"
	"github.com/sealbound/zkauth/group"
	"github.com/sealbound/zkauth/richens"
	"github.com/sealbound/zkauth/store"
)

func newTestServer(t *testing.T) *Server {
	st, err := store.Open(filepath.Join(t.TempDir(), "credentials.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return New(group.DefaultGroup(), st)
}

func postJSON(t *testing.T, s *Server, path string, body interface{}) *http.Response {
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, out interface{}) {
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestRegisterEndpoint(t *testing.T) {
	s := newTestServer(t)

	resp := postJSON(t, s, "/register", map[string]string{"alias": "alice"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var reg registerResponse
	decodeJSON(t, resp, &reg)
	assert.NotEmpty(t, reg.CredentialID)
	assert.Equal(t, "alice", reg.Alias)
	require.NotNil(t, reg.PublicKey)
	require.NotNil(t, reg.Secret)

	resp = postJSON(t, s, "/register", map[string]string{"alias": "alice"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
}

func TestRegisterRejectsBadSecret(t *testing.T) {
	s := newTestServer(t)

	resp := postJSON(t, s, "/register", map[string]string{"secret": "zz"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, s, "/register", map[string]string{"secret": "0"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestLoginFlow(t *testing.T) {
	s := newTestServer(t)
	grp := group.DefaultGroup()

	resp := postJSON(t, s, "/register", map[string]string{"alias": "bob"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var reg registerResponse
	decodeJSON(t, resp, &reg)

	prover, err := zkauth.NewProver(grp, reg.Secret)
	require.NoError(t, err)
	commitment := prover.Commit()

	resp = postJSON(t, s, "/login/start", map[string]interface{}{
		"credential_id": reg.CredentialID,
		"commitment":    commitment.Commitment,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var start loginStartResponse
	decodeJSON(t, resp, &start)
	require.NotEmpty(t, start.Session)
	require.NotNil(t, start.Challenge)

	proof, err := prover.Prove(start.Challenge, commitment)
	require.NoError(t, err)

	resp = postJSON(t, s, "/login/finish", map[string]interface{}{
		"session":  start.Session,
		"response": proof.Response,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var finish loginFinishResponse
	decodeJSON(t, resp, &finish)
	assert.True(t, finish.Success)

	// Session tokens are single use.
	resp = postJSON(t, s, "/login/finish", map[string]interface{}{
		"session":  start.Session,
		"response": proof.Response,
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestLoginWrongResponse(t *testing.T) {
	s := newTestServer(t)
	grp := group.DefaultGroup()

	resp := postJSON(t, s, "/register", map[string]string{"alias": "carol"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var reg registerResponse
	decodeJSON(t, resp, &reg)

	prover, err := zkauth.NewProver(grp, reg.Secret)
	require.NoError(t, err)
	commitment := prover.Commit()

	resp = postJSON(t, s, "/login/start", map[string]interface{}{
		"credential_id": reg.CredentialID,
		"commitment":    commitment.Commitment,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var start loginStartResponse
	decodeJSON(t, resp, &start)

	resp = postJSON(t, s, "/login/finish", map[string]interface{}{
		"session":  start.Session,
		"response": big.NewInt(12345),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var finish loginFinishResponse
	decodeJSON(t, resp, &finish)
	assert.False(t, finish.Success)
}

func TestLoginStartErrors(t *testing.T) {
	s := newTestServer(t)

	resp := postJSON(t, s, "/login/start", map[string]interface{}{
		"credential_id": "deadbeef",
		"commitment":    big.NewInt(2),
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, s, "/login/start", map[string]interface{}{
		"credential_id": "deadbeef",
		"commitment":    big.NewInt(0),
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestAttestEndpoint(t *testing.T) {
	s := newTestServer(t)
	grp := group.DefaultGroup()

	essence, err := richens.GenerateEssence()
	require.NoError(t, err)
	capsule, err := richens.MintCapsule(grp, essence, richens.DefaultContext)
	require.NoError(t, err)
	challenge := richens.IssueChallenge(grp, 64)
	proof, err := richens.RespondToChallenge(grp, essence, challenge, capsule.Context)
	require.NoError(t, err)

	capsuleJSON, err := json.Marshal(capsule)
	require.NoError(t, err)
	proofJSON, err := json.Marshal(proof)
	require.NoError(t, err)

	resp := postJSON(t, s, "/attest", map[string]interface{}{
		"capsule":   json.RawMessage(capsuleJSON),
		"challenge": challenge,
		"proof":     json.RawMessage(proofJSON),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var att attestResponse
	decodeJSON(t, resp, &att)
	assert.True(t, att.Verified)
	assert.Equal(t, capsule.Persona(), att.Persona)

	// Wrong challenge verifies false but is not an error.
	resp = postJSON(t, s, "/attest", map[string]interface{}{
		"capsule":   json.RawMessage(capsuleJSON),
		"challenge": new(big.Int).Add(challenge, big.NewInt(1)),
		"proof":     json.RawMessage(proofJSON),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &att)
	assert.False(t, att.Verified)
}

func TestAttestRejectsTamperedCapsule(t *testing.T) {
	s := newTestServer(t)
	grp := group.DefaultGroup()

	essence, err := richens.GenerateEssence()
	require.NoError(t, err)
	capsule, err := richens.MintCapsule(grp, essence, richens.DefaultContext)
	require.NoError(t, err)
	capsule.Context = "tampered"
	capsuleJSON, err := json.Marshal(capsule)
	require.NoError(t, err)

	challenge := richens.IssueChallenge(grp, 64)
	proof, err := richens.RespondToChallenge(grp, essence, challenge, richens.DefaultContext)
	require.NoError(t, err)
	proofJSON, err := json.Marshal(proof)
	require.NoError(t, err)

	resp := postJSON(t, s, "/attest", map[string]interface{}{
		"capsule":   json.RawMessage(capsuleJSON),
		"challenge": challenge,
		"proof":     json.RawMessage(proofJSON),
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}
