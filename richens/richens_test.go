package richens

import (
	"encoding/hex"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sealbound/zkauth/big"
	"github.com/sealbound/zkauth/group"
)

var testGroup = group.DefaultGroup()

func testEssence(t *testing.T) []byte {
	essence, err := hex.DecodeString("7b8c08ed08f2dfac38c869bd832f6d3f5c4ab40d5433628b064afdf53977f9b7")
	require.NoError(t, err)
	return essence
}

func TestMintCapsuleGolden(t *testing.T) {
	capsule, err := MintCapsule(testGroup, testEssence(t), "test-context")
	require.NoError(t, err)
	assert.Equal(t, "57e364a0bd78244ee3698533c1a7e9848d2d9885b93ca24eda0c7b61dc28edcc", capsule.Fingerprint)
	assert.Equal(t, "57e364a0bd78244ee3698533", capsule.Persona())
	assert.Equal(t, "test-context", capsule.Context)
	for _, v := range capsule.Vector {
		assert.True(t, v.Sign() > 0 && v.Cmp(testGroup.P) < 0)
	}
	assert.Zero(t, deriveAnchor(testGroup, capsule.Vector).Cmp(capsule.Anchor))
}

func TestRespondGolden(t *testing.T) {
	challenge := new(big.Int).SetUint64(0x0123456789abcdef)
	proof, err := RespondToChallenge(testGroup, testEssence(t), challenge, "test-context")
	require.NoError(t, err)
	assert.Equal(t, "3cce0a9b2921b80e53f9852e9f8ffdc5f3d886826e5bc2085c48e18fbfade711", proof.Response.Text(16))
	assert.Equal(t, "9f72a2f3e3e78c5963f6736d5f821eada1edb89841187e576bb1361484c82e10", proof.Parity)

	capsule, err := MintCapsule(testGroup, testEssence(t), "test-context")
	require.NoError(t, err)
	assert.True(t, VerifyAttestation(testGroup, capsule, challenge, proof))
}

func TestRoundTripAttestation(t *testing.T) {
	essence := testEssence(t)
	capsule, err := MintCapsule(testGroup, essence, "test-context")
	require.NoError(t, err)
	challenge := IssueChallenge(testGroup, 64)
	proof, err := RespondToChallenge(testGroup, essence, challenge, "test-context")
	require.NoError(t, err)
	assert.True(t, VerifyAttestation(testGroup, capsule, challenge, proof))
}

func TestTamperedContextRejected(t *testing.T) {
	essence, err := hex.DecodeString("77b2f9f74d4d9135d8639a4c447c6a7484cb69dd8269884ed5b50904d2f8d622")
	require.NoError(t, err)
	capsule, err := MintCapsule(testGroup, essence, DefaultContext)
	require.NoError(t, err)
	challenge := IssueChallenge(testGroup, 64)
	proof, err := RespondToChallenge(testGroup, essence, challenge, capsule.Context)
	require.NoError(t, err)
	require.True(t, VerifyAttestation(testGroup, capsule, challenge, proof))

	tampered := &Capsule{
		Vector:      capsule.Vector,
		Context:     "tampered-context",
		Anchor:      capsule.Anchor,
		Fingerprint: capsule.Fingerprint,
	}
	assert.False(t, VerifyAttestation(testGroup, tampered, challenge, proof))
}

func TestChallengeSubstitutionRejected(t *testing.T) {
	essence := testEssence(t)
	capsule, err := MintCapsule(testGroup, essence, "test-context")
	require.NoError(t, err)
	challengeA := IssueChallenge(testGroup, 64)
	challengeB := new(big.Int).Add(challengeA, big.NewInt(1))
	proof, err := RespondToChallenge(testGroup, essence, challengeA, "test-context")
	require.NoError(t, err)
	assert.True(t, VerifyAttestation(testGroup, capsule, challengeA, proof))
	assert.False(t, VerifyAttestation(testGroup, capsule, challengeB, proof))
}

func TestWrongEssenceRejected(t *testing.T) {
	capsule, err := MintCapsule(testGroup, testEssence(t), "test-context")
	require.NoError(t, err)
	challenge := IssueChallenge(testGroup, 64)
	proof, err := RespondToChallenge(testGroup, []byte("not the essence"), challenge, "test-context")
	require.NoError(t, err)
	assert.False(t, VerifyAttestation(testGroup, capsule, challenge, proof))
}

func TestEmptyEssence(t *testing.T) {
	_, err := MintCapsule(testGroup, nil, "test-context")
	assert.ErrorIs(t, err, ErrEmptyEssence)
	_, err = RespondToChallenge(testGroup, nil, big.NewInt(1), "test-context")
	assert.ErrorIs(t, err, ErrEmptyEssence)
}

func TestIssueChallengeBounds(t *testing.T) {
	for i := 0; i < 256; i++ {
		challenge := IssueChallenge(testGroup, DefaultChallengeBits)
		assert.True(t, challenge.Sign() > 0, "challenge must never be zero")
		assert.True(t, challenge.Cmp(testGroup.Q) < 0, "challenge must stay below Q")
	}
	// Requested sizes beyond Q's bit length are capped.
	challenge := IssueChallenge(testGroup, 100000)
	assert.True(t, challenge.Sign() > 0 && challenge.Cmp(testGroup.Q) < 0)
}

func TestCapsuleJSONRoundTrip(t *testing.T) {
	capsule, err := MintCapsule(testGroup, testEssence(t), "test-context")
	require.NoError(t, err)
	data, err := json.Marshal(capsule)
	require.NoError(t, err)

	parsed, err := ParseCapsule(testGroup, data)
	require.NoError(t, err)
	assert.Equal(t, capsule.Fingerprint, parsed.Fingerprint)
	assert.Zero(t, capsule.Anchor.Cmp(parsed.Anchor))
	for i := range capsule.Vector {
		assert.Zero(t, capsule.Vector[i].Cmp(parsed.Vector[i]))
	}
}

func TestParseCapsuleDetectsTampering(t *testing.T) {
	capsule, err := MintCapsule(testGroup, testEssence(t), "test-context")
	require.NoError(t, err)
	data, err := json.Marshal(capsule)
	require.NoError(t, err)

	// Flip one hex digit of the first vector entry.
	v0 := capsule.Vector[0].Text(16)
	flipped := "0"
	if v0[0] == '0' {
		flipped = "1"
	}
	tampered := strings.Replace(string(data), v0, flipped+v0[1:], 1)
	require.NotEqual(t, string(data), tampered)

	_, err = ParseCapsule(testGroup, []byte(tampered))
	assert.ErrorIs(t, err, ErrCapsuleIntegrity)
}

func TestParseCapsuleMalformed(t *testing.T) {
	_, err := ParseCapsule(testGroup, []byte(`{"vector": ["zz", "1", "2"]}`))
	assert.ErrorIs(t, err, ErrEncoding)
	_, err = ParseCapsule(testGroup, []byte(`not json`))
	assert.ErrorIs(t, err, ErrEncoding)
	_, err = ParseCapsule(testGroup, []byte(`{"context": "x"}`))
	assert.ErrorIs(t, err, ErrEncoding)
}

func TestParseProof(t *testing.T) {
	proof, err := RespondToChallenge(testGroup, testEssence(t), big.NewInt(42), "test-context")
	require.NoError(t, err)
	data, err := json.Marshal(proof)
	require.NoError(t, err)
	parsed, err := ParseProof(data)
	require.NoError(t, err)
	assert.Zero(t, proof.Response.Cmp(parsed.Response))
	assert.Zero(t, proof.Orbital.Cmp(parsed.Orbital))
	assert.Equal(t, proof.Parity, parsed.Parity)

	_, err = ParseProof([]byte(`{"response": "1"}`))
	assert.ErrorIs(t, err, ErrEncoding)
	_, err = ParseProof([]byte(`garbage`))
	assert.ErrorIs(t, err, ErrEncoding)
}

func TestMintIsDeterministic(t *testing.T) {
	one, err := MintCapsule(testGroup, testEssence(t), "test-context")
	require.NoError(t, err)
	two, err := MintCapsule(testGroup, testEssence(t), "test-context")
	require.NoError(t, err)
	assert.Equal(t, one.Fingerprint, two.Fingerprint)

	other, err := MintCapsule(testGroup, testEssence(t), "another-context")
	require.NoError(t, err)
	assert.NotEqual(t, one.Fingerprint, other.Fingerprint)
}
