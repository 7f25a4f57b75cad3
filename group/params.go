package group

import (
	"sort"

	"github.com/go-errors/errors"

	"github.com/sealbound/zkauth/big"
)

// BaseParameters holds the textual form of a named group parameter set,
// together with the protocol configuration used with it by default.
type BaseParameters struct {
	P             string // hex
	G             string // hex
	Q             string // hex
	ChallengeBits uint
	Rounds        int
}

// defaultBaseParameters holds per modulus bit length the base parameters.
// The 1024/160 and 2048/256 sets are the MODP groups with prime-order
// subgroups from RFC 5114, sections 2.1 and 2.3.
var defaultBaseParameters = map[int]BaseParameters{
	1024: {
		P: "b10b8f96a080e01dde92de5eae5d54ec52c99fbcfb06a3c69a6a9dca52d23b61" +
			"6073e28675a23d189838ef1e2ee652c013ecb4aea906112324975c3cd49b83bf" +
			"accbdd7d90c4bd7098488e9c219a73724effd6fae5644738faa31a4ff55bccc0" +
			"a151af5f0dc8b4bd45bf37df365c1a65e68cfda76d4da708df1fb2bc2e4a4371",
		G: "a4d1cbd5c3fd34126765a442efb99905f8104dd258ac507fd6406cff14266d31" +
			"266fea1e5c41564b777e690f5504f213160217b4b01b886a5e91547f9e2749f4" +
			"d7fbd7d3b9a92ee1909d0d2263f80a76a6a24c087a091f531dbf0a0169b6a28a" +
			"d662a4d18e73afa32d779d5918d08bc8858f4dcef97c2a24855e6eeb22b3b2e5",
		Q:             "f518aa8781a8df278aba4e7d64b7cb9d49462353",
		ChallengeBits: 80,
		Rounds:        8,
	},
	2048: {
		P: "87a8e61db4b6663cffbbd19c651959998ceef608660dd0f25d2ceed4435e3b00" +
			"e00df8f1d61957d4faf7df4561b2aa3016c3d91134096faa3bf4296d830e9a7c" +
			"209e0c6497517abd5a8a9d306bcf67ed91f9e6725b4758c022e0b1ef4275bf7b" +
			"6c5bfc11d45f9088b941f54eb1e59bb8bc39a0bf12307f5c4fdb70c581b23f76" +
			"b63acae1caa6b7902d52526735488a0ef13c6d9a51bfa4ab3ad8347796524d8e" +
			"f6a167b5a41825d967e144e5140564251ccacb83e6b486f6b3ca3f7971506026" +
			"c0b857f689962856ded4010abd0be621c3a3960a54e710c375f26375d7014103" +
			"a4b54330c198af126116d2276e11715f693877fad7ef09cadb094ae91e1a1597",
		G: "3fb32c9b73134d0b2e77506660edbd484ca7b18f21ef205407f4793a1a0ba125" +
			"10dbc15077be463fff4fed4aac0bb555be3a6c1b0c6b47b1bc3773bf7e8c6f62" +
			"901228f8c28cbb18a55ae31341000a650196f931c77a57f2ddf463e5e9ec144b" +
			"777de62aaab8a8628ac376d282d6ed3864e67982428ebc831d14348f6f2f9193" +
			"b5045af2767164e1dfc967c1fb3f2e55a4bd1bffe83b9c80d052b985d182ea0a" +
			"db2a3b7313d3fe14c8484b1e052588b9b7d2bbd2df016199ecd06e1557cd0915" +
			"b3353bbb64e0ec377fd028370df92b52c7891428cdc67eb6184b523d1db246c3" +
			"2f63078490f00ef8d647d148d47954515e2327cfef98c582664b4c0f6cc41659",
		Q:             "8cf83642a709a097b447997640129da299b1a47d1eb3750ba308b0fe64f5fbd3",
		ChallengeBits: 128,
		Rounds:        5,
	},
}

// DefaultKeyLengths is a slice of integers holding the modulus bit lengths for
// which default parameter sets are available.
var DefaultKeyLengths = availableKeyLengths(defaultBaseParameters)

func availableKeyLengths(paramsMap map[int]BaseParameters) []int {
	lengths := make([]int, 0, len(paramsMap))
	for k := range paramsMap {
		lengths = append(lengths, k)
	}
	sort.Ints(lengths)
	return lengths
}

// NewDefaultGroup builds and validates the default parameter set for the given
// modulus bit length.
func NewDefaultGroup(bits int) (*Group, error) {
	base, ok := defaultBaseParameters[bits]
	if !ok {
		return nil, errors.Errorf("group: no default parameter set for %d bits", bits)
	}
	return newGroupFromBase(base)
}

// DefaultGroup returns the 2048-bit default group. It panics if the built-in
// constants fail validation, which would mean the binary itself is corrupt.
func DefaultGroup() *Group {
	grp, err := NewDefaultGroup(2048)
	if err != nil {
		panic(err)
	}
	return grp
}

func newGroupFromBase(base BaseParameters) (*Group, error) {
	p, ok := new(big.Int).SetString(base.P, 16)
	if !ok {
		return nil, errors.New("group: malformed modulus constant")
	}
	g, ok := new(big.Int).SetString(base.G, 16)
	if !ok {
		return nil, errors.New("group: malformed generator constant")
	}
	q, ok := new(big.Int).SetString(base.Q, 16)
	if !ok {
		return nil, errors.New("group: malformed order constant")
	}
	return NewGroup(p, g, q, base.ChallengeBits, base.Rounds)
}
