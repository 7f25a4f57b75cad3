package common

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"sync/atomic"

	"github.com/sealbound/zkauth/big"
)

var globalCprng *CPRNG

// CPRNG is a thread-safe cryptographic pseudo-random generator: AES in
// counter mode, keyed by the seed, with an atomic uint64 counter. It exists
// because nonce and challenge sampling sits on the authentication hot path
// and crypto/rand.Reader serializes on a kernel read.
type CPRNG struct {
	block   cipher.Block
	counter uint64
}

func NewCPRNG(seed *[32]byte) (*CPRNG, error) {
	c, err := aes.NewCipher(seed[:])
	if err != nil {
		return nil, err
	}
	return &CPRNG{block: c}, nil
}

func init() {
	var seed [32]byte
	if _, err := rand.Reader.Read(seed[:]); err != nil {
		panic(fmt.Sprintf("failed to seed CPRNG: %v", err))
	}
	cprng, err := NewCPRNG(&seed)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize CPRNG: %v", err))
	}
	globalCprng = cprng
}

func (c *CPRNG) Read(buf []byte) (n int, err error) {
	var pt, ct [16]byte
	n = len(buf)
	if n == 0 {
		return
	}

	nBlocks := uint64(((len(buf) - 1) / 16) + 1)

	// Claim a contiguous counter range up front so concurrent readers never
	// produce overlapping keystreams.
	iv := atomic.AddUint64(&c.counter, nBlocks) - nBlocks
	for {
		binary.LittleEndian.PutUint64(pt[:], iv)
		iv++

		if len(buf) >= 16 {
			c.block.Encrypt(buf, pt[:])
			buf = buf[16:]
			continue
		}
		if len(buf) == 0 {
			break
		}

		// Partial final block.
		c.block.Encrypt(ct[:], pt[:])
		copy(buf, ct[:len(buf)])
		break
	}
	return
}

// FastRandomBigInt returns a uniform value below limit, drawn from the
// process-global CPRNG seeded at startup.
func FastRandomBigInt(limit *big.Int) *big.Int {
	res, err := big.RandInt(globalCprng, limit)
	if err != nil {
		panic(fmt.Sprintf("big.RandInt failed: %v", err))
	}
	return res
}
