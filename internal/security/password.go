package security

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
)

const SaltSize = 16

var ErrCrypto = errors.New("password derivation failed")

// Params are the argon2id cost settings. Changing them invalidates every
// stored hash, so they come from config and stay fixed per deployment.
type Params struct {
	Time      uint32
	MemoryKiB uint32
	Threads   uint8
	KeyLen    uint32
}

func DefaultParams() Params {
	return Params{
		Time:      1,
		MemoryKiB: 64 * 1024,
		Threads:   4,
		KeyLen:    32,
	}
}

// Credential is what gets persisted for a password: never the plaintext.
type Credential struct {
	Salt []byte
	Hash []byte
}

type Hasher struct {
	params Params
	rand   io.Reader
}

func NewHasher(p Params) *Hasher {
	d := DefaultParams()
	if p.Time == 0 {
		p.Time = d.Time
	}
	if p.MemoryKiB == 0 {
		p.MemoryKiB = d.MemoryKiB
	}
	if p.Threads == 0 {
		p.Threads = d.Threads
	}
	if p.KeyLen == 0 {
		p.KeyLen = d.KeyLen
	}

	return &Hasher{params: p, rand: rand.Reader}
}

// Derive hashes password with salt. A nil or empty salt means "new
// credential": a fresh random salt is generated and returned.
func (h *Hasher) Derive(password string, salt []byte) (Credential, error) {
	if len(salt) == 0 {
		salt = make([]byte, SaltSize)
		if _, err := io.ReadFull(h.rand, salt); err != nil {
			return Credential{}, fmt.Errorf("%w: read salt: %v", ErrCrypto, err)
		}
	}

	hash := argon2.IDKey([]byte(password), salt, h.params.Time, h.params.MemoryKiB, h.params.Threads, h.params.KeyLen)

	return Credential{Salt: salt, Hash: hash}, nil
}

// Verify re-derives the hash for password and compares it to expected in
// constant time.
func (h *Hasher) Verify(password string, salt, expected []byte) bool {
	if len(salt) == 0 || len(expected) == 0 {
		return false
	}

	got := argon2.IDKey([]byte(password), salt, h.params.Time, h.params.MemoryKiB, h.params.Threads, uint32(len(expected)))

	return subtle.ConstantTimeCompare(got, expected) == 1
}
