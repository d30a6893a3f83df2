// Package secret holds the caller-owned key material that the token,
// envelope, and linestore packages operate with.
//
// A Secret wraps the raw bytes in a memguard enclave so the material is
// encrypted at rest in process memory and protected from swapping. The
// crypto packages open the enclave only for the duration of a single
// operation and destroy the plaintext view immediately afterwards.
//
// Secrets are caller-owned: nothing in this module persists them, and the
// caller is expected to call Destroy once the material is no longer needed.
// Destruction is best effort; Go gives no hard guarantee that every copy of
// a byte sequence leaves memory, and that limitation is accepted here.
package secret

import (
	"errors"
	"sync"

	"github.com/awnumar/memguard"
)

// ErrDestroyed is returned by Open after the secret has been destroyed.
var ErrDestroyed = errors.New("secret: use after destroy")

// ErrEmpty is returned when constructing a secret from no bytes. An empty
// key would silently weaken every operation downstream, so it is rejected
// at the earliest point.
var ErrEmpty = errors.New("secret: empty key material")

// Secret is an opaque byte sequence used as cryptographic key material.
// It may be of any non-zero length; derivation to algorithm-specific key
// sizes happens inside the consuming packages.
//
// A Secret is safe for concurrent use. See the package comment for the
// ownership and destruction contract.
type Secret struct {
	enclave *memguard.Enclave
	mu      sync.RWMutex
	// destroyed allows idempotent Destroy calls and blocks use after destroy.
	destroyed bool
}

// New copies data into a protected enclave and wipes the input slice.
// The caller must not rely on data's contents afterwards.
func New(data []byte) (*Secret, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}

	// memguard.NewEnclave copies into encrypted, mlocked storage. The
	// extra WipeBytes keeps the contract independent of whether the
	// memguard version in use scrubs its source.
	enclave := memguard.NewEnclave(data)
	memguard.WipeBytes(data)

	return &Secret{enclave: enclave}, nil
}

// FromString copies a string's bytes into a protected enclave. The string
// itself cannot be wiped; prefer New with a byte slice where possible.
func FromString(s string) (*Secret, error) {
	return New([]byte(s))
}

// Open decrypts the enclave and returns the material in a locked buffer.
// The caller MUST destroy the returned buffer when done:
//
//	locked, err := key.Open()
//	if err != nil {
//	    return err
//	}
//	defer locked.Destroy()
//	mac := hmac.New(sha512.New384, locked.Bytes())
func (s *Secret) Open() (*memguard.LockedBuffer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.destroyed {
		return nil, ErrDestroyed
	}
	return s.enclave.Open()
}

// Size reports the length of the key material in bytes.
func (s *Secret) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.destroyed {
		return 0
	}
	return s.enclave.Size()
}

// Destroy discards the secret and blocks further use. Idempotent. The
// enclave's encrypted backing is left to the collector; callers wanting a
// hard purge of all enclaves at exit should defer memguard.Purge in main.
func (s *Secret) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.destroyed {
		return
	}
	s.enclave = nil
	s.destroyed = true
}

// Destroyed reports whether Destroy has been called.
func (s *Secret) Destroyed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.destroyed
}
