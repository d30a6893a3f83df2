// Package envelope encrypts small messages under a caller-held secret,
// producing self-describing printable tokens.
//
// Sealing derives a one-off XChaCha20-Poly1305 key from the secret with
// HKDF-SHA256, draws a fresh 24-byte nonce, and authenticates a 5-byte
// header (version + creation time) as associated data. The result is
// base64url-encoded, so tokens are plain ASCII and safe to embed in
// line-oriented files:
//
//	[version:1][created:4, uint32 little-endian][nonce:24][ciphertext+tag]
//
// Sealing the same plaintext twice yields different tokens. Opening with
// the wrong key, or opening anything structurally damaged, fails with
// ErrDecryption; the failure cause is wrapped for diagnostics but the kind
// is never downgraded.
//
// An Envelope may carry an optional Blind: a reversible transform applied
// to the plaintext before sealing and removed after opening. It is off by
// default and adds no confidentiality of its own; it exists for callers
// that need to pre-mask values before they enter the ciphertext.
package envelope

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/awnumar/memguard"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"github.com/systmms/halyard/pkg/secret"
)

// Version identifies the only token layout this package emits and accepts.
const Version byte = 1

const (
	headerSize = 5
	minBody    = headerSize + chacha20poly1305.NonceSizeX + chacha20poly1305.Overhead

	// keyInfo domain-separates the derived AEAD key from any other use of
	// the same secret (the token package keys its HMAC directly).
	keyInfo = "halyard envelope v1"
)

// ErrDecryption is wrapped into every Open failure: wrong key, damaged or
// truncated token, unknown version. Callers distinguish it from signature
// errors with errors.Is.
var ErrDecryption = errors.New("envelope: decryption failed")

// timeNow is a seam for creation-time tests.
var timeNow = time.Now

// Blind is an optional reversible transform applied to plaintext before
// sealing and removed after opening. Implementations must return a new
// slice (or the input unchanged) and satisfy Remove(Apply(p)) == p.
type Blind interface {
	Apply(p []byte) []byte
	Remove(p []byte) []byte
}

// Envelope seals and opens tokens. The zero value is valid and uses no
// blind transform.
type Envelope struct {
	blind Blind
}

// Option configures an Envelope.
type Option func(*Envelope)

// WithBlind installs a plaintext pre-transform. Passing nil disables it.
func WithBlind(b Blind) Option {
	return func(e *Envelope) { e.blind = b }
}

// New builds an Envelope.
func New(opts ...Option) *Envelope {
	e := &Envelope{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Seal encrypts plaintext under key and returns the encoded token.
func (e *Envelope) Seal(key *secret.Secret, plaintext []byte) ([]byte, error) {
	if e.blind != nil {
		plaintext = e.blind.Apply(plaintext)
	}

	created := timeNow().Unix()
	if created < 0 || created > math.MaxUint32 {
		return nil, fmt.Errorf("envelope: creation time %d outside the representable range", created)
	}

	aeadKey, err := deriveKey(key)
	if err != nil {
		return nil, err
	}
	defer memguard.WipeBytes(aeadKey)

	aead, err := chacha20poly1305.NewX(aeadKey)
	if err != nil {
		return nil, fmt.Errorf("envelope: init cipher: %w", err)
	}

	body := make([]byte, headerSize, minBody+len(plaintext))
	body[0] = Version
	binary.LittleEndian.PutUint32(body[1:headerSize], uint32(created))

	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("envelope: draw nonce: %w", err)
	}
	body = append(body, nonce...)

	// The header is authenticated as AAD; body has exact capacity, so the
	// ciphertext lands after the nonce without moving the header.
	body = aead.Seal(body, nonce, plaintext, body[:headerSize])

	tok := make([]byte, base64.URLEncoding.EncodedLen(len(body)))
	base64.URLEncoding.Encode(tok, body)
	return tok, nil
}

// Open authenticates and decrypts tok, returning the plaintext.
func (e *Envelope) Open(key *secret.Secret, tok []byte) ([]byte, error) {
	body := make([]byte, base64.URLEncoding.DecodedLen(len(tok)))
	n, err := base64.URLEncoding.Decode(body, tok)
	if err != nil {
		return nil, fmt.Errorf("%w: not base64url", ErrDecryption)
	}
	body = body[:n]

	if len(body) < minBody {
		return nil, fmt.Errorf("%w: body is %d bytes, want at least %d", ErrDecryption, len(body), minBody)
	}
	if body[0] != Version {
		return nil, fmt.Errorf("%w: unknown version %d", ErrDecryption, body[0])
	}

	aeadKey, err := deriveKey(key)
	if err != nil {
		return nil, err
	}
	defer memguard.WipeBytes(aeadKey)

	aead, err := chacha20poly1305.NewX(aeadKey)
	if err != nil {
		return nil, fmt.Errorf("envelope: init cipher: %w", err)
	}

	nonce := body[headerSize : headerSize+chacha20poly1305.NonceSizeX]
	ciphertext := body[headerSize+chacha20poly1305.NonceSizeX:]

	plaintext, err := aead.Open(nil, nonce, ciphertext, body[:headerSize])
	if err != nil {
		return nil, fmt.Errorf("%w: authentication failed", ErrDecryption)
	}

	if e.blind != nil {
		plaintext = e.blind.Remove(plaintext)
	}
	return plaintext, nil
}

// Seal encrypts plaintext with no blind transform.
func Seal(key *secret.Secret, plaintext []byte) ([]byte, error) {
	return (&Envelope{}).Seal(key, plaintext)
}

// Open decrypts tok with no blind transform.
func Open(key *secret.Secret, tok []byte) ([]byte, error) {
	return (&Envelope{}).Open(key, tok)
}

// deriveKey expands the secret into an XChaCha20-Poly1305 key. The caller
// wipes the returned slice.
func deriveKey(key *secret.Secret) ([]byte, error) {
	if key == nil {
		return nil, errors.New("envelope: nil key")
	}
	locked, err := key.Open()
	if err != nil {
		return nil, fmt.Errorf("envelope: open key: %w", err)
	}
	defer locked.Destroy()

	aeadKey := make([]byte, chacha20poly1305.KeySize)
	kdf := hkdf.New(sha256.New, locked.Bytes(), nil, []byte(keyInfo))
	if _, err := io.ReadFull(kdf, aeadKey); err != nil {
		return nil, fmt.Errorf("envelope: derive key: %w", err)
	}
	return aeadKey, nil
}
