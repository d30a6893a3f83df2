// Package token signs and verifies compact expiring authentication tokens.
//
// A token proves that its bearer held the shared secret at signing time and
// that the signed message has not been altered since. It carries no payload
// of its own: the verifier must already know the message, which makes the
// scheme suitable for authenticating cache entries, callback parameters, or
// file contents against a key the caller controls.
//
// # Wire format
//
// A token is the base64url encoding (standard padding retained) of a fixed
// 55-byte body:
//
//	[version:1][reserved:2][expiry:4, uint32 little-endian][digest:48]
//
// The digest is HMAC-SHA384 over the 7-byte header followed by the UTF-8
// message bytes, keyed by the raw secret. Expiry is unix seconds; a token
// is valid through its expiry second and rejected strictly after it.
//
// # Failure taxonomy
//
// Verification failures are reported as exactly one of three sentinel
// errors, checked in this order:
//
//	ErrCorruptSignature  structural: undecodable, wrong size, wrong version
//	ErrExpiredSignature  well-formed but past its expiry second
//	ErrInvalidSignature  digest mismatch under the given key (constant time)
//
// The order is deliberate: structural and expiry checks complete before any
// key-dependent comparison, and the digest comparison itself is constant
// time. Callers must distinguish the three with errors.Is and must not
// collapse them into a generic failure.
package token

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/systmms/halyard/pkg/secret"
)

// Version identifies the only token layout this package emits and accepts.
const Version byte = 1

const (
	headerSize = 7
	digestSize = sha512.Size384
	bodySize   = headerSize + digestSize
)

// Verification failures. Exactly one of these is wrapped into every error
// returned by Verify for a syntactically present token.
var (
	ErrCorruptSignature = errors.New("token: corrupt signature")
	ErrExpiredSignature = errors.New("token: expired signature")
	ErrInvalidSignature = errors.New("token: invalid signature")
)

// timeNow is a seam for expiry boundary tests.
var timeNow = time.Now

// Header is the authenticated metadata carried by a token.
type Header struct {
	Version byte
	Expiry  time.Time // second precision, inclusive validity bound
}

// Sign authenticates message under key with a validity window of maxAge
// from now, returning the encoded token. A non-positive maxAge produces an
// already-expired token, which Verify will reject; that is occasionally
// useful for revocation-style tests and is not an error here.
func Sign(key *secret.Secret, message string, maxAge time.Duration) (string, error) {
	expiry := timeNow().Add(maxAge).Unix()
	if expiry < 0 || expiry > math.MaxUint32 {
		return "", fmt.Errorf("token: expiry %d outside the representable range", expiry)
	}
	return signAt(key, message, uint32(expiry))
}

// signAt builds a token with an explicit expiry second.
func signAt(key *secret.Secret, message string, expiry uint32) (string, error) {
	header := packHeader(expiry)

	digest, err := computeDigest(key, header, message)
	if err != nil {
		return "", err
	}

	body := make([]byte, 0, bodySize)
	body = append(body, header...)
	body = append(body, digest...)
	return base64.URLEncoding.EncodeToString(body), nil
}

// Verify checks tok against message under key and returns the decoded
// header on success. See the package comment for the error contract.
func Verify(key *secret.Secret, message, tok string) (Header, error) {
	body, err := base64.URLEncoding.DecodeString(tok)
	if err != nil {
		return Header{}, fmt.Errorf("%w: not base64url", ErrCorruptSignature)
	}
	if len(body) != bodySize {
		return Header{}, fmt.Errorf("%w: body is %d bytes, want %d", ErrCorruptSignature, len(body), bodySize)
	}

	header := body[:headerSize]
	digest := body[headerSize:]

	if header[0] != Version {
		return Header{}, fmt.Errorf("%w: unknown version %d", ErrCorruptSignature, header[0])
	}

	expiry := binary.LittleEndian.Uint32(header[3:7])
	expiresAt := time.Unix(int64(expiry), 0)
	if timeNow().Unix() > int64(expiry) {
		return Header{}, fmt.Errorf("%w: expired at %s", ErrExpiredSignature, expiresAt.UTC().Format(time.RFC3339))
	}

	expected, err := computeDigest(key, header, message)
	if err != nil {
		return Header{}, err
	}
	if !hmac.Equal(digest, expected) {
		return Header{}, ErrInvalidSignature
	}

	return Header{Version: header[0], Expiry: expiresAt}, nil
}

func packHeader(expiry uint32) []byte {
	header := make([]byte, headerSize)
	header[0] = Version
	// header[1:3] reserved, zero
	binary.LittleEndian.PutUint32(header[3:7], expiry)
	return header
}

func computeDigest(key *secret.Secret, header []byte, message string) ([]byte, error) {
	if key == nil {
		return nil, errors.New("token: nil key")
	}
	locked, err := key.Open()
	if err != nil {
		return nil, fmt.Errorf("token: open key: %w", err)
	}
	defer locked.Destroy()

	mac := hmac.New(sha512.New384, locked.Bytes())
	mac.Write(header)
	mac.Write([]byte(message))
	return mac.Sum(nil), nil
}
