package keysource

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	hlerrors "github.com/systmms/halyard/internal/errors"
)

// parseEncoding reads the optional "encoding" setting from a source config.
// Supported values: raw (default), base64, hex.
func parseEncoding(name string, cfg map[string]interface{}) (string, error) {
	encoding := "raw"
	if e, ok := cfg["encoding"].(string); ok && e != "" {
		encoding = e
	}

	switch encoding {
	case "raw", "base64", "hex":
		return encoding, nil
	default:
		return "", hlerrors.ConfigError{
			Field:      name + ".encoding",
			Value:      encoding,
			Message:    "unsupported key encoding",
			Suggestion: "Use one of: raw, base64, hex",
		}
	}
}

// decodeMaterial converts fetched bytes to raw key material. Text encodings
// tolerate surrounding whitespace so key files may end in a newline.
func decodeMaterial(data []byte, encoding string) ([]byte, error) {
	switch encoding {
	case "", "raw":
		return data, nil
	case "base64":
		decoded, err := base64.StdEncoding.DecodeString(string(bytes.TrimSpace(data)))
		if err != nil {
			return nil, fmt.Errorf("invalid base64 key material: %w", err)
		}
		return decoded, nil
	case "hex":
		decoded, err := hex.DecodeString(string(bytes.TrimSpace(data)))
		if err != nil {
			return nil, fmt.Errorf("invalid hex key material: %w", err)
		}
		return decoded, nil
	default:
		return nil, fmt.Errorf("unsupported key encoding: %s", encoding)
	}
}
