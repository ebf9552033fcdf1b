package credential

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// tokenBytes is the amount of randomness behind every credential (256 bits).
const tokenBytes = 32

var ErrExhaustedAttempts = errors.New("exhausted attempts to generate a unique value")

// MintToken returns a URL-safe token backed by 256 bits from crypto/rand.
func MintToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}

// MintUniqueToken mints tokens until one is not rejected by exclude.
// It gives up with ErrExhaustedAttempts after maxAttempts candidates.
func MintUniqueToken(exclude func(string) bool, maxAttempts int) (string, error) {
	return unique(MintToken, exclude, maxAttempts)
}

// NewRoomID returns a room identifier that exclude does not reject.
func NewRoomID(exclude func(string) bool, maxAttempts int) (string, error) {
	return unique(func() (string, error) {
		return uuid.NewString(), nil
	}, exclude, maxAttempts)
}

func unique(gen func() (string, error), exclude func(string) bool, maxAttempts int) (string, error) {
	for range maxAttempts {
		v, err := gen()
		if err != nil {
			return "", err
		}

		if exclude == nil || !exclude(v) {
			return v, nil
		}
	}

	return "", fmt.Errorf("%w: %d attempts", ErrExhaustedAttempts, maxAttempts)
}
