package security

import (
	"crypto/rand"
	"math/big"
)

const tokenAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// HeartbeatTokenLength is the default length of a heartbeat capability
// token, long enough that guessing one is not practical.
const HeartbeatTokenLength = 24

// NewHeartbeatToken returns a cryptographically random alphanumeric token.
func NewHeartbeatToken(n int) (string, error) {
	if n < HeartbeatTokenLength {
		n = HeartbeatTokenLength
	}

	alphabetLen := big.NewInt(int64(len(tokenAlphabet)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", err
		}
		b[i] = tokenAlphabet[idx.Int64()]
	}

	return string(b), nil
}
