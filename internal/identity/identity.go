package identity

import (
	"math/rand"
	"strings"

	"github.com/google/uuid"
)

const suffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// NewDeviceID generates a synthetic device identifier in the format the
// official app registers on first launch: a UUID plus a short alphanumeric
// suffix. Uniqueness is best-effort, not cryptographic.
func NewDeviceID() string {
	var suffix strings.Builder
	for i := 0; i < 8; i++ {
		suffix.WriteByte(suffixAlphabet[rand.Intn(len(suffixAlphabet))])
	}
	return uuid.NewString() + "-" + suffix.String()
}

// NewTraceID returns a 32-hex-char correlation id for trace headers.
func NewTraceID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// NewRequestID returns a fresh request id for API envelopes.
func NewRequestID() string {
	return uuid.NewString()
}
