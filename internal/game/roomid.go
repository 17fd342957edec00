// internal/game/roomid.go
package game

import (
	"crypto/rand"
	"errors"
)

const (
	roomIDLength   = 6
	roomIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// maxRoomIDAttempts bounds collision retries. At 36^6 ids this is
	// practically unreachable, but the bound avoids a pathological stall
	// under id-space exhaustion.
	maxRoomIDAttempts = 3
)

// ErrNoAvailableRoomID means the allocator exhausted its retry budget. The
// caller surfaces this as a retryable failure, not a crash.
var ErrNoAvailableRoomID = errors.New("failed to generate unique game ID")

// RandomCode returns n random characters from the room-id alphabet. Also
// used to synthesize guest ids. Rejection sampling keeps the distribution
// uniform.
func RandomCode(n int) string {
	max := byte(255 - (256 % len(roomIDAlphabet)))

	out := make([]byte, 0, n)
	buf := make([]byte, n*2)

	for {
		if _, err := rand.Read(buf); err != nil {
			panic(err)
		}
		for _, b := range buf {
			if b <= max {
				out = append(out, roomIDAlphabet[int(b)%len(roomIDAlphabet)])
				if len(out) == n {
					return string(out)
				}
			}
		}
	}
}

// AllocateRoomID generates a candidate id and retries on collision against
// the registry, up to maxRoomIDAttempts.
func AllocateRoomID(reg *Registry) (string, error) {
	for attempts := 0; attempts < maxRoomIDAttempts; attempts++ {
		candidate := RandomCode(roomIDLength)
		if !reg.Exists(candidate) {
			return candidate, nil
		}
	}
	return "", ErrNoAvailableRoomID
}
