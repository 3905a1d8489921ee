package hash

import (
	"crypto/sha256"
	"encoding/hex"
)

// VoterHashIterations governs how expensive voter hash derivation is.
// Iterated hashing keeps casual rainbow-table reversal of IP+UA pairs
// impractical while staying cheap enough for the request path.
const VoterHashIterations = 5000

// SHA256Hex returns the hex-encoded SHA256 hash of the input string.
func SHA256Hex(input string) string {
	h := sha256.Sum256([]byte(input))
	return hex.EncodeToString(h[:])
}

// IteratedSHA256 applies SHA256 iteratively n times to produce a derived hash.
func IteratedSHA256(input string, iterations int) string {
	data := []byte(input)
	for range iterations {
		h := sha256.Sum256(data)
		data = h[:]
	}
	return hex.EncodeToString(data)
}

// HashVoter derives the anonymous voter identity used for vote
// deduplication. Raw IP and user agent never leave the process.
func HashVoter(ip, userAgent, salt string) string {
	return IteratedSHA256(salt+ip+"|"+userAgent, VoterHashIterations)
}
