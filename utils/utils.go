package utils

import "math/rand"

const (
	// ErrorTokenAuthFail is returned in error bodies when the identity
	// provider rejects or cannot find a token.
	ErrorTokenAuthFail = 10001
)

const alphabet = "abcdefghijklmnopqrstuvwxyz"

// ContainsString returns true iff the provided string slice hay contains string
// needle.
func ContainsString(hay []string, needle string) bool {
	for _, str := range hay {
		if str == needle {
			return true
		}
	}
	return false
}

// RandomAlphabetString returns a random lowercase string of the given length.
// Not cryptographically secure, used for test db names and the like.
func RandomAlphabetString(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = alphabet[rand.Intn(len(alphabet))]
	}
	return string(b)
}
