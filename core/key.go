package core

import (
	"crypto/sha256"
	"encoding/hex"
)

// DeriveKey maps a submitted video URL to the content key used for caching
// and storage. The raw URL bytes are hashed as-is: no normalization of query
// parameters, trailing slashes or protocol, so URL variants of the same video
// are distinct sessions.
func DeriveKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}
