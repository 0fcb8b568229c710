package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// HashAccessCode hashes an organizer access code for storage.
func HashAccessCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// VerifyAccessCode compares a presented code against a stored hash in
// constant time.
func VerifyAccessCode(code, hash string) bool {
	presented := HashAccessCode(code)
	return subtle.ConstantTimeCompare([]byte(presented), []byte(hash)) == 1
}
