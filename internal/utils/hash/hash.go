package hash

import (
	"crypto/sha256"
	"encoding/hex"
)

// GenerateSha256Hash returns the lowercase hex SHA-256 digest of str
func GenerateSha256Hash(str string) string {
	hasher := sha256.New()
	hasher.Write([]byte(str))
	return hex.EncodeToString(hasher.Sum(nil))
}
