package services

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

const tokenLength = 10

// HashedToken derives the public menu token of a restaurant from its id.
func HashedToken(restaurantID uint, salt string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d%s", restaurantID, salt)))
	return hex.EncodeToString(sum[:])[:tokenLength]
}
