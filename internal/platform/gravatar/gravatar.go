// Package gravatar builds Gravatar image URLs.
package gravatar

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

const baseURL = "https://www.gravatar.com/avatar/"

// URL returns the Gravatar image URL for email. Gravatar keys images by the
// MD5 of the trimmed, lowercased address.
func URL(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return baseURL + hex.EncodeToString(sum[:])
}
