// Package avatar derives deterministic avatar URLs from account emails.
package avatar

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
)

const defaultSize = 128

// URL returns the Gravatar URL for the given email. The email is normalized
// (trimmed, lowercased) before hashing so the same account always maps to
// the same image.
func URL(email string) string {
	return URLWithSize(email, defaultSize)
}

// URLWithSize is URL with an explicit image size in pixels.
func URLWithSize(email string, size int) string {
	if size <= 0 {
		size = defaultSize
	}
	sum := md5.Sum([]byte(strings.TrimSpace(strings.ToLower(email))))
	return fmt.Sprintf("https://gravatar.com/avatar/%s?s=%d", hex.EncodeToString(sum[:]), size)
}
