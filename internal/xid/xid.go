package xid

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
	"unicode"
)

// New returns a prefixed, collision-resistant identifier.
func New(prefix string) string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
	}
	return fmt.Sprintf("%s-%d-%s", prefix, time.Now().UnixNano(), hex.EncodeToString(buf))
}

// Slug lowercases the input and collapses runs of non-alphanumerics into
// single dashes. Used to derive product ids from SKUs and names.
func Slug(value string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(value)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastDash = false
			continue
		}
		if !lastDash {
			b.WriteByte('-')
			lastDash = true
		}
	}
	return strings.Trim(b.String(), "-")
}

// VoidToken returns a short, human-readable void identifier. It is for
// display rather than a primary key, so probabilistic uniqueness is enough.
func VoidToken() string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("VOID-%d", time.Now().UnixNano())
	}
	return "VOID-" + strings.ToUpper(hex.EncodeToString(buf))
}
