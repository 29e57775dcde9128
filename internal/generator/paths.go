package generator

import (
	"crypto/sha256"
	"encoding/hex"
	"path"
	"strings"
)

// outputPath maps a site-relative URL onto a file path inside the output
// tree. Pretty URLs become directory indexes; URLs carrying an extension map
// onto the file directly.
func outputPath(url string) string {
	clean := strings.Trim(strings.TrimSpace(url), "/")
	if clean == "" {
		return "index.html"
	}
	if path.Ext(clean) != "" {
		return clean
	}
	return path.Join(clean, "index.html")
}

func computeHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func computeHashFromString(content string) string {
	return computeHash([]byte(content))
}
