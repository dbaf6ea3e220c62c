package utils

import (
	"errors"
	"math/rand/v2"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var errTrailingData = errors.New("request body must contain a single JSON value")

// --- Random String and ID Generators ---

var letterRunes = []rune("abcdefghijklmnopqrstuvwxyz0123456789_ABCDEFGHIJKLMNOPQRSTUVWXYZ")

// GenerateRandomString creates a random alphanumeric string of length n.
func GenerateRandomString(n int) string {
	b := make([]rune, n)
	for i := range b {
		b[i] = letterRunes[rand.IntN(len(letterRunes))]
	}
	return string(b)
}

func GetUUID() string {
	return uuid.New().String()
}

var unsafeFilename = regexp.MustCompile(`[^\w.\-]`)

// SanitizeFilename keeps a name safe for Content-Disposition headers.
func SanitizeFilename(name string) string {
	clean := unsafeFilename.ReplaceAllString(filepath.Base(strings.TrimSpace(name)), "_")
	if clean == "" || clean == "." || clean == "_" {
		return "file"
	}
	return clean
}
