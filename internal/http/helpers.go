package http

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
	"unicode"
)

// sanitizeInput drops control characters, keeping tabs and newlines, and
// trims whitespace.
func sanitizeInput(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

// attachmentDisposition builds a Content-Disposition header for a download.
// Export file names are ASCII, so no RFC 5987 encoding is needed.
func attachmentDisposition(filename string) string {
	filename = strings.Map(func(r rune) rune {
		if r == '"' || r == '\\' || r > unicode.MaxASCII || unicode.IsControl(r) {
			return '_'
		}
		return r
	}, filename)
	return `attachment; filename="` + filename + `"`
}
