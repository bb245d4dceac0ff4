package middleware

import (
	"fmt"
	"mime"
	"net/http"
	"strings"
)

// Upload validation and sanitization utilities

// MaxUploadBytes caps the size of document and table uploads.
const MaxUploadBytes = 10 << 20 // 10 MiB

// ValidateUploadSize rejects oversized uploads before any body read.
func ValidateUploadSize(r *http.Request) error {
	if r.ContentLength > MaxUploadBytes {
		return fmt.Errorf("upload too large: %d bytes (max %d)", r.ContentLength, MaxUploadBytes)
	}
	return nil
}

// ValidateContentType checks the request's media type against an allowed set.
// An empty Content-Type is accepted; format detection then falls to the
// parser itself.
func ValidateContentType(r *http.Request, allowed ...string) error {
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return nil
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return fmt.Errorf("invalid Content-Type: %w", err)
	}
	for _, a := range allowed {
		if strings.EqualFold(mediaType, a) {
			return nil
		}
	}
	return fmt.Errorf("invalid Content-Type: %s (allowed: %s)", mediaType, strings.Join(allowed, ", "))
}

// ValidateTopK clamps the retrieval depth parameter.
func ValidateTopK(k int) int {
	if k <= 0 {
		return 4 // default
	}
	if k > 50 {
		return 50 // max
	}
	return k
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters
	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}
