package ingestion

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Metadata describes where a loaded document came from.
type Metadata struct {
	Source    string `json:"source"`
	Kind      Kind   `json:"kind"`
	Format    Format `json:"format"`
	Title     string `json:"title,omitempty"`    // HTML <title> for web pages
	Platform  string `json:"platform,omitempty"` // Detected job board
	Rendered  bool   `json:"rendered,omitempty"` // Page went through the headless browser
	Timestamp string `json:"timestamp"`          // RFC3339
	Hash      string `json:"hash"`               // SHA256 hex digest of the cleaned text
	Chars     int    `json:"chars"`
}

// NewMetadata creates a Metadata stamped with the current time.
func NewMetadata(source string, kind Kind, format Format, content string) *Metadata {
	return &Metadata{
		Source:    source,
		Kind:      kind,
		Format:    format,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Hash:      computeHash(content),
		Chars:     len([]rune(content)),
	}
}

func computeHash(content string) string {
	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}
