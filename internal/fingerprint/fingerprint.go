// Package fingerprint derives the stable identifiers used as storage and
// dedup keys.
package fingerprint

import (
	"encoding/hex"
	"strings"

	"github.com/zeebo/blake3"

	"ContentCurator/internal/domain"
)

// separator is the ASCII unit separator; it does not occur in feed text.
const separator = "\x1f"

// Fingerprint hashes the ordered fields into a 64-char hex digest.
func Fingerprint(fields ...string) string {
	sum := blake3.Sum256([]byte(strings.Join(fields, separator)))
	return hex.EncodeToString(sum[:])
}

// ForFeedItem keys feed entries by title, link and description.
func ForFeedItem(title, link, description string) string {
	return Fingerprint(title, link, description)
}

// ForSocialPost keys social posts by title, post id and source name; the
// permalink is not used because it may carry mutable query parameters.
func ForSocialPost(title, postID, sourceName string) string {
	return Fingerprint(title, postID, sourceName)
}

// ForEntry picks the field set matching the entry's source type.
func ForEntry(entry domain.Entry) string {
	if entry.SourceType == domain.SourceTypeSocialPost {
		return ForSocialPost(entry.Title, entry.ExternalID, entry.SourceName)
	}
	return ForFeedItem(entry.Title, entry.Link, entry.Description)
}

// SourceKey turns a source identifier into a storage-safe cursor key.
func SourceKey(sourceID string) string {
	return Fingerprint(sourceID)
}
