package models

import "strings"

// PlaceholderImage is the shared fallback avatar/image reference.
const PlaceholderImage = "/assets/placeholder.png"

// ResolveImageRef normalizes the three image-reference conventions used across
// entity documents into something a client can render directly: http(s) URLs
// and data URIs pass through, bare inline base64 payloads gain a data URI
// prefix, and empty references fall back to the placeholder.
func ResolveImageRef(ref string) string {
	switch {
	case ref == "":
		return PlaceholderImage
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return ref
	case strings.HasPrefix(ref, "data:"):
		return ref
	default:
		return "data:image/jpeg;base64," + ref
	}
}
