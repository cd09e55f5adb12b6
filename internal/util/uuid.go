package util

import "regexp"

var uuidRegex = regexp.MustCompile(`^[a-fA-F0-9]{8}-[a-fA-F0-9]{4}-[a-fA-F0-9]{4}-[a-fA-F0-9]{4}-[a-fA-F0-9]{12}$`)

// IsValidUUID reports whether s has the 8-4-4-4-12 hex layout.
func IsValidUUID(s string) bool {
	return uuidRegex.MatchString(s)
}

const abbreviatedUUIDPrefixLength = 8

// AbbreviateUUID shortens record identifiers for table output. Values that
// are not UUIDs are returned unchanged.
func AbbreviateUUID(id string) string {
	if !IsValidUUID(id) {
		return id
	}
	return id[:abbreviatedUUIDPrefixLength] + "…"
}
