package nyckel

import "strings"

// StripIDPrefix removes the type prefix from a server-returned resource ID.
// The API returns IDs as "type_rawid" (for example "label_abc123"); all
// further API calls and all IDs exposed to users use the raw part. An ID
// without exactly one underscore separator is returned unchanged.
func StripIDPrefix(id string) string {
	parts := strings.Split(id, "_")
	if len(parts) == 2 {
		return parts[1]
	}

	return id
}

// StripIDPrefixes applies StripIDPrefix to every element.
func StripIDPrefixes(ids []string) []string {
	stripped := make([]string, len(ids))
	for i, id := range ids {
		stripped[i] = StripIDPrefix(id)
	}

	return stripped
}
