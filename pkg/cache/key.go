package cache

import (
	"fmt"
	"strings"
)

// Key identifies one cached VSAC response: a single expansion page or a
// definition resource.
type Key struct {
	// OID is the canonical value set identifier.
	OID string

	// Version is the value set version label; empty means "latest".
	Version string

	// Offset is the expansion page offset. Ignored for definitions.
	Offset int

	// Definition marks a definition resource, which has no page offset.
	Definition bool
}

// Filename returns the deterministic cache file name for the key.
//
// Pages:       vsac-<oid>-<version-or-latest>-page-<offset>.json
// Definitions: vsac-<oid>-<version-or-latest>-definition.json
func (k Key) Filename() string {
	version := k.Version
	if version == "" {
		version = "latest"
	}
	version = sanitizeLabel(version)

	if k.Definition {
		return fmt.Sprintf("vsac-%s-%s-definition.json", k.OID, version)
	}
	return fmt.Sprintf("vsac-%s-%s-page-%d.json", k.OID, version, k.Offset)
}

// String is the backend-independent cache key, also used as the Redis key.
func (k Key) String() string {
	return strings.TrimSuffix(k.Filename(), ".json")
}

// sanitizeLabel makes a version label safe for use in a file name. VSAC
// version labels can contain spaces and slashes (e.g. "eCQM Update
// 2020-05-07").
func sanitizeLabel(label string) string {
	var b strings.Builder
	b.Grow(len(label))
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
