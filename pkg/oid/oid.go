// Package oid normalizes value set identifiers to canonical dotted-numeric
// OID form.
package oid

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrInvalidOID is returned when the input contains no dotted-numeric OID.
var ErrInvalidOID = errors.New("no OID found in identifier")

// An OID is digits separated by dots, with at least one dot.
var oidPattern = regexp.MustCompile(`\d+(?:\.\d+)+`)

// Normalize extracts the canonical OID from an identifier in any of the
// accepted forms: a bare OID ("2.16.840.1.113883.3.464.1003.110.12.1001"),
// a prefixed identifier ("urn:oid:2.16.840..."), or a canonical URL
// containing the OID.
func Normalize(input string) (string, error) {
	match := oidPattern.FindString(input)
	if match == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidOID, input)
	}
	return match, nil
}
