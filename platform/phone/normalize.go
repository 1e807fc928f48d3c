// Package phone normalizes phone numbers so student records and call-list
// entries can be matched on a canonical form.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// NormalizeE164 formats input to E.164, interpreting numbers without a
// country prefix in defaultRegion (ISO 3166-1 alpha-2, e.g. "IN").
// Unparseable or invalid numbers are returned trimmed but otherwise
// untouched, so callers store what the user typed rather than nothing.
func NormalizeE164(input, defaultRegion string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return ""
	}

	parsed, err := phonenumbers.Parse(trimmed, defaultRegion)
	if err != nil || !phonenumbers.IsValidNumber(parsed) {
		return trimmed
	}
	return phonenumbers.Format(parsed, phonenumbers.E164)
}
