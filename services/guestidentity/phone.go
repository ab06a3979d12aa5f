package guestidentity

import (
	"fmt"
	"regexp"
	"strings"
)

type phoneRule struct {
	pattern     *regexp.Regexp
	description string
}

// Per-calling-code validation rules. Numbers are matched after stripping
// whitespace and hyphens, without the calling code itself.
var phoneRules = map[string]phoneRule{
	"+977": {
		pattern:     regexp.MustCompile(`^(96|97|98)\d{8}$`),
		description: "a 10-digit Nepali mobile number starting with 96, 97 or 98",
	},
	"+1": {
		pattern:     regexp.MustCompile(`^\d{10}$`),
		description: "a 10-digit US/Canada number",
	},
	"+44": {
		pattern:     regexp.MustCompile(`^\d{7,10}$`),
		description: "a 7 to 10 digit UK number",
	},
	"+91": {
		pattern:     regexp.MustCompile(`^[6-9]\d{9}$`),
		description: "a 10-digit Indian mobile number starting with 6-9",
	},
}

// Fallback for calling codes we have no specific rule for.
var genericPhoneRule = phoneRule{
	pattern:     regexp.MustCompile(`^\d{6,15}$`),
	description: "a phone number of 6 to 15 digits",
}

func ValidatePhone(callingCode string, number string) error {
	rule, known := phoneRules[callingCode]
	if !known {
		rule = genericPhoneRule
	}

	if !rule.pattern.MatchString(stripSeparators(number)) {
		return fmt.Errorf("must be %s", rule.description)
	}

	return nil
}

// FormatPhone composes the wire format the booking backend expects:
// calling code followed by the local number, separators stripped.
func FormatPhone(callingCode string, number string) string {
	return stripSeparators(callingCode) + stripSeparators(number)
}

func stripSeparators(s string) string {
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "-", "")
	return s
}
