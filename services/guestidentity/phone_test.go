package guestidentity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePhone(t *testing.T) {
	testCases := []struct {
		name        string
		callingCode string
		number      string
		valid       bool
	}{
		{name: "Nepal mobile starting 98", callingCode: "+977", number: "9841234567", valid: true},
		{name: "Nepal mobile starting 97", callingCode: "+977", number: "9741234567", valid: true},
		{name: "Nepal mobile starting 96", callingCode: "+977", number: "9612345678", valid: true},
		{name: "Nepal with separators", callingCode: "+977", number: "984-123 4567", valid: true},
		{name: "Nepal invalid leading digit", callingCode: "+977", number: "0841234567", valid: false},
		{name: "Nepal landline prefix rejected", callingCode: "+977", number: "0123456789", valid: false},
		{name: "Nepal too short", callingCode: "+977", number: "984123456", valid: false},
		{name: "Nepal too long", callingCode: "+977", number: "98412345678", valid: false},

		{name: "US ten digits", callingCode: "+1", number: "5551234567", valid: true},
		{name: "US nine digits", callingCode: "+1", number: "555123456", valid: false},
		{name: "US eleven digits", callingCode: "+1", number: "55512345678", valid: false},

		{name: "UK seven digits", callingCode: "+44", number: "1234567", valid: true},
		{name: "UK ten digits", callingCode: "+44", number: "7911123456", valid: true},
		{name: "UK six digits", callingCode: "+44", number: "123456", valid: false},
		{name: "UK eleven digits", callingCode: "+44", number: "79111234567", valid: false},

		{name: "India starting 9", callingCode: "+91", number: "9876543210", valid: true},
		{name: "India starting 6", callingCode: "+91", number: "6876543210", valid: true},
		{name: "India starting 5", callingCode: "+91", number: "5876543210", valid: false},
		{name: "India nine digits", callingCode: "+91", number: "987654321", valid: false},

		{name: "Unknown code generic minimum", callingCode: "+49", number: "123456", valid: true},
		{name: "Unknown code generic maximum", callingCode: "+49", number: "123456789012345", valid: true},
		{name: "Unknown code too short", callingCode: "+49", number: "12345", valid: false},
		{name: "Unknown code too long", callingCode: "+49", number: "1234567890123456", valid: false},
		{name: "Unknown code non-digits", callingCode: "+49", number: "12345a7", valid: false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePhone(tc.callingCode, tc.number)
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestFormatPhone(t *testing.T) {
	assert.Equal(t, "+9779841234567", FormatPhone("+977", "984-123 4567"))
	assert.Equal(t, "+15551234567", FormatPhone("+1", "555 123 4567"))
}
