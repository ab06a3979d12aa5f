package guestidentity

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
)

const testSecret = "my_test_secret"

var validGuest = GuestProfile{
	FirstName:   "Sita",
	LastName:    "Rai",
	Email:       "sita@example.com",
	CallingCode: "+977",
	Phone:       "9841234567",
}

func TestResolve(t *testing.T) {
	c := context.TODO()
	resolver := NewResolver(testSecret)

	t.Run("Valid session token resolves to authenticated", func(t *testing.T) {
		token := signedToken(t, testSecret, "user_1", time.Now().Add(time.Hour))

		identity, fieldErrors := resolver.Resolve(c, "Bearer "+token, GuestProfile{})

		assert.Empty(t, fieldErrors)
		assert.True(t, identity.IsAuthenticated())
		assert.Equal(t, "user_1", identity.UserUID)
		assert.Equal(t, token, identity.SessionToken)
	})

	t.Run("Expired token degrades to guest flow", func(t *testing.T) {
		token := signedToken(t, testSecret, "user_1", time.Now().Add(-time.Hour))

		identity, fieldErrors := resolver.Resolve(c, "Bearer "+token, validGuest)

		assert.Empty(t, fieldErrors)
		assert.Equal(t, KindAnonymous, identity.Kind)
		assert.Equal(t, validGuest, identity.Guest)
	})

	t.Run("Token signed with wrong secret degrades to guest flow", func(t *testing.T) {
		token := signedToken(t, "other_secret", "user_1", time.Now().Add(time.Hour))

		identity, fieldErrors := resolver.Resolve(c, "Bearer "+token, validGuest)

		assert.Empty(t, fieldErrors)
		assert.Equal(t, KindAnonymous, identity.Kind)
	})

	t.Run("No header with valid guest resolves to anonymous", func(t *testing.T) {
		identity, fieldErrors := resolver.Resolve(c, "", validGuest)

		assert.Empty(t, fieldErrors)
		assert.Equal(t, KindAnonymous, identity.Kind)
	})

	t.Run("Missing guest fields are reported per field", func(t *testing.T) {
		_, fieldErrors := resolver.Resolve(c, "", GuestProfile{})

		assert.Equal(t, "is required", fieldErrors["firstName"])
		assert.Equal(t, "is required", fieldErrors["lastName"])
		assert.Equal(t, "is required", fieldErrors["email"])
		assert.Equal(t, "is required", fieldErrors["callingCode"])
		assert.Equal(t, "is required", fieldErrors["phone"])
	})

	t.Run("Malformed email is reported", func(t *testing.T) {
		guest := validGuest
		guest.Email = "not-an-email"

		_, fieldErrors := resolver.Resolve(c, "", guest)

		assert.Equal(t, "must be a valid email address", fieldErrors["email"])
	})

	t.Run("Invalid Nepali leading digit is reported on the phone field", func(t *testing.T) {
		guest := validGuest
		guest.Phone = "0841234567"

		_, fieldErrors := resolver.Resolve(c, "", guest)

		assert.Len(t, fieldErrors, 1)
		assert.Contains(t, fieldErrors["phone"], "starting with 96, 97 or 98")
	})
}

func signedToken(t *testing.T, secret string, subject string, expiresAt time.Time) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": subject,
		"exp": expiresAt.Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	assert.NoError(t, err)

	return signed
}
