package guestidentity

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"

	"github.com/hamrostay/checkoutservice/lib/mylog"
)

type Kind string

const (
	KindAuthenticated Kind = "AUTHENTICATED"
	KindAnonymous     Kind = "ANONYMOUS"
)

// Identity is the resolved shopper identity of a checkout attempt: either an
// authenticated platform user or an anonymous guest with contact details.
type Identity struct {
	Kind         Kind
	UserUID      string
	SessionToken string // raw bearer token, forwarded to the booking backend
	Guest        GuestProfile
}

func (i Identity) IsAuthenticated() bool {
	return i.Kind == KindAuthenticated
}

type GuestProfile struct {
	FirstName   string `validate:"required"`
	LastName    string `validate:"required"`
	Email       string `validate:"required,email"`
	CallingCode string `validate:"required"`
	Phone       string `validate:"required"`
}

// FieldErrors maps an input field to a user-correctable message.
// Submission is blocked until the map is empty.
type FieldErrors map[string]string

var validate = validator.New()

type Resolver struct {
	jwtSecret []byte
	logger    mylog.Logger
}

func NewResolver(jwtSecret string) *Resolver {
	return &Resolver{
		jwtSecret: []byte(jwtSecret),
		logger:    mylog.New("guestidentity"),
	}
}

// Resolve returns an authenticated identity when the Authorization header
// carries a valid session token, and otherwise validates the supplied guest
// profile. Validation failures never reach the network.
func (r *Resolver) Resolve(c context.Context, authorizationHeader string, guest GuestProfile) (Identity, FieldErrors) {
	userUID, token, ok := r.parseSessionToken(c, authorizationHeader)
	if ok {
		return Identity{
			Kind:         KindAuthenticated,
			UserUID:      userUID,
			SessionToken: token,
		}, nil
	}

	fieldErrors := validateGuestProfile(guest)
	if len(fieldErrors) > 0 {
		return Identity{}, fieldErrors
	}

	return Identity{
		Kind:  KindAnonymous,
		Guest: guest,
	}, nil
}

func (r *Resolver) parseSessionToken(c context.Context, authorizationHeader string) (string, string, bool) {
	tokenString, found := strings.CutPrefix(authorizationHeader, "Bearer ")
	if !found || tokenString == "" {
		return "", "", false
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		return r.jwtSecret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		// An expired or tampered token degrades to the guest flow
		r.logger.Log(c, "", mylog.SeverityWarn, "Ignoring invalid session token: %s", err)
		return "", "", false
	}

	subject, err := token.Claims.GetSubject()
	if err != nil || subject == "" {
		return "", "", false
	}

	return subject, tokenString, true
}

func validateGuestProfile(guest GuestProfile) FieldErrors {
	fieldErrors := FieldErrors{}

	err := validate.Struct(guest)
	if err != nil {
		validationErrors, ok := err.(validator.ValidationErrors)
		if !ok {
			fieldErrors["guest"] = "invalid guest details"
			return fieldErrors
		}
		for _, fieldError := range validationErrors {
			fieldErrors[fieldKey(fieldError.Field())] = messageForTag(fieldError.Tag())
		}
	}

	// Phone format rules depend on the selected calling code
	if _, alreadyInvalid := fieldErrors["phone"]; !alreadyInvalid && guest.Phone != "" {
		err := ValidatePhone(guest.CallingCode, guest.Phone)
		if err != nil {
			fieldErrors["phone"] = err.Error()
		}
	}

	return fieldErrors
}

func fieldKey(structField string) string {
	return strings.ToLower(structField[:1]) + structField[1:]
}

func messageForTag(tag string) string {
	switch tag {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	default:
		return "is invalid"
	}
}
