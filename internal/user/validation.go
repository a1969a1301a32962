package user

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"
)

const (
	MinPasswordLength = 5
	MaxEmailLength    = 255
	MaxNameLength     = 255
)

// ValidateRegistration checks a sign-up payload and reports every bad field
func ValidateRegistration(email, password, name string) error {
	verr := NewValidationError()

	validateEmail(verr, email)

	if password == "" {
		verr.Add("password", MsgRequired)
	} else {
		validatePassword(verr, password)
	}

	validateName(verr, name)

	return verr.Err()
}

// ValidateProfileUpdate checks a partial profile update; nil fields are skipped
func ValidateProfileUpdate(email, name, password *string) error {
	verr := NewValidationError()

	if email != nil {
		validateEmail(verr, *email)
	}
	if name != nil {
		validateName(verr, *name)
	}
	if password != nil {
		validatePassword(verr, *password)
	}

	return verr.Err()
}

func validateEmail(verr *ValidationError, email string) {
	email = strings.TrimSpace(email)
	if email == "" {
		verr.Add("email", MsgRequired)
		return
	}

	if utf8.RuneCountInString(email) > MaxEmailLength {
		verr.Add("email", fmt.Sprintf("Ensure this field has no more than %d characters.", MaxEmailLength))
		return
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		verr.Add("email", MsgInvalidEmail)
	}
}

func validatePassword(verr *ValidationError, password string) {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		verr.Add("password", fmt.Sprintf("Ensure this field has at least %d characters.", MinPasswordLength))
	}
}

func validateName(verr *ValidationError, name string) {
	if utf8.RuneCountInString(name) > MaxNameLength {
		verr.Add("name", fmt.Sprintf("Ensure this field has no more than %d characters.", MaxNameLength))
	}
}
