package registration

import (
	"regexp"
	"strings"

	pkgerrors "github.com/angelmondragon/autoparts-backend/pkg/errors"
)

const (
	nameMinLen     = 2
	nameMaxLen     = 50
	emailMaxLen    = 100
	passwordMinLen = 8
	passwordMaxLen = 128
)

var (
	namePattern  = regexp.MustCompile(`^[a-zA-Z\s]+$`)
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	lowerPattern = regexp.MustCompile(`[a-z]`)
	upperPattern = regexp.MustCompile(`[A-Z]`)
	digitPattern = regexp.MustCompile(`\d`)
	// special characters accepted by the storefront signup form
	specialPattern = regexp.MustCompile(`[@$!%*?&]`)
)

// RegisterInput is a signup submission.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// NormalizeEmail trims and lowercases an address so it can be used as a key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Validate checks every field and returns a validation error whose details map
// each failing field to its message.
func (in RegisterInput) Validate() error {
	problems := map[string]string{}
	if msg := validateName(in.Name); msg != "" {
		problems["name"] = msg
	}
	if msg := validateEmail(strings.TrimSpace(in.Email)); msg != "" {
		problems["email"] = msg
	}
	if msg := validatePassword(in.Password); msg != "" {
		problems["password"] = msg
	}
	if len(problems) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "invalid registration").WithDetails(problems)
}

func validateName(name string) string {
	switch {
	case name == "":
		return "Name is required"
	case len(name) < nameMinLen:
		return "Name must be at least 2 characters"
	case len(name) > nameMaxLen:
		return "Name is too long"
	case !namePattern.MatchString(name):
		return "Name can only contain letters and spaces"
	}
	return ""
}

func validateEmail(email string) string {
	switch {
	case email == "":
		return "Email is required"
	case !emailPattern.MatchString(email):
		return "Invalid email"
	case len(email) > emailMaxLen:
		return "Email is too long"
	}
	return ""
}

func validatePassword(password string) string {
	switch {
	case password == "":
		return "Password is required"
	case len(password) < passwordMinLen:
		return "Password must be at least 8 characters"
	case len(password) > passwordMaxLen:
		return "Password is too long"
	case !lowerPattern.MatchString(password):
		return "Need 1 lowercase letter"
	case !upperPattern.MatchString(password):
		return "Need 1 uppercase letter"
	case !digitPattern.MatchString(password):
		return "Need 1 number"
	case !specialPattern.MatchString(password):
		return "Need 1 special char (@$!%*?&)"
	}
	return ""
}
