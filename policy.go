package identity

import (
	"errors"
	"regexp"
	"strings"
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
)

const (
	// UsernameMinLength is the shortest accepted username.
	UsernameMinLength = 3
	// UsernameMaxLength is the longest accepted username.
	UsernameMaxLength = 100
	// PasswordMinLength is the shortest accepted password.
	PasswordMinLength = 8
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// NormalizeUsername trims and lower-cases an identifier the way the store
// persists usernames.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// ValidateUsername enforces the username policy: 3-100 characters from the
// alphanumeric, hyphen, underscore set.
func ValidateUsername(username string) error {
	err := validation.Validate(strings.TrimSpace(username),
		validation.Required,
		validation.Length(UsernameMinLength, UsernameMaxLength),
		validation.Match(usernamePattern).
			Error("may only contain letters, numbers, hyphens, and underscores"),
	)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid username").
			WithCode(goerrors.CodeBadRequest)
	}
	return nil
}

// ValidateEmail enforces that the value is a well formed email address.
func ValidateEmail(email string) error {
	err := validation.Validate(strings.TrimSpace(email),
		validation.Required,
		is.Email,
	)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid email").
			WithCode(goerrors.CodeBadRequest)
	}
	return nil
}

// ValidatePassword enforces the password policy: at least 8 characters with
// one uppercase letter, one lowercase letter, and one digit. The policy runs
// before hashing; the hasher itself accepts any non-empty input.
func ValidatePassword(password string) error {
	err := validation.Validate(password,
		validation.Required,
		validation.Length(PasswordMinLength, 0),
		validation.By(requireRune("an uppercase letter", unicode.IsUpper)),
		validation.By(requireRune("a lowercase letter", unicode.IsLower)),
		validation.By(requireRune("a digit", unicode.IsDigit)),
	)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "password does not meet policy").
			WithCode(goerrors.CodeBadRequest)
	}
	return nil
}

func requireRune(label string, match func(rune) bool) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		for _, r := range s {
			if match(r) {
				return nil
			}
		}
		return errors.New("must contain at least " + label)
	}
}
