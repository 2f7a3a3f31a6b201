package identity

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes give transports a stable machine readable discriminator that
// survives message rewording.
const (
	TextCodeInvalidCreds           = "INVALID_CREDENTIALS"
	TextCodeTokenExpired           = "TOKEN_EXPIRED"
	TextCodeTokenMalformed         = "TOKEN_MALFORMED"
	TextCodeUserNotFound           = "USER_NOT_FOUND"
	TextCodeUserInactive           = "USER_INACTIVE"
	TextCodeForbidden              = "FORBIDDEN"
	TextCodeDuplicateIdentifier    = "DUPLICATE_IDENTIFIER"
	TextCodeLastAdmin              = "LAST_ADMIN"
	TextCodeEmptyPassword          = "EMPTY_PASSWORD"
	TextCodeInvalidCurrentPassword = "INVALID_CURRENT_PASSWORD"
	TextCodeInvalidRole            = "INVALID_ROLE"
	TextCodeClaimsMappingError     = "CLAIMS_MAPPING_ERROR"
)

// ErrInvalidCredentials is the single externally observable login failure.
// Unknown identifier, wrong password, and inactive account all collapse into
// this value so callers cannot probe which identifiers exist.
var ErrInvalidCredentials = goerrors.New("invalid credentials", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(goerrors.CodeUnauthorized)

// ErrMismatchedHashAndPassword is returned when a cleartext password does not
// match the stored digest. Malformed digests map here too.
var ErrMismatchedHashAndPassword = goerrors.New("password does not match", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(goerrors.CodeUnauthorized)

// ErrNoEmptyString is returned when an empty password reaches the hasher.
var ErrNoEmptyString = goerrors.New("password must not be empty", goerrors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(goerrors.CodeBadRequest)

// ErrTokenExpired is returned when a token's exp claim is in the past.
var ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed is returned when a token's encoding or signature is invalid.
var ErrTokenMalformed = goerrors.New("token is malformed", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// ErrUnableToMapClaims signals a validated token whose claims could not be
// decoded into JWTClaims.
var ErrUnableToMapClaims = goerrors.New("unable to map claims", goerrors.CategoryAuth).
	WithTextCode(TextCodeClaimsMappingError).
	WithCode(goerrors.CodeUnauthorized)

// ErrUserNotFound is returned by the guard when a token's subject no longer
// resolves to a non-deleted record.
var ErrUserNotFound = goerrors.New("user not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeUserNotFound)

// ErrUserInactive is returned by the guard when a token's subject resolves to
// a deactivated record.
var ErrUserInactive = goerrors.New("user account is inactive", goerrors.CategoryAuth).
	WithTextCode(TextCodeUserInactive).
	WithCode(goerrors.CodeUnauthorized)

// ErrForbidden is returned when an identity's role does not satisfy the role
// an operation demands.
var ErrForbidden = goerrors.New("insufficient role", goerrors.CategoryAuth).
	WithTextCode(TextCodeForbidden)

// ErrDuplicateIdentifier is returned when a username or email collides with a
// non-deleted record.
var ErrDuplicateIdentifier = goerrors.New("username or email already in use", goerrors.CategoryConflict).
	WithTextCode(TextCodeDuplicateIdentifier).
	WithCode(goerrors.CodeConflict)

// ErrLastAdmin is returned when an operation would leave the store with zero
// active, non-deleted admins.
var ErrLastAdmin = goerrors.New("cannot remove the last active admin", goerrors.CategoryConflict).
	WithTextCode(TextCodeLastAdmin).
	WithCode(goerrors.CodeConflict)

// ErrInvalidCurrentPassword is returned by the change-password flow when the
// supplied current password does not match the stored digest.
var ErrInvalidCurrentPassword = goerrors.New("current password is incorrect", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCurrentPassword).
	WithCode(goerrors.CodeUnauthorized)

// ErrInvalidRole is returned when a role outside the closed enumeration is
// supplied.
var ErrInvalidRole = goerrors.New("unknown or invalid role", goerrors.CategoryValidation).
	WithTextCode(TextCodeInvalidRole).
	WithCode(goerrors.CodeBadRequest)

// IsTokenExpiredError will check for expired tokens, matching both the
// structured error and legacy string forms.
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	var rich *goerrors.Error
	if goerrors.As(err, &rich) && rich.TextCode == TextCodeTokenExpired {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for malformed token errors.
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	var rich *goerrors.Error
	if goerrors.As(err, &rich) && rich.TextCode == TextCodeTokenMalformed {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// IsLastAdminError reports whether err is the last-admin invariant rejection.
func IsLastAdminError(err error) bool {
	var rich *goerrors.Error
	return goerrors.As(err, &rich) && rich.TextCode == TextCodeLastAdmin
}

// IsDuplicateIdentifierError reports whether err is an identifier collision.
func IsDuplicateIdentifierError(err error) bool {
	var rich *goerrors.Error
	return goerrors.As(err, &rich) && rich.TextCode == TextCodeDuplicateIdentifier
}
